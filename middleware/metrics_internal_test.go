package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouteArea(t *testing.T) {
	assert.Equal(t, "cms", routeArea("/api/cms/classes/:id"))
	assert.Equal(t, "checkout", routeArea("/api/checkout/submit"))
	assert.Equal(t, "storefront", routeArea("/api/cart/items/:id/increment"))
	assert.Equal(t, "system", routeArea("/health"))
	assert.Equal(t, "system", routeArea("unmatched"))
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(204))
	assert.Equal(t, "4xx", statusClass(409))
	assert.Equal(t, "5xx", statusClass(502))
	assert.Equal(t, "unknown", statusClass(0))
}
