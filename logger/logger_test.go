package logger

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestInitializeWithWriterTeesJSON(t *testing.T) {
	prev := Log
	t.Cleanup(func() { Log = prev })

	var buf bytes.Buffer
	InitializeWithWriter("production", &buf)
	Info(WithContext(context.Background(), "req-1"), "cart updated")
	_ = Log.Sync()

	out := buf.String()
	assert.Contains(t, out, `"msg":"cart updated"`)
	assert.Contains(t, out, `"request_id":"req-1"`)
}

func TestGetRequestID(t *testing.T) {
	assert.Equal(t, "unknown", getRequestID(context.Background()))

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/", nil)
	assert.Equal(t, "unknown", getRequestID(c))

	c.Set(RequestIDKey, "abc")
	assert.Equal(t, "abc", getRequestID(c))
}
