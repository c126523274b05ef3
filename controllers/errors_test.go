package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Nappiz/tcmudah-storefront/clients"
	apperrors "github.com/Nappiz/tcmudah-storefront/errors"
	"github.com/Nappiz/tcmudah-storefront/services"
)

func TestToAppError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"validation", &services.ValidationError{Message: services.MsgCartEmpty}, http.StatusBadRequest, services.MsgCartEmpty},
		{"wrapped validation", fmt.Errorf("submit: %w", &services.ValidationError{Message: "x"}), http.StatusBadRequest, "x"},
		{"submit in progress", services.ErrSubmitInProgress, http.StatusConflict, services.ErrSubmitInProgress.Error()},
		{"no checkout", services.ErrNoCheckout, http.StatusConflict, services.ErrNoCheckout.Error()},
		{"session closed", services.ErrSessionClosed, http.StatusGone, services.ErrSessionClosed.Error()},
		{"upstream 4xx", &clients.APIError{StatusCode: http.StatusUnprocessableEntity, Detail: "kelas tidak ditemukan"}, http.StatusUnprocessableEntity, "kelas tidak ditemukan"},
		{"upstream 5xx", fmt.Errorf("order failed: %w", &clients.APIError{StatusCode: http.StatusInternalServerError, Detail: "db down"}), http.StatusBadGateway, "db down"},
		{"breaker open", clients.ErrUpstreamUnavailable, http.StatusServiceUnavailable, apperrors.ErrServiceUnavailable.Message},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout, "Upstream request timed out"},
		{"unknown", errors.New("connection reset"), http.StatusBadGateway, apperrors.ErrBadGateway.Message},
		{"already mapped", apperrors.ErrForbidden, http.StatusForbidden, "Forbidden"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := toAppError(tt.err)
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, tt.message, appErr.Message)
		})
	}
}

func TestToAppError_DoesNotMutateSentinels(t *testing.T) {
	_ = toAppError(errors.New("boom"))
	assert.Nil(t, apperrors.ErrBadGateway.Err)
}
