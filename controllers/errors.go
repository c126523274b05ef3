package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Nappiz/tcmudah-storefront/clients"
	apperrors "github.com/Nappiz/tcmudah-storefront/errors"
	"github.com/Nappiz/tcmudah-storefront/services"
)

// toAppError maps domain and upstream failures onto HTTP errors. Anything
// not recognised came from an upstream call and is reported as 502.
func toAppError(err error) *apperrors.Error {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}

	var vErr *services.ValidationError
	if errors.As(err, &vErr) {
		return apperrors.New(http.StatusBadRequest, vErr.Message, err)
	}

	var apiErr *clients.APIError
	if errors.As(err, &apiErr) {
		if apiErr.IsServerError() {
			return apperrors.New(http.StatusBadGateway, apiErr.Error(), err)
		}
		return apperrors.New(apiErr.StatusCode, apiErr.Error(), err)
	}

	switch {
	case errors.Is(err, services.ErrSubmitInProgress),
		errors.Is(err, services.ErrIllegalTransition),
		errors.Is(err, services.ErrNoCheckout):
		return apperrors.New(http.StatusConflict, err.Error(), err)
	case errors.Is(err, services.ErrSessionClosed):
		return apperrors.New(http.StatusGone, err.Error(), err)
	case errors.Is(err, clients.ErrUpstreamUnavailable):
		return apperrors.Wrap(apperrors.ErrServiceUnavailable, err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.New(http.StatusGatewayTimeout, "Upstream request timed out", err)
	}
	return apperrors.Wrap(apperrors.ErrBadGateway, err)
}

func fail(c *gin.Context, err error) {
	_ = c.Error(toAppError(err))
	c.Abort()
}
