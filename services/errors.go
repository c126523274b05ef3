package services

import (
	"errors"
	"fmt"

	"github.com/Nappiz/tcmudah-storefront/models"
)

var (
	ErrSubmitInProgress  = errors.New("checkout submission already in progress")
	ErrSessionClosed     = errors.New("checkout session is closed")
	ErrIllegalTransition = errors.New("illegal checkout transition")
	ErrCatalogNotLoaded  = errors.New("catalog not loaded")
	ErrNoCheckout        = errors.New("no open checkout")
)

// Validation messages shown to the visitor as-is.
const (
	MsgProofRequired = "bukti transfer wajib diunggah"
	MsgCartEmpty     = "keranjang masih kosong"
)

// ValidationError blocks a transition before any network call is made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func illegal(action string, from models.CheckoutState) error {
	return fmt.Errorf("%w: cannot %s from %s", ErrIllegalTransition, action, from)
}
