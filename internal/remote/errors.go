package remote

import (
	"errors"
	"fmt"
)

// Rejection codes the remote service is known to return.
const (
	CodeOutOfStock         = "OUT_OF_STOCK"
	CodeInvalidQuantity    = "INVALID_QUANTITY"
	CodeEmptyCart          = "EMPTY_CART"
	CodeIncompleteShipping = "INCOMPLETE_SHIPPING_INFO"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodePaymentFailed      = "PAYMENT_FAILED"
	CodeNotFound           = "NOT_FOUND"
)

// ErrAuthExpired means the session token is no longer usable and could not be
// refreshed. Callers must escalate to a full re-authentication, not retry.
var ErrAuthExpired = errors.New("session expired, please sign in again")

// Rejection is a definitive refusal from the remote service: the request was
// delivered and the server said no. Message is user-displayable.
type Rejection struct {
	Code       string
	Message    string
	HTTPStatus int
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("remote rejected request (%s): %s", r.Code, r.Message)
}

// TransportError means no definitive server answer arrived: network failure,
// timeout, open circuit breaker or a 5xx. The operation may or may not have
// taken effect; callers must reconcile against the last known server state.
type TransportError struct {
	Op  string
	Err error
}

func (t *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", t.Op, t.Err)
}

func (t *TransportError) Unwrap() error {
	return t.Err
}

// UserMessage maps any failure from this package onto a message fit for
// direct display.
func UserMessage(err error) string {
	var rejection *Rejection
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuthExpired):
		return ErrAuthExpired.Error()
	case errors.As(err, &rejection):
		return rejection.Message
	default:
		var transport *TransportError
		if errors.As(err, &transport) {
			return "the service is unreachable right now, please try again"
		}
		return err.Error()
	}
}
