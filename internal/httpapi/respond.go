package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/cartstore"
	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/checkout"
	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/orderflow"
	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/pricing"
	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/remote"
)

// ErrorResponse is the JSON error envelope every handler answers with.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encode response failed", "err", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// respondFailure translates the error taxonomy onto HTTP statuses: local
// validation is 400, auth expiry 401, remote refusals keep their server
// status, transport trouble is 503.
func respondFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cartstore.ErrInvalidQuantity),
		errors.Is(err, cartstore.ErrItemNotInCart),
		errors.Is(err, pricing.ErrInvalidDiscount),
		errors.Is(err, orderflow.ErrInvalidTransition):
		respondError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusConflict, "empty_cart", err.Error())
	case errors.Is(err, checkout.ErrCheckoutInFlight):
		respondError(w, http.StatusConflict, "checkout_in_flight", err.Error())
	case errors.Is(err, remote.ErrAuthExpired):
		respondError(w, http.StatusUnauthorized, "auth_expired", remote.UserMessage(err))
	default:
		var incomplete *checkout.IncompleteShippingError
		if errors.As(err, &incomplete) {
			respondError(w, http.StatusBadRequest, "incomplete_shipping_info", incomplete.Error())
			return
		}
		var rejection *remote.Rejection
		if errors.As(err, &rejection) {
			respondError(w, rejection.HTTPStatus, rejection.Code, rejection.Message)
			return
		}
		var transport *remote.TransportError
		if errors.As(err, &transport) {
			respondError(w, http.StatusServiceUnavailable, "upstream_unavailable", remote.UserMessage(err))
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
