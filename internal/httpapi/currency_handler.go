package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/Yupiglo/yupimall-warehouse-sub000/internal/money"
)

// CurrencyHandler exposes the display-currency selection. Changing it only
// affects formatting; stored cart and order state never move off the
// reference currency.
type CurrencyHandler struct {
	display *money.DisplayContext
}

func NewCurrencyHandler(display *money.DisplayContext) *CurrencyHandler {
	return &CurrencyHandler{display: display}
}

// GET /api/v1/currencies
func (h *CurrencyHandler) List(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"selected":  h.display.Selected().Code,
		"available": h.display.Codes(),
	})
}

type selectCurrencyDTO struct {
	Code string `json:"code"`
}

// PUT /api/v1/currency
func (h *CurrencyHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req selectCurrencyDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if err := h.display.Select(req.Code); err != nil {
		respondError(w, http.StatusBadRequest, "unknown_currency", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"selected": h.display.Selected().Code})
}
