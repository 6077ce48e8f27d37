package checkout

import (
	"encoding/json"
	"net/http"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/toko-checkout/internal/common"
	"github.com/noah-isme/toko-checkout/internal/security"
)

// QuoteRequest is the payload for POST /api/v1/checkout/quote.
type QuoteRequest struct {
	SKUs *string `json:"skus" validate:"required,max=4096"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Handler exposes the checkout endpoints.
type Handler struct {
	Svc *Service
}

// Quote handles POST /api/v1/checkout/quote.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	var payload QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		if security.IsTooLarge(err) {
			common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request entity too large", nil)
			return
		}
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "skus is required", nil)
		return
	}
	quote, err := h.Svc.Quote(r.Context(), *payload.SKUs)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, quote)
}

// Total handles GET /api/v1/checkout?skus=. Invalid baskets report a total of -1
// with status 200.
func (h *Handler) Total(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	total := h.Svc.LegacyTotal(r.Context(), r.URL.Query().Get("skus"))
	common.JSON(w, http.StatusOK, map[string]any{"total": total})
}
