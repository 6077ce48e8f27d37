package catalog

import (
	"net/http"

	"github.com/noah-isme/toko-checkout/internal/common"
)

// Handler exposes the public catalog listing.
type Handler struct {
	Rules Rules
}

// List handles GET /api/v1/catalog.
func (h *Handler) List(w http.ResponseWriter, _ *http.Request) {
	if h == nil || len(h.Rules.Set.Catalog) == 0 {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog not configured", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":     Describe(h.Rules),
		"currency": h.Rules.Currency,
	})
}
