package catalog_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-checkout/internal/catalog"
)

type listResponse struct {
	Data     []catalog.Item `json:"data"`
	Currency string         `json:"currency"`
}

func TestHandlerList(t *testing.T) {
	handler := &catalog.Handler{Rules: catalog.Default()}
	rec := httptest.NewRecorder()
	handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "GBP", resp.Currency)
	require.Len(t, resp.Data, 26)
	require.Equal(t, "A", resp.Data[0].Code)
	require.Equal(t, int64(50), resp.Data[0].Price)
	require.Equal(t, []string{"3A for 130", "5A for 200"}, resp.Data[0].Offers)
	require.Equal(t, "C", resp.Data[2].Code)
	require.Empty(t, resp.Data[2].Offers)
	require.Equal(t, []string{"buy 2E get 1B free"}, resp.Data[4].Offers)
	require.Equal(t, []string{"buy 3F, 1 of them free"}, resp.Data[5].Offers)
	require.Equal(t, []string{"any 3 of [Z S T Y X] for 45"}, resp.Data[25].Offers)
}

func TestHandlerListUnconfigured(t *testing.T) {
	handler := &catalog.Handler{}
	rec := httptest.NewRecorder()
	handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
