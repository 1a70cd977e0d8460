package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderline/orderline/internal/catalog"
	"github.com/orderline/orderline/internal/engine"
	"github.com/orderline/orderline/internal/sessions"
	"github.com/orderline/orderline/internal/store"
	"github.com/orderline/orderline/pkg/contracts"
)

func newTestHandlers(t *testing.T) *Handlers {
	t.Helper()
	st := store.NewMemoryStore(store.SeedCatalog())
	t.Cleanup(func() { st.Close() })
	cat := catalog.NewService(st)
	require.NoError(t, cat.Refresh(context.Background()))
	eng := engine.New(cat, st, nil)
	return New(eng, cat, sessions.NewLocker(time.Hour))
}

func postChat(t *testing.T, h *Handlers, body contracts.ChatRequest) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	h.Chat(rec, req)
	return rec
}

func TestChat_ProcessesTurn(t *testing.T) {
	h := newTestHandlers(t)

	rec := postChat(t, h, contracts.ChatRequest{SessionID: "s1", Message: "an orange juice"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp contracts.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "s1", resp.SessionID)
	assert.NotEmpty(t, resp.Reply)
	require.Len(t, resp.Order.Items, 1)
	assert.Equal(t, "Tropicana Orange Juice", resp.Order.Items[0].DisplayName)
}

func TestChat_RejectsEmptyMessage(t *testing.T) {
	h := newTestHandlers(t)

	rec := postChat(t, h, contracts.ChatRequest{SessionID: "s1", Message: "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChat_RejectsMissingSession(t *testing.T) {
	h := newTestHandlers(t)

	rec := postChat(t, h, contracts.ChatRequest{Message: "an orange juice"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetOrder_ReturnsSessionOrder(t *testing.T) {
	h := newTestHandlers(t)
	postChat(t, h, contracts.ChatRequest{SessionID: "s1", Message: "an orange juice"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/s1/order", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("sessionID", "s1")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rec := httptest.NewRecorder()
	h.GetOrder(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp contracts.OrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Order.Items, 1)
	assert.InDelta(t, 3.25, resp.Order.Subtotal, 0.001)
}

func TestGetCatalog_DescribesSnapshot(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil)
	rec := httptest.NewRecorder()
	h.GetCatalog(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var info contracts.CatalogInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "Orderline Cafe", info.StoreName)
	assert.NotZero(t, info.ItemTypes)
	assert.NotZero(t, info.MenuItems)
}
