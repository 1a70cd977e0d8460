// Package handlers implements the Orderline HTTP API handlers. Handlers
// are thin: decode, delegate to the engine or catalog service, encode.
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/orderline/orderline/internal/catalog"
	"github.com/orderline/orderline/internal/engine"
	"github.com/orderline/orderline/internal/sessions"
	"github.com/orderline/orderline/pkg/contracts"
	pkgmw "github.com/orderline/orderline/pkg/middleware"
)

const maxBodyBytes = 64 << 10

// Handlers bundles the services the API surface needs.
type Handlers struct {
	engine  *engine.Engine
	catalog *catalog.Service
	locker  *sessions.Locker
}

// New creates the handler set.
func New(eng *engine.Engine, cat *catalog.Service, locker *sessions.Locker) *Handlers {
	return &Handlers{engine: eng, catalog: cat, locker: locker}
}

// Chat processes one customer utterance for a session.
// POST /api/v1/chat
func (h *Handlers) Chat(w http.ResponseWriter, r *http.Request) {
	var req contracts.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = pkgmw.GetSessionID(r.Context())
	}
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "session_id is required")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "message is required")
		return
	}

	// One turn at a time per session; concurrent turns for the same
	// session would race on the order state.
	unlock := h.locker.Lock(sessionID)
	defer unlock()

	result, err := h.engine.ProcessTurn(r.Context(), sessionID, req.Message)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("turn failed")
		writeError(w, http.StatusInternalServerError, "internal", "could not process the message")
		return
	}

	writeJSON(w, http.StatusOK, contracts.ChatResponse{
		SessionID: sessionID,
		Reply:     result.Reply,
		Order:     result.Order,
	})
}

// GetOrder returns the current order for a session.
// GET /api/v1/sessions/{sessionID}/order
func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "session ID is required")
		return
	}

	state, err := h.engine.OrderState(r.Context(), sessionID)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("order lookup failed")
		writeError(w, http.StatusInternalServerError, "internal", "could not load the order")
		return
	}

	writeJSON(w, http.StatusOK, contracts.OrderResponse{SessionID: sessionID, Order: *state})
}

// GetCatalog describes the currently served catalog version.
// GET /api/v1/catalog
func (h *Handlers) GetCatalog(w http.ResponseWriter, r *http.Request) {
	snap := h.catalog.Snapshot()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "catalog not loaded yet")
		return
	}
	writeJSON(w, http.StatusOK, contracts.CatalogInfo{
		Version:   snap.Version,
		StoreName: snap.Store.Name,
		ItemTypes: snap.ItemTypeCount(),
		MenuItems: snap.MenuItemCount(),
	})
}

// RefreshCatalog forces a reload from the catalog source.
// POST /api/v1/catalog/refresh
func (h *Handlers) RefreshCatalog(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Refresh(r.Context()); err != nil {
		log.Error().Err(err).Msg("catalog refresh failed")
		writeError(w, http.StatusBadGateway, "refresh_failed", err.Error())
		return
	}
	snap := h.catalog.Snapshot()
	writeJSON(w, http.StatusOK, contracts.CatalogInfo{
		Version:   snap.Version,
		StoreName: snap.Store.Name,
		ItemTypes: snap.ItemTypeCount(),
		MenuItems: snap.MenuItemCount(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, contracts.ErrorResponse{Error: code, Message: msg})
}
