// Package contracts defines the request/response shapes of the Orderline
// HTTP API. It lives in pkg/ so client code can import the wire types
// without pulling in the server internals.
package contracts

import "github.com/orderline/orderline/pkg/models"

// ChatRequest is one customer utterance for a session.
type ChatRequest struct {
	// SessionID binds the turn to a conversation. Optional: when empty the
	// server uses the X-Session-Id header, generating one if needed.
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

// ChatResponse is the assistant reply plus the order snapshot after the turn.
type ChatResponse struct {
	SessionID string            `json:"session_id"`
	Reply     string            `json:"reply"`
	Order     models.OrderState `json:"order"`
}

// OrderResponse returns the current order for a session.
type OrderResponse struct {
	SessionID string            `json:"session_id"`
	Order     models.OrderState `json:"order"`
}

// CatalogInfo describes the currently served catalog version.
type CatalogInfo struct {
	Version   string `json:"version"`
	StoreName string `json:"store_name"`
	ItemTypes int    `json:"item_types"`
	MenuItems int    `json:"menu_items"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
