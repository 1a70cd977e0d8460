// Package store provides the storage interfaces and implementations for the
// Orderline engine: catalog loading (read-only from the engine's point of
// view) and per-session order state persistence.
package store

import (
	"context"

	"github.com/orderline/orderline/pkg/models"
)

// Store is the combined storage interface. Handler and engine code depends
// on this interface, making it easy to swap between in-memory (tests, local
// dev), PostgreSQL (production catalog + sessions), and Redis (sessions
// with TTL) implementations.
type Store interface {
	CatalogStore
	SessionStore

	// Ping checks if the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases all resources held by the store.
	Close() error
}

// ── Catalog Store ───────────────────────────────────────────

// CatalogStore loads the raw menu catalog. The engine never writes the
// catalog back; menu edits happen out of band and are picked up by the
// snapshot refresher via CatalogVersion polling.
type CatalogStore interface {
	// LoadCatalog returns the full raw catalog.
	LoadCatalog(ctx context.Context) (*models.Catalog, error)

	// CatalogVersion returns the current version token without loading
	// the catalog body. Cheap enough to poll.
	CatalogVersion(ctx context.Context) (string, error)
}

// ── Session Store ───────────────────────────────────────────

// SessionStore persists per-session conversation state. Sessions are small
// and owned by exactly one conversation; implementations may expire idle
// sessions after a TTL.
type SessionStore interface {
	GetSession(ctx context.Context, id string) (*models.Session, error)
	PutSession(ctx context.Context, session *models.Session) error
	DeleteSession(ctx context.Context, id string) error
}

// ── Errors ──────────────────────────────────────────────────

// ErrNotFound is returned when a requested entity does not exist.
type ErrNotFound struct {
	Entity string
	Key    string
}

func (e *ErrNotFound) Error() string {
	return e.Entity + " not found: " + e.Key
}
