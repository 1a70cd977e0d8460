// In-memory Store implementation.
// Used for local dev and tests. The catalog is loaded from a JSON file (or
// injected directly); sessions live in a map with optional idle expiry.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/orderline/orderline/pkg/models"
	"github.com/rs/zerolog/log"
)

// MemoryStore implements Store with in-memory maps.
type MemoryStore struct {
	mu       sync.RWMutex
	catalog  *models.Catalog
	sessions map[string]*models.Session // key: session id
	touched  map[string]time.Time       // key: session id → last write

	// Idle sessions older than sessionTTL are evicted automatically.
	// Defaults to 2 hours. Zero disables eviction.
	sessionTTL time.Duration

	doneCh chan struct{}
}

// NewMemoryStore creates an in-memory store holding the given catalog.
// If the catalog has no version, one is derived from its content so the
// refresher can detect changes.
func NewMemoryStore(catalog *models.Catalog) *MemoryStore {
	sessionTTL := 2 * time.Hour
	if ttlStr := os.Getenv("ORDERLINE_SESSION_TTL"); ttlStr != "" {
		if parsed, err := time.ParseDuration(ttlStr); err == nil {
			sessionTTL = parsed
		} else {
			log.Warn().Str("value", ttlStr).Msg("Invalid ORDERLINE_SESSION_TTL, using default 2h")
		}
	}

	if catalog != nil && catalog.Version == "" {
		catalog.Version = contentVersion(catalog)
	}

	m := &MemoryStore{
		catalog:    catalog,
		sessions:   make(map[string]*models.Session),
		touched:    make(map[string]time.Time),
		sessionTTL: sessionTTL,
		doneCh:     make(chan struct{}),
	}

	if sessionTTL > 0 {
		go m.evictionLoop()
	}

	log.Info().
		Str("session_ttl", sessionTTL.String()).
		Msg("Memory store configured")

	return m
}

// NewMemoryStoreFromFile loads the catalog from a JSON file.
func NewMemoryStoreFromFile(path string) (*MemoryStore, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var catalog models.Catalog
	if err := json.Unmarshal(raw, &catalog); err != nil {
		return nil, err
	}
	log.Info().Str("path", path).Str("version", catalog.Version).Msg("Catalog loaded from file")
	return NewMemoryStore(&catalog), nil
}

// contentVersion derives a short stable version token from catalog content.
func contentVersion(c *models.Catalog) string {
	raw, err := json.Marshal(c)
	if err != nil {
		return time.Now().UTC().Format(time.RFC3339Nano)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])[:12]
}

func (m *MemoryStore) evictionLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.evictIdleSessions()
		case <-m.doneCh:
			return
		}
	}
}

func (m *MemoryStore) evictIdleSessions() {
	cutoff := time.Now().Add(-m.sessionTTL)
	m.mu.Lock()
	defer m.mu.Unlock()
	evicted := 0
	for id, at := range m.touched {
		if at.Before(cutoff) {
			delete(m.sessions, id)
			delete(m.touched, id)
			evicted++
		}
	}
	if evicted > 0 {
		log.Debug().Int("count", evicted).Msg("Evicted idle sessions")
	}
}

// ── CatalogStore ────────────────────────────────────────────

func (m *MemoryStore) LoadCatalog(ctx context.Context) (*models.Catalog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.catalog == nil {
		return nil, &ErrNotFound{Entity: "catalog", Key: "current"}
	}
	return m.catalog, nil
}

func (m *MemoryStore) CatalogVersion(ctx context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.catalog == nil {
		return "", &ErrNotFound{Entity: "catalog", Key: "current"}
	}
	return m.catalog.Version, nil
}

// ReplaceCatalog swaps the stored catalog. Used by tests and by local-dev
// menu reloads; the version is re-derived when absent.
func (m *MemoryStore) ReplaceCatalog(catalog *models.Catalog) {
	if catalog != nil && catalog.Version == "" {
		catalog.Version = contentVersion(catalog)
	}
	m.mu.Lock()
	m.catalog = catalog
	m.mu.Unlock()
}

// ── SessionStore ────────────────────────────────────────────

func (m *MemoryStore) GetSession(ctx context.Context, id string) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, &ErrNotFound{Entity: "session", Key: id}
	}
	return s.Clone(), nil
}

func (m *MemoryStore) PutSession(ctx context.Context, session *models.Session) error {
	now := time.Now().UTC()
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := session.Clone()
	cp.UpdatedAt = now
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	m.sessions[session.ID] = cp
	m.touched[session.ID] = now
	return nil
}

func (m *MemoryStore) DeleteSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return &ErrNotFound{Entity: "session", Key: id}
	}
	delete(m.sessions, id)
	delete(m.touched, id)
	return nil
}

// ── Lifecycle ───────────────────────────────────────────────

func (m *MemoryStore) Ping(ctx context.Context) error { return nil }

func (m *MemoryStore) Close() error {
	close(m.doneCh)
	return nil
}
