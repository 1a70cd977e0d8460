// PostgreSQL Store implementation.
// The catalog lives as a versioned JSONB document (menu edits publish a new
// row; the engine only ever reads the latest). Sessions are one JSONB row
// each, keyed by session ID.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/orderline/orderline/pkg/models"
)

// PostgresStore implements Store backed by pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects, pings, and runs migrations.
func NewPostgresStore(ctx context.Context, connURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connURL)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres migrate: %w", err)
	}

	log.Info().Msg("Postgres store initialized")
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	ddl := `
		CREATE TABLE IF NOT EXISTS ol_catalog (
			version    TEXT PRIMARY KEY,
			body       JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS ol_sessions (
			id         TEXT PRIMARY KEY,
			body       JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_ol_catalog_created ON ol_catalog (created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_ol_sessions_updated ON ol_sessions (updated_at);
	`
	_, err := s.pool.Exec(ctx, ddl)
	return err
}

// ── CatalogStore ────────────────────────────────────────────

func (s *PostgresStore) LoadCatalog(ctx context.Context) (*models.Catalog, error) {
	var version string
	var body []byte
	err := s.pool.QueryRow(ctx,
		`SELECT version, body FROM ol_catalog ORDER BY created_at DESC LIMIT 1`,
	).Scan(&version, &body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &ErrNotFound{Entity: "catalog", Key: "latest"}
	}
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	var catalog models.Catalog
	if err := json.Unmarshal(body, &catalog); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", version, err)
	}
	catalog.Version = version
	return &catalog, nil
}

func (s *PostgresStore) CatalogVersion(ctx context.Context) (string, error) {
	var version string
	err := s.pool.QueryRow(ctx,
		`SELECT version FROM ol_catalog ORDER BY created_at DESC LIMIT 1`,
	).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", &ErrNotFound{Entity: "catalog", Key: "latest"}
	}
	if err != nil {
		return "", fmt.Errorf("catalog version: %w", err)
	}
	return version, nil
}

// PublishCatalog stores a new catalog version. Used by the menu import
// tooling; the serving path never writes the catalog.
func (s *PostgresStore) PublishCatalog(ctx context.Context, catalog *models.Catalog) error {
	if catalog.Version == "" {
		catalog.Version = contentVersion(catalog)
	}
	body, err := json.Marshal(catalog)
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO ol_catalog (version, body) VALUES ($1, $2)
		 ON CONFLICT (version) DO UPDATE SET body = EXCLUDED.body`,
		catalog.Version, body)
	if err != nil {
		return fmt.Errorf("publish catalog: %w", err)
	}
	log.Info().Str("version", catalog.Version).Msg("Catalog published")
	return nil
}

// ── SessionStore ────────────────────────────────────────────

func (s *PostgresStore) GetSession(ctx context.Context, id string) (*models.Session, error) {
	var body []byte
	err := s.pool.QueryRow(ctx,
		`SELECT body FROM ol_sessions WHERE id = $1`, id,
	).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &ErrNotFound{Entity: "session", Key: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}

	var session models.Session
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &session, nil
}

func (s *PostgresStore) PutSession(ctx context.Context, session *models.Session) error {
	now := time.Now().UTC()
	session.UpdatedAt = now
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	body, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.ID, err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO ol_sessions (id, body, created_at, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`,
		session.ID, body, session.CreatedAt, session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("put session %s: %w", session.ID, err)
	}
	return nil
}

func (s *PostgresStore) DeleteSession(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM ol_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return &ErrNotFound{Entity: "session", Key: id}
	}
	return nil
}

// PurgeIdleSessions deletes sessions idle longer than ttl. Called from the
// retention loop.
func (s *PostgresStore) PurgeIdleSessions(ctx context.Context, ttl time.Duration) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM ol_sessions WHERE updated_at < $1`, time.Now().Add(-ttl))
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ── Lifecycle ───────────────────────────────────────────────

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
