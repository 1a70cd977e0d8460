// Redis-backed SessionStore.
// Sessions are JSON blobs with a sliding TTL, so abandoned conversations
// expire without a retention job. Pair with a catalog-capable store through
// Composite.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/orderline/orderline/pkg/models"
)

const sessionKeyPrefix = "ol:session:"

// RedisSessionStore implements SessionStore on Redis.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore connects and pings. ttl <= 0 disables expiry.
func NewRedisSessionStore(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisSessionStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	log.Info().Str("addr", addr).Dur("ttl", ttl).Msg("Redis session store initialized")
	return &RedisSessionStore{client: client, ttl: ttl}, nil
}

func (s *RedisSessionStore) GetSession(ctx context.Context, id string) (*models.Session, error) {
	raw, err := s.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, &ErrNotFound{Entity: "session", Key: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	var session models.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &session, nil
}

func (s *RedisSessionStore) PutSession(ctx context.Context, session *models.Session) error {
	now := time.Now().UTC()
	session.UpdatedAt = now
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.ID, err)
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+session.ID, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("put session %s: %w", session.ID, err)
	}
	return nil
}

func (s *RedisSessionStore) DeleteSession(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, sessionKeyPrefix+id).Result()
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	if n == 0 {
		return &ErrNotFound{Entity: "session", Key: id}
	}
	return nil
}

func (s *RedisSessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}

// ── Composite ───────────────────────────────────────────────

// Composite joins a catalog source with a session store into one Store.
// Typical production shape: Postgres catalog + Redis sessions.
type Composite struct {
	Catalog  CatalogStore
	Sessions SessionStore
}

func (c *Composite) LoadCatalog(ctx context.Context) (*models.Catalog, error) {
	return c.Catalog.LoadCatalog(ctx)
}

func (c *Composite) CatalogVersion(ctx context.Context) (string, error) {
	return c.Catalog.CatalogVersion(ctx)
}

func (c *Composite) GetSession(ctx context.Context, id string) (*models.Session, error) {
	return c.Sessions.GetSession(ctx, id)
}

func (c *Composite) PutSession(ctx context.Context, session *models.Session) error {
	return c.Sessions.PutSession(ctx, session)
}

func (c *Composite) DeleteSession(ctx context.Context, id string) error {
	return c.Sessions.DeleteSession(ctx, id)
}

func (c *Composite) Ping(ctx context.Context) error {
	if p, ok := c.Catalog.(interface{ Ping(context.Context) error }); ok {
		if err := p.Ping(ctx); err != nil {
			return err
		}
	}
	if p, ok := c.Sessions.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (c *Composite) Close() error {
	var first error
	if cl, ok := c.Catalog.(interface{ Close() error }); ok {
		if err := cl.Close(); err != nil {
			first = err
		}
	}
	if cl, ok := c.Sessions.(interface{ Close() error }); ok {
		if err := cl.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
