// Package catalog provides the live menu snapshot for the Orderline engine.
//
// The raw catalog lives in the store; this package builds an immutable,
// fully indexed Snapshot from it and keeps it fresh:
//
//  1. On startup the catalog is loaded and indexed once; startup fails if
//     this first load fails.
//  2. A background loop polls the store's cheap version token. Only when
//     the token changes is the full catalog reloaded and re-indexed.
//  3. The new snapshot is swapped in atomically. Turns already holding the
//     old snapshot finish against it; the next turn sees the new one.
//
// A failed refresh never takes down serving: the previous snapshot stays
// current and the reload is retried with backoff.
package catalog

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"github.com/orderline/orderline/internal/store"
)

const defaultPollInterval = 30 * time.Second

// Service holds the current snapshot and refreshes it in the background.
type Service struct {
	source   store.CatalogStore
	current  atomic.Pointer[Snapshot]
	interval time.Duration
	stopCh   chan struct{}
	running  bool
}

// NewService creates a catalog service over the given store.
// Call Start() to load the first snapshot and begin polling.
func NewService(source store.CatalogStore) *Service {
	interval := defaultPollInterval
	if v := os.Getenv("ORDERLINE_CATALOG_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			interval = d
		}
	}
	return &Service{
		source:   source,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start performs the initial load (fatal on failure) and begins the
// background poll loop.
func (s *Service) Start(ctx context.Context) error {
	if s.running {
		return nil
	}

	if err := s.Refresh(ctx); err != nil {
		return fmt.Errorf("initial catalog load: %w", err)
	}
	s.running = true

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.pollOnce(ctx)
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info().
		Dur("poll_interval", s.interval).
		Str("version", s.Snapshot().Version).
		Msg("Catalog service started")
	return nil
}

// Stop halts the background poll loop.
func (s *Service) Stop() {
	if s.running {
		close(s.stopCh)
		s.running = false
	}
}

// Snapshot returns the current snapshot. Callers hold it for the duration
// of one turn; it is never mutated after the swap.
func (s *Service) Snapshot() *Snapshot {
	return s.current.Load()
}

// Refresh forces a full reload and swap, regardless of version token.
// Transient store faults are retried with bounded exponential backoff.
func (s *Service) Refresh(ctx context.Context) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)

	var snap *Snapshot
	err := backoff.Retry(func() error {
		raw, err := s.source.LoadCatalog(ctx)
		if err != nil {
			return err
		}
		built, err := BuildSnapshot(raw)
		if err != nil {
			// Index errors are structural, not transient.
			return backoff.Permanent(err)
		}
		snap = built
		return nil
	}, policy)
	if err != nil {
		return err
	}

	s.current.Store(snap)
	log.Info().
		Str("version", snap.Version).
		Int("aliases", len(snap.aliasOrder)).
		Msg("Catalog snapshot swapped")
	return nil
}

func (s *Service) pollOnce(ctx context.Context) {
	cur := s.Snapshot()
	version, err := s.source.CatalogVersion(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Catalog version poll failed, keeping current snapshot")
		return
	}
	if cur != nil && version == cur.Version {
		return
	}
	if err := s.Refresh(ctx); err != nil {
		log.Warn().Err(err).Str("version", version).Msg("Catalog refresh failed, keeping current snapshot")
	}
}
