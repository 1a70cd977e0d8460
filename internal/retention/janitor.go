// Package retention keeps the hot session store small: finished orders are
// archived to a durable sink when checkout completes, and sessions idle
// past their TTL are purged on a schedule. Archive failures are fail-safe:
// a session is never deleted because its archive write failed, and an
// archive error never fails the customer's turn.
package retention

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Purger deletes sessions idle longer than ttl and reports how many went.
// The Postgres store implements it; the memory and Redis backends expire
// sessions themselves.
type Purger interface {
	PurgeIdleSessions(ctx context.Context, ttl time.Duration) (int64, error)
}

// Janitor periodically purges idle sessions.
type Janitor struct {
	purger   Purger
	ttl      time.Duration
	interval time.Duration
}

// NewJanitor creates a retention janitor that runs on the given interval.
func NewJanitor(p Purger, ttl, interval time.Duration) *Janitor {
	if interval < time.Minute {
		interval = time.Hour
	}
	return &Janitor{purger: p, ttl: ttl, interval: interval}
}

// Start runs the janitor until ctx is canceled.
func (j *Janitor) Start(ctx context.Context) {
	log.Info().
		Dur("interval", j.interval).
		Dur("ttl", j.ttl).
		Msg("retention janitor started")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("retention janitor stopped")
			return
		case <-ticker.C:
			j.runCycle(ctx)
		}
	}
}

func (j *Janitor) runCycle(ctx context.Context) {
	start := time.Now()
	n, err := j.purger.PurgeIdleSessions(ctx, j.ttl)
	if err != nil {
		log.Warn().Err(err).Msg("session purge failed")
		return
	}
	if n > 0 {
		log.Info().
			Int64("purged", n).
			Dur("took", time.Since(start)).
			Msg("idle sessions purged")
	}
}
