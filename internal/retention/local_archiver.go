package retention

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/orderline/orderline/pkg/models"
)

// LocalFileArchiver appends finished orders as JSONL files under a local
// directory, one file per day:
//
//	{basePath}/orders/2026-08-29.jsonl[.gz]
//
// This is the default archive sink for local deployments.
type LocalFileArchiver struct {
	mu       sync.Mutex
	basePath string
	compress bool
}

// NewLocalFileArchiver creates a file-based archiver. If basePath is empty,
// it defaults to "~/.orderline/archive".
func NewLocalFileArchiver(basePath string, compress bool) *LocalFileArchiver {
	if basePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			basePath = "/tmp/orderline/archive"
		} else {
			basePath = filepath.Join(home, ".orderline", "archive")
		}
	}
	return &LocalFileArchiver{basePath: basePath, compress: compress}
}

func (a *LocalFileArchiver) Kind() string { return "local" }

// ArchiveOrder appends one finished order to today's archive file.
func (a *LocalFileArchiver) ArchiveOrder(_ context.Context, order *models.OrderTask) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	dir := filepath.Join(a.basePath, "orders")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}

	filename := time.Now().UTC().Format("2006-01-02") + ".jsonl"
	if a.compress {
		filename += ".gz"
	}
	fpath := filepath.Join(dir, filename)

	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", fmt.Errorf("open archive file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	if a.compress {
		gw := gzip.NewWriter(f)
		defer gw.Close()
		enc = json.NewEncoder(gw)
	}

	if err := enc.Encode(order); err != nil {
		return "", fmt.Errorf("encode order %s: %w", order.ID, err)
	}

	log.Debug().
		Str("path", fpath).
		Str("order_id", order.ID).
		Msg("order archived")

	return fpath, nil
}

// HealthCheck verifies the base path is writable.
func (a *LocalFileArchiver) HealthCheck(_ context.Context) error {
	if err := os.MkdirAll(a.basePath, 0o755); err != nil {
		return fmt.Errorf("archive path not writable: %w", err)
	}
	testFile := filepath.Join(a.basePath, ".healthcheck")
	if err := os.WriteFile(testFile, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("archive path not writable: %w", err)
	}
	os.Remove(testFile)
	return nil
}
