// Package server provides the public entry point for initializing the
// Orderline server: it selects the storage backend, starts the catalog
// poller, and wires the conversation engine behind the HTTP API.
//
// Usage:
//
//	srv, err := server.New(ctx)
//	http.ListenAndServe(":8080", srv.Handler)
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/orderline/orderline/internal/api"
	"github.com/orderline/orderline/internal/api/handlers"
	"github.com/orderline/orderline/internal/catalog"
	"github.com/orderline/orderline/internal/config"
	"github.com/orderline/orderline/internal/engine"
	"github.com/orderline/orderline/internal/notify"
	"github.com/orderline/orderline/internal/retention"
	"github.com/orderline/orderline/internal/sessions"
	"github.com/orderline/orderline/internal/store"
	"github.com/orderline/orderline/internal/telemetry"
)

// Server holds the initialized Orderline service.
type Server struct {
	// Handler is the HTTP handler with all routes and middleware.
	Handler http.Handler

	// Store is the configured data store.
	Store store.Store

	// Config is the loaded configuration.
	Config *config.Config

	// Port is the port the server should listen on.
	Port int

	// ShutdownFunc flushes telemetry and stops background loops.
	ShutdownFunc func(context.Context) error
}

// New initializes all components from environment configuration.
func New(ctx context.Context) (*Server, error) {
	return NewWithConfig(ctx, config.Load())
}

// NewWithConfig initializes the server with an explicit configuration.
func NewWithConfig(ctx context.Context, cfg *config.Config) (*Server, error) {
	shutdownTelemetry, err := telemetry.Init(cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	dataStore, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	cat := catalog.NewService(dataStore)
	if err := cat.Start(ctx); err != nil {
		return nil, fmt.Errorf("start catalog service: %w", err)
	}
	log.Info().Str("version", cat.Snapshot().Version).Msg("catalog loaded")

	var sender notify.Sender = notify.LogSender{}
	if cfg.Notify.WebhookURL != "" {
		sender = notify.NewWebhookSender(cfg.Notify.WebhookURL, cfg.Notify.Secret, cat.Snapshot().Store.PaymentLinkURL)
		log.Info().Str("url", cfg.Notify.WebhookURL).Msg("payment link webhook configured")
	}

	eng := engine.New(cat, dataStore, sender)
	eng.SetArchiver(retention.NewLocalFileArchiver("", false))

	// Idle-session purging is only needed for Postgres; the memory and
	// Redis backends expire sessions themselves.
	janitorCancel := startJanitor(ctx, dataStore, cfg)

	locker := sessions.NewLocker(cfg.Store.SessionTTL)
	h := handlers.New(eng, cat, locker)
	router := api.NewRouter(cfg, h)

	return &Server{
		Handler: router,
		Store:   dataStore,
		Config:  cfg,
		Port:    cfg.Port,
		ShutdownFunc: func(sctx context.Context) error {
			cat.Stop()
			janitorCancel()
			return shutdownTelemetry(sctx)
		},
	}, nil
}

func buildStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case "postgres":
		pg, err := store.NewPostgresStore(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
		return pg, nil

	case "redis":
		// Catalog stays in Postgres; Redis holds the hot session state.
		pg, err := store.NewPostgresStore(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
		rs, err := store.NewRedisSessionStore(ctx, cfg.Store.RedisAddr, cfg.Store.RedisPassword, 0, cfg.Store.SessionTTL)
		if err != nil {
			return nil, fmt.Errorf("init redis session store: %w", err)
		}
		return &store.Composite{Catalog: pg, Sessions: rs}, nil

	default:
		var mem *store.MemoryStore
		if cfg.Catalog.File != "" {
			var err error
			mem, err = store.NewMemoryStoreFromFile(cfg.Catalog.File)
			if err != nil {
				return nil, fmt.Errorf("load catalog file: %w", err)
			}
			log.Info().Str("file", cfg.Catalog.File).Msg("in-memory store initialized from catalog file")
		} else {
			mem = store.NewMemoryStore(store.SeedCatalog())
			log.Info().Msg("in-memory store initialized with seed catalog")
		}
		return mem, nil
	}
}

func startJanitor(ctx context.Context, s store.Store, cfg *config.Config) context.CancelFunc {
	purger, ok := s.(retention.Purger)
	if !ok {
		return func() {}
	}
	jctx, cancel := context.WithCancel(ctx)
	j := retention.NewJanitor(purger, cfg.Store.SessionTTL, time.Hour)
	go j.Start(jctx)
	return cancel
}
