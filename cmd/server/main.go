// Plotshare - Garden Sharing and Community Marketplace
// Copyright 2026 Plotshare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plotshare/plotshare

// Package main is the entry point for the Plotshare server.
//
// Plotshare is a community marketplace where plot owners and community
// members trade garden items, services and tool shares for points, with
// postcode-based recommendations of nearby listings.
//
// The server initializes components in the following order:
//
//  1. Configuration: layered defaults, config file and environment (Koanf v2)
//  2. Database: embedded DuckDB with the marketplace schema
//  3. Geocode: postcode resolver over per-prefix CSV shards, with an
//     optional persistent Badger cache
//  4. Recommendation engine
//  5. Market service and the in-process event feed (Watermill)
//  6. HTTP server: Chi router under a suture supervision tree
//
// Shutdown is graceful on SIGINT and SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/plotshare/plotshare/internal/api"
	"github.com/plotshare/plotshare/internal/config"
	"github.com/plotshare/plotshare/internal/database"
	"github.com/plotshare/plotshare/internal/events"
	"github.com/plotshare/plotshare/internal/geocode"
	"github.com/plotshare/plotshare/internal/logging"
	"github.com/plotshare/plotshare/internal/market"
	"github.com/plotshare/plotshare/internal/recommend"
	"github.com/plotshare/plotshare/internal/supervisor"
	"github.com/plotshare/plotshare/internal/supervisor/services"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("db_path", cfg.Database.Path).
		Str("postcode_data_dir", cfg.Geocode.DataDir).
		Msg("Starting Plotshare")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error().Err(closeErr).Msg("Error closing database")
		}
	}()

	if cfg.Database.SeedDemoData {
		if err := db.SeedDemoData(context.Background()); err != nil {
			logging.Error().Err(err).Msg("Failed to seed demo data")
			return
		}
		logging.Info().Msg("Demo data seeded")
	}

	// Postcode resolver, optionally backed by a persistent Badger cache.
	geocodeCfg := geocode.Config{
		DataDir:          cfg.Geocode.DataDir,
		CacheTTL:         cfg.Geocode.CacheTTL,
		BreakerThreshold: cfg.Geocode.BreakerThreshold,
		BreakerCooldown:  cfg.Geocode.BreakerCooldown,
	}
	if cfg.Geocode.PersistentCache {
		persist, cacheErr := geocode.OpenBadgerCache(cfg.Geocode.PersistentCachePath, cfg.Geocode.CacheTTL)
		if cacheErr != nil {
			logging.Error().Err(cacheErr).Msg("Failed to open persistent postcode cache")
			return
		}
		defer func() {
			if closeErr := persist.Close(); closeErr != nil {
				logging.Error().Err(closeErr).Msg("Error closing postcode cache")
			}
		}()
		geocodeCfg.Persistent = persist
	}
	resolver := geocode.NewResolver(geocodeCfg)

	engine := recommend.New(db, resolver, cfg.Recommend.SearchRadius, cfg.Recommend.DefaultSuggestions)

	// In-process event feed: the market publishes, the relay persists.
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: cfg.Events.BufferSize,
	}, logging.NewWatermillAdapter())
	defer func() {
		if closeErr := pubsub.Close(); closeErr != nil {
			logging.Error().Err(closeErr).Msg("Error closing event feed")
		}
	}()

	marketSvc := market.NewService(db, resolver, pubsub)
	relay := events.NewRelay(pubsub, db)

	handler := api.NewHandler(db, marketSvc, engine, cfg, version)
	router := api.NewRouter(handler)
	defer router.Close()

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  2 * cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddDataService(services.NewCheckpointService(db, 5*time.Minute))
	tree.AddMessagingService(relay)
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Server stopped gracefully")
}
