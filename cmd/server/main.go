// CamGrid - Traffic Camera Telemetry and Geographic Visualization
// Copyright 2026 OpsLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/opslens/camgrid

// Package main is the entry point for the CamGrid server.
//
// CamGrid ingests traffic-camera telemetry from two upstreams — a REST
// snapshot endpoint polled periodically and a NATS JetStream delta feed
// consumed continuously — reconciles them into live dashboard
// aggregates, and serves a map/chart dashboard over HTTP and WebSocket.
//
// The server initializes components in the following order:
//
//  1. Configuration: Koanf v2 layered sources (defaults, config.yaml,
//     CAMGRID_* environment variables)
//  2. Snapshot store: BadgerDB last-known camera batch for warm starts
//  3. Clustering engine and badge compositor
//  4. Reconciler: the delta-over-snapshot aggregate ledger
//  5. WebSocket hub
//  6. Stream: optional embedded NATS server, then the Watermill consumer
//  7. HTTP server: Chi router on port 4326
//
// Everything long-running goes under a suture supervisor tree; graceful
// shutdown on SIGINT/SIGTERM cancels the tree's context.
//
// # Port 4326
//
// The default port references EPSG:4326, the coordinate system marker
// positions use.
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

	"github.com/opslens/camgrid/internal/api"
	"github.com/opslens/camgrid/internal/badge"
	"github.com/opslens/camgrid/internal/config"
	"github.com/opslens/camgrid/internal/geomap"
	"github.com/opslens/camgrid/internal/logging"
	"github.com/opslens/camgrid/internal/models"
	"github.com/opslens/camgrid/internal/reconciler"
	"github.com/opslens/camgrid/internal/snapshot"
	"github.com/opslens/camgrid/internal/store"
	"github.com/opslens/camgrid/internal/stream"
	"github.com/opslens/camgrid/internal/supervisor"
	ws "github.com/opslens/camgrid/internal/websocket"
)

// statsBroadcastsPerSecond throttles stats_update fan-out; chart data
// changes far faster than a dashboard can usefully redraw.
const statsBroadcastsPerSecond = 1.0

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Int("port", cfg.Server.Port).Msg("starting camgrid")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("camgrid exited with error")
	}
	logging.Info().Msg("camgrid stopped")
}

//nolint:gocyclo // sequential wiring of every component
func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Snapshot store first: a warm start serves the last-known batch
	// before the upstream answers.
	var st *store.Store
	if cfg.Store.Enabled {
		var err error
		st, err = store.Open(cfg.Store.Path)
		if err != nil {
			logging.Warn().Err(err).Str("path", cfg.Store.Path).
				Msg("snapshot store unavailable, continuing in-memory")
			st, err = store.Open("")
			if err != nil {
				return fmt.Errorf("open snapshot store: %w", err)
			}
		}
		defer st.Close()
	}

	compositor := badge.New(badge.Config{
		CacheSize:    cfg.Icons.CacheSize,
		CacheTTL:     cfg.Icons.CacheTTL,
		ScaleMin:     cfg.Icons.ScaleMin,
		ScaleMax:     cfg.Icons.ScaleMax,
		BadgePadding: cfg.Icons.BadgePadding,
		BadgeHeight:  cfg.Icons.BadgeHeight,
	})
	compositor.LoadIcons(cfg.Icons.Dir)

	hub := ws.NewHub(statsBroadcastsPerSecond)

	builder := geomap.NewBuilder(cfg.Map.Regions, cfg.Map.FallbackRegion)
	engine := geomap.NewEngine(
		geomap.Thresholds{Medium: cfg.Map.MediumZoom, High: cfg.Map.HighZoom},
		cfg.Map.Debounce,
		builder,
		geomap.WithInvalidate(compositor.Invalidate),
		geomap.WithListener(func(snap geomap.Snapshot) {
			hub.BroadcastMarkers(snap)
		}),
	)
	defer engine.Close()

	rec := reconciler.New()
	rec.OnChange(func(agg reconciler.Aggregates) {
		hub.BroadcastStats(agg)
	})

	if st != nil {
		cams, err := st.LoadSnapshot()
		switch {
		case err == nil:
			engine.SetCameras(cams)
			rec.ResetFromCameras(cams)
			logging.Info().Int("cameras", len(cams)).Msg("warm start from stored snapshot")
		case errors.Is(err, store.ErrNoSnapshot):
			logging.Info().Msg("no stored snapshot, waiting for first refresh")
		default:
			logging.Warn().Err(err).Msg("stored snapshot unreadable, ignoring")
		}
	}

	// applySnapshot is the single authoritative path for a fresh camera
	// batch: engine rebuild, ledger re-derivation, persistence.
	applySnapshot := func(cams []models.CameraLocation) {
		engine.SetCameras(cams)
		rec.ResetFromCameras(cams)
		if st != nil {
			if err := st.SaveSnapshot(cams); err != nil {
				logging.Warn().Err(err).Msg("failed to persist snapshot")
			}
		}
	}

	slogger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(slogger, supervisor.DefaultTreeConfig())
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	tree.AddMessagingService(hub)

	if cfg.Snapshot.URL != "" {
		client := snapshot.NewClient(&cfg.Snapshot)
		refresher := snapshot.NewRefresher(client, cfg.Snapshot.RefreshInterval, applySnapshot)
		tree.AddIngestService(refresher)
	} else {
		logging.Warn().Msg("snapshot.url not configured, serving stored data only")
	}

	var consumer *stream.Consumer
	if cfg.Stream.Enabled {
		if cfg.Stream.EmbeddedServer {
			es, err := stream.NewEmbeddedServer(cfg.Server.Host, 4222, cfg.Stream.StoreDir)
			if err != nil {
				return fmt.Errorf("start embedded telemetry server: %w", err)
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := es.Shutdown(shutdownCtx); err != nil {
					logging.Warn().Err(err).Msg("embedded telemetry server shutdown")
				}
			}()
			cfg.Stream.URL = es.ClientURL()
			logging.Info().Str("url", cfg.Stream.URL).Msg("embedded telemetry server ready")
		}

		sub, err := stream.NewNATSSubscriber(&cfg.Stream, nil)
		if err != nil {
			return fmt.Errorf("create delta subscriber: %w", err)
		}
		consumer = stream.NewConsumer(sub, cfg.Stream.Subject, cfg.Stream.ReconnectDelay, func(ctx context.Context, d *models.DeltaEvent) {
			rec.Apply(d)
		})
		defer consumer.Close()
		tree.AddIngestService(consumer)
	}

	handler := api.NewHandler(cfg, engine, rec, compositor, hub, snapshotStatus(st))
	middleware := api.NewMiddleware(&api.MiddlewareConfig{
		CORSAllowedOrigins: cfg.Server.CORSOrigins,
		RateLimitRequests:  cfg.Server.RateLimitReqs,
		RateLimitWindow:    cfg.Server.RateLimitWindow,
		RateLimitDisabled:  cfg.Server.RateLimitReqs == 0,
	})
	router := api.NewRouter(handler, middleware)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       120 * time.Second,
	}
	tree.AddAPIService(supervisor.NewHTTPServerService(httpServer, 10*time.Second))

	logging.Info().Str("addr", httpServer.Addr).Msg("serving dashboard")

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor tree: %w", err)
	}

	if unstopped, reportErr := tree.UnstoppedServiceReport(); reportErr == nil && len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("service did not stop within timeout")
		}
	}
	return nil
}

// storeStatus adapts the snapshot store to the API's readiness probe.
type storeStatus struct {
	st *store.Store
}

func (s storeStatus) Meta() (time.Time, int, bool) {
	meta, err := s.st.Meta()
	if err != nil {
		return time.Time{}, 0, false
	}
	return meta.SavedAt, meta.Cameras, true
}

func snapshotStatus(st *store.Store) api.SnapshotStatus {
	if st == nil {
		return nil
	}
	return storeStatus{st: st}
}
