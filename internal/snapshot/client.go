// CamGrid - Traffic Camera Telemetry and Geographic Visualization
// Copyright 2026 OpsLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/opslens/camgrid

// Package snapshot fetches the full camera list from the upstream
// telemetry backend. Fetches run behind a circuit breaker so a slow or
// down backend cannot pile up requests; between successful fetches the
// delta stream keeps the dashboard current.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/opslens/camgrid/internal/config"
	"github.com/opslens/camgrid/internal/logging"
	"github.com/opslens/camgrid/internal/metrics"
	"github.com/opslens/camgrid/internal/models"
)

// maxSnapshotBody caps the response body read; a camera list should
// never be anywhere near this.
const maxSnapshotBody = 32 << 20

// Client fetches camera snapshots over HTTP with circuit breaker
// protection.
type Client struct {
	httpClient *http.Client
	url        string
	apiKey     string
	cb         *gobreaker.CircuitBreaker[[]models.CameraLocation]
}

// NewClient creates a snapshot client. The breaker opens after the
// configured number of consecutive failures and probes again after the
// cooldown.
func NewClient(cfg *config.SnapshotConfig) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
	}
	failures := uint32(cfg.BreakerFailures)
	c.cb = gobreaker.NewCircuitBreaker[[]models.CameraLocation](gobreaker.Settings{
		Name:    "snapshot-api",
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("snapshot breaker state transition")
		},
	})
	return c
}

// Fetch retrieves and parses the full camera snapshot. When the breaker
// is open the call fails fast without touching the network; callers keep
// serving the last good snapshot.
func (c *Client) Fetch(ctx context.Context) ([]models.CameraLocation, error) {
	cams, err := c.cb.Execute(func() ([]models.CameraLocation, error) {
		return c.fetch(ctx)
	})
	switch {
	case err == nil:
		metrics.SnapshotFetches.WithLabelValues("success").Inc()
		return cams, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.SnapshotFetches.WithLabelValues("breaker_open").Inc()
		return nil, fmt.Errorf("snapshot fetch rejected: %w", err)
	default:
		metrics.SnapshotFetches.WithLabelValues("error").Inc()
		return nil, err
	}
}

func (c *Client) fetch(ctx context.Context) ([]models.CameraLocation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build snapshot request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("snapshot request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("snapshot request: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSnapshotBody))
	if err != nil {
		return nil, fmt.Errorf("read snapshot body: %w", err)
	}

	cams, err := models.ParseSnapshot(body)
	if err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return cams, nil
}

// Refresher periodically fetches the snapshot and hands it to apply.
// It implements suture.Service.
type Refresher struct {
	client   *Client
	interval time.Duration
	apply    func([]models.CameraLocation)
}

// NewRefresher creates a refresher. apply runs on every successful
// fetch, including the initial one.
func NewRefresher(client *Client, interval time.Duration, apply func([]models.CameraLocation)) *Refresher {
	return &Refresher{client: client, interval: interval, apply: apply}
}

// Serve fetches once immediately, then on every interval tick until the
// context is canceled. Failed fetches are logged and retried on the next
// tick; the breaker handles burst control.
func (r *Refresher) Serve(ctx context.Context) error {
	r.refresh(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) {
	cams, err := r.client.Fetch(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("snapshot refresh failed, keeping last snapshot")
		return
	}
	logging.Info().Int("cameras", len(cams)).Msg("camera snapshot refreshed")
	r.apply(cams)
}

func (r *Refresher) String() string { return "snapshot-refresher" }
