// CamGrid - Traffic Camera Telemetry and Geographic Visualization
// Copyright 2026 OpsLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/opslens/camgrid

// Package config loads CamGrid configuration through Koanf v2 with layered
// sources, highest priority last: built-in defaults, config.yaml, then
// CAMGRID_* environment variables.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration tree.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Snapshot SnapshotConfig `koanf:"snapshot"`
	Stream   StreamConfig   `koanf:"stream"`
	Map      MapConfig      `koanf:"map"`
	Icons    IconsConfig    `koanf:"icons"`
	Store    StoreConfig    `koanf:"store"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig configures the HTTP/WebSocket surface.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout         time.Duration `koanf:"timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"min=0"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// SnapshotConfig configures the upstream camera-statistics REST client.
type SnapshotConfig struct {
	URL             string        `koanf:"url" validate:"omitempty,url"`
	APIKey          string        `koanf:"api_key"`
	Timeout         time.Duration `koanf:"timeout"`
	RefreshInterval time.Duration `koanf:"refresh_interval"`

	// Circuit breaker: trip after BreakerFailures consecutive failures,
	// retry after BreakerCooldown.
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerCooldown time.Duration `koanf:"breaker_cooldown"`
}

// StreamConfig configures the delta-event push stream (NATS JetStream via
// Watermill).
type StreamConfig struct {
	Enabled        bool          `koanf:"enabled"`
	URL            string        `koanf:"url"`
	Subject        string        `koanf:"subject"`
	DurableName    string        `koanf:"durable_name"`
	QueueGroup     string        `koanf:"queue_group"`
	ReconnectDelay time.Duration `koanf:"reconnect_delay"`
	AckWait        time.Duration `koanf:"ack_wait"`
	CloseTimeout   time.Duration `koanf:"close_timeout"`

	// EmbeddedServer runs an in-process NATS JetStream server for
	// standalone deployments with no external broker.
	EmbeddedServer bool   `koanf:"embedded_server"`
	StoreDir       string `koanf:"store_dir"`
}

// MapConfig configures the clustering engine.
type MapConfig struct {
	// Zoom-level thresholds: zoom < MediumZoom is Low,
	// zoom < HighZoom is Medium, else High.
	MediumZoom float64 `koanf:"medium_zoom" validate:"min=1,max=22"`
	HighZoom   float64 `koanf:"high_zoom" validate:"min=1,max=22"`

	// Debounce coalesces zoom-changed signals before re-evaluation.
	Debounce time.Duration `koanf:"debounce"`

	// Regions are latitude bands for the city/region hierarchy level,
	// evaluated in order; the first band whose MinLat the camera exceeds
	// wins. FallbackRegion catches everything below the last band.
	Regions        []RegionBand `koanf:"regions"`
	FallbackRegion string       `koanf:"fallback_region"`
}

// RegionBand names a latitude band.
type RegionBand struct {
	Name   string  `koanf:"name" validate:"required"`
	MinLat float64 `koanf:"min_lat" validate:"min=-90,max=90"`
}

// IconsConfig configures marker icon assets and badge compositing.
type IconsConfig struct {
	Dir          string        `koanf:"dir"`
	CacheSize    int           `koanf:"cache_size" validate:"min=1"`
	CacheTTL     time.Duration `koanf:"cache_ttl"`
	ScaleMin     float64       `koanf:"scale_min" validate:"min=0.1"`
	ScaleMax     float64       `koanf:"scale_max" validate:"min=0.1"`
	BadgePadding int           `koanf:"badge_padding" validate:"min=0"`
	BadgeHeight  int           `koanf:"badge_height" validate:"min=4"`
}

// StoreConfig configures the badger-backed last-known snapshot store.
type StoreConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// LoggingConfig configures zerolog output.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with every default applied. File and env
// layers override these values.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            4326, // EPSG:4326, the coordinate system marker positions use
			Timeout:         30 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Snapshot: SnapshotConfig{
			URL:             "",
			Timeout:         15 * time.Second,
			RefreshInterval: 5 * time.Minute,
			BreakerFailures: 5,
			BreakerCooldown: 30 * time.Second,
		},
		Stream: StreamConfig{
			Enabled:        true,
			URL:            "nats://127.0.0.1:4222",
			Subject:        "telemetry.delta",
			DurableName:    "camgrid-reconciler",
			QueueGroup:     "reconcilers",
			ReconnectDelay: 5 * time.Second,
			AckWait:        30 * time.Second,
			CloseTimeout:   30 * time.Second,
			EmbeddedServer: false,
			StoreDir:       "/data/nats/jetstream",
		},
		Map: MapConfig{
			MediumZoom: 9,
			HighZoom:   14,
			Debounce:   150 * time.Millisecond,
			Regions: []RegionBand{
				{Name: "North", MinLat: 16.5},
				{Name: "Central", MinLat: 14},
				{Name: "South", MinLat: 11},
			},
			FallbackRegion: "South-Island",
		},
		Icons: IconsConfig{
			Dir:          "/data/icons",
			CacheSize:    512,
			CacheTTL:     10 * time.Minute,
			ScaleMin:     1.0,
			ScaleMax:     1.8,
			BadgePadding: 6,
			BadgeHeight:  14,
		},
		Store: StoreConfig{
			Enabled: true,
			Path:    "/data/camgrid/state",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate checks cross-field constraints that tags cannot express.
func (c *Config) Validate() error {
	if c.Map.MediumZoom >= c.Map.HighZoom {
		return fmt.Errorf("map.medium_zoom (%v) must be below map.high_zoom (%v)",
			c.Map.MediumZoom, c.Map.HighZoom)
	}
	if c.Icons.ScaleMin > c.Icons.ScaleMax {
		return fmt.Errorf("icons.scale_min (%v) must not exceed icons.scale_max (%v)",
			c.Icons.ScaleMin, c.Icons.ScaleMax)
	}
	for i := 1; i < len(c.Map.Regions); i++ {
		if c.Map.Regions[i].MinLat >= c.Map.Regions[i-1].MinLat {
			return fmt.Errorf("map.regions must be ordered by descending min_lat")
		}
	}
	return nil
}
