// CamGrid - Traffic Camera Telemetry and Geographic Visualization
// Copyright 2026 OpsLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/opslens/camgrid

// Package badge produces renderable marker icons: a static base icon per
// marker type, optionally composited with a numeric count badge. The
// imperative drawing sits behind a pure, memoized Composite function so
// repeated renders of the same marker never redraw, and tests can swap in
// a counting fake for the draw pipeline.
package badge

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/image/draw"

	"github.com/opslens/camgrid/internal/logging"
	"github.com/opslens/camgrid/internal/metrics"
)

// DrawFunc renders a base icon with a count badge onto a new image.
// Implementations must be pure: same inputs, same output.
type DrawFunc func(base image.Image, countText string, width, height int) (image.Image, error)

// Config tunes compositing and caching.
type Config struct {
	CacheSize    int
	CacheTTL     time.Duration
	ScaleMin     float64
	ScaleMax     float64
	BadgePadding int
	BadgeHeight  int
}

// DefaultConfig returns the compositor defaults.
func DefaultConfig() Config {
	return Config{
		CacheSize:    512,
		CacheTTL:     10 * time.Minute,
		ScaleMin:     1.0,
		ScaleMax:     1.8,
		BadgePadding: 6,
		BadgeHeight:  14,
	}
}

// Compositor caches base icons by type and composite results by
// (icon, text, size) key.
type Compositor struct {
	mu       sync.RWMutex
	icons    map[string]image.Image
	fallback image.Image

	cache     *compositeCache
	draw      DrawFunc
	drawCalls atomic.Int64

	cfg Config
}

// New creates a Compositor with the default draw pipeline.
func New(cfg Config) *Compositor {
	c := &Compositor{
		icons:    make(map[string]image.Image),
		fallback: defaultIcon(),
		cache:    newCompositeCache(cfg.CacheSize, cfg.CacheTTL),
		cfg:      cfg,
	}
	c.draw = func(base image.Image, text string, w, h int) (image.Image, error) {
		return renderBadge(base, text, w, h, cfg.BadgeHeight, cfg.BadgePadding)
	}
	return c
}

// SetDrawFunc replaces the draw pipeline. Tests use this to count draw
// invocations without a real rendering pass.
func (c *Compositor) SetDrawFunc(fn DrawFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draw = fn
}

// LoadIcons loads one PNG per marker type from dir, keyed by file base
// name ("traffic.png" -> "traffic"). A missing directory or an unreadable
// file is logged and the embedded default icon covers that type; the map
// must keep rendering.
func (c *Compositor) LoadIcons(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logging.Warn().Err(err).Str("dir", dir).Msg("icon directory unavailable, using embedded default icon")
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".png") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		img, err := loadPNG(path)
		if err != nil {
			logging.Warn().Err(err).Str("path", path).Msg("failed to load icon, using embedded default")
			continue
		}
		key := strings.TrimSuffix(entry.Name(), ".png")
		c.RegisterIcon(key, img)
	}
}

// RegisterIcon adds or replaces a base icon.
func (c *Compositor) RegisterIcon(key string, img image.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.icons[key] = img
}

// baseIcon returns the icon for a type, or the embedded default.
func (c *Compositor) baseIcon(key string) image.Image {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if img, ok := c.icons[key]; ok {
		return img
	}
	return c.fallback
}

// Composite returns the PNG-encoded icon for a marker: the base icon with
// the count badge drawn at its top-right. Results are memoized by
// (icon, text, width, height); a second call with the same key is served
// from cache without re-invoking the draw pipeline.
func (c *Compositor) Composite(iconKey, countText string, width, height int) ([]byte, error) {
	key := cacheKey(iconKey, countText, width, height)
	if data, ok := c.cache.get(key); ok {
		metrics.CompositeCacheHits.Inc()
		return data, nil
	}
	metrics.CompositeCacheMisses.Inc()

	c.mu.RLock()
	drawFn := c.draw
	c.mu.RUnlock()

	c.drawCalls.Add(1)
	img, err := drawFn(c.baseIcon(iconKey), countText, width, height)
	if err != nil {
		return nil, fmt.Errorf("composite %s: %w", key, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode composite %s: %w", key, err)
	}
	data := buf.Bytes()
	c.cache.add(key, data)
	return data, nil
}

// Scaled returns the PNG-encoded base icon scaled for a low-zoom cluster:
// no badge, size grown between ScaleMin and ScaleMax proportionally to
// count/maxCount. Cached like composites.
func (c *Compositor) Scaled(iconKey string, width, height int, count, maxCount int64) ([]byte, error) {
	factor := ScaleFactor(count, maxCount, c.cfg.ScaleMin, c.cfg.ScaleMax)
	w := int(math.Round(float64(width) * factor))
	h := int(math.Round(float64(height) * factor))

	key := cacheKey(iconKey, "scaled", w, h)
	if data, ok := c.cache.get(key); ok {
		metrics.CompositeCacheHits.Inc()
		return data, nil
	}
	metrics.CompositeCacheMisses.Inc()

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	base := c.baseIcon(iconKey)
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), base, base.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode scaled icon %s: %w", key, err)
	}
	data := buf.Bytes()
	c.cache.add(key, data)
	return data, nil
}

// Invalidate flushes the composite cache. The clustering engine calls
// this on every zoom-level transition.
func (c *Compositor) Invalidate() {
	c.cache.clear()
}

// DrawCalls returns how many times the draw pipeline ran. Cache hits do
// not increment it.
func (c *Compositor) DrawCalls() int64 {
	return c.drawCalls.Load()
}

// CacheLen returns the number of cached composites.
func (c *Compositor) CacheLen() int {
	return c.cache.len()
}

// ScaleFactor maps a count onto [min, max] proportionally to maxCount.
// A zero maxCount yields min.
func ScaleFactor(count, maxCount int64, min, max float64) float64 {
	if maxCount <= 0 || count <= 0 {
		return min
	}
	ratio := float64(count) / float64(maxCount)
	if ratio > 1 {
		ratio = 1
	}
	return min + (max-min)*ratio
}

func cacheKey(iconKey, text string, w, h int) string {
	return fmt.Sprintf("%s|%s|%dx%d", iconKey, text, w, h)
}

func loadPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, err
	}
	return img, nil
}
