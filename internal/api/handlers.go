// CamGrid - Traffic Camera Telemetry and Geographic Visualization
// Copyright 2026 OpsLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/opslens/camgrid

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/opslens/camgrid/internal/badge"
	"github.com/opslens/camgrid/internal/config"
	"github.com/opslens/camgrid/internal/geomap"
	"github.com/opslens/camgrid/internal/logging"
	"github.com/opslens/camgrid/internal/reconciler"
	ws "github.com/opslens/camgrid/internal/websocket"
)

// SnapshotStatus reports the last-known snapshot state for readiness.
type SnapshotStatus interface {
	Meta() (savedAt time.Time, cameras int, ok bool)
}

// Handler carries the components the HTTP surface fronts.
type Handler struct {
	cfg        *config.Config
	engine     *geomap.Engine
	reconciler *reconciler.Reconciler
	compositor *badge.Compositor
	wsHub      *ws.Hub
	snapshots  SnapshotStatus
	startTime  time.Time
}

// NewHandler creates the API handler.
func NewHandler(cfg *config.Config, engine *geomap.Engine, rec *reconciler.Reconciler, comp *badge.Compositor, hub *ws.Hub, snapshots SnapshotStatus) *Handler {
	return &Handler{
		cfg:        cfg,
		engine:     engine,
		reconciler: rec,
		compositor: comp,
		wsHub:      hub,
		snapshots:  snapshots,
		startTime:  time.Now(),
	}
}

// writeJSON serializes v with goccy/go-json.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("failed to encode response")
	}
}

// errorResponse is the uniform error envelope.
type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// Health reports liveness plus basic component state.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
		"ws_clients":     h.wsHub.ClientCount(),
		"zoom_level":     h.engine.Level().String(),
	}
	if h.snapshots != nil {
		if savedAt, cameras, ok := h.snapshots.Meta(); ok {
			resp["snapshot_saved_at"] = savedAt.Format(time.RFC3339)
			resp["snapshot_cameras"] = cameras
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// getUpgrader builds the WebSocket upgrader with origin checking against
// the configured CORS origins.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin rejects browser connections whose Origin is not
// allowed. A missing Origin is rejected; browsers always send one.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("websocket connection rejected: missing Origin header")
		return false
	}
	if h.cfg == nil {
		return true
	}
	for _, allowed := range h.cfg.Server.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	logging.Warn().Str("origin", origin).Msg("websocket connection rejected from unauthorized origin")
	return false
}

// WebSocket upgrades the connection and registers the client with the
// hub.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	client := ws.NewClient(h.wsHub, conn)
	h.wsHub.Register <- client
	client.Start()
}
