// CamGrid - Traffic Camera Telemetry and Geographic Visualization
// Copyright 2026 OpsLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/opslens/camgrid

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/opslens/camgrid/internal/charts"
	"github.com/opslens/camgrid/internal/geomap"
	"github.com/opslens/camgrid/internal/models"
	"github.com/opslens/camgrid/internal/reconciler"
	"github.com/opslens/camgrid/internal/validation"
)

// markersRequest is the validated query for GET /api/v1/markers.
type markersRequest struct {
	Zoom float64 `validate:"min=0,max=22"`
}

// markersResponse carries the current visible marker set.
type markersResponse struct {
	Level    string                 `json:"level"`
	MaxCount int64                  `json:"maxCount"`
	Markers  []models.MarkerData    `json:"markers"`
	Clusters []models.ClusterMarker `json:"clusters,omitempty"`
}

// Markers returns the visible marker set. An optional zoom query feeds
// the engine; the rebuild it triggers is debounced, so the response
// reflects the set current at request time and the refreshed set
// follows over the WebSocket.
func (h *Handler) Markers(w http.ResponseWriter, r *http.Request) {
	if zoomStr := r.URL.Query().Get("zoom"); zoomStr != "" {
		zoom, err := strconv.ParseFloat(zoomStr, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "zoom must be a number")
			return
		}
		req := markersRequest{Zoom: zoom}
		if verr := validation.ValidateStruct(req); verr != nil {
			writeError(w, http.StatusBadRequest, verr.Error())
			return
		}
		h.engine.SetZoom(zoom)
	}

	snap := h.engine.Snapshot()
	writeJSON(w, http.StatusOK, markersResponse{
		Level:    snap.Level.String(),
		MaxCount: snap.MaxCount,
		Markers:  snap.Markers,
		Clusters: snap.Clusters,
	})
}

// Summary returns the reconciler's aggregate ledger.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.reconciler.Snapshot())
}

// Chart renders one chart kind as a self-contained HTML document.
// single_day=true enables the hourly breakdown.
func (h *Handler) Chart(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	singleDay := r.URL.Query().Get("single_day") == "true"

	agg := h.reconciler.Snapshot()
	hourly := charts.HourlySeries(agg, singleDay)
	location := charts.LocationSeries(agg)
	types := charts.TypeSeries(agg)
	cameras := charts.CameraSeries(agg, 10)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := charts.Render(w, kind, hourly, location, types, cameras); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
	}
}

// iconRequest is the validated query for GET /api/v1/markers/icon.
type iconRequest struct {
	Width  int `validate:"min=8,max=512"`
	Height int `validate:"min=8,max=512"`
}

// Icon returns a PNG marker icon: badge-composited at medium and high
// zoom, count-scaled without a badge at low zoom (scaled=true).
func (h *Handler) Icon(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	iconKey := q.Get("type")
	if iconKey == "" {
		iconKey = "traffic"
	}

	width := intQuery(q.Get("w"), 32)
	height := intQuery(q.Get("h"), 32)
	if verr := validation.ValidateStruct(iconRequest{Width: width, Height: height}); verr != nil {
		writeError(w, http.StatusBadRequest, verr.Error())
		return
	}

	var data []byte
	var err error
	if q.Get("scaled") == "true" {
		count := int64Query(q.Get("count"), 0)
		data, err = h.compositor.Scaled(iconKey, width, height, count, h.engine.MaxVisibleCount())
	} else {
		// Badge only for positive counts.
		countText := ""
		if count := int64Query(q.Get("count"), 0); count > 0 {
			countText = strconv.FormatInt(count, 10)
		}
		data, err = h.compositor.Composite(iconKey, countText, width, height)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=60")
	w.Write(data)
}

// filterRequest is the body of PUT /api/v1/filters.
type filterRequest struct {
	Type       string `json:"type" validate:"omitempty,oneof=Traffic Person Face"`
	Region     string `json:"region" validate:"omitempty,max=64"`
	CameraCode string `json:"cameraCode" validate:"omitempty,max=64"`
	Location   string `json:"location" validate:"omitempty,max=128"`
}

// SetFilters swaps the active dashboard filter. The marker engine
// rebuilds from its current batch and the reconciler re-derives its
// ledger from the same snapshot plus the retained delta log; no
// upstream refetch happens.
func (h *Handler) SetFilters(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid filter body")
		return
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		writeError(w, http.StatusBadRequest, verr.Error())
		return
	}

	h.engine.SetFilter(geomap.Filter{
		Type:       models.CameraType(req.Type),
		Region:     req.Region,
		CameraCode: req.CameraCode,
	})
	h.reconciler.SetFilter(reconciler.Filter{
		CameraSN: req.CameraCode,
		Location: req.Location,
	}, h.engine.Cameras())

	writeJSON(w, http.StatusOK, map[string]string{"status": "applied"})
}

// Filters returns the active filter set.
func (h *Handler) Filters(w http.ResponseWriter, r *http.Request) {
	engineFilter := h.engine.Filter()
	recFilter := h.reconciler.Filter()
	writeJSON(w, http.StatusOK, filterRequest{
		Type:       string(engineFilter.Type),
		Region:     engineFilter.Region,
		CameraCode: engineFilter.CameraCode,
		Location:   recFilter.Location,
	})
}

func intQuery(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func int64Query(s string, fallback int64) int64 {
	if s == "" {
		return fallback
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}
