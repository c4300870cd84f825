// CamGrid - Traffic Camera Telemetry and Geographic Visualization
// Copyright 2026 OpsLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/opslens/camgrid

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router wires handlers and middleware into the HTTP surface.
type Router struct {
	handler    *Handler
	middleware *Middleware
}

// NewRouter creates a router.
func NewRouter(handler *Handler, middleware *Middleware) *Router {
	return &Router{handler: handler, middleware: middleware}
}

// Setup builds the Chi route tree.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.middleware.CORS())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.middleware.RateLimit())
		r.Use(RequestLogging())

		r.Get("/markers", router.handler.Markers)
		r.Get("/markers/icon", router.handler.Icon)
		r.Get("/summary", router.handler.Summary)
		r.Get("/charts/{kind}", router.handler.Chart)
		r.Get("/filters", router.handler.Filters)
		r.Put("/filters", router.handler.SetFilters)
	})

	// WebSocket upgrade needs the raw ResponseWriter; keep it off the
	// logging wrapper, which does not implement http.Hijacker.
	r.Get("/ws", router.handler.WebSocket)

	r.Get("/healthz", router.handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
