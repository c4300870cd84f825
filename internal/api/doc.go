// CamGrid - Traffic Camera Telemetry and Geographic Visualization
// Copyright 2026 OpsLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/opslens/camgrid

// Package api exposes the dashboard's HTTP surface on a Chi router:
// marker and summary reads, chart rendering, icon compositing, filter
// updates, the WebSocket upgrade, and the health and metrics endpoints.
//
// Handlers are thin: they validate input, call into the owning
// component (clustering engine, reconciler, compositor, hub), and
// serialize the result. All mutation of shared state happens inside
// those components, never in a handler.
package api
