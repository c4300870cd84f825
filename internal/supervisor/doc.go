// CamGrid - Traffic Camera Telemetry and Geographic Visualization
// Copyright 2026 OpsLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/opslens/camgrid

// Package supervisor builds the suture supervision tree that runs the
// process: an ingest layer (snapshot refresher and delta consumer), a
// messaging layer (WebSocket hub), and an API layer (HTTP server), each
// under its own child supervisor so failures restart only their layer.
package supervisor
