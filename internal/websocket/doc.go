// CamGrid - Traffic Camera Telemetry and Geographic Visualization
// Copyright 2026 OpsLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/opslens/camgrid

// Package websocket pushes marker, aggregate, and chart updates to
// connected dashboards.
//
// The hub owns the client set and serializes lifecycle events against
// broadcasts; each client gets a buffered send channel and is dropped,
// not blocked on, when the buffer fills. Aggregate updates arrive at
// delta-stream rate, so the hub throttles stats broadcasts with a token
// bucket; marker updates are already debounced by the clustering engine
// and pass straight through.
package websocket
