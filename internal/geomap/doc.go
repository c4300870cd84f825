// CamGrid - Traffic Camera Telemetry and Geographic Visualization
// Copyright 2026 OpsLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/opslens/camgrid

// Package geomap implements the marker pipeline behind the map view:
//
//   - coordinate validation: raw camera records with unusable positions
//     are dropped (and logged) before they can reach a render stage
//   - marker building: camera-level and individual-camera markers, plus a
//     country/region/district hierarchy for coarse zooms
//   - zoom-level clustering: at low zoom cameras are merged by spatial
//     grid hashing, with cell size derived from the zoom value
//   - the engine: owns the visible marker set, debounces zoom changes and
//     republishes the set as a single atomic slice replacement
//
// Aggregate markers always sit on an exact member position. Averaging
// coordinates across distant deployments can place a marker on terrain
// where nothing exists, so it is forbidden everywhere in this package.
package geomap
