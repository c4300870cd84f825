// CamGrid - Traffic Camera Telemetry and Geographic Visualization
// Copyright 2026 OpsLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/opslens/camgrid

// Package models defines the normalized domain types shared across CamGrid:
// camera statistics records, renderable map markers, and incremental delta
// events. Upstream payloads are loose (numbers as strings, optional nesting,
// two delta schemas on the same channel), so every external shape is parsed
// into these strict types at the boundary and the core packages never branch
// on payload-shape ambiguity.
package models

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

// CameraType classifies what a camera counts.
type CameraType string

// Camera types reported by the statistics backend.
const (
	CameraTypeTraffic CameraType = "Traffic"
	CameraTypePerson  CameraType = "Person"
	CameraTypeFace    CameraType = "Face"
)

// CameraLocation is a normalized camera statistics record. A record may
// represent a single camera or a location group whose IndividualCameras
// carry the per-camera breakdown. Immutable once built for a data batch;
// a filter change replaces the whole batch.
type CameraLocation struct {
	Lat                   float64          `json:"lat"`
	Lng                   float64          `json:"lng"`
	CameraCode            string           `json:"cameraCode"`
	Type                  CameraType       `json:"type"`
	Count                 int64            `json:"count"`
	TotalTrafficDetected  int64            `json:"totalTrafficDetected"`
	TotalTrafficViolation int64            `json:"totalTrafficViolation"`
	TotalPersonDetected   int64            `json:"totalPersonDetected"`
	FaceRecognition       int64            `json:"faceRecognition"`
	Address               string           `json:"address,omitempty"`
	IndividualCameras     []CameraLocation `json:"individualCameras,omitempty"`
}

// CountForType returns the count a marker should display for this record,
// chosen by the camera's type.
func (c *CameraLocation) CountForType() int64 {
	switch c.Type {
	case CameraTypeTraffic:
		return c.TotalTrafficDetected
	case CameraTypePerson:
		return c.TotalPersonDetected
	case CameraTypeFace:
		return c.FaceRecognition
	default:
		return c.Count
	}
}

// flexFloat decodes JSON numbers that some upstream endpoints emit as
// quoted strings ("21.03" vs 21.03). Null decodes to zero.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("parse %q as float: %w", s, err)
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// flexInt is the integer counterpart of flexFloat. Fractional input is
// truncated toward zero, matching how the dashboards displayed it.
type flexInt int64

func (i *flexInt) UnmarshalJSON(b []byte) error {
	var f flexFloat
	if err := f.UnmarshalJSON(b); err != nil {
		return err
	}
	*i = flexInt(f)
	return nil
}

// rawCameraLocation mirrors the loose upstream record shape.
type rawCameraLocation struct {
	Lat                   flexFloat           `json:"lat"`
	Lng                   flexFloat           `json:"lng"`
	Latitude              flexFloat           `json:"latitude"`
	Longitude             flexFloat           `json:"longitude"`
	CameraCode            string              `json:"cameraCode"`
	CameraSN              string              `json:"cameraSn"`
	Type                  string              `json:"type"`
	Count                 flexInt             `json:"count"`
	TotalTrafficDetected  flexInt             `json:"totalTrafficDetected"`
	TotalTrafficViolation flexInt             `json:"totalTrafficViolation"`
	TotalPersonDetected   flexInt             `json:"totalPersonDetected"`
	FaceRecognition       flexInt             `json:"faceRecognition"`
	Address               string              `json:"address"`
	IndividualCameras     []rawCameraLocation `json:"individualCameras"`
}

func (r *rawCameraLocation) normalize() CameraLocation {
	lat := float64(r.Lat)
	if lat == 0 {
		lat = float64(r.Latitude)
	}
	lng := float64(r.Lng)
	if lng == 0 {
		lng = float64(r.Longitude)
	}
	code := r.CameraCode
	if code == "" {
		code = r.CameraSN
	}
	loc := CameraLocation{
		Lat:                   lat,
		Lng:                   lng,
		CameraCode:            code,
		Type:                  normalizeCameraType(r.Type),
		Count:                 int64(r.Count),
		TotalTrafficDetected:  int64(r.TotalTrafficDetected),
		TotalTrafficViolation: int64(r.TotalTrafficViolation),
		TotalPersonDetected:   int64(r.TotalPersonDetected),
		FaceRecognition:       int64(r.FaceRecognition),
		Address:               r.Address,
	}
	for i := range r.IndividualCameras {
		loc.IndividualCameras = append(loc.IndividualCameras, r.IndividualCameras[i].normalize())
	}
	return loc
}

func normalizeCameraType(s string) CameraType {
	switch s {
	case "Traffic", "traffic", "TRAFFIC":
		return CameraTypeTraffic
	case "Person", "person", "PERSON":
		return CameraTypePerson
	case "Face", "face", "FACE":
		return CameraTypeFace
	default:
		return CameraType(s)
	}
}

// ParseSnapshot decodes a snapshot payload into normalized records.
// Accepts both a bare array and the enveloped {"data": [...]} form.
func ParseSnapshot(payload []byte) ([]CameraLocation, error) {
	var raw []rawCameraLocation
	if err := json.Unmarshal(payload, &raw); err != nil {
		var envelope struct {
			Data []rawCameraLocation `json:"data"`
		}
		if envErr := json.Unmarshal(payload, &envelope); envErr != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
		raw = envelope.Data
	}

	locations := make([]CameraLocation, 0, len(raw))
	for i := range raw {
		locations = append(locations, raw[i].normalize())
	}
	return locations, nil
}
