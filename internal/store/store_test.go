// CamGrid - Traffic Camera Telemetry and Geographic Visualization
// Copyright 2026 OpsLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/opslens/camgrid

package store

import (
	"errors"
	"testing"
	"time"

	"github.com/opslens/camgrid/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndLoadSnapshot(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	cams := []models.CameraLocation{
		{Lat: 21.03, Lng: 105.88, CameraCode: "CAM-1", Type: models.CameraTypeTraffic, TotalTrafficDetected: 10},
		{Lat: 10.77, Lng: 106.70, CameraCode: "CAM-2", Type: models.CameraTypePerson, TotalPersonDetected: 4},
	}

	if err := s.SaveSnapshot(cams); err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}

	loaded, err := s.LoadSnapshot()
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d cameras, want 2", len(loaded))
	}
	if loaded[0].CameraCode != "CAM-1" || loaded[0].TotalTrafficDetected != 10 {
		t.Errorf("first camera = %+v", loaded[0])
	}
	if loaded[1].Type != models.CameraTypePerson {
		t.Errorf("second camera type = %v", loaded[1].Type)
	}
}

func TestLoadSnapshot_Empty(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	if _, err := s.LoadSnapshot(); !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("LoadSnapshot() error = %v, want ErrNoSnapshot", err)
	}
	if _, err := s.Meta(); !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("Meta() error = %v, want ErrNoSnapshot", err)
	}
}

func TestSaveSnapshot_Replaces(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	if err := s.SaveSnapshot([]models.CameraLocation{{Lat: 1, Lng: 2, CameraCode: "OLD"}}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveSnapshot([]models.CameraLocation{
		{Lat: 3, Lng: 4, CameraCode: "NEW-1"},
		{Lat: 5, Lng: 6, CameraCode: "NEW-2"},
	}); err != nil {
		t.Fatal(err)
	}

	loaded, err := s.LoadSnapshot()
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}
	if len(loaded) != 2 || loaded[0].CameraCode != "NEW-1" {
		t.Errorf("loaded = %+v, want the replacement snapshot", loaded)
	}
}

func TestMeta(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	before := time.Now().UTC().Add(-time.Second)
	if err := s.SaveSnapshot(make([]models.CameraLocation, 3)); err != nil {
		t.Fatal(err)
	}

	meta, err := s.Meta()
	if err != nil {
		t.Fatalf("Meta() error = %v", err)
	}
	if meta.Cameras != 3 {
		t.Errorf("meta.Cameras = %d, want 3", meta.Cameras)
	}
	if meta.SavedAt.Before(before) || meta.SavedAt.After(time.Now().UTC().Add(time.Second)) {
		t.Errorf("meta.SavedAt = %v, not near now", meta.SavedAt)
	}
}
