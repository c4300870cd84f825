// CamGrid - Traffic Camera Telemetry and Geographic Visualization
// Copyright 2026 OpsLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/opslens/camgrid

// Package store persists the last good camera snapshot in BadgerDB so a
// restart serves the map immediately instead of waiting for the first
// upstream fetch.
package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/opslens/camgrid/internal/logging"
	"github.com/opslens/camgrid/internal/models"
)

// Keys for BadgerDB storage.
const (
	snapshotKey     = "snapshot:cameras"
	snapshotMetaKey = "snapshot:meta"
)

// ErrNoSnapshot is returned when no snapshot has ever been saved.
var ErrNoSnapshot = errors.New("store: no snapshot saved")

// SnapshotMeta describes the persisted snapshot.
type SnapshotMeta struct {
	SavedAt time.Time `json:"savedAt"`
	Cameras int       `json:"cameras"`
}

// Store wraps a Badger instance holding the last-known snapshot.
type Store struct {
	db *badger.DB
}

// Open creates a store at dir. An empty dir uses an in-memory instance,
// which tests rely on.
func Open(dir string) (*Store, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(dir)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSnapshot persists the camera list and its metadata in one
// transaction, replacing any previous snapshot.
func (s *Store) SaveSnapshot(cams []models.CameraLocation) error {
	data, err := json.Marshal(cams)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	meta, err := json.Marshal(SnapshotMeta{SavedAt: time.Now().UTC(), Cameras: len(cams)})
	if err != nil {
		return fmt.Errorf("marshal snapshot meta: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(snapshotKey), data); err != nil {
			return fmt.Errorf("set snapshot: %w", err)
		}
		if err := txn.Set([]byte(snapshotMetaKey), meta); err != nil {
			return fmt.Errorf("set snapshot meta: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logging.Debug().Int("cameras", len(cams)).Msg("snapshot persisted")
	return nil
}

// LoadSnapshot returns the last persisted camera list, or ErrNoSnapshot
// when none exists.
func (s *Store) LoadSnapshot() ([]models.CameraLocation, error) {
	var cams []models.CameraLocation
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(snapshotKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNoSnapshot
		}
		if err != nil {
			return fmt.Errorf("get snapshot: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &cams)
		})
	})
	if err != nil {
		return nil, err
	}
	return cams, nil
}

// Meta returns metadata for the persisted snapshot, or ErrNoSnapshot.
func (s *Store) Meta() (*SnapshotMeta, error) {
	var meta SnapshotMeta
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(snapshotMetaKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNoSnapshot
		}
		if err != nil {
			return fmt.Errorf("get snapshot meta: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		})
	})
	if err != nil {
		return nil, err
	}
	return &meta, nil
}
