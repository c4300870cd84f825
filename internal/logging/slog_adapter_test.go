// CamGrid - Traffic Camera Telemetry and Geographic Visualization
// Copyright 2026 OpsLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/opslens/camgrid

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

func newBufferedSlogLogger(level zerolog.Level) (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	zl := zerolog.New(buf).Level(level)
	return slog.New(NewSlogHandlerWithLogger(zl)), buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log output %q is not JSON: %v", line, err)
	}
	return entry
}

func TestSlogHandler_WritesThroughZerolog(t *testing.T) {
	t.Parallel()

	logger, buf := newBufferedSlogLogger(zerolog.DebugLevel)
	logger.Info("service started",
		slog.String("layer", "ingest"),
		slog.Int("workers", 3),
		slog.Bool("embedded", true),
		slog.Duration("backoff", 5*time.Second),
	)

	entry := decodeLine(t, buf)
	if entry["level"] != "info" || entry["message"] != "service started" {
		t.Errorf("entry = %v", entry)
	}
	if entry["layer"] != "ingest" {
		t.Errorf("layer = %v", entry["layer"])
	}
	if entry["workers"] != float64(3) {
		t.Errorf("workers = %v", entry["workers"])
	}
	if entry["embedded"] != true {
		t.Errorf("embedded = %v", entry["embedded"])
	}
}

func TestSlogHandler_LevelMapping(t *testing.T) {
	// The package-level default suppresses debug globally; widen it for
	// the duration of this test. Not parallel for that reason.
	prev := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	defer zerolog.SetGlobalLevel(prev)

	tests := []struct {
		slogLevel slog.Level
		want      string
	}{
		{slogLevel: slog.LevelDebug, want: "debug"},
		{slogLevel: slog.LevelInfo, want: "info"},
		{slogLevel: slog.LevelWarn, want: "warn"},
		{slogLevel: slog.LevelError, want: "error"},
	}
	for _, tt := range tests {
		logger, buf := newBufferedSlogLogger(zerolog.TraceLevel)
		logger.Log(context.Background(), tt.slogLevel, "msg")
		entry := decodeLine(t, buf)
		if entry["level"] != tt.want {
			t.Errorf("slog %v mapped to %v, want %v", tt.slogLevel, entry["level"], tt.want)
		}
	}
}

func TestSlogHandler_Enabled(t *testing.T) {
	t.Parallel()

	logger, buf := newBufferedSlogLogger(zerolog.WarnLevel)
	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("info record passed a warn-level logger: %q", buf.String())
	}
	logger.Error("kept")
	if buf.Len() == 0 {
		t.Error("error record suppressed")
	}
}

func TestSlogHandler_WithAttrsAndGroup(t *testing.T) {
	t.Parallel()

	logger, buf := newBufferedSlogLogger(zerolog.DebugLevel)
	logger = logger.WithGroup("supervisor").With(slog.String("service", "camgrid"))
	logger.Warn("restarting", slog.String("child", "ingest-layer"))

	entry := decodeLine(t, buf)
	if entry["supervisor.service"] != "camgrid" {
		t.Errorf("grouped carried attr = %v", entry)
	}
	if entry["supervisor.child"] != "ingest-layer" {
		t.Errorf("grouped record attr = %v", entry)
	}
}

func TestNewSlogLogger_UsesGlobalBackend(t *testing.T) {
	if logger := NewSlogLogger(); logger == nil {
		t.Fatal("NewSlogLogger() = nil")
	}
}
