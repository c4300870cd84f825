// CamGrid - Traffic Camera Telemetry and Geographic Visualization
// Copyright 2026 OpsLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/opslens/camgrid

package supervisor

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"
)

// mockHTTPServer blocks in ListenAndServe until Shutdown or a forced
// failure.
type mockHTTPServer struct {
	serveErr  error
	failNow   chan struct{}
	done      chan struct{}
	shutdowns atomic.Int64
}

func newMockHTTPServer(serveErr error) *mockHTTPServer {
	return &mockHTTPServer{
		serveErr: serveErr,
		failNow:  make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (m *mockHTTPServer) ListenAndServe() error {
	select {
	case <-m.failNow:
		return m.serveErr
	case <-m.done:
		return http.ErrServerClosed
	}
}

func (m *mockHTTPServer) Shutdown(ctx context.Context) error {
	m.shutdowns.Add(1)
	close(m.done)
	return nil
}

func TestHTTPServerService_GracefulShutdown(t *testing.T) {
	t.Parallel()

	mock := newMockHTTPServer(nil)
	svc := NewHTTPServerService(mock, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	if got := mock.shutdowns.Load(); got != 1 {
		t.Errorf("Shutdown called %d times, want 1", got)
	}
}

func TestHTTPServerService_ListenFailure(t *testing.T) {
	t.Parallel()

	bindErr := errors.New("listen tcp :4326: address already in use")
	mock := newMockHTTPServer(bindErr)
	svc := NewHTTPServerService(mock, time.Second)

	done := make(chan error, 1)
	go func() { done <- svc.Serve(context.Background()) }()

	close(mock.failNow)

	select {
	case err := <-done:
		if !errors.Is(err, bindErr) {
			t.Errorf("Serve() = %v, want wrapped bind error", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not surface the listen failure")
	}
	if got := mock.shutdowns.Load(); got != 0 {
		t.Errorf("Shutdown called %d times on a failed listen, want 0", got)
	}
}

func TestHTTPServerService_DefaultsShutdownTimeout(t *testing.T) {
	t.Parallel()

	svc := NewHTTPServerService(newMockHTTPServer(nil), 0)
	if svc.shutdownTimeout != 10*time.Second {
		t.Errorf("shutdownTimeout = %v, want 10s default", svc.shutdownTimeout)
	}
}

func TestHTTPServerService_String(t *testing.T) {
	t.Parallel()

	svc := NewHTTPServerService(newMockHTTPServer(nil), time.Second)
	if got := svc.String(); got != "http-server" {
		t.Errorf("String() = %q", got)
	}
}
