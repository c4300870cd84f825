// CamGrid - Traffic Camera Telemetry and Geographic Visualization
// Copyright 2026 OpsLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/opslens/camgrid

package websocket

import (
	"context"
	"testing"
	"time"
)

// startHub runs the hub and returns a cancel that waits for it to stop.
func startHub(t *testing.T, h *Hub) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = h.Run(ctx)
		close(done)
	}()
	return func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("hub did not stop")
		}
	}
}

func waitForClients(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for h.ClientCount() != want {
		select {
		case <-deadline:
			t.Fatalf("ClientCount() = %d, want %d", h.ClientCount(), want)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func recvMessage(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case msg := <-c.send:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
		return Message{}
	}
}

func TestHub_RegisterAndBroadcast(t *testing.T) {
	t.Parallel()

	h := NewHub(0)
	stop := startHub(t, h)
	defer stop()

	a := NewClient(h, nil)
	b := NewClient(h, nil)
	h.Register <- a
	h.Register <- b
	waitForClients(t, h, 2)

	h.BroadcastMarkers(map[string]int{"markers": 3})

	for _, c := range []*Client{a, b} {
		msg := recvMessage(t, c)
		if msg.Type != MessageTypeMarkers {
			t.Errorf("message type = %q, want %q", msg.Type, MessageTypeMarkers)
		}
	}
}

func TestHub_Unregister(t *testing.T) {
	t.Parallel()

	h := NewHub(0)
	stop := startHub(t, h)
	defer stop()

	c := NewClient(h, nil)
	h.Register <- c
	h.Unregister <- c
	waitForClients(t, h, 0)
	// The hub closes the send channel of a removed client.
	select {
	case _, ok := <-c.send:
		if ok {
			t.Error("expected closed send channel")
		}
	case <-time.After(time.Second):
		t.Error("send channel not closed")
	}
}

func TestHub_SlowClientDropped(t *testing.T) {
	t.Parallel()

	h := NewHub(0)
	stop := startHub(t, h)
	defer stop()

	healthy := NewClient(h, nil)
	stalled := NewClient(h, nil)
	h.Register <- healthy
	h.Register <- stalled

	// A dashboard that stopped reading: its buffer is already full.
	for i := 0; i < cap(stalled.send); i++ {
		stalled.send <- Message{Type: MessageTypePing}
	}

	h.BroadcastStats(map[string]int{"total": 1})

	// The healthy client still gets the update.
	msg := recvMessage(t, healthy)
	if msg.Type != MessageTypeStats {
		t.Errorf("message type = %q, want %q", msg.Type, MessageTypeStats)
	}

	// The stalled one is dropped rather than blocked on.
	deadline := time.After(2 * time.Second)
	for h.ClientCount() != 1 {
		select {
		case <-deadline:
			t.Fatalf("ClientCount() = %d, want stalled client dropped", h.ClientCount())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestHub_StatsThrottle(t *testing.T) {
	t.Parallel()

	h := NewHub(1) // one stats update per second, burst 1
	stop := startHub(t, h)
	defer stop()

	c := NewClient(h, nil)
	h.Register <- c

	for i := 0; i < 10; i++ {
		h.BroadcastStats(map[string]int{"tick": i})
	}

	// Exactly one update passes the limiter in this window.
	msg := recvMessage(t, c)
	if msg.Type != MessageTypeStats {
		t.Fatalf("message type = %q", msg.Type)
	}
	select {
	case extra := <-c.send:
		t.Errorf("throttled broadcast leaked an extra message: %+v", extra)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHub_ChartBroadcast(t *testing.T) {
	t.Parallel()

	h := NewHub(0)
	stop := startHub(t, h)
	defer stop()

	c := NewClient(h, nil)
	h.Register <- c

	h.BroadcastChart("hourly", []float64{1, 2, 3})
	msg := recvMessage(t, c)
	if msg.Type != MessageTypeChart {
		t.Fatalf("message type = %q", msg.Type)
	}
	payload, ok := msg.Data.(ChartUpdateData)
	if !ok || payload.Kind != "hourly" {
		t.Errorf("payload = %+v, want chart_update for hourly", msg.Data)
	}
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	t.Parallel()

	h := NewHub(0)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = h.Run(ctx)
		close(done)
	}()

	c := NewClient(h, nil)
	h.Register <- c

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop on cancel")
	}

	select {
	case _, ok := <-c.send:
		if ok {
			t.Error("expected closed send channel after shutdown")
		}
	case <-time.After(time.Second):
		t.Error("send channel not closed after shutdown")
	}
	if got := h.ClientCount(); got != 0 {
		t.Errorf("ClientCount() = %d after shutdown, want 0", got)
	}
}

func TestClient_IDsMonotonic(t *testing.T) {
	t.Parallel()

	h := NewHub(0)
	a := NewClient(h, nil)
	b := NewClient(h, nil)
	if a.ID() >= b.ID() {
		t.Errorf("IDs not monotonic: %d then %d", a.ID(), b.ID())
	}
}
