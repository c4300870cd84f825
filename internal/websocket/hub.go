// CamGrid - Traffic Camera Telemetry and Geographic Visualization
// Copyright 2026 OpsLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/opslens/camgrid

package websocket

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/opslens/camgrid/internal/logging"
	"github.com/opslens/camgrid/internal/metrics"
)

// Message types pushed to dashboards.
const (
	MessageTypeMarkers = "markers_update"
	MessageTypeStats   = "stats_update"
	MessageTypeChart   = "chart_update"
	MessageTypePing    = "ping"
	MessageTypePong    = "pong"
)

// Message is one WebSocket frame.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub maintains the set of active clients and broadcasts updates to
// them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex

	// statsLimiter throttles stats_update broadcasts; the delta stream
	// can tick far faster than a dashboard needs repainting.
	statsLimiter *rate.Limiter
}

// NewHub creates a hub. statsPerSecond caps stats_update broadcasts; a
// non-positive value means unthrottled.
func NewHub(statsPerSecond float64) *Hub {
	h := &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
	if statsPerSecond > 0 {
		h.statsLimiter = rate.NewLimiter(rate.Limit(statsPerSecond), 1)
	}
	return h
}

// Run services the hub until the context is canceled, then closes all
// clients. Lifecycle events take priority over broadcasts so the client
// set is consistent before any message fans out.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.closeAllClients()
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.closeAllClients()
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

// Serve implements suture.Service.
func (h *Hub) Serve(ctx context.Context) error {
	return h.Run(ctx)
}

func (h *Hub) String() string { return "websocket-hub" }

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()
	metrics.WebSocketClients.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()
	metrics.WebSocketClients.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client disconnected")
}

// broadcastToClients fans a message out in client-ID order. A client
// whose send buffer is full is dropped rather than blocked on; a stalled
// dashboard must not stall the rest.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- message:
		default:
			metrics.WebSocketDropped.Inc()
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
	}
	if len(toRemove) > 0 {
		metrics.WebSocketClients.Set(float64(len(h.clients)))
		logging.Warn().Int("dropped", len(toRemove)).Msg("dropped slow websocket clients")
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
	}
	metrics.WebSocketClients.Set(0)
	logging.Info().Int("clients_closed", len(clients)).Msg("websocket hub stopped")
}

// BroadcastMarkers pushes a fresh visible marker set to all dashboards.
func (h *Hub) BroadcastMarkers(data interface{}) {
	h.enqueue(Message{Type: MessageTypeMarkers, Data: data})
}

// StatsUpdateData is the payload of a stats_update message.
type StatsUpdateData struct {
	Timestamp string      `json:"timestamp"`
	Summary   interface{} `json:"summary"`
}

// BroadcastStats pushes updated aggregates, subject to the stats rate
// limit. Skipped updates are fine: the next allowed broadcast carries
// the newest state anyway.
func (h *Hub) BroadcastStats(summary interface{}) {
	if h.statsLimiter != nil && !h.statsLimiter.Allow() {
		return
	}
	h.enqueue(Message{
		Type: MessageTypeStats,
		Data: StatsUpdateData{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Summary:   summary,
		},
	})
}

// ChartUpdateData is the payload of a chart_update message.
type ChartUpdateData struct {
	Kind string      `json:"kind"`
	Data interface{} `json:"data"`
}

// BroadcastChart pushes a refreshed chart series to all dashboards.
func (h *Hub) BroadcastChart(kind string, data interface{}) {
	h.enqueue(Message{Type: MessageTypeChart, Data: ChartUpdateData{Kind: kind, Data: data}})
}

func (h *Hub) enqueue(message Message) {
	select {
	case h.broadcast <- message:
	default:
		metrics.WebSocketDropped.Inc()
		logging.Warn().Str("message_type", message.Type).Msg("broadcast channel full, dropping message")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
