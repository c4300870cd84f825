// CamGrid - Traffic Camera Telemetry and Geographic Visualization
// Copyright 2026 OpsLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/opslens/camgrid

package stream

import (
	"context"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/cenkalti/backoff/v4"

	"github.com/opslens/camgrid/internal/logging"
	"github.com/opslens/camgrid/internal/metrics"
	"github.com/opslens/camgrid/internal/models"
)

// Handler receives each successfully parsed delta.
type Handler func(ctx context.Context, delta *models.DeltaEvent)

// Consumer subscribes to the delta subject and feeds parsed events to
// its handler. Connect and Disconnect are idempotent; calling either in
// the wrong state is a no-op, not an error. A dropped subscription is
// retried at a fixed interval until Disconnect or context cancellation.
type Consumer struct {
	sub            message.Subscriber
	subject        string
	reconnectDelay time.Duration
	handler        Handler

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewConsumer creates a consumer over any Watermill subscriber. Tests
// pass a gochannel Pub/Sub; production passes NewNATSSubscriber.
func NewConsumer(sub message.Subscriber, subject string, reconnectDelay time.Duration, handler Handler) *Consumer {
	if reconnectDelay <= 0 {
		reconnectDelay = 5 * time.Second
	}
	return &Consumer{
		sub:            sub,
		subject:        subject,
		reconnectDelay: reconnectDelay,
		handler:        handler,
	}
}

// Connect starts consuming. A second Connect while running is a no-op.
func (c *Consumer) Connect(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.running = true

	go func(done chan struct{}) {
		defer close(done)
		c.consume(runCtx)
	}(c.done)
}

// Disconnect stops consuming and waits for the loop to exit. Safe to
// call repeatedly or before Connect.
func (c *Consumer) Disconnect() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	cancel := c.cancel
	done := c.done
	c.running = false
	c.cancel = nil
	c.done = nil
	c.mu.Unlock()

	cancel()
	<-done
}

// Serve runs the consume loop until the context is canceled, so the
// consumer can sit directly in a supervision tree.
func (c *Consumer) Serve(ctx context.Context) error {
	c.consume(ctx)
	return ctx.Err()
}

func (c *Consumer) String() string { return "delta-consumer" }

// consume subscribes and drains messages, resubscribing at a fixed
// interval when the channel closes underneath it.
func (c *Consumer) consume(ctx context.Context) {
	policy := backoff.WithContext(backoff.NewConstantBackOff(c.reconnectDelay), ctx)

	for {
		var messages <-chan *message.Message
		err := backoff.Retry(func() error {
			var subErr error
			messages, subErr = c.sub.Subscribe(ctx, c.subject)
			if subErr != nil {
				metrics.StreamReconnects.Inc()
				logging.Warn().Err(subErr).Str("subject", c.subject).Msg("delta subscribe failed, retrying")
			}
			return subErr
		}, policy)
		if err != nil {
			return
		}

		logging.Info().Str("subject", c.subject).Msg("delta stream consuming")
		if !c.drain(ctx, messages) {
			return
		}

		// Channel closed while the context is still live: wait out the
		// reconnect delay, then subscribe again.
		metrics.StreamReconnects.Inc()
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.reconnectDelay):
		}
	}
}

// drain processes messages until the channel closes (returns true) or
// the context is canceled (returns false).
func (c *Consumer) drain(ctx context.Context, messages <-chan *message.Message) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case msg, ok := <-messages:
			if !ok {
				return true
			}
			c.handleMessage(ctx, msg)
		}
	}
}

// handleMessage parses and dispatches one delta. Malformed fields are
// skipped individually; only an undecodable envelope discards the whole
// message. Messages are always acked: a delta that cannot parse today
// will not parse on redelivery either.
func (c *Consumer) handleMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	delta, fieldErrs := models.ParseDelta(msg.Payload)
	for _, fe := range fieldErrs {
		metrics.DeltaFieldErrors.Inc()
		logging.Warn().
			Str("message_uuid", msg.UUID).
			Str("field", fe.Field).
			Err(fe.Err).
			Msg("malformed delta field skipped")
	}
	if delta == nil {
		metrics.DeltasDiscarded.WithLabelValues("malformed").Inc()
		return
	}
	c.handler(ctx, delta)
}

// Close disconnects and closes the underlying subscriber.
func (c *Consumer) Close() error {
	c.Disconnect()
	return c.sub.Close()
}
