package mq

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

const defaultPublishTimeout = 5 * time.Second

// Envelope is the wire format of every emitted event.
type Envelope struct {
	Pattern string `json:"pattern"`
	Data    any    `json:"data"`
}

// Publisher is the subset of MQ used by the emitter.
type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// Emitter publishes named events without waiting for the broker. Failures
// are logged and never reach the caller.
type Emitter struct {
	publisher Publisher
	channel   string
	timeout   time.Duration
	logger    *slog.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewEmitter constructs an emitter publishing onto channel.
func NewEmitter(publisher Publisher, channel string, timeout time.Duration, logger *slog.Logger) *Emitter {
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{
		publisher: publisher,
		channel:   channel,
		timeout:   timeout,
		logger:    logger,
	}
}

// Emit encodes payload under pattern and publishes it in the background.
// Events emitted after Close are dropped and logged.
func (e *Emitter) Emit(pattern string, payload any) {
	body, err := json.Marshal(Envelope{Pattern: pattern, Data: payload})
	if err != nil {
		e.logger.Error("encode event failed", "pattern", pattern, "error", err)
		return
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		e.logger.Warn("emitter closed, event dropped", "pattern", pattern, "channel", e.channel)
		return
	}
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()

		id, err := e.publisher.Publish(ctx, e.channel, body, map[string]string{"pattern": pattern})
		if err != nil {
			e.logger.Error("publish event failed", "pattern", pattern, "channel", e.channel, "error", err)
			return
		}
		e.logger.Debug("event published", "pattern", pattern, "channel", e.channel, "message_id", id)
	}()
}

// Close stops accepting events and blocks until all in-flight publishes
// have finished.
func (e *Emitter) Close() error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	e.wg.Wait()
	return nil
}
