// Package bus is a small in-process topic bus with at-least-once dispatch.
//
// It stands in for the managed message broker at the process boundary:
// publishers enqueue raw payloads per topic, subscriber handlers get each
// payload at least once and a handler error requeues the message for
// redelivery. Handlers decide terminal drops by returning nil after
// logging, mirroring the ack contract of a push subscription.
package bus

import (
	"context"
	"sync"
	"time"

	"github.com/pigmint/savings-pipeline/internal/logger"
)

const (
	defaultCountWorkers = 4
	defaultBufferSize   = 256
	defaultRetryDelay   = time.Second
	defaultMaxAttempts  = 5
)

// Handler consumes one published payload. Returning an error requeues the
// message until the attempt budget runs out.
type Handler func(ctx context.Context, data []byte) error

type message struct {
	topic    string
	data     []byte
	attempts int
}

type Bus struct {
	countWorkers int
	maxAttempts  int
	retryDelay   time.Duration
	logger       logger.Logger

	mu    sync.RWMutex
	subs  map[string][]Handler
	queue chan message
}

func New(l logger.Logger) *Bus {
	return &Bus{
		countWorkers: defaultCountWorkers,
		maxAttempts:  defaultMaxAttempts,
		retryDelay:   defaultRetryDelay,
		logger:       l,
		subs:         map[string][]Handler{},
		queue:        make(chan message, defaultBufferSize),
	}
}

// Subscribe registers a handler for a topic. Not safe to call after Run
// started consuming, wire all subscriptions during startup.
func (b *Bus) Subscribe(topic string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[topic] = append(b.subs[topic], h)
}

// Publish enqueues a payload for delivery. Blocks only when the queue is
// full, bounded by the context.
func (b *Bus) Publish(ctx context.Context, topic string, data []byte) error {
	select {
	case b.queue <- message{topic: topic, data: data, attempts: 0}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run starts the worker pool and returns a channel closed once all workers
// stopped after context cancellation. Messages still queued at that point
// are not delivered; the upstream broker redelivers unacknowledged events
// on the next start.
func (b *Bus) Run(ctx context.Context) <-chan struct{} {
	idleStopped := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < b.countWorkers; i++ {
		wg.Add(1)
		go func() {
			b.worker(ctx)
			wg.Done()
		}()
	}

	go func() {
		defer close(idleStopped)
		wg.Wait()
		b.logger.Debug("Bus stopped")
	}()

	return idleStopped
}

func (b *Bus) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case msg := <-b.queue:
			b.dispatch(ctx, msg)
		}
	}
}

func (b *Bus) dispatch(ctx context.Context, msg message) {
	b.mu.RLock()
	handlers := b.subs[msg.topic]
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h(ctx, msg.data); err != nil {
			b.requeue(ctx, msg, err)
			return
		}
	}
}

func (b *Bus) requeue(ctx context.Context, msg message, cause error) {
	msg.attempts++
	if msg.attempts >= b.maxAttempts {
		b.logger.Error("Dropping message after repeated delivery failures",
			"topic", msg.topic, "attempts", msg.attempts, "error", cause)
		return
	}

	b.logger.Warn("Handler failed, scheduling redelivery",
		"topic", msg.topic, "attempt", msg.attempts, "error", cause)

	go func() {
		select {
		case <-ctx.Done():
		case <-time.After(b.retryDelay):
			select {
			case b.queue <- msg:
			case <-ctx.Done():
			}
		}
	}()
}
