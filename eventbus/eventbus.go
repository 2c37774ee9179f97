// Package eventbus provides a small in-memory publish/subscribe bus.
// Gatekeep uses it to decouple the verification pipeline from best-effort
// side effects such as audit notification: a handler failure is logged and
// never propagates to the publisher.
package eventbus

import (
	"context"
	"sync"

	"gatekeep/errors"
	"gatekeep/logging"

	"github.com/google/uuid"
)

// Handler processes a published message. Handlers may be called concurrently
// and must not assume ordering across topics.
type Handler func(ctx context.Context, msg *Message) error

// Message is the envelope delivered to subscribers.
type Message struct {
	ID    string
	Topic string
	Data  any
}

// Option configures the bus.
type Option func(*Bus)

// WithWorkerPool sets the number of worker goroutines for processing
// messages. Default is 16. Set to 0 to run each handler on its own
// goroutine.
func WithWorkerPool(size int) Option {
	return func(b *Bus) {
		b.workers = size
	}
}

// New returns a new Bus. ctx is the context handlers run under; it should
// outlive the requests that publish to the bus, since delivery is
// asynchronous.
func New(ctx context.Context, opts ...Option) *Bus {
	b := &Bus{
		subscriberCtx: logging.With(ctx, logging.FromContext(ctx).Named("eventbus")),
		workers:       16,
		jobs:          make(chan job, 256),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type job struct {
	handler Handler
	msg     *Message
}

// Bus is an in-memory broadcast bus backed by a worker pool.
type Bus struct {
	subscribers   map[string][]Handler
	subscriberCtx context.Context

	mu sync.Mutex     // Protects subscribers and started.
	wg sync.WaitGroup // Tracks in-flight handlers.

	jobs    chan job
	workers int
	started bool
	closed  bool
}

// Subscribe registers a handler for a topic.
func (b *Bus) Subscribe(topic string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subscribers == nil {
		b.subscribers = make(map[string][]Handler)
	}
	b.subscribers[topic] = append(b.subscribers[topic], handler)
}

// Publish sends a message to all subscribers of the topic. Delivery is
// asynchronous; Publish never blocks on handler execution and never returns
// handler errors.
func (b *Bus) Publish(topic string, data any) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		logging.Warnw(b.subscriberCtx, "publish after shutdown dropped", "topic", topic)
		return
	}

	// Workers start lazily on first publish.
	if !b.started {
		b.startWorkers()
		b.started = true
	}

	handlers := b.subscribers[topic]
	if len(handlers) == 0 {
		return
	}

	for _, handler := range handlers {
		msg := &Message{
			ID:    uuid.NewString(),
			Topic: topic,
			Data:  data,
		}
		b.wg.Add(1)
		if b.workers == 0 {
			go b.execute(handler, msg)
		} else {
			b.jobs <- job{handler: handler, msg: msg}
		}
	}
}

func (b *Bus) startWorkers() {
	for range b.workers {
		go func() {
			for j := range b.jobs {
				b.execute(j.handler, j.msg)
			}
		}()
	}
}

// Shutdown stops accepting messages and waits for in-flight handlers, up to
// the context deadline.
func (b *Bus) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		if b.started && b.workers > 0 {
			close(b.jobs)
		}
	}
	b.mu.Unlock()

	return b.Wait(ctx)
}

// Wait blocks until all pending messages are processed or the context ends.
func (b *Bus) Wait(ctx context.Context) error {
	c := make(chan struct{})
	go func() {
		defer close(c)
		b.wg.Wait()
	}()
	select {
	case <-c:
		return nil
	case <-ctx.Done():
		return errors.New("eventbus: timeout waiting for handlers to finish")
	}
}

func (b *Bus) execute(handler Handler, msg *Message) {
	ctx := b.subscriberCtx
	defer func() {
		if r := recover(); r != nil {
			err := errors.Wrap(r, 2)
			logging.Errorw(ctx, "eventbus: recovered from panic",
				"error", r, "error.stack", err.MinimalStack(0, 5), "message_id", msg.ID)
		}
		b.wg.Done()
	}()
	if err := handler(ctx, msg); err != nil {
		logging.Errorw(ctx, "eventbus: handler error",
			"error", err, "topic", msg.Topic, "message_id", msg.ID)
	}
}
