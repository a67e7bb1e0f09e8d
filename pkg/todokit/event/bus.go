package event

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Bus provides topic-based publish/subscribe distribution.
type Bus interface {
	// Publish sends an envelope to all subscribers of its topic.
	// An envelope with an empty ID gets one assigned.
	Publish(ctx context.Context, env Envelope) error

	// Subscribe registers a handler for a topic.
	Subscribe(topic string, handler Handler) (Subscription, error)

	// Close shuts down the bus and all subscriptions.
	Close() error
}

// Handler processes a delivered envelope. Returning an error requests
// redelivery; returning nil acknowledges the delivery.
type Handler interface {
	Handle(ctx context.Context, env Envelope) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, env Envelope) error

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, env Envelope) error {
	return f(ctx, env)
}

// Subscription represents an active subscription.
type Subscription interface {
	// Unsubscribe removes the subscription.
	Unsubscribe()

	// Pause temporarily stops delivery. Envelopes published while paused
	// are held until Resume, not lost.
	Pause()

	// Resume continues delivery after pause.
	Resume()

	// IsPaused returns true if the subscription is paused.
	IsPaused() bool
}

// BusConfig configures bus behavior.
type BusConfig struct {
	// BufferSize is the channel buffer size per subscription.
	// Default: 256
	BufferSize int

	// MaxRedeliveries is how many times a failed delivery is retried
	// before the envelope is dropped. Default: 5
	MaxRedeliveries int

	// NonBlocking makes Publish non-blocking (drops envelopes if a
	// subscription's buffer is full). Default: false (blocking)
	NonBlocking bool

	// OnDrop is called when an envelope is dropped: buffer full in
	// non-blocking mode, or redelivery budget exhausted.
	OnDrop func(env Envelope, subscriberID string)

	// OnError is called each time a handler returns an error.
	OnError func(env Envelope, subscriberID string, err error)
}

// DefaultBusConfig provides reasonable defaults.
var DefaultBusConfig = BusConfig{
	BufferSize:      256,
	MaxRedeliveries: 5,
}

// LocalBus is an in-memory bus with at-least-once delivery: a handler
// error requeues the envelope for redelivery, so handlers must tolerate
// duplicates.
type LocalBus struct {
	config BusConfig

	mu      sync.RWMutex
	byTopic map[string]map[string]*subscription

	nextID  atomic.Int64
	closed  atomic.Bool
	closeCh chan struct{}
}

// NewBus creates a new local bus.
func NewBus(config BusConfig) *LocalBus {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultBusConfig.BufferSize
	}
	if config.MaxRedeliveries <= 0 {
		config.MaxRedeliveries = DefaultBusConfig.MaxRedeliveries
	}

	return &LocalBus{
		config:  config,
		byTopic: make(map[string]map[string]*subscription),
		closeCh: make(chan struct{}),
	}
}

// delivery carries an envelope plus its attempt count.
type delivery struct {
	env     Envelope
	attempt int
}

// subscription is an internal subscription implementation.
type subscription struct {
	id         string
	topic      string
	handler    Handler
	deliveries chan delivery
	done       chan struct{}
	doneOnce   sync.Once
	bus        *LocalBus

	// pauseMu guards resume; resume is non-nil while paused and is closed
	// by Resume to wake the processing goroutine.
	pauseMu sync.Mutex
	resume  chan struct{}
}

// Publish implements Bus.
func (b *LocalBus) Publish(ctx context.Context, env Envelope) error {
	if b.closed.Load() {
		return fmt.Errorf("publish to %s: bus is closed", env.Topic)
	}
	if env.ID == "" {
		env.ID = uuid.New().String()
	}

	b.mu.RLock()
	subs := make([]*subscription, 0, len(b.byTopic[env.Topic]))
	for _, sub := range b.byTopic[env.Topic] {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		d := delivery{env: env, attempt: 1}

		if b.config.NonBlocking {
			select {
			case sub.deliveries <- d:
			default:
				// Buffer full - drop envelope
				if b.config.OnDrop != nil {
					b.config.OnDrop(env, sub.id)
				}
			}
		} else {
			select {
			case sub.deliveries <- d:
			case <-ctx.Done():
				return ctx.Err()
			case <-b.closeCh:
				return fmt.Errorf("publish to %s: bus closed during publish", env.Topic)
			}
		}
	}

	return nil
}

// Subscribe implements Bus.
func (b *LocalBus) Subscribe(topic string, handler Handler) (Subscription, error) {
	if b.closed.Load() {
		return nil, fmt.Errorf("subscribe to %s: bus is closed", topic)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &subscription{
		id:         strconv.FormatInt(b.nextID.Add(1), 10),
		topic:      topic,
		handler:    handler,
		deliveries: make(chan delivery, b.config.BufferSize),
		done:       make(chan struct{}),
		bus:        b,
	}

	if b.byTopic[topic] == nil {
		b.byTopic[topic] = make(map[string]*subscription)
	}
	b.byTopic[topic][sub.id] = sub

	go sub.process()

	return sub, nil
}

// Close implements Bus.
func (b *LocalBus) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil // Already closed
	}

	close(b.closeCh)

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, subs := range b.byTopic {
		for _, sub := range subs {
			sub.close()
		}
	}

	return nil
}

// process handles deliveries for a subscription, requeueing failures
// until the redelivery budget runs out. While paused it waits for Resume
// before pulling the next delivery, so paused envelopes stay queued.
func (s *subscription) process() {
	for {
		select {
		case d := <-s.deliveries:
			// Checked after the pull so a pause taking effect while this
			// goroutine was blocked on the channel still holds this
			// delivery instead of handling it.
			if wait := s.resumeCh(); wait != nil {
				select {
				case <-wait:
				case <-s.done:
					return
				}
			}

			err := s.handler.Handle(context.Background(), d.env)
			if err == nil {
				continue
			}

			if s.bus.config.OnError != nil {
				s.bus.config.OnError(d.env, s.id, err)
			}

			if d.attempt >= s.bus.config.MaxRedeliveries {
				if s.bus.config.OnDrop != nil {
					s.bus.config.OnDrop(d.env, s.id)
				}
				continue
			}
			s.requeue(delivery{env: d.env, attempt: d.attempt + 1})

		case <-s.done:
			return
		}
	}
}

// requeue puts a delivery back on the subscription's own queue. The send
// must not block: this goroutine is the queue's only consumer.
func (s *subscription) requeue(d delivery) {
	select {
	case s.deliveries <- d:
	default:
		if s.bus.config.OnDrop != nil {
			s.bus.config.OnDrop(d.env, s.id)
		}
	}
}

// close stops the processing goroutine. Safe to call more than once:
// Unsubscribe after Close (or vice versa) must not close done twice.
func (s *subscription) close() {
	s.doneOnce.Do(func() {
		close(s.done)
	})
}

// Unsubscribe removes the subscription.
func (s *subscription) Unsubscribe() {
	s.bus.mu.Lock()
	if subs, ok := s.bus.byTopic[s.topic]; ok {
		delete(subs, s.id)
	}
	s.bus.mu.Unlock()

	s.close()
}

// Pause temporarily stops delivery. Envelopes published while paused are
// held on the subscription's queue until Resume.
func (s *subscription) Pause() {
	s.pauseMu.Lock()
	defer s.pauseMu.Unlock()
	if s.resume == nil {
		s.resume = make(chan struct{})
	}
}

// Resume continues delivery after pause.
func (s *subscription) Resume() {
	s.pauseMu.Lock()
	defer s.pauseMu.Unlock()
	if s.resume != nil {
		close(s.resume)
		s.resume = nil
	}
}

// IsPaused returns true if the subscription is paused.
func (s *subscription) IsPaused() bool {
	s.pauseMu.Lock()
	defer s.pauseMu.Unlock()
	return s.resume != nil
}

// resumeCh returns the channel Resume will close, or nil when not paused.
func (s *subscription) resumeCh() chan struct{} {
	s.pauseMu.Lock()
	defer s.pauseMu.Unlock()
	return s.resume
}
