package event

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
)

// DefaultSource identifies this service as the envelope source.
const DefaultSource = "todo-service"

// Publisher emits todo change events on a best-effort basis.
//
// Publish is called after the triggering mutation has already committed, so
// a publish failure must never surface to the mutation's caller: any error
// is logged, counted, and discarded. There is no retry queue; each event
// gets exactly one attempt.
type Publisher struct {
	bus    Bus
	topic  string
	source string
	logger *slog.Logger

	dropped atomic.Int64
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithTopic overrides the publish topic.
func WithTopic(topic string) PublisherOption {
	return func(p *Publisher) {
		p.topic = topic
	}
}

// WithSource overrides the envelope source.
func WithSource(source string) PublisherOption {
	return func(p *Publisher) {
		p.source = source
	}
}

// WithPublisherLogger sets the logger. Nil disables logging.
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher creates a best-effort publisher over the given bus.
func NewPublisher(bus Bus, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		bus:    bus,
		topic:  DefaultTopic,
		source: DefaultSource,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish emits evt. The return value reports whether the bus accepted the
// event; false means the event was dropped, never that the caller's
// mutation failed.
func (p *Publisher) Publish(ctx context.Context, evt TodoEvent) bool {
	data, err := json.Marshal(evt)
	if err != nil {
		return p.drop(evt, err)
	}

	env := Envelope{
		Source: p.source,
		Type:   evt.Type,
		Topic:  p.topic,
		Data:   data,
	}

	if err := p.bus.Publish(ctx, env); err != nil {
		return p.drop(evt, err)
	}

	if p.logger != nil {
		p.logger.Info("published todo event",
			slog.String("event_type", evt.Type),
			slog.String("todo_id", evt.TodoID),
			slog.String("topic", p.topic),
		)
	}
	return true
}

// Dropped returns how many events have been discarded after a failed
// publish attempt.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

func (p *Publisher) drop(evt TodoEvent, err error) bool {
	p.dropped.Add(1)
	if p.logger != nil {
		p.logger.Error("dropping todo event after failed publish",
			slog.String("event_type", evt.Type),
			slog.String("todo_id", evt.TodoID),
			slog.String("error", err.Error()),
		)
	}
	return false
}
