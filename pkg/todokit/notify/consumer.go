// Package notify consumes todo change events from the bus and records a
// notification history entry per delivery.
//
// Delivery is at-least-once: the same event may arrive more than once, and
// the consumer does not deduplicate, so redeliveries produce duplicate
// history entries. Malformed payloads are acknowledged as terminally failed
// rather than retried, since redelivery cannot fix bad data.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/randalmurphal/todokit/pkg/todokit/event"
	"github.com/randalmurphal/todokit/pkg/todokit/observability"
)

// Outcome classifies how a delivery was handled.
type Outcome int

const (
	// OutcomeProcessed acknowledges the delivery as handled.
	OutcomeProcessed Outcome = iota

	// OutcomeRetry requests redelivery after a transient downstream error.
	OutcomeRetry

	// OutcomeBadInput acknowledges a malformed delivery without retrying:
	// redelivering the same bytes would fail the same way.
	OutcomeBadInput
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeProcessed:
		return "processed"
	case OutcomeRetry:
		return "retry"
	case OutcomeBadInput:
		return "bad_input"
	default:
		return "unknown"
	}
}

// Sink is the downstream action taken for each processed event.
// An error marks the delivery as a transient failure to be retried.
type Sink func(ctx context.Context, evt event.TodoEvent) error

// Consumer handles delivered todo change events.
type Consumer struct {
	history *History
	prefs   *Preferences
	sink    Sink
	logger  *slog.Logger
	metrics observability.MetricsRecorder
}

// ConsumerOption configures a Consumer.
type ConsumerOption func(*Consumer)

// WithSink sets the downstream action. The default sink logs the event.
func WithSink(sink Sink) ConsumerOption {
	return func(c *Consumer) {
		c.sink = sink
	}
}

// WithConsumerLogger sets the logger. Nil disables logging.
func WithConsumerLogger(logger *slog.Logger) ConsumerOption {
	return func(c *Consumer) {
		c.logger = logger
	}
}

// WithConsumerMetrics sets the metrics recorder.
func WithConsumerMetrics(m observability.MetricsRecorder) ConsumerOption {
	return func(c *Consumer) {
		c.metrics = m
	}
}

// WithPreferences makes the consumer consult per-user settings before
// invoking the sink. Events a user has not enabled are acknowledged and
// recorded as skipped, not delivered.
func WithPreferences(p *Preferences) ConsumerOption {
	return func(c *Consumer) {
		c.prefs = p
	}
}

// NewConsumer creates a consumer that appends to the given history.
func NewConsumer(history *History, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		history: history,
		metrics: observability.NoopMetrics{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.sink == nil {
		c.sink = c.logSink
	}
	return c
}

// Handle processes one delivery and reports how it was handled. A history
// record is written every time, including redeliveries.
func (c *Consumer) Handle(ctx context.Context, env event.Envelope) Outcome {
	if len(env.Data) == 0 {
		return c.finish(ctx, env, event.TodoEvent{}, OutcomeBadInput, "empty event payload")
	}

	var evt event.TodoEvent
	if err := json.Unmarshal(env.Data, &evt); err != nil {
		return c.finish(ctx, env, event.TodoEvent{}, OutcomeBadInput,
			fmt.Sprintf("malformed event payload: %v", err))
	}
	if evt.Type == "" || evt.TodoID == "" {
		return c.finish(ctx, env, evt, OutcomeBadInput, "event missing type or todo id")
	}

	if c.prefs != nil && !c.prefs.Enabled(evt.UserID, evt.Type) {
		return c.skip(ctx, env, evt)
	}

	if err := c.sink(ctx, evt); err != nil {
		return c.finish(ctx, env, evt, OutcomeRetry, err.Error())
	}

	return c.finish(ctx, env, evt, OutcomeProcessed, "")
}

// BusHandler adapts the consumer to the bus: retry outcomes become handler
// errors so the bus redelivers; processed and bad-input outcomes
// acknowledge the delivery.
func (c *Consumer) BusHandler() event.Handler {
	return event.HandlerFunc(func(ctx context.Context, env event.Envelope) error {
		if c.Handle(ctx, env) == OutcomeRetry {
			return fmt.Errorf("transient failure handling event %s", env.ID)
		}
		return nil
	})
}

func (c *Consumer) finish(ctx context.Context, env event.Envelope, evt event.TodoEvent, outcome Outcome, errText string) Outcome {
	status := StatusProcessed
	if outcome != OutcomeProcessed {
		status = StatusFailed
	}

	c.history.Append(Record{
		TodoID:    evt.TodoID,
		EventType: evt.Type,
		Status:    status,
		Error:     errText,
	})

	observability.LogConsumerOutcome(c.logger, env.ID, outcome.String())
	c.metrics.RecordConsumerOutcome(ctx, outcome.String())
	return outcome
}

// skip acknowledges a delivery the user has opted out of. The event is
// consumed without invoking the sink; the record keeps the audit trail.
func (c *Consumer) skip(ctx context.Context, env event.Envelope, evt event.TodoEvent) Outcome {
	c.history.Append(Record{
		TodoID:    evt.TodoID,
		EventType: evt.Type,
		Status:    StatusSkipped,
	})

	observability.LogConsumerOutcome(c.logger, env.ID, "skipped")
	c.metrics.RecordConsumerOutcome(ctx, "skipped")
	return OutcomeProcessed
}

// logSink is the default downstream action: log the notification.
func (c *Consumer) logSink(_ context.Context, evt event.TodoEvent) error {
	if c.logger != nil {
		c.logger.Info("todo notification",
			slog.String("event_type", evt.Type),
			slog.String("todo_id", evt.TodoID),
			slog.String("todo_name", evt.TodoName),
			slog.String("user_id", evt.UserID),
		)
	}
	return nil
}
