// Package observability provides structured logging helpers, OpenTelemetry
// metrics, and tracing for todokit.
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// LogMutationStart logs the start of a mutation.
func LogMutationStart(logger *slog.Logger, op, todoID string) {
	if logger == nil {
		return
	}
	logger.Info("mutation starting",
		slog.String("op", op),
		slog.String("todo_id", todoID),
	)
}

// LogMutationComplete logs successful mutation completion.
func LogMutationComplete(logger *slog.Logger, op, todoID string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Info("mutation completed",
		slog.String("op", op),
		slog.String("todo_id", todoID),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogMutationError logs mutation failure.
func LogMutationError(logger *slog.Logger, op, todoID string, err error) {
	if logger == nil {
		return
	}
	logger.Error("mutation failed",
		slog.String("op", op),
		slog.String("todo_id", todoID),
		slog.String("error", err.Error()),
	)
}

// LogStateTransition logs a step of the mutation state machine.
func LogStateTransition(logger *slog.Logger, op, state string) {
	if logger == nil {
		return
	}
	logger.Debug("mutation state",
		slog.String("op", op),
		slog.String("state", state),
	)
}

// LogFailOpen logs a validation call that failed open.
func LogFailOpen(logger *slog.Logger, name string) {
	if logger == nil {
		return
	}
	logger.Warn("validation failed open",
		slog.String("name", name),
	)
}

// LogPublishDegraded logs a publish failure that was swallowed (non-fatal).
func LogPublishDegraded(logger *slog.Logger, eventType, todoID string) {
	if logger == nil {
		return
	}
	logger.Warn("event publish degraded",
		slog.String("event_type", eventType),
		slog.String("todo_id", todoID),
	)
}

// LogConsumerOutcome logs the outcome of handling a delivered event.
func LogConsumerOutcome(logger *slog.Logger, envelopeID, outcome string) {
	if logger == nil {
		return
	}
	logger.Info("event handled",
		slog.String("envelope_id", envelopeID),
		slog.String("outcome", outcome),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
