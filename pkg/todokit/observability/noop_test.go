package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestNoopMetrics(t *testing.T) {
	m := NoopMetrics{}
	ctx := context.Background()

	// All methods are safe no-ops
	m.RecordMutation(ctx, "create", 10*time.Millisecond, nil)
	m.RecordMutation(ctx, "create", 10*time.Millisecond, errors.New("ignored"))
	m.RecordFailOpen(ctx)
	m.RecordPublishDrop(ctx, "created")
	m.RecordConsumerOutcome(ctx, "processed")
}

func TestNoopSpanManager(t *testing.T) {
	sm := NoopSpanManager{}

	ctx, span := sm.StartMutationSpan(context.Background(), "create", "id-1")
	assert.NotNil(t, ctx)
	assert.NotNil(t, span)
	assert.False(t, span.IsRecording())

	sm.EndSpanWithError(span, nil)
	sm.EndSpanWithError(span, errors.New("ignored"))
	sm.EndSpanWithError(nil, nil)
	sm.AddSpanEvent(ctx, "event", attribute.String("k", "v"))
}
