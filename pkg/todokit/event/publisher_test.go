package event_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/randalmurphal/todokit/pkg/todokit/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisher_PublishesEnvelope(t *testing.T) {
	bus := event.NewBus(event.DefaultBusConfig)
	defer bus.Close()

	c := newCollector()
	_, err := bus.Subscribe(event.DefaultTopic, c)
	require.NoError(t, err)

	p := event.NewPublisher(bus)
	evt := event.NewTodoEvent(event.TypeCreated, "id-1", "Buy milk", "demo-user", "validation-service", time.Now())

	ok := p.Publish(context.Background(), evt)
	assert.True(t, ok)
	assert.Zero(t, p.Dropped())

	c.waitFor(t, 1)
	env := c.envelopes()[0]
	assert.Equal(t, event.DefaultSource, env.Source)
	assert.Equal(t, event.TypeCreated, env.Type)
	assert.Equal(t, event.DefaultTopic, env.Topic)
	assert.NotEmpty(t, env.ID)

	var got event.TodoEvent
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, evt, got)
}

func TestPublisher_Options(t *testing.T) {
	bus := event.NewBus(event.DefaultBusConfig)
	defer bus.Close()

	c := newCollector()
	_, err := bus.Subscribe("audit", c)
	require.NoError(t, err)

	p := event.NewPublisher(bus,
		event.WithTopic("audit"),
		event.WithSource("admin-service"),
	)

	ok := p.Publish(context.Background(), event.TodoEvent{Type: event.TypeDeleted, TodoID: "id-1"})
	assert.True(t, ok)

	c.waitFor(t, 1)
	env := c.envelopes()[0]
	assert.Equal(t, "audit", env.Topic)
	assert.Equal(t, "admin-service", env.Source)
}

func TestPublisher_ClosedBusCountsDrop(t *testing.T) {
	bus := event.NewBus(event.DefaultBusConfig)
	require.NoError(t, bus.Close())

	p := event.NewPublisher(bus)

	ok := p.Publish(context.Background(), event.TodoEvent{Type: event.TypeCreated, TodoID: "id-1"})
	assert.False(t, ok)
	assert.Equal(t, int64(1), p.Dropped())

	ok = p.Publish(context.Background(), event.TodoEvent{Type: event.TypeUpdated, TodoID: "id-2"})
	assert.False(t, ok)
	assert.Equal(t, int64(2), p.Dropped())
}

func TestPublisher_NoSubscribersStillSucceeds(t *testing.T) {
	bus := event.NewBus(event.DefaultBusConfig)
	defer bus.Close()

	p := event.NewPublisher(bus)

	ok := p.Publish(context.Background(), event.TodoEvent{Type: event.TypeCreated, TodoID: "id-1"})
	assert.True(t, ok)
	assert.Zero(t, p.Dropped())
}
