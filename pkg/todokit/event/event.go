// Package event provides pub/sub primitives for todo change events: the
// bus port, an in-memory at-least-once bus, and a best-effort publisher.
package event

import (
	"encoding/json"
	"time"
)

// Event types published on a todo mutation.
const (
	TypeCreated = "created"
	TypeUpdated = "updated"
	TypeDeleted = "deleted"
)

// DefaultTopic is the topic todo change events are published to.
const DefaultTopic = "todo-events"

// TimeLayout is the wire format for event timestamps: ISO-8601 at second
// precision, matching what downstream consumers parse.
const TimeLayout = "2006-01-02T15:04:05"

// TodoEvent is the change-event payload emitted once per successful
// mutation. Consumers may receive it more than once.
type TodoEvent struct {
	Type        string `json:"eventType"`
	TodoID      string `json:"todoId"`
	TodoName    string `json:"todoName"`
	Timestamp   string `json:"timestamp"`
	UserID      string `json:"userId"`
	ValidatedBy string `json:"validatedBy"`
}

// NewTodoEvent builds a change event for a mutation that just committed.
func NewTodoEvent(eventType, todoID, todoName, userID, validatedBy string, at time.Time) TodoEvent {
	return TodoEvent{
		Type:        eventType,
		TodoID:      todoID,
		TodoName:    todoName,
		Timestamp:   at.UTC().Format(TimeLayout),
		UserID:      userID,
		ValidatedBy: validatedBy,
	}
}

// Envelope wraps a payload for bus delivery with event metadata, the shape
// a sidecar-style pubsub hands to subscribers.
type Envelope struct {
	ID     string          `json:"id"`
	Source string          `json:"source"`
	Type   string          `json:"type"`
	Topic  string          `json:"topic"`
	Data   json.RawMessage `json:"data"`
}
