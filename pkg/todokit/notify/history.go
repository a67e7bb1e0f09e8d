package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is a delivery's processing outcome in the history.
type Status string

// History record statuses.
const (
	StatusProcessed Status = "processed"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Record is one notification history entry. One is written per delivery,
// so a redelivered event produces multiple records for the same todo.
type Record struct {
	ID          string    `json:"id"`
	TodoID      string    `json:"todoId"`
	EventType   string    `json:"eventType"`
	Status      Status    `json:"status"`
	ProcessedAt time.Time `json:"processedAt"`
	Error       string    `json:"error,omitempty"`
}

// History is an append-only, concurrency-safe log of notification records.
type History struct {
	mu      sync.RWMutex
	records []Record
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{}
}

// Append adds a record, assigning its ID and timestamp.
func (h *History) Append(rec Record) Record {
	rec.ID = uuid.New().String()
	rec.ProcessedAt = time.Now().UTC()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, rec)
	return rec
}

// All returns a copy of every record in append order.
func (h *History) All() []Record {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Record, len(h.records))
	copy(out, h.records)
	return out
}

// ByTodo returns records for one todo in append order.
func (h *History) ByTodo(todoID string) []Record {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []Record
	for _, rec := range h.records {
		if rec.TodoID == todoID {
			out = append(out, rec)
		}
	}
	return out
}

// Len returns the number of records.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.records)
}
