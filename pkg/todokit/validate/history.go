package validate

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Record is one validation audit entry. The gateway appends one per
// decision, fail-open decisions included, with a snapshot of the rule set
// when the underlying validator exposes one.
type Record struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Accepted  bool      `json:"result"`
	Message   string    `json:"reason"`
	Degraded  bool      `json:"degraded"`
	Rules     *Rules    `json:"rules,omitempty"`
	CheckedAt time.Time `json:"timestamp"`
}

// History is an append-only, concurrency-safe log of validation records.
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
	rec.CheckedAt = time.Now().UTC()

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

// Rejected returns records for names the validator turned down, in
// append order. Fail-open admissions are not rejections.
func (h *History) Rejected() []Record {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []Record
	for _, rec := range h.records {
		if !rec.Accepted {
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
