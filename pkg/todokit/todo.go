package todokit

import (
	"time"

	"github.com/google/uuid"
)

// MaxNameLength is the structural upper bound on a todo name.
// Business rules (minimum length, forbidden words) live in the validate package.
const MaxNameLength = 500

// Todo is a single todo record.
// The ID is assigned at creation and never reassigned. CreatedAt is set once;
// UpdatedAt moves forward on every mutation.
type Todo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewTodo creates a todo with a fresh ID, Completed=false, and equal
// creation and modification timestamps (UTC, second precision).
func NewTodo(name string) *Todo {
	now := time.Now().UTC().Truncate(time.Second)
	return &Todo{
		ID:        uuid.New().String(),
		Name:      name,
		Completed: false,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch advances UpdatedAt. The timestamp never moves backwards, so a
// round-tripped record always satisfies UpdatedAt >= CreatedAt.
func (t *Todo) Touch() {
	now := time.Now().UTC().Truncate(time.Second)
	if now.After(t.UpdatedAt) {
		t.UpdatedAt = now
	}
}

// ToggleCompleted flips the completion flag and touches the record.
func (t *Todo) ToggleCompleted() {
	t.Completed = !t.Completed
	t.Touch()
}

// Clone returns a copy of the todo. Callers hold transient copies only;
// the persisted record is authoritative.
func (t *Todo) Clone() *Todo {
	c := *t
	return &c
}
