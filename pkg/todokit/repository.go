package todokit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/randalmurphal/todokit/pkg/todokit/store"
)

const (
	// DefaultKeyPrefix prefixes primary record keys in the state store.
	DefaultKeyPrefix = "todo-"

	// DefaultIndexKey is the well-known key holding the listing index.
	DefaultIndexKey = "todo-index"
)

// indexRecord is the stored shape of the listing index: a versioned set of
// todo IDs. Version increments on every index write.
type indexRecord struct {
	Version int64    `json:"version"`
	IDs     []string `json:"ids"`
}

// indexOp is a request to add or remove an ID from the index.
type indexOp struct {
	id    string
	add   bool
	reply chan error
}

// Repository stores todos in a key-value state store and maintains a
// secondary index of known IDs under a single well-known key.
//
// The index is a shared read-modify-write aggregate. To avoid lost updates
// between concurrent mutations, all index writes in this process funnel
// through a single writer goroutine. Writers in other processes sharing the
// same store still race on the index; listings converge on the next
// successful index write for the affected ID.
//
// Save writes the primary record before the index entry, so FindByID never
// depends on index state. A failure between the two steps leaves the record
// findable by ID but absent from FindAll.
type Repository struct {
	store     store.Store
	logger    *slog.Logger
	keyPrefix string
	indexKey  string

	ops       chan indexOp
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// RepositoryOption configures a Repository.
type RepositoryOption func(*Repository)

// WithRepositoryLogger sets the logger. Nil disables logging.
func WithRepositoryLogger(logger *slog.Logger) RepositoryOption {
	return func(r *Repository) {
		r.logger = logger
	}
}

// WithKeyPrefix overrides the primary record key prefix.
func WithKeyPrefix(prefix string) RepositoryOption {
	return func(r *Repository) {
		r.keyPrefix = prefix
	}
}

// WithIndexKey overrides the index key.
func WithIndexKey(key string) RepositoryOption {
	return func(r *Repository) {
		r.indexKey = key
	}
}

// NewRepository creates a repository over the given store and starts its
// index writer. Call Close to stop the writer.
func NewRepository(s store.Store, opts ...RepositoryOption) *Repository {
	r := &Repository{
		store:     s,
		keyPrefix: DefaultKeyPrefix,
		indexKey:  DefaultIndexKey,
		ops:       make(chan indexOp),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.wg.Add(1)
	go r.indexLoop()

	return r
}

// Save persists the todo under its ID key, then adds the ID to the index.
// Returns a copy of the persisted todo.
func (r *Repository) Save(ctx context.Context, todo *Todo) (*Todo, error) {
	if todo.ID == "" {
		return nil, errors.New("todo has no id")
	}
	if todo.Name == "" || len(todo.Name) > MaxNameLength {
		return nil, fmt.Errorf("todo name must be 1-%d characters", MaxNameLength)
	}

	data, err := json.Marshal(todo)
	if err != nil {
		return nil, fmt.Errorf("encode todo %s: %w", todo.ID, err)
	}

	if err := r.store.Set(ctx, r.key(todo.ID), data); err != nil {
		return nil, fmt.Errorf("save todo %s: %w", todo.ID, err)
	}

	// The primary record is committed at this point. If the index write
	// fails the record stays findable by ID but unlisted until the next
	// successful index write for this ID.
	if err := r.updateIndex(ctx, todo.ID, true); err != nil {
		if r.logger != nil {
			r.logger.Error("index update failed after save",
				slog.String("todo_id", todo.ID),
				slog.String("error", err.Error()),
			)
		}
		return nil, fmt.Errorf("index todo %s: %w", todo.ID, err)
	}

	return todo.Clone(), nil
}

// FindByID returns the todo for id. A missing record is reported as
// (nil, false, nil), not an error. Never consults the index.
func (r *Repository) FindByID(ctx context.Context, id string) (*Todo, bool, error) {
	data, err := r.store.Get(ctx, r.key(id))
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get todo %s: %w", id, err)
	}

	var todo Todo
	if err := json.Unmarshal(data, &todo); err != nil {
		return nil, false, fmt.Errorf("decode todo %s: %w", id, err)
	}
	return &todo, true, nil
}

// FindAll reads the index and resolves each member via FindByID.
// Index entries whose primary record has vanished are stale; they are
// skipped, never failing the whole call.
func (r *Repository) FindAll(ctx context.Context) ([]*Todo, error) {
	idx, err := r.readIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}

	todos := make([]*Todo, 0, len(idx.IDs))
	for _, id := range idx.IDs {
		todo, ok, err := r.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			if r.logger != nil {
				r.logger.Warn("skipping stale index entry",
					slog.String("todo_id", id),
				)
			}
			continue
		}
		todos = append(todos, todo)
	}
	return todos, nil
}

// DeleteByID removes the ID from the index, then deletes the primary record.
// Removing the index entry first means a listing can never reference a
// record deleted moments earlier; a failure between the two steps leaves
// the record findable by ID but unlisted.
func (r *Repository) DeleteByID(ctx context.Context, id string) error {
	if err := r.updateIndex(ctx, id, false); err != nil {
		return fmt.Errorf("deindex todo %s: %w", id, err)
	}
	if err := r.store.Delete(ctx, r.key(id)); err != nil {
		return fmt.Errorf("delete todo %s: %w", id, err)
	}
	return nil
}

// Exists reports whether a todo with the given ID is present.
func (r *Repository) Exists(ctx context.Context, id string) (bool, error) {
	_, ok, err := r.FindByID(ctx, id)
	return ok, err
}

// Count returns the number of listable todos. Derived from FindAll, so it
// shares FindAll's tolerance of stale index entries.
func (r *Repository) Count(ctx context.Context) (int, error) {
	todos, err := r.FindAll(ctx)
	if err != nil {
		return 0, err
	}
	return len(todos), nil
}

// DeleteAll removes every listable todo.
func (r *Repository) DeleteAll(ctx context.Context) error {
	todos, err := r.FindAll(ctx)
	if err != nil {
		return err
	}
	for _, todo := range todos {
		if err := r.DeleteByID(ctx, todo.ID); err != nil {
			return err
		}
	}
	return nil
}

// IndexVersion returns the current index version. Zero means the index has
// never been written.
func (r *Repository) IndexVersion(ctx context.Context) (int64, error) {
	idx, err := r.readIndex(ctx)
	if err != nil {
		return 0, err
	}
	return idx.Version, nil
}

// Close stops the index writer goroutine. The underlying store is not
// closed; the caller owns it.
func (r *Repository) Close() error {
	r.closeOnce.Do(func() {
		close(r.done)
	})
	r.wg.Wait()
	return nil
}

func (r *Repository) key(id string) string {
	return r.keyPrefix + id
}

// updateIndex submits an index mutation to the single writer and waits for
// the result.
func (r *Repository) updateIndex(ctx context.Context, id string, add bool) error {
	op := indexOp{id: id, add: add, reply: make(chan error, 1)}

	select {
	case r.ops <- op:
	case <-r.done:
		return store.ErrStoreClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-op.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// indexLoop serializes all index mutations for this process.
func (r *Repository) indexLoop() {
	defer r.wg.Done()
	for {
		select {
		case op := <-r.ops:
			op.reply <- r.applyIndexOp(op)
		case <-r.done:
			return
		}
	}
}

// applyIndexOp performs one read-modify-write cycle on the index.
// Runs only on the index writer goroutine. A background context is used so
// a caller cancelling mid-write cannot leave a torn index.
func (r *Repository) applyIndexOp(op indexOp) error {
	ctx := context.Background()

	idx, err := r.readIndex(ctx)
	if err != nil {
		return err
	}

	changed := false
	if op.add {
		if !containsID(idx.IDs, op.id) {
			idx.IDs = append(idx.IDs, op.id)
			changed = true
		}
	} else {
		kept := idx.IDs[:0]
		for _, id := range idx.IDs {
			if id == op.id {
				changed = true
				continue
			}
			kept = append(kept, id)
		}
		idx.IDs = kept
	}

	if !changed {
		return nil
	}

	idx.Version++
	sort.Strings(idx.IDs)

	data, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	if err := r.store.Set(ctx, r.indexKey, data); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

// readIndex loads the index. A missing key yields an empty index; a corrupt
// value is treated as empty so one bad write cannot wedge all listings.
func (r *Repository) readIndex(ctx context.Context) (indexRecord, error) {
	data, err := r.store.Get(ctx, r.indexKey)
	if errors.Is(err, store.ErrNotFound) {
		return indexRecord{}, nil
	}
	if err != nil {
		return indexRecord{}, err
	}

	var idx indexRecord
	if err := json.Unmarshal(data, &idx); err != nil {
		if r.logger != nil {
			r.logger.Warn("corrupt index record, treating as empty",
				slog.String("error", err.Error()),
			)
		}
		return indexRecord{}, nil
	}
	return idx, nil
}

func containsID(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}
