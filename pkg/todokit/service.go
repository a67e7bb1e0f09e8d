package todokit

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/randalmurphal/todokit/pkg/todokit/event"
	"github.com/randalmurphal/todokit/pkg/todokit/observability"
	"github.com/randalmurphal/todokit/pkg/todokit/validate"
)

// mutationState names a step of the linear mutation state machine. Every
// mutation walks forward through a subset of these; there are no back
// edges. Terminal outcomes are the error taxonomy: nil for done,
// InvalidInputError for rejected, NotFoundError and StorageError for the
// failure states.
type mutationState int

const (
	stateValidating mutationState = iota
	statePersisting
	statePublishing
)

// String returns the state name.
func (s mutationState) String() string {
	switch s {
	case stateValidating:
		return "validating"
	case statePersisting:
		return "persisting"
	case statePublishing:
		return "publishing"
	default:
		return "unknown"
	}
}

// ValidationGateway is the service's view of name validation. It never
// fails: an unreachable validator produces an accepted, degraded decision.
type ValidationGateway interface {
	Validate(ctx context.Context, name string) validate.Decision
}

// EventPublisher is the service's view of change-event publication.
// The return value reports delivery, never an error: publish happens after
// the mutation has committed and must not affect its result.
type EventPublisher interface {
	Publish(ctx context.Context, evt event.TodoEvent) bool
}

// Defaults for event attribution.
const (
	DefaultActor     = "demo-user"
	DefaultValidator = "validation-service"
)

// Service orchestrates todo mutations: validate, persist, index, publish.
//
// Each mutation is a linear sequence of awaited calls. Validation rejection,
// a missing record, and a storage failure are distinct terminal outcomes; a
// publish failure is not an outcome at all, the mutation has already
// committed by then.
type Service struct {
	repo      *Repository
	gateway   ValidationGateway
	publisher EventPublisher

	actor     string
	validator string
	clock     func() time.Time
	logger    *slog.Logger
	metrics   observability.MetricsRecorder
	spans     observability.SpanManager
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger. Nil disables logging.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m observability.MetricsRecorder) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithSpans sets the span manager.
func WithSpans(sm observability.SpanManager) ServiceOption {
	return func(s *Service) {
		s.spans = sm
	}
}

// WithActor sets the actor recorded on change events.
func WithActor(actor string) ServiceOption {
	return func(s *Service) {
		s.actor = actor
	}
}

// WithValidatorIdentity sets the validator identity recorded on change events.
func WithValidatorIdentity(name string) ServiceOption {
	return func(s *Service) {
		s.validator = name
	}
}

// WithClock sets the time source used for event timestamps. For testing.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *Service) {
		s.clock = clock
	}
}

// NewService wires the coordination service.
func NewService(repo *Repository, gateway ValidationGateway, publisher EventPublisher, opts ...ServiceOption) *Service {
	s := &Service{
		repo:      repo,
		gateway:   gateway,
		publisher: publisher,
		actor:     DefaultActor,
		validator: DefaultValidator,
		clock:     time.Now,
		metrics:   observability.NoopMetrics{},
		spans:     observability.NoopSpanManager{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the name, persists a new todo, and publishes a created
// event. A rejected name returns InvalidInputError without touching
// storage.
func (s *Service) Create(ctx context.Context, name string) (todo *Todo, err error) {
	ctx, span := s.spans.StartMutationSpan(ctx, "create", "")
	done := observability.TimedOperation()
	defer func() {
		s.metrics.RecordMutation(ctx, "create", time.Duration(done())*time.Millisecond, err)
		s.spans.EndSpanWithError(span, err)
	}()

	observability.LogMutationStart(s.logger, "create", "")

	s.transition(ctx, "create", stateValidating)
	dec := s.gateway.Validate(ctx, name)
	if dec.Degraded {
		observability.LogFailOpen(s.logger, name)
		s.metrics.RecordFailOpen(ctx)
	}
	if !dec.Accepted {
		err = &InvalidInputError{Reason: dec.Message}
		observability.LogMutationError(s.logger, "create", "", err)
		return nil, err
	}

	s.transition(ctx, "create", statePersisting)
	todo, err = s.repo.Save(ctx, NewTodo(name))
	if err != nil {
		err = &StorageError{Op: "create", Err: err}
		observability.LogMutationError(s.logger, "create", "", err)
		return nil, err
	}

	s.transition(ctx, "create", statePublishing)
	s.publish(ctx, event.TypeCreated, todo)

	observability.LogMutationComplete(s.logger, "create", todo.ID, done())
	return todo, nil
}

// Get returns the todo for id, or NotFoundError.
func (s *Service) Get(ctx context.Context, id string) (*Todo, error) {
	todo, ok, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, &StorageError{Op: "get", Err: err}
	}
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return todo, nil
}

// List returns all listable todos.
func (s *Service) List(ctx context.Context) ([]*Todo, error) {
	todos, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}
	return todos, nil
}

// Count returns the number of listable todos.
func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, &StorageError{Op: "count", Err: err}
	}
	return n, nil
}

// Update toggles the completion flag of an existing todo and publishes an
// updated event. A missing id short-circuits to NotFoundError before any
// write. The name is unchanged, so no validation happens.
func (s *Service) Update(ctx context.Context, id string) (todo *Todo, err error) {
	ctx, span := s.spans.StartMutationSpan(ctx, "update", id)
	done := observability.TimedOperation()
	defer func() {
		s.metrics.RecordMutation(ctx, "update", time.Duration(done())*time.Millisecond, err)
		s.spans.EndSpanWithError(span, err)
	}()

	observability.LogMutationStart(s.logger, "update", id)

	existing, ok, ferr := s.repo.FindByID(ctx, id)
	if ferr != nil {
		err = &StorageError{Op: "update", Err: ferr}
		return nil, err
	}
	if !ok {
		err = &NotFoundError{ID: id}
		return nil, err
	}

	existing.ToggleCompleted()

	s.transition(ctx, "update", statePersisting)
	todo, err = s.repo.Save(ctx, existing)
	if err != nil {
		err = &StorageError{Op: "update", Err: err}
		observability.LogMutationError(s.logger, "update", id, err)
		return nil, err
	}

	s.transition(ctx, "update", statePublishing)
	s.publish(ctx, event.TypeUpdated, todo)

	observability.LogMutationComplete(s.logger, "update", id, done())
	return todo, nil
}

// Rename changes a todo's name. The new name passes through validation
// like a create; a missing id short-circuits to NotFoundError before
// validation.
func (s *Service) Rename(ctx context.Context, id, name string) (todo *Todo, err error) {
	ctx, span := s.spans.StartMutationSpan(ctx, "rename", id)
	done := observability.TimedOperation()
	defer func() {
		s.metrics.RecordMutation(ctx, "rename", time.Duration(done())*time.Millisecond, err)
		s.spans.EndSpanWithError(span, err)
	}()

	observability.LogMutationStart(s.logger, "rename", id)

	existing, ok, ferr := s.repo.FindByID(ctx, id)
	if ferr != nil {
		err = &StorageError{Op: "rename", Err: ferr}
		return nil, err
	}
	if !ok {
		err = &NotFoundError{ID: id}
		return nil, err
	}

	s.transition(ctx, "rename", stateValidating)
	dec := s.gateway.Validate(ctx, name)
	if dec.Degraded {
		observability.LogFailOpen(s.logger, name)
		s.metrics.RecordFailOpen(ctx)
	}
	if !dec.Accepted {
		err = &InvalidInputError{Reason: dec.Message}
		observability.LogMutationError(s.logger, "rename", id, err)
		return nil, err
	}

	existing.Name = name
	existing.Touch()

	s.transition(ctx, "rename", statePersisting)
	todo, err = s.repo.Save(ctx, existing)
	if err != nil {
		err = &StorageError{Op: "rename", Err: err}
		observability.LogMutationError(s.logger, "rename", id, err)
		return nil, err
	}

	s.transition(ctx, "rename", statePublishing)
	s.publish(ctx, event.TypeUpdated, todo)

	observability.LogMutationComplete(s.logger, "rename", id, done())
	return todo, nil
}

// Delete removes a todo and publishes a deleted event. A missing id
// short-circuits to NotFoundError before any write.
func (s *Service) Delete(ctx context.Context, id string) (err error) {
	ctx, span := s.spans.StartMutationSpan(ctx, "delete", id)
	done := observability.TimedOperation()
	defer func() {
		s.metrics.RecordMutation(ctx, "delete", time.Duration(done())*time.Millisecond, err)
		s.spans.EndSpanWithError(span, err)
	}()

	observability.LogMutationStart(s.logger, "delete", id)

	existing, ok, ferr := s.repo.FindByID(ctx, id)
	if ferr != nil {
		err = &StorageError{Op: "delete", Err: ferr}
		return err
	}
	if !ok {
		err = &NotFoundError{ID: id}
		return err
	}

	s.transition(ctx, "delete", statePersisting)
	if derr := s.repo.DeleteByID(ctx, id); derr != nil {
		err = &StorageError{Op: "delete", Err: derr}
		observability.LogMutationError(s.logger, "delete", id, err)
		return err
	}

	s.transition(ctx, "delete", statePublishing)
	s.publish(ctx, event.TypeDeleted, existing)

	observability.LogMutationComplete(s.logger, "delete", id, done())
	return nil
}

// publish emits a change event for a committed mutation. Failures are
// recorded and discarded; the mutation's result is already decided.
func (s *Service) publish(ctx context.Context, eventType string, todo *Todo) {
	evt := event.NewTodoEvent(eventType, todo.ID, todo.Name, s.actor, s.validator, s.clock())
	if !s.publisher.Publish(ctx, evt) {
		observability.LogPublishDegraded(s.logger, eventType, todo.ID)
		s.metrics.RecordPublishDrop(ctx, eventType)
	}
}

func (s *Service) transition(ctx context.Context, op string, state mutationState) {
	observability.LogStateTransition(s.logger, op, state.String())
	s.spans.AddSpanEvent(ctx, "state."+state.String(),
		attribute.String("todo.op", op),
	)
}
