/*
Package todokit implements a record-coordination core for todo entities:
a repository over an external key-value store with a secondary listing
index, composed with a validation gateway, a best-effort event publisher,
and an at-least-once notification consumer.

# Overview

Todos are stored one record per entity under a prefixed key; a single
well-known index key holds the set of known IDs so the store needs no
native query capability. Mutations flow through Service as a linear
sequence: validate the name, persist the record, update the index, publish
a change event. Each dependency failure has an explicit policy:

  - Validation is advisory. An unreachable validator fails open: the name
    is admitted and the degraded path recorded (validate.Decision.Degraded).
  - Publication is best-effort. The mutation has committed before publish
    is attempted; a publish failure is counted and discarded, never
    surfaced to the caller.
  - Storage failures, rejected names, and missing records surface as
    discriminable error types: StorageError, InvalidInputError,
    NotFoundError.

# Consistency model

The index is a shared read-modify-write aggregate with no distributed
lock. Within a process, Repository serializes all index mutations through
a single writer goroutine; across processes sharing one store, concurrent
index writes can still lose updates. FindByID never depends on the index,
and FindAll skips index entries whose record has vanished, so listings
converge rather than fail.

Primary records have no optimistic-concurrency token: concurrent saves of
the same ID are last-writer-wins.

# Basic Usage

	st := store.NewMemoryStore()
	repo := todokit.NewRepository(st)
	defer repo.Close()

	bus := event.NewBus(event.DefaultBusConfig)
	defer bus.Close()

	gateway := validate.NewGateway(validate.NewRuleValidator(validate.DefaultRules()))
	publisher := event.NewPublisher(bus)

	svc := todokit.NewService(repo, gateway, publisher)
	todo, err := svc.Create(ctx, "Buy milk")

Consumers subscribe on the same bus and must tolerate redelivery; see the
notify package.
*/
package todokit
