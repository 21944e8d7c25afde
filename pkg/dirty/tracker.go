package dirty

import (
	"context"
	"fmt"
	"sync"

	"github.com/driftkit/drift/pkg/lock"
)

// Transition describes one processed state machine event for an entity. From and
// To are equal when the event settled without moving the entity, which still gets
// reported so observers watching a relationship (for example the commit time
// synthetic notifications) see it. Relationship is the name of the relationship
// whose change triggered the event, or empty for lifecycle events.
type Transition struct {
	EntityUUID   string `json:"entity_uuid"`
	From         State  `json:"-"`
	To           State  `json:"-"`
	FromState    string `json:"from"`
	ToState      string `json:"to"`
	Relationship string `json:"relationship,omitempty"`
}

type Observer func(Transition)

// entityState is the auxiliary state the tracker keeps per entity: the entity's
// position in the commit state machine and the last clean snapshot of each
// dependent relationship. It is owned exclusively by the tracker and keyed by
// entity UUID; the entity record itself never carries any of this.
type entityState struct {
	uuid       string
	entityType string
	state      State
	snapshots  map[string]Value
}

// Tracker is the facade over the whole engine: snapshot store, dirty evaluator,
// change notifier, state machine, and rollback. Every public entry point
// serializes on the entity's lock, so per entity work never interleaves. Walks
// into related entities (dirty evaluation, rollback cascades) happen under the
// originating entity's lock only, which is safe under the cooperative single
// writer model the store guarantees.
type Tracker struct {
	schema *Schema
	graph  Graph
	locker *lock.IdLocker

	mu        sync.Mutex
	entities  map[string]*entityState
	observers []Observer
}

func NewTracker(schema *Schema, graph Graph) *Tracker {
	return &Tracker{
		schema:   schema,
		graph:    graph,
		locker:   lock.NewIdLocker(),
		entities: make(map[string]*entityState),
	}
}

// Subscribe registers an observer that is called synchronously, in mutation
// order, for every processed state machine event. Observers run while the
// entity's lock is held, so they must not call back into the tracker; hand the
// transition off to a channel or queue instead.
func (t *Tracker) Subscribe(o Observer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers = append(t.observers, o)
}

// StateOf returns the entity's current leaf state, or StateUnknown when the
// tracker holds no auxiliary state for it. Like every other entry point it
// serializes on the entity's lock, so a read never observes a half-applied
// event.
func (t *Tracker) StateOf(uuid string) State {
	state := StateUnknown
	_ = t.locker.WithLock(uuid, func() error {
		t.mu.Lock()
		defer t.mu.Unlock()
		if es, ok := t.entities[uuid]; ok {
			state = es.state
		}
		return nil
	})
	return state
}

// Evict drops the entity's auxiliary state. The store calls this when it evicts
// or destroys an entity; nothing may be working against the entity at that point.
func (t *Tracker) Evict(uuid string) {
	_ = t.locker.WithLock(uuid, func() error {
		t.mu.Lock()
		delete(t.entities, uuid)
		t.mu.Unlock()
		return nil
	})
	t.locker.Forget(uuid)
}

// EntityLoaded is the load-completed hook. It captures the dependent relationship
// baseline and settles the entity into saved. If the entity is already dirty at
// that point (dependent relations can be pre-populated in a dirty state) it moves
// straight to updated.uncommitted instead of staying clean. A capture failure is
// returned to the caller and leaves both state and snapshots untouched.
func (t *Tracker) EntityLoaded(ctx context.Context, uuid string) error {
	return t.locker.WithLock(uuid, func() error {
		es, err := t.stateFor(uuid)
		if err != nil {
			return err
		}

		if err := t.captureLocked(ctx, es); err != nil {
			return err
		}

		t.setState(es, StateSaved, "")

		dirty, err := t.isDirtyLocked(ctx, uuid, map[string]bool{})
		if err != nil {
			return err
		}
		if dirty {
			t.apply(es, eventBecameDirty, "")
		}

		return nil
	})
}

// EntityCreated tracks a locally instantiated entity. It has no baseline until
// its first successful commit.
func (t *Tracker) EntityCreated(uuid string) error {
	return t.locker.WithLock(uuid, func() error {
		es, err := t.stateFor(uuid)
		if err != nil {
			return err
		}

		t.setState(es, StateCreatedUncommitted, "")
		return nil
	})
}

// EntityDeleted marks the entity for deletion. Relationship churn no longer moves
// it out of the deletion lifecycle.
func (t *Tracker) EntityDeleted(uuid string) error {
	return t.locker.WithLock(uuid, func() error {
		es, err := t.stateFor(uuid)
		if err != nil {
			return err
		}

		t.apply(es, eventDeleted, "")
		return nil
	})
}

// CommitStarted moves the entity into the matching in-flight state. It returns an
// error when the entity isn't in a state a commit can start from.
func (t *Tracker) CommitStarted(uuid string) error {
	return t.locker.WithLock(uuid, func() error {
		es, err := t.stateFor(uuid)
		if err != nil {
			return err
		}

		if !t.apply(es, eventCommitStarted, "") {
			return fmt.Errorf("cannot start a commit for entity %s in state %s", uuid, es.state)
		}
		return nil
	})
}

// CommitSucceeded is the adapter-did-commit hook. It re-snapshots every dependent
// relationship against the just persisted values, settles the entity, and then
// emits a synthetic notification for every collection-valued dependent
// relationship so observers watching for commit time changes hear about it. A
// resolution failure during the re-snapshot is returned to the caller and leaves
// the entity in-flight with its previous snapshots intact.
func (t *Tracker) CommitSucceeded(ctx context.Context, uuid string) error {
	return t.locker.WithLock(uuid, func() error {
		es, err := t.stateFor(uuid)
		if err != nil {
			return err
		}

		if !es.state.Deleted() {
			if err := t.captureLocked(ctx, es); err != nil {
				return err
			}
		}

		t.apply(es, eventCommitSucceeded, "")

		for _, d := range t.schema.DependentRelationships(es.entityType) {
			if !d.ToMany {
				continue
			}
			t.notifyObservers(transitionFor(es, es.state, d.Name))
		}

		return nil
	})
}

// CommitFailed moves the entity into the matching invalid state. Local changes
// are kept and a later commit can retry.
func (t *Tracker) CommitFailed(uuid string) error {
	return t.locker.WithLock(uuid, func() error {
		es, err := t.stateFor(uuid)
		if err != nil {
			return err
		}

		t.apply(es, eventCommitFailed, "")
		return nil
	})
}

// DeleteCommitted confirms a deletion. The entity ends in the terminal
// deleted.saved state; callers typically follow up with Evict.
func (t *Tracker) DeleteCommitted(uuid string) error {
	return t.locker.WithLock(uuid, func() error {
		es, err := t.stateFor(uuid)
		if err != nil {
			return err
		}

		t.apply(es, eventDeleteCommitted, "")
		return nil
	})
}

// stateFor returns the entity's auxiliary state, creating it on first access.
// Creation resolves the entity's type through the graph so descriptor lookups
// work from then on.
func (t *Tracker) stateFor(uuid string) (*entityState, error) {
	t.mu.Lock()
	es, ok := t.entities[uuid]
	t.mu.Unlock()
	if ok {
		return es, nil
	}

	entityType, err := t.graph.EntityType(uuid)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchEntity, uuid)
	}

	es = &entityState{
		uuid:       uuid,
		entityType: entityType,
		state:      StateUnknown,
		snapshots:  make(map[string]Value),
	}

	t.mu.Lock()
	// Another caller may have created it while we were resolving the type.
	if existing, ok := t.entities[uuid]; ok {
		es = existing
	} else {
		t.entities[uuid] = es
	}
	t.mu.Unlock()

	return es, nil
}

// apply runs one event through the transition table. It returns false, and does
// nothing, when the (state, event) pair has no transition. That silence is
// deliberate: change events arriving while the entity is in-flight, invalid, or
// deleted are specified as no-ops.
func (t *Tracker) apply(es *entityState, ev event, relationship string) bool {
	next, ok := nextState(es.state, ev)
	if !ok {
		return false
	}

	from := es.state
	es.state = next
	t.notifyObservers(Transition{
		EntityUUID:   es.uuid,
		From:         from,
		To:           next,
		FromState:    from.String(),
		ToState:      next.String(),
		Relationship: relationship,
	})
	return true
}

// setState forces a lifecycle state directly, bypassing the table. Only the load
// and create hooks use it.
func (t *Tracker) setState(es *entityState, s State, relationship string) {
	from := es.state
	es.state = s
	t.notifyObservers(Transition{
		EntityUUID:   es.uuid,
		From:         from,
		To:           s,
		FromState:    from.String(),
		ToState:      s.String(),
		Relationship: relationship,
	})
}

func transitionFor(es *entityState, to State, relationship string) Transition {
	return Transition{
		EntityUUID:   es.uuid,
		From:         es.state,
		To:           to,
		FromState:    es.state.String(),
		ToState:      to.String(),
		Relationship: relationship,
	}
}

func (t *Tracker) notifyObservers(tr Transition) {
	t.mu.Lock()
	observers := make([]Observer, len(t.observers))
	copy(observers, t.observers)
	t.mu.Unlock()

	for _, o := range observers {
		o(tr)
	}
}
