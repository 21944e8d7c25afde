package dirty

import (
	"context"
	"fmt"
)

// RelationshipChanged is the mutation hook the store calls whenever a dependent
// relationship's resolved value changed, or the dirtiness of an entity it holds
// changed. It compares the current value against the snapshot and drives the
// state machine: a divergence, or a dirty held entity, raises the became-dirty
// event; a value that matches its baseline raises property-reset, which settles
// the entity back to saved only once nothing else keeps it dirty.
//
// Calls for relationships not marked dependent are ignored. Calls for a
// relationship the entity's type doesn't declare return ErrUnknownRelationship.
// While the entity is in-flight, invalid, or deleted the comparison still runs
// (so ChangedRelationships stays accurate) but the state machine treats the
// event as a no-op.
func (t *Tracker) RelationshipChanged(ctx context.Context, uuid, relationship string) error {
	return t.locker.WithLock(uuid, func() error {
		es, err := t.stateFor(uuid)
		if err != nil {
			return err
		}

		d, ok := t.schema.Descriptor(es.entityType, relationship)
		if !ok {
			return fmt.Errorf("%w: %s.%s", ErrUnknownRelationship, es.entityType, relationship)
		}
		if !d.Dependent {
			return nil
		}

		current, err := t.graph.ResolveRelationship(ctx, uuid, relationship)
		if err != nil {
			return fmt.Errorf("resolve %s.%s: %w", uuid, relationship, err)
		}

		if !current.Equal(es.snapshotOrZero(d)) {
			t.apply(es, eventBecameDirty, relationship)
			return nil
		}

		// The value is back at its baseline. The relationship can still hold a
		// dirty entity, which keeps the owner dirty too.
		for _, target := range current.All() {
			dirty, err := t.isDirtyLocked(ctx, target, map[string]bool{uuid: true})
			if err != nil {
				return err
			}
			if dirty {
				t.apply(es, eventBecameDirty, relationship)
				return nil
			}
		}

		// Reset path: only settle when the whole entity evaluates clean, other
		// relationships or pending attributes may still hold it dirty.
		full, err := t.isDirtyLocked(ctx, uuid, map[string]bool{})
		if err != nil {
			return err
		}
		if !full {
			t.apply(es, eventPropertyReset, relationship)
		}

		return nil
	})
}

// AttributeChanged is the mutation hook for an entity's own scalar fields. The
// store already tracks which fields diverge from their saved values; this hook
// just re-evaluates the entity so the state machine hears about the change: a
// dirty entity raises became-dirty, a clean one (the field went back to its
// saved value) raises property-reset.
func (t *Tracker) AttributeChanged(ctx context.Context, uuid string) error {
	return t.locker.WithLock(uuid, func() error {
		es, err := t.stateFor(uuid)
		if err != nil {
			return err
		}

		dirty, err := t.isDirtyLocked(ctx, uuid, map[string]bool{})
		if err != nil {
			return err
		}

		if dirty {
			t.apply(es, eventBecameDirty, "")
		} else {
			t.apply(es, eventPropertyReset, "")
		}

		return nil
	})
}
