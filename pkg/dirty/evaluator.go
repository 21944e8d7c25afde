package dirty

import (
	"context"
	"fmt"
)

// Change is the divergence of one dependent relationship: the baseline captured at
// the last load or commit, and the value the relationship holds now.
type Change struct {
	Original Value `json:"original"`
	Current  Value `json:"current"`
}

// IsDirty reports whether the entity has unsaved changes: pending attribute
// modifications, a dependent relationship that diverged from its snapshot, or a
// currently referenced entity that is itself dirty. The check has no side effects
// and is safe to call repeatedly.
func (t *Tracker) IsDirty(ctx context.Context, uuid string) (bool, error) {
	var dirty bool
	err := t.locker.WithLock(uuid, func() error {
		var err error
		dirty, err = t.isDirtyLocked(ctx, uuid, map[string]bool{})
		return err
	})
	return dirty, err
}

// isDirtyLocked is the recursive evaluation. The visited set guards against
// cycles in the relationship graph (a child holding a back-reference to its
// parent): every entity is evaluated at most once per call, and re-entering an
// entity already on the walk contributes nothing rather than recursing forever.
//
// Checks run cheapest first: the store's own attribute flag, then snapshot
// divergence across all dependent relationships, then recursion into the
// currently held related entities.
func (t *Tracker) isDirtyLocked(ctx context.Context, uuid string, visited map[string]bool) (bool, error) {
	if visited[uuid] {
		return false, nil
	}
	visited[uuid] = true

	own, err := t.graph.HasAttributeChanges(uuid)
	if err != nil {
		return false, fmt.Errorf("attribute changes for %s: %s", uuid, err)
	}
	if own {
		return true, nil
	}

	es, err := t.stateFor(uuid)
	if err != nil {
		return false, err
	}

	deps := t.schema.DependentRelationships(es.entityType)
	if len(deps) == 0 {
		return false, nil
	}

	resolved := make(map[string]Value, len(deps))
	for _, d := range deps {
		current, err := t.graph.ResolveRelationship(ctx, uuid, d.Name)
		if err != nil {
			return false, fmt.Errorf("resolve %s.%s: %w", uuid, d.Name, err)
		}
		resolved[d.Name] = current

		if !current.Equal(es.snapshotOrZero(d)) {
			return true, nil
		}
	}

	for _, d := range deps {
		for _, target := range resolved[d.Name].All() {
			dirty, err := t.isDirtyLocked(ctx, target, visited)
			if err != nil {
				return false, err
			}
			if dirty {
				return true, nil
			}
		}
	}

	return false, nil
}

// ChangedRelationships returns every dependent relationship whose current value
// diverges from its snapshot, mapped to the (original, current) pair. It keeps
// reporting divergence while the entity is frozen in-flight or invalid, even
// though such changes don't move the state machine.
func (t *Tracker) ChangedRelationships(ctx context.Context, uuid string) (map[string]Change, error) {
	changes := make(map[string]Change)

	err := t.locker.WithLock(uuid, func() error {
		es, err := t.stateFor(uuid)
		if err != nil {
			return err
		}

		for _, d := range t.schema.DependentRelationships(es.entityType) {
			current, err := t.graph.ResolveRelationship(ctx, uuid, d.Name)
			if err != nil {
				return fmt.Errorf("resolve %s.%s: %w", uuid, d.Name, err)
			}

			snap := es.snapshotOrZero(d)
			if !current.Equal(snap) {
				changes[d.Name] = Change{Original: snap.Clone(), Current: current.Clone()}
			}
		}

		return nil
	})

	return changes, err
}
