package dirty

import (
	"context"
	"fmt"
)

// Rollback reverts the entity to its last clean baseline: every snapshotted
// dependent relationship is set back to its snapshot, the entity's own pending
// attributes are rolled back through the store, and the revert cascades into any
// entity referenced by the restored values that is still dirty. Once nothing
// dirty remains the entity settles back to saved.
//
// Restoring the relationship links always happens before the cascade, so if
// rolling back a related entity fails the graph is left partially rolled back
// but with the links already at their baseline. The failure propagates to the
// caller. Rolling back an already clean entity is a no-op, so calling Rollback
// twice is equivalent to calling it once.
func (t *Tracker) Rollback(ctx context.Context, uuid string) error {
	return t.locker.WithLock(uuid, func() error {
		return t.rollbackLocked(ctx, uuid, map[string]bool{})
	})
}

func (t *Tracker) rollbackLocked(ctx context.Context, uuid string, visited map[string]bool) error {
	if visited[uuid] {
		return nil
	}
	visited[uuid] = true

	es, err := t.stateFor(uuid)
	if err != nil {
		return err
	}

	restored, err := t.restoreLocked(ctx, es)
	if err != nil {
		return err
	}

	if err := t.graph.RollbackAttributes(uuid); err != nil {
		return fmt.Errorf("rollback attributes for %s: %s", uuid, err)
	}

	for _, target := range restored {
		dirty, err := t.isDirtyLocked(ctx, target, map[string]bool{uuid: true})
		if err != nil {
			return err
		}
		if !dirty {
			continue
		}
		if err := t.rollbackLocked(ctx, target, visited); err != nil {
			return err
		}
	}

	full, err := t.isDirtyLocked(ctx, uuid, map[string]bool{})
	if err != nil {
		return err
	}
	if !full {
		t.apply(es, eventPropertyReset, "")
	}

	return nil
}
