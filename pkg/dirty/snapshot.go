package dirty

import (
	"context"
	"fmt"
)

// SnapshotDependentRelationships captures the current value of every dependent
// relationship as the new baseline. The store calls this right after a load
// completes; CommitSucceeded runs the same capture internally. A resolution
// failure on any relationship is returned to the caller and leaves every previous
// snapshot untouched, so there is never a partially captured baseline.
func (t *Tracker) SnapshotDependentRelationships(ctx context.Context, uuid string) error {
	return t.locker.WithLock(uuid, func() error {
		es, err := t.stateFor(uuid)
		if err != nil {
			return err
		}
		return t.captureLocked(ctx, es)
	})
}

// SnapshotOf returns the stored baseline for one relationship. The second return
// is false when no snapshot has been captured for it. The read takes the entity's
// lock so it can't interleave with a capture swapping the snapshot map.
func (t *Tracker) SnapshotOf(uuid, relationship string) (Value, bool) {
	var (
		snap  Value
		found bool
	)
	_ = t.locker.WithLock(uuid, func() error {
		t.mu.Lock()
		es, ok := t.entities[uuid]
		t.mu.Unlock()
		if !ok {
			return nil
		}
		if s, ok := es.snapshots[relationship]; ok {
			snap = s.Clone()
			found = true
		}
		return nil
	})
	return snap, found
}

// captureLocked resolves every dependent relationship into a fresh snapshot map
// and only swaps it in once every resolution succeeded.
func (t *Tracker) captureLocked(ctx context.Context, es *entityState) error {
	fresh := make(map[string]Value)

	for _, d := range t.schema.DependentRelationships(es.entityType) {
		v, err := t.graph.ResolveRelationship(ctx, es.uuid, d.Name)
		if err != nil {
			return fmt.Errorf("capture %s.%s: %w", es.uuid, d.Name, err)
		}
		fresh[d.Name] = v.Clone()
	}

	es.snapshots = fresh
	return nil
}

// snapshotOrZero returns the baseline for a relationship, or the empty value of
// the right cardinality when none was captured yet. An entity that was never
// snapshotted therefore reports any populated relationship as diverged, which is
// what the setup check after load relies on.
func (es *entityState) snapshotOrZero(d Descriptor) Value {
	if snap, ok := es.snapshots[d.Name]; ok {
		return snap
	}
	return zeroValueFor(d)
}

// restoreLocked sets every snapshotted dependent relationship back to its
// baseline, skipping relationships that already match. It returns the UUIDs
// referenced by the restored values so rollback can cascade into them. Restoring
// links happens before any cascade work: if the cascade later fails, the graph is
// left with the links already back at their baseline rather than corrupted.
func (t *Tracker) restoreLocked(ctx context.Context, es *entityState) ([]string, error) {
	var restored []string

	for _, d := range t.schema.DependentRelationships(es.entityType) {
		snap, ok := es.snapshots[d.Name]
		if !ok {
			continue
		}

		current, err := t.graph.ResolveRelationship(ctx, es.uuid, d.Name)
		if err != nil {
			return restored, fmt.Errorf("restore %s.%s: %w", es.uuid, d.Name, err)
		}

		if !current.Equal(snap) {
			if err := t.graph.SetRelationship(ctx, es.uuid, d.Name, snap.Clone()); err != nil {
				return restored, fmt.Errorf("restore %s.%s: %w", es.uuid, d.Name, err)
			}
		}

		restored = append(restored, snap.All()...)
	}

	return restored, nil
}
