package stor

import (
	"context"
	"errors"
	"fmt"

	"github.com/driftkit/drift/pkg/dirty"
)

// TrackedGraph adapts the stor layer to the dirty.Graph interface the tracker
// evaluates against. It consults the schema to shape relationship values with
// the right cardinality and maps store-level not-found errors onto the
// tracker's sentinel.
type TrackedGraph struct {
	schema *dirty.Schema
	stors  *Stors
}

func NewTrackedGraph(schema *dirty.Schema, stors *Stors) *TrackedGraph {
	return &TrackedGraph{schema: schema, stors: stors}
}

func (g *TrackedGraph) EntityType(entityUUID string) (string, error) {
	entityType, err := g.stors.EntityStor.GetEntityType(entityUUID)
	if err != nil {
		return "", mapNotFound(err, entityUUID)
	}
	return entityType, nil
}

func (g *TrackedGraph) HasAttributeChanges(entityUUID string) (bool, error) {
	changed, err := g.stors.EntityStor.HasAttributeChanges(entityUUID)
	if err != nil {
		return false, mapNotFound(err, entityUUID)
	}
	return changed, nil
}

func (g *TrackedGraph) RollbackAttributes(entityUUID string) error {
	if err := g.stors.EntityStor.RollbackAttributes(entityUUID); err != nil {
		return mapNotFound(err, entityUUID)
	}
	return nil
}

func (g *TrackedGraph) ResolveRelationship(ctx context.Context, entityUUID, relationship string) (dirty.Value, error) {
	if err := ctx.Err(); err != nil {
		return dirty.Value{}, err
	}

	d, err := g.descriptorFor(entityUUID, relationship)
	if err != nil {
		return dirty.Value{}, err
	}

	targetUUIDs, err := g.stors.LinkStor.ResolveTargets(entityUUID, relationship)
	if err != nil {
		return dirty.Value{}, mapNotFound(err, entityUUID)
	}

	if d.ToMany {
		return dirty.ToManyValue(targetUUIDs...), nil
	}

	if len(targetUUIDs) == 0 {
		return dirty.ToOneValue(""), nil
	}

	return dirty.ToOneValue(targetUUIDs[0]), nil
}

func (g *TrackedGraph) SetRelationship(ctx context.Context, entityUUID, relationship string, value dirty.Value) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d, err := g.descriptorFor(entityUUID, relationship)
	if err != nil {
		return err
	}

	if d.ToMany != value.ToMany {
		return fmt.Errorf("relationship %s.%s: cardinality mismatch", entityUUID, relationship)
	}

	if d.ToMany {
		return mapNotFound(g.stors.LinkStor.ReplaceLinks(entityUUID, relationship, value.Targets), entityUUID)
	}

	return mapNotFound(g.stors.LinkStor.SetToOne(entityUUID, relationship, value.Target), entityUUID)
}

func (g *TrackedGraph) descriptorFor(entityUUID, relationship string) (dirty.Descriptor, error) {
	entityType, err := g.EntityType(entityUUID)
	if err != nil {
		return dirty.Descriptor{}, err
	}

	d, ok := g.schema.Descriptor(entityType, relationship)
	if !ok {
		return dirty.Descriptor{}, fmt.Errorf("%s on %s: %w", relationship, entityType, dirty.ErrUnknownRelationship)
	}

	return d, nil
}

func mapNotFound(err error, entityUUID string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%s: %w", entityUUID, dirty.ErrNoSuchEntity)
	}
	return err
}
