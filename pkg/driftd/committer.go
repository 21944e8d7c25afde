package driftd

import (
	"context"
	"fmt"

	"github.com/driftkit/drift/pkg/clog"
	"github.com/driftkit/drift/pkg/dirty"
	"github.com/driftkit/drift/pkg/graphdb/stor"
	"github.com/driftkit/drift/pkg/upstream"
)

// Committer pushes an entity's pending changes to the upstream system of
// record and drives the tracker's commit lifecycle around the call: commit
// started before the request, then commit succeeded (with the store's saved
// values promoted) or commit failed depending on the outcome. Entities marked
// deleted take the deletion path instead.
type Committer struct {
	schema  *dirty.Schema
	stors   *stor.Stors
	tracker *dirty.Tracker
	client  upstream.ClientAPI
}

func NewCommitter(schema *dirty.Schema, stors *stor.Stors, tracker *dirty.Tracker, client upstream.ClientAPI) *Committer {
	return &Committer{
		schema:  schema,
		stors:   stors,
		tracker: tracker,
		client:  client,
	}
}

// Load pulls the entity through the tracker's load hook, capturing the
// dependent relationship baseline.
func (c *Committer) Load(ctx context.Context, entityUUID string) error {
	return c.tracker.EntityLoaded(ctx, entityUUID)
}

// Commit sends the entity upstream. Created entities are posted, updated ones
// are put, deleted ones are deleted and then removed locally. A failed upstream
// call leaves the entity invalid with its local changes intact so a later
// Commit can retry.
func (c *Committer) Commit(ctx context.Context, entityUUID string) error {
	state := c.tracker.StateOf(entityUUID)

	if state.Deleted() {
		return c.commitDelete(entityUUID)
	}

	creating := state == dirty.StateCreatedUncommitted || state == dirty.StateCreatedInvalid

	if err := c.tracker.CommitStarted(entityUUID); err != nil {
		return err
	}

	payload, err := c.buildPayload(entityUUID)
	if err != nil {
		// Nothing was sent; move the entity to invalid so the failure is visible.
		_ = c.tracker.CommitFailed(entityUUID)
		return err
	}

	if creating {
		_, err = c.client.CreateEntity(payload)
	} else {
		_, err = c.client.UpdateEntity(entityUUID, payload)
	}

	if err != nil {
		clog.UsingCtx("committer").Errorf("Upstream call for %s failed: %s", entityUUID, err)
		_ = c.tracker.CommitFailed(entityUUID)
		return err
	}

	if err := c.stors.EntityStor.MarkAttributesSaved(entityUUID); err != nil {
		_ = c.tracker.CommitFailed(entityUUID)
		return fmt.Errorf("mark attributes saved for %s: %s", entityUUID, err)
	}

	return c.tracker.CommitSucceeded(ctx, entityUUID)
}

func (c *Committer) commitDelete(entityUUID string) error {
	if err := c.tracker.CommitStarted(entityUUID); err != nil {
		return err
	}

	if err := c.client.DeleteEntity(entityUUID); err != nil {
		clog.UsingCtx("committer").Errorf("Upstream delete for %s failed: %s", entityUUID, err)
		_ = c.tracker.CommitFailed(entityUUID)
		return err
	}

	if err := c.stors.EntityStor.DeleteEntityByUUID(entityUUID); err != nil {
		return fmt.Errorf("delete local entity %s: %s", entityUUID, err)
	}

	if err := c.tracker.DeleteCommitted(entityUUID); err != nil {
		return err
	}

	c.tracker.Evict(entityUUID)
	return nil
}

// buildPayload assembles the wire representation from the store: pending
// attribute values plus the current targets of every declared relationship.
func (c *Committer) buildPayload(entityUUID string) (*upstream.EntityPayload, error) {
	entity, err := c.stors.EntityStor.GetEntityByUUID(entityUUID)
	if err != nil {
		return nil, err
	}

	payload := &upstream.EntityPayload{
		UUID:          entity.UUID,
		EntityType:    entity.EntityType,
		Name:          entity.Name,
		Attributes:    make(map[string]string),
		Relationships: make(map[string][]string),
	}

	attrs, err := c.stors.EntityStor.GetAttributes(entityUUID)
	if err != nil {
		return nil, err
	}
	for _, attr := range attrs {
		payload.Attributes[attr.Name] = attr.Val
	}

	for _, d := range c.schema.Relationships(entity.EntityType) {
		targets, err := c.stors.LinkStor.ResolveTargets(entityUUID, d.Name)
		if err != nil {
			return nil, err
		}
		payload.Relationships[d.Name] = targets
	}

	return payload, nil
}
