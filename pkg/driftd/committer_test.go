package driftd

import (
	"context"
	"errors"
	"testing"

	"github.com/driftkit/drift/pkg/dirty"
	"github.com/driftkit/drift/pkg/graphdb/gmodel"
	"github.com/driftkit/drift/pkg/graphdb/stor"
	"github.com/driftkit/drift/pkg/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEntity(entityUUID, entityType string) *gmodel.Entity {
	return &gmodel.Entity{UUID: entityUUID, EntityType: entityType, Name: entityUUID}
}

type committerTestCase struct {
	schema  *dirty.Schema
	stors   *stor.Stors
	tracker *dirty.Tracker
	client  *upstream.MockClient

	committer *Committer
}

func newCommitterTestCase(t *testing.T) *committerTestCase {
	schema := dirty.NewSchema()
	schema.RegisterType("thing", dirty.Descriptor{Name: "children", ToMany: true, Dependent: true})
	schema.RegisterType("child")

	stors := stor.NewInMemoryStors()
	tracker := dirty.NewTracker(schema, stor.NewTrackedGraph(schema, stors))
	client := upstream.NewMockClient()

	return &committerTestCase{
		schema:    schema,
		stors:     stors,
		tracker:   tracker,
		client:    client,
		committer: NewCommitter(schema, stors, tracker, client),
	}
}

func (tc *committerTestCase) createSavedThing(t *testing.T, ctx context.Context) string {
	_, err := tc.stors.EntityStor.CreateEntity(newEntity("thing-1", "thing"))
	require.NoError(t, err)
	require.NoError(t, tc.stors.EntityStor.SetAttribute("thing-1", "name", "foo"))
	require.NoError(t, tc.stors.EntityStor.MarkAttributesSaved("thing-1"))
	require.NoError(t, tc.committer.Load(ctx, "thing-1"))
	return "thing-1"
}

func TestCommitUpdateFlow(t *testing.T) {
	tc := newCommitterTestCase(t)
	ctx := context.Background()
	thing := tc.createSavedThing(t, ctx)

	require.NoError(t, tc.stors.EntityStor.SetAttribute(thing, "name", "bar"))
	require.NoError(t, tc.tracker.AttributeChanged(ctx, thing))
	require.Equal(t, dirty.StateUpdatedUncommitted, tc.tracker.StateOf(thing))

	require.NoError(t, tc.committer.Commit(ctx, thing))

	assert.Equal(t, []string{"UpdateEntity"}, tc.client.Calls())
	assert.Equal(t, "bar", tc.client.EntitySent(thing).Attributes["name"])
	assert.Equal(t, dirty.StateSaved, tc.tracker.StateOf(thing))

	isDirty, err := tc.tracker.IsDirty(ctx, thing)
	require.NoError(t, err)
	assert.False(t, isDirty)
}

func TestCommitCreateFlow(t *testing.T) {
	tc := newCommitterTestCase(t)
	ctx := context.Background()

	_, err := tc.stors.EntityStor.CreateEntity(newEntity("thing-1", "thing"))
	require.NoError(t, err)
	require.NoError(t, tc.stors.EntityStor.SetAttribute("thing-1", "name", "foo"))
	require.NoError(t, tc.tracker.EntityCreated("thing-1"))

	require.NoError(t, tc.committer.Commit(ctx, "thing-1"))

	assert.Equal(t, []string{"CreateEntity"}, tc.client.Calls())
	assert.Equal(t, dirty.StateSaved, tc.tracker.StateOf("thing-1"))
}

func TestCommitSendsRelationshipTargets(t *testing.T) {
	tc := newCommitterTestCase(t)
	ctx := context.Background()
	thing := tc.createSavedThing(t, ctx)

	_, err := tc.stors.EntityStor.CreateEntity(newEntity("child-1", "child"))
	require.NoError(t, err)
	require.NoError(t, tc.stors.LinkStor.ReplaceLinks(thing, "children", []string{"child-1"}))
	require.NoError(t, tc.tracker.RelationshipChanged(ctx, thing, "children"))

	require.NoError(t, tc.committer.Commit(ctx, thing))

	sent := tc.client.EntitySent(thing)
	require.NotNil(t, sent)
	assert.Equal(t, []string{"child-1"}, sent.Relationships["children"])

	// The commit re-snapshots against the persisted membership.
	snap, ok := tc.tracker.SnapshotOf(thing, "children")
	require.True(t, ok)
	assert.True(t, snap.Equal(dirty.ToManyValue("child-1")))
}

func TestCommitFailureLeavesEntityInvalidAndRetryable(t *testing.T) {
	tc := newCommitterTestCase(t)
	ctx := context.Background()
	thing := tc.createSavedThing(t, ctx)

	require.NoError(t, tc.stors.EntityStor.SetAttribute(thing, "name", "bar"))
	require.NoError(t, tc.tracker.AttributeChanged(ctx, thing))

	tc.client.SetError(errors.New("upstream down"))
	require.Error(t, tc.committer.Commit(ctx, thing))
	assert.Equal(t, dirty.StateUpdatedInvalid, tc.tracker.StateOf(thing))

	// Local changes were kept, so clearing the failure lets a retry succeed.
	tc.client.SetError(nil)
	require.NoError(t, tc.committer.Commit(ctx, thing))
	assert.Equal(t, dirty.StateSaved, tc.tracker.StateOf(thing))
	assert.Equal(t, "bar", tc.client.EntitySent(thing).Attributes["name"])
}

func TestCommitDeleteFlow(t *testing.T) {
	tc := newCommitterTestCase(t)
	ctx := context.Background()
	thing := tc.createSavedThing(t, ctx)

	require.NoError(t, tc.tracker.EntityDeleted(thing))
	require.Equal(t, dirty.StateDeletedUncommitted, tc.tracker.StateOf(thing))

	require.NoError(t, tc.committer.Commit(ctx, thing))

	assert.Equal(t, []string{"DeleteEntity"}, tc.client.Calls())

	_, err := tc.stors.EntityStor.GetEntityByUUID(thing)
	require.ErrorIs(t, err, stor.ErrNotFound)

	// The tracker state was evicted along with the entity.
	assert.Equal(t, dirty.StateUnknown, tc.tracker.StateOf(thing))
}

func TestCommitFromSavedFails(t *testing.T) {
	tc := newCommitterTestCase(t)
	ctx := context.Background()
	thing := tc.createSavedThing(t, ctx)

	require.Error(t, tc.committer.Commit(ctx, thing))
	assert.Empty(t, tc.client.Calls())
}
