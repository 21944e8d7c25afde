package stor

import (
	"testing"

	"github.com/driftkit/drift/pkg/graphdb/gmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGetEntity(t *testing.T) {
	forEachStors(t, func(t *testing.T, stors *Stors) {
		entity, err := stors.EntityStor.CreateEntity(&gmodel.Entity{EntityType: "thing", Name: "t1"})
		require.NoError(t, err)
		require.NotEmpty(t, entity.UUID, "CreateEntity should assign a uuid when none is given")

		got, err := stors.EntityStor.GetEntityByUUID(entity.UUID)
		require.NoError(t, err)
		assert.Equal(t, "thing", got.EntityType)
		assert.Equal(t, "t1", got.Name)

		entityType, err := stors.EntityStor.GetEntityType(entity.UUID)
		require.NoError(t, err)
		assert.Equal(t, "thing", entityType)

		_, err = stors.EntityStor.GetEntityByUUID("does-not-exist")
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestAttributeLifecycle(t *testing.T) {
	forEachStors(t, func(t *testing.T, stors *Stors) {
		entity := mustCreateEntity(t, stors, "thing-1", "thing")

		// A brand new attribute counts as a pending change.
		require.NoError(t, stors.EntityStor.SetAttribute(entity.UUID, "name", "foo"))
		changed, err := stors.EntityStor.HasAttributeChanges(entity.UUID)
		require.NoError(t, err)
		assert.True(t, changed)

		require.NoError(t, stors.EntityStor.MarkAttributesSaved(entity.UUID))
		changed, err = stors.EntityStor.HasAttributeChanges(entity.UUID)
		require.NoError(t, err)
		assert.False(t, changed)

		require.NoError(t, stors.EntityStor.SetAttribute(entity.UUID, "name", "bar"))
		changed, err = stors.EntityStor.HasAttributeChanges(entity.UUID)
		require.NoError(t, err)
		assert.True(t, changed)

		// Setting a field back to its saved value clears the pending flag.
		require.NoError(t, stors.EntityStor.SetAttribute(entity.UUID, "name", "foo"))
		changed, err = stors.EntityStor.HasAttributeChanges(entity.UUID)
		require.NoError(t, err)
		assert.False(t, changed)
	})
}

func TestRollbackAttributesRestoresSavedValues(t *testing.T) {
	forEachStors(t, func(t *testing.T, stors *Stors) {
		entity := mustCreateEntity(t, stors, "thing-1", "thing")

		require.NoError(t, stors.EntityStor.SetAttribute(entity.UUID, "name", "foo"))
		require.NoError(t, stors.EntityStor.SetAttribute(entity.UUID, "color", "red"))
		require.NoError(t, stors.EntityStor.MarkAttributesSaved(entity.UUID))

		require.NoError(t, stors.EntityStor.SetAttribute(entity.UUID, "name", "bar"))
		require.NoError(t, stors.EntityStor.RollbackAttributes(entity.UUID))

		attrs, err := stors.EntityStor.GetAttributes(entity.UUID)
		require.NoError(t, err)
		require.Len(t, attrs, 2)
		for _, attr := range attrs {
			assert.Equal(t, attr.SavedVal, attr.Val)
			assert.False(t, attr.Changed)
		}
	})
}

func TestDeleteEntityRemovesItsLinks(t *testing.T) {
	forEachStors(t, func(t *testing.T, stors *Stors) {
		thing := mustCreateEntity(t, stors, "thing-1", "thing")
		child := mustCreateEntity(t, stors, "child-1", "child")

		require.NoError(t, stors.LinkStor.AddLink(thing.UUID, "children", child.UUID))

		require.NoError(t, stors.EntityStor.DeleteEntityByUUID(child.UUID))

		_, err := stors.EntityStor.GetEntityByUUID(child.UUID)
		require.ErrorIs(t, err, ErrNotFound)

		targets, err := stors.LinkStor.ResolveTargets(thing.UUID, "children")
		require.NoError(t, err)
		assert.Empty(t, targets)
	})
}

func TestListEntities(t *testing.T) {
	forEachStors(t, func(t *testing.T, stors *Stors) {
		mustCreateEntity(t, stors, "thing-1", "thing")
		mustCreateEntity(t, stors, "child-1", "child")

		entities, err := stors.EntityStor.ListEntities()
		require.NoError(t, err)
		require.Len(t, entities, 2)
		assert.Equal(t, "thing-1", entities[0].UUID)
		assert.Equal(t, "child-1", entities[1].UUID)
	})
}
