package webapi

import (
	"errors"
	"net/http"

	"github.com/driftkit/drift/pkg/dirty"
	"github.com/driftkit/drift/pkg/graphdb/gmodel"
	"github.com/driftkit/drift/pkg/graphdb/stor"
	"github.com/labstack/echo/v4"
)

type EntitiesController struct {
	schema  *dirty.Schema
	stors   *stor.Stors
	graph   *stor.TrackedGraph
	tracker *dirty.Tracker
}

func NewEntitiesController(schema *dirty.Schema, stors *stor.Stors, graph *stor.TrackedGraph, tracker *dirty.Tracker) *EntitiesController {
	return &EntitiesController{
		schema:  schema,
		stors:   stors,
		graph:   graph,
		tracker: tracker,
	}
}

// EntityStatus is what the API reports about one entity: the record itself,
// its commit lifecycle state, whether it evaluates dirty, and which dependent
// relationships diverge from their baseline.
type EntityStatus struct {
	Entity               *gmodel.Entity          `json:"entity"`
	State                string                  `json:"state"`
	IsDirty              bool                    `json:"is_dirty"`
	ChangedRelationships map[string]dirty.Change `json:"changed_relationships,omitempty"`
}

func (c *EntitiesController) CreateEntity(ctx echo.Context) error {
	var req struct {
		UUID       string            `json:"uuid"`
		EntityType string            `json:"entity_type"`
		Name       string            `json:"name"`
		Attributes map[string]string `json:"attributes"`
	}

	if err := ctx.Bind(&req); err != nil {
		return err
	}

	if req.EntityType == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "entity_type is required")
	}

	entity, err := c.stors.EntityStor.CreateEntity(&gmodel.Entity{
		UUID:       req.UUID,
		EntityType: req.EntityType,
		Name:       req.Name,
	})
	if err != nil {
		return err
	}

	for name, val := range req.Attributes {
		if err := c.stors.EntityStor.SetAttribute(entity.UUID, name, val); err != nil {
			return err
		}
	}

	if err := c.tracker.EntityCreated(entity.UUID); err != nil {
		return apiError(err)
	}

	return ctx.JSON(http.StatusCreated, entity)
}

func (c *EntitiesController) IndexEntities(ctx echo.Context) error {
	entities, err := c.stors.EntityStor.ListEntities()
	if err != nil {
		return err
	}

	type entityListEntry struct {
		Entity gmodel.Entity `json:"entity"`
		State  string        `json:"state"`
	}

	entries := make([]entityListEntry, 0, len(entities))
	for _, entity := range entities {
		entries = append(entries, entityListEntry{
			Entity: entity,
			State:  c.tracker.StateOf(entity.UUID).String(),
		})
	}

	return ctx.JSON(http.StatusOK, entries)
}

func (c *EntitiesController) GetEntity(ctx echo.Context) error {
	entityUUID := ctx.Param("uuid")

	status, err := c.statusFor(ctx, entityUUID)
	if err != nil {
		return apiError(err)
	}

	return ctx.JSON(http.StatusOK, status)
}

// MarkEntityDeleted marks the entity for deletion. The record stays in the
// store until a commit confirms the deletion upstream.
func (c *EntitiesController) MarkEntityDeleted(ctx echo.Context) error {
	entityUUID := ctx.Param("uuid")

	if err := c.tracker.EntityDeleted(entityUUID); err != nil {
		return apiError(err)
	}

	return ctx.JSON(http.StatusOK, map[string]string{
		"uuid":  entityUUID,
		"state": c.tracker.StateOf(entityUUID).String(),
	})
}

func (c *EntitiesController) SetAttribute(ctx echo.Context) error {
	entityUUID := ctx.Param("uuid")

	var req struct {
		Name string `json:"name"`
		Val  string `json:"val"`
	}

	if err := ctx.Bind(&req); err != nil {
		return err
	}

	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	if err := c.stors.EntityStor.SetAttribute(entityUUID, req.Name, req.Val); err != nil {
		return apiError(err)
	}

	if err := c.tracker.AttributeChanged(ctx.Request().Context(), entityUUID); err != nil {
		return apiError(err)
	}

	status, err := c.statusFor(ctx, entityUUID)
	if err != nil {
		return apiError(err)
	}

	return ctx.JSON(http.StatusOK, status)
}

func (c *EntitiesController) SetRelationship(ctx echo.Context) error {
	entityUUID := ctx.Param("uuid")
	relationship := ctx.Param("name")

	var req struct {
		Target  string   `json:"target"`
		Targets []string `json:"targets"`
	}

	if err := ctx.Bind(&req); err != nil {
		return err
	}

	entityType, err := c.graph.EntityType(entityUUID)
	if err != nil {
		return apiError(err)
	}

	d, ok := c.schema.Descriptor(entityType, relationship)
	if !ok {
		return apiError(dirty.ErrUnknownRelationship)
	}

	value := dirty.ToOneValue(req.Target)
	if d.ToMany {
		value = dirty.ToManyValue(req.Targets...)
	}

	reqCtx := ctx.Request().Context()
	if err := c.graph.SetRelationship(reqCtx, entityUUID, relationship, value); err != nil {
		return apiError(err)
	}

	if err := c.tracker.RelationshipChanged(reqCtx, entityUUID, relationship); err != nil {
		return apiError(err)
	}

	status, err := c.statusFor(ctx, entityUUID)
	if err != nil {
		return apiError(err)
	}

	return ctx.JSON(http.StatusOK, status)
}

func (c *EntitiesController) AddRelationshipMember(ctx echo.Context) error {
	return c.changeMembership(ctx, c.stors.LinkStor.AddLink)
}

func (c *EntitiesController) RemoveRelationshipMember(ctx echo.Context) error {
	return c.changeMembership(ctx, c.stors.LinkStor.RemoveLink)
}

func (c *EntitiesController) changeMembership(ctx echo.Context, change func(ownerUUID, name, targetUUID string) error) error {
	entityUUID := ctx.Param("uuid")
	relationship := ctx.Param("name")

	var req struct {
		Target string `json:"target"`
	}

	if err := ctx.Bind(&req); err != nil {
		return err
	}

	if req.Target == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "target is required")
	}

	if err := change(entityUUID, relationship, req.Target); err != nil {
		return apiError(err)
	}

	if err := c.tracker.RelationshipChanged(ctx.Request().Context(), entityUUID, relationship); err != nil {
		return apiError(err)
	}

	status, err := c.statusFor(ctx, entityUUID)
	if err != nil {
		return apiError(err)
	}

	return ctx.JSON(http.StatusOK, status)
}

// GetSnapshots returns the dependent relationship baselines currently held for
// the entity.
func (c *EntitiesController) GetSnapshots(ctx echo.Context) error {
	entityUUID := ctx.Param("uuid")

	entityType, err := c.graph.EntityType(entityUUID)
	if err != nil {
		return apiError(err)
	}

	snapshots := make(map[string]dirty.Value)
	for _, d := range c.schema.DependentRelationships(entityType) {
		if snap, ok := c.tracker.SnapshotOf(entityUUID, d.Name); ok {
			snapshots[d.Name] = snap
		}
	}

	return ctx.JSON(http.StatusOK, snapshots)
}

func (c *EntitiesController) statusFor(ctx echo.Context, entityUUID string) (*EntityStatus, error) {
	reqCtx := ctx.Request().Context()

	entity, err := c.stors.EntityStor.GetEntityByUUID(entityUUID)
	if err != nil {
		if errors.Is(err, stor.ErrNotFound) {
			return nil, dirty.ErrNoSuchEntity
		}
		return nil, err
	}

	isDirty, err := c.tracker.IsDirty(reqCtx, entityUUID)
	if err != nil {
		return nil, err
	}

	changed, err := c.tracker.ChangedRelationships(reqCtx, entityUUID)
	if err != nil {
		return nil, err
	}

	return &EntityStatus{
		Entity:               entity,
		State:                c.tracker.StateOf(entityUUID).String(),
		IsDirty:              isDirty,
		ChangedRelationships: changed,
	}, nil
}

// apiError maps the engine's sentinel errors onto HTTP statuses.
func apiError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, dirty.ErrNoSuchEntity), errors.Is(err, stor.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, dirty.ErrUnknownRelationship):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return err
	}
}
