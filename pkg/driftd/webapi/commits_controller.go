package webapi

import (
	"net/http"

	"github.com/driftkit/drift/pkg/dirty"
	"github.com/driftkit/drift/pkg/driftd"
	"github.com/labstack/echo/v4"
)

type CommitsController struct {
	committer *driftd.Committer
	tracker   *dirty.Tracker
}

func NewCommitsController(committer *driftd.Committer, tracker *dirty.Tracker) *CommitsController {
	return &CommitsController{committer: committer, tracker: tracker}
}

// LoadEntity registers a store entity with the tracker: its dependent
// relationship baseline is captured and it settles into saved (or straight to
// updated.uncommitted when it was loaded already dirty).
func (c *CommitsController) LoadEntity(ctx echo.Context) error {
	entityUUID := ctx.Param("uuid")

	if err := c.committer.Load(ctx.Request().Context(), entityUUID); err != nil {
		return apiError(err)
	}

	return ctx.JSON(http.StatusOK, map[string]string{
		"uuid":  entityUUID,
		"state": c.tracker.StateOf(entityUUID).String(),
	})
}

// CommitEntity pushes the entity's pending changes upstream. A commit that
// cannot start (wrong state) or fails upstream comes back as an error with the
// entity's resulting state, so callers can tell an invalid retry apart from a
// rejected request.
func (c *CommitsController) CommitEntity(ctx echo.Context) error {
	entityUUID := ctx.Param("uuid")

	if err := c.committer.Commit(ctx.Request().Context(), entityUUID); err != nil {
		return echo.NewHTTPError(http.StatusConflict, map[string]string{
			"uuid":  entityUUID,
			"state": c.tracker.StateOf(entityUUID).String(),
			"error": err.Error(),
		})
	}

	return ctx.JSON(http.StatusOK, map[string]string{
		"uuid":  entityUUID,
		"state": c.tracker.StateOf(entityUUID).String(),
	})
}

// RollbackEntity reverts the entity to its last clean baseline, cascading into
// related entities the baseline references.
func (c *CommitsController) RollbackEntity(ctx echo.Context) error {
	entityUUID := ctx.Param("uuid")

	if err := c.tracker.Rollback(ctx.Request().Context(), entityUUID); err != nil {
		return apiError(err)
	}

	return ctx.JSON(http.StatusOK, map[string]string{
		"uuid":  entityUUID,
		"state": c.tracker.StateOf(entityUUID).String(),
	})
}
