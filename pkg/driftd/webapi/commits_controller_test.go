package webapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/driftkit/drift/pkg/dirty"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitHandlerPushesChangesUpstream(t *testing.T) {
	tc := newWebTestCase(t)
	thing := tc.createSavedThing(t)

	ctx, rec := tc.jsonRequest(http.MethodPut, `{"name": "name", "val": "bar"}`)
	ctx.SetParamNames("uuid")
	ctx.SetParamValues(thing)
	require.NoError(t, tc.entities.SetAttribute(ctx))

	ctx, rec = tc.jsonRequest(http.MethodPost, "")
	ctx.SetParamNames("uuid")
	ctx.SetParamValues(thing)
	require.NoError(t, tc.commits.CommitEntity(ctx))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, dirty.StateSaved.String(), resp["state"])
	assert.Equal(t, "bar", tc.client.EntitySent(thing).Attributes["name"])
}

func TestCommitHandlerRejectsCleanEntity(t *testing.T) {
	tc := newWebTestCase(t)
	thing := tc.createSavedThing(t)

	ctx, _ := tc.jsonRequest(http.MethodPost, "")
	ctx.SetParamNames("uuid")
	ctx.SetParamValues(thing)

	err := tc.commits.CommitEntity(ctx)
	require.Error(t, err)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusConflict, httpErr.Code)
	assert.Empty(t, tc.client.Calls())
}

func TestRollbackHandlerRestoresBaseline(t *testing.T) {
	tc := newWebTestCase(t)
	thing := tc.createSavedThing(t)

	ctx, _ := tc.jsonRequest(http.MethodPut, `{"name": "name", "val": "bar"}`)
	ctx.SetParamNames("uuid")
	ctx.SetParamValues(thing)
	require.NoError(t, tc.entities.SetAttribute(ctx))

	ctx, rec := tc.jsonRequest(http.MethodPost, "")
	ctx.SetParamNames("uuid")
	ctx.SetParamValues(thing)
	require.NoError(t, tc.commits.RollbackEntity(ctx))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, dirty.StateSaved.String(), resp["state"])

	attrs, err := tc.stors.EntityStor.GetAttributes(thing)
	require.NoError(t, err)
	require.Len(t, attrs, 1)
	assert.Equal(t, "foo", attrs[0].Val)
}
