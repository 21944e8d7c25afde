package driftd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSchema(t *testing.T) {
	schema, err := ParseSchema([]byte(`{
		"thing": [
			{"name": "children", "to_many": true, "dependent": true},
			{"name": "owner"}
		],
		"child": []
	}`))
	require.NoError(t, err)

	children, ok := schema.Descriptor("thing", "children")
	require.True(t, ok)
	assert.True(t, children.ToMany)
	assert.True(t, children.Dependent)

	owner, ok := schema.Descriptor("thing", "owner")
	require.True(t, ok)
	assert.False(t, owner.ToMany)
	assert.False(t, owner.Dependent)

	assert.Len(t, schema.DependentRelationships("thing"), 1)
	assert.Empty(t, schema.Relationships("child"))
}

func TestParseSchemaRejectsUnnamedRelationship(t *testing.T) {
	_, err := ParseSchema([]byte(`{"thing": [{"to_many": true}]}`))
	require.Error(t, err)
}

func TestParseSchemaRejectsBadJSON(t *testing.T) {
	_, err := ParseSchema([]byte(`{`))
	require.Error(t, err)
}
