package dirty

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueEqual(t *testing.T) {
	var tests = []struct {
		name  string
		a     Value
		b     Value
		equal bool
	}{
		{name: "to-one same target", a: ToOneValue("a"), b: ToOneValue("a"), equal: true},
		{name: "to-one different target", a: ToOneValue("a"), b: ToOneValue("b"), equal: false},
		{name: "to-one unset both", a: ToOneValue(""), b: Value{}, equal: true},
		{name: "to-one vs to-many never equal", a: ToOneValue("a"), b: ToManyValue("a"), equal: false},
		{name: "to-many same order", a: ToManyValue("a", "b", "c"), b: ToManyValue("a", "b", "c"), equal: true},
		{name: "to-many reordered members are equal", a: ToManyValue("a", "b", "c"), b: ToManyValue("c", "a", "b"), equal: true},
		{name: "to-many changed member same count", a: ToManyValue("a", "b", "c"), b: ToManyValue("a", "b", "d"), equal: false},
		{name: "to-many different count", a: ToManyValue("a", "b"), b: ToManyValue("a"), equal: false},
		{name: "to-many empty both", a: ToManyValue(), b: Value{ToMany: true}, equal: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.equal, test.a.Equal(test.b))
			assert.Equal(t, test.equal, test.b.Equal(test.a))
		})
	}
}

func TestValueCloneIsIndependent(t *testing.T) {
	original := ToManyValue("a", "b")
	clone := original.Clone()
	clone.Targets[0] = "z"

	assert.Equal(t, "a", original.Targets[0])
}

func TestValueAll(t *testing.T) {
	assert.Nil(t, ToOneValue("").All())
	assert.Equal(t, []string{"a"}, ToOneValue("a").All())
	assert.Equal(t, []string{"a", "b"}, ToManyValue("a", "b").All())
}

func TestSchemaRegistration(t *testing.T) {
	schema := NewSchema()
	schema.RegisterType("thing",
		Descriptor{Name: "children", ToMany: true, Dependent: true},
		Descriptor{Name: "owner", Dependent: false},
	)

	assert.Len(t, schema.Relationships("thing"), 2)
	assert.Len(t, schema.DependentRelationships("thing"), 1)
	assert.Empty(t, schema.Relationships("unregistered"))

	d, ok := schema.Descriptor("thing", "children")
	assert.True(t, ok)
	assert.True(t, d.ToMany)
	assert.True(t, d.Dependent)

	_, ok = schema.Descriptor("thing", "nope")
	assert.False(t, ok)
}
