package dirty

import (
	"context"
	"fmt"
)

// testGraph is an in-memory Graph for exercising the tracker without a real
// store. Attributes are plain string maps with a saved copy, so the pending
// attribute flag is simply "current differs from saved".
type testEntity struct {
	entityType string
	attrs      map[string]string
	saved      map[string]string
	rels       map[string]Value
}

type testGraph struct {
	entities    map[string]*testEntity
	resolveErrs map[string]error
	resolves    int
}

func newTestGraph() *testGraph {
	return &testGraph{
		entities:    make(map[string]*testEntity),
		resolveErrs: make(map[string]error),
	}
}

func (g *testGraph) addEntity(uuid, entityType string) *testEntity {
	e := &testEntity{
		entityType: entityType,
		attrs:      make(map[string]string),
		saved:      make(map[string]string),
		rels:       make(map[string]Value),
	}
	g.entities[uuid] = e
	return e
}

func (g *testGraph) setAttr(uuid, name, val string) {
	g.entities[uuid].attrs[name] = val
}

func (g *testGraph) setSavedAttr(uuid, name, val string) {
	g.entities[uuid].attrs[name] = val
	g.entities[uuid].saved[name] = val
}

func (g *testGraph) attr(uuid, name string) string {
	return g.entities[uuid].attrs[name]
}

func (g *testGraph) setRel(uuid, name string, v Value) {
	g.entities[uuid].rels[name] = v.Clone()
}

func (g *testGraph) failResolve(uuid, name string, err error) {
	g.resolveErrs[uuid+"/"+name] = err
}

func (g *testGraph) EntityType(uuid string) (string, error) {
	e, ok := g.entities[uuid]
	if !ok {
		return "", fmt.Errorf("no entity %s", uuid)
	}
	return e.entityType, nil
}

func (g *testGraph) HasAttributeChanges(uuid string) (bool, error) {
	e, ok := g.entities[uuid]
	if !ok {
		return false, fmt.Errorf("no entity %s", uuid)
	}

	if len(e.attrs) != len(e.saved) {
		return true, nil
	}
	for k, v := range e.attrs {
		if e.saved[k] != v {
			return true, nil
		}
	}
	return false, nil
}

func (g *testGraph) RollbackAttributes(uuid string) error {
	e, ok := g.entities[uuid]
	if !ok {
		return fmt.Errorf("no entity %s", uuid)
	}

	e.attrs = make(map[string]string, len(e.saved))
	for k, v := range e.saved {
		e.attrs[k] = v
	}
	return nil
}

func (g *testGraph) ResolveRelationship(_ context.Context, uuid, relationship string) (Value, error) {
	if err, ok := g.resolveErrs[uuid+"/"+relationship]; ok {
		return Value{}, err
	}

	e, ok := g.entities[uuid]
	if !ok {
		return Value{}, fmt.Errorf("no entity %s", uuid)
	}

	g.resolves++
	return e.rels[relationship].Clone(), nil
}

func (g *testGraph) SetRelationship(_ context.Context, uuid, relationship string, value Value) error {
	e, ok := g.entities[uuid]
	if !ok {
		return fmt.Errorf("no entity %s", uuid)
	}

	e.rels[relationship] = value.Clone()
	return nil
}
