package stor

import (
	"sort"
	"sync"

	"github.com/driftkit/drift/pkg/graphdb/gmodel"
	"github.com/hashicorp/go-uuid"
)

// memGraph is the shared backing state for the in-memory stors. The entity and
// link stors operate on the same instance so tests exercise one consistent
// graph through both interfaces.
type memGraph struct {
	mu       sync.Mutex
	nextID   int
	entities map[string]*memEntity
}

type memEntity struct {
	entity gmodel.Entity
	attrs  map[string]*gmodel.Attribute
	links  map[string][]string
}

func newMemGraph() *memGraph {
	return &memGraph{entities: make(map[string]*memEntity)}
}

func (g *memGraph) get(entityUUID string) (*memEntity, error) {
	e, ok := g.entities[entityUUID]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

type InMemoryEntityStor struct {
	g *memGraph
}

func NewInMemoryEntityStor(g *memGraph) *InMemoryEntityStor {
	return &InMemoryEntityStor{g: g}
}

func (s *InMemoryEntityStor) CreateEntity(entity *gmodel.Entity) (*gmodel.Entity, error) {
	var err error

	if entity.UUID == "" {
		if entity.UUID, err = uuid.GenerateUUID(); err != nil {
			return nil, err
		}
	}

	s.g.mu.Lock()
	defer s.g.mu.Unlock()

	s.g.nextID++
	entity.ID = s.g.nextID
	s.g.entities[entity.UUID] = &memEntity{
		entity: *entity,
		attrs:  make(map[string]*gmodel.Attribute),
		links:  make(map[string][]string),
	}

	return entity, nil
}

func (s *InMemoryEntityStor) GetEntityByUUID(entityUUID string) (*gmodel.Entity, error) {
	s.g.mu.Lock()
	defer s.g.mu.Unlock()

	e, err := s.g.get(entityUUID)
	if err != nil {
		return nil, err
	}

	entity := e.entity
	entity.Attributes = nil
	for _, attr := range e.attrs {
		entity.Attributes = append(entity.Attributes, *attr)
	}
	sort.Slice(entity.Attributes, func(i, j int) bool {
		return entity.Attributes[i].Name < entity.Attributes[j].Name
	})

	return &entity, nil
}

func (s *InMemoryEntityStor) GetEntityType(entityUUID string) (string, error) {
	s.g.mu.Lock()
	defer s.g.mu.Unlock()

	e, err := s.g.get(entityUUID)
	if err != nil {
		return "", err
	}
	return e.entity.EntityType, nil
}

func (s *InMemoryEntityStor) ListEntities() ([]gmodel.Entity, error) {
	s.g.mu.Lock()
	defer s.g.mu.Unlock()

	var entities []gmodel.Entity
	for _, e := range s.g.entities {
		entities = append(entities, e.entity)
	}
	sort.Slice(entities, func(i, j int) bool {
		return entities[i].ID < entities[j].ID
	})

	return entities, nil
}

func (s *InMemoryEntityStor) DeleteEntityByUUID(entityUUID string) error {
	s.g.mu.Lock()
	defer s.g.mu.Unlock()

	if _, err := s.g.get(entityUUID); err != nil {
		return err
	}

	delete(s.g.entities, entityUUID)

	// Drop every link pointing at the deleted entity.
	for _, e := range s.g.entities {
		for name, targets := range e.links {
			var kept []string
			for _, target := range targets {
				if target != entityUUID {
					kept = append(kept, target)
				}
			}
			e.links[name] = kept
		}
	}

	return nil
}

func (s *InMemoryEntityStor) SetAttribute(entityUUID, name, val string) error {
	s.g.mu.Lock()
	defer s.g.mu.Unlock()

	e, err := s.g.get(entityUUID)
	if err != nil {
		return err
	}

	attr, ok := e.attrs[name]
	if !ok {
		e.attrs[name] = &gmodel.Attribute{
			EntityID: e.entity.ID,
			Name:     name,
			Val:      val,
			Changed:  true,
		}
		return nil
	}

	attr.Val = val
	attr.Changed = val != attr.SavedVal
	return nil
}

func (s *InMemoryEntityStor) GetAttributes(entityUUID string) ([]gmodel.Attribute, error) {
	s.g.mu.Lock()
	defer s.g.mu.Unlock()

	e, err := s.g.get(entityUUID)
	if err != nil {
		return nil, err
	}

	var attrs []gmodel.Attribute
	for _, attr := range e.attrs {
		attrs = append(attrs, *attr)
	}
	sort.Slice(attrs, func(i, j int) bool {
		return attrs[i].Name < attrs[j].Name
	})

	return attrs, nil
}

func (s *InMemoryEntityStor) HasAttributeChanges(entityUUID string) (bool, error) {
	s.g.mu.Lock()
	defer s.g.mu.Unlock()

	e, err := s.g.get(entityUUID)
	if err != nil {
		return false, err
	}

	for _, attr := range e.attrs {
		if attr.Changed {
			return true, nil
		}
	}

	return false, nil
}

func (s *InMemoryEntityStor) RollbackAttributes(entityUUID string) error {
	s.g.mu.Lock()
	defer s.g.mu.Unlock()

	e, err := s.g.get(entityUUID)
	if err != nil {
		return err
	}

	for _, attr := range e.attrs {
		if attr.Changed {
			attr.Val = attr.SavedVal
			attr.Changed = false
		}
	}

	return nil
}

func (s *InMemoryEntityStor) MarkAttributesSaved(entityUUID string) error {
	s.g.mu.Lock()
	defer s.g.mu.Unlock()

	e, err := s.g.get(entityUUID)
	if err != nil {
		return err
	}

	for _, attr := range e.attrs {
		attr.SavedVal = attr.Val
		attr.Changed = false
	}

	return nil
}
