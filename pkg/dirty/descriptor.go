package dirty

import (
	"sync"
)

// Descriptor describes one relationship declared on an entity type. Name is the
// relationship name, ToMany is true for ordered collections and false for a single
// reference, and Dependent marks whether changes to this relationship (or dirtiness
// of the entities it references) count toward the owning entity's dirty state.
type Descriptor struct {
	Name      string
	ToMany    bool
	Dependent bool
}

// Schema holds the relationship descriptors for each registered entity type. Types
// are registered once at startup and the schema is read-only afterwards, so lookups
// only take a read lock.
type Schema struct {
	mu    sync.RWMutex
	types map[string][]Descriptor
}

func NewSchema() *Schema {
	return &Schema{types: make(map[string][]Descriptor)}
}

// RegisterType declares the relationships for entityType, replacing any previous
// registration. Registering a type with no descriptors is allowed; such entities
// only ever report their own attribute dirtiness.
func (s *Schema) RegisterType(entityType string, descriptors ...Descriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rels := make([]Descriptor, len(descriptors))
	copy(rels, descriptors)
	s.types[entityType] = rels
}

// Relationships returns the descriptors for entityType. An unregistered type yields
// an empty list.
func (s *Schema) Relationships(entityType string) []Descriptor {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rels := make([]Descriptor, len(s.types[entityType]))
	copy(rels, s.types[entityType])
	return rels
}

// DependentRelationships returns only the descriptors marked Dependent.
func (s *Schema) DependentRelationships(entityType string) []Descriptor {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rels []Descriptor
	for _, d := range s.types[entityType] {
		if d.Dependent {
			rels = append(rels, d)
		}
	}
	return rels
}

// Descriptor looks up a single relationship by name. The second return is false
// when entityType doesn't declare name.
func (s *Schema) Descriptor(entityType, name string) (Descriptor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.types[entityType] {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}
