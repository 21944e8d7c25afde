package stor

import (
	"github.com/driftkit/drift/pkg/graphdb/gmodel"
	"gorm.io/gorm"
)

// ErrNotFound is the not-found sentinel for every stor implementation. The gorm
// stors surface it naturally; the in-memory stors return it so callers can use
// a single errors.Is check regardless of the backing implementation.
var ErrNotFound = gorm.ErrRecordNotFound

type EntityStor interface {
	CreateEntity(entity *gmodel.Entity) (*gmodel.Entity, error)
	GetEntityByUUID(entityUUID string) (*gmodel.Entity, error)
	GetEntityType(entityUUID string) (string, error)
	ListEntities() ([]gmodel.Entity, error)
	DeleteEntityByUUID(entityUUID string) error
	SetAttribute(entityUUID, name, val string) error
	GetAttributes(entityUUID string) ([]gmodel.Attribute, error)
	HasAttributeChanges(entityUUID string) (bool, error)
	RollbackAttributes(entityUUID string) error
	MarkAttributesSaved(entityUUID string) error
}

type LinkStor interface {
	// ResolveTargets returns the target UUIDs for the named relationship in
	// collection order. A to-one relationship yields zero or one target.
	ResolveTargets(ownerUUID, name string) ([]string, error)
	SetToOne(ownerUUID, name, targetUUID string) error
	ReplaceLinks(ownerUUID, name string, targetUUIDs []string) error
	AddLink(ownerUUID, name, targetUUID string) error
	RemoveLink(ownerUUID, name, targetUUID string) error
}

type Stors struct {
	EntityStor EntityStor
	LinkStor   LinkStor
}

func NewGormStors(db *gorm.DB) *Stors {
	return &Stors{
		EntityStor: NewGormEntityStor(db),
		LinkStor:   NewGormLinkStor(db),
	}
}

func NewInMemoryStors() *Stors {
	g := newMemGraph()
	return &Stors{
		EntityStor: NewInMemoryEntityStor(g),
		LinkStor:   NewInMemoryLinkStor(g),
	}
}
