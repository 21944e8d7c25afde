package dirty

import (
	"context"
	"errors"
)

var ErrNoSuchEntity = errors.New("no such entity")

var ErrUnknownRelationship = errors.New("unknown relationship")

// Graph is what the tracker needs from the entity store. The store owns entity
// identity, scalar attributes and their pending/saved values, and the relationship
// link rows. The tracker never reaches around this interface.
//
// ResolveRelationship may need to fetch links that aren't cached yet, which is why
// it takes a context: resolution is the one suspension point in the tracker, and a
// resolution failure must surface to whoever triggered it (see Tracker.EntityLoaded
// and Tracker.CommitSucceeded) without leaving partial snapshots behind.
type Graph interface {
	// EntityType returns the registered type name for the entity, used to look up
	// its relationship descriptors in the Schema.
	EntityType(uuid string) (string, error)

	// HasAttributeChanges reports whether the entity has pending scalar attribute
	// modifications. This is the store-owned half of the dirty predicate.
	HasAttributeChanges(uuid string) (bool, error)

	// RollbackAttributes restores the entity's scalar attributes to their last
	// saved values and clears the pending flags.
	RollbackAttributes(uuid string) error

	// ResolveRelationship returns the current value of the named relationship,
	// fetching it if it isn't loaded yet.
	ResolveRelationship(ctx context.Context, uuid, relationship string) (Value, error)

	// SetRelationship assigns a to-one relationship or replaces the contents of a
	// to-many relationship. The store must preserve the identity of the underlying
	// collection so callers holding a reference to it stay valid.
	SetRelationship(ctx context.Context, uuid, relationship string, value Value) error
}
