package dirty

/*
Package dirty tracks whether entities in a graph have unsaved changes. An entity is
considered dirty when its own attributes have pending modifications, when one of its
dependent relationships no longer matches the baseline captured at load or commit time,
or when an entity it currently references through a dependent relationship is itself
dirty. Dirtiness is therefore a property of the graph, not just of a single record.

The package does not own entities. Entities live in an external store (see the Graph
interface) which knows how to look up an entity's type, report and roll back pending
attribute changes, and resolve or mutate relationship links. The tracker attaches its
own auxiliary state to entities through a side table keyed by entity UUID: the
dependent relationship snapshots, and the entity's position in the commit state
machine (saved, uncommitted, in-flight, invalid, deleted).

The flow is: the store loads an entity and calls EntityLoaded, which captures a
baseline snapshot of every dependent relationship. When the store mutates a
relationship it calls RelationshipChanged, which compares the current value against
the snapshot and drives the state machine; after a pending attribute write it calls
AttributeChanged, which re-reads the store's changed flags and drives the same
machine. Rollback restores the snapshots, cascades
into dirty entities referenced by the restored values, and settles the entity back to
saved once nothing dirty remains.

Relationship values are compared by identity only. A to-one relationship diverges when
it points at a different entity UUID. A to-many relationship diverges when the set of
referenced UUIDs changes; both sides are sorted before comparison so reordering the
same members does not count as a change.

All tracker entry points serialize per entity. Cross entity evaluation (a dirty check
or rollback that walks into related entities) assumes the cooperative single writer
model the store provides: no other caller is mutating the graph while a walk is in
progress.
*/
