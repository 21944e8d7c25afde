package dirty

// State is the leaf state an entity occupies in the commit state machine. The
// states mirror the persistence lifecycle: an entity is either settled (saved),
// carrying uncommitted local changes, waiting on an in-flight commit, invalid
// because the last commit was rejected, or somewhere in the deletion lifecycle.
type State int

const (
	// StateUnknown means the tracker has no auxiliary state for the entity yet.
	StateUnknown State = iota

	// StateSaved is clean and persisted.
	StateSaved

	// StateCreatedUncommitted is a locally instantiated entity that has never
	// been sent to persistence.
	StateCreatedUncommitted

	// StateUpdatedUncommitted is a persisted entity with unsaved local changes.
	StateUpdatedUncommitted

	StateCreatedInFlight
	StateUpdatedInFlight

	// Invalid states mean the last commit attempt was rejected. The entity keeps
	// its local changes and a commit can be retried.
	StateCreatedInvalid
	StateUpdatedInvalid

	StateDeletedUncommitted
	StateDeletedInFlight

	// StateDeletedSaved is terminal: the deletion has been confirmed by
	// persistence.
	StateDeletedSaved
)

var stateNames = map[State]string{
	StateUnknown:            "unknown",
	StateSaved:              "saved",
	StateCreatedUncommitted: "created.uncommitted",
	StateUpdatedUncommitted: "updated.uncommitted",
	StateCreatedInFlight:    "created.in-flight",
	StateUpdatedInFlight:    "updated.in-flight",
	StateCreatedInvalid:     "created.invalid",
	StateUpdatedInvalid:     "updated.invalid",
	StateDeletedUncommitted: "deleted.uncommitted",
	StateDeletedInFlight:    "deleted.in-flight",
	StateDeletedSaved:       "deleted.saved",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// InFlight reports whether a commit is currently outstanding for the entity.
func (s State) InFlight() bool {
	return s == StateCreatedInFlight || s == StateUpdatedInFlight || s == StateDeletedInFlight
}

// Invalid reports whether the last commit attempt was rejected.
func (s State) Invalid() bool {
	return s == StateCreatedInvalid || s == StateUpdatedInvalid
}

// Deleted reports whether the entity is anywhere in the deletion lifecycle.
func (s State) Deleted() bool {
	return s == StateDeletedUncommitted || s == StateDeletedInFlight || s == StateDeletedSaved
}

// Frozen reports whether relationship change events may move the entity to a
// different state. While an entity is in-flight, invalid, or deleted, relationship
// churn is still recorded against the snapshots but must not alter its committal
// state.
func (s State) Frozen() bool {
	return s.InFlight() || s.Invalid() || s.Deleted()
}

type event int

const (
	eventBecameDirty event = iota
	eventPropertyReset
	eventCommitStarted
	eventCommitSucceeded
	eventCommitFailed
	eventDeleted
	eventDeleteCommitted
)

var eventNames = map[event]string{
	eventBecameDirty:     "became-dirty",
	eventPropertyReset:   "property-reset",
	eventCommitStarted:   "commit-started",
	eventCommitSucceeded: "commit-succeeded",
	eventCommitFailed:    "commit-failed",
	eventDeleted:         "deleted",
	eventDeleteCommitted: "delete-committed",
}

func (e event) String() string {
	return eventNames[e]
}

type transitionKey struct {
	state State
	ev    event
}

// transitions is the whole state machine as an explicit (state, event) table.
// A missing pair is a documented no-op: in particular there are no entries for
// eventBecameDirty or eventPropertyReset out of the in-flight, invalid, or deleted
// states, which is how relationship churn is kept from disturbing a frozen entity.
var transitions = map[transitionKey]State{
	// Dirtying. A created entity that keeps changing stays created.
	{StateSaved, eventBecameDirty}:              StateUpdatedUncommitted,
	{StateUpdatedUncommitted, eventBecameDirty}: StateUpdatedUncommitted,
	{StateCreatedUncommitted, eventBecameDirty}: StateCreatedUncommitted,

	// Settling back after a reset or rollback leaves nothing dirty. A created
	// entity has never been persisted so it has no saved state to settle into.
	{StateSaved, eventPropertyReset}:              StateSaved,
	{StateUpdatedUncommitted, eventPropertyReset}: StateSaved,
	{StateCreatedUncommitted, eventPropertyReset}: StateCreatedUncommitted,

	// Commit lifecycle. Invalid entities may retry.
	{StateCreatedUncommitted, eventCommitStarted}: StateCreatedInFlight,
	{StateUpdatedUncommitted, eventCommitStarted}: StateUpdatedInFlight,
	{StateDeletedUncommitted, eventCommitStarted}: StateDeletedInFlight,
	{StateCreatedInvalid, eventCommitStarted}:     StateCreatedInFlight,
	{StateUpdatedInvalid, eventCommitStarted}:     StateUpdatedInFlight,

	{StateCreatedInFlight, eventCommitSucceeded}: StateSaved,
	{StateUpdatedInFlight, eventCommitSucceeded}: StateSaved,
	{StateDeletedInFlight, eventCommitSucceeded}: StateDeletedSaved,

	{StateCreatedInFlight, eventCommitFailed}: StateCreatedInvalid,
	{StateUpdatedInFlight, eventCommitFailed}: StateUpdatedInvalid,
	{StateDeletedInFlight, eventCommitFailed}: StateDeletedUncommitted,

	// Deletion. Invalid entities can be deleted too; a rejected commit doesn't
	// pin the entity in place.
	{StateSaved, eventDeleted}:              StateDeletedUncommitted,
	{StateUpdatedUncommitted, eventDeleted}: StateDeletedUncommitted,
	{StateCreatedUncommitted, eventDeleted}: StateDeletedUncommitted,
	{StateCreatedInvalid, eventDeleted}:     StateDeletedUncommitted,
	{StateUpdatedInvalid, eventDeleted}:     StateDeletedUncommitted,

	{StateDeletedUncommitted, eventDeleteCommitted}: StateDeletedSaved,
	{StateDeletedInFlight, eventDeleteCommitted}:    StateDeletedSaved,
}

// nextState returns the state the machine moves to for ev in state s. The second
// return is false when the pair has no transition, which callers treat as a no-op.
func nextState(s State, ev event) (State, bool) {
	next, ok := transitions[transitionKey{state: s, ev: ev}]
	return next, ok
}
