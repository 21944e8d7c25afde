package dirty

import "sort"

// Value is the resolved value of a relationship: the UUID of a single referenced
// entity for a to-one relationship, or an ordered list of UUIDs for a to-many
// relationship. Values only carry identities, never entity objects, so comparing
// two values can't be confused by wrappers or proxies that alias the same entity.
type Value struct {
	ToMany  bool     `json:"to_many"`
	Target  string   `json:"target,omitempty"`
	Targets []string `json:"targets,omitempty"`
}

// ToOneValue builds the value of a to-one relationship. An empty target means the
// relationship is unset.
func ToOneValue(target string) Value {
	return Value{Target: target}
}

// ToManyValue builds the value of a to-many relationship preserving the collection
// order it was resolved in.
func ToManyValue(targets ...string) Value {
	v := Value{ToMany: true, Targets: make([]string, len(targets))}
	copy(v.Targets, targets)
	return v
}

// All returns every entity UUID the value references. For a to-one value this is a
// zero or one element list.
func (v Value) All() []string {
	if v.ToMany {
		targets := make([]string, len(v.Targets))
		copy(targets, v.Targets)
		return targets
	}

	if v.Target == "" {
		return nil
	}
	return []string{v.Target}
}

func (v Value) IsEmpty() bool {
	if v.ToMany {
		return len(v.Targets) == 0
	}
	return v.Target == ""
}

func (v Value) Clone() Value {
	if !v.ToMany {
		return v
	}
	return ToManyValue(v.Targets...)
}

// Equal compares two values by identity. To-one values compare their single target
// UUID. To-many values compare membership: both sides are copied and sorted before
// the element by element comparison, so a collection that was only reordered still
// compares equal to its snapshot. A to-one value is never equal to a to-many value.
func (v Value) Equal(other Value) bool {
	if v.ToMany != other.ToMany {
		return false
	}

	if !v.ToMany {
		return v.Target == other.Target
	}

	if len(v.Targets) != len(other.Targets) {
		return false
	}

	a := make([]string, len(v.Targets))
	b := make([]string, len(other.Targets))
	copy(a, v.Targets)
	copy(b, other.Targets)
	sort.Strings(a)
	sort.Strings(b)

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

// zeroValueFor returns the empty value matching a descriptor's cardinality. It is
// what comparisons use when no snapshot has been captured yet.
func zeroValueFor(d Descriptor) Value {
	if d.ToMany {
		return Value{ToMany: true}
	}
	return Value{}
}
