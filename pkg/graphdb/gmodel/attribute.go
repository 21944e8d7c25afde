package gmodel

// Attribute is one scalar field on an entity. The store keeps both the pending
// value (Val) and the last persisted value (SavedVal); Changed is the per-field
// dirty flag. Setting a field back to its saved value clears the flag, so the
// entity level "has pending changes" check never reports stale dirtiness.
type Attribute struct {
	ID       int    `json:"id"`
	EntityID int    `json:"entity_id"`
	Name     string `json:"name"`
	Val      string `json:"val"`
	SavedVal string `json:"saved_val"`
	Changed  bool   `json:"changed"`
}

func (Attribute) TableName() string {
	return "attributes"
}
