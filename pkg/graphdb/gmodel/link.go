package gmodel

// Link is one relationship edge row: owner entity, relationship name, target
// entity. To-many relationships keep their collection order through Position;
// a to-one relationship is a single row with Position zero.
type Link struct {
	ID       int     `json:"id"`
	OwnerID  int     `json:"owner_id"`
	Name     string  `json:"name"`
	TargetID int     `json:"target_id"`
	Position int     `json:"position"`
	Target   *Entity `json:"target" gorm:"foreignKey:TargetID;references:ID"`
}

func (Link) TableName() string {
	return "links"
}
