package gmodel

import "time"

// Entity is one row in the entities table. EntityType names the registered type
// whose relationship descriptors apply to the entity. The UUID is the identity
// everything else (attributes, links, tracker state) is keyed by.
type Entity struct {
	ID         int         `json:"id"`
	UUID       string      `json:"uuid"`
	EntityType string      `json:"entity_type"`
	Name       string      `json:"name"`
	Attributes []Attribute `json:"attributes" gorm:"foreignKey:EntityID;references:ID"`
	Links      []Link      `json:"links" gorm:"foreignKey:OwnerID;references:ID"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

func (Entity) TableName() string {
	return "entities"
}
