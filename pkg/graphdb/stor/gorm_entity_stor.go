package stor

import (
	"errors"

	"github.com/driftkit/drift/pkg/graphdb/gmodel"
	"github.com/hashicorp/go-uuid"
	"gorm.io/gorm"
)

type GormEntityStor struct {
	db *gorm.DB
}

func NewGormEntityStor(db *gorm.DB) *GormEntityStor {
	return &GormEntityStor{db: db}
}

// CreateEntity creates a new entity, assigning it a UUID if the caller didn't
// supply one.
func (s *GormEntityStor) CreateEntity(entity *gmodel.Entity) (*gmodel.Entity, error) {
	var err error

	if entity.UUID == "" {
		if entity.UUID, err = uuid.GenerateUUID(); err != nil {
			return nil, err
		}
	}

	err = WithTxRetry(s.db, func(tx *gorm.DB) error {
		return tx.Create(entity).Error
	})

	if err != nil {
		return nil, err
	}

	return entity, nil
}

func (s *GormEntityStor) GetEntityByUUID(entityUUID string) (*gmodel.Entity, error) {
	var entity gmodel.Entity
	err := s.db.Preload("Attributes").
		Preload("Links").
		Where("uuid = ?", entityUUID).
		First(&entity).Error
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

func (s *GormEntityStor) GetEntityType(entityUUID string) (string, error) {
	var entity gmodel.Entity
	if err := s.db.Select("entity_type").Where("uuid = ?", entityUUID).First(&entity).Error; err != nil {
		return "", err
	}
	return entity.EntityType, nil
}

func (s *GormEntityStor) ListEntities() ([]gmodel.Entity, error) {
	var entities []gmodel.Entity
	result := s.db.Find(&entities)
	return entities, result.Error
}

// DeleteEntityByUUID removes the entity along with its attributes and every
// link row that mentions it, on either side.
func (s *GormEntityStor) DeleteEntityByUUID(entityUUID string) error {
	return WithTxRetry(s.db, func(tx *gorm.DB) error {
		var entity gmodel.Entity
		if err := tx.Where("uuid = ?", entityUUID).First(&entity).Error; err != nil {
			return err
		}

		if err := tx.Where("entity_id = ?", entity.ID).Delete(&gmodel.Attribute{}).Error; err != nil {
			return err
		}

		if err := tx.Where("owner_id = ? or target_id = ?", entity.ID, entity.ID).Delete(&gmodel.Link{}).Error; err != nil {
			return err
		}

		return tx.Delete(&entity).Error
	})
}

// SetAttribute writes a pending value for the named field. The Changed flag
// tracks divergence from SavedVal, so setting a field back to its saved value
// clears the flag.
func (s *GormEntityStor) SetAttribute(entityUUID, name, val string) error {
	return WithTxRetry(s.db, func(tx *gorm.DB) error {
		var entity gmodel.Entity
		if err := tx.Select("id").Where("uuid = ?", entityUUID).First(&entity).Error; err != nil {
			return err
		}

		var attr gmodel.Attribute
		err := tx.Where("entity_id = ? and name = ?", entity.ID, name).First(&attr).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			attr = gmodel.Attribute{
				EntityID: entity.ID,
				Name:     name,
				Val:      val,
				Changed:  true,
			}
			return tx.Create(&attr).Error
		case err != nil:
			return err
		default:
			return tx.Model(&attr).Updates(map[string]interface{}{
				"val":     val,
				"changed": val != attr.SavedVal,
			}).Error
		}
	})
}

func (s *GormEntityStor) GetAttributes(entityUUID string) ([]gmodel.Attribute, error) {
	var entity gmodel.Entity
	if err := s.db.Select("id").Where("uuid = ?", entityUUID).First(&entity).Error; err != nil {
		return nil, err
	}

	var attrs []gmodel.Attribute
	result := s.db.Where("entity_id = ?", entity.ID).Order("name").Find(&attrs)
	return attrs, result.Error
}

func (s *GormEntityStor) HasAttributeChanges(entityUUID string) (bool, error) {
	var entity gmodel.Entity
	if err := s.db.Select("id").Where("uuid = ?", entityUUID).First(&entity).Error; err != nil {
		return false, err
	}

	var count int64
	err := s.db.Model(&gmodel.Attribute{}).
		Where("entity_id = ? and changed = ?", entity.ID, true).
		Count(&count).Error
	return count > 0, err
}

// RollbackAttributes discards pending values, putting every changed field back
// to its last saved value.
func (s *GormEntityStor) RollbackAttributes(entityUUID string) error {
	return WithTxRetry(s.db, func(tx *gorm.DB) error {
		var entity gmodel.Entity
		if err := tx.Select("id").Where("uuid = ?", entityUUID).First(&entity).Error; err != nil {
			return err
		}

		return tx.Model(&gmodel.Attribute{}).
			Where("entity_id = ? and changed = ?", entity.ID, true).
			Updates(map[string]interface{}{
				"val":     gorm.Expr("saved_val"),
				"changed": false,
			}).Error
	})
}

// MarkAttributesSaved promotes every pending value to the saved value. Called
// after a successful commit upstream.
func (s *GormEntityStor) MarkAttributesSaved(entityUUID string) error {
	return WithTxRetry(s.db, func(tx *gorm.DB) error {
		var entity gmodel.Entity
		if err := tx.Select("id").Where("uuid = ?", entityUUID).First(&entity).Error; err != nil {
			return err
		}

		return tx.Model(&gmodel.Attribute{}).
			Where("entity_id = ?", entity.ID).
			Updates(map[string]interface{}{
				"saved_val": gorm.Expr("val"),
				"changed":   false,
			}).Error
	})
}
