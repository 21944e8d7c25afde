package stor

import (
	"github.com/driftkit/drift/pkg/graphdb/gmodel"
	"gorm.io/gorm"
)

type GormLinkStor struct {
	db *gorm.DB
}

func NewGormLinkStor(db *gorm.DB) *GormLinkStor {
	return &GormLinkStor{db: db}
}

func (s *GormLinkStor) ResolveTargets(ownerUUID, name string) ([]string, error) {
	if _, err := getEntityID(s.db, ownerUUID); err != nil {
		return nil, err
	}

	var targetUUIDs []string
	err := s.db.Table("links").
		Joins("join entities owner on owner.id = links.owner_id").
		Joins("join entities target on target.id = links.target_id").
		Where("owner.uuid = ? and links.name = ?", ownerUUID, name).
		Order("links.position").
		Pluck("target.uuid", &targetUUIDs).Error
	return targetUUIDs, err
}

// SetToOne points a to-one relationship at targetUUID. An empty targetUUID
// clears the relationship.
func (s *GormLinkStor) SetToOne(ownerUUID, name, targetUUID string) error {
	if targetUUID == "" {
		return s.ReplaceLinks(ownerUUID, name, nil)
	}
	return s.ReplaceLinks(ownerUUID, name, []string{targetUUID})
}

// ReplaceLinks swaps the relationship's rows for the given targets, preserving
// the order they are passed in as the collection order.
func (s *GormLinkStor) ReplaceLinks(ownerUUID, name string, targetUUIDs []string) error {
	return WithTxRetry(s.db, func(tx *gorm.DB) error {
		ownerID, err := getEntityID(tx, ownerUUID)
		if err != nil {
			return err
		}

		if err := tx.Where("owner_id = ? and name = ?", ownerID, name).Delete(&gmodel.Link{}).Error; err != nil {
			return err
		}

		for i, targetUUID := range targetUUIDs {
			targetID, err := getEntityID(tx, targetUUID)
			if err != nil {
				return err
			}

			link := gmodel.Link{
				OwnerID:  ownerID,
				Name:     name,
				TargetID: targetID,
				Position: i,
			}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// AddLink appends targetUUID to the end of the collection if it isn't already
// a member.
func (s *GormLinkStor) AddLink(ownerUUID, name, targetUUID string) error {
	return WithTxRetry(s.db, func(tx *gorm.DB) error {
		ownerID, err := getEntityID(tx, ownerUUID)
		if err != nil {
			return err
		}

		targetID, err := getEntityID(tx, targetUUID)
		if err != nil {
			return err
		}

		var count int64
		err = tx.Model(&gmodel.Link{}).
			Where("owner_id = ? and name = ? and target_id = ?", ownerID, name, targetID).
			Count(&count).Error
		if err != nil || count > 0 {
			return err
		}

		var maxPosition int
		row := tx.Model(&gmodel.Link{}).
			Where("owner_id = ? and name = ?", ownerID, name).
			Select("coalesce(max(position), -1)").
			Row()
		if err := row.Scan(&maxPosition); err != nil {
			return err
		}

		link := gmodel.Link{
			OwnerID:  ownerID,
			Name:     name,
			TargetID: targetID,
			Position: maxPosition + 1,
		}
		return tx.Create(&link).Error
	})
}

// RemoveLink drops targetUUID from the collection and renumbers the remaining
// rows so positions stay dense.
func (s *GormLinkStor) RemoveLink(ownerUUID, name, targetUUID string) error {
	return WithTxRetry(s.db, func(tx *gorm.DB) error {
		ownerID, err := getEntityID(tx, ownerUUID)
		if err != nil {
			return err
		}

		targetID, err := getEntityID(tx, targetUUID)
		if err != nil {
			return err
		}

		err = tx.Where("owner_id = ? and name = ? and target_id = ?", ownerID, name, targetID).
			Delete(&gmodel.Link{}).Error
		if err != nil {
			return err
		}

		var remaining []gmodel.Link
		err = tx.Where("owner_id = ? and name = ?", ownerID, name).
			Order("position").
			Find(&remaining).Error
		if err != nil {
			return err
		}

		for i := range remaining {
			if remaining[i].Position == i {
				continue
			}
			if err := tx.Model(&remaining[i]).Update("position", i).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

func getEntityID(tx *gorm.DB, entityUUID string) (int, error) {
	var entity gmodel.Entity
	if err := tx.Select("id").Where("uuid = ?", entityUUID).First(&entity).Error; err != nil {
		return 0, err
	}
	return entity.ID, nil
}
