package db

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// GetBotStatus picks the most recently updated row so that a table holding
// several rows still resolves deterministically.
func (s *PostgresStore) GetBotStatus(ctx context.Context) (*BotStatus, error) {
	var status BotStatus
	err := s.DB.WithContext(ctx).
		Order("updated_at DESC, id").
		First(&status).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &status, nil
}

func (s *PostgresStore) SetBotStatus(ctx context.Context, active bool, updatedBy string) (*BotStatus, error) {
	var result BotStatus
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Order("updated_at DESC, id").First(&result).Error
		if err != nil && err != gorm.ErrRecordNotFound {
			return err
		}

		result.IsActive = active
		result.UpdatedAt = time.Now().UTC()
		if updatedBy != "" {
			result.UpdatedBy = &updatedBy
		}
		if result.ID == "" {
			result.ID = newID()
			return tx.Create(&result).Error
		}
		return tx.Model(&BotStatus{}).
			Where("id = ?", result.ID).
			Updates(map[string]any{
				"is_active":  result.IsActive,
				"updated_by": result.UpdatedBy,
				"updated_at": result.UpdatedAt,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
