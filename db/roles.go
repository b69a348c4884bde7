package db

import (
	"context"
	"time"

	"gorm.io/gorm/clause"
)

func (s *PostgresStore) HasRole(ctx context.Context, userID, role string) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).
		Model(&UserRole{}).
		Where("user_id = ? AND role = ?", userID, role).
		Count(&count).Error
	return count > 0, err
}

func (s *PostgresStore) GrantRole(ctx context.Context, userID, role string) error {
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&UserRole{ID: newID(), UserID: userID, Role: role, CreatedAt: time.Now().UTC()}).Error
}
