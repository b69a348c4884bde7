package db

import (
	"context"
	"fmt"
	"time"
)

func (s *PostgresStore) CreateCommandLog(ctx context.Context, entry *CommandLog) error {
	if entry.ID == "" {
		entry.ID = newID()
	}
	if entry.ExecutedAt.IsZero() {
		entry.ExecutedAt = time.Now().UTC()
	}
	if err := s.DB.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("CreateCommandLog: failed to save log for user %s: %w", entry.UserDiscordID, err)
	}
	return nil
}

func (s *PostgresStore) ListCommandLogs(ctx context.Context, limit int) ([]CommandLog, error) {
	var logs []CommandLog
	err := s.DB.WithContext(ctx).
		Order("executed_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

func (s *PostgresStore) CountCommandLogsSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := s.DB.WithContext(ctx).
		Model(&CommandLog{}).
		Where("executed_at >= ?", since.UTC()).
		Count(&count).Error
	return count, err
}
