package db

import (
	"context"
	"time"

	"gorm.io/gorm/clause"
)

// UpsertConnection keeps the stored refresh token when conn carries none, and
// loads the persisted row back into conn.
func (s *PostgresStore) UpsertConnection(ctx context.Context, conn *UserServiceConnection) error {
	if conn.ID == "" {
		conn.ID = newID()
	}
	conn.UpdatedAt = time.Now().UTC()

	columns := []string{
		"is_connected",
		"access_token",
		"token_expires_at",
		"connected_at",
		"updated_at",
	}
	if conn.RefreshToken != nil {
		columns = append(columns, "refresh_token")
	}

	tx := s.DB.WithContext(ctx)
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_discord_id"}, {Name: "service_id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Omit("Service").Create(conn).Error
	if err != nil {
		return err
	}

	var stored UserServiceConnection
	err = tx.
		Where("user_discord_id = ? AND service_id = ?", conn.UserDiscordID, conn.ServiceID).
		First(&stored).Error
	if err != nil {
		return notFound(err)
	}
	*conn = stored
	return nil
}

func (s *PostgresStore) GetConnection(ctx context.Context, userDiscordID, serviceID string) (*UserServiceConnection, error) {
	var conn UserServiceConnection
	err := s.DB.WithContext(ctx).
		Preload("Service").
		Where("user_discord_id = ? AND service_id = ?", userDiscordID, serviceID).
		First(&conn).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &conn, nil
}

func (s *PostgresStore) ListConnections(ctx context.Context, userDiscordID string) ([]UserServiceConnection, error) {
	var conns []UserServiceConnection
	q := s.DB.WithContext(ctx).Preload("Service").Order("updated_at DESC")
	if userDiscordID != "" {
		q = q.Where("user_discord_id = ?", userDiscordID)
	}
	err := q.Find(&conns).Error
	return conns, err
}

// DisconnectService clears tokens for the pair. A missing row is not an error.
func (s *PostgresStore) DisconnectService(ctx context.Context, userDiscordID, serviceID string) error {
	return s.DB.WithContext(ctx).
		Model(&UserServiceConnection{}).
		Where("user_discord_id = ? AND service_id = ?", userDiscordID, serviceID).
		Updates(map[string]any{
			"is_connected":     false,
			"access_token":     nil,
			"refresh_token":    nil,
			"token_expires_at": nil,
			"updated_at":       time.Now().UTC(),
		}).Error
}
