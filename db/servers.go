package db

import (
	"context"
	"time"

	"gorm.io/gorm/clause"
)

func (s *PostgresStore) ListServers(ctx context.Context, activeOnly bool) ([]DiscordServer, error) {
	var servers []DiscordServer
	q := s.DB.WithContext(ctx).Order("created_at DESC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Find(&servers).Error
	return servers, err
}

func (s *PostgresStore) UpsertServer(ctx context.Context, srv *DiscordServer) error {
	now := time.Now().UTC()
	if srv.ID == "" {
		srv.ID = newID()
	}
	if srv.CreatedAt.IsZero() {
		srv.CreatedAt = now
	}
	srv.UpdatedAt = now

	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "server_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"server_name", "icon_url", "is_active", "updated_at"}),
	}).Create(srv).Error
}

func (s *PostgresStore) DeleteServer(ctx context.Context, id string) error {
	res := s.DB.WithContext(ctx).Where("id = ?", id).Delete(&DiscordServer{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
