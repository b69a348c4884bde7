package db

import (
	"context"

	"gorm.io/gorm/clause"
)

func (s *PostgresStore) ListServices(ctx context.Context, activeOnly bool) ([]Service, error) {
	var services []Service
	q := s.DB.WithContext(ctx).Order("service_name")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Find(&services).Error
	return services, err
}

func (s *PostgresStore) GetService(ctx context.Context, id string) (*Service, error) {
	var svc Service
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&svc).Error; err != nil {
		return nil, notFound(err)
	}
	return &svc, nil
}

func (s *PostgresStore) GetServiceByName(ctx context.Context, name string) (*Service, error) {
	var svc Service
	if err := s.DB.WithContext(ctx).Where("service_name = ?", name).First(&svc).Error; err != nil {
		return nil, notFound(err)
	}
	return &svc, nil
}

// UpsertService matches on service name and loads the persisted row back
// into svc.
func (s *PostgresStore) UpsertService(ctx context.Context, svc *Service) error {
	if svc.ID == "" {
		svc.ID = newID()
	}
	tx := s.DB.WithContext(ctx)
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "service_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "icon_emoji", "oauth_scope", "is_active"}),
	}).Create(svc).Error
	if err != nil {
		return err
	}

	var stored Service
	if err := tx.Where("service_name = ?", svc.Name).First(&stored).Error; err != nil {
		return notFound(err)
	}
	*svc = stored
	return nil
}
