package db

import (
	"context"
	"time"

	"gorm.io/datatypes"
)

func (s *PostgresStore) CreateOperation(ctx context.Context, op *GCPOperation) error {
	if op.ID == "" {
		op.ID = newID()
	}
	if op.Status == "" {
		op.Status = OperationPending
	}
	return s.DB.WithContext(ctx).Create(op).Error
}

// CompleteOperation moves a pending row to its final status. Rows that have
// already left pending are not touched.
func (s *PostgresStore) CompleteOperation(ctx context.Context, id, status string, details []byte) error {
	res := s.DB.WithContext(ctx).
		Model(&GCPOperation{}).
		Where("id = ? AND status = ?", id, OperationPending).
		Updates(map[string]any{
			"status":       status,
			"details":      datatypes.JSON(details),
			"completed_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListOperations(ctx context.Context, limit int) ([]GCPOperation, error) {
	var ops []GCPOperation
	err := s.DB.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&ops).Error
	return ops, err
}
