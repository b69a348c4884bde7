package db

import (
	"context"
	"time"
)

func (s *PostgresStore) ListCommands(ctx context.Context, enabledOnly bool) ([]BotCommand, error) {
	var cmds []BotCommand
	q := s.DB.WithContext(ctx).Order("command_name")
	if enabledOnly {
		q = q.Where("is_enabled = ?", true)
	}
	err := q.Find(&cmds).Error
	return cmds, err
}

func (s *PostgresStore) GetCommand(ctx context.Context, id string) (*BotCommand, error) {
	var cmd BotCommand
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&cmd).Error; err != nil {
		return nil, notFound(err)
	}
	return &cmd, nil
}

func (s *PostgresStore) GetCommandByName(ctx context.Context, name string) (*BotCommand, error) {
	var cmd BotCommand
	err := s.DB.WithContext(ctx).
		Where("command_name = ?", name).
		Order("is_enabled DESC, updated_at DESC").
		First(&cmd).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &cmd, nil
}

func (s *PostgresStore) CreateCommand(ctx context.Context, cmd *BotCommand) error {
	if cmd.ID == "" {
		cmd.ID = newID()
	}
	if cmd.Type == "" {
		cmd.Type = CommandTypeSlash
	}
	return s.DB.WithContext(ctx).Create(cmd).Error
}

func (s *PostgresStore) UpdateCommand(ctx context.Context, cmd *BotCommand) error {
	res := s.DB.WithContext(ctx).
		Model(&BotCommand{}).
		Where("id = ?", cmd.ID).
		Updates(map[string]any{
			"command_name":  cmd.Name,
			"description":   cmd.Description,
			"command_type":  cmd.Type,
			"is_enabled":    cmd.Enabled,
			"is_admin_only": cmd.AdminOnly,
			"updated_at":    time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteCommand(ctx context.Context, id string) error {
	res := s.DB.WithContext(ctx).Where("id = ?", id).Delete(&BotCommand{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
