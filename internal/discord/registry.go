package discord

import (
	"context"
	"fmt"

	"BotDeck/db"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// CommandRegistrar is the part of *discordgo.Session used to publish slash
// commands.
type CommandRegistrar interface {
	ApplicationCommandBulkOverwrite(appID string, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

type Registry struct {
	api      CommandRegistrar
	commands db.CommandStore
	appID    string
	guildID  string
	logger   *zap.Logger
}

func NewRegistry(api CommandRegistrar, commands db.CommandStore, appID, guildID string, logger *zap.Logger) *Registry {
	return &Registry{api: api, commands: commands, appID: appID, guildID: guildID, logger: logger}
}

// Sync replaces the registered slash commands with the enabled commands from
// the store. Both scopes are cleared first so renamed or removed commands do
// not survive. A failed fetch registers nothing.
func (r *Registry) Sync(ctx context.Context) ([]*discordgo.ApplicationCommand, error) {
	stored, err := r.commands.ListCommands(ctx, true)
	if err != nil {
		r.logger.Error("Failed to fetch commands, registering none", zap.Error(err))
		stored = nil
	}
	defs := r.BuildCommands(stored)

	var clearErr error
	if _, err := r.api.ApplicationCommandBulkOverwrite(r.appID, r.guildID, []*discordgo.ApplicationCommand{}); err != nil {
		clearErr = multierr.Append(clearErr, fmt.Errorf("clear guild commands: %w", err))
	}
	if _, err := r.api.ApplicationCommandBulkOverwrite(r.appID, "", []*discordgo.ApplicationCommand{}); err != nil {
		clearErr = multierr.Append(clearErr, fmt.Errorf("clear global commands: %w", err))
	}
	if clearErr != nil {
		r.logger.Warn("Failed to clear registered commands", zap.Error(clearErr))
	}

	registered, err := r.api.ApplicationCommandBulkOverwrite(r.appID, r.guildID, defs)
	if err != nil {
		r.logger.Error("Failed to register commands", zap.Error(err))
		return nil, fmt.Errorf("register guild commands: %w", err)
	}

	r.logger.Info("Commands registered", zap.Int("count", len(registered)), zap.String("guild_id", r.guildID))
	return registered, nil
}

// BuildCommands maps stored commands onto chat commands, keeping the first
// command of each name.
func (r *Registry) BuildCommands(stored []db.BotCommand) []*discordgo.ApplicationCommand {
	adminPerm := int64(discordgo.PermissionAdministrator)
	seen := make(map[string]bool, len(stored))
	defs := make([]*discordgo.ApplicationCommand, 0, len(stored))

	for _, cmd := range stored {
		if seen[cmd.Name] {
			r.logger.Warn("Dropping duplicate command", zap.String("command", cmd.Name), zap.String("id", cmd.ID))
			continue
		}
		seen[cmd.Name] = true

		def := &discordgo.ApplicationCommand{
			Name:        cmd.Name,
			Description: cmd.Description,
			Type:        discordgo.ChatApplicationCommand,
		}
		if def.Description == "" {
			def.Description = cmd.Name
		}
		if cmd.AdminOnly {
			def.DefaultMemberPermissions = &adminPerm
		}
		defs = append(defs, def)
	}
	return defs
}
