// Package discord runs the gateway session: it syncs slash commands on
// Ready, routes interactions and records the guilds the bot joins.
package discord

import (
	"context"
	"fmt"
	"sync"
	"time"

	"BotDeck/db"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

type Bot struct {
	session  *discordgo.Session
	registry *Registry
	router   *Router
	servers  db.ServerStore
	logger   *zap.Logger
	syncOnce sync.Once
}

type BotConfig struct {
	Token   string
	AppID   string
	GuildID string
}

// NewBot wires the session handlers. Events are delivered one at a time.
func NewBot(cfg BotConfig, store db.Store, handlers *Handlers, state ActiveReader, logger *zap.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.SyncEvents = true
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	router := NewRouter(session, state, store, logger.Named("router"))
	handlers.Register(router)

	b := &Bot{
		session:  session,
		registry: NewRegistry(session, store, cfg.AppID, cfg.GuildID, logger.Named("registry")),
		router:   router,
		servers:  store,
		logger:   logger,
	}
	session.AddHandler(b.onReady)
	session.AddHandler(router.OnInteractionCreate)
	session.AddHandler(b.onGuildCreate)
	return b, nil
}

// Run opens the gateway connection and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	b.logger.Info("Discord session opened")

	<-ctx.Done()
	if err := b.session.Close(); err != nil {
		return fmt.Errorf("close discord session: %w", err)
	}
	b.logger.Info("Discord session closed")
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.logger.Info("Logged in", zap.String("user", r.User.Username), zap.Int("guilds", len(r.Guilds)))
	b.syncOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_, _ = b.registry.Sync(ctx)
	})
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if g == nil || g.Guild == nil || g.Unavailable {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := RecordGuild(ctx, b.servers, g.Guild); err != nil {
		b.logger.Warn("Failed to record guild", zap.String("guild_id", g.ID), zap.Error(err))
	}
}

// RecordGuild upserts the dashboard row for a guild the bot is in.
func RecordGuild(ctx context.Context, servers db.ServerStore, g *discordgo.Guild) error {
	srv := &db.DiscordServer{
		ServerID:   g.ID,
		ServerName: g.Name,
		IsActive:   true,
	}
	if g.Icon != "" {
		icon := g.IconURL("")
		srv.IconURL = &icon
	}
	return servers.UpsertServer(ctx, srv)
}
