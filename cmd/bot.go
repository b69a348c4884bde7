package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"BotDeck/config"
	"BotDeck/internal/botstate"
	"BotDeck/internal/discord"
	"BotDeck/scheduler"
	"BotDeck/utils"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Discord bot",
	RunE:  runBot,
}

func runBot(cmd *cobra.Command, _ []string) (err error) {
	cfg, err := config.LoadEnv()
	if err != nil {
		return err
	}
	if err := cfg.ValidateBot(); err != nil {
		return err
	}
	logger, err := utils.NewLogger(cfg.Env)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openSeededStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, store.Close()) }()

	links, err := newLinking(cfg, store, logger)
	if err != nil {
		return err
	}

	state := botstate.New(time.Now())
	poller := scheduler.NewStatusPoller(store, state, cfg.Bot.StatusPollInterval, logger.Named("status"))

	handlers := discord.NewHandlers(store, links.linker, links.creator, state)
	bot, err := discord.NewBot(discord.BotConfig{
		Token:   cfg.Discord.Token,
		AppID:   cfg.Discord.ClientID,
		GuildID: cfg.Discord.GuildID,
	}, store, handlers, state, logger.Named("discord"))
	if err != nil {
		return err
	}

	logger.Info("Starting bot",
		zap.String("guild_id", cfg.Discord.GuildID),
		zap.Duration("status_poll_interval", cfg.Bot.StatusPollInterval))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return poller.Start(gctx) })
	g.Go(func() error { return bot.Run(gctx) })
	return g.Wait()
}
