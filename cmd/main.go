package main

import (
	"context"
	"fmt"
	"os"

	"BotDeck/config"
	"BotDeck/db"
	"BotDeck/internal/calendar"
	"BotDeck/internal/oauth"
	"BotDeck/utils"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "botdeck",
	Short: "Discord bot and backend for the BotDeck dashboard",
	Long: `botdeck runs the two halves of BotDeck:

  botdeck serve   # HTTP backend: bot API, OAuth linking, calendar, dashboard
  botdeck bot     # Discord gateway bot
  botdeck check   # Report configuration and backend connectivity`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(botCmd)
	rootCmd.AddCommand(checkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (db.Store, error) {
	if cfg.Store.Driver == "memory" {
		logger.Warn("Using in-memory store, data will not persist")
		return db.NewMemoryStore(), nil
	}
	return db.Open(ctx, cfg.Database, logger.Named("db"))
}

// openSeededStore opens the store and applies the embedded service catalog
// and default commands.
func openSeededStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (db.Store, error) {
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := db.Seed(ctx, store); err != nil {
		return nil, multierr.Append(fmt.Errorf("seed store: %w", err), store.Close())
	}
	return store, nil
}

// linking bundles the account linker and the calendar creator built on it.
type linking struct {
	linker  *oauth.Linker
	creator *calendar.Creator
}

func newLinking(cfg *config.Config, store db.Store, logger *zap.Logger) (*linking, error) {
	keys, err := utils.DeriveKeys(cfg.Secret)
	if err != nil {
		return nil, err
	}
	cipher, err := utils.NewCipher(keys.Token)
	if err != nil {
		return nil, err
	}
	signer := utils.NewStateSigner(keys.State, cfg.OAuth.StateTTL)

	linker := oauth.NewLinker(store, cipher, signer, oauth.Config{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.RedirectURL(),
	}, logger.Named("oauth"))
	creator := calendar.NewCreator(linker, calendar.Config{
		WebhookURL: cfg.N8N.WebhookURL,
		Timezone:   cfg.Calendar.Timezone,
	}, logger.Named("calendar"))
	return &linking{linker: linker, creator: creator}, nil
}
