package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"BotDeck/config"
	"BotDeck/db"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report configuration and backend connectivity",
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== Configuration ===")
	cfg, err := config.LoadEnv()
	if err != nil {
		fmt.Fprintln(out, "❌ Failed to load config:", err)
		return err
	}
	reportConfig(out, cfg)

	fmt.Fprintln(out, "\n=== Store ===")
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	return reportStore(ctx, out, cfg)
}

func setOrMissing(v string) string {
	if v == "" {
		return "❌ Missing"
	}
	return "✅ Set"
}

func reportConfig(out io.Writer, cfg *config.Config) {
	fmt.Fprintln(out, "- Environment:", cfg.Env)
	fmt.Fprintln(out, "- Discord token:", setOrMissing(cfg.Discord.Token))
	fmt.Fprintln(out, "- Discord client ID:", setOrMissing(cfg.Discord.ClientID))
	fmt.Fprintln(out, "- Discord guild ID:", setOrMissing(cfg.Discord.GuildID))
	fmt.Fprintln(out, "- App secret:", setOrMissing(cfg.Secret))
	fmt.Fprintln(out, "- Bot API key:", setOrMissing(cfg.Bot.APIKey))
	fmt.Fprintln(out, "- Database URL:", setOrMissing(cfg.Database))
	fmt.Fprintln(out, "- Supabase URL:", setOrMissing(cfg.Supabase.URL))
	fmt.Fprintln(out, "- Google client:", setOrMissing(cfg.Google.ClientID))
	fmt.Fprintln(out, "- n8n webhook:", setOrMissing(cfg.N8N.WebhookURL))
	fmt.Fprintln(out, "- OAuth redirect:", cfg.RedirectURL())

	if err := cfg.ValidateServer(); err != nil {
		fmt.Fprintln(out, "❌ serve:", err)
	} else {
		fmt.Fprintln(out, "✅ serve configuration complete")
	}
	if err := cfg.ValidateBot(); err != nil {
		fmt.Fprintln(out, "❌ bot:", err)
	} else {
		fmt.Fprintln(out, "✅ bot configuration complete")
	}
}

func reportStore(ctx context.Context, out io.Writer, cfg *config.Config) error {
	store, err := openStore(ctx, cfg, zap.NewNop())
	if err != nil {
		fmt.Fprintln(out, "❌ Store connection failed:", err)
		return err
	}
	defer store.Close()

	if err := store.Ping(ctx); err != nil {
		fmt.Fprintln(out, "❌ Store ping failed:", err)
		return err
	}
	fmt.Fprintln(out, "✅ Store connection successful")

	st, err := store.GetBotStatus(ctx)
	switch {
	case errors.Is(err, db.ErrNotFound):
		fmt.Fprintln(out, "Bot status: ✅ Active (no status row)")
	case err != nil:
		fmt.Fprintln(out, "❌ Bot status read failed:", err)
	case st.IsActive:
		fmt.Fprintln(out, "Bot status: ✅ Active")
	default:
		fmt.Fprintln(out, "Bot status: 🛑 Stopped")
	}

	cmds, err := store.ListCommands(ctx, true)
	if err != nil {
		fmt.Fprintln(out, "❌ Commands fetch failed:", err)
		return err
	}
	fmt.Fprintln(out, "Enabled commands:", len(cmds))
	for _, c := range cmds {
		fmt.Fprintf(out, "  - /%s: %s\n", c.Name, c.Description)
	}
	return nil
}
