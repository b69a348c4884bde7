package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "")
	t.Setenv("BOT_STATUS_POLL_INTERVAL", "")

	cfg, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "America/Los_Angeles", cfg.Calendar.Timezone)
	assert.Equal(t, 15*time.Minute, cfg.OAuth.StateTTL)
}

func TestLoadEnv_NestedKeysFromEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DISCORD_TOKEN", "bot-token")
	t.Setenv("DISCORD_CLIENT_ID", "app-id")
	t.Setenv("DISCORD_GUILD_ID", "guild-id")
	t.Setenv("BOT_STATUS_POLL_INTERVAL", "30s")
	t.Setenv("N8N_WEBHOOK_URL", "https://n8n.example/webhook")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("BOT_API_KEY", "service-key")

	cfg, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "bot-token", cfg.Discord.Token)
	assert.Equal(t, "app-id", cfg.Discord.ClientID)
	assert.Equal(t, "guild-id", cfg.Discord.GuildID)
	assert.Equal(t, 30*time.Second, cfg.Bot.StatusPollInterval)
	assert.Equal(t, "https://n8n.example/webhook", cfg.N8N.WebhookURL)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "service-key", cfg.Bot.APIKey)
}

func TestValidateBot(t *testing.T) {
	cfg := Config{
		Secret:  "0123456789abcdef0123456789abcdef",
		Store:   StoreConfig{Driver: "memory"},
		Discord: DiscordConfig{Token: "t", ClientID: "c", GuildID: "g"},
		Google:  GoogleConfig{ClientID: "google-client"},
		Bot:     BotConfig{StatusPollInterval: 10 * time.Second},
	}
	require.NoError(t, cfg.ValidateBot())

	cfg.Discord.GuildID = ""
	cfg.Store.Driver = "postgres"
	err := cfg.ValidateBot()
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "DISCORD_GUILD_ID")
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestValidateBot_RequiresGoogleClientID(t *testing.T) {
	cfg := Config{
		Secret:  "0123456789abcdef0123456789abcdef",
		Store:   StoreConfig{Driver: "memory"},
		Discord: DiscordConfig{Token: "t", ClientID: "c", GuildID: "g"},
		Bot:     BotConfig{StatusPollInterval: 10 * time.Second},
	}
	err := cfg.ValidateBot()
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "GOOGLE_CLIENT_ID")
}

func TestValidateServer(t *testing.T) {
	cfg := Config{
		Secret:   "0123456789abcdef0123456789abcdef",
		Database: "postgres://localhost/botdeck",
		Google:   GoogleConfig{ClientID: "id", ClientSecret: "secret"},
		Supabase: SupabaseConfig{URL: "https://x.supabase.co", AnonKey: "anon"},
		Bot:      BotConfig{APIKey: "service-key"},
	}
	require.NoError(t, cfg.ValidateServer())

	cfg.Secret = "short"
	cfg.Bot.APIKey = ""
	err := cfg.ValidateServer()
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "APP_SECRET")
	assert.Contains(t, err.Error(), "BOT_API_KEY")
}

func TestRedirectURL(t *testing.T) {
	cfg := Config{BaseURL: "https://api.example.com/"}
	assert.Equal(t, "https://api.example.com/oauth/callback", cfg.RedirectURL())
}
