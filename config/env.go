package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env      string         `mapstructure:"app_env"`
	Port     string         `mapstructure:"port"`
	BaseURL  string         `mapstructure:"base_url"`
	AppURL   string         `mapstructure:"app_url"`
	Secret   string         `mapstructure:"app_secret"`
	Database string         `mapstructure:"database_url"`
	Store    StoreConfig    `mapstructure:"store"`
	Discord  DiscordConfig  `mapstructure:"discord"`
	Bot      BotConfig      `mapstructure:"bot"`
	Supabase SupabaseConfig `mapstructure:"supabase"`
	Google   GoogleConfig   `mapstructure:"google"`
	OAuth    OAuthConfig    `mapstructure:"oauth"`
	N8N      N8NConfig      `mapstructure:"n8n"`
	Calendar CalendarConfig `mapstructure:"calendar"`
	Ngrok    NgrokConfig    `mapstructure:"ngrok"`
}

type StoreConfig struct {
	// Driver is "postgres" or "memory".
	Driver string `mapstructure:"driver"`
}

type DiscordConfig struct {
	Token    string `mapstructure:"token"`
	ClientID string `mapstructure:"client_id"`
	GuildID  string `mapstructure:"guild_id"`
}

type BotConfig struct {
	StatusPollInterval time.Duration `mapstructure:"status_poll_interval"`
	// APIKey is the shared key trusted callers send to the bot API.
	APIKey string `mapstructure:"api_key"`
}

// SupabaseConfig points at the hosted identity provider used for dashboard
// sign-in.
type SupabaseConfig struct {
	URL     string `mapstructure:"url"`
	AnonKey string `mapstructure:"anon_key"`
}

type GoogleConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

type OAuthConfig struct {
	StateTTL time.Duration `mapstructure:"state_ttl"`
}

type N8NConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
}

type CalendarConfig struct {
	Timezone string `mapstructure:"timezone"`
}

type NgrokConfig struct {
	AuthToken string `mapstructure:"authtoken"`
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) RedirectURL() string {
	return strings.TrimRight(c.BaseURL, "/") + CallbackPath
}

const CallbackPath = "/oauth/callback"

var defaults = map[string]any{
	"app_env":                  "development",
	"port":                     "8080",
	"base_url":                 "http://localhost:8080",
	"app_url":                  "",
	"app_secret":               "",
	"database_url":             "",
	"store.driver":             "postgres",
	"discord.token":            "",
	"discord.client_id":        "",
	"discord.guild_id":         "",
	"bot.status_poll_interval": 10 * time.Second,
	"bot.api_key":              "",
	"supabase.url":             "",
	"supabase.anon_key":        "",
	"google.client_id":         "",
	"google.client_secret":     "",
	"oauth.state_ttl":          15 * time.Minute,
	"n8n.webhook_url":          "",
	"calendar.timezone":        "America/Los_Angeles",
	"ngrok.authtoken":          "",
}

// LoadEnv reads .env outside production and maps environment variables onto
// Config. Nested keys use underscores, e.g. DISCORD_GUILD_ID.
func LoadEnv() (*Config, error) {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" && os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	return &cfg, nil
}

// ValidateServer checks the settings the HTTP backend cannot start without.
func (c Config) ValidateServer() error {
	var missing []string
	if len(c.Secret) < 32 {
		missing = append(missing, "APP_SECRET (at least 32 characters)")
	}
	if c.Store.Driver != "memory" && c.Database == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Google.ClientID == "" || c.Google.ClientSecret == "" {
		missing = append(missing, "GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET")
	}
	if c.Supabase.URL == "" || c.Supabase.AnonKey == "" {
		missing = append(missing, "SUPABASE_URL/SUPABASE_ANON_KEY")
	}
	if c.Bot.APIKey == "" {
		missing = append(missing, "BOT_API_KEY")
	}
	return missingErr(missing)
}

// ValidateBot checks the settings the Discord bot cannot start without.
func (c Config) ValidateBot() error {
	var missing []string
	if c.Discord.Token == "" {
		missing = append(missing, "DISCORD_TOKEN")
	}
	if c.Discord.ClientID == "" {
		missing = append(missing, "DISCORD_CLIENT_ID")
	}
	if c.Discord.GuildID == "" {
		missing = append(missing, "DISCORD_GUILD_ID")
	}
	if c.Google.ClientID == "" {
		missing = append(missing, "GOOGLE_CLIENT_ID")
	}
	if len(c.Secret) < 32 {
		missing = append(missing, "APP_SECRET (at least 32 characters)")
	}
	if c.Store.Driver != "memory" && c.Database == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Bot.StatusPollInterval <= 0 {
		missing = append(missing, "BOT_STATUS_POLL_INTERVAL (positive duration)")
	}
	return missingErr(missing)
}

var ErrInvalidConfig = errors.New("invalid configuration")

func missingErr(missing []string) error {
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: missing %s", ErrInvalidConfig, strings.Join(missing, ", "))
}
