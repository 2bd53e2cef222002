package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// DefaultAllowedCategories are the label ids shown as sections of the email view.
var DefaultAllowedCategories = []string{"SENT", "INBOX", "IMPORTANT", "STARRED", "CATEGORY_PERSONAL", "UNREAD"}

type Config struct {
	DatabaseURL       string
	GmailClientID     string
	GmailClientSecret string
	GmailRedirectURL  string
	SyncLabelID       string
	SyncPageSize      int
	SyncConcurrency   int
	GmailRPS          int // requests per second
	GmailBurst        int
	HTTPPort          int
	ShutdownTimeout   int // seconds
	DisplayLocation   *time.Location
	LogLevel          logrus.Level
	AllowedCategories []string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	return LoadWith(viper.New())
}

// LoadWith reads configuration through v, so command-line flags bound into v
// take precedence over the environment.
func LoadWith(v *viper.Viper) (*Config, error) {
	// Load .env file if exists (ignore error in production)
	_ = godotenv.Load()

	v.AutomaticEnv()
	v.SetDefault("GMAIL_REDIRECT_URL", "http://localhost:3000/google-callback")
	v.SetDefault("SYNC_PAGE_SIZE", 100)
	v.SetDefault("SYNC_CONCURRENCY", 10)
	v.SetDefault("GMAIL_RPS", 10)
	v.SetDefault("GMAIL_BURST", 20)
	v.SetDefault("HTTP_PORT", 3000)
	v.SetDefault("SHUTDOWN_TIMEOUT", 30)
	v.SetDefault("DISPLAY_TIMEZONE", "Local")
	v.SetDefault("LOG_LEVEL", "info")

	dbURL := v.GetString("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	cfg := &Config{
		DatabaseURL:       dbURL,
		GmailClientID:     v.GetString("GMAIL_CLIENT_ID"),
		GmailClientSecret: v.GetString("GMAIL_CLIENT_SECRET"),
		GmailRedirectURL:  v.GetString("GMAIL_REDIRECT_URL"),
		SyncLabelID:       v.GetString("SYNC_LABEL_ID"),
		AllowedCategories: DefaultAllowedCategories,
	}

	if cfg.GmailClientID == "" || cfg.GmailClientSecret == "" {
		logrus.Warn("GMAIL_CLIENT_ID or GMAIL_CLIENT_SECRET not set, Gmail API will not work")
	}
	if cfg.SyncLabelID == "" {
		logrus.Warn("SYNC_LABEL_ID not set, only `label-mirror sync --label` can run a pass")
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"SYNC_PAGE_SIZE", &cfg.SyncPageSize},
		{"SYNC_CONCURRENCY", &cfg.SyncConcurrency},
		{"GMAIL_RPS", &cfg.GmailRPS},
		{"GMAIL_BURST", &cfg.GmailBurst},
		{"HTTP_PORT", &cfg.HTTPPort},
		{"SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout},
	}
	for _, field := range ints {
		n, err := positiveInt(v, field.key)
		if err != nil {
			return nil, err
		}
		*field.dst = n
	}

	loc, err := time.LoadLocation(v.GetString("DISPLAY_TIMEZONE"))
	if err != nil {
		return nil, fmt.Errorf("invalid DISPLAY_TIMEZONE: %w", err)
	}
	cfg.DisplayLocation = loc

	level, err := logrus.ParseLevel(v.GetString("LOG_LEVEL"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	if raw := v.GetString("ALLOWED_CATEGORIES"); strings.TrimSpace(raw) != "" {
		cfg.AllowedCategories = splitList(raw)
	}

	return cfg, nil
}

func positiveInt(v *viper.Viper, key string) (int, error) {
	raw := strings.TrimSpace(v.GetString(key))
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, n)
	}
	return n, nil
}

func splitList(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
