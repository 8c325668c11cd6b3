// Package config loads process configuration from the environment, with an
// optional .env file for local runs. All credentials and connection
// parameters are resolved once at startup; core logic never reads ambient
// environment state.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// Backend names for the context store.
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Config holds everything the bot process needs to run.
type Config struct {
	TelegramToken string
	QwenAppID     string
	QwenAPIKey    string
	QwenBaseURL   string

	StoreBackend string

	PostgresUser     string
	PostgresPassword string
	PostgresHost     string
	PostgresPort     int
	PostgresDB       string

	SQLitePath string

	PollTimeout  int // long-poll timeout, seconds
	SleepSeconds int // idle sleep between polls, seconds
	Debug        bool
}

// TelegramAPIBase returns the Bot API base URL for the configured token.
func (c Config) TelegramAPIBase() string {
	return "https://api.telegram.org/bot" + c.TelegramToken
}

// PostgresConnString returns the pgx connection URI for the configured
// database.
func (c Config) PostgresConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		c.PostgresUser, c.PostgresPassword, c.PostgresHost, c.PostgresPort, c.PostgresDB)
}

// Load reads configuration from the environment, overlaid on an optional
// .env file at envFile (skipped when absent). Missing required values make
// the process refuse to start.
func Load(envFile string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("reading %s: %w", envFile, err)
		}
	}
	v.AutomaticEnv()

	v.SetDefault("QWEN_BASE_URL", "https://dashscope-intl.aliyuncs.com/api/v1")
	v.SetDefault("STORE_BACKEND", BackendPostgres)
	v.SetDefault("SQLITE_PATH", "/state/context.db")
	v.SetDefault("TG_TIMEOUT", 30)
	v.SetDefault("TG_SLEEP_SECONDS", 1)
	v.SetDefault("BOT_DEBUG", false)

	cfg := Config{
		TelegramToken:    v.GetString("TELEGRAM_BOT_TOKEN"),
		QwenAppID:        v.GetString("QWEN_APP_ID"),
		QwenAPIKey:       v.GetString("QWEN_API_KEY"),
		QwenBaseURL:      v.GetString("QWEN_BASE_URL"),
		StoreBackend:     strings.ToLower(v.GetString("STORE_BACKEND")),
		PostgresUser:     v.GetString("POSTGRES_USER"),
		PostgresPassword: v.GetString("POSTGRES_PASSWORD"),
		PostgresHost:     v.GetString("POSTGRES_HOST"),
		PostgresPort:     v.GetInt("POSTGRES_PORT"),
		PostgresDB:       v.GetString("POSTGRES_DB"),
		SQLitePath:       v.GetString("SQLITE_PATH"),
		PollTimeout:      v.GetInt("TG_TIMEOUT"),
		SleepSeconds:     v.GetInt("TG_SLEEP_SECONDS"),
		Debug:            v.GetBool("BOT_DEBUG"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var missing []string
	if c.TelegramToken == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	if c.QwenAppID == "" {
		missing = append(missing, "QWEN_APP_ID")
	}
	if c.QwenAPIKey == "" {
		missing = append(missing, "QWEN_API_KEY")
	}

	switch c.StoreBackend {
	case BackendPostgres:
		if c.PostgresUser == "" {
			missing = append(missing, "POSTGRES_USER")
		}
		if c.PostgresPassword == "" {
			missing = append(missing, "POSTGRES_PASSWORD")
		}
		if c.PostgresHost == "" {
			missing = append(missing, "POSTGRES_HOST")
		}
		if c.PostgresPort == 0 {
			missing = append(missing, "POSTGRES_PORT")
		}
		if c.PostgresDB == "" {
			missing = append(missing, "POSTGRES_DB")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			missing = append(missing, "SQLITE_PATH")
		}
	default:
		return fmt.Errorf("unsupported STORE_BACKEND: %s", c.StoreBackend)
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}
