package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Reporting ReportingConfig
	Notifier  NotifierConfig
	Auth      AuthConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// StorageConfig locates the directory holding the delimited data files.
type StorageConfig struct {
	DataDir string
}

// ReportingConfig holds scheduled export settings.
type ReportingConfig struct {
	CronSchedule string
	ExportDir    string
}

// NotifierConfig configures the optional report webhook. An empty URL
// disables the notifier.
type NotifierConfig struct {
	WebhookURL string
}

// AuthConfig carries the hardcoded operator credential pair checked by the
// login endpoint. This is a stub kept for parity with the legacy login
// screen, not an authentication layer.
type AuthConfig struct {
	Username string
	Password string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	dataDir := getenvWithDefault("STOCK_DATA_DIR", "data")

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Storage: StorageConfig{
			DataDir: dataDir,
		},
		Reporting: ReportingConfig{
			CronSchedule: getenvWithDefault("REPORT_CRON_SCHEDULE", "0 20 * * *"),
			ExportDir:    getenvWithDefault("REPORT_EXPORT_DIR", dataDir),
		},
		Notifier: NotifierConfig{
			WebhookURL: os.Getenv("REPORT_WEBHOOK_URL"),
		},
		Auth: AuthConfig{
			Username: getenvWithDefault("STOCK_ADMIN_USER", "admin"),
			Password: getenvWithDefault("STOCK_ADMIN_PASSWORD", "admin"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.Storage.DataDir == "" {
		return errors.New("STOCK_DATA_DIR must be provided")
	}

	if c.Reporting.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}

	if c.Reporting.ExportDir == "" {
		return errors.New("REPORT_EXPORT_DIR must be provided")
	}

	switch {
	case c.Auth.Username == "":
		return errors.New("STOCK_ADMIN_USER must not be empty")
	case c.Auth.Password == "":
		return errors.New("STOCK_ADMIN_PASSWORD must not be empty")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
