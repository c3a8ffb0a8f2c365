package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v8"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

type Config struct {
	// HTTP Server
	Port string `env:"PORT" envDefault:"8081"`

	// Ledger storage
	DataBackend  string `env:"DATA_BACKEND" envDefault:"memory"`
	SQLiteDBPath string `env:"SQLITE_DB_PATH" envDefault:"./data/chatledger.db"`
	SeedFile     string `env:"SEED_FILE"`

	// Remote assistant
	AssistantBaseURL  string        `env:"ASSISTANT_BASE_URL"`
	TranscribeBaseURL string        `env:"TRANSCRIBE_BASE_URL"`
	AssistantTimeout  time.Duration `env:"ASSISTANT_TIMEOUT" envDefault:"30s"`

	// AMQP (optional; empty URL disables events)
	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"chatledger"`
	AMQPQueue    string `env:"AMQP_QUEUE" envDefault:"mirror_transactions"`

	// Google Sheets mirror
	GoogleSpreadsheetID      string `env:"GOOGLE_SPREADSHEET_ID"`
	GoogleSheetName          string `env:"GOOGLE_SHEET_NAME" envDefault:"Transactions"`
	GoogleServiceAccountJSON string `env:"GOOGLE_SERVICE_ACCOUNT_JSON"`
	GoogleServiceAccountFile string `env:"GOOGLE_SERVICE_ACCOUNT_FILE"`

	// Telegram bot (optional)
	TelegramToken   string `env:"TELEGRAM_TOKEN"`
	TelegramTimeout int    `env:"TELEGRAM_TIMEOUT" envDefault:"60"`

	LogLevel      string        `env:"LOG_LEVEL" envDefault:"info"`
	StatsCacheTTL time.Duration `env:"STATS_CACHE_TTL" envDefault:"5m"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// AMQPEnabled reports whether transaction events should be published.
func (c *Config) AMQPEnabled() bool {
	return strings.TrimSpace(c.AMQPURL) != ""
}

// TelegramEnabled reports whether the chat bot should run.
func (c *Config) TelegramEnabled() bool {
	return strings.TrimSpace(c.TelegramToken) != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{BackendMemory, BackendSQLite}
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == BackendSQLite {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.SeedFile != "" {
		if _, err := os.Stat(c.SeedFile); err != nil {
			errors = append(errors, fmt.Sprintf("seed file '%s' is not readable: %v", c.SeedFile, err))
		}
	}

	for name, raw := range map[string]string{
		"ASSISTANT_BASE_URL":  c.AssistantBaseURL,
		"TRANSCRIBE_BASE_URL": c.TranscribeBaseURL,
	} {
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid %s '%s': must be an absolute http(s) URL", name, raw))
		}
	}
	if c.AssistantTimeout < time.Second || c.AssistantTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid assistant timeout %v: must be between 1s and 5m", c.AssistantTimeout))
	}

	if c.AMQPEnabled() {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.TelegramTimeout < 1 || c.TelegramTimeout > 600 {
		errors = append(errors, fmt.Sprintf("invalid telegram timeout %d: must be between 1 and 600 seconds", c.TelegramTimeout))
	}

	if c.StatsCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid stats cache TTL %v: must not be negative", c.StatsCacheTTL))
	}

	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ValidateMirror checks the settings the sheets mirror worker needs on top of Validate.
func (c *Config) ValidateMirror() error {
	var errors []string
	if !c.AMQPEnabled() {
		errors = append(errors, "AMQP_URL is required for the mirror worker")
	}
	if c.DataBackend != BackendSQLite {
		errors = append(errors, "the mirror worker reads transactions from SQLite; set DATA_BACKEND=sqlite")
	}
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "Google Spreadsheet ID is required for the mirror worker")
	}
	if c.GoogleSheetName == "" {
		errors = append(errors, "Google Sheet name is required for the mirror worker")
	}
	if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
		errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for the mirror worker")
	}
	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}
	if len(errors) > 0 {
		return fmt.Errorf("mirror configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}
