package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers accepted in STORE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverMongoDB  = "mongodb"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Store     StoreConfig
	MongoDB   MongoDBConfig
	WhatsApp  WhatsAppConfig
	Sheets    SheetsConfig
	Reporting ReportingConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

// LogConfig selects the minimum log level.
type LogConfig struct {
	Level string
}

// StoreConfig picks the persistence backend.
type StoreConfig struct {
	Driver string
	DSN    string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
type WhatsAppConfig struct {
	AccessToken     string
	PhoneNumberID   string
	BaseURL         string
	APIVersion      string
	ReportRecipient string
}

// Enabled reports whether outbound messages can be sent.
func (c WhatsAppConfig) Enabled() bool {
	return c.AccessToken != "" && c.PhoneNumberID != ""
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	SyncSchedule    string
}

// Enabled reports whether the Sheets mirror is configured.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" && c.SpreadsheetID != ""
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	CronSchedule string
	Timezone     string
}

// Location resolves the configured timezone.
func (c ReportingConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
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
		// Missing .env files are fine when configuration comes from the environment.
		_ = godotenv.Load()
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getenvWithDefault("APP_PORT", "8080"),
			AllowedOrigins: splitList(getenvWithDefault("CORS_ALLOWED_ORIGINS", "*")),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getenvWithDefault("STORE_DRIVER", DriverSQLite)),
			DSN:    getenvWithDefault("DATABASE_DSN", "shiftlog.db"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "shiftlog"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:     os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID:   os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BaseURL:         getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:      getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			ReportRecipient: os.Getenv("WHATSAPP_REPORT_RECIPIENT"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
			SyncSchedule:    getenvWithDefault("SHEETS_SYNC_CRON", "30 23 * * *"),
		},
		Reporting: ReportingConfig{
			CronSchedule: getenvWithDefault("REPORT_CRON_SCHEDULE", "0 20 * * 5"),
			Timezone:     getenvWithDefault("TIMEZONE", "UTC"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
// Integrations are optional, but a half-configured one is an error.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverMongoDB:
		if c.MongoDB.URI == "" {
			return errors.New("MONGODB_URI must be provided when STORE_DRIVER=mongodb")
		}
		if c.MongoDB.DBName == "" {
			return errors.New("MONGODB_DB_NAME must not be empty")
		}
	case DriverSQLite, DriverPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("DATABASE_DSN must be provided when STORE_DRIVER=%s", c.Store.Driver)
		}
	default:
		return fmt.Errorf("STORE_DRIVER %q is not supported", c.Store.Driver)
	}

	if (c.WhatsApp.AccessToken == "") != (c.WhatsApp.PhoneNumberID == "") {
		return errors.New("WHATSAPP_TOKEN and WHATSAPP_PHONE_NUMBER_ID must be provided together")
	}
	if c.WhatsApp.Enabled() {
		if c.WhatsApp.BaseURL == "" {
			return errors.New("WHATSAPP_BASE_URL must not be empty")
		}
		if c.WhatsApp.APIVersion == "" {
			return errors.New("WHATSAPP_API_VERSION must not be empty")
		}
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_DATABASE_ID must be provided together")
	}

	if c.Reporting.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}

	if c.Reporting.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}
	if _, err := c.Reporting.Location(); err != nil {
		return fmt.Errorf("TIMEZONE %q: %w", c.Reporting.Timezone, err)
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
