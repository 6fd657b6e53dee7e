package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	StoreSQLite  = "sqlite"
	StoreMongoDB = "mongodb"
)

// AI providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Factors   FactorsConfig
	Store     StoreConfig
	MongoDB   MongoDBConfig
	AI        AIConfig
	Scheduler SchedulerConfig
	Sheets    SheetsConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port           string
	IdentityHeader string
	LogLevel       string
}

// FactorsConfig points at the four emission factor sources.
type FactorsConfig struct {
	Dir             string
	VehicleFile     string
	ElectricityFile string
	WasteFile       string
	FuelFile        string
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver     string
	SQLitePath string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI          string
	DBName       string
	Transactions bool
}

// AIConfig holds settings for LLM providers.
type AIConfig struct {
	Provider     string
	AnthropicKey string
	OpenAIKey    string
	OpenAIURL    string
	Model        string
	CacheTTL     time.Duration
}

// SchedulerConfig holds cron schedules for background jobs.
type SchedulerConfig struct {
	ReconcileSchedule string
	ExportSchedule    string
	Timezone          string
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// Enabled reports whether spreadsheet export is configured.
func (s SheetsConfig) Enabled() bool {
	return s.SpreadsheetID != ""
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

	transactions, err := getenvBool("MONGODB_TRANSACTIONS", false)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := getenvDuration("AI_CACHE_TTL", 10*time.Minute)
	if err != nil {
		return nil, err
	}

	factorsDir := getenvWithDefault("FACTORS_DIR", "data")

	cfg := &Config{
		Server: ServerConfig{
			Port:           getenvWithDefault("APP_PORT", "8080"),
			IdentityHeader: getenvWithDefault("IDENTITY_HEADER", "X-User-ID"),
			LogLevel:       getenvWithDefault("LOG_LEVEL", "info"),
		},
		Factors: FactorsConfig{
			Dir:             factorsDir,
			VehicleFile:     getenvWithDefault("VEHICLE_FACTORS_FILE", filepath.Join(factorsDir, "vehicle_factors.json")),
			ElectricityFile: getenvWithDefault("ELECTRICITY_FACTORS_FILE", filepath.Join(factorsDir, "electricity_factors.json")),
			WasteFile:       getenvWithDefault("WASTE_FACTORS_FILE", filepath.Join(factorsDir, "waste_factors.json")),
			FuelFile:        getenvWithDefault("FUEL_FACTORS_FILE", filepath.Join(factorsDir, "fuel_factors.json")),
		},
		Store: StoreConfig{
			Driver:     getenvWithDefault("STORE_DRIVER", StoreSQLite),
			SQLitePath: getenvWithDefault("SQLITE_PATH", "carbontracker.db"),
		},
		MongoDB: MongoDBConfig{
			URI:          getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName:       getenvWithDefault("MONGODB_DB_NAME", "carbontracker"),
			Transactions: transactions,
		},
		AI: AIConfig{
			Provider:     os.Getenv("AI_PROVIDER"),
			AnthropicKey: os.Getenv("ANTHROPIC_API_KEY"),
			OpenAIKey:    os.Getenv("OPENAI_API_KEY"),
			OpenAIURL:    os.Getenv("OPENAI_BASE_URL"),
			Model:        os.Getenv("AI_MODEL"),
			CacheTTL:     cacheTTL,
		},
		Scheduler: SchedulerConfig{
			ReconcileSchedule: getenvWithDefault("RECONCILE_CRON_SCHEDULE", "0 3 * * *"),
			ExportSchedule:    getenvWithDefault("EXPORT_CRON_SCHEDULE", "0 4 * * *"),
			Timezone:          getenvWithDefault("TIMEZONE", "UTC"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
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
	if c.Server.IdentityHeader == "" {
		return errors.New("IDENTITY_HEADER must not be empty")
	}

	switch {
	case c.Factors.VehicleFile == "":
		return errors.New("VEHICLE_FACTORS_FILE must not be empty")
	case c.Factors.ElectricityFile == "":
		return errors.New("ELECTRICITY_FACTORS_FILE must not be empty")
	case c.Factors.WasteFile == "":
		return errors.New("WASTE_FACTORS_FILE must not be empty")
	case c.Factors.FuelFile == "":
		return errors.New("FUEL_FACTORS_FILE must not be empty")
	}

	switch c.Store.Driver {
	case StoreSQLite:
		if c.Store.SQLitePath == "" {
			return errors.New("SQLITE_PATH must be provided")
		}
	case StoreMongoDB:
		if c.MongoDB.URI == "" {
			return errors.New("MONGODB_URI must be provided")
		}
		if c.MongoDB.DBName == "" {
			return errors.New("MONGODB_DB_NAME must be provided")
		}
	default:
		return fmt.Errorf("STORE_DRIVER %q is not supported", c.Store.Driver)
	}

	switch c.AI.Provider {
	case "":
	case ProviderAnthropic:
		if c.AI.AnthropicKey == "" {
			return errors.New("ANTHROPIC_API_KEY must be provided")
		}
	case ProviderOpenAI:
		if c.AI.OpenAIKey == "" {
			return errors.New("OPENAI_API_KEY must be provided")
		}
	default:
		return fmt.Errorf("AI_PROVIDER %q is not supported", c.AI.Provider)
	}

	if c.Scheduler.ReconcileSchedule == "" {
		return errors.New("RECONCILE_CRON_SCHEDULE must be provided")
	}
	if c.Scheduler.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}

	if c.Sheets.Enabled() && c.Sheets.CredentialsPath == "" {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided when GOOGLE_SHEET_DATABASE_ID is set")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvBool(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return b, nil
}

func getenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}
