// Package config assembles service settings from an optional .env file, an
// optional YAML file and the process environment, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Billy-Davies-2/draftboard/internal/models"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

var ErrUnknownDriver = errors.New("unknown DB_DRIVER (valid: memory, sqlite, postgres)")

// Config is the full service configuration
type Config struct {
	Environment string `yaml:"environment"`
	Port        string `yaml:"port"`
	GRPCPort    string `yaml:"grpc_port"`
	LogLevel    string `yaml:"log_level"`
	DatasetFile string `yaml:"dataset_file"`

	Database   DatabaseConfig   `yaml:"database"`
	NATS       NATSConfig       `yaml:"nats"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	OpenAI     OpenAIConfig     `yaml:"openai"`

	ADPSyncInterval time.Duration `yaml:"adp_sync_interval"`
	CORSOrigins     []string      `yaml:"cors_origins"`

	Draft models.DraftSettings `yaml:"draft"`
}

type DatabaseConfig struct {
	Driver     string `yaml:"driver"`
	SQLiteFile string `yaml:"sqlite_file"`
	URL        string `yaml:"url"`
}

type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// ClickHouseConfig is only used when Addr is set
type ClickHouseConfig struct {
	Addr     string `yaml:"addr"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// Default returns the local development configuration
func Default() *Config {
	return &Config{
		Environment: EnvDevelopment,
		Port:        "3000",
		GRPCPort:    "50051",
		LogLevel:    "info",
		Database: DatabaseConfig{
			Driver:     "memory",
			SQLiteFile: "dev.sqlite",
		},
		NATS: NATSConfig{
			URL:     "nats://localhost:4222",
			Subject: "draftboard.events",
		},
		ClickHouse: ClickHouseConfig{
			Database: "default",
			Username: "default",
		},
		OpenAI: OpenAIConfig{
			Model:   "gpt-4o",
			BaseURL: "https://api.openai.com",
		},
		ADPSyncInterval: 5 * time.Minute,
		CORSOrigins:     []string{"*"},
		Draft:           models.DefaultDraftSettings(),
	}
}

// Load reads .env from the working directory when present, then the YAML
// file at path (skipped when path is empty), then environment overrides.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.Draft = cfg.Draft.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.Port = getEnv("PORT", c.Port)
	c.GRPCPort = getEnv("GRPC_PORT", c.GRPCPort)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.DatasetFile = getEnv("DATASET_FILE", c.DatasetFile)

	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.SQLiteFile = getEnv("SQLITE_FILE", c.Database.SQLiteFile)
	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)

	c.NATS.URL = getEnv("NATS_URL", c.NATS.URL)
	c.NATS.Subject = getEnv("NATS_SUBJECT", c.NATS.Subject)

	c.ClickHouse.Addr = getEnv("CLICKHOUSE_ADDR", c.ClickHouse.Addr)
	c.ClickHouse.Database = getEnv("CLICKHOUSE_DB", c.ClickHouse.Database)
	c.ClickHouse.Username = getEnv("CLICKHOUSE_USER", c.ClickHouse.Username)
	c.ClickHouse.Password = getEnv("CLICKHOUSE_PASSWORD", c.ClickHouse.Password)

	c.OpenAI.APIKey = getEnv("OPENAI_API_KEY", c.OpenAI.APIKey)
	c.OpenAI.Model = getEnv("OPENAI_MODEL", c.OpenAI.Model)
	c.OpenAI.BaseURL = getEnv("OPENAI_BASE_URL", c.OpenAI.BaseURL)

	if v := os.Getenv("ADP_SYNC_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid ADP_SYNC_INTERVAL %q: %w", v, err)
		}
		c.ADPSyncInterval = d
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitList(v)
	}

	c.Draft.TotalTeams = getEnvAsInt("TOTAL_TEAMS", c.Draft.TotalTeams)
	c.Draft.YourDraftSpot = getEnvAsInt("DRAFT_SPOT", c.Draft.YourDraftSpot)
	return nil
}

// Validate rejects settings the service cannot start with
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("%w: %s", ErrUnknownDriver, c.Database.Driver)
	}
	if c.Database.Driver == "postgres" && c.Database.URL == "" && !c.IsDevelopment() {
		return errors.New("DATABASE_URL environment variable is required for postgres driver")
	}
	if c.ADPSyncInterval <= 0 {
		return fmt.Errorf("ADP sync interval must be positive, got %s", c.ADPSyncInterval)
	}
	return nil
}

// IsDevelopment reports whether mocks and the embedded broker should be used
func (c *Config) IsDevelopment() bool {
	return c.Environment == "" || c.Environment == EnvDevelopment
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
