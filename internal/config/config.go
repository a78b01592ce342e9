package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Storage modes understood by storage.Open.
const (
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
	StorageAPI      = "api"
)

type Config struct {
	App struct {
		Name     string `envconfig:"APP_NAME" default:"Jizhang"`
		Port     int    `envconfig:"PORT" default:"8080"`
		Env      string `envconfig:"APP_ENV" default:"development"`
		LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"jizhang"`
	}

	Server struct {
		Timeout        time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		AllowedOrigins []string      `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	}

	Auth struct {
		JWTSecret  string        `envconfig:"JWT_SECRET" default:"default_jwt_secret_please_change_in_production"`
		TokenTTL   time.Duration `envconfig:"JWT_TTL" default:"168h"`
		LoginRate  float64       `envconfig:"LOGIN_RATE" default:"0.2"`
		LoginBurst int           `envconfig:"LOGIN_BURST" default:"5"`
	}

	Storage struct {
		Mode       string        `envconfig:"STORAGE_MODE" default:"postgres"`
		SQLitePath string        `envconfig:"SQLITE_PATH" default:"jizhang.db"`
		APIBaseURL string        `envconfig:"API_BASE_URL" default:"http://localhost:8080/api/v1"`
		APITimeout time.Duration `envconfig:"API_TIMEOUT" default:"10s"`
		APIRetries int           `envconfig:"API_RETRIES" default:"3"`
	}

	Intake struct {
		LookbackHours       int     `envconfig:"INTAKE_LOOKBACK_HOURS" default:"24"`
		SimilarityThreshold float64 `envconfig:"INTAKE_SIMILARITY_THRESHOLD" default:"0.5"`
	}

	// Client identifies the acting user for the MCP server and the TUI.
	Client struct {
		Token  string `envconfig:"JIZHANG_TOKEN"`
		UserID string `envconfig:"JIZHANG_USER_ID" default:"00000000-0000-0000-0000-000000000000"`
	}

	MCP struct {
		Transport string `envconfig:"MCP_TRANSPORT" default:"stdio"`
		Addr      string `envconfig:"MCP_ADDR" default:":8083"`
		BaseURL   string `envconfig:"MCP_BASE_URL" default:"http://localhost:8083"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development" || c.App.Env == "dev"
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	switch cfg.Storage.Mode {
	case StoragePostgres, StorageSQLite, StorageAPI:
	default:
		return nil, fmt.Errorf("unknown storage mode %q", cfg.Storage.Mode)
	}

	return &cfg, nil
}
