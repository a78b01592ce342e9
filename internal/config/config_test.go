package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jizhang-jingling/jizhang/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, config.StoragePostgres, cfg.Storage.Mode)
	assert.Equal(t, 24, cfg.Intake.LookbackHours)
	assert.InDelta(t, 0.5, cfg.Intake.SimilarityThreshold, 1e-9)
	assert.Equal(t, 168*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "postgres://postgres:@localhost:5432/jizhang?sslmode=disable", cfg.ConnectionString())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORAGE_MODE", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/books.db")
	t.Setenv("INTAKE_LOOKBACK_HOURS", "48")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.StorageSQLite, cfg.Storage.Mode)
	assert.Equal(t, "/tmp/books.db", cfg.Storage.SQLitePath)
	assert.Equal(t, 48, cfg.Intake.LookbackHours)
}

func TestLoad_UnknownStorageMode(t *testing.T) {
	t.Setenv("STORAGE_MODE", "file")

	_, err := config.Load()
	assert.Error(t, err)
}
