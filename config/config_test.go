package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvKeys = []string{
	"SERVER_PORT", "GIN_MODE", "DB_DIALECT", "DATABASE_URL", "DB_HOST", "DB_PORT", "DB_USER",
	"DB_PASSWORD", "DB_NAME", "DB_SSLMODE", "DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_AUTO_MIGRATE",
	"REDIS_URL", "CONSISTENCY_MODEL_URL", "GIBBERISH_MODEL_URL", "INFERENCE_API_TOKEN",
	"INFERENCE_TIMEOUT_MS", "PERSIST_FAILED_PREDICTIONS", "CORS_ALLOWED_ORIGINS", "LOG_LEVEL", "LOG_FORMAT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnvKeys {
		if v, ok := os.LookupEnv(key); ok {
			os.Unsetenv(key)
			t.Cleanup(func() { os.Setenv(key, v) })
		}
	}
	SetConfigFile("")
}

func TestGetDSN(t *testing.T) {
	db := DatabaseConfig{
		Dialect:  "postgres",
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "secret",
		Name:     "trustwise_db",
		SSLMode:  "disable",
	}

	expected := "host=localhost port=5432 user=postgres password=secret dbname=trustwise_db sslmode=disable"
	assert.Equal(t, expected, db.GetDSN())
}

func TestGetDSNPrefersURL(t *testing.T) {
	db := DatabaseConfig{
		Dialect: "postgres",
		URL:     "postgresql://postgres:password@db:5432/trustwise_db",
		Host:    "ignored",
	}
	assert.Equal(t, "postgresql://postgres:password@db:5432/trustwise_db", db.GetDSN())
}

func TestGetDSNSQLite(t *testing.T) {
	db := DatabaseConfig{Dialect: "sqlite", Name: "results"}
	assert.Equal(t, "results.db", db.GetDSN())
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, "postgres", cfg.Database.Dialect)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "trustwise_db", cfg.Database.Name)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Empty(t, cfg.Redis.URL)
	assert.Equal(t, "http://localhost:8081", cfg.Inference.ConsistencyURL)
	assert.Equal(t, "http://localhost:8082", cfg.Inference.GibberishURL)
	assert.Equal(t, 30*time.Second, cfg.Inference.Timeout())
	assert.False(t, cfg.Pipeline.PersistFailures)
	assert.Equal(t, "http://localhost:8080", cfg.CORS.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadConfigFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATABASE_URL", "postgresql://u:p@db.prod:5433/x")
	t.Setenv("PERSIST_FAILED_PREDICTIONS", "true")
	t.Setenv("INFERENCE_TIMEOUT_MS", "1500")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgresql://u:p@db.prod:5433/x", cfg.Database.GetDSN())
	assert.True(t, cfg.Pipeline.PersistFailures)
	assert.Equal(t, 1500*time.Millisecond, cfg.Inference.Timeout())
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "api.toml")
	content := strings.Join([]string{
		"[server]",
		"port = 7000",
		"",
		"[database]",
		`dialect = "sqlite"`,
		`name = "local"`,
		"",
		"[log]",
		`format = "console"`,
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	SetConfigFile(path)
	t.Cleanup(func() { SetConfigFile("") })

	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Dialect)
	assert.Equal(t, "local.db", cfg.Database.GetDSN())
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadConfigInvalid(t *testing.T) {
	t.Run("non-numeric port", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SERVER_PORT", "invalid")

		_, err := LoadConfig()
		assert.Error(t, err)
	})

	t.Run("unknown dialect", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DB_DIALECT", "oracle")

		_, err := LoadConfig()
		assert.ErrorContains(t, err, "DB_DIALECT")
	})

	t.Run("zero inference timeout", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("INFERENCE_TIMEOUT_MS", "0")

		_, err := LoadConfig()
		assert.ErrorContains(t, err, "INFERENCE_TIMEOUT_MS")
	})

	t.Run("missing config file", func(t *testing.T) {
		clearEnv(t)
		SetConfigFile(filepath.Join(t.TempDir(), "missing.toml"))
		t.Cleanup(func() { SetConfigFile("") })

		_, err := LoadConfig()
		assert.Error(t, err)
	})
}
