package config

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/naoina/toml"
	"github.com/sethvargo/go-envconfig"
)

var configFile = ""

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Inference InferenceConfig
	Pipeline  PipelineConfig
	CORS      CORSConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port int    `env:"SERVER_PORT" default:"8000"`
	Mode string `env:"GIN_MODE" default:"release"`
}

type DatabaseConfig struct {
	// Dialect is "postgres" or "sqlite".
	Dialect      string `env:"DB_DIALECT" default:"postgres"`
	URL          string `env:"DATABASE_URL"`
	Host         string `env:"DB_HOST" default:"localhost"`
	Port         int    `env:"DB_PORT" default:"5432"`
	User         string `env:"DB_USER" default:"postgres"`
	Password     string `env:"DB_PASSWORD" default:"password"`
	Name         string `env:"DB_NAME" default:"trustwise_db"`
	SSLMode      string `env:"DB_SSLMODE" default:"disable"`
	MaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns int    `env:"DB_MAX_IDLE_CONNS" default:"5"`
	AutoMigrate  bool   `env:"DB_AUTO_MIGRATE" default:"true"`
}

// GetDSN prefers DATABASE_URL and otherwise composes a key/value DSN.
func (d DatabaseConfig) GetDSN() string {
	if d.URL != "" {
		return d.URL
	}
	if d.Dialect == "sqlite" {
		return d.Name + ".db"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

type RedisConfig struct {
	// URL enables the prediction event feed when set, e.g. redis://localhost:6379/0.
	URL string `env:"REDIS_URL"`
}

type InferenceConfig struct {
	ConsistencyURL string `env:"CONSISTENCY_MODEL_URL" default:"http://localhost:8081"`
	GibberishURL   string `env:"GIBBERISH_MODEL_URL" default:"http://localhost:8082"`
	APIToken       string `env:"INFERENCE_API_TOKEN"`
	TimeoutMS      int    `env:"INFERENCE_TIMEOUT_MS" default:"30000"`
}

func (i InferenceConfig) Timeout() time.Duration {
	return time.Duration(i.TimeoutMS) * time.Millisecond
}

type PipelineConfig struct {
	// PersistFailures writes failed predictions with status=error.
	PersistFailures bool `env:"PERSIST_FAILED_PREDICTIONS" default:"false"`
}

type CORSConfig struct {
	AllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" default:"http://localhost:8080"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" default:"info"`
	Format string `env:"LOG_FORMAT" default:"json"`
}

// SetConfigFile points LoadConfig at a TOML file applied before the environment.
func SetConfigFile(path string) {
	configFile = path
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	toml.DefaultConfig.MissingField = func(typ reflect.Type, key string) error {
		return nil
	}

	if configFile != "" {
		f, err := os.Open(configFile)
		if err != nil {
			return nil, fmt.Errorf("open config file: %w", err)
		}
		defer f.Close()
		if err := toml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode config file %s: %w", configFile, err)
		}
	}

	err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:           cfg,
		DefaultOverwrite: true,
	})
	if err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Dialect {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("invalid DB_DIALECT %q: want postgres or sqlite", c.Database.Dialect)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid SERVER_PORT %d", c.Server.Port)
	}
	if c.Inference.TimeoutMS <= 0 {
		return fmt.Errorf("invalid INFERENCE_TIMEOUT_MS %d", c.Inference.TimeoutMS)
	}
	if strings.TrimSpace(c.Inference.ConsistencyURL) == "" || strings.TrimSpace(c.Inference.GibberishURL) == "" {
		return fmt.Errorf("model server URLs must not be empty")
	}
	return nil
}
