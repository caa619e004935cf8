package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "RESTAURANT_"

type Config struct {
	App struct {
		Name           string        `koanf:"name"`
		Port           string        `koanf:"port"`
		LogLevel       string        `koanf:"log_level"`
		LogFile        string        `koanf:"log_file"`
		RequestTimeout time.Duration `koanf:"request_timeout"`
	} `koanf:"app"`

	HTTP struct {
		ReadTimeout  time.Duration `koanf:"read_timeout"`
		WriteTimeout time.Duration `koanf:"write_timeout"`
		IdleTimeout  time.Duration `koanf:"idle_timeout"`
		CORSOrigins  []string      `koanf:"cors_origins"`
	} `koanf:"http"`

	Database Database `koanf:"database"`

	Redis struct {
		Addr           string        `koanf:"addr"`
		Password       string        `koanf:"password"`
		DB             int           `koanf:"db"`
		IdempotencyTTL time.Duration `koanf:"idempotency_ttl"`
	} `koanf:"redis"`

	Security struct {
		SecretKey string        `koanf:"secret_key"`
		TokenTTL  time.Duration `koanf:"token_ttl"`
	} `koanf:"security"`
}

type Database struct {
	// Driver is one of postgres, sqlite or mongo.
	Driver   string `koanf:"driver"`
	DSN      string `koanf:"dsn"`
	MongoDB  string `koanf:"mongo_db"`
	MaxConns int    `koanf:"max_conns"`
}

func Default() Config {
	var cfg Config
	cfg.App.Name = "restaurant-ordering"
	cfg.App.Port = "8000"
	cfg.App.LogLevel = "info"
	cfg.App.RequestTimeout = 10 * time.Second
	cfg.HTTP.ReadTimeout = 15 * time.Second
	cfg.HTTP.WriteTimeout = 15 * time.Second
	cfg.HTTP.IdleTimeout = 60 * time.Second
	cfg.HTTP.CORSOrigins = []string{"http://localhost:9000"}
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = "restaurant.db"
	cfg.Database.MongoDB = "restaurant"
	cfg.Database.MaxConns = 10
	cfg.Redis.IdempotencyTTL = 24 * time.Hour
	cfg.Security.TokenTTL = 24 * time.Hour
	return cfg
}

// Load reads, in increasing priority: defaults, the optional YAML file at
// path, RESTAURANT_* environment variables (a double underscore nests, e.g.
// RESTAURANT_DATABASE__DRIVER) and the plain PORT variable. A .env file in the
// working directory is loaded into the environment first when present.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	k := koanf.New(".")
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("load %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("stat %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.App.Port = port
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.App.Port == "" {
		return errors.New("app.port required")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite", "mongo":
	default:
		return fmt.Errorf("database.driver must be postgres, sqlite or mongo, got %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn required")
	}
	if c.Database.Driver == "mongo" && c.Database.MongoDB == "" {
		return errors.New("database.mongo_db required for the mongo driver")
	}
	if c.Security.SecretKey == "" {
		return errors.New("security.secret_key required")
	}
	if c.Security.TokenTTL <= 0 {
		return errors.New("security.token_ttl must be positive")
	}
	return nil
}
