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
)

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MigrationsPath  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type Config struct {
	App struct {
		Port         string
		LogLevel     string
		LogFormat    string
		MediaBaseURL string
	}
	Postgres PostgresConfig
	Redis    RedisConfig
	Access   struct {
		PolicyPath string
	}
}

// NewConfig читает .env (путь из ENV_FILE, по умолчанию ".env") и переменные окружения.
func NewConfig() (*Config, error) {
	path := os.Getenv("ENV_FILE")
	if path == "" {
		path = ".env"
	}
	return Load(path)
}

func Load(path string) (*Config, error) {
	if path != "" {
		err := godotenv.Load(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	var missing []string
	required := func(key string) string {
		v := os.Getenv(key)
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg := &Config{}
	cfg.App.Port = getEnv("APP_PORT", "8080")
	cfg.App.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.App.LogFormat = getEnv("LOG_FORMAT", "json")
	cfg.App.MediaBaseURL = strings.TrimRight(getEnv("MEDIA_BASE_URL", "/media"), "/")

	cfg.Postgres.Host = required("DB_HOST")
	cfg.Postgres.Port = required("DB_PORT")
	cfg.Postgres.User = required("DB_USER")
	cfg.Postgres.Password = required("DB_PASSWORD")
	cfg.Postgres.DBName = required("DB_NAME")
	cfg.Postgres.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Postgres.MigrationsPath = getEnv("DB_MIGRATIONS_PATH", "migrations")

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	var err error
	if cfg.Postgres.MaxConns, err = getInt32("DB_MAX_CONNS", 10); err != nil {
		return nil, err
	}
	if cfg.Postgres.MinConns, err = getInt32("DB_MIN_CONNS", 2); err != nil {
		return nil, err
	}
	if cfg.Postgres.MaxConnLifetime, err = getDuration("DB_MAX_CONN_LIFETIME", time.Hour); err != nil {
		return nil, err
	}

	cfg.Redis.Addr = os.Getenv("REDIS_ADDR")
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	if v := os.Getenv("REDIS_DB"); v != "" {
		cfg.Redis.DB, err = strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB %q: %w", v, err)
		}
	}
	if cfg.Redis.TTL, err = getDuration("CATALOG_CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}

	cfg.Access.PolicyPath = os.Getenv("ACCESS_POLICY_PATH")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt32(key string, fallback int32) (int32, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return int32(n), nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
