package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Fetcher      FetcherConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	RunMigrations   bool
	MigrationsDir   string
	ConnMaxIdleSec  int32
	ConnMaxLifeSec  int32
	SlowQueryMillis int // logs statements slower than this; zero disables
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines token issuance and login throttling parameters.
type AuthConfig struct {
	JWTSecret          string
	Issuer             string
	Audience           string
	TokenExpiryHours   int
	BcryptCost         int
	MaxLoginAttempts   int
	LoginWindowMinutes int
	LoginRatePerSecond int
	LoginRateBurst     int
}

// FetcherConfig bounds calls made to deliverable data origins.
type FetcherConfig struct {
	SQLTimeoutSeconds   int
	APITimeoutSeconds   int
	ProbeTimeoutSeconds int
}

// NotificationConfig holds the audit webhook endpoint.
type NotificationConfig struct {
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "project-docs"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 60),
		},
		Postgres: PostgresConfig{
			DSN:             os.Getenv("POSTGRES_DSN"),
			MaxConns:        int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:        int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:   getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:   getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec:  int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec:  int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
			SlowQueryMillis: getEnvAsInt("POSTGRES_SLOW_QUERY_MS", 500),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:          getEnv("AUTH_JWT_SECRET", "dev-secret"),
			Issuer:             getEnv("AUTH_JWT_ISSUER", "project-docs"),
			Audience:           getEnv("AUTH_JWT_AUDIENCE", "project-docs-clients"),
			TokenExpiryHours:   getEnvAsInt("AUTH_TOKEN_EXPIRY_HOURS", 24),
			BcryptCost:         getEnvAsInt("AUTH_BCRYPT_COST", 12),
			MaxLoginAttempts:   getEnvAsInt("AUTH_MAX_LOGIN_ATTEMPTS", 5),
			LoginWindowMinutes: getEnvAsInt("AUTH_LOGIN_WINDOW_MINUTES", 15),
			LoginRatePerSecond: getEnvAsInt("AUTH_LOGIN_RATE_PER_SECOND", 5),
			LoginRateBurst:     getEnvAsInt("AUTH_LOGIN_RATE_BURST", 10),
		},
		Fetcher: FetcherConfig{
			SQLTimeoutSeconds:   getEnvAsInt("FETCHER_SQL_TIMEOUT_SECONDS", 30),
			APITimeoutSeconds:   getEnvAsInt("FETCHER_API_TIMEOUT_SECONDS", 30),
			ProbeTimeoutSeconds: getEnvAsInt("FETCHER_PROBE_TIMEOUT_SECONDS", 5),
		},
		Notification: NotificationConfig{
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		errs = append(errs, errors.New("AUTH_JWT_SECRET must not be empty"))
	}
	if c.Auth.JWTSecret == "dev-secret" && c.App.Env == "production" {
		errs = append(errs, errors.New("AUTH_JWT_SECRET must be set in production"))
	}
	if c.Auth.TokenExpiryHours <= 0 {
		errs = append(errs, errors.New("AUTH_TOKEN_EXPIRY_HOURS must be positive"))
	}
	if c.Auth.Issuer == "" || c.Auth.Audience == "" {
		errs = append(errs, errors.New("AUTH_JWT_ISSUER and AUTH_JWT_AUDIENCE are required"))
	}
	return errors.Join(errs...)
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TokenTTL returns the access token lifetime.
func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenExpiryHours) * time.Hour
}

// LoginWindow returns how long failed login attempts are remembered.
func (a AuthConfig) LoginWindow() time.Duration {
	return time.Duration(a.LoginWindowMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
