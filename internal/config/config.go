package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service and the
// viewer clients.
type Config struct {
	App    AppConfig
	Ledger LedgerConfig
	Redis  RedisConfig
	Sync   SyncConfig
	Logger LoggerConfig
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

// LedgerConfig locates the persisted queue document.
type LedgerConfig struct {
	Path string
}

// RedisConfig holds the optional cross-instance signal relay. An empty
// Addr disables the relay entirely; fan-out is then local only.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// SyncConfig drives the viewer sync clients.
type SyncConfig struct {
	ServerURL           string
	WSURL               string
	PollIntervalSeconds int
	FetchTimeoutSeconds int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// Load reads configuration from environment variables, applying
// defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "branch-queue-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Ledger: LedgerConfig{
			Path: getEnv("LEDGER_PATH", "data/queue.json"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
			Channel:  getEnv("REDIS_SIGNAL_CHANNEL", "queue:updated"),
		},
		Sync: SyncConfig{
			ServerURL:           getEnv("QUEUE_SERVER_URL", "http://127.0.0.1:8080"),
			WSURL:               getEnv("QUEUE_WS_URL", "ws://127.0.0.1:8080/ws"),
			PollIntervalSeconds: getEnvAsInt("SYNC_POLL_INTERVAL_SECONDS", 5),
			FetchTimeoutSeconds: getEnvAsInt("SYNC_FETCH_TIMEOUT_SECONDS", 4),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	return cfg, nil
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

// Enabled reports whether the Redis relay is configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// PollInterval returns the fallback poll cadence.
func (s SyncConfig) PollInterval() time.Duration {
	if s.PollIntervalSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(s.PollIntervalSeconds) * time.Second
}

// FetchTimeout bounds a single ledger fetch.
func (s SyncConfig) FetchTimeout() time.Duration {
	if s.FetchTimeoutSeconds <= 0 {
		return 4 * time.Second
	}
	return time.Duration(s.FetchTimeoutSeconds) * time.Second
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
