package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config captures all runtime configuration derived from environment variables.
type Config struct {
	Port     string
	AppEnv   string
	LogLevel string
	// AuthToken guards mutating routes when non-empty.
	AuthToken string

	DBURL             string
	DBAutoMigrate     bool
	DBMaxConns        int
	DBMinConns        int
	DBMaxIdleSecs     int
	DBMaxLifeSecs     int
	DBConnTimeoutSecs int
	DBStatementCache  int

	RedisURL       string
	RedisHost      string
	RedisPort      int
	RedisPassword  string
	RedisDB        int
	RedisTimeoutMS int

	CacheEnabled        bool
	CacheDefaultTTLSecs int
	CacheItemTTLSecs    int

	ReadTimeoutSecs  int
	WriteTimeoutSecs int
	IdleTimeoutSecs  int
}

// RedisAddr is host:port of the Redis server when no URL is configured.
func (c Config) RedisAddr() string {
	return net.JoinHostPort(c.RedisHost, strconv.Itoa(c.RedisPort))
}

// LoadDotEnv merges variables from the given files (default ".env") into the
// process environment. Missing files are ignored and variables that are
// already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables, applying defaults and validation.
func Load() (Config, error) {
	cfg := Config{
		Port:      getEnv("PORT", "8080"),
		AppEnv:    getEnv("APP_ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		AuthToken: os.Getenv("AUTH_TOKEN"),

		DBURL:             os.Getenv("DB_URL"),
		DBAutoMigrate:     getEnv("DB_AUTO_MIGRATE", "true") == "true",
		DBMaxConns:        getEnvInt("DB_MAX_CONNS", 20),
		DBMinConns:        getEnvInt("DB_MIN_CONNS", 2),
		DBMaxIdleSecs:     getEnvInt("DB_MAX_CONN_IDLE_SECS", 300),
		DBMaxLifeSecs:     getEnvInt("DB_MAX_CONN_LIFETIME_SECS", 3600),
		DBConnTimeoutSecs: getEnvInt("DB_CONN_TIMEOUT_SECS", 10),
		DBStatementCache:  getEnvInt("DB_STATEMENT_CACHE_CAPACITY", 256),

		RedisURL:       os.Getenv("REDIS_URL"),
		RedisHost:      getEnv("REDIS_HOST", "localhost"),
		RedisPort:      getEnvInt("REDIS_PORT", 6379),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		RedisTimeoutMS: getEnvInt("REDIS_TIMEOUT_MS", 500),

		// Only the literal "true" turns the cache on.
		CacheEnabled:        os.Getenv("CACHE_ENABLED") == "true",
		CacheDefaultTTLSecs: getEnvInt("CACHE_DEFAULT_TTL", 300),
		CacheItemTTLSecs:    getEnvInt("CACHE_ITEM_TTL", 600),

		ReadTimeoutSecs:  getEnvInt("SERVER_READ_TIMEOUT", 15),
		WriteTimeoutSecs: getEnvInt("SERVER_WRITE_TIMEOUT", 15),
		IdleTimeoutSecs:  getEnvInt("SERVER_IDLE_TIMEOUT", 60),
	}

	if cfg.DBURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required")
	}
	if cfg.DBMaxConns <= 0 {
		return Config{}, fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if cfg.DBMinConns < 0 {
		return Config{}, fmt.Errorf("DB_MIN_CONNS must be non-negative")
	}
	if cfg.DBMaxConns > 0 && cfg.DBMinConns > cfg.DBMaxConns {
		return Config{}, fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if cfg.DBStatementCache < 0 {
		return Config{}, fmt.Errorf("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
	}
	if cfg.RedisPort <= 0 || cfg.RedisPort > 65535 {
		return Config{}, fmt.Errorf("REDIS_PORT must be a valid port")
	}
	if cfg.RedisTimeoutMS <= 0 {
		return Config{}, fmt.Errorf("REDIS_TIMEOUT_MS must be positive")
	}
	if cfg.CacheDefaultTTLSecs <= 0 {
		return Config{}, fmt.Errorf("CACHE_DEFAULT_TTL must be positive")
	}
	if cfg.CacheItemTTLSecs <= 0 {
		return Config{}, fmt.Errorf("CACHE_ITEM_TTL must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}
