package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr        string
	DatabaseURL string
	Redis       RedisConfig

	TemplatesDir string
	CompanyName  string

	// SessionCacheTTL bounds how long a session snapshot may live in the
	// cache. Sessions are short conversations, so an hour is plenty.
	SessionCacheTTL time.Duration

	LogLevel string
}

// RedisConfig holds connection settings for the session cache. An empty URL
// means the cache is disabled and all reads go straight to Postgres.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("MIA_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	templatesDir := os.Getenv("TEMPLATES_DIR")
	if templatesDir == "" {
		templatesDir = "templates"
	}

	companyName := os.Getenv("COMPANY_NAME")
	if companyName == "" {
		companyName = "Banco Nova Era"
	}

	return Server{
		Addr:        addr,
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		TemplatesDir:    templatesDir,
		CompanyName:     companyName,
		SessionCacheTTL: envDuration("SESSION_CACHE_TTL", time.Hour),
		LogLevel:        os.Getenv("LOG_LEVEL"),
	}
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return v
}
