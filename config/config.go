package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	LogLevel    string
	ServiceName string

	// Store selects the repository backend: "postgres" or "memory".
	Store       string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	DBMaxConns  int
	DatabaseURL string

	RedisAddr       string
	RedisDB         int
	CacheTTLSeconds int

	ESAddr  string
	ESIndex string

	NATSURL string

	JWTSecret string

	OTLPEndpoint   string
	RequestTimeout time.Duration
}

// Load reads an optional .env file and then the process environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			if err := godotenv.Load(f); err != nil {
				return nil, fmt.Errorf("config: load %s: %w", f, err)
			}
		}
	}

	cfg := &Config{
		Port:        mustEnv("APP_PORT", "8080"),
		LogLevel:    mustEnv("LOG_LEVEL", "info"),
		ServiceName: mustEnv("SERVICE_NAME", "blog-api"),

		Store:       strings.ToLower(mustEnv("STORE", "postgres")),
		DBHost:      mustEnv("DB_HOST", "postgres"),
		DBPort:      mustEnv("DB_PORT", "5432"),
		DBUser:      mustEnv("DB_USER", "blog"),
		DBPassword:  mustEnv("DB_PASSWORD", "blogpass"),
		DBName:      mustEnv("DB_NAME", "blogdb"),
		DBSSLMode:   mustEnv("DB_SSLMODE", "disable"),
		DBMaxConns:  mustEnvInt("DB_MAX_CONNS", 10),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisDB:         mustEnvInt("REDIS_DB", 0),
		CacheTTLSeconds: mustEnvInt("CACHE_TTL_SECONDS", 300),

		ESAddr:  os.Getenv("ES_ADDR"),
		ESIndex: mustEnv("ES_INDEX", "posts"),

		NATSURL: os.Getenv("NATS_URL"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		OTLPEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		RequestTimeout: time.Duration(mustEnvInt("REQUEST_TIMEOUT_SECONDS", 5)) * time.Second,
	}

	if cfg.Store != "postgres" && cfg.Store != "memory" {
		return nil, fmt.Errorf("config: STORE must be postgres or memory, got %q", cfg.Store)
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("config: JWT_SECRET is required")
	}
	return cfg, nil
}

// DSN returns DATABASE_URL when set, otherwise one built from the DB_* parts.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s&pool_max_conns=%d",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode, c.DBMaxConns)
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

func mustEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustEnvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}
