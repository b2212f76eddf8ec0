package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type PostgresConfig struct {
	Host     string
	Port     string
	DB       string
	Username string
	Password string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

type RepositoriesConfig struct {
	Postgres PostgresConfig
}

type JWTConfig struct {
	SecretKey  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type Config struct {
	Repositories RepositoriesConfig
	JWT          JWTConfig
	ServerPort   string
	MetricsPort  string
	PprofPort    string
}

func Load() (*Config, error) {
	cfg := &Config{
		Repositories: RepositoriesConfig{
			Postgres: PostgresConfig{
				Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
				Port:     getEnvOrDefault("POSTGRES_PORT", "5432"),
				DB:       getEnvOrDefault("POSTGRES_DB", "littletrip"),
				Username: getEnvOrDefault("POSTGRES_USER", "postgres"),
				Password: getEnvOrDefault("POSTGRES_PASSWORD", ""),
				SSLMode:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
				MaxConns: 30,
				MinConns: 5,
			},
		},
		JWT: JWTConfig{
			SecretKey:  getEnvOrDefault("JWT_SECRET_KEY", ""),
			AccessTTL:  getDurationOrDefault("JWT_ACCESS_TTL", 24*time.Hour),
			RefreshTTL: getDurationOrDefault("JWT_REFRESH_TTL", 30*24*time.Hour),
		},
		ServerPort:  getEnvOrDefault("SERVER_PORT", "8080"),
		MetricsPort: getEnvOrDefault("METRICS_PORT", "9092"),
		PprofPort:   getEnvOrDefault("PPROF_PORT", "6060"),
	}

	if cfg.Repositories.Postgres.Password == "" {
		return nil, fmt.Errorf("POSTGRES_PASSWORD environment variable is required")
	}
	if cfg.JWT.SecretKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is required")
	}
	if len(cfg.JWT.SecretKey) < 32 {
		return nil, fmt.Errorf("JWT_SECRET_KEY must be at least 32 characters")
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if hours, err := strconv.Atoi(value); err == nil {
		return time.Duration(hours) * time.Hour
	}
	return defaultValue
}
