package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Port                 int
	Mode                 string
	QueryTimeout         time.Duration
	DashboardConcurrency int
}

// StoreConfig selects where trip records are read from. Backend is either
// "postgres" or "memory"; the memory backend is seeded from TripsCSV.
type StoreConfig struct {
	Backend  string
	TripsCSV string
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host         string
	Port         int
	Password     string
	DB           int
	AlertChannel string
}

type CORSConfig struct {
	AllowedOrigins string
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type LoggingConfig struct {
	Level  string
	Format string
}

func (d DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

func LoadConfig() (*Config, error) {
	ints := map[string]int{
		"SERVER_PORT":           8080,
		"QUERY_TIMEOUT_MS":      15000,
		"DASHBOARD_CONCURRENCY": 4,
		"DB_PORT":               5432,
		"DB_MAX_OPEN_CONNS":     10,
		"DB_MAX_IDLE_CONNS":     5,
		"REDIS_PORT":            6379,
		"REDIS_DB":              0,
		"RATE_LIMIT_BURST":      40,
	}
	for key, fallback := range ints {
		v, err := getIntEnv(key, fallback)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
		ints[key] = v
	}

	rps, err := getFloatEnv("RATE_LIMIT_RPS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}

	backend := getEnv("STORE_BACKEND", "postgres")
	if backend != "postgres" && backend != "memory" {
		return nil, fmt.Errorf("invalid STORE_BACKEND: %q (want postgres or memory)", backend)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:                 ints["SERVER_PORT"],
			Mode:                 getEnv("GIN_MODE", "release"),
			QueryTimeout:         time.Duration(ints["QUERY_TIMEOUT_MS"]) * time.Millisecond,
			DashboardConcurrency: ints["DASHBOARD_CONCURRENCY"],
		},
		Store: StoreConfig{
			Backend:  backend,
			TripsCSV: getEnv("TRIPS_CSV", ""),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         ints["DB_PORT"],
			User:         getEnv("DB_USER", "taxi"),
			Password:     getEnv("DB_PASSWORD", "taxi_dev_password"),
			Name:         getEnv("DB_NAME", "taxi_data"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: ints["DB_MAX_OPEN_CONNS"],
			MaxIdleConns: ints["DB_MAX_IDLE_CONNS"],
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         ints["REDIS_PORT"],
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           ints["REDIS_DB"],
			AlertChannel: getEnv("ALERT_CHANNEL", "taxi:alerts"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		RateLimit: RateLimitConfig{
			RPS:   rps,
			Burst: ints["RATE_LIMIT_BURST"],
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getIntEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func getFloatEnv(key string, fallback float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(value, 64)
}
