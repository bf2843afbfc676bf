package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

var configKeys = []string{
	"SERVER_PORT", "GIN_MODE", "QUERY_TIMEOUT_MS", "DASHBOARD_CONCURRENCY",
	"STORE_BACKEND", "TRIPS_CSV",
	"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE", "DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS",
	"REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB", "ALERT_CHANNEL",
	"CORS_ALLOWED_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "LOG_LEVEL", "LOG_FORMAT",
}

func clearEnv() {
	for _, key := range configKeys {
		os.Unsetenv(key)
	}
}

func TestGetDSN(t *testing.T) {
	db := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "taxi",
		Password: "secret",
		Name:     "taxi_data",
		SSLMode:  "disable",
	}
	dsn := db.GetDSN()

	expected := "host=localhost port=5432 user=taxi password=secret dbname=taxi_data sslmode=disable"
	if dsn != expected {
		t.Errorf("GetDSN() = %q, want %q", dsn, expected)
	}
}

func TestGetDSNCustomValues(t *testing.T) {
	db := DatabaseConfig{
		Host:     "db.example.com",
		Port:     5433,
		User:     "admin",
		Password: "p@ss",
		Name:     "mydb",
		SSLMode:  "require",
	}
	dsn := db.GetDSN()

	for _, part := range []string{"host=db.example.com", "port=5433", "sslmode=require"} {
		if !strings.Contains(dsn, part) {
			t.Errorf("DSN missing %s, got: %s", part, dsn)
		}
	}
}

func TestRedisAddr(t *testing.T) {
	r := RedisConfig{Host: "cache", Port: 6380}
	if got := r.Addr(); got != "cache:6380" {
		t.Errorf("Addr() = %q, want %q", got, "cache:6380")
	}
}

func TestGetEnv(t *testing.T) {
	os.Unsetenv("TEST_CONFIG_VAR")
	if got := getEnv("TEST_CONFIG_VAR", "default"); got != "default" {
		t.Errorf("getEnv() = %q, want %q", got, "default")
	}

	os.Setenv("TEST_CONFIG_VAR", "custom")
	defer os.Unsetenv("TEST_CONFIG_VAR")
	if got := getEnv("TEST_CONFIG_VAR", "default"); got != "custom" {
		t.Errorf("getEnv() = %q, want %q", got, "custom")
	}
}

func TestGetIntEnv(t *testing.T) {
	t.Run("fallback when unset", func(t *testing.T) {
		os.Unsetenv("TEST_INT_VAR")
		got, err := getIntEnv("TEST_INT_VAR", 8080)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 8080 {
			t.Errorf("getIntEnv() = %d, want %d", got, 8080)
		}
	})

	t.Run("parses valid int", func(t *testing.T) {
		os.Setenv("TEST_INT_VAR", "9090")
		defer os.Unsetenv("TEST_INT_VAR")
		got, err := getIntEnv("TEST_INT_VAR", 8080)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 9090 {
			t.Errorf("getIntEnv() = %d, want %d", got, 9090)
		}
	})

	t.Run("error on invalid int", func(t *testing.T) {
		os.Setenv("TEST_INT_VAR", "not_int")
		defer os.Unsetenv("TEST_INT_VAR")
		if _, err := getIntEnv("TEST_INT_VAR", 8080); err == nil {
			t.Error("expected error for invalid int value")
		}
	})
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv()

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.QueryTimeout != 15*time.Second {
		t.Errorf("Server.QueryTimeout = %s, want 15s", cfg.Server.QueryTimeout)
	}
	if cfg.Server.DashboardConcurrency != 4 {
		t.Errorf("Server.DashboardConcurrency = %d, want 4", cfg.Server.DashboardConcurrency)
	}
	if cfg.Store.Backend != "postgres" {
		t.Errorf("Store.Backend = %q, want %q", cfg.Store.Backend, "postgres")
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("Database.Host = %q, want %q", cfg.Database.Host, "localhost")
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Database.Port = %d, want 5432", cfg.Database.Port)
	}
	if cfg.Redis.Port != 6379 {
		t.Errorf("Redis.Port = %d, want 6379", cfg.Redis.Port)
	}
	if cfg.Redis.AlertChannel != "taxi:alerts" {
		t.Errorf("Redis.AlertChannel = %q, want %q", cfg.Redis.AlertChannel, "taxi:alerts")
	}
	if cfg.CORS.AllowedOrigins != "*" {
		t.Errorf("CORS.AllowedOrigins = %q, want %q", cfg.CORS.AllowedOrigins, "*")
	}
	if cfg.RateLimit.RPS != 20 || cfg.RateLimit.Burst != 40 {
		t.Errorf("RateLimit = %+v, want {20 40}", cfg.RateLimit)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
}

func TestLoadConfigCustom(t *testing.T) {
	clearEnv()
	os.Setenv("SERVER_PORT", "3001")
	os.Setenv("DB_HOST", "db.prod")
	os.Setenv("DB_PORT", "5433")
	os.Setenv("STORE_BACKEND", "memory")
	os.Setenv("TRIPS_CSV", "/data/trips.csv")
	os.Setenv("QUERY_TIMEOUT_MS", "2500")
	os.Setenv("RATE_LIMIT_RPS", "2.5")
	defer clearEnv()

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.Server.Port != 3001 {
		t.Errorf("Server.Port = %d, want 3001", cfg.Server.Port)
	}
	if cfg.Database.Host != "db.prod" {
		t.Errorf("Database.Host = %q, want %q", cfg.Database.Host, "db.prod")
	}
	if cfg.Database.Port != 5433 {
		t.Errorf("Database.Port = %d, want 5433", cfg.Database.Port)
	}
	if cfg.Store.Backend != "memory" || cfg.Store.TripsCSV != "/data/trips.csv" {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Server.QueryTimeout != 2500*time.Millisecond {
		t.Errorf("Server.QueryTimeout = %s, want 2.5s", cfg.Server.QueryTimeout)
	}
	if cfg.RateLimit.RPS != 2.5 {
		t.Errorf("RateLimit.RPS = %v, want 2.5", cfg.RateLimit.RPS)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"SERVER_PORT", "invalid"},
		{"QUERY_TIMEOUT_MS", "soon"},
		{"RATE_LIMIT_RPS", "fast"},
		{"STORE_BACKEND", "mysql"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv()
			os.Setenv(tt.key, tt.value)
			defer clearEnv()

			_, err := LoadConfig()
			if err == nil {
				t.Fatalf("expected error for %s=%q", tt.key, tt.value)
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("error %q should name %s", err, tt.key)
			}
		})
	}
}
