package postgres_test

import (
	"os"
	"testing"

	"tickerdash/config"
	"tickerdash/pkg/storage/postgres"
)

// go test -v --run TestCreateDatabase
func TestCreateDatabase(t *testing.T) {
	if os.Getenv("TICKERDASH_TEST_DSN") == "" {
		t.Skip("TICKERDASH_TEST_DSN not set")
	}

	cfg := config.PostgresConfig{
		Host:     envOr("PGHOST", "localhost"),
		Port:     5432,
		User:     envOr("PGUSER", "postgres"),
		Password: os.Getenv("PGPASSWORD"),
		DBName:   "tickerdash_test",
		SSLMode:  "disable",
	}

	if err := postgres.CreateDatabase(cfg); err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	// second call sees the existing database
	if err := postgres.CreateDatabase(cfg); err != nil {
		t.Fatalf("create is not idempotent: %v", err)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
