package testutil

import (
	"database/sql"
	"os"
	"strconv"
	"testing"

	"github.com/yirikai/yirikai/internal/config"
	"github.com/yirikai/yirikai/internal/db"
)

// OpenTestDB connects to the postgres named by TEST_DB_* variables and skips
// the test when TEST_DB_HOST is not set.
func OpenTestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping postgres test")
	}
	port := 5432
	if v, err := strconv.Atoi(os.Getenv("TEST_DB_PORT")); err == nil && v > 0 {
		port = v
	}
	conn, err := db.Open(config.DatabaseConfig{
		Host:     host,
		Port:     port,
		User:     envOr("TEST_DB_USER", "yirikai"),
		Password: envOr("TEST_DB_PASSWORD", "yirikai_pass"),
		DBName:   envOr("TEST_DB_NAME", "yirikai_test"),
		SSLMode:  "disable",
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(conn); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	return conn, func() {
		_ = conn.Close()
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
