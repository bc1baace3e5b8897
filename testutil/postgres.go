// Package testutil holds helpers shared by package tests.
package testutil

import (
	"database/sql"
	"os"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/onnwee/stream-recap/db"
)

// SetupTestDB opens TEST_PG_DSN, applies migrations and empties the sessions
// table. It skips the test if TEST_PG_DSN environment variable is not set.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		t.Skip("TEST_PG_DSN not set")
	}
	database, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.RunMigrations(database); err != nil {
		database.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}
	if _, err := database.Exec(`TRUNCATE sessions`); err != nil {
		database.Close()
		t.Fatalf("failed to truncate sessions: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})
	return database
}
