// Package testing provides testing utilities and helpers for the pricecast project.
package testing

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/aristath/pricecast/internal/database"
	_ "modernc.org/sqlite"
)

// NewTestDB creates a temporary file-backed SQLite database with automatic schema migration.
// The database is closed when the test finishes.
//
// Supported schema names:
//   - "prices" - applies prices_schema.sql
//   - Unknown names - creates empty database (no schema applied)
func NewTestDB(t *testing.T, name string) *database.DB {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), fmt.Sprintf("test_%s.db", name)),
		Profile: database.ProfileStandard,
		Name:    name,
	})
	if err != nil {
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database %s: %v", name, err)
		}
	})

	if err := db.Migrate(); err != nil {
		t.Fatalf("Failed to migrate test database %s: %v", name, err)
	}

	return db
}

// NewTestDBWithSchema creates a temporary SQLite database and executes a custom schema on it.
func NewTestDBWithSchema(t *testing.T, name string, schema string) *database.DB {
	t.Helper()

	db := NewTestDB(t, name)
	if schema != "" {
		if _, err := db.Conn().Exec(schema); err != nil {
			t.Fatalf("Failed to execute custom schema for test database %s: %v", name, err)
		}
	}
	return db
}
