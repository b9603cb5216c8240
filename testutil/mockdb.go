package testutil

import (
	"testing"

	"github.com/iksnae/session-report/internal"
)

// SeedSQLiteStore creates a SQLite report database at path holding seed and
// returns the inserted ids in insertion order
func SeedSQLiteStore(t *testing.T, path string, seed []SeededReport) []string {
	t.Helper()
	store, err := internal.NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("Failed to create SQLite store: %v", err)
	}
	defer func() { _ = store.Close() }()
	return insertAll(t, store, seed)
}
