// Package testutil provides shared helpers for package tests.
package testutil

import (
	"context"
	"testing"

	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/storage"
)

// SetupTestDB creates a migrated in-memory SQLite database registered for
// cleanup with the test.
func SetupTestDB(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

// Int64Ptr returns a pointer to v, for optional reference fields.
func Int64Ptr(v int64) *int64 {
	return &v
}

// Float64Ptr returns a pointer to v, for optional amount bounds.
func Float64Ptr(v float64) *float64 {
	return &v
}
