package storage

import (
	"testing"

	"github.com/agb-planner/planner/internal/db"
)

// NewTestDatabaseBackend creates a database backend over a migrated
// in-memory SQLite database. It is closed when the test completes.
func NewTestDatabaseBackend(t testing.TB) *DatabaseBackend {
	t.Helper()
	return NewDatabaseBackend(db.NewTestDB(t), DefaultOperationTimeout)
}

// NewTestCoordinator creates a coordinator over a test database backend
// and an empty demo store.
func NewTestCoordinator(t testing.TB) *Coordinator {
	t.Helper()
	return NewCoordinator(NewTestDatabaseBackend(t), NewMemoryBackend(), nil)
}
