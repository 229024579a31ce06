package db

import "testing"

// NewTestDB creates a migrated in-memory database for testing.
// The database is closed when the test completes.
//
// Usage:
//
//	func TestSomething(t *testing.T) {
//	    t.Parallel()
//	    store := db.NewTestDB(t)
//	    // use store...
//	}
func NewTestDB(t testing.TB) *DB {
	t.Helper()

	d, err := OpenInMemory()
	if err != nil {
		t.Fatalf("create test db: %v", err)
	}

	t.Cleanup(func() {
		_ = d.Close()
	})

	return d
}
