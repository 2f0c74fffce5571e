// Package tests contains integration tests that run against a real PostgreSQL server
package tests

import (
	"errors"
	"testing"

	testingutil "github.com/amirphl/photo-moderation/testing"
	"github.com/stretchr/testify/require"
)

// withDB runs fn against a freshly migrated database and skips the test when
// no server is reachable.
func withDB(t *testing.T, fn func(t *testing.T, db *testingutil.TestDB, fixtures *testingutil.TestFixtures)) {
	t.Helper()

	err := testingutil.TestWithDB(func(db *testingutil.TestDB) error {
		fn(t, db, testingutil.NewTestFixtures(db))
		return nil
	})
	if errors.Is(err, testingutil.ErrDatabaseUnavailable) {
		t.Skipf("skipping integration test: %v", err)
	}
	require.NoError(t, err)
}
