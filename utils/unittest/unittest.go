package unittest

import (
	"os"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/stretchr/testify/require"
)

// returnsBefore runs f in a goroutine and reports whether it returned
// within timeout.
func returnsBefore(f func(), timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		defer close(done)
		f()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

// AssertReturnsBefore marks the test failed if f does not return within
// timeout, and continues.
func AssertReturnsBefore(t testing.TB, f func(), timeout time.Duration) bool {
	if returnsBefore(f, timeout) {
		return true
	}
	t.Errorf("function did not return within %s", timeout)
	return false
}

// RequireReturnsBefore stops the test if f does not return within timeout.
func RequireReturnsBefore(t testing.TB, f func(), timeout time.Duration) {
	if !returnsBefore(f, timeout) {
		require.FailNowf(t, "timeout", "function did not return within %s", timeout)
	}
}

// TempDir creates a directory the caller must remove.
func TempDir(t testing.TB) string {
	dir, err := os.MkdirTemp("", "guild-oracle-test-")
	require.NoError(t, err)
	return dir
}

func RunWithTempDir(t testing.TB, f func(dir string)) {
	dir := TempDir(t)
	defer os.RemoveAll(dir)
	f(dir)
}

// BadgerDB opens a quiet database in dir.
func BadgerDB(t testing.TB, dir string) *badger.DB {
	db, err := badger.Open(badger.DefaultOptions(dir).WithKeepL0InMemory(true).WithLogger(nil))
	require.NoError(t, err)
	return db
}

// RunWithBadgerDB runs f against a database in a fresh directory that is
// closed and removed afterwards.
func RunWithBadgerDB(t testing.TB, f func(db *badger.DB)) {
	RunWithTempDir(t, func(dir string) {
		db := BadgerDB(t, dir)
		defer func() {
			require.NoError(t, db.Close())
		}()
		f(db)
	})
}
