package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

var testTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// createTestLedger creates a new file-backed ledger for testing.
func createTestLedger(t *testing.T) *Ledger {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

// beginTest starts a transaction in namespace and rolls it back on cleanup
// if the test did not finish it.
func beginTest(t *testing.T, l *Ledger, namespace, txID string) *Stub {
	t.Helper()
	stub, err := l.Begin(context.Background(), TxOptions{Namespace: namespace, TxID: txID, Timestamp: testTime})
	if err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}
	t.Cleanup(func() { stub.Rollback() })
	return stub
}

// drainKeys reads every key from it and closes it.
func drainKeys(t *testing.T, it *Iterator) []string {
	t.Helper()
	defer it.Close()
	keys := []string{}
	for it.HasNext() {
		kv, err := it.Next()
		if err != nil {
			t.Fatalf("Next() failed: %v", err)
		}
		keys = append(keys, kv.Key)
	}
	return keys
}
