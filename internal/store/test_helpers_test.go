package store

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/roach88/tokenledger/internal/ir"
	"github.com/roach88/tokenledger/internal/testutil"
)

// createTestStore creates a new file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSlot creates a zero-filled slot at the deterministic address for name.
func createTestSlot(name string, kind ir.SlotKind, seq int64) ir.AccountSlot {
	return ir.AccountSlot{
		Address:    testutil.Address(name),
		Kind:       kind,
		Data:       make([]byte, kind.Size()),
		CreatedSeq: seq,
	}
}

// createTestRecord creates an instruction record with minimal required fields.
func createTestRecord(seq int64, status string, accounts ...string) ir.InstructionRecord {
	refs := make([]ir.AccountRef, len(accounts))
	for i, name := range accounts {
		refs[i] = ir.AccountRef{Address: testutil.Address(name), Signer: i == len(accounts)-1}
	}
	return ir.InstructionRecord{
		Seq:      seq,
		ID:       fmt.Sprintf("test-instruction-%d", seq),
		TraceID:  "trace-test",
		Op:       "Transfer",
		Data:     []byte{3, 1, 0, 0, 0, 0, 0, 0, 0},
		Accounts: refs,
		Status:   status,
	}
}
