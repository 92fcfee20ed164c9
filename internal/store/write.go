package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/tokenledger/internal/ir"
)

// Tx is a write transaction. It holds SQLite's write lock from its first
// statement, so everything read through it stays current until it ends,
// across every process sharing the database file.
type Tx struct {
	q querier
}

// Update runs fn in a write transaction and commits it when fn returns nil.
// Any error from fn rolls the transaction back. Concurrent writers, in this
// process or another, wait on the database lock (busy_timeout) instead of
// interleaving.
func (s *Store) Update(ctx context.Context, fn func(tx *Tx) error) error {
	// BEGIN IMMEDIATE, see the _txlock DSN option in Open.
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback() // No-op if committed

	if err := fn(&Tx{q: sqlTx}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// LoadAccount is Store.LoadAccount inside the transaction.
func (tx *Tx) LoadAccount(ctx context.Context, addr ir.Address) (ir.AccountSlot, error) {
	return loadAccount(ctx, tx.q, addr)
}

// ListAccounts is Store.ListAccounts inside the transaction.
func (tx *Tx) ListAccounts(ctx context.Context) ([]ir.AccountSlot, error) {
	return listAccounts(ctx, tx.q)
}

// ReadInstructions is Store.ReadInstructions inside the transaction.
func (tx *Tx) ReadInstructions(ctx context.Context) ([]ir.InstructionRecord, error) {
	return readInstructions(ctx, tx.q)
}

// LastSeq is Store.LastSeq inside the transaction.
func (tx *Tx) LastSeq(ctx context.Context) (int64, error) {
	return lastSeq(ctx, tx.q)
}

// ProvisionAccount is Store.ProvisionAccount inside the transaction.
func (tx *Tx) ProvisionAccount(ctx context.Context, slot ir.AccountSlot) error {
	return provisionAccount(ctx, tx.q, slot)
}

// Append is Store.Commit inside the transaction: the log row and its writes
// land when the transaction commits.
func (tx *Tx) Append(ctx context.Context, rec ir.InstructionRecord, writes []ir.AccountWrite) error {
	return appendInstruction(ctx, tx.q, rec, writes)
}

// ProvisionAccount allocates a storage slot. The slot's Data is stored as
// given; the runtime always passes a zero-filled buffer of the kind's size.
// Returns ErrAccountExists if the address is already provisioned.
func (s *Store) ProvisionAccount(ctx context.Context, slot ir.AccountSlot) error {
	return provisionAccount(ctx, s.db, slot)
}

// Commit appends an instruction record and applies its account writes in a
// single transaction. Either the log row and every write land, or nothing does.
//
// A write whose address does not exist, or whose data length differs from the
// provisioned slot, aborts the whole commit.
func (s *Store) Commit(ctx context.Context, rec ir.InstructionRecord, writes []ir.AccountWrite) error {
	return s.Update(ctx, func(tx *Tx) error {
		return tx.Append(ctx, rec, writes)
	})
}

func provisionAccount(ctx context.Context, q querier, slot ir.AccountSlot) error {
	if !ir.ValidSlotKinds[slot.Kind] {
		return fmt.Errorf("provision account: invalid kind %q", slot.Kind)
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO accounts (address, kind, data, created_seq, updated_seq)
		VALUES (?, ?, ?, ?, ?)
	`,
		slot.Address.String(),
		string(slot.Kind),
		slot.Data,
		slot.CreatedSeq,
		slot.CreatedSeq,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("provision account %s: %w", slot.Address, ErrAccountExists)
		}
		return fmt.Errorf("provision account: %w", err)
	}
	return nil
}

func appendInstruction(ctx context.Context, q querier, rec ir.InstructionRecord, writes []ir.AccountWrite) error {
	if rec.Data == nil {
		rec.Data = []byte{} // nil binds as NULL
	}
	accountsJSON, err := marshalAccounts(rec.Accounts)
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO instructions (seq, id, trace_id, op, data, accounts, status, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.Seq,
		rec.ID,
		rec.TraceID,
		rec.Op,
		rec.Data,
		accountsJSON,
		rec.Status,
		rec.Message,
	)
	if err != nil {
		return fmt.Errorf("commit: insert instruction %d: %w", rec.Seq, err)
	}

	for _, w := range writes {
		result, err := q.ExecContext(ctx, `
			UPDATE accounts SET data = ?, updated_seq = ?
			WHERE address = ? AND length(data) = ?
		`, w.Data, rec.Seq, w.Address.String(), len(w.Data))
		if err != nil {
			return fmt.Errorf("commit: write %s: %w", w.Address, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("commit: rows affected: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("commit: write %s (%d bytes): %w", w.Address, len(w.Data), ErrAccountNotFound)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
