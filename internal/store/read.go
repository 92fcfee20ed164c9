package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/tokenledger/internal/ir"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// LoadAccount returns the slot at addr, or ErrAccountNotFound.
func (s *Store) LoadAccount(ctx context.Context, addr ir.Address) (ir.AccountSlot, error) {
	return loadAccount(ctx, s.db, addr)
}

// ListAccounts returns every slot ordered by provisioning seq, then address.
// Returns an empty slice (not nil) when no slots exist.
func (s *Store) ListAccounts(ctx context.Context) ([]ir.AccountSlot, error) {
	return listAccounts(ctx, s.db)
}

// ReadInstructions returns the whole instruction log in seq order.
// Returns an empty slice (not nil) when the log is empty.
func (s *Store) ReadInstructions(ctx context.Context) ([]ir.InstructionRecord, error) {
	return readInstructions(ctx, s.db)
}

// LastSeq returns the highest seq used by any slot or instruction, or 0.
// The runtime resumes its logical clock from this value.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	return lastSeq(ctx, s.db)
}

func loadAccount(ctx context.Context, q querier, addr ir.Address) (ir.AccountSlot, error) {
	row := q.QueryRowContext(ctx, `
		SELECT address, kind, data, created_seq, updated_seq
		FROM accounts
		WHERE address = ?
	`, addr.String())

	slot, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.AccountSlot{}, fmt.Errorf("load account %s: %w", addr, ErrAccountNotFound)
	}
	if err != nil {
		return ir.AccountSlot{}, fmt.Errorf("load account %s: %w", addr, err)
	}
	return slot, nil
}

func listAccounts(ctx context.Context, q querier) ([]ir.AccountSlot, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT address, kind, data, created_seq, updated_seq
		FROM accounts
		ORDER BY created_seq ASC, address COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	slots := []ir.AccountSlot{}
	for rows.Next() {
		slot, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return slots, nil
}

func readInstructions(ctx context.Context, q querier) ([]ir.InstructionRecord, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT seq, id, trace_id, op, data, accounts, status, message
		FROM instructions
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query instructions: %w", err)
	}
	defer rows.Close()

	records := []ir.InstructionRecord{}
	for rows.Next() {
		rec, err := scanInstruction(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate instructions: %w", err)
	}
	return records, nil
}

// ReadInstruction returns the log entry at seq, or ErrInstructionNotFound.
func (s *Store) ReadInstruction(ctx context.Context, seq int64) (ir.InstructionRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT seq, id, trace_id, op, data, accounts, status, message
		FROM instructions
		WHERE seq = ?
	`, seq)

	rec, err := scanInstruction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.InstructionRecord{}, fmt.Errorf("read instruction %d: %w", seq, ErrInstructionNotFound)
	}
	if err != nil {
		return ir.InstructionRecord{}, fmt.Errorf("read instruction %d: %w", seq, err)
	}
	return rec, nil
}

func lastSeq(ctx context.Context, q querier) (int64, error) {
	var seq int64
	err := q.QueryRowContext(ctx, `
		SELECT MAX(
			COALESCE((SELECT MAX(seq) FROM instructions), 0),
			COALESCE((SELECT MAX(created_seq) FROM accounts), 0)
		)
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq, nil
}

func scanAccount(row rowScanner) (ir.AccountSlot, error) {
	var (
		slot    ir.AccountSlot
		address string
		kind    string
	)
	if err := row.Scan(&address, &kind, &slot.Data, &slot.CreatedSeq, &slot.UpdatedSeq); err != nil {
		return ir.AccountSlot{}, err
	}
	addr, err := parseAddress(address)
	if err != nil {
		return ir.AccountSlot{}, err
	}
	slot.Address = addr
	slot.Kind = ir.SlotKind(kind)
	return slot, nil
}

func scanInstruction(row rowScanner) (ir.InstructionRecord, error) {
	var (
		rec          ir.InstructionRecord
		accountsJSON string
	)
	err := row.Scan(&rec.Seq, &rec.ID, &rec.TraceID, &rec.Op, &rec.Data, &accountsJSON, &rec.Status, &rec.Message)
	if err != nil {
		return ir.InstructionRecord{}, err
	}
	rec.Accounts, err = unmarshalAccounts(accountsJSON)
	if err != nil {
		return ir.InstructionRecord{}, err
	}
	return rec, nil
}
