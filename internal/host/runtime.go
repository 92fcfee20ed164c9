package host

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/tokenledger/internal/account"
	"github.com/roach88/tokenledger/internal/codec"
	"github.com/roach88/tokenledger/internal/ir"
	"github.com/roach88/tokenledger/internal/processor"
	"github.com/roach88/tokenledger/internal/store"
)

// Runtime executes requests against a store.
//
// Provision and Execute hold a mutex for their whole duration and run their
// load/process/commit sequence in one store write transaction, so requests
// never interleave, whether they come from this Runtime or from another
// process sharing the database file.
type Runtime struct {
	mu        sync.Mutex
	store     *store.Store
	clock     Sequencer
	traces    TraceGenerator
	processor *processor.Processor
	logger    *slog.Logger
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the runtime logger. The processor inherits it unless
// WithProcessor is also given.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// WithClock replaces the clock resumed from the store.
func WithClock(clock Sequencer) Option {
	return func(r *Runtime) {
		r.clock = clock
	}
}

// WithTraceGenerator replaces the UUIDv7 trace generator.
func WithTraceGenerator(gen TraceGenerator) Option {
	return func(r *Runtime) {
		r.traces = gen
	}
}

// WithProcessor replaces the processor.
func WithProcessor(p *processor.Processor) Option {
	return func(r *Runtime) {
		r.processor = p
	}
}

// New creates a Runtime over st. Without WithClock the clock resumes from
// the store's last seq.
func New(ctx context.Context, st *store.Store, opts ...Option) (*Runtime, error) {
	r := &Runtime{
		store:  st,
		traces: UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.clock == nil {
		last, err := st.LastSeq(ctx)
		if err != nil {
			return nil, fmt.Errorf("resume clock: %w", err)
		}
		r.clock = NewClockAt(last)
	}
	if r.processor == nil {
		r.processor = processor.New(processor.WithLogger(r.logger))
	}
	return r, nil
}

// Store returns the runtime's store for read access.
func (r *Runtime) Store() *store.Store {
	return r.store
}

// Provision allocates a zero-filled slot of the kind's record size at addr.
func (r *Runtime) Provision(ctx context.Context, addr ir.Address, kind ir.SlotKind) (ir.AccountSlot, error) {
	if !ir.ValidSlotKinds[kind] {
		return ir.AccountSlot{}, fmt.Errorf("provision: invalid kind %q", kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	slot := ir.AccountSlot{
		Address: addr,
		Kind:    kind,
		Data:    make([]byte, kind.Size()),
	}
	err := r.store.Update(ctx, func(tx *store.Tx) error {
		// Check before taking a seq so a duplicate leaves no gap.
		_, err := tx.LoadAccount(ctx, addr)
		switch {
		case err == nil:
			return fmt.Errorf("provision account %s: %w", addr, store.ErrAccountExists)
		case !errors.Is(err, store.ErrAccountNotFound):
			return err
		}

		if err := r.syncClock(ctx, tx); err != nil {
			return err
		}
		slot.CreatedSeq = r.clock.Next()
		slot.UpdatedSeq = slot.CreatedSeq
		return tx.ProvisionAccount(ctx, slot)
	})
	if err != nil {
		return ir.AccountSlot{}, fmt.Errorf("provision: %w", err)
	}

	r.logger.Debug("slot provisioned", "address", addr.String(), "kind", string(kind), "seq", slot.CreatedSeq)
	return slot, nil
}

// Execute verifies the request's signatures, runs the instruction and
// commits the outcome.
//
// A rejected instruction is still logged and returns a Receipt whose Err is
// the program error; the returned error is reserved for host failures
// (bad signatures, storage). A request with bad signatures logs nothing and
// consumes no seq.
func (r *Runtime) Execute(ctx context.Context, req Request) (*Receipt, error) {
	signers, err := req.verify()
	if err != nil {
		return nil, err
	}

	refs := make([]ir.AccountRef, len(req.Accounts))
	for i, addr := range req.Accounts {
		refs[i] = ir.AccountRef{Address: addr, Signer: signers[addr]}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.apply(ctx, r.traces.Generate(), req.Data, refs)
}

// apply runs attested accounts through the processor and commits. The
// caller holds r.mu.
func (r *Runtime) apply(ctx context.Context, traceID string, data []byte, refs []ir.AccountRef) (*Receipt, error) {
	var (
		rec     ir.InstructionRecord
		progErr error
		writes  []ir.AccountWrite
	)

	// Load, seq assignment and commit share one write transaction, so no
	// other writer can change the loaded slots before the writes land.
	err := r.store.Update(ctx, func(tx *store.Tx) error {
		handles, slots, err := r.loadHandles(ctx, tx, refs)
		if err != nil {
			return err
		}
		if err := r.syncClock(ctx, tx); err != nil {
			return fmt.Errorf("execute: %w", err)
		}

		seq := r.clock.Next()
		rec = ir.InstructionRecord{
			Seq:      seq,
			TraceID:  traceID,
			Op:       opName(data),
			Data:     data,
			Accounts: refs,
			Status:   ir.StatusOK,
		}
		rec.ID, err = ir.InstructionID(traceID, seq, data, refs)
		if err != nil {
			return fmt.Errorf("execute: %w", err)
		}

		progErr = r.processor.Process(handles, data)
		if progErr != nil {
			code := processor.CodeOf(progErr)
			if code == "" {
				return fmt.Errorf("execute: %w", progErr)
			}
			rec.Status = string(code)
			rec.Message = progErr.Error()
		} else {
			writes = slots.changed()
		}

		if err := tx.Append(ctx, rec, writes); err != nil {
			return fmt.Errorf("execute: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger := r.logger.With("trace_id", traceID, "seq", rec.Seq)
	if progErr != nil {
		logger.Info("instruction failed", "op", rec.Op, "status", rec.Status)
	} else {
		logger.Debug("instruction committed", "op", rec.Op, "writes", len(writes))
	}

	return &Receipt{
		Seq:     rec.Seq,
		ID:      rec.ID,
		TraceID: traceID,
		Op:      rec.Op,
		Status:  rec.Status,
		Err:     progErr,
	}, nil
}

// syncClock advances the clock past every seq already in the store, which
// another process may have written since this runtime last looked.
func (r *Runtime) syncClock(ctx context.Context, tx *store.Tx) error {
	last, err := tx.LastSeq(ctx)
	if err != nil {
		return err
	}
	r.clock.Advance(last)
	return nil
}

// slotBuffers tracks the working buffer of every slot-backed account in a
// request alongside its bytes as loaded.
type slotBuffers struct {
	order    []ir.Address
	working  map[ir.Address][]byte
	original map[ir.Address][]byte
}

// changed returns writes for every slot whose bytes differ from the load.
func (s *slotBuffers) changed() []ir.AccountWrite {
	var writes []ir.AccountWrite
	for _, addr := range s.order {
		if !bytes.Equal(s.working[addr], s.original[addr]) {
			writes = append(writes, ir.AccountWrite{Address: addr, Data: s.working[addr]})
		}
	}
	return writes
}

// loadHandles builds one handle per positional account. Repeated addresses
// share a buffer. Addresses with no slot get an empty buffer.
func (r *Runtime) loadHandles(ctx context.Context, tx *store.Tx, refs []ir.AccountRef) ([]*account.Handle, *slotBuffers, error) {
	slots := &slotBuffers{
		working:  make(map[ir.Address][]byte),
		original: make(map[ir.Address][]byte),
	}
	keyOnly := make(map[ir.Address]bool)

	handles := make([]*account.Handle, len(refs))
	for i, ref := range refs {
		buf, loaded := slots.working[ref.Address]
		if !loaded && !keyOnly[ref.Address] {
			slot, err := tx.LoadAccount(ctx, ref.Address)
			switch {
			case errors.Is(err, store.ErrAccountNotFound):
				keyOnly[ref.Address] = true
			case err != nil:
				return nil, nil, fmt.Errorf("execute: %w", err)
			default:
				buf = slot.Data
				slots.order = append(slots.order, ref.Address)
				slots.working[ref.Address] = buf
				slots.original[ref.Address] = bytes.Clone(buf)
			}
		}
		handles[i] = &account.Handle{Key: ref.Address, Data: buf, IsSigner: ref.Signer}
	}
	return handles, slots, nil
}

// opName returns the decoded operation name, or "unknown".
func opName(data []byte) string {
	ins, err := codec.DecodeInstruction(data)
	if err != nil {
		return "unknown"
	}
	return ins.Tag().String()
}
