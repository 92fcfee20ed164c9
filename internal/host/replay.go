package host

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/mr-tron/base58"

	"github.com/roach88/tokenledger/internal/ir"
	"github.com/roach88/tokenledger/internal/store"
)

// Divergence is one difference between the recorded and the replayed ledger.
type Divergence struct {
	Seq      int64  `json:"seq,omitempty"`
	Address  string `json:"address,omitempty"`
	Field    string `json:"field"` // "status", "id", "data", "missing"
	Recorded string `json:"recorded"`
	Replayed string `json:"replayed"`
}

// ReplayReport summarizes a replay run.
type ReplayReport struct {
	Slots        int          `json:"slots"`
	Instructions int          `json:"instructions"`
	StateHash    string       `json:"state_hash"`
	ReplayHash   string       `json:"replay_hash"`
	Divergences  []Divergence `json:"divergences"`
}

// OK reports whether the replay reproduced the recorded ledger exactly.
func (rp *ReplayReport) OK() bool {
	return len(rp.Divergences) == 0 && rp.StateHash == rp.ReplayHash
}

// replayEvent is either a provisioning or an instruction, ordered by seq.
type replayEvent struct {
	seq  int64
	slot *ir.AccountSlot
	rec  *ir.InstructionRecord
}

// Replay rebuilds the ledger in a scratch in-memory store by re-provisioning
// every slot and re-running every logged instruction in seq order, then
// compares statuses, instruction IDs and final slot bytes with the live store.
//
// Signer flags are taken from the log; signatures were verified when the
// instruction was first executed.
func (r *Runtime) Replay(ctx context.Context) (*ReplayReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Slots and log are read in one transaction so they describe the same
	// point in the history.
	var (
		live    []ir.AccountSlot
		records []ir.InstructionRecord
	)
	err := r.store.Update(ctx, func(tx *store.Tx) error {
		var err error
		if live, err = tx.ListAccounts(ctx); err != nil {
			return err
		}
		records, err = tx.ReadInstructions(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}

	scratch, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("replay: scratch store: %w", err)
	}
	defer scratch.Close()

	sr := &Runtime{
		store:     scratch,
		traces:    r.traces,
		processor: r.processor,
		logger:    r.logger.With("replay", true),
	}

	events := make([]replayEvent, 0, len(live)+len(records))
	for i := range live {
		events = append(events, replayEvent{seq: live[i].CreatedSeq, slot: &live[i]})
	}
	for i := range records {
		events = append(events, replayEvent{seq: records[i].Seq, rec: &records[i]})
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].seq < events[j].seq })

	report := &ReplayReport{
		Slots:        len(live),
		Instructions: len(records),
		Divergences:  []Divergence{},
	}

	for _, ev := range events {
		if ev.slot != nil {
			fresh := ir.AccountSlot{
				Address:    ev.slot.Address,
				Kind:       ev.slot.Kind,
				Data:       make([]byte, ev.slot.Kind.Size()),
				CreatedSeq: ev.slot.CreatedSeq,
			}
			if err := scratch.ProvisionAccount(ctx, fresh); err != nil {
				return nil, fmt.Errorf("replay: seq %d: %w", ev.seq, err)
			}
			continue
		}

		sr.clock = NewClockAt(ev.rec.Seq - 1)
		receipt, err := sr.apply(ctx, ev.rec.TraceID, ev.rec.Data, ev.rec.Accounts)
		if err != nil {
			return nil, fmt.Errorf("replay: seq %d: %w", ev.seq, err)
		}
		if receipt.Status != ev.rec.Status {
			report.Divergences = append(report.Divergences, Divergence{
				Seq: ev.seq, Field: "status", Recorded: ev.rec.Status, Replayed: receipt.Status,
			})
		}
		if receipt.ID != ev.rec.ID {
			report.Divergences = append(report.Divergences, Divergence{
				Seq: ev.seq, Field: "id", Recorded: ev.rec.ID, Replayed: receipt.ID,
			})
		}
	}

	replayed, err := scratch.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	report.Divergences = append(report.Divergences, compareSlots(live, replayed)...)
	report.StateHash = ir.StateHash(live)
	report.ReplayHash = ir.StateHash(replayed)

	r.logger.Info("replay finished",
		"slots", report.Slots,
		"instructions", report.Instructions,
		"divergences", len(report.Divergences),
	)
	return report, nil
}

// compareSlots reports slots whose bytes differ, keyed by address.
func compareSlots(live, replayed []ir.AccountSlot) []Divergence {
	byAddr := make(map[ir.Address][]byte, len(replayed))
	for _, s := range replayed {
		byAddr[s.Address] = s.Data
	}

	var out []Divergence
	for _, s := range live {
		got, ok := byAddr[s.Address]
		if !ok {
			out = append(out, Divergence{Address: s.Address.String(), Field: "missing", Recorded: base58.Encode(s.Data)})
			continue
		}
		if !bytes.Equal(s.Data, got) {
			out = append(out, Divergence{
				Address:  s.Address.String(),
				Field:    "data",
				Recorded: base58.Encode(s.Data),
				Replayed: base58.Encode(got),
			})
		}
	}
	return out
}
