package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"

	"github.com/roach88/tokenledger/internal/codec"
	"github.com/roach88/tokenledger/internal/host"
	"github.com/roach88/tokenledger/internal/ir"
	"github.com/roach88/tokenledger/internal/store"
	"github.com/roach88/tokenledger/internal/testutil"
)

// Harness holds the runtime and name bindings of one scenario run.
type Harness struct {
	runtime *host.Runtime
	store   *store.Store
	names   map[ir.Address]string
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
// 1. Create fresh in-memory database and runtime
// 2. Provision slots
// 3. Execute flow steps, checking each status against expect
// 4. Evaluate assertions
//
// The returned error is reserved for infrastructure failures; scenario
// mismatches are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	rt, err := host.New(ctx, st,
		host.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), // Suppress logs in tests
		host.WithClock(testutil.NewDeterministicClock()),
		host.WithTraceGenerator(testutil.NewFixedTraceGenerator(scenario.TraceID)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create runtime: %w", err)
	}

	h := &Harness{
		runtime: rt,
		store:   st,
		names:   make(map[ir.Address]string),
	}

	result := NewResult()
	if err := h.provision(ctx, scenario.Slots, result); err != nil {
		return nil, fmt.Errorf("failed to provision slots: %w", err)
	}
	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	for _, errMsg := range h.evaluateAssertions(ctx, result, scenario.Assertions) {
		result.AddError(errMsg)
	}
	return result, nil
}

// address binds name to its deterministic address.
func (h *Harness) address(name string) ir.Address {
	addr := testutil.Address(name)
	h.names[addr] = name
	return addr
}

// name renders addr as the scenario name it was bound from.
func (h *Harness) name(addr ir.Address) string {
	if n, ok := h.names[addr]; ok {
		return n
	}
	return addr.String()
}

func (h *Harness) provision(ctx context.Context, slots []SlotStep, result *Result) error {
	for _, s := range slots {
		slot, err := h.runtime.Provision(ctx, h.address(s.Name), s.Kind)
		if err != nil {
			return fmt.Errorf("slot %s: %w", s.Name, err)
		}
		result.Trace = append(result.Trace, TraceEvent{
			Type: EventProvision,
			Seq:  slot.CreatedSeq,
			Name: s.Name,
			Kind: string(s.Kind),
		})
	}
	return nil
}

func (h *Harness) executeFlow(ctx context.Context, steps []FlowStep, result *Result) error {
	for i, step := range steps {
		req, err := h.buildRequest(&step)
		if err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}

		event := TraceEvent{
			Type:     EventInstruction,
			Data:     step.Data,
			Accounts: step.Accounts,
			Signers:  step.Signers,
		}
		if step.Op != "" {
			event.Op = step.Op
			if step.Op == ir.TagMint.String() || step.Op == ir.TagTransfer.String() {
				event.Amount = step.Amount
			}
		}

		receipt, err := h.runtime.Execute(ctx, req)
		var he *host.HostError
		switch {
		case errors.As(err, &he):
			event.Status = string(he.Code)
		case err != nil:
			return fmt.Errorf("flow[%d]: %w", i, err)
		default:
			event.Seq = receipt.Seq
			event.Op = receipt.Op
			event.Status = receipt.Status
		}
		result.Trace = append(result.Trace, event)

		want := step.Expect
		if want == "" {
			want = ir.StatusOK
		}
		if event.Status != want {
			msg := fmt.Sprintf("flow[%d] %s: expected %s, got %s", i, event.Op, want, event.Status)
			if receipt != nil && receipt.Err != nil {
				msg += fmt.Sprintf(" (%v)", receipt.Err)
			} else if err != nil {
				msg += fmt.Sprintf(" (%v)", err)
			}
			result.AddError(msg)
		}
	}
	return nil
}

func (h *Harness) buildRequest(step *FlowStep) (host.Request, error) {
	var req host.Request
	if step.Data != "" {
		data, err := base58.Decode(step.Data)
		if err != nil {
			return req, fmt.Errorf("decode data: %w", err)
		}
		req.Data = data
	} else {
		ins, err := instructionFor(step)
		if err != nil {
			return req, err
		}
		req.Data = codec.EncodeInstruction(ins)
	}

	for _, name := range step.Accounts {
		req.Accounts = append(req.Accounts, h.address(name))
	}
	keys := make([]solana.PrivateKey, len(step.Signers))
	for i, name := range step.Signers {
		h.address(name)
		keys[i] = testutil.Key(name)
	}
	if err := req.Sign(keys...); err != nil {
		return req, err
	}
	return req, nil
}
