package harness

import (
	"context"
	"fmt"
	"math/bits"
	"strings"

	"github.com/roach88/tokenledger/internal/codec"
	"github.com/roach88/tokenledger/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes the trace to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			if event.Type == EventInstruction {
				fmt.Fprintf(&buf, "  [%d] %s %v -> %s\n", event.Seq, event.Op, event.Accounts, event.Status)
			}
		}
	}
	return buf.String()
}

// evaluateAssertions runs every assertion and returns the failure messages.
func (h *Harness) evaluateAssertions(ctx context.Context, result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTokenState:
			err = h.assertTokenState(ctx, a)
		case AssertBalanceState:
			err = h.assertBalanceState(ctx, a)
		case AssertConservation:
			err = h.assertConservation(ctx, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertReplay:
			err = h.assertReplay(ctx)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			if ae, ok := err.(*AssertionError); ok && ae.Type == AssertTraceCount {
				ae.Trace = result.Trace
			}
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func (h *Harness) loadToken(ctx context.Context, name string) (ir.TokenDefinition, error) {
	slot, err := h.store.LoadAccount(ctx, h.address(name))
	if err != nil {
		return ir.TokenDefinition{}, err
	}
	return codec.DecodeTokenDefinition(slot.Data)
}

func (h *Harness) loadBalance(ctx context.Context, name string) (ir.BalanceAccount, error) {
	slot, err := h.store.LoadAccount(ctx, h.address(name))
	if err != nil {
		return ir.BalanceAccount{}, err
	}
	return codec.DecodeBalanceAccount(slot.Data)
}

func (h *Harness) assertTokenState(ctx context.Context, a Assertion) error {
	td, err := h.loadToken(ctx, a.Token)
	if err != nil {
		return err
	}
	if a.Authority != "" && td.Authority != h.address(a.Authority) {
		return &AssertionError{
			Type:     AssertTokenState,
			Expected: fmt.Sprintf("%s authority %s", a.Token, a.Authority),
			Actual:   h.name(td.Authority),
		}
	}
	if a.Supply != nil && td.Supply != *a.Supply {
		return &AssertionError{
			Type:     AssertTokenState,
			Expected: fmt.Sprintf("%s supply %d", a.Token, *a.Supply),
			Actual:   fmt.Sprintf("%d", td.Supply),
		}
	}
	return nil
}

func (h *Harness) assertBalanceState(ctx context.Context, a Assertion) error {
	ba, err := h.loadBalance(ctx, a.Account)
	if err != nil {
		return err
	}
	if a.Owner != "" && ba.Owner != h.address(a.Owner) {
		return &AssertionError{
			Type:     AssertBalanceState,
			Expected: fmt.Sprintf("%s owner %s", a.Account, a.Owner),
			Actual:   h.name(ba.Owner),
		}
	}
	if a.Token != "" && ba.Token != h.address(a.Token) {
		return &AssertionError{
			Type:     AssertBalanceState,
			Expected: fmt.Sprintf("%s token %s", a.Account, a.Token),
			Actual:   h.name(ba.Token),
		}
	}
	if a.Amount != nil && ba.Amount != *a.Amount {
		return &AssertionError{
			Type:     AssertBalanceState,
			Expected: fmt.Sprintf("%s amount %d", a.Account, *a.Amount),
			Actual:   fmt.Sprintf("%d", ba.Amount),
		}
	}
	return nil
}

// assertConservation checks supply == sum of amounts over every initialized
// balance slot of the token.
func (h *Harness) assertConservation(ctx context.Context, a Assertion) error {
	td, err := h.loadToken(ctx, a.Token)
	if err != nil {
		return err
	}
	token := h.address(a.Token)

	slots, err := h.store.ListAccounts(ctx)
	if err != nil {
		return err
	}
	var sum, carry uint64
	for _, slot := range slots {
		if slot.Kind != ir.SlotBalance || codec.IsZeroed(slot.Data) {
			continue
		}
		ba, err := codec.DecodeBalanceAccount(slot.Data)
		if err != nil {
			return err
		}
		if ba.Token != token {
			continue
		}
		sum, carry = bits.Add64(sum, ba.Amount, 0)
		if carry != 0 {
			return &AssertionError{Type: AssertConservation, Expected: "balances fit in u64", Actual: "overflow"}
		}
	}
	if sum != td.Supply {
		return &AssertionError{
			Type:     AssertConservation,
			Expected: fmt.Sprintf("%s balances sum to supply %d", a.Token, td.Supply),
			Actual:   fmt.Sprintf("%d", sum),
		}
	}
	return nil
}

// assertTraceCount checks that the op appears exactly the specified number
// of times, optionally restricted to one status.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Type != EventInstruction || event.Op != a.Op {
			continue
		}
		if a.Status != "" && event.Status != a.Status {
			continue
		}
		count++
	}
	if count != a.Count {
		what := a.Op
		if a.Status != "" {
			what += " with status " + a.Status
		}
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%s appears %d times", what, a.Count),
			Actual:   fmt.Sprintf("appears %d times", count),
		}
	}
	return nil
}

func (h *Harness) assertReplay(ctx context.Context) error {
	report, err := h.runtime.Replay(ctx)
	if err != nil {
		return err
	}
	if !report.OK() {
		return &AssertionError{
			Type:     AssertReplay,
			Expected: "replay reproduces the ledger",
			Actual:   fmt.Sprintf("%d divergences", len(report.Divergences)),
		}
	}
	return nil
}
