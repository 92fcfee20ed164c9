package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/tokenledger/internal/ir"
)

// defaultTraceID mirrors testutil.FixedTraceGenerator's default.
const defaultTraceID = "test-trace-default"

// TraceSnapshot captures the complete trace for a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	TraceID      string       `json:"trace_id"`
	Trace        []TraceEvent `json:"trace"`
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical JSON serialization.
// This is required because ir.MarshalCanonical only handles primitives, slices and maps.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		m := map[string]any{
			"type": event.Type,
			"seq":  event.Seq,
		}
		switch event.Type {
		case EventProvision:
			m["name"] = event.Name
			m["kind"] = event.Kind
		case EventInstruction:
			m["op"] = event.Op
			m["accounts"] = event.Accounts
			m["signers"] = event.Signers
			m["status"] = event.Status
			if event.Data != "" {
				m["data"] = event.Data
			}
			if event.Op == ir.TagMint.String() || event.Op == ir.TagTransfer.String() {
				m["amount"] = event.Amount
			}
		}
		traceList[i] = m
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace_id":      s.TraceID,
		"trace":         traceList,
	}
}

// CanonicalTrace renders a scenario's trace as canonical JSON.
func CanonicalTrace(scenario *Scenario, result *Result) ([]byte, error) {
	traceID := scenario.TraceID
	if traceID == "" {
		traceID = defaultTraceID
	}
	snapshot := TraceSnapshot{
		ScenarioName: scenario.Name,
		TraceID:      traceID,
		Trace:        result.Trace,
	}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check Pass. Test failure (via
// goldie) occurs if the trace doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	traceJSON, err := CanonicalTrace(scenario, result)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, traceJSON)

	return result, nil
}
