package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mr-tron/base58"
	"gopkg.in/yaml.v3"

	"github.com/roach88/tokenledger/internal/ir"
)

// Scenario defines one ledger conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// TraceID is stamped on every instruction.
	// If empty, defaults to "test-trace-default".
	TraceID string `yaml:"trace_id,omitempty"`

	// Slots are provisioned, in order, before the flow runs.
	Slots []SlotStep `yaml:"slots"`

	// Flow is the sequence of instructions to execute.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final trace and state.
	// Supported types: token_state, balance_state, conservation, trace_count, replay
	Assertions []Assertion `yaml:"assertions"`
}

// SlotStep provisions one named slot.
type SlotStep struct {
	Name string      `yaml:"name"`
	Kind ir.SlotKind `yaml:"kind"`
}

// FlowStep executes one instruction.
type FlowStep struct {
	// Op is the operation name (CreateToken, CreateTokenAccount, Mint, Transfer).
	Op string `yaml:"op,omitempty"`

	// Data is raw base58 instruction bytes, used instead of Op.
	Data string `yaml:"data,omitempty"`

	// Accounts are positional account names.
	Accounts []string `yaml:"accounts"`

	// Signers sign the request with their deterministic keys.
	Signers []string `yaml:"signers,omitempty"`

	// Amount is the Mint or Transfer amount.
	Amount uint64 `yaml:"amount,omitempty"`

	// Expect is the expected status: "ok" (default), a program error code,
	// or a host error code such as INVALID_SIGNATURE.
	Expect string `yaml:"expect,omitempty"`
}

// Assertion validates the final trace or state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "token_state": Check a token definition's authority and/or supply
	// - "balance_state": Check a balance account's owner, token and/or amount
	// - "conservation": Check supply equals the sum of the token's balances
	// - "trace_count": Check an op (optionally with a status) appears N times
	// - "replay": Check the log replays to identical state
	Type string `yaml:"type"`

	Token     string  `yaml:"token,omitempty"`
	Account   string  `yaml:"account,omitempty"`
	Authority string  `yaml:"authority,omitempty"`
	Owner     string  `yaml:"owner,omitempty"`
	Supply    *uint64 `yaml:"supply,omitempty"`
	Amount    *uint64 `yaml:"amount,omitempty"`

	Op     string `yaml:"op,omitempty"`
	Status string `yaml:"status,omitempty"`
	Count  int    `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertTokenState   = "token_state"
	AssertBalanceState = "balance_state"
	AssertConservation = "conservation"
	AssertTraceCount   = "trace_count"
	AssertReplay       = "replay"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadDir loads every *.yaml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	seen := make(map[string]bool, len(s.Slots))
	for i, slot := range s.Slots {
		if slot.Name == "" {
			return fmt.Errorf("slots[%d]: name is required", i)
		}
		if !ir.ValidSlotKinds[slot.Kind] {
			return fmt.Errorf("slots[%d]: invalid kind %q", i, slot.Kind)
		}
		if seen[slot.Name] {
			return fmt.Errorf("slots[%d]: duplicate slot %q", i, slot.Name)
		}
		seen[slot.Name] = true
	}

	for i, step := range s.Flow {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, step *FlowStep) error {
	switch {
	case step.Op == "" && step.Data == "":
		return fmt.Errorf("flow[%d]: op or data is required", index)
	case step.Op != "" && step.Data != "":
		return fmt.Errorf("flow[%d]: op and data are mutually exclusive", index)
	case step.Data != "":
		if _, err := base58.Decode(step.Data); err != nil {
			return fmt.Errorf("flow[%d]: data is not base58: %w", index, err)
		}
	default:
		if _, err := instructionFor(step); err != nil {
			return fmt.Errorf("flow[%d]: %w", index, err)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTokenState:
		if a.Token == "" {
			return fmt.Errorf("assertions[%d]: token is required for token_state", index)
		}
		if a.Authority == "" && a.Supply == nil {
			return fmt.Errorf("assertions[%d]: authority or supply is required for token_state", index)
		}
	case AssertBalanceState:
		if a.Account == "" {
			return fmt.Errorf("assertions[%d]: account is required for balance_state", index)
		}
		if a.Owner == "" && a.Token == "" && a.Amount == nil {
			return fmt.Errorf("assertions[%d]: owner, token or amount is required for balance_state", index)
		}
	case AssertConservation:
		if a.Token == "" {
			return fmt.Errorf("assertions[%d]: token is required for conservation", index)
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertReplay:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// instructionFor builds the typed instruction named by step.Op.
func instructionFor(step *FlowStep) (ir.Instruction, error) {
	switch step.Op {
	case ir.TagCreateToken.String():
		return ir.CreateToken{}, nil
	case ir.TagCreateTokenAccount.String():
		return ir.CreateTokenAccount{}, nil
	case ir.TagMint.String():
		return ir.Mint{Amount: step.Amount}, nil
	case ir.TagTransfer.String():
		return ir.Transfer{Amount: step.Amount}, nil
	default:
		return nil, fmt.Errorf("unknown op %q", step.Op)
	}
}
