package harness

// Trace event types.
const (
	EventProvision   = "provision"
	EventInstruction = "instruction"
)

// TraceEvent is one provisioning or instruction, with addresses rendered as
// scenario names.
type TraceEvent struct {
	Type     string   `json:"type"` // "provision" or "instruction"
	Seq      int64    `json:"seq"`  // 0 for requests rejected by the host
	Name     string   `json:"name,omitempty"`
	Kind     string   `json:"kind,omitempty"`
	Op       string   `json:"op,omitempty"`
	Data     string   `json:"data,omitempty"`
	Accounts []string `json:"accounts,omitempty"`
	Signers  []string `json:"signers,omitempty"`
	Amount   uint64   `json:"amount,omitempty"`
	Status   string   `json:"status,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every step status and assertion matched.
	Pass bool `json:"pass"`

	// Trace contains every provisioning and instruction in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
