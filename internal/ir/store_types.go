package ir

// NOTE: These are host/store types, not part of the ledger core.
// The core only ever sees raw account buffers.

// StatusOK is the instruction status recorded for a successful invocation.
// Failed invocations record the program error code instead.
const StatusOK = "ok"

// AccountSlot is a host-provisioned storage slot.
type AccountSlot struct {
	Address    Address  `json:"address"`
	Kind       SlotKind `json:"kind"`
	Data       []byte   `json:"data"`
	CreatedSeq int64    `json:"created_seq"` // Logical clock at provisioning
	UpdatedSeq int64    `json:"updated_seq"` // Logical clock of last committed write
}

// AccountRef is one positional account of an instruction as the host saw it.
type AccountRef struct {
	Address Address `json:"address"`
	Signer  bool    `json:"signer"` // host verified a signature from this key
}

// AccountWrite replaces the persisted bytes of one slot.
type AccountWrite struct {
	Address Address `json:"address"`
	Data    []byte  `json:"data"`
}

// InstructionRecord is one entry of the append-only instruction log.
// Both successful and failed invocations are logged; only successful ones
// carry account writes.
type InstructionRecord struct {
	Seq      int64        `json:"seq"`      // Logical clock
	ID       string       `json:"id"`       // Content-addressed, see InstructionID
	TraceID  string       `json:"trace_id"` // Correlates CLI/harness requests
	Op       string       `json:"op"`       // Decoded operation name, or "unknown"
	Data     []byte       `json:"data"`     // Raw instruction bytes
	Accounts []AccountRef `json:"accounts"`
	Status   string       `json:"status"`            // StatusOK or error code
	Message  string       `json:"message,omitempty"` // Human-readable failure reason
}

// OK reports whether the instruction committed.
func (r InstructionRecord) OK() bool {
	return r.Status == StatusOK
}
