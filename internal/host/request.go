package host

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/roach88/tokenledger/internal/ir"
)

// messageDomain prefixes every signed request message.
const messageDomain = "tokenledger/request/v1"

// Request is one instruction invocation as submitted to the Runtime.
//
// Accounts are positional. An address may appear more than once; all
// occurrences share one buffer. Addresses without a provisioned slot (plain
// signer keys) are passed to the processor with empty data.
type Request struct {
	Accounts   []ir.Address
	Data       []byte
	Signatures map[ir.Address]solana.Signature
}

// Message returns the bytes a signer attests to: the domain, the ordered
// account list and the instruction bytes, Borsh encoded.
func (r *Request) Message() []byte {
	var buf bytes.Buffer
	enc := bin.NewBorshEncoder(&buf)
	// Writes to a bytes.Buffer cannot fail.
	_ = enc.WriteBytes([]byte(messageDomain), false)
	_ = enc.WriteUint32(uint32(len(r.Accounts)), bin.LE)
	for _, a := range r.Accounts {
		_ = enc.WriteBytes(a[:], false)
	}
	_ = enc.WriteBytes(r.Data, true)
	return buf.Bytes()
}

// Sign adds a signature over Message for each key. Keys whose public key is
// not among the accounts are still recorded; Execute rejects them.
func (r *Request) Sign(keys ...solana.PrivateKey) error {
	if r.Signatures == nil {
		r.Signatures = make(map[ir.Address]solana.Signature, len(keys))
	}
	msg := r.Message()
	for _, key := range keys {
		sig, err := key.Sign(msg)
		if err != nil {
			return fmt.Errorf("sign request: %w", err)
		}
		r.Signatures[key.PublicKey()] = sig
	}
	return nil
}

// verify checks every signature and returns the set of attested signers.
func (r *Request) verify() (map[ir.Address]bool, error) {
	listed := make(map[ir.Address]bool, len(r.Accounts))
	for _, a := range r.Accounts {
		listed[a] = true
	}

	signers := make(map[ir.Address]bool, len(r.Signatures))
	msg := r.Message()
	for addr, sig := range r.Signatures {
		if !listed[addr] {
			return nil, &HostError{
				Code:    ErrCodeUnlistedSigner,
				Message: "signature from a key that is not a request account",
				Address: addr.String(),
			}
		}
		if !sig.Verify(addr, msg) {
			return nil, &HostError{
				Code:    ErrCodeInvalidSignature,
				Message: "signature does not verify against the request message",
				Address: addr.String(),
			}
		}
		signers[addr] = true
	}
	return signers, nil
}

// Receipt reports the outcome of one executed request.
type Receipt struct {
	Seq     int64
	ID      string
	TraceID string
	Op      string
	Status  string

	// Err is the *processor.ProgramError for a rejected instruction, nil on success.
	Err error
}

// OK reports whether the instruction committed.
func (r *Receipt) OK() bool {
	return r.Status == ir.StatusOK
}
