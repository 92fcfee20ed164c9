package host

import (
	"errors"
	"fmt"
)

// HostErrorCode categorizes failures that stop a request before the
// processor runs. Program failures are reported in the Receipt instead.
type HostErrorCode string

const (
	// ErrCodeInvalidSignature indicates a signature did not verify against
	// the request message.
	ErrCodeInvalidSignature HostErrorCode = "INVALID_SIGNATURE"

	// ErrCodeUnlistedSigner indicates a signature from a key that is not one
	// of the request's accounts.
	ErrCodeUnlistedSigner HostErrorCode = "UNLISTED_SIGNER"
)

// HostError is returned by Runtime.Execute when a request is rejected
// before reaching the processor. Nothing is logged or committed.
type HostError struct {
	Code    HostErrorCode
	Message string
	Address string
}

// Error implements the error interface.
func (e *HostError) Error() string {
	if e.Address != "" {
		return fmt.Sprintf("%s: %s (address=%s)", e.Code, e.Message, e.Address)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// AsSignatureError returns the HostError in err's chain when it rejects a
// request's signatures.
func AsSignatureError(err error) (*HostError, bool) {
	var he *HostError
	if !errors.As(err, &he) {
		return nil, false
	}
	if he.Code != ErrCodeInvalidSignature && he.Code != ErrCodeUnlistedSigner {
		return nil, false
	}
	return he, true
}
