package processor

import (
	"errors"
	"fmt"

	"github.com/roach88/tokenledger/internal/account"
	"github.com/roach88/tokenledger/internal/codec"
)

// ErrorCode identifies the category of a failed instruction.
type ErrorCode string

const (
	// CodeDecodeError indicates malformed instruction or record bytes.
	CodeDecodeError ErrorCode = "DECODE_ERROR"

	// CodeMissingAccount indicates fewer accounts than the operation requires.
	CodeMissingAccount ErrorCode = "MISSING_ACCOUNT"

	// CodeMissingSignature indicates a required signer flag was false.
	CodeMissingSignature ErrorCode = "MISSING_SIGNATURE"

	// CodeUnauthorized indicates the signer is not the recorded authority or owner.
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// CodeInsufficientFunds indicates the source balance is below the transfer amount.
	CodeInsufficientFunds ErrorCode = "INSUFFICIENT_FUNDS"

	// CodeOverflow indicates supply or balance would exceed the uint64 range.
	CodeOverflow ErrorCode = "OVERFLOW"

	// CodeTokenMismatch indicates balance accounts of different tokens were combined.
	CodeTokenMismatch ErrorCode = "TOKEN_MISMATCH"

	// CodeAlreadyInitialized indicates a create operation targeted a slot that
	// already holds a record.
	CodeAlreadyInitialized ErrorCode = "ALREADY_INITIALIZED"
)

// ProgramError is the error vocabulary the processor exposes to its host.
type ProgramError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Err is the underlying codec or resolver error, if any.
	Err error
}

// Sentinels for errors.Is matching. Matching compares codes only.
var (
	ErrDecode             = &ProgramError{Code: CodeDecodeError}
	ErrMissingAccount     = &ProgramError{Code: CodeMissingAccount}
	ErrMissingSignature   = &ProgramError{Code: CodeMissingSignature}
	ErrUnauthorized       = &ProgramError{Code: CodeUnauthorized}
	ErrInsufficientFunds  = &ProgramError{Code: CodeInsufficientFunds}
	ErrOverflow           = &ProgramError{Code: CodeOverflow}
	ErrTokenMismatch      = &ProgramError{Code: CodeTokenMismatch}
	ErrAlreadyInitialized = &ProgramError{Code: CodeAlreadyInitialized}
)

// Error implements the error interface.
func (e *ProgramError) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	default:
		return string(e.Code)
	}
}

// Unwrap returns the underlying error.
func (e *ProgramError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a *ProgramError with the same code.
func (e *ProgramError) Is(target error) bool {
	t, ok := target.(*ProgramError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// CodeOf extracts the ErrorCode from err, or "" if err is not a ProgramError.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var pe *ProgramError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

func newError(code ErrorCode, format string, args ...any) *ProgramError {
	return &ProgramError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// translate maps codec and resolver failures into the program vocabulary.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var pe *ProgramError
	if errors.As(err, &pe) {
		return err
	}
	var de *codec.DecodeError
	if errors.As(err, &de) {
		return &ProgramError{Code: CodeDecodeError, Err: err}
	}
	if errors.Is(err, account.ErrMissingAccount) {
		return &ProgramError{Code: CodeMissingAccount, Err: err}
	}
	return err
}
