package codec

import "fmt"

// DecodeErrorKind categorizes decode failures.
type DecodeErrorKind string

const (
	// KindWrongLength indicates a record buffer of the wrong size.
	KindWrongLength DecodeErrorKind = "WRONG_LENGTH"

	// KindTruncated indicates the input ended before a field was complete.
	KindTruncated DecodeErrorKind = "TRUNCATED"

	// KindTrailingBytes indicates unconsumed bytes after a complete value.
	KindTrailingBytes DecodeErrorKind = "TRAILING_BYTES"

	// KindUnknownVariant indicates an instruction tag outside the closed set.
	KindUnknownVariant DecodeErrorKind = "UNKNOWN_VARIANT"
)

// DecodeError reports malformed instruction or record bytes.
type DecodeError struct {
	Kind    DecodeErrorKind
	Target  string // "TokenDefinition", "BalanceAccount" or "Instruction"
	Message string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %s: %s", e.Target, e.Kind, e.Message)
}

// Is matches another *DecodeError with the same Kind, so callers can write
// errors.Is(err, &codec.DecodeError{Kind: codec.KindUnknownVariant}).
func (e *DecodeError) Is(target error) bool {
	t, ok := target.(*DecodeError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func wrongLength(target string, want, got int) *DecodeError {
	return &DecodeError{
		Kind:    KindWrongLength,
		Target:  target,
		Message: fmt.Sprintf("want %d bytes, got %d", want, got),
	}
}
