package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedCount matches any *MalformedCountError via errors.Is.
	ErrMalformedCount = errors.New("protocol: invalid multibulk length")

	// ErrBulkLengthMismatch matches any *BulkLengthError via errors.Is.
	ErrBulkLengthMismatch = errors.New("protocol: invalid bulk length")

	// ErrUnencodableToken is returned by EncodeInline for tokens the inline
	// encoding cannot carry.
	ErrUnencodableToken = errors.New("protocol: token cannot be sent inline")

	// ErrUnexpectedReply is returned by ReadReply for bytes that are not a
	// well-formed reply.
	ErrUnexpectedReply = errors.New("protocol: unexpected reply")
)

// MalformedCountError reports an Array Format header whose element count is
// not an integer. Callers usually treat it as a reason to drop the client.
type MalformedCountError struct {
	Raw string // Text found after '*'
	Err error  // Underlying strconv error
}

func (e *MalformedCountError) Error() string {
	return fmt.Sprintf("%v: %q", ErrMalformedCount, e.Raw)
}

func (e *MalformedCountError) Is(target error) bool {
	return target == ErrMalformedCount
}

func (e *MalformedCountError) Unwrap() error {
	return e.Err
}

// BulkLengthError reports a bulk string whose $<len> prefix does not match
// its content. Only a Decoder built WithStrictBulkLength returns it.
type BulkLengthError struct {
	Declared string // Text found after '$'
	Actual   int    // Size of the content segment in bytes
}

func (e *BulkLengthError) Error() string {
	return fmt.Sprintf("%v: declared %q, got %d bytes", ErrBulkLengthMismatch, e.Declared, e.Actual)
}

func (e *BulkLengthError) Is(target error) bool {
	return target == ErrBulkLengthMismatch
}
