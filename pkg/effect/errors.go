package effect

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfBounds is returned when a read would run past the end of the
	// underlying buffer. The cursor is left where the failed read started.
	ErrOutOfBounds = errors.New("read out of bounds")

	// ErrShortVarLen wraps ErrOutOfBounds for truncated variable-length
	// counts, so callers can match either error.
	ErrShortVarLen = fmt.Errorf("short variable-length count: %w", ErrOutOfBounds)

	// ErrInvalidOpcode is returned (or logged, in lenient mode) when the
	// decoder hits an opcode byte with no known operand layout.
	ErrInvalidOpcode = errors.New("invalid opcode")

	// ErrMalformedTable is returned when the pointer table preamble cannot
	// describe the buffer it was read from.
	ErrMalformedTable = errors.New("malformed pointer table")

	// ErrStructuralMismatch is returned in terminator mode when a decoded
	// record does not end where the next pointer says it should.
	ErrStructuralMismatch = errors.New("record boundary mismatch")
)
