// Package rerr defines the closed set of error kinds the codec, relay and
// uploader can produce. Call sites wrap these with fmt.Errorf("...: %w", ...)
// to attach context (byte offsets, addresses); callers use errors.Is/As to
// recover the kind.
package rerr

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncated indicates the decoder ran out of bytes mid-argument.
	ErrTruncated = errors.New("truncated stream")

	// ErrUnknownOpcode indicates no table entry for a single-byte opcode.
	ErrUnknownOpcode = errors.New("unknown opcode")

	// ErrUnknownOpcode2 indicates no table entry for a two-byte opcode.
	ErrUnknownOpcode2 = errors.New("unknown two-byte opcode")

	// ErrBadRelCoord indicates a 14-bit relative coordinate is out of range.
	ErrBadRelCoord = errors.New("relative coordinate out of range")

	// ErrBadPower indicates a power percentage is out of [0,100] or the
	// power list is missing / has an odd length.
	ErrBadPower = errors.New("invalid power value")

	// ErrBadRange indicates an absolute value does not fit the 35-bit field.
	ErrBadRange = errors.New("value out of encodable range")

	// ErrChecksumMismatch indicates a NACK on a non-first upload chunk, or a
	// mismatched 2-byte checksum header in hex-decode input.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrTimeout indicates the uploader or relay did not observe expected
	// traffic within its deadline.
	ErrTimeout = errors.New("timeout")

	// ErrStraySender indicates traffic from a non-active IP at the relay.
	// Handled locally by the relay (NACK + drop); not normally surfaced.
	ErrStraySender = errors.New("stray sender")

	// ErrProtocolAbort marks a normal relay session end (FIN or inactivity).
	// Not an error condition; used as a sentinel for control flow signaling.
	ErrProtocolAbort = errors.New("session ended")
)

// OffsetError wraps an underlying error kind with the byte offset at which
// it was detected, so diagnostics can point at the exact failing byte.
type OffsetError struct {
	Offset int
	Err    error
}

func (e *OffsetError) Error() string {
	return fmt.Sprintf("offset %d: %v", e.Offset, e.Err)
}

func (e *OffsetError) Unwrap() error {
	return e.Err
}

// AtOffset wraps err with the given byte offset, unless err is nil.
func AtOffset(offset int, err error) error {
	if err == nil {
		return nil
	}
	return &OffsetError{Offset: offset, Err: err}
}
