// Package wire implements the Ruida protocol's fixed-length primitive
// encoders and decoders: the 5-byte base-128 "number", the 2-byte relative
// coordinate, the 2-byte percent, the 5-byte BGR color, the 1-byte byte
// value, a hex-literal parser, and the enc(...) format-string assembler used
// to build header/trailer templates declaratively.
package wire

import (
	"fmt"

	"github.com/jnweiger/ruida-laser/internal/ruida/rerr"
)

const (
	// NumberLength is the fixed byte length of the absolute "number" encoding.
	NumberLength = 5
	// numberBits is the number of usable bits in NumberLength septets.
	numberBits = 7 * NumberLength // 35

	signedWrap = int64(1) << 32 // 2^32, used to reinterpret Z-axis negatives
)

// EncodeNumber encodes mm (millimetres, may be negative for Z-axis moves) as
// a 5-byte big-endian base-128 value: micrometres = mm * 1000, truncated
// toward zero exactly as the reference implementation does.
func EncodeNumber(mm float64) ([]byte, error) {
	return EncodeNumberScaled(mm, 1000, NumberLength)
}

// EncodeNumberScaled is the general form behind EncodeNumber and
// EncodeColor: it truncates mm*scale toward zero and packs the result into
// length bytes of 7 bits each, big-endian.
func EncodeNumberScaled(value float64, scale float64, length int) ([]byte, error) {
	raw := int64(value * scale) // truncates toward zero, matching the reference encoder
	var unsigned uint64
	if raw < 0 {
		unsigned = uint64(raw + signedWrap)
	} else {
		unsigned = uint64(raw)
	}
	if unsigned>>uint(7*length) != 0 {
		return nil, fmt.Errorf("wire: value %v does not fit in %d bytes: %w", value, length, rerr.ErrBadRange)
	}
	out := make([]byte, length)
	for i := length - 1; i >= 0; i-- {
		out[i] = byte(unsigned & 0x7f)
		unsigned >>= 7
	}
	return out, nil
}

// DecodeNumber decodes a 5-byte big-endian base-128 absolute number back to
// millimetres. Values whose raw 35-bit magnitude is >= 2^31 are reinterpreted
// as a 32-bit two's complement negative (used for Z-axis moves).
func DecodeNumber(buf []byte) (float64, error) {
	v, err := DecodeNumberScaled(buf, 1000)
	return v, err
}

// DecodeNumberScaled is the general inverse of EncodeNumberScaled.
func DecodeNumberScaled(buf []byte, scale float64) (float64, error) {
	if len(buf) < NumberLength {
		return 0, fmt.Errorf("wire: number needs %d bytes, got %d: %w", NumberLength, len(buf), rerr.ErrTruncated)
	}
	var raw uint64
	for _, b := range buf[:NumberLength] {
		raw = (raw << 7) | uint64(b&0x7f)
	}
	var signed int64
	if raw >= (1 << 31) {
		signed = int64(raw) - (1 << 32)
	} else {
		signed = int64(raw)
	}
	return float64(signed) / scale, nil
}

// rawNumberValue returns the unsigned 35-bit integer encoded in buf without
// any scale division or sign reinterpretation.
func rawNumberValue(buf []byte) (uint64, error) {
	if len(buf) < NumberLength {
		return 0, fmt.Errorf("wire: number needs %d bytes, got %d: %w", NumberLength, len(buf), rerr.ErrTruncated)
	}
	var raw uint64
	for _, b := range buf[:NumberLength] {
		raw = (raw << 7) | uint64(b&0x7f)
	}
	return raw, nil
}

// EncodeByte encodes a small integer (0..255) as a single byte number.
func EncodeByte(v int) ([]byte, error) {
	if v < 0 || v > 0xff {
		return nil, fmt.Errorf("wire: byte value %d out of range: %w", v, rerr.ErrBadRange)
	}
	return []byte{byte(v)}, nil
}

// DecodeByte decodes a single-byte number.
func DecodeByte(buf []byte) (int, error) {
	if len(buf) < 1 {
		return 0, fmt.Errorf("wire: byte needs 1 byte: %w", rerr.ErrTruncated)
	}
	return int(buf[0]), nil
}

