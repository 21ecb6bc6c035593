package wire

import (
	"fmt"

	"github.com/jnweiger/ruida-laser/internal/ruida/rerr"
)

const (
	// PercentLength is the fixed byte length of the percent encoding.
	PercentLength = 2

	// percentScale is 1/100 of 14-bit all-ones (0x3FFF), used by
	// EncodePercent.
	percentScale = 0x3fff * 0.01 // 163.83
)

// EncodePercent encodes n (0..100) as two 7-bit septets of a 14-bit value,
// truncating n*163.83 toward zero exactly as the reference implementation.
func EncodePercent(n float64) ([]byte, error) {
	if n < 0 || n > 100 {
		return nil, fmt.Errorf("wire: percent %v out of range [0,100]: %w", n, rerr.ErrBadPower)
	}
	a := int64(n * percentScale)
	return []byte{
		byte((a >> 7) & 0x7f),
		byte(a & 0x7f),
	}, nil
}

// DecodePercent decodes a 2-byte percent value as raw*100/0x3FFF. The result
// is not rounded, so a value from EncodePercent can come back slightly below
// the original percent.
func DecodePercent(buf []byte) (float64, error) {
	if len(buf) < PercentLength {
		return 0, fmt.Errorf("wire: percent needs %d bytes, got %d: %w", PercentLength, len(buf), rerr.ErrTruncated)
	}
	raw := (int(buf[0]&0x7f) << 7) | int(buf[1]&0x7f)
	return float64(raw) * 100 / 0x3fff, nil
}
