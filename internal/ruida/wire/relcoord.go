package wire

import (
	"fmt"

	"github.com/jnweiger/ruida-laser/internal/ruida/rerr"
)

const (
	// RelCoordLength is the fixed byte length of the relative coordinate encoding.
	RelCoordLength = 2

	// relCoordMaxMM is the largest positive magnitude encodable as a relative
	// coordinate: 8.191 mm (8191 micrometres, the first negative encoding is
	// 8192 per spec's resolved boundary, see DESIGN.md Open Questions).
	relCoordMaxMM = 8.191
)

// EncodeRelCoord encodes a relative delta in millimetres (|n| <= 8.191) as
// two 7-bit septets representing a 14-bit micrometre value, negative values
// stored as n+16384.
func EncodeRelCoord(mm float64) ([]byte, error) {
	micrometers := int64(mm * 1000)
	if micrometers > 8191 || micrometers < -8191 {
		return nil, fmt.Errorf("wire: relcoord %v mm out of range [-%v,%v]: %w", mm, relCoordMaxMM, relCoordMaxMM, rerr.ErrBadRelCoord)
	}
	if micrometers < 0 {
		micrometers += 16384
	}
	return []byte{
		byte((micrometers >> 7) & 0x7f),
		byte(micrometers & 0x7f),
	}, nil
}

// DecodeRelCoord decodes a 2-byte relative coordinate back to millimetres.
// A raw value > 8191 is the two's-complement form of a negative delta.
func DecodeRelCoord(buf []byte) (float64, error) {
	if len(buf) < RelCoordLength {
		return 0, fmt.Errorf("wire: relcoord needs %d bytes, got %d: %w", RelCoordLength, len(buf), rerr.ErrTruncated)
	}
	r := (int(buf[0]&0x7f) << 7) | int(buf[1]&0x7f)
	if r >= 16384 {
		return 0, fmt.Errorf("wire: relcoord raw value %d >= 16384: %w", r, rerr.ErrBadRelCoord)
	}
	if r > 8191 {
		return float64(r-16384) / 1000, nil
	}
	return float64(r) / 1000, nil
}
