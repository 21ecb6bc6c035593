package wire

import (
	"fmt"

	"github.com/jnweiger/ruida-laser/internal/ruida/rerr"
)

// ColorLength is the fixed byte length of the color encoding (it reuses the
// 5-byte "number" layout with scale=1).
const ColorLength = NumberLength

// EncodeColor packs an (r,g,b) triple, each in 0..255, as a little-endian
// BGR integer (blue<<16 | green<<8 | red) encoded with the same base-128
// layout as EncodeNumber with scale=1.
func EncodeColor(r, g, b uint8) ([]byte, error) {
	cc := (uint32(b) << 16) | (uint32(g) << 8) | uint32(r)
	return EncodeNumberScaled(float64(cc), 1, ColorLength)
}

// DecodeColor decodes a 5-byte color value. The 24-bit BGR integer is spread
// across 5 septets, so red/green/blue each pick up 1/2/3 overflow bits from
// the next septet up.
func DecodeColor(buf []byte) (r, g, b uint8, err error) {
	if len(buf) < ColorLength {
		return 0, 0, 0, fmt.Errorf("wire: color needs %d bytes, got %d: %w", ColorLength, len(buf), rerr.ErrTruncated)
	}
	// rgb[0..3] correspond to buf[4],buf[3],buf[2],buf[1] (buf[0] is always
	// the all-zero top septet for realistic 24-bit color values).
	rgb := [4]byte{buf[4], buf[3], buf[2], buf[1]}
	red := uint32(rgb[0]) + (uint32(rgb[1]&0x01) << 7)
	green := (uint32(rgb[1]&0x7e) >> 1) + (uint32(rgb[2]&0x03) << 6)
	blue := (uint32(rgb[2]&0x7c) >> 2) + (uint32(rgb[3]&0x07) << 5)
	return uint8(red), uint8(green), uint8(blue), nil
}
