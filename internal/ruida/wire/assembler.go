package wire

import (
	"bytes"
	"fmt"
)

// Assembler is a small declarative byte-stream builder. It keeps the
// mapping between the documented wire format and the emitted bytes
// auditable: callers append fixed hex runs and encoded parameters instead
// of open-coding byte concatenation, per the encoder's template design.
type Assembler struct {
	buf bytes.Buffer
	err error
}

// NewAssembler returns an empty Assembler.
func NewAssembler() *Assembler { return &Assembler{} }

// Err returns the first error encountered by any Assembler method, if any.
func (a *Assembler) Err() error { return a.err }

// Bytes returns the accumulated byte stream, or nil if an error occurred.
func (a *Assembler) Bytes() ([]byte, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.buf.Bytes(), nil
}

func (a *Assembler) record(b []byte, err error) *Assembler {
	if a.err != nil {
		return a
	}
	if err != nil {
		a.err = err
		return a
	}
	a.buf.Write(b)
	return a
}

// Hex appends a hex-literal template run (see ParseHexLiteral).
func (a *Assembler) Hex(s string) *Assembler { return a.record(ParseHexLiteral(s)) }

// Raw appends raw bytes verbatim.
func (a *Assembler) Raw(b []byte) *Assembler {
	if a.err == nil {
		a.buf.Write(b)
	}
	return a
}

// Number appends an absolute number (millimetres).
func (a *Assembler) Number(mm float64) *Assembler { return a.record(EncodeNumber(mm)) }

// Percent appends a percent value (0..100).
func (a *Assembler) Percent(n float64) *Assembler { return a.record(EncodePercent(n)) }

// Rel appends a relative coordinate (millimetres, |n| <= 8.191).
func (a *Assembler) Rel(mm float64) *Assembler { return a.record(EncodeRelCoord(mm)) }

// Byte appends a single-byte value.
func (a *Assembler) Byte(v int) *Assembler { return a.record(EncodeByte(v)) }

// Color appends an (r,g,b) color value.
func (a *Assembler) Color(r, g, b uint8) *Assembler { return a.record(EncodeColor(r, g, b)) }

// Enc appends values encoded according to a format string over the
// alphabet {- n p r b c}: '-' a hex literal, 'n' a number, 'p' a percent,
// 'r' a relative coordinate, 'b' a byte, 'c' a color (given as a [3]uint8).
// This mirrors the reference implementation's enc(fmt, tuple) helper, kept
// as a declarative feature so header/trailer templates stay easily
// auditable against the documented wire format.
func (a *Assembler) Enc(format string, args ...interface{}) *Assembler {
	if a.err != nil {
		return a
	}
	if len(format) != len(args) {
		a.err = fmt.Errorf("wire: enc format %q length differs from %d args", format, len(args))
		return a
	}
	for i, f := range format {
		switch f {
		case '-':
			s, ok := args[i].(string)
			if !ok {
				a.err = fmt.Errorf("wire: enc arg %d must be string for '-'", i)
				return a
			}
			a.Hex(s)
		case 'n':
			v, ok := args[i].(float64)
			if !ok {
				a.err = fmt.Errorf("wire: enc arg %d must be float64 for 'n'", i)
				return a
			}
			a.Number(v)
		case 'p':
			v, ok := args[i].(float64)
			if !ok {
				a.err = fmt.Errorf("wire: enc arg %d must be float64 for 'p'", i)
				return a
			}
			a.Percent(v)
		case 'r':
			v, ok := args[i].(float64)
			if !ok {
				a.err = fmt.Errorf("wire: enc arg %d must be float64 for 'r'", i)
				return a
			}
			a.Rel(v)
		case 'b':
			v, ok := args[i].(int)
			if !ok {
				a.err = fmt.Errorf("wire: enc arg %d must be int for 'b'", i)
				return a
			}
			a.Byte(v)
		case 'c':
			v, ok := args[i].([3]uint8)
			if !ok {
				a.err = fmt.Errorf("wire: enc arg %d must be [3]uint8 for 'c'", i)
				return a
			}
			a.Color(v[0], v[1], v[2])
		default:
			a.err = fmt.Errorf("wire: unknown enc format character %q", f)
			return a
		}
		if a.err != nil {
			return a
		}
	}
	return a
}
