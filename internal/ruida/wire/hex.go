package wire

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseHexLiteral parses a string of whitespace-separated hex byte pairs
// with '#'-to-end-of-line comments, used internally to keep header/trailer
// byte templates readable as hex text rather than Go byte-slice literals.
func ParseHexLiteral(s string) ([]byte, error) {
	var out []byte
	for _, line := range strings.Split(s, "\n") {
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		for _, tok := range strings.Fields(line) {
			v, err := strconv.ParseUint(tok, 16, 8)
			if err != nil {
				return nil, fmt.Errorf("wire: invalid hex byte %q: %w", tok, err)
			}
			out = append(out, byte(v))
		}
	}
	return out, nil
}

// MustHex is ParseHexLiteral for compile-time-constant template text; it
// panics on malformed input since the caller controls the literal.
func MustHex(s string) []byte {
	b, err := ParseHexLiteral(s)
	if err != nil {
		panic(err)
	}
	return b
}
