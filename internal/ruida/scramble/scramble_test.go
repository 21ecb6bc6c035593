package scramble

import "testing"

func TestBijection(t *testing.T) {
	for b := 0; b < 256; b++ {
		got := UnByte(Byte(byte(b)))
		if got != byte(b) {
			t.Fatalf("unscramble(scramble(%d)) = %d, want %d", b, got, b)
		}
		got2 := Byte(UnByte(byte(b)))
		if got2 != byte(b) {
			t.Fatalf("scramble(unscramble(%d)) = %d, want %d", b, got2, b)
		}
	}
}

// unscrambleRef computes unscramble via the described inverse algorithm
// directly (subtract 1 mod 256, XOR 0x88, swap top/bottom bits),
// independent of the table-inversion construction in scramble.go, so the
// two derivations can be cross-checked.
func unscrambleRef(b byte) byte {
	r := b - 1
	r ^= 0x88
	fb := r & 0x80
	lb := r & 0x01
	r = r - fb - lb
	r |= lb << 7
	r |= fb >> 7
	return r
}

func TestUnscrambleMatchesReferenceFormula(t *testing.T) {
	for b := 0; b < 256; b++ {
		want := unscrambleRef(scrambleByte(byte(b)))
		got := UnByte(scrambleByte(byte(b)))
		if want != byte(b) {
			t.Fatalf("reference unscramble formula disagrees with itself at %d: got %d", b, want)
		}
		if got != want {
			t.Fatalf("table unscramble(%d)=%d, reference formula=%d", scrambleByte(byte(b)), got, want)
		}
	}
}

func TestBytesRoundTrip(t *testing.T) {
	src := []byte{0x00, 0x01, 0x7f, 0x80, 0xff, 0x88, 0x12, 0x34}
	got := Unbytes(Bytes(src))
	for i := range src {
		if got[i] != src[i] {
			t.Fatalf("round trip mismatch at %d: got %d want %d", i, got[i], src[i])
		}
	}
}
