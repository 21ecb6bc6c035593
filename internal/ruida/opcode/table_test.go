package opcode

import "testing"

// shapeWidth returns the byte width implied by an ArgShape string, or -1 if
// the shape contains a variable-length '-' (hex literal) token.
func shapeWidth(shape string) int {
	total := 0
	for _, c := range shape {
		switch c {
		case 'n', 'c':
			total += 5
		case 'r', 'p':
			total += 2
		case 'b':
			total += 1
		case '-':
			return -1
		}
	}
	return total
}

// TestOpcodeTotality checks that every declared opcode's arg-length
// matches the number of bytes its shape's primitives consume.
func TestOpcodeTotality(t *testing.T) {
	check := func(e *Entry) {
		if e == nil || e.Sub != nil {
			return
		}
		w := shapeWidth(e.ArgShape)
		if w == -1 {
			return
		}
		if w != e.ArgLen {
			t.Errorf("entry %q: ArgLen=%d but shape %q implies %d bytes", e.Name, e.ArgLen, e.ArgShape, w)
		}
	}
	for _, e := range Table1 {
		if e == nil {
			continue
		}
		if e.Sub != nil {
			for _, s := range e.Sub {
				check(s)
			}
			continue
		}
		check(e)
	}
}

func TestSubTableDispatchEntriesHaveZeroArgLen(t *testing.T) {
	for b, e := range Table1 {
		if e != nil && e.Sub != nil && e.ArgLen != 0 {
			t.Errorf("sub-table entry at 0x%02x has nonzero ArgLen on the dispatch entry itself", b)
		}
	}
}

func TestKnownOpcodesPresent(t *testing.T) {
	for _, b := range []byte{0x88, 0x89, 0x8A, 0x8B, 0xA8, 0xA9, 0xAA, 0xAB, 0xCC, 0xD7, 0xEB} {
		if Lookup(b) == nil {
			t.Errorf("expected opcode 0x%02x to be present", b)
		}
	}
	if Lookup2(Lookup(0xC6), 0x31) == nil {
		t.Error("expected C6 31 to be present")
	}
	if Lookup2(Lookup(0xCA), 0x02) == nil {
		t.Error("expected CA 02 to be present")
	}
}
