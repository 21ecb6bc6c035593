package wire

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func hx(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad test hex %q: %v", s, err)
	}
	return b
}

func TestEncodeNumberVectors(t *testing.T) {
	cases := []struct {
		mm   float64
		want string
	}{
		{452.84, "00001b5168"},
		{126.8, "0000075e50"},
	}
	for _, c := range cases {
		got, err := EncodeNumber(c.mm)
		if err != nil {
			t.Fatalf("EncodeNumber(%v): %v", c.mm, err)
		}
		if !bytes.Equal(got, hx(t, c.want)) {
			t.Errorf("EncodeNumber(%v) = % x, want %s", c.mm, got, c.want)
		}
	}
}

func TestRelCoordVectors(t *testing.T) {
	var out []byte
	for _, mm := range []float64{-8.191, 8.191} {
		b, err := EncodeRelCoord(mm)
		if err != nil {
			t.Fatalf("EncodeRelCoord(%v): %v", mm, err)
		}
		out = append(out, b...)
	}
	if !bytes.Equal(out, hx(t, "40013f7f")) {
		t.Errorf("relcoord S3 = % x, want 40 01 3f 7f", out)
	}

	out = nil
	for _, mm := range []float64{4.0, -4.0} {
		b, err := EncodeRelCoord(mm)
		if err != nil {
			t.Fatalf("EncodeRelCoord(%v): %v", mm, err)
		}
		out = append(out, b...)
	}
	if !bytes.Equal(out, hx(t, "1f206060")) {
		t.Errorf("relcoord S4 = % x, want 1f 20 60 60", out)
	}
}

func TestPercentVectors(t *testing.T) {
	b60, err := EncodePercent(60)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b60, hx(t, "4c65")) {
		t.Errorf("EncodePercent(60) = % x, want 4c 65", b60)
	}
	b70, err := EncodePercent(70)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b70, hx(t, "594c")) {
		t.Errorf("EncodePercent(70) = % x, want 59 4c", b70)
	}
}

func TestNumberRoundTrip(t *testing.T) {
	for mm := 0.0; mm <= 1000.0; mm += 37.123 {
		enc, err := EncodeNumber(mm)
		if err != nil {
			t.Fatalf("EncodeNumber(%v): %v", mm, err)
		}
		got, err := DecodeNumber(enc)
		if err != nil {
			t.Fatalf("DecodeNumber: %v", err)
		}
		if diff := got - mm; diff > 0.001 || diff < -0.001 {
			t.Errorf("round trip %v -> % x -> %v, diff %v", mm, enc, got, diff)
		}
	}
}

func TestRelCoordRoundTrip(t *testing.T) {
	for mm := -8.191; mm <= 8.191; mm += 0.391 {
		enc, err := EncodeRelCoord(mm)
		if err != nil {
			t.Fatalf("EncodeRelCoord(%v): %v", mm, err)
		}
		got, err := DecodeRelCoord(enc)
		if err != nil {
			t.Fatalf("DecodeRelCoord: %v", err)
		}
		if diff := got - mm; diff > 0.001 || diff < -0.001 {
			t.Errorf("round trip %v -> % x -> %v", mm, enc, got)
		}
	}
}

func TestRelCoordOutOfRange(t *testing.T) {
	if _, err := EncodeRelCoord(8.192); err == nil {
		t.Error("expected error encoding 8.192mm relcoord")
	}
	if _, err := EncodeRelCoord(-8.192); err == nil {
		t.Error("expected error encoding -8.192mm relcoord")
	}
}

func TestPercentRoundTrip(t *testing.T) {
	for p := 0; p <= 100; p++ {
		enc, err := EncodePercent(float64(p))
		if err != nil {
			t.Fatalf("EncodePercent(%d): %v", p, err)
		}
		got, err := DecodePercent(enc)
		if err != nil {
			t.Fatalf("DecodePercent: %v", err)
		}
		if diff := got - float64(p); diff > 1 || diff < -1 {
			t.Errorf("percent round trip %d -> %v, diff too large", p, got)
		}
	}
}

func TestColorRoundTrip(t *testing.T) {
	cases := [][3]uint8{
		{0, 0, 0},
		{255, 255, 255},
		{1, 2, 3},
		{0, 255, 0},
		{255, 0, 0},
		{18, 200, 77},
	}
	for _, c := range cases {
		enc, err := EncodeColor(c[0], c[1], c[2])
		if err != nil {
			t.Fatalf("EncodeColor(%v): %v", c, err)
		}
		r, g, b, err := DecodeColor(enc)
		if err != nil {
			t.Fatalf("DecodeColor: %v", err)
		}
		if r != c[0] || g != c[1] || b != c[2] {
			t.Errorf("color round trip %v -> % x -> (%d,%d,%d)", c, enc, r, g, b)
		}
	}
}

func TestParseHexLiteralComments(t *testing.T) {
	got, err := ParseHexLiteral("e7 51 # comment here\n00 00")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, hx(t, "e7510000")) {
		t.Errorf("ParseHexLiteral = % x", got)
	}
}

func TestAssemblerEnc(t *testing.T) {
	a := NewAssembler()
	a.Enc("-nn", "e7 51", 452.84, 126.8)
	got, err := a.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	want := hx(t, "e751"+"00001b5168"+"0000075e50")
	if !bytes.Equal(got, want) {
		t.Errorf("Enc = % x, want % x", got, want)
	}
}
