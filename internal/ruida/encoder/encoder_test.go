package encoder

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/jnweiger/ruida-laser/internal/ruida/decoder"
	"github.com/jnweiger/ruida-laser/internal/ruida/rdoc"
)

func approxPoint(a, b rdoc.Point) bool {
	const eps = 0.01
	return math.Abs(a.X-b.X) < eps && math.Abs(a.Y-b.Y) < eps
}

// buildTwoLayerDoc builds a document with a 50mm square on layer 1 and a
// pair of nested triangles on layer 0, exercising both absolute and
// relative geometry plus per-layer color and power.
func buildTwoLayerDoc() *rdoc.Document {
	doc := &rdoc.Document{}

	l0 := doc.AddLayer()
	doc.Layers[l0].Speed = rdoc.SpeedPair{Cut: 200}
	doc.Layers[l0].Power = []rdoc.PowerPair{{Min: 10, Max: 40}}
	doc.Layers[l0].Color = rdoc.RGB{R: 255, G: 0, B: 0}
	doc.Layers[l0].Paths = []rdoc.Path{
		{Layer: l0, Points: []rdoc.Point{{X: 10, Y: 10}, {X: 30, Y: 10}, {X: 20, Y: 30}, {X: 10, Y: 10}}},
		{Layer: l0, Points: []rdoc.Point{{X: 14, Y: 14}, {X: 26, Y: 14}, {X: 20, Y: 26}, {X: 14, Y: 14}}},
	}

	l1 := doc.AddLayer()
	doc.Layers[l1].Speed = rdoc.SpeedPair{Cut: 80}
	doc.Layers[l1].Power = []rdoc.PowerPair{{Min: 30, Max: 60}}
	doc.Layers[l1].Color = rdoc.RGB{R: 0, G: 0, B: 255}
	doc.Layers[l1].Paths = []rdoc.Path{
		{Layer: l1, Points: []rdoc.Point{
			{X: 100, Y: 100}, {X: 150, Y: 100}, {X: 150, Y: 150}, {X: 100, Y: 150}, {X: 100, Y: 100},
		}},
		{Layer: l1, Points: []rdoc.Point{
			// Small steps, well within |8.191|mm: exercises relative encoding.
			{X: 5, Y: 5}, {X: 7, Y: 5}, {X: 7, Y: 7}, {X: 5, Y: 7}, {X: 5, Y: 5},
		}},
	}

	return doc
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	doc := buildTwoLayerDoc()
	stream, err := Encode(doc, Options{})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	res, err := decoder.Decode(stream, false, decoder.Options{})
	if err != nil {
		t.Fatalf("Decode: %v (trace so far: %d ops)", err, len(res.Trace))
	}

	got := res.Doc
	if len(got.Layers) != 2 {
		t.Fatalf("got %d layers, want 2", len(got.Layers))
	}

	for n, want := range doc.Layers {
		gl := got.Layers[n]
		if gl.Color != want.Color {
			t.Errorf("layer %d color = %v, want %v", n, gl.Color, want.Color)
		}
		if math.Abs(gl.Speed.Cut-want.Speed.Cut) > 0.01 {
			t.Errorf("layer %d speed = %v, want %v", n, gl.Speed.Cut, want.Speed.Cut)
		}
		if len(gl.Paths) != len(want.Paths) {
			t.Fatalf("layer %d: got %d paths, want %d", n, len(gl.Paths), len(want.Paths))
		}
		for pi, wp := range want.Paths {
			gp := gl.Paths[pi]
			opts := cmp.Options{cmpopts.EquateApprox(0, 0.01)}
			if diff := cmp.Diff(wp.Points, gp.Points, opts); diff != "" {
				t.Errorf("layer %d path %d points mismatch (-want +got):\n%s", n, pi, diff)
			}
		}
	}
}

func TestEncodeDecodeRoundTripForcedAbsolute(t *testing.T) {
	doc := buildTwoLayerDoc()
	stream, err := Encode(doc, Options{ForceAbsInterval: 1})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	res, err := decoder.Decode(stream, false, decoder.Options{})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(res.Doc.Layers) != 2 {
		t.Fatalf("got %d layers, want 2", len(res.Doc.Layers))
	}
	gotLast := res.Doc.Layers[1].Paths[0].Points
	wantLast := doc.Layers[1].Paths[0].Points
	if !approxPoint(gotLast[len(gotLast)-1], wantLast[len(wantLast)-1]) {
		t.Errorf("last point = %v, want %v", gotLast[len(gotLast)-1], wantLast[len(wantLast)-1])
	}
}

func TestEncodeComputesOdometerFromGeometry(t *testing.T) {
	doc := buildTwoLayerDoc()
	want := doc.ComputeOdometer()
	if want.CutMM == 0 {
		t.Fatal("test fixture has no cut geometry, odometer check is vacuous")
	}

	if _, err := Encode(doc, Options{}); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if doc.Odometer.CutMM != want.CutMM {
		t.Errorf("doc.Odometer.CutMM = %v, want %v", doc.Odometer.CutMM, want.CutMM)
	}
	if doc.Odometer.TravelMM != want.TravelMM {
		t.Errorf("doc.Odometer.TravelMM = %v, want %v", doc.Odometer.TravelMM, want.TravelMM)
	}
}

func TestEncodeRejectsEmptyDocument(t *testing.T) {
	if _, err := Encode(&rdoc.Document{}, Options{}); err == nil {
		t.Error("expected error encoding a document with no layers")
	}
}

func TestEncodeRawSkipsScramble(t *testing.T) {
	doc := buildTwoLayerDoc()
	raw, err := Encode(doc, Options{Raw: true})
	if err != nil {
		t.Fatalf("Encode raw: %v", err)
	}
	// A raw stream must decode without the unscramble pass.
	if _, err := decoder.Decode(raw, true, decoder.Options{}); err != nil {
		t.Errorf("decode raw stream: %v", err)
	}
	scrambled, err := Encode(doc, Options{})
	if err != nil {
		t.Fatalf("Encode scrambled: %v", err)
	}
	if len(raw) != len(scrambled) {
		t.Errorf("raw and scrambled streams differ in length: %d vs %d", len(raw), len(scrambled))
	}
}
