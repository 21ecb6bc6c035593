// Package encoder builds a complete, valid Ruida job stream from a
// rdoc.Document: header, per-layer body, and trailer.
package encoder

import (
	"fmt"
	"math"

	"github.com/jnweiger/ruida-laser/internal/ruida/rdoc"
	"github.com/jnweiger/ruida-laser/internal/ruida/scramble"
	"github.com/jnweiger/ruida-laser/internal/ruida/wire"
)

// Options tunes the encoder's behavior at points where the wire protocol
// underdetermines the answer; choices are recorded in DESIGN.md.
type Options struct {
	// ForceAbsInterval bounds how many consecutive relative moves/cuts may
	// be emitted before an absolute one is forced, to bound accumulated
	// rounding drift. Zero means use the default of 100.
	ForceAbsInterval int

	// EmitTravelAsSecondTrailerValue, when true, emits the odometer's
	// travel distance as the trailer's second value instead of repeating
	// the cut distance. Default false: preserve the observed
	// cut-distance-twice behavior.
	EmitTravelAsSecondTrailerValue bool

	// Raw, when true, skips the final scramble pass (debug output).
	Raw bool
}

func (o Options) forceAbsInterval() int {
	if o.ForceAbsInterval > 0 {
		return o.ForceAbsInterval
	}
	return 100
}

// Encode builds the complete job stream for doc.
func Encode(doc *rdoc.Document, opts Options) ([]byte, error) {
	if len(doc.Layers) == 0 {
		return nil, fmt.Errorf("encoder: document has no layers")
	}
	for i := range doc.Layers {
		if err := doc.Layers[i].NormalizePower(); err != nil {
			return nil, fmt.Errorf("encoder: layer %d: %w", i, err)
		}
		if doc.Layers[i].Freq == 0 {
			doc.Layers[i].Freq = 20.0
		}
	}

	overall, ok := doc.ComputedBBox()
	if !ok {
		overall = rdoc.BBox{}
	}
	doc.Odometer = doc.ComputeOdometer()

	a := wire.NewAssembler()
	writeHeader(a, doc, overall, opts)
	for n := range doc.Layers {
		writeLayerBody(a, doc, n, opts)
	}
	writeTrailer(a, doc, opts)

	out, err := a.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encoder: %w", err)
	}
	if opts.Raw {
		return out, nil
	}
	return scramble.Bytes(out), nil
}

func writeHeader(a *wire.Assembler, doc *rdoc.Document, overall rdoc.BBox, opts Options) {
	a.Hex("F0") // magic / file-type
	a.Hex("F1 02")
	a.Enc("nn", 0.0, 0.0) // laser 2 mechanical offset, 0,0 on single-head machines
	a.Hex("E7 07")
	a.Enc("nn", overall.Min.X, overall.Min.Y)
	a.Hex("E7 51")
	a.Enc("nn", overall.Max.X, overall.Max.Y)

	for n, l := range doc.Layers {
		a.Hex("C9 04")
		a.Byte(n)
		a.Number(l.Speed.Cut)

		laserOpcodes := [4][2]string{{"C6 31", "C6 32"}, {"C6 41", "C6 42"}, {"C6 35", "C6 36"}, {"C6 37", "C6 38"}}
		for li, pair := range l.Power {
			if li >= len(laserOpcodes) {
				break
			}
			a.Hex(laserOpcodes[li][0])
			a.Byte(n)
			a.Percent(pair.Min)
			a.Hex(laserOpcodes[li][1])
			a.Byte(n)
			a.Percent(pair.Max)
		}

		a.Hex("CA 06")
		a.Byte(n)
		a.Color(l.Color.R, l.Color.G, l.Color.B)

		a.Hex("CA 41")
		a.Byte(n)
		a.Byte(0)

		bbox, ok := boxFor(l)
		if !ok {
			bbox = overall
		}
		a.Hex("E7 52")
		a.Byte(n)
		a.Enc("nn", bbox.Min.X, bbox.Min.Y)
		a.Hex("E7 53")
		a.Byte(n)
		a.Enc("nn", bbox.Max.X, bbox.Max.Y)
		a.Hex("E7 61")
		a.Byte(n)
		a.Enc("nn", bbox.Min.X, bbox.Min.Y)
		a.Hex("E7 62")
		a.Byte(n)
		a.Enc("nn", bbox.Max.X, bbox.Max.Y)
	}

	a.Hex("CA 22")
	a.Byte(len(doc.Layers) - 1)

	// Start markers and the F2 preamble/bbox block.
	a.Hex("F1 00 00")
	a.Hex("F1 01 00")
	for _, sub := range []string{"F2 03", "F2 04", "F2 05", "F2 06", "F2 07"} {
		a.Hex(sub)
		a.Enc("nn", overall.Min.X, overall.Min.Y)
	}
	a.Hex("EA 00")
	a.Hex("E7 60 00")
	for _, sub := range []string{"E7 13", "E7 17", "E7 23", "E7 24", "E7 08"} {
		a.Hex(sub)
		a.Enc("nn", overall.Max.X, overall.Max.Y)
	}
}

func boxFor(l rdoc.Layer) (rdoc.BBox, bool) {
	if l.BBox != nil {
		return *l.BBox, true
	}
	return l.ComputedBBox()
}

func writeLayerBody(a *wire.Assembler, doc *rdoc.Document, n int, opts Options) {
	l := &doc.Layers[n]

	a.Hex("CA 01 00")
	a.Hex("CA 02")
	a.Byte(n)
	a.Hex("CA 01 30")
	a.Hex("CA 01 10")
	a.Hex("CA 01 13") // blow on
	a.Hex("C9 02")
	a.Number(l.Speed.Cut)
	a.Hex("C6 11")
	a.Number(0) // cut-open delay
	a.Hex("C6 12")
	a.Number(0) // cut-close delay

	minPow, maxPow := powerAt(l, 0)
	a.Hex("C6 01")
	a.Percent(minPow)
	a.Hex("C6 02")
	a.Percent(maxPow)
	min2, max2 := powerAt(l, 1)
	a.Hex("C6 21")
	a.Percent(min2)
	a.Hex("C6 22")
	a.Percent(max2)
	a.Hex("C6 05")
	a.Percent(minPow)
	a.Hex("C6 06")
	a.Percent(maxPow)
	a.Hex("C6 07")
	a.Percent(minPow)
	a.Hex("C6 08")
	a.Percent(maxPow)

	a.Hex("CA 03 01")
	a.Hex("CA 10 00")

	emitGeometry(a, l, opts)
}

func powerAt(l *rdoc.Layer, idx int) (min, max float64) {
	if idx < len(l.Power) {
		return l.Power[idx].Min, l.Power[idx].Max
	}
	return 0, 0
}

// emitGeometry emits a Mov to each path's first point followed by Cut
// operations for the remaining points, choosing the relative form when it
// fits and the rolling counter allows it.
func emitGeometry(a *wire.Assembler, l *rdoc.Layer, opts Options) {
	relSinceAbs := 0
	var cursor rdoc.Point
	hasCursor := false

	emitMove := func(p rdoc.Point) {
		if hasCursor && canRelative(cursor, p) && relSinceAbs < opts.forceAbsInterval() {
			emitRel(a, "move", cursor, p)
			relSinceAbs++
		} else {
			a.Hex("88")
			a.Enc("nn", p.X, p.Y)
			relSinceAbs = 0
		}
		cursor = p
		hasCursor = true
	}
	emitCut := func(p rdoc.Point) {
		if hasCursor && canRelative(cursor, p) && relSinceAbs < opts.forceAbsInterval() {
			emitRel(a, "cut", cursor, p)
			relSinceAbs++
		} else {
			a.Hex("A8")
			a.Enc("nn", p.X, p.Y)
			relSinceAbs = 0
		}
		cursor = p
		hasCursor = true
	}

	for _, path := range l.Paths {
		if len(path.Points) == 0 {
			continue
		}
		emitMove(path.Points[0])
		for _, p := range path.Points[1:] {
			emitCut(p)
		}
	}
}

func canRelative(from, to rdoc.Point) bool {
	dx, dy := to.X-from.X, to.Y-from.Y
	return math.Abs(dx) <= 8.191 && math.Abs(dy) <= 8.191
}

// emitRel emits the cheapest relative form: Horiz if dy==0, Vert if dx==0,
// otherwise the 2-axis relative form
func emitRel(a *wire.Assembler, kind string, from, to rdoc.Point) {
	dx, dy := to.X-from.X, to.Y-from.Y
	var horiz, vert, rel2 byte
	if kind == "move" {
		horiz, vert, rel2 = 0x8A, 0x8B, 0x89
	} else {
		horiz, vert, rel2 = 0xAA, 0xAB, 0xA9
	}
	switch {
	case dy == 0:
		a.Raw([]byte{horiz})
		a.Rel(dx)
	case dx == 0:
		a.Raw([]byte{vert})
		a.Rel(dy)
	default:
		a.Raw([]byte{rel2})
		a.Rel(dx)
		a.Rel(dy)
	}
}

func writeTrailer(a *wire.Assembler, doc *rdoc.Document, opts Options) {
	a.Hex("EB E7 00")
	a.Hex("DA 01 06 20")
	a.Number(doc.Odometer.CutMM / 1000) // metres
	if opts.EmitTravelAsSecondTrailerValue {
		a.Number(doc.Odometer.TravelMM / 1000)
	} else {
		a.Number(doc.Odometer.CutMM / 1000)
	}
	a.Hex("D7")
}
