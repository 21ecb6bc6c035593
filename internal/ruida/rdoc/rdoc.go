// Package rdoc holds the Document data model shared by the encoder and
// decoder: layers, paths, lasers, and bounding boxes.
package rdoc

import (
	"fmt"
	"math"
)

// Point is a single (x,y) coordinate in millimetres.
type Point struct {
	X, Y float64
}

// Path is an ordered polyline of points.
type Path struct {
	Points []Point
	// Layer is the index into Document.Layers this path belongs to (the
	// layer whose priority was most recently set when the path began).
	Layer int
}

// BBox is an axis-aligned bounding box in millimetres.
type BBox struct {
	Min, Max Point
}

// Union expands b to also cover p.
func (b *BBox) Union(p Point) {
	if p.X < b.Min.X {
		b.Min.X = p.X
	}
	if p.Y < b.Min.Y {
		b.Min.Y = p.Y
	}
	if p.X > b.Max.X {
		b.Max.X = p.X
	}
	if p.Y > b.Max.Y {
		b.Max.Y = p.Y
	}
}

// UnionBBox expands b to also cover other.
func (b *BBox) UnionBBox(other BBox) {
	b.Union(other.Min)
	b.Union(other.Max)
}

// SpeedPair is a travel/cut speed pair in mm/s.
type SpeedPair struct {
	Travel, Cut float64
}

// PowerPair is a min/max power percentage pair, 0..100.
type PowerPair struct {
	Min, Max float64
}

// RGB is a preview color.
type RGB struct {
	R, G, B uint8
}

// MaxPowerPairs is the normalized number of power pairs every layer carries
// on the wire: up to 8 flat percent values is 4 min/max pairs,
// one per laser head.
const MaxPowerPairs = 4

// Layer groups paths sharing speed, power, color and priority.
type Layer struct {
	Paths []Path
	Speed SpeedPair
	// Power holds 1 to MaxPowerPairs pairs (2 to 8 percent values) before
	// NormalizePower, exactly MaxPowerPairs after.
	Power []PowerPair
	Color RGB
	BBox  *BBox
	// Freq is the pulse frequency in kHz, defaults to 20.0.
	Freq float64
}

// NormalizePower pads Power to exactly MaxPowerPairs entries by repeating
// the last pair, so every layer carries the same fixed power-pair count on
// the wire regardless of how many lasers the job actually used.
func (l *Layer) NormalizePower() error {
	if len(l.Power) == 0 {
		return fmt.Errorf("rdoc: layer has no power pairs")
	}
	if len(l.Power) > MaxPowerPairs {
		return fmt.Errorf("rdoc: layer has %d power pairs, max %d", len(l.Power), MaxPowerPairs)
	}
	last := l.Power[len(l.Power)-1]
	for len(l.Power) < MaxPowerPairs {
		l.Power = append(l.Power, last)
	}
	return nil
}

// ComputedBBox returns the union of all points across all paths in the
// layer, ignoring any previously declared l.BBox.
func (l *Layer) ComputedBBox() (BBox, bool) {
	var box BBox
	found := false
	for _, p := range l.Paths {
		for _, pt := range p.Points {
			if !found {
				box = BBox{Min: pt, Max: pt}
				found = true
			} else {
				box.Union(pt)
			}
		}
	}
	return box, found
}

// Odometer holds running totals of cut and travel distances, in millimetres.
type Odometer struct {
	CutMM, TravelMM float64
}

func dist(a, b Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// ComputeOdometer sums travel and cut distance across the layer's paths: a
// path's first point is reached by a travel move from the running cursor,
// every subsequent point within that path is a cut. The cursor starts at
// the origin and carries over from one path to the next.
func (l *Layer) ComputeOdometer() Odometer {
	var odo Odometer
	cursor := Point{}
	for _, p := range l.Paths {
		if len(p.Points) == 0 {
			continue
		}
		odo.TravelMM += dist(cursor, p.Points[0])
		cursor = p.Points[0]
		for _, pt := range p.Points[1:] {
			odo.CutMM += dist(cursor, pt)
			cursor = pt
		}
	}
	return odo
}

// ComputeOdometer sums every layer's ComputeOdometer, each layer's cursor
// starting fresh at the origin to match the per-layer geometry emission
// order.
func (d *Document) ComputeOdometer() Odometer {
	var total Odometer
	for i := range d.Layers {
		lo := d.Layers[i].ComputeOdometer()
		total.CutMM += lo.CutMM
		total.TravelMM += lo.TravelMM
	}
	return total
}

// Laser is decoder-side state for a laser head: global lasers and
// per-layer laser entries coexist, distinguished by Layer being nil or set.
type Laser struct {
	N       int
	OffsetX float64
	OffsetY float64
	Freq    *float64
	MinPow  *float64
	MaxPow  *float64
	Layer   *int
}

// Document is the top-level job representation.
type Document struct {
	Layers   []Layer
	Lasers   []Laser
	BBox     *BBox
	Odometer Odometer
}

// AddLayer appends a new, empty layer and returns its index (the wire layer
// number). Layers are owned exclusively by their containing Document.
func (d *Document) AddLayer() int {
	d.Layers = append(d.Layers, Layer{Freq: 20.0})
	return len(d.Layers) - 1
}

// Layer returns a pointer to layer n, growing Layers with default-valued
// layers if n is a forward reference (the decoder creates layers lazily on
// first sighting; contiguity 0..N-1 is restored once every layer in between
// has been sighted at least once).
func (d *Document) Layer(n int) *Layer {
	for len(d.Layers) <= n {
		d.Layers = append(d.Layers, Layer{Freq: 20.0})
	}
	return &d.Layers[n]
}

// ComputedBBox returns the union of every layer's bbox (computed if the
// layer declares none), or ok=false if the document has no geometry.
func (d *Document) ComputedBBox() (BBox, bool) {
	var box BBox
	found := false
	for i := range d.Layers {
		l := &d.Layers[i]
		var lb BBox
		var lok bool
		if l.BBox != nil {
			lb, lok = *l.BBox, true
		} else {
			lb, lok = l.ComputedBBox()
		}
		if !lok {
			continue
		}
		if !found {
			box, found = lb, true
		} else {
			box.UnionBBox(lb)
		}
	}
	return box, found
}
