// Package svgsink renders a decoded Document to SVG, one <path> per
// polyline, grouped per layer and stroked with the layer's preview color.
package svgsink

import (
	"fmt"
	"io"

	svg "github.com/ajstarks/svgo"

	"github.com/jnweiger/ruida-laser/internal/ruida/rdoc"
)

// Options tunes rendering.
type Options struct {
	// MarginMM pads the canvas around the document's bounding box.
	MarginMM float64
	// StrokeWidth is the SVG path stroke-width in user units (mm).
	StrokeWidth float64
}

func (o Options) marginMM() float64 {
	if o.MarginMM > 0 {
		return o.MarginMM
	}
	return 2.0
}

func (o Options) strokeWidth() float64 {
	if o.StrokeWidth > 0 {
		return o.StrokeWidth
	}
	return 0.2
}

// Write renders doc to w as an SVG document.
func Write(w io.Writer, doc *rdoc.Document, opts Options) error {
	bbox, ok := doc.ComputedBBox()
	if !ok {
		bbox = rdoc.BBox{}
	}
	margin := opts.marginMM()
	width := bbox.Max.X - bbox.Min.X + 2*margin
	height := bbox.Max.Y - bbox.Min.Y + 2*margin
	if width <= 0 {
		width = 2 * margin
	}
	if height <= 0 {
		height = 2 * margin
	}

	canvas := svg.New(w)
	canvas.Start(int(width+0.5), int(height+0.5))
	defer canvas.End()

	offsetX := margin - bbox.Min.X
	offsetY := margin - bbox.Min.Y

	for n := range doc.Layers {
		l := &doc.Layers[n]
		canvas.Gid(fmt.Sprintf("layer-%d", n))
		stroke := fmt.Sprintf("stroke:#%02x%02x%02x;stroke-width:%.3f;fill:none", l.Color.R, l.Color.G, l.Color.B, opts.strokeWidth())
		for _, p := range l.Paths {
			canvas.Path(pathData(p, offsetX, offsetY), stroke)
		}
		canvas.Gend()
	}
	return nil
}

// pathData builds an SVG path "d" attribute ("M x,y L x,y ...") for a
// polyline, translating document coordinates into the canvas's origin.
func pathData(p rdoc.Path, offsetX, offsetY float64) string {
	if len(p.Points) == 0 {
		return ""
	}
	d := fmt.Sprintf("M%.3f,%.3f", p.Points[0].X+offsetX, p.Points[0].Y+offsetY)
	for _, pt := range p.Points[1:] {
		d += fmt.Sprintf(" L%.3f,%.3f", pt.X+offsetX, pt.Y+offsetY)
	}
	return d
}
