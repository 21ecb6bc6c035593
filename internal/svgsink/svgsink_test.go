package svgsink

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jnweiger/ruida-laser/internal/ruida/rdoc"
)

func TestWriteProducesOnePathPerPolyline(t *testing.T) {
	doc := &rdoc.Document{
		Layers: []rdoc.Layer{
			{
				Color: rdoc.RGB{R: 255, G: 0, B: 0},
				Paths: []rdoc.Path{
					{Points: []rdoc.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}},
					{Points: []rdoc.Point{{X: 1, Y: 1}, {X: 2, Y: 2}}},
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := Write(&buf, doc, Options{}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	if strings.Count(out, "<path") != 2 {
		t.Errorf("expected 2 <path> elements, got:\n%s", out)
	}
	if !strings.Contains(out, "#ff0000") {
		t.Errorf("expected layer color #ff0000 in output, got:\n%s", out)
	}
}

func TestWriteEmptyDocumentStillProducesValidCanvas(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, &rdoc.Document{}, Options{}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(buf.String(), "<svg") {
		t.Error("expected an <svg> root element")
	}
}
