package canvas

import (
	"fmt"
	"image"
	"image/color"
)

// Op is one drawing operation captured by a Recorder.
type Op struct {
	Kind   string
	Points []Point
	Rect   Rect
	Width  float64
	Color  color.NRGBA
	Text   string
	Layer  string
}

func (o Op) String() string {
	switch o.Kind {
	case "text":
		return fmt.Sprintf("text(%q)", o.Text)
	case "layer":
		return fmt.Sprintf("layer(%s)", o.Layer)
	default:
		return o.Kind
	}
}

// Recorder is an in-memory Canvas that records every operation. It backs
// dry runs and tests.
type Recorder struct {
	Width  float64
	Height float64
	Ops    []Op

	layer string
}

// NewRecorder creates a recorder sized to the page.
func NewRecorder(width, height float64) *Recorder {
	return &Recorder{Width: width, Height: height}
}

func (r *Recorder) Size() (float64, float64) {
	return r.Width, r.Height
}

func (r *Recorder) FillRect(rect Rect, c color.NRGBA) error {
	r.Ops = append(r.Ops, Op{Kind: "rect", Rect: rect, Color: c, Layer: r.layer})
	return nil
}

func (r *Recorder) StrokePath(points []Point, width float64, c color.NRGBA) error {
	r.Ops = append(r.Ops, Op{Kind: "stroke", Points: append([]Point(nil), points...), Width: width, Color: c, Layer: r.layer})
	return nil
}

func (r *Recorder) FillPath(points []Point, c color.NRGBA) error {
	r.Ops = append(r.Ops, Op{Kind: "fill", Points: append([]Point(nil), points...), Color: c, Layer: r.layer})
	return nil
}

func (r *Recorder) DrawText(at Point, size float64, text string, c color.NRGBA) error {
	r.Ops = append(r.Ops, Op{Kind: "text", Points: []Point{at}, Width: size, Text: text, Color: c, Layer: r.layer})
	return nil
}

func (r *Recorder) DrawImage(rect Rect, img image.Image) error {
	_ = img
	r.Ops = append(r.Ops, Op{Kind: "image", Rect: rect, Layer: r.layer})
	return nil
}

func (r *Recorder) BeginLayer(name string) {
	r.layer = name
	r.Ops = append(r.Ops, Op{Kind: "layer", Layer: name})
}

func (r *Recorder) EndLayer() {
	r.layer = ""
}

// Count returns how many recorded operations have the given kind.
func (r *Recorder) Count(kind string) int {
	n := 0
	for _, op := range r.Ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// Texts returns the recorded text runs in draw order.
func (r *Recorder) Texts() []string {
	out := []string{}
	for _, op := range r.Ops {
		if op.Kind == "text" {
			out = append(out, op.Text)
		}
	}
	return out
}

var (
	_ Canvas      = (*Recorder)(nil)
	_ LayerMarker = (*Recorder)(nil)
)
