package document

import (
	"image"
	"image/color"

	"github.com/goliatone/go-page-export/canvas"
)

// Element is drawable layer content.
type Element interface {
	Bounds() canvas.Rect
}

// Tool is the pen tool used for a stroke.
type Tool int

const (
	ToolPen Tool = iota
	ToolHighlighter
)

// Stroke is a polyline drawn with a pen or highlighter.
type Stroke struct {
	Tool   Tool
	Width  float64
	Color  color.NRGBA
	Points []canvas.Point
	// Fill is the fill opacity in [0,1]; zero leaves the stroke unfilled.
	Fill float64
	// ErasePreview holds the segments that survive an eraser gesture still
	// in progress. It is nil when no erase is pending.
	ErasePreview [][]canvas.Point
}

func (s *Stroke) Bounds() canvas.Rect {
	return boundsOf(s.Points, s.Width/2)
}

// Erasable reports whether the stroke is being edited by the eraser.
func (s *Stroke) Erasable() bool {
	return s.ErasePreview != nil
}

// Text is a single run of text anchored at its baseline origin.
type Text struct {
	At    canvas.Point
	Size  float64
	Font  string
	Color color.NRGBA
	Value string
}

func (t *Text) Bounds() canvas.Rect {
	w := float64(len([]rune(t.Value))) * t.Size * 0.5
	return canvas.Rect{X: t.At.X, Y: t.At.Y - t.Size, W: w, H: t.Size}
}

// Image is a raster image placed on the page.
type Image struct {
	Rect  canvas.Rect
	Image image.Image
}

func (i *Image) Bounds() canvas.Rect {
	return i.Rect
}

func boundsOf(points []canvas.Point, pad float64) canvas.Rect {
	if len(points) == 0 {
		return canvas.Rect{}
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX = min(minX, p.X)
		minY = min(minY, p.Y)
		maxX = max(maxX, p.X)
		maxY = max(maxY, p.Y)
	}
	return canvas.Rect{X: minX - pad, Y: minY - pad, W: maxX - minX + 2*pad, H: maxY - minY + 2*pad}
}
