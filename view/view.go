// Package view draws document pages onto a canvas.
package view

import (
	"image/color"

	"github.com/goliatone/go-page-export/canvas"
	"github.com/goliatone/go-page-export/document"
)

// Flags tune how a page is drawn for export.
type Flags struct {
	// SkipErasable draws strokes in their committed shape, ignoring any
	// eraser preview.
	SkipErasable bool
	// SkipPDFBackground leaves embedded source pages to the caller.
	SkipPDFBackground bool
	// Transparent omits the background fill.
	Transparent bool
	// NoRuling omits ruling, grid and dot decoration.
	NoRuling bool
}

// DrawPage draws the background and all visible layers of the page.
func DrawPage(c canvas.Canvas, page *document.Page, flags Flags) error {
	return draw(c, page, nil, flags)
}

// DrawLayers draws the background and the visible layers whose indices are
// listed. Indices beyond the page's layer count are ignored.
func DrawLayers(c canvas.Canvas, page *document.Page, layers []int, flags Flags) error {
	selected := make(map[int]bool, len(layers))
	for _, idx := range layers {
		selected[idx] = true
	}
	return draw(c, page, selected, flags)
}

func draw(c canvas.Canvas, page *document.Page, selected map[int]bool, flags Flags) error {
	if page == nil {
		return nil
	}
	if err := drawBackground(c, page, flags); err != nil {
		return err
	}
	for idx, layer := range page.Layers {
		if layer == nil || !layer.Visible {
			continue
		}
		if selected != nil && !selected[idx] {
			continue
		}
		if err := drawLayer(c, layer, flags); err != nil {
			return err
		}
	}
	return nil
}

func drawLayer(c canvas.Canvas, layer *document.Layer, flags Flags) error {
	if marker, ok := c.(canvas.LayerMarker); ok {
		marker.BeginLayer(layer.Name)
		defer marker.EndLayer()
	}
	for _, el := range layer.Elements {
		if err := drawElement(c, el, flags); err != nil {
			return err
		}
	}
	return nil
}

func drawElement(c canvas.Canvas, el document.Element, flags Flags) error {
	switch e := el.(type) {
	case *document.Stroke:
		return drawStroke(c, e, flags)
	case *document.Text:
		size := e.Size
		if size <= 0 {
			size = 12
		}
		return c.DrawText(e.At, size, e.Value, e.Color)
	case *document.Image:
		if e.Image == nil || e.Rect.Empty() {
			return nil
		}
		return c.DrawImage(e.Rect, e.Image)
	}
	return nil
}

func drawStroke(c canvas.Canvas, s *document.Stroke, flags Flags) error {
	ink := s.Color
	if s.Tool == document.ToolHighlighter {
		ink.A = uint8(float64(ink.A) * highlighterAlpha)
	}

	if s.Fill > 0 && len(s.Points) > 2 {
		fill := ink
		fill.A = uint8(float64(ink.A) * min(s.Fill, 1))
		if err := c.FillPath(s.Points, fill); err != nil {
			return err
		}
	}

	if !flags.SkipErasable && s.Erasable() {
		for _, part := range s.ErasePreview {
			if err := strokePoints(c, part, s.Width, ink); err != nil {
				return err
			}
		}
		return nil
	}
	return strokePoints(c, s.Points, s.Width, ink)
}

func strokePoints(c canvas.Canvas, points []canvas.Point, width float64, ink color.NRGBA) error {
	switch len(points) {
	case 0:
		return nil
	case 1:
		points = []canvas.Point{points[0], points[0]}
	}
	return c.StrokePath(points, width, ink)
}

const highlighterAlpha = 0.5
