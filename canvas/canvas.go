// Package canvas defines the drawing context shared by every export surface.
//
// Coordinates are expressed in PDF points (1/72 inch) with the origin at the
// top-left corner of the page. Surfaces scale to their own device space.
package canvas

import (
	"image"
	"image/color"
)

// Point is a position in page space.
type Point struct {
	X float64
	Y float64
}

// Rect is an axis aligned rectangle in page space.
type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Canvas is a drawing context sized to one page.
type Canvas interface {
	// Size returns the page size in points.
	Size() (width, height float64)
	FillRect(r Rect, c color.NRGBA) error
	StrokePath(points []Point, width float64, c color.NRGBA) error
	FillPath(points []Point, c color.NRGBA) error
	DrawText(at Point, size float64, text string, c color.NRGBA) error
	DrawImage(r Rect, img image.Image) error
}

// LayerMarker is implemented by canvases that can group drawing operations
// into named optional content layers.
type LayerMarker interface {
	BeginLayer(name string)
	EndLayer()
}

// PageImporter is implemented by canvases that can embed a page of an
// external PDF file as vector content.
type PageImporter interface {
	ImportPage(path string, number int, r Rect) error
}

// White is the default page color.
var White = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// Black is the default ink color.
var Black = color.NRGBA{A: 0xff}
