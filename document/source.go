package document

import (
	"errors"
	"image"

	"github.com/goliatone/go-page-export/canvas"
)

// ErrRenderUnsupported is returned by a source page that cannot draw onto the
// given canvas. Exporters treat it as a missing background, not a failure.
var ErrRenderUnsupported = errors.New("source page cannot render on this surface")

// SourcePage is a page of an external document used as a page background.
type SourcePage interface {
	Size() (width, height float64)
	// Render draws the page for on-screen preview quality.
	Render(c canvas.Canvas) error
	// RenderForPrinting draws the page preserving vector fidelity.
	RenderForPrinting(c canvas.Canvas) error
}

// PDFFilePage references one page of a PDF file on disk. It can only be
// drawn onto canvases that embed PDF pages directly.
type PDFFilePage struct {
	Path string
	// Number is the 0-based page index within the file.
	Number int
	Width  float64
	Height float64
}

func (p PDFFilePage) Size() (float64, float64) {
	return p.Width, p.Height
}

// Render has no rasterizer to fall back on.
func (p PDFFilePage) Render(c canvas.Canvas) error {
	return p.RenderForPrinting(c)
}

func (p PDFFilePage) RenderForPrinting(c canvas.Canvas) error {
	importer, ok := c.(canvas.PageImporter)
	if !ok {
		return ErrRenderUnsupported
	}
	w, h := c.Size()
	return importer.ImportPage(p.Path, p.Number, canvas.Rect{W: w, H: h})
}

// ImagePage is a source page backed by a raster snapshot.
type ImagePage struct {
	Image  image.Image
	Width  float64
	Height float64
}

func (p ImagePage) Size() (float64, float64) {
	return p.Width, p.Height
}

func (p ImagePage) Render(c canvas.Canvas) error {
	w, h := c.Size()
	return c.DrawImage(canvas.Rect{W: w, H: h}, p.Image)
}

func (p ImagePage) RenderForPrinting(c canvas.Canvas) error {
	return p.Render(c)
}
