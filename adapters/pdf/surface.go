package exportpdf

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/go-pdf/fpdf"

	"github.com/goliatone/go-page-export/canvas"
	"github.com/goliatone/go-page-export/document"
	"github.com/goliatone/go-page-export/export"
)

// Surface draws onto the current page of the backend document. PDF user
// space is in points so page coordinates pass through unchanged.
type Surface struct {
	backend *Backend
	width   float64
	height  float64
	alpha   float64

	unit  export.Unit
	ended bool
}

func (s *Surface) pdf() *fpdf.Fpdf {
	return s.backend.pdf
}

func (s *Surface) Size() (float64, float64) {
	return s.width, s.height
}

func (s *Surface) FillRect(r canvas.Rect, c color.NRGBA) error {
	if r.Empty() || c.A == 0 {
		return nil
	}
	s.setAlpha(c)
	s.pdf().SetFillColor(int(c.R), int(c.G), int(c.B))
	s.pdf().Rect(r.X, r.Y, r.W, r.H, "F")
	return s.pdf().Error()
}

func (s *Surface) StrokePath(points []canvas.Point, width float64, c color.NRGBA) error {
	if len(points) == 0 || c.A == 0 {
		return nil
	}
	if width <= 0 {
		width = 1
	}
	pdf := s.pdf()
	s.setAlpha(c)
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
	pdf.SetLineWidth(width)
	pdf.SetLineCapStyle("round")
	pdf.SetLineJoinStyle("round")
	pdf.MoveTo(points[0].X, points[0].Y)
	if len(points) == 1 {
		pdf.LineTo(points[0].X, points[0].Y)
	}
	for _, p := range points[1:] {
		pdf.LineTo(p.X, p.Y)
	}
	pdf.DrawPath("D")
	return pdf.Error()
}

func (s *Surface) FillPath(points []canvas.Point, c color.NRGBA) error {
	if len(points) < 3 || c.A == 0 {
		return nil
	}
	pdf := s.pdf()
	s.setAlpha(c)
	pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
	pdf.MoveTo(points[0].X, points[0].Y)
	for _, p := range points[1:] {
		pdf.LineTo(p.X, p.Y)
	}
	pdf.ClosePath()
	pdf.DrawPath("F")
	return pdf.Error()
}

func (s *Surface) DrawText(at canvas.Point, size float64, text string, c color.NRGBA) error {
	if text == "" || c.A == 0 {
		return nil
	}
	pdf := s.pdf()
	s.setAlpha(c)
	pdf.SetFont(fontFamily, "", size)
	pdf.SetTextColor(int(c.R), int(c.G), int(c.B))
	pdf.Text(at.X, at.Y, text)
	return pdf.Error()
}

func (s *Surface) DrawImage(r canvas.Rect, img image.Image) error {
	if img == nil || r.Empty() {
		return nil
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}
	pdf := s.pdf()
	s.resetAlpha()
	name := s.backend.nextImageName()
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(name, opts, &buf)
	pdf.ImageOptions(name, r.X, r.Y, r.W, r.H, false, opts, 0, "")
	return pdf.Error()
}

// RenderSource draws an embedded page through its print path.
func (s *Surface) RenderSource(src document.SourcePage) error {
	return src.RenderForPrinting(s)
}

// ImportPage embeds page number (0-based) of a PDF file as a vector
// template. Unreadable sources are reported as unsupported.
func (s *Surface) ImportPage(path string, number int, r canvas.Rect) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: import %s page %d: %v", document.ErrRenderUnsupported, path, number, rec)
		}
	}()
	pdf := s.pdf()
	s.resetAlpha()
	tpl := s.backend.importer.ImportPage(pdf, path, number+1, "/MediaBox")
	s.backend.importer.UseImportedTemplate(pdf, tpl, r.X, r.Y, r.W, r.H)
	return pdf.Error()
}

// BeginLayer routes following content into the optional content group
// named after the layer.
func (s *Surface) BeginLayer(name string) {
	s.pdf().BeginLayer(s.backend.layerID(name))
}

func (s *Surface) EndLayer() {
	s.pdf().EndLayer()
}

func (s *Surface) setAlpha(c color.NRGBA) {
	alpha := float64(c.A) / 255
	if alpha == s.alpha {
		return
	}
	s.alpha = alpha
	s.pdf().SetAlpha(alpha, "Normal")
}

func (s *Surface) resetAlpha() {
	s.setAlpha(color.NRGBA{A: 0xff})
}

var (
	_ export.Surface      = (*Surface)(nil)
	_ canvas.LayerMarker  = (*Surface)(nil)
	_ canvas.PageImporter = (*Surface)(nil)
)
