package raster

import (
	"image"
	"image/color"
	"math"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/goliatone/go-page-export/canvas"
	"github.com/goliatone/go-page-export/document"
	"github.com/goliatone/go-page-export/export"
)

// Surface is an in-memory raster canvas for one unit. Drawing coordinates
// are in page units and scaled to device pixels.
type Surface struct {
	img    *image.RGBA
	width  float64
	height float64
	zoomX  float64
	zoomY  float64

	scanner *rasterx.ScannerGV
	filler  *rasterx.Filler
	stroker *rasterx.Stroker
	faces   *faceCache

	unit  export.Unit
	path  string
	ended bool
}

func newSurface(pageWidth, pageHeight float64, w, h int) *Surface {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	return &Surface{
		img:     img,
		width:   pageWidth,
		height:  pageHeight,
		zoomX:   float64(w) / pageWidth,
		zoomY:   float64(h) / pageHeight,
		scanner: scanner,
		filler:  rasterx.NewFiller(w, h, scanner),
		stroker: rasterx.NewStroker(w, h, scanner),
		faces:   newFaceCache(),
	}
}

// Image returns the rendered pixels.
func (s *Surface) Image() *image.RGBA {
	return s.img
}

// Path is the file the surface is written to.
func (s *Surface) Path() string {
	return s.path
}

func (s *Surface) Size() (float64, float64) {
	return s.width, s.height
}

func (s *Surface) FillRect(r canvas.Rect, c color.NRGBA) error {
	if r.Empty() || c.A == 0 {
		return nil
	}
	s.filler.Clear()
	s.filler.SetColor(c)
	rasterx.AddRect(
		r.X*s.zoomX, r.Y*s.zoomY,
		(r.X+r.W)*s.zoomX, (r.Y+r.H)*s.zoomY,
		0, s.filler,
	)
	s.filler.Draw()
	s.filler.Clear()
	return nil
}

func (s *Surface) StrokePath(points []canvas.Point, width float64, c color.NRGBA) error {
	if len(points) == 0 || c.A == 0 {
		return nil
	}
	scaled := s.scaleWidth(width)
	if degenerate(points) {
		// a zero-length stroke renders as a dot
		s.filler.Clear()
		s.filler.SetColor(c)
		p := s.device(points[0])
		rasterx.AddCircle(p.X, p.Y, scaled/2, s.filler)
		s.filler.Draw()
		s.filler.Clear()
		return nil
	}

	s.stroker.Clear()
	s.stroker.SetColor(c)
	s.stroker.SetStroke(
		fixed.Int26_6(scaled*64), fixed.Int26_6(4*64),
		rasterx.RoundCap, nil, rasterx.RoundGap, rasterx.Round,
	)
	s.stroker.Start(s.point(points[0]))
	for _, p := range points[1:] {
		s.stroker.Line(s.point(p))
	}
	s.stroker.Stop(false)
	s.stroker.Draw()
	s.stroker.Clear()
	return nil
}

func (s *Surface) FillPath(points []canvas.Point, c color.NRGBA) error {
	if len(points) < 3 || c.A == 0 {
		return nil
	}
	s.filler.Clear()
	s.filler.SetColor(c)
	s.filler.Start(s.point(points[0]))
	for _, p := range points[1:] {
		s.filler.Line(s.point(p))
	}
	s.filler.Stop(true)
	s.filler.Draw()
	s.filler.Clear()
	return nil
}

func (s *Surface) DrawText(at canvas.Point, size float64, text string, c color.NRGBA) error {
	if text == "" || c.A == 0 {
		return nil
	}
	face, err := s.faces.face(size * s.zoomY)
	if err != nil {
		return err
	}
	origin := s.device(at)
	drawer := font.Drawer{
		Dst:  s.img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.Int26_6(origin.X * 64), Y: fixed.Int26_6(origin.Y * 64)},
	}
	drawer.DrawString(text)
	return nil
}

func (s *Surface) DrawImage(r canvas.Rect, img image.Image) error {
	if img == nil || r.Empty() {
		return nil
	}
	dst := image.Rect(
		int(math.Floor(r.X*s.zoomX)), int(math.Floor(r.Y*s.zoomY)),
		int(math.Ceil((r.X+r.W)*s.zoomX)), int(math.Ceil((r.Y+r.H)*s.zoomY)),
	)
	draw.CatmullRom.Scale(s.img, dst, img, img.Bounds(), draw.Over, nil)
	return nil
}

// RenderSource draws an embedded page through its preview path.
func (s *Surface) RenderSource(src document.SourcePage) error {
	return src.Render(s)
}

func (s *Surface) device(p canvas.Point) canvas.Point {
	return canvas.Point{X: p.X * s.zoomX, Y: p.Y * s.zoomY}
}

func (s *Surface) point(p canvas.Point) fixed.Point26_6 {
	d := s.device(p)
	return rasterx.ToFixedP(d.X, d.Y)
}

func (s *Surface) scaleWidth(width float64) float64 {
	if width <= 0 {
		width = 1
	}
	return width * (s.zoomX + s.zoomY) / 2
}

func degenerate(points []canvas.Point) bool {
	first := points[0]
	for _, p := range points[1:] {
		if p != first {
			return false
		}
	}
	return true
}

var _ export.Surface = (*Surface)(nil)
