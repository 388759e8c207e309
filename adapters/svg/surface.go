package svg

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strconv"
	"strings"

	svgo "github.com/ajstarks/svgo/float"

	"github.com/goliatone/go-page-export/canvas"
	"github.com/goliatone/go-page-export/document"
	"github.com/goliatone/go-page-export/export"
)

// Surface draws one unit as SVG elements in page units.
type Surface struct {
	doc    *svgo.SVG
	buf    *bytes.Buffer
	width  float64
	height float64
	groups int

	unit  export.Unit
	path  string
	ended bool
}

func (s *Surface) Size() (float64, float64) {
	return s.width, s.height
}

func (s *Surface) FillRect(r canvas.Rect, c color.NRGBA) error {
	if r.Empty() || c.A == 0 {
		return nil
	}
	s.doc.Rect(r.X, r.Y, r.W, r.H, fill(c))
	return nil
}

func (s *Surface) StrokePath(points []canvas.Point, width float64, c color.NRGBA) error {
	if len(points) == 0 || c.A == 0 {
		return nil
	}
	if len(points) == 1 {
		points = []canvas.Point{points[0], points[0]}
	}
	xs, ys := split(points)
	s.doc.Polyline(xs, ys, stroke(c, width))
	return nil
}

func (s *Surface) FillPath(points []canvas.Point, c color.NRGBA) error {
	if len(points) < 3 || c.A == 0 {
		return nil
	}
	xs, ys := split(points)
	s.doc.Polygon(xs, ys, fill(c))
	return nil
}

func (s *Surface) DrawText(at canvas.Point, size float64, text string, c color.NRGBA) error {
	if text == "" || c.A == 0 {
		return nil
	}
	style := fmt.Sprintf("font-family:sans-serif;font-size:%.2fpx;%s", size, fill(c))
	s.doc.Text(at.X, at.Y, text, style)
	return nil
}

func (s *Surface) DrawImage(r canvas.Rect, img image.Image) error {
	if img == nil || r.Empty() || img.Bounds().Empty() {
		return nil
	}
	uri, err := dataURI(img)
	if err != nil {
		return err
	}
	// svgo sizes images in whole units, so the pixel grid is placed with a
	// transform to keep fractional rectangles exact.
	b := img.Bounds()
	s.doc.Gtransform(fmt.Sprintf("translate(%s,%s) scale(%s,%s)",
		num(r.X), num(r.Y), num(r.W/float64(b.Dx())), num(r.H/float64(b.Dy()))))
	s.doc.Image(0, 0, b.Dx(), b.Dy(), uri, `preserveAspectRatio="none"`)
	s.doc.Gend()
	return nil
}

// RenderSource draws an embedded page through its print path so vector
// sources keep their fidelity.
func (s *Surface) RenderSource(src document.SourcePage) error {
	return src.RenderForPrinting(s)
}

// BeginLayer opens a group named after the layer.
func (s *Surface) BeginLayer(name string) {
	s.doc.Gid(name)
	s.groups++
}

func (s *Surface) EndLayer() {
	if s.groups == 0 {
		return
	}
	s.doc.Gend()
	s.groups--
}

func (s *Surface) closeGroups() {
	for s.groups > 0 {
		s.EndLayer()
	}
}

func split(points []canvas.Point) ([]float64, []float64) {
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i], ys[i] = p.X, p.Y
	}
	return xs, ys
}

func hex(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func opacity(c color.NRGBA) string {
	return fmt.Sprintf("%.3g", float64(c.A)/255)
}

func fill(c color.NRGBA) string {
	parts := []string{"fill:" + hex(c)}
	if c.A != 0xff {
		parts = append(parts, "fill-opacity:"+opacity(c))
	}
	return strings.Join(parts, ";")
}

func stroke(c color.NRGBA, width float64) string {
	if width <= 0 {
		width = 1
	}
	parts := []string{
		"fill:none",
		"stroke:" + hex(c),
		fmt.Sprintf("stroke-width:%.2f", width),
		"stroke-linecap:round",
		"stroke-linejoin:round",
	}
	if c.A != 0xff {
		parts = append(parts, "stroke-opacity:"+opacity(c))
	}
	return strings.Join(parts, ";")
}

func dataURI(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

var (
	_ export.Surface     = (*Surface)(nil)
	_ canvas.LayerMarker = (*Surface)(nil)
)

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
