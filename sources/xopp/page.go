package xopp

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"strconv"
	"strings"

	"github.com/goliatone/go-page-export/canvas"
	"github.com/goliatone/go-page-export/document"
)

func decodePage(raw xmlPage) (*document.Page, error) {
	if raw.Width <= 0 || raw.Height <= 0 {
		return nil, fmt.Errorf("invalid page size %gx%g", raw.Width, raw.Height)
	}
	page := document.NewPage(raw.Width, raw.Height)

	bg, err := decodeBackground(raw.Background)
	if err != nil {
		return nil, err
	}
	page.Background = bg

	for i, rawLayer := range raw.Layers {
		layer, err := decodeLayer(rawLayer)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i+1, err)
		}
		page.Layers = append(page.Layers, layer)
	}
	return page, nil
}

func decodeBackground(raw xmlBackground) (document.Background, error) {
	bg := document.Background{Kind: document.BackgroundPlain, Color: canvas.White}
	switch raw.Type {
	case "pdf":
		n, err := pageNumber(raw.PageNo)
		if err != nil {
			return bg, err
		}
		bg.Kind = document.BackgroundPDF
		bg.PDFPage = n - 1
		return bg, nil
	case "solid", "":
	default:
		// pixmap backgrounds are exported as plain pages
		return bg, nil
	}

	if raw.Color != "" {
		c, err := parseColor(raw.Color)
		if err != nil {
			return bg, err
		}
		bg.Color = c
	}
	switch raw.Style {
	case "lined", "ruled", "staves":
		bg.Kind = document.BackgroundRuled
	case "graph", "isograph":
		bg.Kind = document.BackgroundGraph
	case "dotted", "isodotted":
		bg.Kind = document.BackgroundDotted
	}
	return bg, nil
}

// pageNumber reads the 1-based pageno attribute. Older writers append "ll".
func pageNumber(s string) (int, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "ll")
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid pdf page number %q", s)
	}
	return n, nil
}

func decodeLayer(raw xmlLayer) (*document.Layer, error) {
	layer := document.NewLayer(raw.Name)
	for _, item := range raw.Items {
		var (
			el  document.Element
			err error
		)
		switch item.XMLName.Local {
		case "stroke":
			el, err = decodeStroke(item)
		case "text":
			el, err = decodeText(item)
		case "image":
			el, err = decodeImage(item)
		default:
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", item.XMLName.Local, err)
		}
		if el != nil {
			layer.Elements = append(layer.Elements, el)
		}
	}
	return layer, nil
}

func decodeStroke(item xmlItem) (document.Element, error) {
	tool := document.ToolPen
	switch item.attr("tool") {
	case "highlighter":
		tool = document.ToolHighlighter
	case "eraser":
		return nil, nil
	}

	widths := strings.Fields(item.attr("width"))
	if len(widths) == 0 {
		return nil, fmt.Errorf("missing width")
	}
	// Pressure-sensitive strokes list per-segment widths after the base width.
	width, err := strconv.ParseFloat(widths[0], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid width %q", widths[0])
	}

	c, err := parseColor(item.attr("color"))
	if err != nil {
		return nil, err
	}

	coords := strings.Fields(item.Body)
	points := make([]canvas.Point, 0, len(coords)/2)
	for i := 0; i+1 < len(coords); i += 2 {
		x, errX := strconv.ParseFloat(coords[i], 64)
		y, errY := strconv.ParseFloat(coords[i+1], 64)
		if errX != nil || errY != nil {
			return nil, fmt.Errorf("invalid coordinate %q %q", coords[i], coords[i+1])
		}
		points = append(points, canvas.Point{X: x, Y: y})
	}
	if len(points) == 0 {
		return nil, nil
	}

	stroke := &document.Stroke{Tool: tool, Width: width, Color: c, Points: points}
	if fill := item.attr("fill"); fill != "" {
		if v, err := strconv.Atoi(fill); err == nil && v > 0 {
			stroke.Fill = float64(min(v, 255)) / 255
		}
	}
	return stroke, nil
}

func decodeText(item xmlItem) (document.Element, error) {
	size, err := floatAttr(item, "size")
	if err != nil {
		return nil, err
	}
	x, err := floatAttr(item, "x")
	if err != nil {
		return nil, err
	}
	y, err := floatAttr(item, "y")
	if err != nil {
		return nil, err
	}
	c, err := parseColor(item.attr("color"))
	if err != nil {
		return nil, err
	}
	// y is the top of the text box; elements anchor at the baseline.
	return &document.Text{
		At:    canvas.Point{X: x, Y: y + size},
		Size:  size,
		Font:  item.attr("font"),
		Color: c,
		Value: item.Body,
	}, nil
}

func decodeImage(item xmlItem) (document.Element, error) {
	var box [4]float64
	for i, name := range []string{"left", "top", "right", "bottom"} {
		v, err := floatAttr(item, name)
		if err != nil {
			return nil, err
		}
		box[i] = v
	}
	data, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(item.Body), ""))
	if err != nil {
		return nil, fmt.Errorf("invalid image data: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return &document.Image{
		Rect:  canvas.Rect{X: box[0], Y: box[1], W: box[2] - box[0], H: box[3] - box[1]},
		Image: img,
	}, nil
}

func floatAttr(item xmlItem, name string) (float64, error) {
	raw := item.attr(name)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return v, nil
}

var namedColors = map[string]color.NRGBA{
	"black":      {A: 0xff},
	"blue":       {R: 0x33, G: 0x33, B: 0xcc, A: 0xff},
	"red":        {R: 0xff, A: 0xff},
	"green":      {G: 0x80, A: 0xff},
	"gray":       {R: 0x80, G: 0x80, B: 0x80, A: 0xff},
	"lightblue":  {G: 0xc0, B: 0xff, A: 0xff},
	"lightgreen": {G: 0xff, A: 0xff},
	"magenta":    {R: 0xff, B: 0xff, A: 0xff},
	"orange":     {R: 0xff, G: 0x80, A: 0xff},
	"yellow":     {R: 0xff, G: 0xff, A: 0xff},
	"white":      {R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	"pink":       {R: 0xff, G: 0xc0, B: 0xd0, A: 0xff},
}

// parseColor reads "#rrggbbaa", "#rrggbb" or a legacy color name.
func parseColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(s)
	if c, ok := namedColors[strings.ToLower(s)]; ok {
		return c, nil
	}
	hex, ok := strings.CutPrefix(s, "#")
	if !ok || (len(hex) != 6 && len(hex) != 8) {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
