package view

import (
	"image/color"

	"github.com/goliatone/go-page-export/canvas"
	"github.com/goliatone/go-page-export/document"
)

const (
	rulingLineSpacing = 24.0
	rulingHeader      = 80.0
	rulingFooter      = 60.0
	rulingMargin      = 72.0
	gridSpacing       = 14.17
	dotRadius         = 0.75
	rulingLineWidth   = 0.5
)

var (
	rulingColor = color.NRGBA{R: 0x40, G: 0xa0, B: 0xff, A: 0xff}
	marginColor = color.NRGBA{R: 0xff, G: 0x00, B: 0x80, A: 0xff}
)

func drawBackground(c canvas.Canvas, page *document.Page, flags Flags) error {
	bg := page.Background
	if bg.IsPDF() && flags.SkipPDFBackground {
		return nil
	}

	if !flags.Transparent {
		fill := bg.Color
		if fill.A == 0 {
			fill = canvas.White
		}
		if err := c.FillRect(canvas.Rect{W: page.Width, H: page.Height}, fill); err != nil {
			return err
		}
	}

	if flags.NoRuling || !bg.Ruled() {
		return nil
	}

	switch bg.Kind {
	case document.BackgroundRuled:
		return drawLined(c, page)
	case document.BackgroundGraph:
		return drawGraph(c, page)
	case document.BackgroundDotted:
		return drawDots(c, page)
	}
	return nil
}

func drawLined(c canvas.Canvas, page *document.Page) error {
	for y := rulingHeader; y < page.Height-rulingFooter; y += rulingLineSpacing {
		line := []canvas.Point{{X: 0, Y: y}, {X: page.Width, Y: y}}
		if err := c.StrokePath(line, rulingLineWidth, rulingColor); err != nil {
			return err
		}
	}
	margin := []canvas.Point{{X: rulingMargin, Y: 0}, {X: rulingMargin, Y: page.Height}}
	return c.StrokePath(margin, rulingLineWidth, marginColor)
}

func drawGraph(c canvas.Canvas, page *document.Page) error {
	for x := gridSpacing; x < page.Width; x += gridSpacing {
		if err := c.StrokePath([]canvas.Point{{X: x, Y: 0}, {X: x, Y: page.Height}}, rulingLineWidth, rulingColor); err != nil {
			return err
		}
	}
	for y := gridSpacing; y < page.Height; y += gridSpacing {
		if err := c.StrokePath([]canvas.Point{{X: 0, Y: y}, {X: page.Width, Y: y}}, rulingLineWidth, rulingColor); err != nil {
			return err
		}
	}
	return nil
}

func drawDots(c canvas.Canvas, page *document.Page) error {
	for y := gridSpacing; y < page.Height; y += gridSpacing {
		for x := gridSpacing; x < page.Width; x += gridSpacing {
			dot := []canvas.Point{{X: x, Y: y}, {X: x, Y: y}}
			if err := c.StrokePath(dot, dotRadius*2, rulingColor); err != nil {
				return err
			}
		}
	}
	return nil
}
