package trackerbun

import (
	"context"

	"github.com/goliatone/go-page-export/canvas"
	"github.com/goliatone/go-page-export/document"
	"github.com/goliatone/go-page-export/export"
)

type nopSurface struct {
	*canvas.Recorder
}

func (nopSurface) RenderSource(document.SourcePage) error { return nil }

type nopBackend struct{}

func (nopBackend) Open(context.Context, export.Target) error { return nil }

func (nopBackend) Begin(page *document.Page, unit export.Unit) (export.Surface, error) {
	_ = unit
	return nopSurface{canvas.NewRecorder(page.Width, page.Height)}, nil
}

func (nopBackend) End(export.Surface) error { return nil }
func (nopBackend) Close(bool) error         { return nil }

func twoPageDoc() document.Document {
	return document.NewMemory(document.NewPage(10, 10), document.NewPage(10, 10))
}
