// Package svg provides the SVG export backend. Every unit is written to its
// own file; layers become groups and raster content is inlined as data URIs.
//
// PDF file backgrounds are not converted to SVG. Those units are written
// without the background and the run records a
// "cannot render the pdf page number" warning.
package svg

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	svgo "github.com/ajstarks/svgo/float"

	"github.com/goliatone/go-page-export/document"
	"github.com/goliatone/go-page-export/export"
)

// Backend writes one SVG document per export unit.
type Backend struct {
	Path string
	// Decimals is the coordinate precision written to the file.
	Decimals int

	target  export.Target
	current *Surface
	written []string
}

// New creates an SVG backend writing to path, numbered per unit.
func New(path string) *Backend {
	return &Backend{Path: path, Decimals: 2}
}

// Factory builds a backend for a job.
func Factory(job export.Job) (export.Backend, error) {
	if job.Output == "" {
		return nil, export.NewError(export.KindValidation, "svg output path is required", nil)
	}
	return New(job.Output), nil
}

func (b *Backend) Open(ctx context.Context, target export.Target) error {
	_ = ctx
	if b.Path == "" {
		return export.NewError(export.KindValidation, "svg output path is required", nil)
	}
	if dir := filepath.Dir(b.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	b.target = target
	b.current = nil
	b.written = nil
	return nil
}

func (b *Backend) Begin(page *document.Page, unit export.Unit) (export.Surface, error) {
	if b.current != nil {
		return nil, fmt.Errorf("surface for unit %d still active", b.current.unit.Index)
	}
	if page == nil || page.Width <= 0 || page.Height <= 0 {
		return nil, fmt.Errorf("invalid page size for unit %d", unit.Index)
	}

	buf := &bytes.Buffer{}
	doc := svgo.New(buf)
	doc.Decimals = b.Decimals
	doc.Startunit(page.Width, page.Height, "pt",
		fmt.Sprintf(`viewBox="0 0 %.*f %.*f"`, b.Decimals, page.Width, b.Decimals, page.Height))

	surface := &Surface{
		doc:    doc,
		buf:    buf,
		width:  page.Width,
		height: page.Height,
		unit:   unit,
		path:   export.UnitFilename(b.Path, unit, b.target.SinglePage),
	}
	b.current = surface
	return surface, nil
}

func (b *Backend) End(s export.Surface) error {
	surface, ok := s.(*Surface)
	if !ok {
		return fmt.Errorf("unexpected surface %T", s)
	}
	if surface.ended {
		return nil
	}
	surface.ended = true
	if b.current == surface {
		b.current = nil
	}
	surface.closeGroups()
	surface.doc.End()
	if err := os.WriteFile(surface.path, surface.buf.Bytes(), 0o644); err != nil {
		return err
	}
	b.written = append(b.written, surface.path)
	return nil
}

// Close drops any active surface. Files already written are kept.
func (b *Backend) Close(commit bool) error {
	_ = commit
	b.current = nil
	return nil
}

// Written lists the files produced so far.
func (b *Backend) Written() []string {
	return append([]string(nil), b.written...)
}

var _ export.Backend = (*Backend)(nil)
