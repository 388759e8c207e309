// Package xopp loads Xournal++ (.xopp) and Xournal (.xoj) notebooks into an
// in-memory document. Files may be gzip compressed or plain XML.
package xopp

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goliatone/go-page-export/document"
	"github.com/goliatone/go-page-export/export"
)

// Size is a page size in points.
type Size struct {
	Width  float64
	Height float64
}

// PageSizer reports the page sizes of a PDF file in page order.
type PageSizer interface {
	PageSizes(path string) ([]Size, error)
}

// Loader decodes notebooks and resolves their PDF backgrounds.
type Loader struct {
	// Sizer reads background PDFs. Nil skips background resolution, leaving
	// PDF backgrounds unresolved.
	Sizer  PageSizer
	Logger export.Logger
}

// NewLoader creates a loader that reads background PDFs with gofpdi.
func NewLoader() *Loader {
	return &Loader{Sizer: PDFSizer{}, Logger: export.NopLogger{}}
}

// Load reads a notebook from disk.
func Load(ctx context.Context, path string) (document.Document, error) {
	doc, err := NewLoader().Load(ctx, path)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Load reads a notebook from disk. Relative background file names are
// resolved against the notebook directory.
func (l *Loader) Load(ctx context.Context, path string) (*document.Memory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, export.NewError(export.KindNotFound, fmt.Sprintf("open %s", path), err)
	}
	defer f.Close()

	doc, err := l.Decode(ctx, f, filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	if doc.Title == "" {
		doc.Title = filepath.Base(path)
	}
	return doc, nil
}

// Decode reads a notebook stream. dir anchors relative background paths.
func (l *Loader) Decode(ctx context.Context, r io.Reader, dir string) (*document.Memory, error) {
	body, err := uncompress(r)
	if err != nil {
		return nil, export.NewError(export.KindValidation, "notebook is not readable", err)
	}

	var raw xmlNotebook
	if err := xml.NewDecoder(body).Decode(&raw); err != nil {
		return nil, export.NewError(export.KindValidation, "notebook is not valid XML", err)
	}
	if raw.XMLName.Local != "xournal" {
		return nil, export.NewError(export.KindValidation, fmt.Sprintf("unexpected root element %q", raw.XMLName.Local), nil)
	}

	doc := document.NewMemory()
	pdfPath := ""
	for i, rawPage := range raw.Pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := decodePage(rawPage)
		if err != nil {
			return nil, export.NewError(export.KindValidation, fmt.Sprintf("page %d", i+1), err)
		}
		if rawPage.Background.Type == "pdf" && rawPage.Background.Filename != "" && pdfPath == "" {
			pdfPath = rawPage.Background.Filename
			if !filepath.IsAbs(pdfPath) && dir != "" {
				pdfPath = filepath.Join(dir, pdfPath)
			}
		}
		doc.Pages = append(doc.Pages, page)
	}

	if pdfPath != "" {
		doc.Sources = l.sources(pdfPath)
	}
	return doc, nil
}

func (l *Loader) sources(path string) []document.SourcePage {
	if l.Sizer == nil {
		return nil
	}
	sizes, err := l.Sizer.PageSizes(path)
	if err != nil {
		l.logger().Errorf("cannot read background pdf %s: %v", path, err)
		return nil
	}
	l.logger().Debugf("background pdf %s has %d pages", path, len(sizes))

	sources := make([]document.SourcePage, 0, len(sizes))
	for i, size := range sizes {
		sources = append(sources, document.PDFFilePage{
			Path:   path,
			Number: i,
			Width:  size.Width,
			Height: size.Height,
		})
	}
	return sources
}

func (l *Loader) logger() export.Logger {
	if l.Logger == nil {
		return export.NopLogger{}
	}
	return l.Logger
}

func uncompress(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, err
	}
	if bytes.Equal(magic, []byte{0x1f, 0x8b}) {
		return gzip.NewReader(br)
	}
	return br, nil
}
