package exportpdf

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/go-pdf/fpdf/contrib/gofpdi"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/goliatone/go-page-export/document"
	"github.com/goliatone/go-page-export/export"
)

const fontFamily = "goregular"

// Backend writes every unit as a page of one PDF document.
type Backend struct {
	Path string
	// Writer receives the document instead of Path when set.
	Writer   io.Writer
	Title    string
	Compress bool
	Now      func() time.Time

	pdf      *fpdf.Fpdf
	importer *gofpdi.Importer
	layers   map[string]int
	outline  []document.OutlineEntry
	marked   map[int]bool
	level    int
	images   int
	pages    int
	bytes    int64
	current  *Surface
}

// New creates a PDF backend writing to path.
func New(path string) *Backend {
	return &Backend{Path: path, Compress: true, Now: time.Now}
}

// Factory builds a backend for a job.
func Factory(job export.Job) (export.Backend, error) {
	if job.Output == "" {
		return nil, export.NewError(export.KindValidation, "pdf output path is required", nil)
	}
	backend := New(job.Output)
	backend.Title = job.Name
	return backend, nil
}

func (b *Backend) Open(ctx context.Context, target export.Target) error {
	_ = ctx
	if b.Path == "" && b.Writer == nil {
		return export.NewError(export.KindValidation, "pdf output path is required", nil)
	}
	if b.Writer == nil {
		if dir := filepath.Dir(b.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: 595.28, Ht: 841.89},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCompression(b.Compress)
	pdf.SetCreator("go-page-export", true)
	if b.Title != "" {
		pdf.SetTitle(b.Title, true)
	}
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	pdf.SetCreationDate(now())
	pdf.AddUTF8FontFromBytes(fontFamily, "", goregular.TTF)
	if err := pdf.Error(); err != nil {
		return err
	}

	b.pdf = pdf
	b.importer = gofpdi.NewImporter()
	b.layers = map[string]int{}
	b.marked = map[int]bool{}
	b.level = -1
	b.images = 0
	b.pages = 0
	b.bytes = 0
	b.current = nil
	b.outline = nil
	if target.Document != nil {
		b.outline = target.Document.Outline()
	}
	return nil
}

func (b *Backend) Begin(page *document.Page, unit export.Unit) (export.Surface, error) {
	if b.pdf == nil {
		return nil, fmt.Errorf("pdf backend is not open")
	}
	if b.current != nil {
		return nil, fmt.Errorf("surface for unit %d still active", b.current.unit.Index)
	}
	if page == nil || page.Width <= 0 || page.Height <= 0 {
		return nil, fmt.Errorf("invalid page size for unit %d", unit.Index)
	}

	b.pdf.AddPageFormat("P", fpdf.SizeType{Wd: page.Width, Ht: page.Height})
	b.bookmark(page)
	if err := b.pdf.Error(); err != nil {
		return nil, err
	}

	surface := &Surface{backend: b, width: page.Width, height: page.Height, unit: unit, alpha: 1}
	b.current = surface
	return surface, nil
}

// bookmark adds outline entries that point at the page's background source
// page. Each entry is placed once, on the first page that shows it.
func (b *Backend) bookmark(page *document.Page) {
	if !page.Background.IsPDF() {
		return
	}
	for i, entry := range b.outline {
		if b.marked[i] || entry.SourcePage != page.Background.PDFPage {
			continue
		}
		b.marked[i] = true
		b.level = outlineLevel(b.level, entry.Level)
		b.pdf.Bookmark(entry.Title, b.level, 0)
	}
}

// outlineLevel keeps bookmark nesting contiguous: the first entry sits at
// the root and no entry goes more than one level below the previous one.
func outlineLevel(prev, level int) int {
	return min(max(level, 0), prev+1)
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
	b.pdf.EndLayer()
	if err := b.pdf.Error(); err != nil {
		return err
	}
	b.pages++
	return nil
}

// Close writes the document when commit is set. A failed run leaves no file.
func (b *Backend) Close(commit bool) error {
	pdf := b.pdf
	b.pdf = nil
	b.current = nil
	if pdf == nil {
		return nil
	}
	if !commit {
		pdf.Close()
		return nil
	}

	if b.Writer != nil {
		cw := &countingWriter{w: b.Writer}
		err := pdf.Output(cw)
		b.bytes = cw.count
		return err
	}

	f, err := os.Create(b.Path)
	if err != nil {
		return err
	}
	cw := &countingWriter{w: f}
	if err := pdf.Output(cw); err != nil {
		_ = f.Close()
		_ = os.Remove(b.Path)
		return err
	}
	b.bytes = cw.count
	return f.Close()
}

// Pages is the number of pages completed in the last run.
func (b *Backend) Pages() int {
	return b.pages
}

// Bytes is the size of the written document.
func (b *Backend) Bytes() int64 {
	return b.bytes
}

func (b *Backend) layerID(name string) int {
	if id, ok := b.layers[name]; ok {
		return id
	}
	id := b.pdf.AddLayer(name, true)
	b.layers[name] = id
	return id
}

func (b *Backend) nextImageName() string {
	b.images++
	return fmt.Sprintf("img%d", b.images)
}

type countingWriter struct {
	w     io.Writer
	count int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.count += int64(n)
	return n, err
}

var _ export.Backend = (*Backend)(nil)
