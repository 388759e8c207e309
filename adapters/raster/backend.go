package raster

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/goliatone/go-page-export/document"
	"github.com/goliatone/go-page-export/export"
)

// MaxPixels bounds the raster allocated for a single unit.
const MaxPixels = 1 << 28

// Backend writes one PNG per export unit.
type Backend struct {
	Path    string
	Quality export.Quality
	Encoder png.Encoder

	target  export.Target
	current *Surface
	written []string
}

// New creates a PNG backend writing to path, numbered per unit.
func New(path string, quality export.Quality) *Backend {
	if quality.Value <= 0 {
		quality = export.DefaultQuality()
	}
	return &Backend{
		Path:    path,
		Quality: quality,
		Encoder: png.Encoder{CompressionLevel: png.DefaultCompression},
	}
}

// Factory builds a backend for a job.
func Factory(job export.Job) (export.Backend, error) {
	if job.Output == "" {
		return nil, export.NewError(export.KindValidation, "png output path is required", nil)
	}
	return New(job.Output, job.Quality), nil
}

func (b *Backend) Open(ctx context.Context, target export.Target) error {
	_ = ctx
	if b.Path == "" {
		return export.NewError(export.KindValidation, "png output path is required", nil)
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

	w, h := b.Quality.PixelSize(page.Width, page.Height)
	if float64(w)*float64(h) > MaxPixels {
		return nil, export.NewError(export.KindRender,
			fmt.Sprintf("raster size %dx%d for unit %d exceeds %d pixels", w, h, unit.Index, MaxPixels), nil)
	}
	surface := newSurface(page.Width, page.Height, w, h)
	surface.unit = unit
	surface.path = export.UnitFilename(b.Path, unit, b.target.SinglePage)
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
	defer surface.faces.close()
	if b.current == surface {
		b.current = nil
	}
	if err := b.write(surface.path, surface.img); err != nil {
		return err
	}
	b.written = append(b.written, surface.path)
	return nil
}

// Close drops any active surface. Files already written are kept.
func (b *Backend) Close(commit bool) error {
	_ = commit
	if b.current != nil {
		b.current.faces.close()
	}
	b.current = nil
	return nil
}

// Written lists the files produced so far.
func (b *Backend) Written() []string {
	return append([]string(nil), b.written...)
}

func (b *Backend) write(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := b.Encoder.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

var _ export.Backend = (*Backend)(nil)
