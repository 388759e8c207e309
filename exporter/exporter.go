// Package exporter wires the export backends into a runner and exposes the
// two entry points used by command line tools: ExportImage and ExportPDF.
package exporter

import (
	"context"
	"strings"

	exportpdf "github.com/goliatone/go-page-export/adapters/pdf"
	"github.com/goliatone/go-page-export/adapters/raster"
	"github.com/goliatone/go-page-export/adapters/svg"
	"github.com/goliatone/go-page-export/document"
	"github.com/goliatone/go-page-export/export"
)

// ImageOptions configures an image export. Quality parameters are ignored for
// SVG output.
type ImageOptions struct {
	Name       string
	PageRange  string
	LayerRange string
	DPI        int
	Width      int
	Height     int
	// Background is "all", "unruled" or "none"; empty means all.
	Background  string
	Progressive bool
	Progress    export.ProgressSink
}

// PDFOptions configures a PDF export.
type PDFOptions struct {
	Name       string
	PageRange  string
	LayerRange string
	// Background is "all", "unruled" or "none"; empty means all.
	Background  string
	Progressive bool
	Progress    export.ProgressSink
}

// Exporter runs document exports through a Runner.
type Exporter struct {
	Runner *export.Runner
	Logger export.Logger
}

// Option customizes an Exporter.
type Option func(*Exporter)

// WithLogger sets the logger for the exporter and its runner.
func WithLogger(logger export.Logger) Option {
	return func(e *Exporter) {
		e.Logger = logger
	}
}

// WithTracker records runs with tracker.
func WithTracker(tracker export.RunTracker) Option {
	return func(e *Exporter) {
		e.Runner.Tracker = tracker
	}
}

// WithRunner replaces the default runner.
func WithRunner(runner *export.Runner) Option {
	return func(e *Exporter) {
		e.Runner = runner
	}
}

// New creates an exporter with the png, svg and pdf backends registered.
func New(opts ...Option) (*Exporter, error) {
	runner, err := NewRunner()
	if err != nil {
		return nil, err
	}
	e := &Exporter{Runner: runner, Logger: export.NopLogger{}}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	if e.Logger == nil {
		e.Logger = export.NopLogger{}
	}
	e.Runner.Logger = e.Logger
	return e, nil
}

// NewRunner creates a runner with every built-in backend registered.
func NewRunner() (*export.Runner, error) {
	runner := export.NewRunner()
	if err := Register(runner.Backends); err != nil {
		return nil, err
	}
	return runner, nil
}

// Register adds the built-in backends to a registry.
func Register(registry *export.BackendRegistry) error {
	factories := map[export.Format]export.BackendFactory{
		export.FormatPNG: raster.Factory,
		export.FormatSVG: svg.Factory,
		export.FormatPDF: exportpdf.Factory,
	}
	for _, format := range []export.Format{export.FormatPNG, export.FormatSVG, export.FormatPDF} {
		if err := registry.Register(format, factories[format]); err != nil {
			return err
		}
	}
	return nil
}

// ExportImage writes the document as images. The format follows the output
// extension: ".svg" exports SVG, anything else PNG. A non-fatal background
// warning is logged and returned on the result.
func (e *Exporter) ExportImage(ctx context.Context, doc document.Document, output string, opts ImageOptions) (export.RunResult, error) {
	background, err := export.ParseBackgroundPolicy(opts.Background)
	if err != nil {
		e.Logger.Errorf("Error exporting image: %s", err.Error())
		return export.RunResult{}, export.AsGoError(err)
	}
	job := export.Job{
		Name:        opts.Name,
		Document:    doc,
		Output:      output,
		Format:      export.ImageFormatFor(output),
		PageRange:   strings.TrimSpace(opts.PageRange),
		LayerRange:  strings.TrimSpace(opts.LayerRange),
		Background:  background,
		Progressive: opts.Progressive,
		Quality:     export.QualityFromParams(opts.DPI, opts.Width, opts.Height),
		Progress:    opts.Progress,
	}

	result, err := e.Runner.Run(ctx, job)
	if err != nil {
		e.Logger.Errorf("Error exporting image: %s", err.Error())
		return result, err
	}
	if result.Warning != "" {
		e.Logger.Errorf("Error exporting image: %s", result.Warning)
	}
	e.Logger.Infof("Image file successfully created")
	return result, nil
}

// ExportPDF writes the document as a single PDF.
func (e *Exporter) ExportPDF(ctx context.Context, doc document.Document, output string, opts PDFOptions) (export.RunResult, error) {
	background, err := export.ParseBackgroundPolicy(opts.Background)
	if err != nil {
		e.Logger.Errorf("Error exporting PDF: %s", err.Error())
		return export.RunResult{}, export.AsGoError(err)
	}
	job := export.Job{
		Name:        opts.Name,
		Document:    doc,
		Output:      output,
		Format:      export.FormatPDF,
		PageRange:   strings.TrimSpace(opts.PageRange),
		LayerRange:  strings.TrimSpace(opts.LayerRange),
		Background:  background,
		Progressive: opts.Progressive,
		Progress:    opts.Progress,
	}

	result, err := e.Runner.Run(ctx, job)
	if err != nil {
		e.Logger.Errorf("Error exporting PDF: %s", err.Error())
		return result, err
	}
	if result.Warning != "" {
		e.Logger.Infof("PDF export warning: %s", result.Warning)
	}
	e.Logger.Infof("PDF file successfully created")
	return result, nil
}
