package export

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-page-export/document"
	"github.com/goliatone/go-page-export/view"
)

// Pipeline exports the selected pages of a document through a Backend.
//
// A pipeline runs once: Configured -> Running -> Completed or Failed. The
// first failing unit stops the export; later units are never attempted.
type Pipeline struct {
	doc         document.Document
	backend     Backend
	policy      BackgroundPolicy
	pages       Ranges
	layers      Ranges
	progressive bool
	progress    ProgressSink
	logger      Logger

	state    ExportState
	lastErr  string
	err      error
	warnings []error
	units    int
}

// NewPipeline creates a pipeline exporting the whole document with all
// background decoration.
func NewPipeline(doc document.Document, backend Backend) *Pipeline {
	return &Pipeline{
		doc:      doc,
		backend:  backend,
		policy:   BackgroundAll,
		progress: NopProgress{},
		logger:   NopLogger{},
		state:    StateConfigured,
	}
}

// SetBackground sets the background policy.
func (p *Pipeline) SetBackground(policy BackgroundPolicy) *Pipeline {
	p.policy = policy
	return p
}

// SetPageRange restricts the exported pages. Nil exports every page.
func (p *Pipeline) SetPageRange(pages Ranges) *Pipeline {
	p.pages = pages
	return p
}

// SetLayerRange restricts the drawn layers. Nil draws every visible layer.
func (p *Pipeline) SetLayerRange(layers Ranges) *Pipeline {
	p.layers = layers
	return p
}

// SetProgressive emits one unit per layer with cumulative visibility.
func (p *Pipeline) SetProgressive(progressive bool) *Pipeline {
	p.progressive = progressive
	return p
}

// SetProgress attaches a progress sink.
func (p *Pipeline) SetProgress(sink ProgressSink) *Pipeline {
	if sink == nil {
		sink = NopProgress{}
	}
	p.progress = sink
	return p
}

// SetLogger attaches a logger.
func (p *Pipeline) SetLogger(logger Logger) *Pipeline {
	if logger == nil {
		logger = NopLogger{}
	}
	p.logger = logger
	return p
}

// State returns the pipeline state.
func (p *Pipeline) State() ExportState {
	return p.state
}

// LastErrorMessage returns the failure message after a failed export. After a
// completed export it holds the last non-fatal background warning, if any.
func (p *Pipeline) LastErrorMessage() string {
	return p.lastErr
}

// Err returns the error that failed the export.
func (p *Pipeline) Err() error {
	return p.err
}

// Warnings returns the non-fatal errors recorded during the export.
func (p *Pipeline) Warnings() []error {
	return append([]error(nil), p.warnings...)
}

// Units returns the number of units the export planned.
func (p *Pipeline) Units() int {
	return p.units
}

// Export runs the pipeline.
func (p *Pipeline) Export(ctx context.Context) error {
	if p == nil {
		return NewError(KindInternal, "pipeline is nil", nil)
	}
	if p.state != StateConfigured {
		return NewError(KindValidation, fmt.Sprintf("pipeline already %s", p.state), nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if p.doc == nil {
		return p.fail(NewError(KindValidation, "document is required", nil))
	}
	if p.backend == nil {
		return p.fail(NewError(KindValidation, "backend is required", nil))
	}

	pageCount := p.doc.PageCount()
	pages := PageRange("", pageCount)
	if p.pages != nil {
		pages = p.pages.Clamp(pageCount)
	}
	if len(pages) == 0 {
		return p.fail(NewError(KindValidation, "no pages selected for export", nil))
	}

	p.state = StateRunning

	total, err := p.countUnits(pages)
	if err != nil {
		return p.fail(err)
	}
	p.units = total
	p.progress.SetMaximumUnits(total)

	target := Target{
		Document:   p.doc,
		Units:      total,
		SinglePage: !p.progressive && len(pages) == 1 && pages[0].First == pages[0].Last,
	}
	if err := p.backend.Open(ctx, target); err != nil {
		return p.fail(NewError(KindRender, "open output", err))
	}

	if err := p.run(ctx, pages); err != nil {
		if closeErr := p.backend.Close(false); closeErr != nil {
			p.logger.Errorf("discard output: %v", closeErr)
		}
		return p.fail(err)
	}
	if err := p.backend.Close(true); err != nil {
		return p.fail(NewError(KindRender, "close output", err))
	}

	p.state = StateCompleted
	p.logger.Debugf("export completed: %d units", total)
	return nil
}

func (p *Pipeline) countUnits(pages Ranges) (int, error) {
	if !p.progressive {
		return pages.Count(), nil
	}
	total := 0
	for _, r := range pages {
		for idx := r.First; idx <= r.Last; idx++ {
			page, err := p.doc.Page(idx)
			if err != nil {
				return 0, NewError(KindNotFound, fmt.Sprintf("page %d", idx), err)
			}
			total += len(page.Layers)
		}
	}
	return total, nil
}

func (p *Pipeline) run(ctx context.Context, pages Ranges) error {
	next := 0
	for _, r := range pages {
		for idx := r.First; idx <= r.Last; idx++ {
			page, err := p.doc.Page(idx)
			if err != nil {
				return NewError(KindNotFound, fmt.Sprintf("page %d", idx), err)
			}
			if p.progressive {
				if err := p.exportLayers(ctx, page, idx, &next); err != nil {
					return err
				}
				continue
			}
			if err := p.exportUnit(ctx, page, Unit{Index: next, Page: idx, Layer: -1}); err != nil {
				return err
			}
			p.progress.SetCurrentUnit(next)
			next++
		}
	}
	return nil
}

func (p *Pipeline) exportLayers(ctx context.Context, page *document.Page, index int, next *int) error {
	scope := HideLayers(page)
	defer scope.Restore()

	for layer := range page.Layers {
		scope.Reveal(layer)
		unit := Unit{Index: *next, Page: index, Layer: layer, Progressive: true}
		if err := p.exportUnit(ctx, page, unit); err != nil {
			return err
		}
		p.progress.SetCurrentUnit(*next)
		*next++
	}
	return nil
}

func (p *Pipeline) exportUnit(ctx context.Context, page *document.Page, unit Unit) error {
	if err := ctx.Err(); err != nil {
		return NewError(KindCanceled, "export canceled", err)
	}

	p.logger.Debugf("export unit %d: page %d layer %d", unit.Index, unit.Page, unit.Layer)
	surface, err := p.backend.Begin(page, unit)
	if err != nil {
		return NewError(KindRender, fmt.Sprintf("begin unit %d", unit.Index), err)
	}
	if err := p.renderBackground(page, surface); err != nil {
		return err
	}
	if err := p.renderContent(page, surface); err != nil {
		return NewError(KindRender, fmt.Sprintf("render page %d", unit.Page), err)
	}
	if err := p.backend.End(surface); err != nil {
		return NewError(KindRender, fmt.Sprintf("end unit %d", unit.Index), err)
	}
	return nil
}

func (p *Pipeline) renderBackground(page *document.Page, surface Surface) error {
	bg := page.Background
	if !bg.IsPDF() || p.policy == BackgroundNone {
		return nil
	}

	src, ok := p.doc.BackgroundPage(bg.PDFPage)
	if !ok {
		p.warn(fmt.Sprintf("cannot find the pdf page number: %d", bg.PDFPage), nil)
		return nil
	}
	if err := surface.RenderSource(src); err != nil {
		if errors.Is(err, document.ErrRenderUnsupported) {
			p.warn(fmt.Sprintf("cannot render the pdf page number: %d", bg.PDFPage), err)
			return nil
		}
		return NewError(KindRender, fmt.Sprintf("render pdf page %d", bg.PDFPage), err)
	}
	return nil
}

func (p *Pipeline) renderContent(page *document.Page, surface Surface) error {
	flags := view.Flags{
		SkipErasable:      true,
		SkipPDFBackground: true,
		Transparent:       p.policy.Transparent(),
		NoRuling:          p.policy.SuppressRuling(),
	}
	if p.layers != nil {
		return view.DrawLayers(surface, page, p.layers.Indices(len(page.Layers)), flags)
	}
	return view.DrawPage(surface, page, flags)
}

// warn records a background warning. LastErrorMessage keeps the bare message;
// the cause stays on the error in Warnings.
func (p *Pipeline) warn(msg string, cause error) {
	err := NewError(KindBackground, msg, cause)
	p.warnings = append(p.warnings, err)
	p.lastErr = msg
	p.logger.Infof("export warning: %v", err)
}

func (p *Pipeline) fail(err error) error {
	p.state = StateFailed
	p.err = err
	p.lastErr = err.Error()
	p.logger.Errorf("export failed: %v", err)
	return err
}
