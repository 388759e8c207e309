package export

import (
	"context"

	"github.com/goliatone/go-page-export/canvas"
	"github.com/goliatone/go-page-export/document"
)

// Unit identifies one rendered output: a page, or in progressive mode a page
// with layers 0..Layer revealed.
type Unit struct {
	// Index is the 0-based position of the unit in export order.
	Index       int
	Page        int
	Layer       int
	Progressive bool
}

// Target describes an export run to a backend before the first unit.
type Target struct {
	Document document.Document
	Units    int
	// SinglePage is set when exactly one page is exported outside
	// progressive mode, so per-file backends can skip numbering.
	SinglePage bool
}

// Backend produces output units on drawing surfaces. A backend holds at most
// one surface between Begin and End.
type Backend interface {
	Open(ctx context.Context, target Target) error
	Begin(page *document.Page, unit Unit) (Surface, error)
	End(surface Surface) error
	// Close finishes the output. When commit is false the run failed and
	// partial output should be discarded.
	Close(commit bool) error
}

// Surface is a page sized canvas that can also draw embedded source pages
// using the backend's preferred rendering path.
type Surface interface {
	canvas.Canvas
	RenderSource(src document.SourcePage) error
}

// ProgressSink receives unit progress. Calls are synchronous and must not
// block.
type ProgressSink interface {
	SetMaximumUnits(total int)
	SetCurrentUnit(index int)
}

// NopProgress discards progress.
type NopProgress struct{}

func (NopProgress) SetMaximumUnits(int) {}
func (NopProgress) SetCurrentUnit(int)  {}
