package export

import (
	"context"
	"time"

	"github.com/goliatone/go-page-export/document"
)

// Logger is a minimal logging interface.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}

// ExportState captures pipeline and run states.
type ExportState string

const (
	StateConfigured ExportState = "configured"
	StateQueued     ExportState = "queued"
	StateRunning    ExportState = "running"
	StateCompleted  ExportState = "completed"
	StateFailed     ExportState = "failed"
	StateCanceled   ExportState = "canceled"
)

// Terminal reports whether no further transitions are possible.
func (s ExportState) Terminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateCanceled:
		return true
	}
	return false
}

// Job describes one export of a document to an output path.
type Job struct {
	// Name labels the run in trackers, typically the source file name.
	Name        string
	Document    document.Document
	Output      string
	Format      Format
	PageRange   string
	LayerRange  string
	Background  BackgroundPolicy
	Progressive bool
	Quality     Quality
	Progress    ProgressSink
}

// RunResult summarizes a finished run.
type RunResult struct {
	ID       string
	State    ExportState
	Format   Format
	Output   string
	Units    int
	Warning  string
	Duration time.Duration
}

// UnitCounts tracks unit progress.
type UnitCounts struct {
	Processed int64
	Total     int64
}

// RunRecord captures tracker state for an export run.
type RunRecord struct {
	ID          string
	Name        string
	Format      Format
	Output      string
	State       ExportState
	Background  BackgroundPolicy
	PageRange   string
	LayerRange  string
	Progressive bool
	Counts      UnitCounts
	LastError   string
	CreatedAt   time.Time
	StartedAt   time.Time
	CompletedAt time.Time
}

// ProgressDelta captures incremental progress updates.
type ProgressDelta struct {
	Units int64
}

// ProgressFilter filters run history.
type ProgressFilter struct {
	Name  string
	State ExportState
	Since time.Time
	Until time.Time
}

// RunTracker persists run progress.
type RunTracker interface {
	Start(ctx context.Context, record RunRecord) (string, error)
	SetTotal(ctx context.Context, id string, total int64) error
	Advance(ctx context.Context, id string, delta ProgressDelta) error
	SetState(ctx context.Context, id string, state ExportState) error
	Fail(ctx context.Context, id string, err error) error
	Complete(ctx context.Context, id string, warning string) error
	Status(ctx context.Context, id string) (RunRecord, error)
	List(ctx context.Context, filter ProgressFilter) ([]RunRecord, error)
}
