package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Runner resolves a backend for a job, runs the export pipeline and records
// the run with an optional tracker.
type Runner struct {
	Backends    *BackendRegistry
	Tracker     RunTracker
	Logger      Logger
	Now         func() time.Time
	IDGenerator func() string
}

// NewRunner creates a runner with an empty backend registry.
func NewRunner() *Runner {
	return &Runner{
		Backends:    NewBackendRegistry(),
		Logger:      NopLogger{},
		Now:         time.Now,
		IDGenerator: uuid.NewString,
	}
}

// Run executes an export job.
func (r *Runner) Run(ctx context.Context, job Job) (RunResult, error) {
	if r == nil {
		return RunResult{}, AsGoError(NewError(KindInternal, "runner is nil", nil))
	}
	if r.Backends == nil {
		return RunResult{}, AsGoError(NewError(KindInternal, "runner backends are not configured", nil))
	}
	if r.Now == nil {
		r.Now = time.Now
	}
	if r.Logger == nil {
		r.Logger = NopLogger{}
	}
	if r.IDGenerator == nil {
		r.IDGenerator = uuid.NewString
	}

	if job.Document == nil {
		return RunResult{}, AsGoError(NewError(KindValidation, "document is required", nil))
	}
	if job.Output == "" {
		return RunResult{}, AsGoError(NewError(KindValidation, "output path is required", nil))
	}
	job.Format = NormalizeFormat(job.Format)
	if job.Quality.Value <= 0 {
		job.Quality = DefaultQuality()
	}

	factory, ok := r.Backends.Resolve(job.Format)
	if !ok {
		return RunResult{}, AsGoError(NewError(KindNotFound, fmt.Sprintf("backend %q not registered", job.Format), nil))
	}
	backend, err := factory(job)
	if err != nil {
		return RunResult{}, AsGoError(NewError(KindValidation, "create backend", err))
	}

	startedAt := r.Now()
	runID := r.IDGenerator()
	if r.Tracker != nil {
		id, err := r.Tracker.Start(ctx, RunRecord{
			ID:          runID,
			Name:        job.Name,
			Format:      job.Format,
			Output:      job.Output,
			State:       StateQueued,
			Background:  job.Background,
			PageRange:   job.PageRange,
			LayerRange:  job.LayerRange,
			Progressive: job.Progressive,
			CreatedAt:   startedAt,
		})
		if err != nil {
			return RunResult{}, AsGoError(err)
		}
		if id != "" {
			runID = id
		}
		if err := r.Tracker.SetState(ctx, runID, StateRunning); err != nil {
			r.Logger.Errorf("export %s: set running: %v", runID, err)
		}
	}

	pipeline := NewPipeline(job.Document, backend).
		SetBackground(job.Background).
		SetPageRange(PageRange(job.PageRange, job.Document.PageCount())).
		SetLayerRange(LayerRange(job.LayerRange)).
		SetProgressive(job.Progressive).
		SetLogger(r.Logger).
		SetProgress(&trackingProgress{
			ctx:     ctx,
			base:    job.Progress,
			tracker: r.Tracker,
			id:      runID,
			logger:  r.Logger,
		})

	r.Logger.Infof("export %s started: %s -> %s", runID, job.Format, job.Output)
	result := RunResult{
		ID:     runID,
		Format: job.Format,
		Output: job.Output,
	}

	if err := pipeline.Export(ctx); err != nil {
		result.State = r.fail(ctx, runID, err)
		result.Units = pipeline.Units()
		result.Duration = r.Now().Sub(startedAt)
		return result, AsGoError(err)
	}

	result.State = StateCompleted
	result.Units = pipeline.Units()
	result.Warning = pipeline.LastErrorMessage()
	result.Duration = r.Now().Sub(startedAt)

	if r.Tracker != nil {
		if err := r.Tracker.Complete(ctx, runID, result.Warning); err != nil {
			r.Logger.Errorf("export %s: complete: %v", runID, err)
		}
	}
	r.Logger.Infof("export %s completed: %d units in %s", runID, result.Units, result.Duration)
	return result, nil
}

func (r *Runner) fail(ctx context.Context, runID string, err error) ExportState {
	state := StateFailed
	if errors.Is(err, context.Canceled) {
		state = StateCanceled
	}
	r.Logger.Errorf("export %s %s: %v", runID, state, err)
	if r.Tracker == nil {
		return state
	}

	// The run context may already be done; record the outcome regardless.
	trackCtx := context.WithoutCancel(ctx)
	var trackErr error
	if state == StateCanceled {
		trackErr = r.Tracker.SetState(trackCtx, runID, StateCanceled)
	} else {
		trackErr = r.Tracker.Fail(trackCtx, runID, err)
	}
	if trackErr != nil {
		r.Logger.Errorf("export %s: record %s: %v", runID, state, trackErr)
	}
	return state
}

// NopLogger is a no-op logger.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any) {}
func (NopLogger) Infof(string, ...any)  {}
func (NopLogger) Errorf(string, ...any) {}

type trackingProgress struct {
	ctx     context.Context
	base    ProgressSink
	tracker RunTracker
	id      string
	logger  Logger
}

func (p *trackingProgress) SetMaximumUnits(total int) {
	if p.base != nil {
		p.base.SetMaximumUnits(total)
	}
	if p.tracker == nil {
		return
	}
	if err := p.tracker.SetTotal(p.ctx, p.id, int64(total)); err != nil {
		p.logger.Errorf("export %s: set total: %v", p.id, err)
	}
}

func (p *trackingProgress) SetCurrentUnit(index int) {
	if p.base != nil {
		p.base.SetCurrentUnit(index)
	}
	if p.tracker == nil {
		return
	}
	if err := p.tracker.Advance(p.ctx, p.id, ProgressDelta{Units: 1}); err != nil {
		p.logger.Errorf("export %s: advance: %v", p.id, err)
	}
}
