package export

import (
	"context"
	"fmt"
)

// Service coordinates export runs and their history.
type Service interface {
	Export(ctx context.Context, job Job) (RunResult, error)
	Status(ctx context.Context, exportID string) (RunRecord, error)
	History(ctx context.Context, filter ProgressFilter) ([]RunRecord, error)
}

// ServiceConfig supplies dependencies for Service.
type ServiceConfig struct {
	Runner  *Runner
	Tracker RunTracker
}

type service struct {
	runner  *Runner
	tracker RunTracker
}

// NewService creates a Service with the provided configuration. Without a
// tracker, runs are kept in a MemoryTracker.
func NewService(cfg ServiceConfig) Service {
	runner := cfg.Runner
	if runner == nil {
		runner = NewRunner()
	}

	tracker := cfg.Tracker
	if tracker == nil {
		tracker = runner.Tracker
	}
	if tracker == nil {
		tracker = NewMemoryTracker()
	}
	if runner.Tracker == nil {
		runner.Tracker = tracker
	}

	return &service{runner: runner, tracker: tracker}
}

func (s *service) Export(ctx context.Context, job Job) (RunResult, error) {
	if s == nil {
		return RunResult{}, AsGoError(NewError(KindInternal, "service is nil", nil))
	}
	return s.runner.Run(ctx, job)
}

func (s *service) Status(ctx context.Context, exportID string) (RunRecord, error) {
	if s == nil {
		return RunRecord{}, AsGoError(NewError(KindInternal, "service is nil", nil))
	}
	if exportID == "" {
		return RunRecord{}, AsGoError(NewError(KindValidation, "export ID is required", nil))
	}
	record, err := s.tracker.Status(ctx, exportID)
	if err != nil {
		return RunRecord{}, AsGoError(err)
	}
	return record, nil
}

func (s *service) History(ctx context.Context, filter ProgressFilter) ([]RunRecord, error) {
	if s == nil {
		return nil, AsGoError(NewError(KindInternal, "service is nil", nil))
	}
	if !filter.Since.IsZero() && !filter.Until.IsZero() && filter.Until.Before(filter.Since) {
		return nil, AsGoError(NewError(KindValidation, fmt.Sprintf("invalid window: %s before %s", filter.Until, filter.Since), nil))
	}
	records, err := s.tracker.List(ctx, filter)
	if err != nil {
		return nil, AsGoError(err)
	}
	return records, nil
}
