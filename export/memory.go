package export

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryTracker stores run progress in memory (test/dev only).
type MemoryTracker struct {
	mu      sync.RWMutex
	records map[string]RunRecord
	counter uint64
}

// NewMemoryTracker creates an in-memory tracker.
func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{records: make(map[string]RunRecord)}
}

// Start creates a new record.
func (t *MemoryTracker) Start(ctx context.Context, record RunRecord) (string, error) {
	_ = ctx
	if record.ID == "" {
		record.ID = t.nextID()
	}
	if record.State == "" {
		record.State = StateQueued
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	t.mu.Lock()
	t.records[record.ID] = record
	t.mu.Unlock()
	return record.ID, nil
}

// SetTotal records the planned unit count.
func (t *MemoryTracker) SetTotal(ctx context.Context, id string, total int64) error {
	_ = ctx
	return t.update(id, func(record *RunRecord) {
		record.Counts.Total = total
	})
}

// Advance updates counts.
func (t *MemoryTracker) Advance(ctx context.Context, id string, delta ProgressDelta) error {
	_ = ctx
	return t.update(id, func(record *RunRecord) {
		record.Counts.Processed += delta.Units
	})
}

// SetState updates the record state.
func (t *MemoryTracker) SetState(ctx context.Context, id string, state ExportState) error {
	_ = ctx
	return t.update(id, func(record *RunRecord) {
		record.State = state
		if state == StateRunning && record.StartedAt.IsZero() {
			record.StartedAt = time.Now()
		}
		if state.Terminal() && record.CompletedAt.IsZero() {
			record.CompletedAt = time.Now()
		}
	})
}

// Fail records failure state.
func (t *MemoryTracker) Fail(ctx context.Context, id string, err error) error {
	_ = ctx
	return t.update(id, func(record *RunRecord) {
		record.State = StateFailed
		record.CompletedAt = time.Now()
		if err != nil {
			record.LastError = err.Error()
		}
	})
}

// Complete marks the run as completed.
func (t *MemoryTracker) Complete(ctx context.Context, id string, warning string) error {
	_ = ctx
	return t.update(id, func(record *RunRecord) {
		record.State = StateCompleted
		record.CompletedAt = time.Now()
		record.LastError = warning
	})
}

// Status returns a record by ID.
func (t *MemoryTracker) Status(ctx context.Context, id string) (RunRecord, error) {
	_ = ctx
	t.mu.RLock()
	record, ok := t.records[id]
	t.mu.RUnlock()
	if !ok {
		return RunRecord{}, NewError(KindNotFound, fmt.Sprintf("export %q not found", id), nil)
	}
	return record, nil
}

// List returns records matching a filter, newest first.
func (t *MemoryTracker) List(ctx context.Context, filter ProgressFilter) ([]RunRecord, error) {
	_ = ctx
	result := []RunRecord{}

	t.mu.RLock()
	for _, record := range t.records {
		if filter.Name != "" && record.Name != filter.Name {
			continue
		}
		if filter.State != "" && record.State != filter.State {
			continue
		}
		if !filter.Since.IsZero() && record.CreatedAt.Before(filter.Since) {
			continue
		}
		if !filter.Until.IsZero() && record.CreatedAt.After(filter.Until) {
			continue
		}
		result = append(result, record)
	}
	t.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (t *MemoryTracker) update(id string, fn func(record *RunRecord)) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	record, ok := t.records[id]
	if !ok {
		return NewError(KindNotFound, fmt.Sprintf("export %q not found", id), nil)
	}
	fn(&record)
	t.records[id] = record
	return nil
}

func (t *MemoryTracker) nextID() string {
	id := atomic.AddUint64(&t.counter, 1)
	return fmt.Sprintf("exp-%d", id)
}

var _ RunTracker = (*MemoryTracker)(nil)
