// Package exportjob runs file exports as go-job tasks so notebooks are
// exported off the calling goroutine.
package exportjob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/goliatone/go-page-export/command"
	"github.com/goliatone/go-page-export/export"
	job "github.com/goliatone/go-job"
)

// Enqueuer delivers execution messages to go-job.
type Enqueuer interface {
	Enqueue(ctx context.Context, msg *job.ExecutionMessage) error
}

// EnqueuerFunc adapts a function to an Enqueuer.
type EnqueuerFunc func(ctx context.Context, msg *job.ExecutionMessage) error

func (f EnqueuerFunc) Enqueue(ctx context.Context, msg *job.ExecutionMessage) error {
	if f == nil {
		return export.NewError(export.KindInternal, "enqueuer is nil", nil)
	}
	return f(ctx, msg)
}

// Config configures the export scheduler.
type Config struct {
	Enqueuer Enqueuer
	TaskID   string
	TaskPath string
	// Dedup merges identical requests that are still queued.
	Dedup  bool
	Logger export.Logger
}

// Scheduler turns export requests into go-job execution messages.
type Scheduler struct {
	enqueuer Enqueuer
	taskID   string
	taskPath string
	dedup    bool
	logger   export.Logger
}

// NewScheduler creates a scheduler.
func NewScheduler(cfg Config) *Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = export.NopLogger{}
	}
	taskID := cfg.TaskID
	if taskID == "" {
		taskID = DefaultExportTaskID
	}
	taskPath := cfg.TaskPath
	if taskPath == "" {
		taskPath = DefaultExportTaskPath
	}
	return &Scheduler{
		enqueuer: cfg.Enqueuer,
		taskID:   taskID,
		taskPath: taskPath,
		dedup:    cfg.Dedup,
		logger:   logger,
	}
}

// Enqueue validates a request and hands it to the job queue.
func (s *Scheduler) Enqueue(ctx context.Context, req command.BatchRequest) error {
	if s == nil {
		return export.AsGoError(export.NewError(export.KindInternal, "scheduler is nil", nil))
	}
	if s.enqueuer == nil {
		return export.AsGoError(export.NewError(export.KindNotImpl, "job enqueuer not configured", nil))
	}
	if err := (command.ExportFile{Request: req}).Validate(); err != nil {
		return err
	}

	encoded, err := encodePayload(Payload{Request: req})
	if err != nil {
		return export.AsGoError(err)
	}
	msg := &job.ExecutionMessage{
		JobID:      s.taskID,
		ScriptPath: s.taskPath,
		Parameters: map[string]any{"payload": encoded},
	}
	if s.dedup {
		msg.IdempotencyKey = requestKey(encoded)
		msg.DedupPolicy = job.DedupPolicyMerge
	}

	if err := s.enqueuer.Enqueue(ctx, msg); err != nil {
		s.logger.Errorf("enqueue export %s: %v", req.Input, err)
		return export.AsGoError(export.NewError(export.KindInternal, "enqueue export", err))
	}
	s.logger.Debugf("queued export %s -> %s", req.Input, req.Output)
	return nil
}

// Execute queues a batch entry, so a BatchCommand can feed the job queue.
// The entry's Result stays empty because the run happens later.
func (s *Scheduler) Execute(ctx context.Context, msg command.ExportFile) error {
	return s.Enqueue(ctx, msg.Request)
}

func requestKey(encoded json.RawMessage) string {
	sum := sha256.Sum256(encoded)
	return "export:" + hex.EncodeToString(sum[:])
}

var _ command.BatchExecutor = (*Scheduler)(nil)
