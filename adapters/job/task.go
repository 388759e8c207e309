package exportjob

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/goliatone/go-command/dispatcher"
	errorslib "github.com/goliatone/go-errors"
	job "github.com/goliatone/go-job"

	"github.com/goliatone/go-page-export/command"
	"github.com/goliatone/go-page-export/export"
)

const (
	DefaultExportTaskID   = "export:file"
	DefaultExportTaskPath = "export:file"
)

// Payload captures the job execution input.
type Payload struct {
	Request command.BatchRequest `json:"request"`
}

// ExportDispatch runs one file export.
type ExportDispatch func(ctx context.Context, msg command.ExportFile) error

// TaskConfig configures the export task.
type TaskConfig struct {
	ID             string
	Path           string
	Config         job.Config
	HandlerOptions job.HandlerOptions
	RetryPolicy    RetryPolicy
	Logger         export.Logger
	// Dispatch defaults to the go-command dispatcher, so an
	// ExportFileHandler must be subscribed.
	Dispatch ExportDispatch
	// Pending feeds GetHandler on non-queue execution paths.
	Pending func(ctx context.Context) (command.BatchRequest, bool, error)
}

// ExportTask executes queued file exports.
type ExportTask struct {
	id             string
	path           string
	config         job.Config
	handlerOptions job.HandlerOptions
	retryPolicy    RetryPolicy
	logger         export.Logger
	dispatch       ExportDispatch
	pending        func(ctx context.Context) (command.BatchRequest, bool, error)
}

// NewExportTask creates an export task.
func NewExportTask(cfg TaskConfig) *ExportTask {
	logger := cfg.Logger
	if logger == nil {
		logger = export.NopLogger{}
	}
	id := cfg.ID
	if id == "" {
		id = DefaultExportTaskID
	}
	path := cfg.Path
	if path == "" {
		path = DefaultExportTaskPath
	}
	dispatch := cfg.Dispatch
	if dispatch == nil {
		dispatch = func(ctx context.Context, msg command.ExportFile) error {
			return dispatcher.Dispatch(ctx, msg)
		}
	}
	return &ExportTask{
		id:             id,
		path:           path,
		config:         cfg.Config,
		handlerOptions: cfg.HandlerOptions,
		retryPolicy:    cfg.RetryPolicy,
		logger:         logger,
		dispatch:       dispatch,
		pending:        cfg.Pending,
	}
}

func (t *ExportTask) GetID() string { return t.id }

// GetHandler returns a handler for scheduled, non-queue runs. It exports the
// next pending request, if any.
func (t *ExportTask) GetHandler() func() error {
	return func() error {
		if t == nil {
			return export.NewError(export.KindInternal, "task is nil", nil)
		}
		if t.pending == nil {
			return export.NewError(export.KindNotImpl, "pending request source not configured", nil)
		}
		ctx := context.Background()
		req, ok, err := t.pending(ctx)
		if err != nil || !ok {
			return err
		}
		encoded, err := encodePayload(Payload{Request: req})
		if err != nil {
			return err
		}
		return t.Execute(ctx, &job.ExecutionMessage{
			JobID:      t.id,
			ScriptPath: t.path,
			Parameters: map[string]any{"payload": encoded},
		})
	}
}

func (t *ExportTask) GetHandlerConfig() job.HandlerOptions { return t.handlerOptions }

func (t *ExportTask) GetConfig() job.Config { return t.config }

func (t *ExportTask) GetPath() string { return t.path }

// GetEngine returns nil because the task is code-driven.
func (t *ExportTask) GetEngine() job.Engine { return nil }

// Execute runs the export carried by msg, retrying per the task policy.
func (t *ExportTask) Execute(ctx context.Context, msg *job.ExecutionMessage) error {
	if t == nil {
		return export.NewError(export.KindInternal, "task is nil", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	payload, err := decodePayload(msg)
	if err != nil {
		return err
	}
	cmd := command.ExportFile{Request: payload.Request}
	if err := cmd.Validate(); err != nil {
		return err
	}

	policy := t.retryPolicy
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		var result export.RunResult
		cmd.Result = &result
		err := t.dispatch(ctx, cmd)
		if err == nil {
			t.logger.Infof("export %s finished: %s, %d units", result.ID, result.State, result.Units)
			return nil
		}
		if !policy.shouldRetry(err) || attempt >= policy.MaxRetries {
			t.logger.Errorf("export %s failed: %v", payload.Request.Input, err)
			return err
		}
		if serr := sleepWithContext(ctx, policy.backoffDelay(attempt+1)); serr != nil {
			return serr
		}
	}
}

func encodePayload(payload Payload) (json.RawMessage, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, export.NewError(export.KindValidation, "payload is not serializable", err)
	}
	return json.RawMessage(raw), nil
}

func decodePayload(msg *job.ExecutionMessage) (Payload, error) {
	if msg == nil || msg.Parameters == nil {
		return Payload{}, export.NewError(export.KindValidation, "job payload is required", nil)
	}
	raw, ok := msg.Parameters["payload"]
	if !ok {
		return Payload{}, export.NewError(export.KindValidation, "job payload missing", nil)
	}

	var data []byte
	switch value := raw.(type) {
	case Payload:
		return value, nil
	case json.RawMessage:
		data = value
	case []byte:
		data = value
	case string:
		data = []byte(value)
	default:
		// queues that round-trip parameters through JSON hand back maps
		encoded, err := json.Marshal(value)
		if err != nil {
			return Payload{}, export.NewError(export.KindValidation, "job payload is invalid", err)
		}
		data = encoded
	}
	if len(data) == 0 {
		return Payload{}, export.NewError(export.KindValidation, "job payload is empty", nil)
	}
	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Payload{}, export.NewError(export.KindValidation, "job payload is invalid", err)
	}
	return payload, nil
}

// RetryPolicy determines retry behavior for retryable errors.
type RetryPolicy struct {
	MaxRetries int
	Backoff    job.BackoffConfig
	Retryable  func(error) bool
}

func (p RetryPolicy) shouldRetry(err error) bool {
	if err == nil || p.MaxRetries <= 0 || errors.Is(err, context.Canceled) {
		return false
	}
	if p.Retryable != nil {
		return p.Retryable(err)
	}
	return errors.Is(err, context.DeadlineExceeded) || errorslib.IsRetryableError(err)
}

func (p RetryPolicy) backoffDelay(attempt int) time.Duration {
	interval := p.Backoff.Interval
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	maxInterval := p.Backoff.MaxInterval
	if maxInterval <= 0 {
		maxInterval = 5 * time.Second
	}

	switch p.Backoff.Strategy {
	case job.BackoffFixed:
		return interval
	case job.BackoffExponential:
		delay := interval
		for i := 1; i < attempt && delay < maxInterval; i++ {
			delay *= 2
		}
		return min(delay, maxInterval)
	default:
		return 0
	}
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
