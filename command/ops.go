package command

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	gcmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-errors"

	"github.com/goliatone/go-page-export/document"
	"github.com/goliatone/go-page-export/export"
)

// BatchRequest describes one file export in a batch manifest.
type BatchRequest struct {
	Input  string `json:"input"`
	Output string `json:"output"`
	// Format is png, svg or pdf. Empty picks pdf for ".pdf" outputs and
	// otherwise follows the image extension.
	Format      string `json:"format,omitempty"`
	PageRange   string `json:"range,omitempty"`
	LayerRange  string `json:"layers,omitempty"`
	Background  string `json:"background,omitempty"`
	Progressive bool   `json:"progressive,omitempty"`
	DPI         int    `json:"dpi,omitempty"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
}

// Job builds the export job for a loaded document.
func (r BatchRequest) Job(doc document.Document) (export.Job, error) {
	background, err := export.ParseBackgroundPolicy(r.Background)
	if err != nil {
		return export.Job{}, errors.Wrap(err, errors.CategoryValidation, "invalid background policy").
			WithTextCode("BACKGROUND_INVALID")
	}

	format := export.Format(r.Format)
	if strings.TrimSpace(r.Format) == "" {
		format = export.ImageFormatFor(r.Output)
		if strings.EqualFold(filepath.Ext(r.Output), ".pdf") {
			format = export.FormatPDF
		}
	}

	return export.Job{
		Name:        filepath.Base(r.Input),
		Document:    doc,
		Output:      r.Output,
		Format:      export.NormalizeFormat(format),
		PageRange:   r.PageRange,
		LayerRange:  r.LayerRange,
		Background:  background,
		Progressive: r.Progressive,
		Quality:     export.QualityFromParams(r.DPI, r.Width, r.Height),
	}, nil
}

// BatchLoader loads batch requests from a source.
type BatchLoader func(ctx context.Context) ([]BatchRequest, error)

// BatchExecutor runs one batch request.
type BatchExecutor interface {
	Execute(ctx context.Context, msg ExportFile) error
}

// BatchCommand wires CLI execution for batch exports.
type BatchCommand struct {
	executor  BatchExecutor
	loader    BatchLoader
	cliConfig gcmd.CLIConfig
	limits    BatchLimits
	sleep     func(time.Duration)
}

// BatchOption customizes batch commands.
type BatchOption func(*BatchCommand)

// BatchLimits bounds batch execution throughput.
type BatchLimits struct {
	MaxRequests int
	MinInterval time.Duration
}

// WithBatchCLIConfig overrides CLI configuration.
func WithBatchCLIConfig(cfg gcmd.CLIConfig) BatchOption {
	return func(cmd *BatchCommand) {
		cmd.cliConfig = cfg
	}
}

// WithBatchLimits overrides batch execution limits.
func WithBatchLimits(limits BatchLimits) BatchOption {
	return func(cmd *BatchCommand) {
		cmd.limits = limits
	}
}

// WithBatchLoader sets the default request source used without --from.
func WithBatchLoader(loader BatchLoader) BatchOption {
	return func(cmd *BatchCommand) {
		cmd.loader = loader
	}
}

// NewBatchExportCommand creates a batch export CLI command.
func NewBatchExportCommand(executor BatchExecutor, opts ...BatchOption) *BatchCommand {
	cmd := &BatchCommand{
		executor: executor,
		cliConfig: gcmd.CLIConfig{
			Path:        []string{"batch"},
			Description: "Export every document listed in a JSON manifest",
			Group:       "exports",
		},
		sleep: time.Sleep,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cmd)
		}
	}
	return cmd
}

// CLIHandler exposes the CLI handler.
func (c *BatchCommand) CLIHandler() any {
	return &batchCLI{cmd: c}
}

// CLIOptions returns CLI configuration.
func (c *BatchCommand) CLIOptions() gcmd.CLIConfig {
	if c == nil {
		return gcmd.CLIConfig{}
	}
	return c.cliConfig
}

// Run executes the batch, loading requests from a manifest path when given.
func (c *BatchCommand) Run(ctx context.Context, from string) ([]export.RunResult, error) {
	if c == nil {
		return nil, errors.New("batch command is nil", errors.CategoryInternal).
			WithTextCode("BATCH_CMD_NIL")
	}
	if c.executor == nil {
		return nil, errors.New("batch executor is required", errors.CategoryValidation).
			WithTextCode("EXECUTOR_REQUIRED")
	}

	requests, err := c.loadRequests(ctx, from)
	if err != nil {
		return nil, err
	}

	results := make([]export.RunResult, 0, len(requests))
	for _, item := range requests {
		if c.limits.MaxRequests > 0 && len(results) >= c.limits.MaxRequests {
			break
		}
		var result export.RunResult
		msg := ExportFile{Request: item, Result: &result}
		if err := msg.Validate(); err != nil {
			return results, err
		}
		if err := c.executor.Execute(ctx, msg); err != nil {
			return results, err
		}
		results = append(results, result)
		if c.limits.MinInterval > 0 && c.sleep != nil {
			c.sleep(c.limits.MinInterval)
		}
	}
	return results, nil
}

func (c *BatchCommand) loadRequests(ctx context.Context, from string) ([]BatchRequest, error) {
	if strings.TrimSpace(from) != "" {
		return loadBatchRequestsFromFile(from)
	}
	if c.loader == nil {
		return nil, errors.New("batch loader not configured", errors.CategoryValidation).
			WithTextCode("LOADER_REQUIRED")
	}
	return c.loader(ctx)
}

type batchCLI struct {
	cmd  *BatchCommand
	From string `kong:"name='from',help='Path to JSON batch export requests'"`
}

func (c *batchCLI) Run() error {
	if c == nil || c.cmd == nil {
		return errors.New("batch command is required", errors.CategoryInternal).
			WithTextCode("BATCH_CMD_NIL")
	}
	_, err := c.cmd.Run(context.Background(), c.From)
	return err
}

func loadBatchRequestsFromFile(path string) ([]BatchRequest, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryExternal, "read batch file failed").
			WithTextCode("BATCH_FILE_READ")
	}

	var requests []BatchRequest
	if err := json.Unmarshal(content, &requests); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "batch file invalid JSON").
			WithTextCode("BATCH_FILE_INVALID")
	}
	return requests, nil
}
