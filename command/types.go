package command

import (
	"github.com/goliatone/go-errors"

	"github.com/goliatone/go-page-export/export"
)

// ExportDocument runs an export job for a loaded document.
type ExportDocument struct {
	Job    export.Job
	Result *export.RunResult
}

func (ExportDocument) Type() string { return "export:document" }

func (msg ExportDocument) Validate() error {
	if msg.Job.Document == nil {
		return errors.New("document is required", errors.CategoryValidation).
			WithTextCode("DOCUMENT_REQUIRED")
	}
	if msg.Job.Output == "" {
		return errors.New("output path is required", errors.CategoryValidation).
			WithTextCode("OUTPUT_REQUIRED")
	}
	switch export.NormalizeFormat(msg.Job.Format) {
	case export.FormatPNG, export.FormatSVG, export.FormatPDF:
	default:
		return errors.New("unsupported export format", errors.CategoryValidation).
			WithTextCode("FORMAT_UNSUPPORTED")
	}
	return nil
}

// ExportFile loads a document from disk and exports it.
type ExportFile struct {
	Request BatchRequest
	Result  *export.RunResult
}

func (ExportFile) Type() string { return "export:file" }

func (msg ExportFile) Validate() error {
	if msg.Request.Input == "" {
		return errors.New("input path is required", errors.CategoryValidation).
			WithTextCode("INPUT_REQUIRED")
	}
	if msg.Request.Output == "" {
		return errors.New("output path is required", errors.CategoryValidation).
			WithTextCode("OUTPUT_REQUIRED")
	}
	return nil
}
