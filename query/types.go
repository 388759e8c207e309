package query

import (
	"github.com/goliatone/go-errors"

	"github.com/goliatone/go-page-export/export"
)

// ExportStatus requests the record of a single run.
type ExportStatus struct {
	ExportID string
}

func (ExportStatus) Type() string { return "export:status" }

func (msg ExportStatus) Validate() error {
	if msg.ExportID == "" {
		return errors.New("export ID is required", errors.CategoryValidation).
			WithTextCode("EXPORT_ID_REQUIRED")
	}
	return nil
}

// ExportHistory requests run history, newest first.
type ExportHistory struct {
	Filter export.ProgressFilter
}

func (ExportHistory) Type() string { return "export:history" }

func (msg ExportHistory) Validate() error {
	if msg.Filter.State != "" && !validState(msg.Filter.State) {
		return errors.New("unknown export state", errors.CategoryValidation).
			WithTextCode("STATE_INVALID")
	}
	if !msg.Filter.Since.IsZero() && !msg.Filter.Until.IsZero() && msg.Filter.Until.Before(msg.Filter.Since) {
		return errors.New("history window ends before it starts", errors.CategoryValidation).
			WithTextCode("WINDOW_INVALID")
	}
	return nil
}

func validState(state export.ExportState) bool {
	switch state {
	case export.StateConfigured, export.StateQueued, export.StateRunning,
		export.StateCompleted, export.StateFailed, export.StateCanceled:
		return true
	}
	return false
}
