package command

import (
	"context"

	gcmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-errors"

	"github.com/goliatone/go-page-export/document"
	"github.com/goliatone/go-page-export/export"
)

// DocumentLoader opens a document from a path.
type DocumentLoader func(ctx context.Context, path string) (document.Document, error)

// ExportDocumentHandler runs export jobs. It is meant to be executed off the
// interactive goroutine, for example from a dispatcher subscription.
type ExportDocumentHandler struct {
	Service export.Service
}

func NewExportDocumentHandler(svc export.Service) *ExportDocumentHandler {
	return &ExportDocumentHandler{Service: svc}
}

func (h *ExportDocumentHandler) Execute(ctx context.Context, msg ExportDocument) error {
	if h == nil || h.Service == nil {
		return errors.New("export service is required", errors.CategoryInternal).
			WithTextCode("SERVICE_REQUIRED")
	}
	result, err := h.Service.Export(ctx, msg.Job)
	if err != nil {
		return err
	}
	store(ctx, msg.Result, result)
	return nil
}

// ExportFileHandler loads a document and exports it.
type ExportFileHandler struct {
	Service export.Service
	Loader  DocumentLoader
}

func NewExportFileHandler(svc export.Service, loader DocumentLoader) *ExportFileHandler {
	return &ExportFileHandler{Service: svc, Loader: loader}
}

func (h *ExportFileHandler) Execute(ctx context.Context, msg ExportFile) error {
	if h == nil || h.Service == nil {
		return errors.New("export service is required", errors.CategoryInternal).
			WithTextCode("SERVICE_REQUIRED")
	}
	if h.Loader == nil {
		return errors.New("document loader is required", errors.CategoryInternal).
			WithTextCode("LOADER_REQUIRED")
	}

	doc, err := h.Loader(ctx, msg.Request.Input)
	if err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "load document failed").
			WithTextCode("DOCUMENT_LOAD")
	}
	job, err := msg.Request.Job(doc)
	if err != nil {
		return err
	}
	result, err := h.Service.Export(ctx, job)
	if err != nil {
		return err
	}
	store(ctx, msg.Result, result)
	return nil
}

func store(ctx context.Context, dst *export.RunResult, result export.RunResult) {
	if dst != nil {
		*dst = result
	}
	if res := gcmd.ResultFromContext[export.RunResult](ctx); res != nil {
		res.Store(result)
	}
}
