package export

import (
	"context"
	"errors"

	errorslib "github.com/goliatone/go-errors"
)

// ErrorKind defines export error kinds.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindTimeout    ErrorKind = "timeout"
	KindCanceled   ErrorKind = "canceled"
	KindRender     ErrorKind = "render"
	KindBackground ErrorKind = "background"
	KindInternal   ErrorKind = "internal"
	KindNotImpl    ErrorKind = "not_implemented"
)

// ExportError wraps errors with a kind.
type ExportError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *ExportError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// NewError creates a new export error.
func NewError(kind ErrorKind, msg string, err error) *ExportError {
	return &ExportError{Kind: kind, Msg: msg, Err: err}
}

// AsGoError maps an error into a go-errors error.
func AsGoError(err error) *errorslib.Error {
	if err == nil {
		return nil
	}

	var ge *errorslib.Error
	if errors.As(err, &ge) {
		return ge
	}

	kind := KindFromError(err)
	msg := err.Error()

	var exportErr *ExportError
	if errors.As(err, &exportErr) && exportErr.Msg != "" {
		msg = exportErr.Msg
	}

	var mapped *errorslib.Error
	switch kind {
	case KindValidation:
		mapped = errorslib.New(msg, errorslib.CategoryValidation).WithTextCode("validation")
	case KindNotFound:
		mapped = errorslib.New(msg, errorslib.CategoryNotFound).WithTextCode("not_found")
	case KindTimeout:
		mapped = errorslib.New(msg, errorslib.CategoryOperation).WithTextCode("timeout")
	case KindCanceled:
		mapped = errorslib.New(msg, errorslib.CategoryOperation).WithTextCode("canceled")
	case KindRender:
		mapped = errorslib.New(msg, errorslib.CategoryOperation).WithTextCode("render")
	case KindBackground:
		mapped = errorslib.New(msg, errorslib.CategoryNotFound).WithTextCode("background")
	case KindNotImpl:
		mapped = errorslib.New(msg, errorslib.CategoryOperation).WithTextCode("not_implemented")
	default:
		mapped = errorslib.New(msg, errorslib.CategoryInternal).WithTextCode("internal")
	}
	mapped.Source = err
	return mapped
}

// KindFromError maps an error to its export error kind.
func KindFromError(err error) ErrorKind {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}

	var exportErr *ExportError
	if errors.As(err, &exportErr) {
		return exportErr.Kind
	}

	var ge *errorslib.Error
	if errors.As(err, &ge) {
		switch ge.Category {
		case errorslib.CategoryValidation, errorslib.CategoryBadInput:
			return KindValidation
		case errorslib.CategoryNotFound:
			return KindNotFound
		}
	}

	return KindInternal
}
