package export

import (
	"context"
	"errors"
	"fmt"
	"testing"

	errorslib "github.com/goliatone/go-errors"
)

func TestAsGoErrorMapping(t *testing.T) {
	cases := []struct {
		err      error
		category errorslib.Category
		code     string
	}{
		{NewError(KindValidation, "bad input", nil), errorslib.CategoryValidation, "validation"},
		{NewError(KindNotFound, "missing", nil), errorslib.CategoryNotFound, "not_found"},
		{NewError(KindRender, "surface", nil), errorslib.CategoryOperation, "render"},
		{NewError(KindBackground, "cannot find the pdf page number: 3", nil), errorslib.CategoryNotFound, "background"},
		{context.DeadlineExceeded, errorslib.CategoryOperation, "timeout"},
		{context.Canceled, errorslib.CategoryOperation, "canceled"},
		{NewError(KindInternal, "boom", nil), errorslib.CategoryInternal, "internal"},
	}

	for _, tc := range cases {
		mapped := AsGoError(tc.err)
		if mapped == nil {
			t.Fatalf("expected mapping for %v", tc.err)
		}
		if mapped.Category != tc.category {
			t.Fatalf("expected category %s, got %s", tc.category, mapped.Category)
		}
		if mapped.TextCode != tc.code {
			t.Fatalf("expected text code %s, got %s", tc.code, mapped.TextCode)
		}
	}
}

func TestKindFromError_Wrapped(t *testing.T) {
	err := fmt.Errorf("unit 2: %w", NewError(KindRender, "write png", errors.New("disk full")))
	if KindFromError(err) != KindRender {
		t.Fatalf("expected render kind, got %s", KindFromError(err))
	}
	wrappedCancel := NewError(KindRender, "begin", context.Canceled)
	if KindFromError(wrappedCancel) != KindCanceled {
		t.Fatalf("expected canceled kind, got %s", KindFromError(wrappedCancel))
	}
	if KindFromError(nil) != "" {
		t.Fatalf("expected empty kind for nil")
	}
}

func TestAsGoError_PassesThrough(t *testing.T) {
	original := errorslib.New("already mapped", errorslib.CategoryBadInput)
	if AsGoError(original) != original {
		t.Fatalf("expected go-errors value to pass through")
	}
	if AsGoError(nil) != nil {
		t.Fatalf("expected nil mapping for nil error")
	}
}
