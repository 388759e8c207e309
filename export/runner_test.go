package export

import (
	"context"
	"errors"
	"testing"
	"time"

	errorslib "github.com/goliatone/go-errors"
	"github.com/goliatone/go-page-export/document"
)

func newTestRunner(t *testing.T, backend *stubBackend) (*Runner, *MemoryTracker) {
	t.Helper()
	tracker := NewMemoryTracker()
	runner := NewRunner()
	runner.Tracker = tracker
	runner.IDGenerator = func() string { return "run-1" }
	if err := runner.Backends.Register(FormatPNG, func(job Job) (Backend, error) {
		_ = job
		return backend, nil
	}); err != nil {
		t.Fatalf("register backend: %v", err)
	}
	return runner, tracker
}

func TestRunner_TracksCompletedRun(t *testing.T) {
	backend := newStubBackend()
	runner, tracker := newTestRunner(t, backend)
	progress := &recordingProgress{}

	page := namedPage("ink")
	page.Background = document.Background{Kind: document.BackgroundPDF, PDFPage: 3}
	doc := document.NewMemory(page, namedPage("ink"), namedPage("ink"))

	result, err := runner.Run(context.Background(), Job{
		Name:       "notes.xopp",
		Document:   doc,
		Output:     "out.png",
		PageRange:  "1-2",
		Background: BackgroundAll,
		Progress:   progress,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.ID != "run-1" || result.State != StateCompleted || result.Units != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Format != FormatPNG {
		t.Fatalf("expected default png format, got %s", result.Format)
	}
	if result.Warning != "cannot find the pdf page number: 3" {
		t.Fatalf("unexpected warning %q", result.Warning)
	}
	if len(progress.current) != 2 {
		t.Fatalf("expected caller progress to be forwarded, got %v", progress.current)
	}

	record, err := tracker.Status(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if record.State != StateCompleted {
		t.Fatalf("expected completed record, got %s", record.State)
	}
	if record.Counts.Total != 2 || record.Counts.Processed != 2 {
		t.Fatalf("unexpected counts %+v", record.Counts)
	}
	if record.Name != "notes.xopp" || record.PageRange != "1-2" {
		t.Fatalf("unexpected record %+v", record)
	}
	if record.LastError != result.Warning {
		t.Fatalf("expected warning on record, got %q", record.LastError)
	}
	if record.StartedAt.IsZero() || record.CompletedAt.IsZero() {
		t.Fatalf("expected timestamps on record")
	}
}

func TestRunner_RecordsFailure(t *testing.T) {
	backend := newStubBackend()
	backend.failBegin = 0
	runner, tracker := newTestRunner(t, backend)

	result, err := runner.Run(context.Background(), Job{Document: fivePageDoc(), Output: "out.png"})
	if err == nil {
		t.Fatalf("expected error")
	}
	var ge *errorslib.Error
	if !errors.As(err, &ge) {
		t.Fatalf("expected go-errors value, got %T", err)
	}
	if ge.TextCode != "render" {
		t.Fatalf("expected render text code, got %q", ge.TextCode)
	}
	if result.State != StateFailed {
		t.Fatalf("expected failed result, got %s", result.State)
	}

	record, err := tracker.Status(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if record.State != StateFailed || record.LastError == "" {
		t.Fatalf("unexpected record %+v", record)
	}
}

func TestRunner_RecordsCancel(t *testing.T) {
	backend := newStubBackend()
	runner, tracker := newTestRunner(t, backend)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := runner.Run(ctx, Job{Document: fivePageDoc(), Output: "out.png"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if result.State != StateCanceled {
		t.Fatalf("expected canceled result, got %s", result.State)
	}
	record, _ := tracker.Status(context.Background(), "run-1")
	if record.State != StateCanceled {
		t.Fatalf("expected canceled record, got %s", record.State)
	}
	if len(backend.begun) != 0 {
		t.Fatalf("expected no units to start")
	}
}

func TestRunner_Validation(t *testing.T) {
	runner, _ := newTestRunner(t, newStubBackend())

	cases := []struct {
		job  Job
		code string
	}{
		{Job{Output: "out.png"}, "validation"},
		{Job{Document: fivePageDoc()}, "validation"},
		{Job{Document: fivePageDoc(), Output: "out.pdf", Format: FormatPDF}, "not_found"},
	}
	for _, tc := range cases {
		_, err := runner.Run(context.Background(), tc.job)
		if err == nil {
			t.Fatalf("expected error for %+v", tc.job)
		}
		if ge := AsGoError(err); ge.TextCode != tc.code {
			t.Fatalf("expected %s, got %s", tc.code, ge.TextCode)
		}
	}
}

func TestRunner_UsesClock(t *testing.T) {
	backend := newStubBackend()
	runner, _ := newTestRunner(t, backend)
	base := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	calls := 0
	runner.Now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Second)
	}

	result, err := runner.Run(context.Background(), Job{Document: fivePageDoc(), Output: "out.png"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Duration != time.Second {
		t.Fatalf("expected one second duration, got %s", result.Duration)
	}
}

func TestBackendRegistry_RejectsDuplicates(t *testing.T) {
	registry := NewBackendRegistry()
	factory := func(job Job) (Backend, error) { return newStubBackend(), nil }
	if err := registry.Register(FormatSVG, factory); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.Register(FormatSVG, factory); KindFromError(err) != KindValidation {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}
	if err := registry.Register("", factory); KindFromError(err) != KindValidation {
		t.Fatalf("expected missing format rejection, got %v", err)
	}
	if got := registry.Formats(); len(got) != 1 || got[0] != FormatSVG {
		t.Fatalf("unexpected formats %v", got)
	}
}
