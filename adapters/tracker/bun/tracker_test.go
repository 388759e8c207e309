package trackerbun

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/goliatone/go-page-export/export"
)

func TestTracker_StartStatusList(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(newTestDB(t))

	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	recordID, err := tracker.Start(ctx, export.RunRecord{
		Name:        "notes.xopp",
		Format:      export.FormatPDF,
		Output:      "notes.pdf",
		Background:  export.BackgroundUnruled,
		PageRange:   "1-3",
		LayerRange:  "2",
		Progressive: true,
		CreatedAt:   created,
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if recordID == "" {
		t.Fatalf("expected record id")
	}

	got, err := tracker.Status(ctx, recordID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	want := export.RunRecord{
		ID:          recordID,
		Name:        "notes.xopp",
		Format:      export.FormatPDF,
		Output:      "notes.pdf",
		State:       export.StateQueued,
		Background:  export.BackgroundUnruled,
		PageRange:   "1-3",
		LayerRange:  "2",
		Progressive: true,
	}
	got.CreatedAt = time.Time{}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}

	list, err := tracker.List(ctx, export.ProgressFilter{Name: "notes.xopp"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 record, got %d", len(list))
	}
	if list, _ := tracker.List(ctx, export.ProgressFilter{Name: "other"}); len(list) != 0 {
		t.Fatalf("expected no records for other name")
	}
}

func TestTracker_StateTransitions(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(newTestDB(t))

	recordID, err := tracker.Start(ctx, export.RunRecord{ID: "exp-1", Format: export.FormatPNG})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := tracker.SetState(ctx, recordID, export.StateRunning); err != nil {
		t.Fatalf("set state: %v", err)
	}
	if err := tracker.SetTotal(ctx, recordID, 4); err != nil {
		t.Fatalf("set total: %v", err)
	}
	for range 3 {
		if err := tracker.Advance(ctx, recordID, export.ProgressDelta{Units: 1}); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}
	if err := tracker.Complete(ctx, recordID, "cannot find the pdf page number: 2"); err != nil {
		t.Fatalf("complete: %v", err)
	}

	got, err := tracker.Status(ctx, recordID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if got.State != export.StateCompleted {
		t.Fatalf("expected completed, got %s", got.State)
	}
	if got.Counts != (export.UnitCounts{Processed: 3, Total: 4}) {
		t.Fatalf("unexpected counts %+v", got.Counts)
	}
	if got.LastError != "cannot find the pdf page number: 2" {
		t.Fatalf("expected warning kept, got %q", got.LastError)
	}
	if got.StartedAt.IsZero() || got.CompletedAt.IsZero() {
		t.Fatalf("expected timestamps, got %+v", got)
	}
}

func TestTracker_Fail(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(newTestDB(t))

	recordID, err := tracker.Start(ctx, export.RunRecord{Format: export.FormatSVG})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := tracker.Fail(ctx, recordID, errors.New("render page 2: boom")); err != nil {
		t.Fatalf("fail: %v", err)
	}
	got, err := tracker.Status(ctx, recordID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if got.State != export.StateFailed || got.LastError != "render page 2: boom" {
		t.Fatalf("unexpected record %+v", got)
	}

	failed, err := tracker.List(ctx, export.ProgressFilter{State: export.StateFailed})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(failed) != 1 {
		t.Fatalf("expected failed record in list")
	}
}

func TestTracker_NotFoundAndValidation(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(newTestDB(t))

	if _, err := tracker.Status(ctx, "missing"); export.KindFromError(err) != export.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := tracker.Advance(ctx, "missing", export.ProgressDelta{Units: 1}); export.KindFromError(err) != export.KindNotFound {
		t.Fatalf("expected not found on advance, got %v", err)
	}
	if err := tracker.SetState(ctx, "", export.StateRunning); export.KindFromError(err) != export.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := tracker.Delete(ctx, "missing"); export.KindFromError(err) != export.KindNotFound {
		t.Fatalf("expected not found on delete, got %v", err)
	}

	var unconfigured *Tracker
	if _, err := unconfigured.Start(ctx, export.RunRecord{}); export.KindFromError(err) != export.KindNotImpl {
		t.Fatalf("expected not implemented, got %v", err)
	}
}

func TestTracker_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(newTestDB(t))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := range 3 {
		_, err := tracker.Start(ctx, export.RunRecord{
			ID:        fmt.Sprintf("run-%d", i),
			Name:      "deck",
			Format:    export.FormatPNG,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("start: %v", err)
		}
	}

	list, err := tracker.List(ctx, export.ProgressFilter{Since: base.Add(30 * time.Minute)})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	ids := make([]string, 0, len(list))
	for _, record := range list {
		ids = append(ids, record.ID)
	}
	if diff := cmp.Diff([]string{"run-2", "run-1"}, ids); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestTracker_WorksWithRunner(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(newTestDB(t))

	runner := export.NewRunner()
	runner.Tracker = tracker
	if err := runner.Backends.Register(export.FormatPNG, func(job export.Job) (export.Backend, error) {
		return nopBackend{}, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	result, err := runner.Run(ctx, export.Job{Name: "empty", Document: twoPageDoc(), Output: "out.png"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	got, err := tracker.Status(ctx, result.ID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if got.State != export.StateCompleted || got.Counts.Processed != 2 || got.Counts.Total != 2 {
		t.Fatalf("unexpected record %+v", got)
	}
}

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	sqldb, err := sql.Open(sqliteshim.ShimName, fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		_ = db.Close()
	})

	if err := NewTracker(db).EnsureSchema(context.Background()); err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}
