package trackerbun

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-page-export/export"
)

// Tracker stores export run progress in a Bun-backed database.
type Tracker struct {
	DB          *bun.DB
	Now         func() time.Time
	IDGenerator func() string
}

// NewTracker creates a Bun-backed tracker.
func NewTracker(db *bun.DB) *Tracker {
	return &Tracker{DB: db, Now: time.Now, IDGenerator: defaultIDGenerator()}
}

// EnsureSchema creates the runs table when missing.
func (t *Tracker) EnsureSchema(ctx context.Context) error {
	if t == nil || t.DB == nil {
		return export.NewError(export.KindNotImpl, "tracker database not configured", nil)
	}
	_, err := t.DB.NewCreateTable().Model((*recordModel)(nil)).IfNotExists().Exec(ctx)
	return err
}

// Start creates a new run record.
func (t *Tracker) Start(ctx context.Context, record export.RunRecord) (string, error) {
	if t == nil || t.DB == nil {
		return "", export.NewError(export.KindNotImpl, "tracker database not configured", nil)
	}
	if record.ID == "" {
		record.ID = t.nextID()
	}
	if record.State == "" {
		record.State = export.StateQueued
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = t.now()
	}

	model := modelFromRecord(record)
	if _, err := t.DB.NewInsert().Model(&model).Exec(ctx); err != nil {
		return "", err
	}
	return record.ID, nil
}

// SetTotal records the planned unit count.
func (t *Tracker) SetTotal(ctx context.Context, id string, total int64) error {
	if err := t.check(id); err != nil {
		return err
	}
	query := t.DB.NewUpdate().Model((*recordModel)(nil)).
		Set("counts_total = ?", total).
		Where("id = ?", id)
	return exec(ctx, query, id)
}

// Advance updates counts for a run.
func (t *Tracker) Advance(ctx context.Context, id string, delta export.ProgressDelta) error {
	if err := t.check(id); err != nil {
		return err
	}
	query := t.DB.NewUpdate().Model((*recordModel)(nil)).
		Set("counts_processed = counts_processed + ?", delta.Units).
		Where("id = ?", id)
	return exec(ctx, query, id)
}

// SetState updates the run state.
func (t *Tracker) SetState(ctx context.Context, id string, state export.ExportState) error {
	if err := t.check(id); err != nil {
		return err
	}
	query := t.DB.NewUpdate().Model((*recordModel)(nil)).
		Set("state = ?", state).
		Where("id = ?", id)
	if state == export.StateRunning {
		query = query.Set("started_at = COALESCE(started_at, ?)", t.now())
	}
	if state.Terminal() {
		query = query.Set("completed_at = COALESCE(completed_at, ?)", t.now())
	}
	return exec(ctx, query, id)
}

// Fail marks the run as failed and keeps the error message.
func (t *Tracker) Fail(ctx context.Context, id string, runErr error) error {
	if err := t.check(id); err != nil {
		return err
	}
	message := ""
	if runErr != nil {
		message = runErr.Error()
	}
	query := t.DB.NewUpdate().Model((*recordModel)(nil)).
		Set("state = ?", export.StateFailed).
		Set("last_error = ?", message).
		Set("completed_at = COALESCE(completed_at, ?)", t.now()).
		Where("id = ?", id)
	return exec(ctx, query, id)
}

// Complete marks the run as completed. A non-fatal warning is kept as the
// last error message.
func (t *Tracker) Complete(ctx context.Context, id string, warning string) error {
	if err := t.check(id); err != nil {
		return err
	}
	query := t.DB.NewUpdate().Model((*recordModel)(nil)).
		Set("state = ?", export.StateCompleted).
		Set("last_error = ?", warning).
		Set("completed_at = COALESCE(completed_at, ?)", t.now()).
		Where("id = ?", id)
	return exec(ctx, query, id)
}

// Status returns a record by ID.
func (t *Tracker) Status(ctx context.Context, id string) (export.RunRecord, error) {
	if err := t.check(id); err != nil {
		return export.RunRecord{}, err
	}

	model := new(recordModel)
	err := t.DB.NewSelect().Model(model).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return export.RunRecord{}, export.NewError(export.KindNotFound, fmt.Sprintf("export %q not found", id), nil)
		}
		return export.RunRecord{}, err
	}
	return model.toRecord()
}

// List returns records matching a filter, newest first.
func (t *Tracker) List(ctx context.Context, filter export.ProgressFilter) ([]export.RunRecord, error) {
	if t == nil || t.DB == nil {
		return nil, export.NewError(export.KindNotImpl, "tracker database not configured", nil)
	}

	models := make([]recordModel, 0)
	query := t.DB.NewSelect().Model(&models)
	if filter.Name != "" {
		query = query.Where("name = ?", filter.Name)
	}
	if filter.State != "" {
		query = query.Where("state = ?", filter.State)
	}
	if !filter.Since.IsZero() {
		query = query.Where("created_at >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		query = query.Where("created_at <= ?", filter.Until)
	}
	query = query.Order("created_at DESC")

	if err := query.Scan(ctx); err != nil {
		return nil, err
	}

	records := make([]export.RunRecord, 0, len(models))
	for _, model := range models {
		record, err := model.toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// Delete removes a record from the tracker.
func (t *Tracker) Delete(ctx context.Context, id string) error {
	if err := t.check(id); err != nil {
		return err
	}
	query := t.DB.NewDelete().Model((*recordModel)(nil)).Where("id = ?", id)
	res, err := query.Exec(ctx)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return export.NewError(export.KindNotFound, fmt.Sprintf("export %q not found", id), nil)
	}
	return nil
}

type execer interface {
	Exec(ctx context.Context, dest ...any) (sql.Result, error)
}

func exec(ctx context.Context, query execer, id string) error {
	res, err := query.Exec(ctx)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return export.NewError(export.KindNotFound, fmt.Sprintf("export %q not found", id), nil)
	}
	return nil
}

func (t *Tracker) check(id string) error {
	if t == nil || t.DB == nil {
		return export.NewError(export.KindNotImpl, "tracker database not configured", nil)
	}
	if id == "" {
		return export.NewError(export.KindValidation, "export ID is required", nil)
	}
	return nil
}

type recordModel struct {
	bun.BaseModel `bun:"table:export_runs,alias:export_runs"`

	ID              string    `bun:",pk"`
	Name            string    `bun:"name"`
	Format          string    `bun:",notnull"`
	Output          string    `bun:"output"`
	State           string    `bun:",notnull"`
	Background      string    `bun:"background"`
	PageRange       string    `bun:"page_range"`
	LayerRange      string    `bun:"layer_range"`
	Progressive     bool      `bun:"progressive"`
	CountsProcessed int64     `bun:"counts_processed"`
	CountsTotal     int64     `bun:"counts_total"`
	LastError       string    `bun:"last_error"`
	CreatedAt       time.Time `bun:"created_at"`
	StartedAt       time.Time `bun:"started_at,nullzero"`
	CompletedAt     time.Time `bun:"completed_at,nullzero"`
}

func modelFromRecord(record export.RunRecord) recordModel {
	return recordModel{
		ID:              record.ID,
		Name:            record.Name,
		Format:          string(record.Format),
		Output:          record.Output,
		State:           string(record.State),
		Background:      record.Background.String(),
		PageRange:       record.PageRange,
		LayerRange:      record.LayerRange,
		Progressive:     record.Progressive,
		CountsProcessed: record.Counts.Processed,
		CountsTotal:     record.Counts.Total,
		LastError:       record.LastError,
		CreatedAt:       record.CreatedAt,
		StartedAt:       record.StartedAt,
		CompletedAt:     record.CompletedAt,
	}
}

func (m recordModel) toRecord() (export.RunRecord, error) {
	background, err := export.ParseBackgroundPolicy(m.Background)
	if err != nil {
		return export.RunRecord{}, err
	}
	return export.RunRecord{
		ID:          m.ID,
		Name:        m.Name,
		Format:      export.Format(m.Format),
		Output:      m.Output,
		State:       export.ExportState(m.State),
		Background:  background,
		PageRange:   m.PageRange,
		LayerRange:  m.LayerRange,
		Progressive: m.Progressive,
		Counts: export.UnitCounts{
			Processed: m.CountsProcessed,
			Total:     m.CountsTotal,
		},
		LastError:   m.LastError,
		CreatedAt:   m.CreatedAt,
		StartedAt:   m.StartedAt,
		CompletedAt: m.CompletedAt,
	}, nil
}

func (t *Tracker) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

func (t *Tracker) nextID() string {
	if t.IDGenerator != nil {
		return t.IDGenerator()
	}
	return defaultIDGenerator()()
}

func defaultIDGenerator() func() string {
	var counter uint64
	return func() string {
		id := atomic.AddUint64(&counter, 1)
		return fmt.Sprintf("exp-%d", id)
	}
}

var _ export.RunTracker = (*Tracker)(nil)
