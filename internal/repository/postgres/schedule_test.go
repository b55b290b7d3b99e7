package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/ignite/autopromote/internal/domain"
	"github.com/ignite/autopromote/internal/service/promotion"
)

func setupTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var scheduleCols = []string{
	"id", "content_id", "platform", "schedule_type", "start_time", "end_time",
	"frequency", "is_active", "status", "budget", "target_metrics",
	"platform_specific_settings", "recurrence_pattern", "max_occurrences",
	"parent_schedule_id", "timezone", "completed_at", "created_at", "updated_at",
}

func scheduleRow(id string, now time.Time) []driver.Value {
	return []driver.Value{
		id, "content-1", "youtube", "specific", now, nil,
		"once", true, "scheduled", 250.0, []byte(`{"target_views":1000}`),
		[]byte(`{"format":"video"}`), nil, nil,
		nil, "UTC", nil, now, now,
	}
}

func TestScheduleGet(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewScheduleRepo(db)
	now := time.Now()

	rows := sqlmock.NewRows(scheduleCols).AddRow(scheduleRow("sched-1", now)...)
	mock.ExpectQuery("SELECT (.+) FROM promotion_schedules WHERE id").
		WithArgs("sched-1").
		WillReturnRows(rows)

	got, err := repo.Get(context.Background(), "sched-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Platform != "youtube" || got.Budget != 250 {
		t.Errorf("unexpected schedule: %+v", got)
	}
	if got.TargetMetrics.TargetViews != 1000 {
		t.Errorf("target metrics not decoded: %+v", got.TargetMetrics)
	}
	if got.PlatformSettings["format"] != "video" {
		t.Errorf("platform settings not decoded: %+v", got.PlatformSettings)
	}
	if got.EndTime != nil || got.MaxOccurrences != nil || got.ParentScheduleID != nil {
		t.Errorf("null columns should stay nil: %+v", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestScheduleGetNotFound(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewScheduleRepo(db)

	mock.ExpectQuery("SELECT (.+) FROM promotion_schedules WHERE id").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, promotion.ErrScheduleNotFound) {
		t.Errorf("expected ErrScheduleNotFound, got %v", err)
	}
}

func TestScheduleCreateAssignsID(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewScheduleRepo(db)

	mock.ExpectExec("INSERT INTO promotion_schedules").
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := &domain.PromotionSchedule{
		ContentID: "content-1",
		Platform:  "tiktok",
		StartTime: time.Now(),
		Frequency: domain.FreqDaily,
		IsActive:  true,
		Status:    domain.ScheduleScheduled,
	}
	id, err := repo.Create(context.Background(), s)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id == "" || s.ID != id {
		t.Errorf("expected generated id, got %q", id)
	}
}

func TestScheduleDeleteWithChildrenIsTransactional(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewScheduleRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM promotion_schedules WHERE parent_schedule_id").
		WithArgs("sched-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM promotion_schedules WHERE id").
		WithArgs("sched-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.DeleteWithChildren(context.Background(), "sched-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestScheduleDeleteWithChildrenRollsBackOnMissingRoot(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewScheduleRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM promotion_schedules WHERE parent_schedule_id").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM promotion_schedules WHERE id").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.DeleteWithChildren(context.Background(), "missing")
	if !errors.Is(err, promotion.ErrScheduleNotFound) {
		t.Errorf("expected ErrScheduleNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestScheduleCompleteBatch(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewScheduleRepo(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE promotion_schedules").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	if err := repo.CompleteBatch(context.Background(), []string{"a", "b"}, now); err != nil {
		t.Fatalf("complete batch: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestScheduleCompleteBatchEmptyIsNoop(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewScheduleRepo(db)

	if err := repo.CompleteBatch(context.Background(), nil, time.Now()); err != nil {
		t.Fatalf("empty batch: %v", err)
	}
	// No queries expected.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestScheduleCountOccurrences(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewScheduleRepo(db)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM promotion_schedules WHERE parent_schedule_id").
		WithArgs("root").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	n, err := repo.CountOccurrences(context.Background(), "root")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 5 {
		t.Errorf("count = %d, want 5 (root plus 4 children)", n)
	}
}

func TestScheduleUpdateNoFieldsSkipsWrite(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewScheduleRepo(db)
	now := time.Now()

	// Only the re-read, no UPDATE.
	rows := sqlmock.NewRows(scheduleCols).AddRow(scheduleRow("sched-1", now)...)
	mock.ExpectQuery("SELECT (.+) FROM promotion_schedules WHERE id").
		WithArgs("sched-1").
		WillReturnRows(rows)

	got, err := repo.Update(context.Background(), "sched-1", promotion.UpdateFields{})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.ID != "sched-1" {
		t.Errorf("unexpected schedule: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestScheduleUpdateBuildsSetClause(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewScheduleRepo(db)
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE promotion_schedules SET platform = $1, budget = $2, updated_at = NOW() WHERE id = $3")).
		WithArgs("tiktok", 750.0, "sched-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	rows := sqlmock.NewRows(scheduleCols).AddRow(scheduleRow("sched-1", now)...)
	mock.ExpectQuery("SELECT (.+) FROM promotion_schedules WHERE id").
		WithArgs("sched-1").
		WillReturnRows(rows)

	platform := "tiktok"
	budget := 750.0
	_, err := repo.Update(context.Background(), "sched-1", promotion.UpdateFields{
		Platform: &platform,
		Budget:   &budget,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestScheduleUpdateNotFound(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewScheduleRepo(db)

	mock.ExpectExec("UPDATE promotion_schedules SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	budget := 100.0
	_, err := repo.Update(context.Background(), "missing", promotion.UpdateFields{Budget: &budget})
	if !errors.Is(err, promotion.ErrScheduleNotFound) {
		t.Errorf("expected ErrScheduleNotFound, got %v", err)
	}
}
