package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/ignite/autopromote/internal/service/abtest"
)

func TestABTestGetDecodesVariants(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewABTestRepo(db)
	now := time.Now()

	variants := []byte(`[
		{"id":"a","promotion_settings":{"platform":"youtube"},"metrics":{"views":120,"engagement":0.5,"conversions":3,"revenue":10}},
		{"id":"b","promotion_settings":{"platform":"tiktok"},"metrics":{"views":0,"engagement":0,"conversions":0,"revenue":0}}
	]`)
	rows := sqlmock.NewRows([]string{"id", "content_id", "variants", "start_date", "status", "winner", "completed_date"}).
		AddRow("test-1", "content-1", variants, now, "active", nil, nil)
	mock.ExpectQuery("SELECT (.+) FROM ab_tests WHERE id").
		WithArgs("test-1").
		WillReturnRows(rows)

	got, err := repo.Get(context.Background(), "test-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Variants) != 2 {
		t.Fatalf("got %d variants, want 2", len(got.Variants))
	}
	a := got.VariantByID("a")
	if a == nil || a.Metrics.Views != 120 || a.Metrics.Engagement != 0.5 {
		t.Errorf("variant a not decoded: %+v", a)
	}
	if got.Winner != nil || got.CompletedDate != nil {
		t.Errorf("null columns should stay nil: %+v", got)
	}
}

func TestABTestGetNotFound(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewABTestRepo(db)

	mock.ExpectQuery("SELECT (.+) FROM ab_tests WHERE id").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, abtest.ErrTestNotFound) {
		t.Errorf("expected ErrTestNotFound, got %v", err)
	}
}

func TestABTestCompleteIsGuarded(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewABTestRepo(db)
	now := time.Now()

	mock.ExpectExec("UPDATE ab_tests").
		WithArgs("b", now, "test-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Complete(context.Background(), "test-1", "b", now); err != nil {
		t.Fatalf("complete: %v", err)
	}

	// Second completion matches zero rows; the repo distinguishes an
	// already-completed test from a missing one.
	mock.ExpectExec("UPDATE ab_tests").
		WithArgs("b", now, "test-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("test-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	err := repo.Complete(context.Background(), "test-1", "b", now)
	if !errors.Is(err, abtest.ErrTestCompleted) {
		t.Errorf("expected ErrTestCompleted, got %v", err)
	}

	mock.ExpectExec("UPDATE ab_tests").
		WithArgs("b", now, "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err = repo.Complete(context.Background(), "missing", "b", now)
	if !errors.Is(err, abtest.ErrTestNotFound) {
		t.Errorf("expected ErrTestNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestABTestUpdateVariantsNotFound(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewABTestRepo(db)

	mock.ExpectExec("UPDATE ab_tests SET variants").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateVariants(context.Background(), "missing", nil)
	if !errors.Is(err, abtest.ErrTestNotFound) {
		t.Errorf("expected ErrTestNotFound, got %v", err)
	}
}
