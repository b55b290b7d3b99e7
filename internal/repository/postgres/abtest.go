package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/autopromote/internal/domain"
	"github.com/ignite/autopromote/internal/service/abtest"
)

// ABTestRepo implements abtest.Repository against PostgreSQL. Variants live
// in a JSONB column on the test row; the array is always written whole.
type ABTestRepo struct{ db *sql.DB }

// NewABTestRepo creates a Postgres-backed A/B test repository.
func NewABTestRepo(db *sql.DB) *ABTestRepo { return &ABTestRepo{db: db} }

func (r *ABTestRepo) Get(ctx context.Context, id string) (*domain.ABTest, error) {
	t := &domain.ABTest{}
	var variants []byte
	var winner sql.NullString
	var completed sql.NullTime

	err := r.db.QueryRowContext(ctx, `
		SELECT id, content_id, variants, start_date, status, winner, completed_date
		FROM ab_tests
		WHERE id = $1
	`, id).Scan(&t.ID, &t.ContentID, &variants, &t.StartDate, &t.Status, &winner, &completed)
	if err == sql.ErrNoRows {
		return nil, abtest.ErrTestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get ab test: %w", err)
	}

	if winner.Valid {
		t.Winner = &winner.String
	}
	if completed.Valid {
		t.CompletedDate = &completed.Time
	}
	if len(variants) > 0 {
		if err := json.Unmarshal(variants, &t.Variants); err != nil {
			return nil, fmt.Errorf("decode variants: %w", err)
		}
	}
	return t, nil
}

func (r *ABTestRepo) Create(ctx context.Context, t *domain.ABTest) (string, error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	variants, err := json.Marshal(t.Variants)
	if err != nil {
		return "", fmt.Errorf("encode variants: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO ab_tests (id, content_id, variants, start_date, status)
		VALUES ($1, $2, $3, $4, $5)
	`, t.ID, t.ContentID, variants, t.StartDate, t.Status)
	if err != nil {
		return "", fmt.Errorf("create ab test: %w", err)
	}
	return t.ID, nil
}

func (r *ABTestRepo) UpdateVariants(ctx context.Context, id string, variants []domain.Variant) error {
	raw, err := json.Marshal(variants)
	if err != nil {
		return fmt.Errorf("encode variants: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE ab_tests SET variants = $1 WHERE id = $2`, raw, id)
	if err != nil {
		return fmt.Errorf("update variants: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return abtest.ErrTestNotFound
	}
	return nil
}

func (r *ABTestRepo) Complete(ctx context.Context, id, winner string, completedAt time.Time) error {
	// Guard the transition in the WHERE clause so completion is idempotent
	// at the store level: a completed test never flips its winner.
	res, err := r.db.ExecContext(ctx, `
		UPDATE ab_tests
		SET status = 'completed', winner = $1, completed_date = $2
		WHERE id = $3 AND status != 'completed'
	`, winner, completedAt, id)
	if err != nil {
		return fmt.Errorf("complete ab test: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM ab_tests WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("check ab test: %w", err)
		}
		if !exists {
			return abtest.ErrTestNotFound
		}
		return abtest.ErrTestCompleted
	}
	return nil
}
