// Package postgres implements the service repository interfaces against
// PostgreSQL. Maps and nested structures are stored as JSONB; multi-record
// mutations run inside transactions.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ignite/autopromote/internal/domain"
	"github.com/ignite/autopromote/internal/service/promotion"
)

// ContentRepo implements promotion.ContentRepository against PostgreSQL.
type ContentRepo struct{ db *sql.DB }

// NewContentRepo creates a Postgres-backed content repository.
func NewContentRepo(db *sql.DB) *ContentRepo { return &ContentRepo{db: db} }

func (r *ContentRepo) Get(ctx context.Context, id string) (*domain.Content, error) {
	c := &domain.Content{}
	var platforms pq.StringArray
	var settings []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, type, COALESCE(url,''), COALESCE(description,''),
		       target_platforms, status, views, revenue, target_rpm,
		       min_views_threshold, max_budget, optimized_promotion_settings,
		       created_at, updated_at
		FROM content
		WHERE id = $1
	`, id).Scan(
		&c.ID, &c.UserID, &c.Title, &c.Type, &c.URL, &c.Description,
		&platforms, &c.Status, &c.Views, &c.Revenue, &c.TargetRPM,
		&c.MinViewsThreshold, &c.MaxBudget, &settings,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, promotion.ErrContentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get content: %w", err)
	}
	c.TargetPlatforms = platforms
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &c.OptimizedPromotionSettings); err != nil {
			return nil, fmt.Errorf("decode optimized settings: %w", err)
		}
	}
	return c, nil
}

func (r *ContentRepo) Create(ctx context.Context, c *domain.Content) (string, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = domain.ContentPending
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO content
			(id, user_id, title, type, url, description, target_platforms,
			 status, target_rpm, min_views_threshold, max_budget, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
	`, c.ID, c.UserID, c.Title, c.Type, c.URL, c.Description,
		pq.Array(c.TargetPlatforms), c.Status, c.TargetRPM,
		c.MinViewsThreshold, c.MaxBudget)
	if err != nil {
		return "", fmt.Errorf("create content: %w", err)
	}
	return c.ID, nil
}

func (r *ContentRepo) UpdateOptimizedSettings(ctx context.Context, id string, settings map[string]interface{}) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode optimized settings: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE content SET optimized_promotion_settings = $1, updated_at = NOW()
		WHERE id = $2
	`, raw, id)
	if err != nil {
		return fmt.Errorf("update optimized settings: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return promotion.ErrContentNotFound
	}
	return nil
}

// AddPerformance accrues views and revenue onto the content counters.
func (r *ContentRepo) AddPerformance(ctx context.Context, id string, views int64, revenue float64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE content
		SET views = views + $1, revenue = revenue + $2, updated_at = NOW()
		WHERE id = $3
	`, views, revenue, id)
	if err != nil {
		return fmt.Errorf("add performance: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return promotion.ErrContentNotFound
	}
	return nil
}
