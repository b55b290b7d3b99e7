package abtest

import (
	"context"
	"time"

	"github.com/ignite/autopromote/internal/domain"
	"github.com/ignite/autopromote/internal/service/promotion"
)

// Repository defines the data access contract for A/B tests. The variants
// array is embedded in the test record, not a separate collection.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a single test. Returns ErrTestNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*domain.ABTest, error)

	// Create inserts a new test and returns its ID.
	Create(ctx context.Context, t *domain.ABTest) (string, error)

	// UpdateVariants replaces the test's variant array. Last write wins on
	// the whole array; callers serialize concurrent metric updates.
	UpdateVariants(ctx context.Context, id string, variants []domain.Variant) error

	// Complete transitions the test to completed with the winning variant.
	// The transition happens at most once.
	Complete(ctx context.Context, id, winner string, completedAt time.Time) error
}

// Scheduler is the slice of the promotion service the A/B selector needs:
// creating per-variant schedules and retargeting future ones.
// *promotion.Service satisfies it.
type Scheduler interface {
	SchedulePromotion(ctx context.Context, contentID string, in promotion.ScheduleInput) (*domain.PromotionSchedule, error)
	ContentSchedules(ctx context.Context, contentID string) ([]domain.PromotionSchedule, error)
	UpdatePromotionSchedule(ctx context.Context, id string, u promotion.UpdateFields) (*domain.PromotionSchedule, error)
}
