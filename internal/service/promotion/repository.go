package promotion

import (
	"context"
	"time"

	"github.com/ignite/autopromote/internal/domain"
)

// ContentRepository defines the data access contract for content records.
// Implementations must be safe for concurrent use.
type ContentRepository interface {
	// Get returns a single content record. Returns ErrContentNotFound if it
	// doesn't exist.
	Get(ctx context.Context, id string) (*domain.Content, error)

	// UpdateOptimizedSettings writes the winning promotion settings of a
	// completed A/B test onto the content record.
	UpdateOptimizedSettings(ctx context.Context, id string, settings map[string]interface{}) error
}

// ScheduleRepository defines the data access contract for promotion
// schedules. Multi-record mutations (DeleteWithChildren, CompleteBatch) must
// be atomic: partial failure may not leave orphaned children or half-updated
// statuses.
type ScheduleRepository interface {
	// Get returns a single schedule. Returns ErrScheduleNotFound if it
	// doesn't exist.
	Get(ctx context.Context, id string) (*domain.PromotionSchedule, error)

	// Create inserts a new schedule and returns its ID.
	Create(ctx context.Context, s *domain.PromotionSchedule) (string, error)

	// Update applies the non-nil fields and returns the updated schedule.
	Update(ctx context.Context, id string, u UpdateFields) (*domain.PromotionSchedule, error)

	// DeleteWithChildren removes the schedule and every schedule whose
	// parent_schedule_id references it, in one atomic batch.
	DeleteWithChildren(ctx context.Context, id string) error

	// ListByContent returns all schedules for a content id ordered by
	// start_time ascending.
	ListByContent(ctx context.Context, contentID string) ([]domain.PromotionSchedule, error)

	// ListActiveDue returns active schedules whose end_time has passed.
	ListActiveDue(ctx context.Context, now time.Time) ([]domain.PromotionSchedule, error)

	// ListActiveStarted returns active schedules with start_time <= now,
	// filtered by platform and budget range when set.
	ListActiveStarted(ctx context.Context, now time.Time, f ActiveFilter) ([]domain.PromotionSchedule, error)

	// CountOccurrences returns 1 (the schedule itself) plus the number of
	// schedules referencing it as parent.
	CountOccurrences(ctx context.Context, scheduleID string) (int, error)

	// CompleteBatch marks the given schedules inactive/completed in one
	// atomic batch.
	CompleteBatch(ctx context.Context, ids []string, completedAt time.Time) error
}

// UpdateFields holds the mutable fields for a schedule update.
// Nil fields are not applied.
type UpdateFields struct {
	Platform         *string                `json:"platform"`
	StartTime        *time.Time             `json:"start_time"`
	EndTime          *time.Time             `json:"end_time"`
	Frequency        *domain.Frequency      `json:"frequency"`
	IsActive         *bool                  `json:"is_active"`
	Budget           *float64               `json:"budget"`
	TargetMetrics    *domain.TargetMetrics  `json:"target_metrics"`
	PlatformSettings map[string]interface{} `json:"platform_specific_settings"`
	MaxOccurrences   *int                   `json:"max_occurrences"`
	Timezone         *string                `json:"timezone"`
}

// ActiveFilter controls filtering for active promotion lists. ContentType is
// applied in memory after content hydration; the rest push down to the store.
type ActiveFilter struct {
	Platform    string
	MinBudget   *float64
	MaxBudget   *float64
	ContentType string
}

// HistoryProvider supplies optional per-content historical metrics. A nil
// result means no history; implementations are expected to degrade to nil on
// store errors rather than failing the caller (availability over strictness).
type HistoryProvider interface {
	History(ctx context.Context, contentID string) *domain.HistoricalMetrics
}
