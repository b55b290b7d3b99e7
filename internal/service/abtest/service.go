package abtest

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/autopromote/internal/domain"
	"github.com/ignite/autopromote/internal/service/promotion"
)

// Winner-determination thresholds: a test needs both a minimum run time and
// a minimum aggregate sample before a winner may be called.
const (
	MinTestDuration = 7 * 24 * time.Hour
	MinTotalViews   = 1000
)

// Variant score weights. Views and engagement dominate; conversions and
// revenue refine.
const (
	weightViews       = 0.3
	weightEngagement  = 0.3
	weightConversions = 0.2
	weightRevenue     = 0.2
)

// Service implements A/B test lifecycle management.
type Service struct {
	tests     Repository
	content   promotion.ContentRepository
	scheduler Scheduler
	now       func() time.Time

	// mu serializes metric read-modify-write per process. The variants
	// array is written whole, so unserialized concurrent updates would be
	// last-write-wins.
	mu sync.Mutex
}

// NewService creates an A/B testing service.
func NewService(tests Repository, content promotion.ContentRepository, scheduler Scheduler) *Service {
	return &Service{
		tests:     tests,
		content:   content,
		scheduler: scheduler,
		now:       time.Now,
	}
}

// SetClock replaces the time source, for deterministic tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// VariantInput holds one variant's configuration for test creation.
type VariantInput struct {
	ID                string                 `json:"id"`
	PromotionSettings map[string]interface{} `json:"promotion_settings"`
}

// CreateTest persists a test with zeroed metrics per variant and schedules
// one promotion per variant, tagging each schedule with the test and variant
// ids.
func (s *Service) CreateTest(ctx context.Context, contentID string, variants []VariantInput) (*domain.ABTest, error) {
	if len(variants) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 variants", ErrInvalidTest)
	}
	seen := make(map[string]bool, len(variants))
	for _, v := range variants {
		if v.ID == "" {
			return nil, fmt.Errorf("%w: variant id is required", ErrInvalidTest)
		}
		if seen[v.ID] {
			return nil, fmt.Errorf("%w: duplicate variant id %q", ErrInvalidTest, v.ID)
		}
		seen[v.ID] = true
	}

	// The content must exist before any schedules are created.
	if _, err := s.content.Get(ctx, contentID); err != nil {
		return nil, err
	}

	test := &domain.ABTest{
		ID:        uuid.New().String(),
		ContentID: contentID,
		Variants:  make([]domain.Variant, len(variants)),
		StartDate: s.now(),
		Status:    domain.ABTestActive,
	}
	for i, v := range variants {
		test.Variants[i] = domain.Variant{
			ID:                v.ID,
			PromotionSettings: v.PromotionSettings,
		}
	}

	id, err := s.tests.Create(ctx, test)
	if err != nil {
		return nil, fmt.Errorf("create test: %w", err)
	}
	test.ID = id

	for _, v := range test.Variants {
		if _, err := s.scheduler.SchedulePromotion(ctx, contentID, variantScheduleInput(test.ID, v)); err != nil {
			return nil, fmt.Errorf("schedule variant %s: %w", v.ID, err)
		}
	}

	log.Printf("[abtest.Service] Created test %s for content %s with %d variants", test.ID, contentID, len(test.Variants))
	return test, nil
}

// variantScheduleInput maps a variant's promotion settings onto a schedule,
// tagging the settings with the owning test and variant.
func variantScheduleInput(testID string, v domain.Variant) promotion.ScheduleInput {
	settings := make(map[string]interface{}, len(v.PromotionSettings)+2)
	for k, val := range v.PromotionSettings {
		settings[k] = val
	}
	settings["ab_test_id"] = testID
	settings["variant_id"] = v.ID

	in := promotion.ScheduleInput{
		Platform:         "all",
		PlatformSettings: settings,
	}
	if p, ok := v.PromotionSettings["platform"].(string); ok && p != "" {
		in.Platform = p
	}
	if b, ok := v.PromotionSettings["budget"].(float64); ok && b > 0 {
		in.Budget = b
	}
	return in
}

// MetricsUpdate carries absolute per-field metric values. Nil fields keep
// their previous value; set fields overwrite, they do not add.
type MetricsUpdate struct {
	Views       *int64   `json:"views"`
	Engagement  *float64 `json:"engagement"`
	Conversions *int64   `json:"conversions"`
	Revenue     *float64 `json:"revenue"`
}

// UpdateTestMetrics merges reported metrics into a variant, then determines
// a winner if the test has enough data. Completed tests are frozen.
func (s *Service) UpdateTestMetrics(ctx context.Context, testID, variantID string, update MetricsUpdate) (*domain.ABTest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	test, err := s.tests.Get(ctx, testID)
	if err != nil {
		return nil, err
	}
	if test.Status == domain.ABTestCompleted {
		return nil, ErrTestCompleted
	}

	variant := test.VariantByID(variantID)
	if variant == nil {
		return nil, ErrVariantNotFound
	}

	if update.Views != nil {
		variant.Metrics.Views = *update.Views
	}
	if update.Engagement != nil {
		variant.Metrics.Engagement = *update.Engagement
	}
	if update.Conversions != nil {
		variant.Metrics.Conversions = *update.Conversions
	}
	if update.Revenue != nil {
		variant.Metrics.Revenue = *update.Revenue
	}

	if err := s.tests.UpdateVariants(ctx, testID, test.Variants); err != nil {
		return nil, fmt.Errorf("update variants: %w", err)
	}

	if s.ShouldDetermineWinner(test) {
		if _, err := s.determineWinner(ctx, test); err != nil {
			return nil, err
		}
		return s.tests.Get(ctx, testID)
	}
	return test, nil
}

// ShouldDetermineWinner reports whether the test has both run for the
// minimum duration and gathered the minimum aggregate views.
func (s *Service) ShouldDetermineWinner(test *domain.ABTest) bool {
	if s.now().Sub(test.StartDate) < MinTestDuration {
		return false
	}
	return test.TotalViews() >= MinTotalViews
}

// VariantScore combines a variant's metrics into a single comparable score.
func VariantScore(m domain.VariantMetrics) float64 {
	return float64(m.Views)*weightViews +
		m.Engagement*weightEngagement +
		float64(m.Conversions)*weightConversions +
		m.Revenue*weightRevenue
}

// DetermineWinner scores every variant, completes the test with the best
// one, and propagates the winning settings. Exact score ties keep the
// first-encountered variant. Calling it on a completed test is an error:
// the winner is set exactly once.
func (s *Service) DetermineWinner(ctx context.Context, testID string) (*domain.Variant, error) {
	test, err := s.tests.Get(ctx, testID)
	if err != nil {
		return nil, err
	}
	return s.determineWinner(ctx, test)
}

func (s *Service) determineWinner(ctx context.Context, test *domain.ABTest) (*domain.Variant, error) {
	if test.Status == domain.ABTestCompleted {
		return nil, ErrTestCompleted
	}
	if len(test.Variants) == 0 {
		return nil, fmt.Errorf("%w: test has no variants", ErrInvalidTest)
	}

	winner := &test.Variants[0]
	best := VariantScore(winner.Metrics)
	for i := 1; i < len(test.Variants); i++ {
		if score := VariantScore(test.Variants[i].Metrics); score > best {
			winner = &test.Variants[i]
			best = score
		}
	}

	if err := s.tests.Complete(ctx, test.ID, winner.ID, s.now()); err != nil {
		return nil, fmt.Errorf("complete test: %w", err)
	}
	log.Printf("[abtest.Service] Test %s completed, winner %s (score %.2f)", test.ID, winner.ID, best)

	if err := s.applyWinningSettings(ctx, test.ContentID, winner); err != nil {
		return nil, err
	}
	return winner, nil
}

// applyWinningSettings writes the winner's settings onto the content record
// and retargets every future-start schedule for that content.
func (s *Service) applyWinningSettings(ctx context.Context, contentID string, winner *domain.Variant) error {
	if err := s.content.UpdateOptimizedSettings(ctx, contentID, winner.PromotionSettings); err != nil {
		return fmt.Errorf("apply settings to content: %w", err)
	}

	scheds, err := s.scheduler.ContentSchedules(ctx, contentID)
	if err != nil {
		return fmt.Errorf("list content schedules: %w", err)
	}
	now := s.now()
	for _, sched := range scheds {
		if !sched.StartTime.After(now) {
			continue
		}
		if _, err := s.scheduler.UpdatePromotionSchedule(ctx, sched.ID, promotion.UpdateFields{
			PlatformSettings: winner.PromotionSettings,
		}); err != nil {
			return fmt.Errorf("update schedule %s: %w", sched.ID, err)
		}
	}
	return nil
}

// TestResults is a test together with its computed insights.
type TestResults struct {
	Test     *domain.ABTest `json:"test"`
	Insights *Insights      `json:"insights"`
}

// GetTestResults returns the test and, when a winner has been called, its
// per-metric improvements and recommendations.
func (s *Service) GetTestResults(ctx context.Context, testID string) (*TestResults, error) {
	test, err := s.tests.Get(ctx, testID)
	if err != nil {
		return nil, err
	}
	return &TestResults{
		Test:     test,
		Insights: GenerateInsights(test),
	}, nil
}
