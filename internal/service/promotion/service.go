package promotion

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/autopromote/internal/domain"
	"github.com/ignite/autopromote/internal/optimization"
)

// Service implements promotion schedule business logic. It coordinates
// between the repository layer and the optimization model. All public
// methods are safe for concurrent use if the underlying repositories are
// concurrency-safe.
type Service struct {
	content   ContentRepository
	schedules ScheduleRepository
	model     *optimization.Model
	history   HistoryProvider // optional, may be nil
	now       func() time.Time
}

// NewService creates a promotion service backed by the given repositories.
// history may be nil; estimates then use neutral defaults.
func NewService(content ContentRepository, schedules ScheduleRepository, model *optimization.Model, history HistoryProvider) *Service {
	return &Service{
		content:   content,
		schedules: schedules,
		model:     model,
		history:   history,
		now:       time.Now,
	}
}

// SetClock replaces the time source, for deterministic tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// ScheduleInput holds the fields for creating a new promotion schedule.
// Budget zero means "estimate it"; an explicit negative budget is rejected.
type ScheduleInput struct {
	Platform         string                    `json:"platform"`
	ScheduleType     domain.ScheduleType       `json:"schedule_type"`
	StartTime        time.Time                 `json:"start_time"`
	EndTime          *time.Time                `json:"end_time"`
	Frequency        domain.Frequency          `json:"frequency"`
	Budget           float64                   `json:"budget"`
	TargetMetrics    domain.TargetMetrics      `json:"target_metrics"`
	PlatformSettings map[string]interface{}    `json:"platform_specific_settings"`
	Recurrence       *domain.RecurrencePattern `json:"recurrence_pattern"`
	MaxOccurrences   *int                      `json:"max_occurrences"`
	Timezone         string                    `json:"timezone"`
}

func (in *ScheduleInput) validate() error {
	if in.Platform == "" {
		return fmt.Errorf("%w: platform is required", ErrInvalidSchedule)
	}
	if !optimization.KnownPlatform(in.Platform) {
		return fmt.Errorf("%w: unknown platform %q", ErrInvalidSchedule, in.Platform)
	}
	if in.Budget < 0 {
		return fmt.Errorf("%w: budget must not be negative", ErrInvalidSchedule)
	}
	if in.EndTime != nil && !in.StartTime.IsZero() && in.EndTime.Before(in.StartTime) {
		return fmt.Errorf("%w: end_time before start_time", ErrInvalidSchedule)
	}
	if in.MaxOccurrences != nil && *in.MaxOccurrences < 1 {
		return fmt.Errorf("%w: max_occurrences must be at least 1", ErrInvalidSchedule)
	}
	return nil
}

// SchedulePromotion validates and persists a new promotion schedule for the
// content. Platform settings and budget are filled from the optimization
// model when absent. A recurring schedule immediately gets one
// next-occurrence record, subject to the max-occurrence cap.
func (s *Service) SchedulePromotion(ctx context.Context, contentID string, in ScheduleInput) (*domain.PromotionSchedule, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	content, err := s.content.Get(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if content.IsTerminal() {
		return nil, fmt.Errorf("%w: content %s is %s and cannot be promoted",
			ErrInvalidSchedule, contentID, content.Status)
	}

	var hist *domain.HistoricalMetrics
	if s.history != nil {
		hist = s.history.History(ctx, contentID)
	}

	settings := in.PlatformSettings
	if settings == nil && in.Platform != optimization.PlatformAll {
		settings = s.model.PlatformSettings(content, in.Platform)
	}

	budget := in.Budget
	if budget == 0 {
		budget = s.model.OptimalBudget(content, in.Platform, hist)
	}

	scheduleType := in.ScheduleType
	if scheduleType == "" {
		scheduleType = domain.ScheduleSpecific
	}
	frequency := in.Frequency
	if frequency == "" {
		frequency = domain.FreqOnce
	}
	timezone := in.Timezone
	if timezone == "" {
		timezone = "UTC"
	}
	startTime := in.StartTime
	if startTime.IsZero() {
		startTime = s.now()
	}

	now := s.now()
	sched := &domain.PromotionSchedule{
		ID:               uuid.New().String(),
		ContentID:        contentID,
		Platform:         in.Platform,
		ScheduleType:     scheduleType,
		StartTime:        startTime,
		EndTime:          in.EndTime,
		Frequency:        frequency,
		IsActive:         true,
		Status:           domain.ScheduleScheduled,
		Budget:           budget,
		TargetMetrics:    in.TargetMetrics,
		PlatformSettings: settings,
		Recurrence:       in.Recurrence,
		MaxOccurrences:   in.MaxOccurrences,
		Timezone:         timezone,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	id, err := s.schedules.Create(ctx, sched)
	if err != nil {
		return nil, fmt.Errorf("create schedule: %w", err)
	}
	sched.ID = id
	log.Printf("[promotion.Service] Scheduled promotion %s for content %s on %s", sched.ID, contentID, sched.Platform)

	if sched.IsRecurring() {
		if _, err := s.createNextRecurrence(ctx, sched); err != nil {
			// Recurrence creation is best-effort at schedule time; the sweep
			// will retry when the occurrence completes.
			log.Printf("[promotion.Service] next recurrence for %s failed: %v", sched.ID, err)
		}
	}

	return sched, nil
}

// createNextRecurrence persists the next occurrence of a recurring schedule.
// Occurrences form a chain rooted at the first schedule: every generated
// record references the root as parent, so the cap counts the whole chain.
// Returns (nil, nil) when the frequency doesn't recur or the cap is reached.
func (s *Service) createNextRecurrence(ctx context.Context, sched *domain.PromotionSchedule) (*domain.PromotionSchedule, error) {
	next, ok := NextPromotionTime(sched.StartTime, sched.Frequency, sched.Recurrence)
	if !ok {
		return nil, nil
	}

	rootID := sched.ID
	if sched.ParentScheduleID != nil {
		rootID = *sched.ParentScheduleID
	}

	if sched.MaxOccurrences != nil {
		count, err := s.schedules.CountOccurrences(ctx, rootID)
		if err != nil {
			return nil, fmt.Errorf("count occurrences: %w", err)
		}
		if count >= *sched.MaxOccurrences {
			log.Printf("[promotion.Service] Max occurrences (%d) reached for schedule %s", *sched.MaxOccurrences, rootID)
			return nil, nil
		}
	}

	now := s.now()
	child := &domain.PromotionSchedule{
		ID:               uuid.New().String(),
		ContentID:        sched.ContentID,
		Platform:         sched.Platform,
		ScheduleType:     sched.ScheduleType,
		StartTime:        next,
		Frequency:        sched.Frequency,
		IsActive:         sched.IsActive,
		Status:           domain.ScheduleScheduled,
		Budget:           sched.Budget,
		TargetMetrics:    sched.TargetMetrics,
		PlatformSettings: sched.PlatformSettings,
		Recurrence:       sched.Recurrence,
		MaxOccurrences:   sched.MaxOccurrences,
		ParentScheduleID: &rootID,
		Timezone:         sched.Timezone,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	id, err := s.schedules.Create(ctx, child)
	if err != nil {
		return nil, fmt.Errorf("create recurrence: %w", err)
	}
	child.ID = id
	return child, nil
}

// OccurrenceCount returns the schedule itself plus all generated occurrences
// referencing it as parent.
func (s *Service) OccurrenceCount(ctx context.Context, scheduleID string) (int, error) {
	return s.schedules.CountOccurrences(ctx, scheduleID)
}

// ProcessCompletedPromotions scans active schedules whose end time has
// passed, marks them completed in one atomic batch, then spawns next
// occurrences for the recurring ones. Returns the number processed. It is
// invoked periodically by the sweeper worker; the service does not
// self-schedule.
func (s *Service) ProcessCompletedPromotions(ctx context.Context) (int, error) {
	now := s.now()

	due, err := s.schedules.ListActiveDue(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list due schedules: %w", err)
	}
	if len(due) == 0 {
		return 0, nil
	}

	ids := make([]string, len(due))
	for i, sched := range due {
		ids[i] = sched.ID
	}
	if err := s.schedules.CompleteBatch(ctx, ids, now); err != nil {
		return 0, fmt.Errorf("complete batch: %w", err)
	}

	// Recurrence creation happens outside the batch; a failure here leaves
	// the completion intact and is retried on the next sweep only for
	// schedules still active, so log and continue.
	for i := range due {
		if !due[i].IsRecurring() {
			continue
		}
		if _, err := s.createNextRecurrence(ctx, &due[i]); err != nil {
			log.Printf("[promotion.Service] recurrence for %s failed: %v", due[i].ID, err)
		}
	}

	log.Printf("[promotion.Service] Processed %d completed promotions", len(due))
	return len(due), nil
}

// UpdatePromotionSchedule applies the non-nil fields and returns the updated
// schedule.
func (s *Service) UpdatePromotionSchedule(ctx context.Context, id string, u UpdateFields) (*domain.PromotionSchedule, error) {
	if u.Budget != nil && *u.Budget < 0 {
		return nil, fmt.Errorf("%w: budget must not be negative", ErrInvalidSchedule)
	}
	if u.Platform != nil && !optimization.KnownPlatform(*u.Platform) {
		return nil, fmt.Errorf("%w: unknown platform %q", ErrInvalidSchedule, *u.Platform)
	}
	return s.schedules.Update(ctx, id, u)
}

// DeletePromotionSchedule removes a schedule and all of its generated
// occurrences in one atomic batch.
func (s *Service) DeletePromotionSchedule(ctx context.Context, id string) error {
	if _, err := s.schedules.Get(ctx, id); err != nil {
		return err
	}
	return s.schedules.DeleteWithChildren(ctx, id)
}

// GetActivePromotions returns active schedules whose start time has arrived,
// hydrated with their content records. Platform and budget filters push down
// to the store; the content-type filter is applied in memory after
// hydration. Schedules whose content no longer resolves are skipped.
func (s *Service) GetActivePromotions(ctx context.Context, f ActiveFilter) ([]domain.PromotionSchedule, error) {
	scheds, err := s.schedules.ListActiveStarted(ctx, s.now(), f)
	if err != nil {
		return nil, fmt.Errorf("list active schedules: %w", err)
	}

	out := make([]domain.PromotionSchedule, 0, len(scheds))
	for i := range scheds {
		content, err := s.content.Get(ctx, scheds[i].ContentID)
		if err != nil {
			continue
		}
		if f.ContentType != "" && string(content.Type) != f.ContentType {
			continue
		}
		scheds[i].Content = content
		out = append(out, scheds[i])
	}
	return out, nil
}

// ContentSchedules returns all schedules for a content id ordered by start
// time.
func (s *Service) ContentSchedules(ctx context.Context, contentID string) ([]domain.PromotionSchedule, error) {
	return s.schedules.ListByContent(ctx, contentID)
}

// GetSchedule returns a single promotion schedule.
func (s *Service) GetSchedule(ctx context.Context, id string) (*domain.PromotionSchedule, error) {
	return s.schedules.Get(ctx, id)
}

// Analytics is a performance snapshot plus recommendations for one schedule.
type Analytics struct {
	Schedule        *domain.PromotionSchedule     `json:"schedule"`
	History         *domain.HistoricalMetrics     `json:"history,omitempty"`
	Estimate        *optimization.ROIEstimate     `json:"estimate,omitempty"`
	Recommendations []optimization.Recommendation `json:"recommendations"`
}

// GetPromotionAnalytics returns the schedule hydrated with content, the
// recorded historical metrics (when available), an ROI projection for the
// schedule's budget, and the generated recommendations.
func (s *Service) GetPromotionAnalytics(ctx context.Context, scheduleID string) (*Analytics, error) {
	sched, err := s.schedules.Get(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	content, err := s.content.Get(ctx, sched.ContentID)
	if err != nil {
		return nil, err
	}
	sched.Content = content

	var hist *domain.HistoricalMetrics
	if s.history != nil {
		hist = s.history.History(ctx, sched.ContentID)
	}

	a := &Analytics{
		Schedule:        sched,
		History:         hist,
		Recommendations: s.model.Recommendations(content, hist),
	}
	if sched.Budget > 0 {
		est, err := s.model.ExpectedROI(content, sched.Platform, sched.Budget, optimization.RiskModerate, hist)
		if err == nil {
			a.Estimate = est
		}
	}
	return a, nil
}

// BulkResult is the outcome of one item in a bulk scheduling request.
type BulkResult struct {
	ContentID string                    `json:"content_id"`
	Success   bool                      `json:"success"`
	Schedule  *domain.PromotionSchedule `json:"schedule,omitempty"`
	Error     string                    `json:"error,omitempty"`
}

// BulkSchedulePromotions applies one schedule template across many content
// ids. Failures are per-item; one bad content id does not abort the rest.
func (s *Service) BulkSchedulePromotions(ctx context.Context, contentIDs []string, template ScheduleInput) []BulkResult {
	results := make([]BulkResult, 0, len(contentIDs))
	for _, contentID := range contentIDs {
		sched, err := s.SchedulePromotion(ctx, contentID, template)
		if err != nil {
			results = append(results, BulkResult{ContentID: contentID, Error: err.Error()})
			continue
		}
		results = append(results, BulkResult{ContentID: contentID, Success: true, Schedule: sched})
	}
	return results
}
