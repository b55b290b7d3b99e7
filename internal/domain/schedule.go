package domain

import (
	"time"
)

// ScheduleType enumerates how a promotion schedule is driven.
type ScheduleType string

const (
	ScheduleSpecific   ScheduleType = "specific"
	ScheduleRecurring  ScheduleType = "recurring"
	ScheduleContinuous ScheduleType = "continuous"
)

// Frequency enumerates the recurrence cadence of a promotion schedule.
type Frequency string

const (
	FreqOnce      Frequency = "once"
	FreqHourly    Frequency = "hourly"
	FreqDaily     Frequency = "daily"
	FreqWeekly    Frequency = "weekly"
	FreqBiweekly  Frequency = "biweekly"
	FreqMonthly   Frequency = "monthly"
	FreqQuarterly Frequency = "quarterly"
)

// ScheduleStatus enumerates the lifecycle states of a single occurrence.
// A recurring schedule is a chain of occurrences linked via ParentScheduleID.
type ScheduleStatus string

const (
	ScheduleScheduled ScheduleStatus = "scheduled"
	ScheduleCompleted ScheduleStatus = "completed"
)

// RecurrenceUnit is the time unit of a custom recurrence pattern.
type RecurrenceUnit string

const (
	RecurDays   RecurrenceUnit = "days"
	RecurWeeks  RecurrenceUnit = "weeks"
	RecurMonths RecurrenceUnit = "months"
)

// RecurrencePattern overrides the frequency table with a custom interval.
type RecurrencePattern struct {
	Type     string         `json:"type"` // only "custom" is recognized
	Unit     RecurrenceUnit `json:"unit"`
	Interval int            `json:"interval"`
}

// TargetMetrics holds the performance goals attached to a schedule.
type TargetMetrics struct {
	TargetViews int64   `json:"target_views,omitempty"`
	TargetRPM   float64 `json:"target_rpm,omitempty"`
}

// PromotionSchedule is a plan to promote one piece of content on a platform
// (or "all"). Recurring schedules spawn exactly one next-occurrence record on
// completion, capped by MaxOccurrences when set.
type PromotionSchedule struct {
	ID               string                 `json:"id" db:"id"`
	ContentID        string                 `json:"content_id" db:"content_id"`
	Platform         string                 `json:"platform" db:"platform"`
	ScheduleType     ScheduleType           `json:"schedule_type" db:"schedule_type"`
	StartTime        time.Time              `json:"start_time" db:"start_time"`
	EndTime          *time.Time             `json:"end_time,omitempty" db:"end_time"`
	Frequency        Frequency              `json:"frequency" db:"frequency"`
	IsActive         bool                   `json:"is_active" db:"is_active"`
	Status           ScheduleStatus         `json:"status" db:"status"`
	Budget           float64                `json:"budget" db:"budget"`
	TargetMetrics    TargetMetrics          `json:"target_metrics" db:"target_metrics"`
	PlatformSettings map[string]interface{} `json:"platform_specific_settings,omitempty" db:"platform_specific_settings"`
	Recurrence       *RecurrencePattern     `json:"recurrence_pattern,omitempty" db:"recurrence_pattern"`
	MaxOccurrences   *int                   `json:"max_occurrences,omitempty" db:"max_occurrences"`
	ParentScheduleID *string                `json:"parent_schedule_id,omitempty" db:"parent_schedule_id"`
	Timezone         string                 `json:"timezone" db:"timezone"`
	CompletedAt      *time.Time             `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt        time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at" db:"updated_at"`

	// Content is populated by hydrating queries (e.g. active promotions);
	// it is never written back through the schedule.
	Content *Content `json:"content,omitempty" db:"-"`
}

// IsRecurring reports whether completing this schedule should spawn a
// next occurrence.
func (s *PromotionSchedule) IsRecurring() bool {
	return s.Frequency != "" && s.Frequency != FreqOnce
}
