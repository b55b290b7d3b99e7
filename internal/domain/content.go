package domain

import (
	"time"
)

// ContentType enumerates the kinds of media a user can upload. The
// optimization model additionally scores derived formats (story, reel,
// short) that exist only as promotion variants, not as stored content.
type ContentType string

const (
	ContentVideo   ContentType = "video"
	ContentAudio   ContentType = "audio"
	ContentImage   ContentType = "image"
	ContentArticle ContentType = "article"
)

// ContentStatus enumerates the lifecycle states of uploaded content.
type ContentStatus string

const (
	ContentPending   ContentStatus = "pending"
	ContentApproved  ContentStatus = "approved"
	ContentDeclined  ContentStatus = "declined"
	ContentPublished ContentStatus = "published"
	ContentPaused    ContentStatus = "paused"
	ContentArchived  ContentStatus = "archived"
)

// Content represents a unit of user-submitted material together with its
// promotion targets and accrued performance counters. Views and Revenue are
// monotonically non-decreasing outside of explicit admin resets.
type Content struct {
	ID                string        `json:"id" db:"id"`
	UserID            string        `json:"user_id" db:"user_id"`
	Title             string        `json:"title" db:"title"`
	Type              ContentType   `json:"type" db:"type"`
	URL               string        `json:"url" db:"url"`
	Description       string        `json:"description" db:"description"`
	TargetPlatforms   []string      `json:"target_platforms" db:"target_platforms"`
	Status            ContentStatus `json:"status" db:"status"`
	Views             int64         `json:"views" db:"views"`
	Revenue           float64       `json:"revenue" db:"revenue"`
	TargetRPM         float64       `json:"target_rpm" db:"target_rpm"`
	MinViewsThreshold int64         `json:"min_views_threshold" db:"min_views_threshold"`
	MaxBudget         float64       `json:"max_budget" db:"max_budget"`

	// OptimizedPromotionSettings carries the winning configuration of a
	// completed A/B test, applied to all future promotions of this content.
	OptimizedPromotionSettings map[string]interface{} `json:"optimized_promotion_settings,omitempty" db:"optimized_promotion_settings"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsTerminal returns true if the content is in a final state.
func (c *Content) IsTerminal() bool {
	return c.Status == ContentDeclined || c.Status == ContentArchived
}

// HasPlatform reports whether the given platform is among the content's
// promotion targets.
func (c *Content) HasPlatform(platform string) bool {
	for _, p := range c.TargetPlatforms {
		if p == platform {
			return true
		}
	}
	return false
}

// HistoricalMetrics holds optional per-content performance history used to
// sharpen RPM, budget, and confidence estimates. A nil *HistoricalMetrics
// means "no history available"; estimators fall back to neutral defaults.
type HistoricalMetrics struct {
	Views               int64   `json:"views"`
	EngagementRate      float64 `json:"engagement_rate"`
	ConversionRate      float64 `json:"conversion_rate"`
	ContentQualityScore float64 `json:"content_quality_score"`
	ViralPotential      float64 `json:"viral_potential"`
}
