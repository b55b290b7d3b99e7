package domain

import (
	"time"
)

// ABTestStatus enumerates the lifecycle states of an A/B test.
type ABTestStatus string

const (
	ABTestActive    ABTestStatus = "active"
	ABTestCompleted ABTestStatus = "completed"
)

// VariantMetrics accumulates per-variant performance counters. Callers
// report absolute values per field; updates overwrite by key, they do not
// add.
type VariantMetrics struct {
	Views       int64   `json:"views"`
	Engagement  float64 `json:"engagement"`
	Conversions int64   `json:"conversions"`
	Revenue     float64 `json:"revenue"`
}

// Variant is one configuration branch of an A/B test. Each variant is backed
// by its own PromotionSchedule, tagged with the test and variant ids.
type Variant struct {
	ID                string                 `json:"id"`
	PromotionSettings map[string]interface{} `json:"promotion_settings"`
	Metrics           VariantMetrics         `json:"metrics"`
}

// ABTest is an experiment comparing promotion-setting variants for one
// content item. Once Status is completed the metrics are frozen and the
// winner is never recomputed.
type ABTest struct {
	ID            string       `json:"id" db:"id"`
	ContentID     string       `json:"content_id" db:"content_id"`
	Variants      []Variant    `json:"variants" db:"variants"`
	StartDate     time.Time    `json:"start_date" db:"start_date"`
	Status        ABTestStatus `json:"status" db:"status"`
	Winner        *string      `json:"winner,omitempty" db:"winner"`
	CompletedDate *time.Time   `json:"completed_date,omitempty" db:"completed_date"`
}

// VariantByID returns the variant with the given id, or nil.
func (t *ABTest) VariantByID(id string) *Variant {
	for i := range t.Variants {
		if t.Variants[i].ID == id {
			return &t.Variants[i]
		}
	}
	return nil
}

// TotalViews sums views across all variants.
func (t *ABTest) TotalViews() int64 {
	var total int64
	for _, v := range t.Variants {
		total += v.Metrics.Views
	}
	return total
}
