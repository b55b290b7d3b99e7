package optimization

import (
	"math"
	"time"

	"github.com/ignite/autopromote/internal/domain"
)

// baseRPM is the per-platform starting revenue-per-million, before any
// content or history adjustments.
var baseRPM = map[string]float64{
	PlatformYouTube:   800000,
	PlatformTikTok:    600000,
	PlatformInstagram: 700000,
	PlatformTwitter:   500000,
	PlatformFacebook:  650000,
	PlatformLinkedIn:  750000,
	PlatformPinterest: 550000,
}

// rpmTypeMultipliers scales RPM by content format. Short-form video formats
// out-earn static formats on every platform we track.
var rpmTypeMultipliers = map[string]float64{
	"video":   1.2,
	"image":   1.0,
	"article": 0.8,
	"story":   1.1,
	"reel":    1.3,
	"short":   1.4,
}

// engagementCurve is a per-platform linear response to engagement rate:
// multiplier = 1 + (rate - pivot) * slope. The pivot is the platform's
// typical engagement rate; the slope reflects how strongly yield responds.
type engagementCurve struct {
	pivot float64
	slope float64
}

var engagementCurves = map[string]engagementCurve{
	PlatformYouTube:   {0.10, 0.8},
	PlatformTikTok:    {0.15, 1.2},
	PlatformInstagram: {0.08, 0.9},
	PlatformTwitter:   {0.05, 0.6},
	PlatformFacebook:  {0.06, 0.7},
	PlatformLinkedIn:  {0.04, 0.5},
	PlatformPinterest: {0.12, 1.0},
}

var defaultEngagementCurve = engagementCurve{0.10, 0.5}

// seasonalPatterns holds a per-platform multiplier for each calendar month
// (index 0 = January). YouTube peaks in Nov-Dec, TikTok in summer,
// Instagram in Sep-Dec, Pinterest around the holidays.
var seasonalPatterns = map[string][12]float64{
	PlatformYouTube:   {1.1, 1.0, 1.0, 0.9, 0.9, 0.8, 0.8, 0.9, 1.0, 1.1, 1.2, 1.2},
	PlatformTikTok:    {1.0, 0.9, 1.0, 1.1, 1.2, 1.3, 1.2, 1.1, 1.0, 0.9, 0.8, 0.9},
	PlatformInstagram: {1.0, 0.9, 1.0, 1.1, 1.1, 1.0, 1.0, 1.1, 1.2, 1.1, 1.0, 1.2},
	PlatformFacebook:  {1.1, 1.0, 0.9, 0.8, 0.9, 1.0, 1.1, 1.2, 1.1, 1.0, 1.1, 1.2},
	PlatformTwitter:   {1.0, 1.0, 1.1, 1.1, 1.0, 0.9, 0.8, 0.9, 1.0, 1.1, 1.2, 1.1},
	PlatformLinkedIn:  {0.9, 1.0, 1.1, 1.2, 1.1, 1.0, 0.8, 0.9, 1.1, 1.2, 1.1, 0.9},
	PlatformPinterest: {1.2, 1.1, 1.0, 0.9, 0.8, 0.9, 1.0, 1.1, 1.2, 1.3, 1.2, 1.3},
}

// OptimalRPM estimates the revenue-per-million target for a content type on
// a platform. Unknown platforms and types fall back to neutral defaults.
// Historical metrics, when present, adjust the estimate through clamped
// engagement, quality, and viral-potential factors. The result is rounded to
// the nearest integer RPM.
func (m *Model) OptimalRPM(contentType, platform string, hist *domain.HistoricalMetrics) float64 {
	rpm, ok := baseRPM[platform]
	if !ok {
		rpm = defaultBaseRPM
	}

	if mult, ok := rpmTypeMultipliers[contentType]; ok {
		rpm *= mult
	}

	if hist != nil && hist.EngagementRate > 0 {
		rpm *= clamp(m.engagementMultiplier(hist.EngagementRate, platform), 0.7, 1.8)
	}

	rpm *= m.seasonalMultiplier(m.now().Month(), platform)

	if hist != nil && hist.ContentQualityScore > 0 {
		rpm *= clamp(hist.ContentQualityScore, 0.8, 1.3)
	}
	if hist != nil && hist.ViralPotential > 0 {
		rpm *= clamp(hist.ViralPotential, 0.9, 1.5)
	}

	return math.Round(rpm)
}

// engagementMultiplier applies the platform's linear engagement curve.
func (m *Model) engagementMultiplier(rate float64, platform string) float64 {
	curve, ok := engagementCurves[platform]
	if !ok {
		curve = defaultEngagementCurve
	}
	return 1 + (rate-curve.pivot)*curve.slope
}

// seasonalMultiplier returns the month multiplier for a platform, 1.0 when
// the platform has no seasonal table.
func (m *Model) seasonalMultiplier(month time.Month, platform string) float64 {
	pattern, ok := seasonalPatterns[platform]
	if !ok {
		return 1.0
	}
	return pattern[int(month)-1]
}
