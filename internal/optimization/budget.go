package optimization

import (
	"math"

	"github.com/ignite/autopromote/internal/domain"
)

// baseBudget is the per-platform starting daily budget in dollars.
var baseBudget = map[string]float64{
	PlatformYouTube:   300,
	PlatformTikTok:    200,
	PlatformInstagram: 250,
	PlatformTwitter:   150,
	PlatformFacebook:  280,
	PlatformLinkedIn:  320,
	PlatformPinterest: 180,
}

// timePatterns holds a per-platform spend multiplier for each hour of day
// (index 0 = midnight). Platforms without a table get a flat 1.0.
var timePatterns = map[string][24]float64{
	PlatformYouTube: {0.8, 0.7, 0.6, 0.5, 0.6, 0.8, 1.2, 1.4, 1.6, 1.8, 1.9, 2.0,
		1.8, 1.6, 1.4, 1.2, 1.4, 1.6, 1.8, 2.0, 1.8, 1.6, 1.4, 1.2},
	PlatformTikTok: {1.2, 1.1, 1.0, 0.9, 0.8, 0.9, 1.1, 1.3, 1.5, 1.6, 1.7, 1.8,
		1.6, 1.4, 1.2, 1.1, 1.2, 1.4, 1.6, 1.8, 2.0, 1.8, 1.6, 1.4},
	PlatformInstagram: {0.9, 0.8, 0.7, 0.6, 0.7, 0.9, 1.2, 1.4, 1.6, 1.7, 1.8, 1.9,
		1.7, 1.5, 1.3, 1.2, 1.3, 1.5, 1.7, 1.9, 1.8, 1.6, 1.4, 1.1},
	PlatformFacebook: {1.0, 0.9, 0.8, 0.7, 0.8, 1.0, 1.3, 1.5, 1.7, 1.8, 1.7, 1.6,
		1.4, 1.2, 1.1, 1.0, 1.1, 1.3, 1.5, 1.7, 1.6, 1.4, 1.2, 1.0},
}

// OptimalBudget estimates the daily budget for promoting content on a
// platform. The base figure scales with the content's target RPM and
// minimum-views threshold, historical conversion performance, and the
// platform's hour-of-day spend pattern. Rounded to the nearest dollar.
func (m *Model) OptimalBudget(content *domain.Content, platform string, hist *domain.HistoricalMetrics) float64 {
	budget, ok := baseBudget[platform]
	if !ok {
		budget = defaultBaseBudget
	}

	if content.TargetRPM > 0 {
		budget *= clamp(content.TargetRPM/defaultTargetRPM, 0.5, 2.0)
	}

	if content.MinViewsThreshold > 0 {
		budget *= clamp(float64(content.MinViewsThreshold)/1000000, 0.8, 1.5)
	}

	if hist != nil && hist.ConversionRate > 0 {
		// 2% conversion is the break-even pivot; each point above or below
		// moves the budget 10x as fast, clamped.
		budget *= clamp(1+(hist.ConversionRate-0.02)*10, 0.7, 1.5)
	}

	budget *= m.timeOfDayMultiplier(m.now().Hour(), platform)

	return math.Round(budget)
}

// timeOfDayMultiplier returns the hour multiplier for a platform, 1.0 when
// the platform has no spend pattern.
func (m *Model) timeOfDayMultiplier(hour int, platform string) float64 {
	pattern, ok := timePatterns[platform]
	if !ok {
		return 1.0
	}
	return pattern[hour]
}
