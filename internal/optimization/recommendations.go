package optimization

import (
	"fmt"
	"math"

	"github.com/ignite/autopromote/internal/domain"
)

// Recommendation kinds emitted by the generator.
const (
	RecRPMOptimization     = "rpm_optimization"
	RecBudgetReallocation  = "budget_reallocation"
	RecContentOptimization = "content_optimization"
	RecPlatformExpansion   = "platform_expansion"
	RecTimingOptimization  = "timing_optimization"
)

// Recommendation is one actionable suggestion for improving a content item's
// promotion configuration. Fields beyond Type/Message/Impact/Action are
// populated per kind.
type Recommendation struct {
	Type              string             `json:"type"`
	Platform          string             `json:"platform,omitempty"`
	Message           string             `json:"message"`
	Impact            string             `json:"impact"`
	Action            string             `json:"action"`
	EstimatedImpact   string             `json:"estimated_impact,omitempty"`
	PlatformBreakdown map[string]float64 `json:"platform_breakdown,omitempty"`
	PotentialReach    string             `json:"potential_reach,omitempty"`
	OptimalTimes      map[string]string  `json:"optimal_times,omitempty"`
}

// optimalPostingWindows is the static per-platform peak-hours lookup.
var optimalPostingWindows = map[string]string{
	PlatformYouTube:   "15:00-17:00",
	PlatformTikTok:    "19:00-21:00",
	PlatformInstagram: "11:00-13:00, 19:00-21:00",
	PlatformFacebook:  "09:00-11:00, 13:00-15:00",
	PlatformTwitter:   "08:00-10:00, 16:00-18:00",
	PlatformLinkedIn:  "08:00-10:00, 17:00-19:00",
	PlatformPinterest: "14:00-16:00, 20:00-22:00",
}

// reachPotentials is the static audience-size string per platform.
var reachPotentials = map[string]string{
	PlatformYouTube:   "2.5B+ monthly users",
	PlatformTikTok:    "1.2B+ monthly users",
	PlatformInstagram: "2.0B+ monthly users",
	PlatformFacebook:  "3.0B+ monthly users",
	PlatformTwitter:   "500M+ monthly users",
	PlatformLinkedIn:  "900M+ monthly users",
	PlatformPinterest: "450M+ monthly users",
}

// OptimalPostingTime returns the peak posting window for a platform.
func OptimalPostingTime(platform string) string {
	if w, ok := optimalPostingWindows[platform]; ok {
		return w
	}
	return "12:00-14:00"
}

// PlatformReachPotential returns the static reach string for a platform.
func PlatformReachPotential(platform string) string {
	if r, ok := reachPotentials[platform]; ok {
		return r
	}
	return "Unknown reach"
}

// Recommendations compares the content's current configuration against the
// model's recommended values and emits suggestions in insertion order:
// per-platform RPM deltas, budget reallocation, content quality, platform
// expansion, then timing. There are no failure modes; absent inputs default.
func (m *Model) Recommendations(content *domain.Content, hist *domain.HistoricalMetrics) []Recommendation {
	var recs []Recommendation

	currentRPM := content.TargetRPM
	if currentRPM <= 0 {
		currentRPM = defaultTargetRPM
	}
	platforms := content.TargetPlatforms
	if len(platforms) == 0 {
		platforms = DefaultPlatforms
	}

	// RPM headroom per platform: flag anything more than 15% above target.
	for _, platform := range platforms {
		optimal := m.OptimalRPM(string(content.Type), platform, hist)
		if optimal > currentRPM*1.15 {
			recs = append(recs, Recommendation{
				Type:     RecRPMOptimization,
				Platform: platform,
				Message: fmt.Sprintf("Increase %s target RPM from %.0f to %.0f",
					platform, currentRPM, optimal),
				Impact: "high",
				Action: "update_target_rpm",
				EstimatedImpact: fmt.Sprintf("+%dk revenue per million views",
					int(math.Round((optimal-currentRPM)/1000))),
			})
		}
	}

	// Budget fit: one reallocation suggestion when the recommended spread
	// exceeds the cap by more than 20%.
	if content.MaxBudget > 0 {
		breakdown := make(map[string]float64, len(platforms))
		total := 0.0
		for _, platform := range platforms {
			b := m.OptimalBudget(content, platform, hist)
			breakdown[platform] = b
			total += b
		}
		if total > content.MaxBudget*1.2 {
			recs = append(recs, Recommendation{
				Type: RecBudgetReallocation,
				Message: fmt.Sprintf("Reallocate budget across platforms for better ROI. Current: $%.0f, Recommended: $%.0f",
					content.MaxBudget, total),
				Impact:            "high",
				Action:            "reallocate_budget",
				PlatformBreakdown: breakdown,
			})
		}
	}

	if len(content.Title) > 0 && len(content.Title) < 20 {
		recs = append(recs, Recommendation{
			Type:    RecContentOptimization,
			Message: "Consider making title more descriptive (20+ characters for better engagement)",
			Impact:  "medium",
			Action:  "improve_title",
		})
	}
	if len(content.Description) < 50 {
		recs = append(recs, Recommendation{
			Type:    RecContentOptimization,
			Message: "Add detailed description (50+ characters for better SEO and engagement)",
			Impact:  "medium",
			Action:  "add_description",
		})
	}

	// Expansion only applies to content with explicit targets; content with
	// none is already evaluated against the full default set above.
	if len(content.TargetPlatforms) > 0 {
		for _, platform := range DefaultPlatforms {
			if content.HasPlatform(platform) {
				continue
			}
			recs = append(recs, Recommendation{
				Type:           RecPlatformExpansion,
				Platform:       platform,
				Message:        fmt.Sprintf("Add %s to target platforms for additional reach", platform),
				Impact:         "medium",
				Action:         "add_platform",
				PotentialReach: PlatformReachPotential(platform),
			})
		}
	}

	times := make(map[string]string, len(platforms))
	for _, platform := range platforms {
		times[platform] = OptimalPostingTime(platform)
	}
	recs = append(recs, Recommendation{
		Type:         RecTimingOptimization,
		Message:      "Optimize posting schedule based on platform peak hours",
		Impact:       "medium",
		Action:       "optimize_schedule",
		OptimalTimes: times,
	})

	return recs
}
