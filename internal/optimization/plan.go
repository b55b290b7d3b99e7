package optimization

import (
	"sort"

	"github.com/ignite/autopromote/internal/domain"
)

// PlatformPlan is one row of an optimized promotion plan: the recommended
// spend and projected outcome for a single platform.
type PlatformPlan struct {
	Platform           string    `json:"platform"`
	RecommendedBudget  float64   `json:"recommended_budget"`
	ExpectedViews      int64     `json:"expected_views"`
	ExpectedRevenue    float64   `json:"expected_revenue"`
	ExpectedROI        string    `json:"expected_roi"`
	Confidence         float64   `json:"confidence_score"`
	OptimalPostingTime string    `json:"optimal_posting_time"`
	Priority           float64   `json:"priority"`
	Risk               RiskLevel `json:"risk_level"`
}

// SchedulePlan builds a per-platform promotion plan for the content, ordered
// by priority descending. Platforms whose budget estimate comes out
// non-positive are skipped rather than producing a degenerate ROI.
func (m *Model) SchedulePlan(content *domain.Content, platforms []string, hist *domain.HistoricalMetrics) []PlatformPlan {
	plans := make([]PlatformPlan, 0, len(platforms))

	for _, platform := range platforms {
		budget := m.OptimalBudget(content, platform, hist)
		est, err := m.ExpectedROI(content, platform, budget, RiskModerate, hist)
		if err != nil {
			continue
		}

		plans = append(plans, PlatformPlan{
			Platform:           platform,
			RecommendedBudget:  budget,
			ExpectedViews:      est.ExpectedViews,
			ExpectedRevenue:    est.ExpectedRevenue,
			ExpectedROI:        est.ROIPercent,
			Confidence:         est.Confidence,
			OptimalPostingTime: OptimalPostingTime(platform),
			Priority:           PriorityScore(est.ROI, est.Confidence),
			Risk:               AssessRisk(est.ROI, est.Confidence),
		})
	}

	sort.Slice(plans, func(i, j int) bool {
		return plans[i].Priority > plans[j].Priority
	})
	return plans
}

// PlatformSettings returns the default platform-specific promotion settings
// applied when a schedule is created without explicit settings.
func (m *Model) PlatformSettings(content *domain.Content, platform string) map[string]interface{} {
	settings := map[string]interface{}{}

	switch platform {
	case PlatformYouTube:
		settings["optimal_time"] = OptimalPostingTime(platform)
		settings["target_cpm"] = m.OptimalRPM(string(content.Type), PlatformYouTube, nil) / 1000
		settings["audience_targeting"] = []string{"related_content", "demographic"}
	case PlatformTikTok:
		settings["optimal_time"] = OptimalPostingTime(platform)
		settings["hashtag_strategy"] = "trending"
		settings["video_length"] = "15-60s"
	case PlatformInstagram:
		settings["optimal_time"] = OptimalPostingTime(platform)
		settings["story_duration"] = "24h"
		settings["carousel_slides"] = 3
	case PlatformFacebook:
		settings["optimal_time"] = OptimalPostingTime(platform)
		settings["boost_duration"] = "7d"
		settings["targeting"] = []string{"interests", "location"}
	default:
		settings["optimal_time"] = "12:00-14:00"
	}

	return settings
}
