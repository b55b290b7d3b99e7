package abtest

import (
	"fmt"
	"math"

	"github.com/ignite/autopromote/internal/domain"
)

// Insights summarizes how the winning variant outperformed the rest.
type Insights struct {
	// ConfidenceLevel is a fixed placeholder until a real significance test
	// replaces it.
	ConfidenceLevel int                     `json:"confidence_level"`
	Improvements    map[string]float64      `json:"improvements"`
	Recommendations []InsightRecommendation `json:"recommendations"`
}

// InsightRecommendation is one heuristic takeaway from a completed test.
type InsightRecommendation struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// GenerateInsights computes per-metric percentage improvement of the winner
// against the mean of the losing variants. Metrics whose baseline mean is
// zero report zero improvement rather than dividing by zero. Tests without a
// winner get empty improvements.
func GenerateInsights(test *domain.ABTest) *Insights {
	insights := &Insights{
		ConfidenceLevel: 95,
		Improvements:    map[string]float64{"views": 0, "engagement": 0, "conversions": 0, "revenue": 0},
	}
	if test.Winner == nil {
		return insights
	}

	winner := test.VariantByID(*test.Winner)
	if winner == nil {
		return insights
	}

	var losers []domain.Variant
	for _, v := range test.Variants {
		if v.ID != *test.Winner {
			losers = append(losers, v)
		}
	}
	if len(losers) > 0 {
		n := float64(len(losers))
		var views, engagement, conversions, revenue float64
		for _, v := range losers {
			views += float64(v.Metrics.Views)
			engagement += v.Metrics.Engagement
			conversions += float64(v.Metrics.Conversions)
			revenue += v.Metrics.Revenue
		}
		insights.Improvements["views"] = improvement(float64(winner.Metrics.Views), views/n)
		insights.Improvements["engagement"] = improvement(winner.Metrics.Engagement, engagement/n)
		insights.Improvements["conversions"] = improvement(float64(winner.Metrics.Conversions), conversions/n)
		insights.Improvements["revenue"] = improvement(winner.Metrics.Revenue, revenue/n)
	}

	insights.Recommendations = recommendationsFor(winner)
	return insights
}

// improvement is the winner's percentage gain over the baseline, rounded to
// two decimals. A zero baseline yields zero: percentage improvement over
// nothing is undefined, and surfacing +Inf helps nobody.
func improvement(winner, baseline float64) float64 {
	if baseline == 0 {
		return 0
	}
	return math.Round((winner-baseline)/baseline*100*100) / 100
}

// recommendationsFor derives takeaways from what the winning variant's
// settings actually changed.
func recommendationsFor(winner *domain.Variant) []InsightRecommendation {
	var recs []InsightRecommendation

	if platform, ok := winner.PromotionSettings["platform"].(string); ok && platform != "" {
		recs = append(recs, InsightRecommendation{
			Type:    "platform",
			Message: fmt.Sprintf("Focus promotion efforts on %s", platform),
		})
	}
	if _, ok := winner.PromotionSettings["target_audience"]; ok {
		recs = append(recs, InsightRecommendation{
			Type:    "audience",
			Message: "Target similar demographic profiles for future promotions",
		})
	}
	return recs
}
