package optimization

import (
	"fmt"
	"math"

	"github.com/ignite/autopromote/internal/domain"
)

// RiskProfile scales expected-revenue projections before computing ROI.
type RiskProfile string

const (
	RiskConservative RiskProfile = "conservative"
	RiskModerate     RiskProfile = "moderate"
	RiskAggressive   RiskProfile = "aggressive"
)

var riskMultipliers = map[RiskProfile]float64{
	RiskConservative: 0.7,
	RiskModerate:     1.0,
	RiskAggressive:   1.3,
}

// RiskLevel is the discrete investment-risk bucket derived from ROI and
// confidence.
type RiskLevel string

const (
	RiskVeryLow  RiskLevel = "very_low"
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskVeryHigh RiskLevel = "very_high"
)

// ROIEstimate is the projected outcome of spending a budget promoting one
// content item on one platform.
type ROIEstimate struct {
	ExpectedViews   int64       `json:"expected_views"`
	ExpectedRevenue float64     `json:"expected_revenue"`
	ROI             float64     `json:"roi"`
	ROIPercent      string      `json:"roi_percentage"`
	Confidence      float64     `json:"confidence_score"`
	RiskProfile     RiskProfile `json:"risk_profile"`
}

// viewPlatformMultipliers scales the 1M base view projection per platform.
var viewPlatformMultipliers = map[string]float64{
	PlatformYouTube:   1.5,
	PlatformTikTok:    1.8,
	PlatformInstagram: 1.3,
	PlatformTwitter:   1.0,
	PlatformFacebook:  1.4,
	PlatformLinkedIn:  1.2,
	PlatformPinterest: 1.6,
}

// viewTypeMultipliers scales view projections by content format.
var viewTypeMultipliers = map[string]float64{
	"video":   1.5,
	"image":   1.0,
	"article": 0.7,
	"story":   1.2,
	"reel":    1.8,
	"short":   2.0,
}

// platformConfidence caps prediction confidence per platform; platforms with
// noisier attribution get a lower ceiling.
var platformConfidence = map[string]float64{
	PlatformYouTube:   0.80,
	PlatformTikTok:    0.70,
	PlatformInstagram: 0.75,
	PlatformFacebook:  0.80,
	PlatformTwitter:   0.65,
	PlatformLinkedIn:  0.85,
	PlatformPinterest: 0.70,
}

// ExpectedViews projects view volume for content on a platform: 1M base,
// scaled by platform and format multipliers, a title-length bonus (+20% over
// 20 chars), a description bonus (+10% over 100 chars), and a clamped
// historical-views ratio when history is available.
func (m *Model) ExpectedViews(content *domain.Content, platform string, hist *domain.HistoricalMetrics) int64 {
	views := 1000000.0
	if mult, ok := viewPlatformMultipliers[platform]; ok {
		views *= mult
	}
	if mult, ok := viewTypeMultipliers[string(content.Type)]; ok {
		views *= mult
	}

	if len(content.Title) > 20 {
		views *= 1.2
	}
	if len(content.Description) > 100 {
		views *= 1.1
	}

	if hist != nil && hist.Views > 0 {
		views *= clamp(float64(hist.Views)/500000, 0.5, 2.0)
	}

	return int64(math.Round(views))
}

// ExpectedROI projects views, revenue, ROI, and confidence for spending the
// given budget on one platform. Budget must be positive; a zero or negative
// budget is a caller configuration error.
func (m *Model) ExpectedROI(content *domain.Content, platform string, budget float64, risk RiskProfile, hist *domain.HistoricalMetrics) (*ROIEstimate, error) {
	if budget <= 0 {
		return nil, ErrInvalidBudget
	}

	mult, ok := riskMultipliers[risk]
	if !ok {
		risk = RiskModerate
		mult = riskMultipliers[RiskModerate]
	}

	views := m.ExpectedViews(content, platform, hist)

	targetRPM := content.TargetRPM
	if targetRPM <= 0 {
		targetRPM = defaultTargetRPM
	}
	revenue := float64(views) / 1000000 * targetRPM * mult

	roi := (revenue - budget) / budget

	return &ROIEstimate{
		ExpectedViews:   views,
		ExpectedRevenue: revenue,
		ROI:             roi,
		ROIPercent:      fmt.Sprintf("%.1f", roi*100),
		Confidence:      m.ConfidenceScore(platform, hist),
		RiskProfile:     risk,
	}, nil
}

// ConfidenceScore rates how much to trust a projection: 0.7 base, +0.1 for
// each strong historical signal (views, conversion, engagement), scaled by
// the platform's confidence ceiling and clamped to [0.5, 0.95].
func (m *Model) ConfidenceScore(platform string, hist *domain.HistoricalMetrics) float64 {
	score := 0.7

	if hist != nil {
		if hist.Views > 1000 {
			score += 0.1
		}
		if hist.ConversionRate > 0.01 {
			score += 0.1
		}
		if hist.EngagementRate > 0.08 {
			score += 0.1
		}
	}

	ceiling, ok := platformConfidence[platform]
	if !ok {
		ceiling = 0.7
	}
	score *= ceiling

	return clamp(score, 0.5, 0.95)
}

// AssessRisk buckets an ROI/confidence pair into a discrete risk label using
// fixed thresholds.
func AssessRisk(roi, confidence float64) RiskLevel {
	switch {
	case roi > 2.0 && confidence > 0.8:
		return RiskVeryLow
	case roi > 1.5 && confidence > 0.7:
		return RiskLow
	case roi > 1.0 && confidence > 0.6:
		return RiskMedium
	case roi > 0.5 && confidence > 0.5:
		return RiskHigh
	default:
		return RiskVeryHigh
	}
}

// PriorityScore ranks platform plans; ROI dominates, confidence breaks near
// ties.
func PriorityScore(roi, confidence float64) float64 {
	return (roi*0.7 + confidence*0.3) * 100
}
