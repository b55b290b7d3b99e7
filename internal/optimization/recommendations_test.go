package optimization

import (
	"testing"

	"github.com/ignite/autopromote/internal/domain"
)

func countByType(recs []Recommendation, typ string) int {
	n := 0
	for _, r := range recs {
		if r.Type == typ {
			n++
		}
	}
	return n
}

func TestRecommendationsLowRPMShortTitleNoDescription(t *testing.T) {
	m := NewModelWithClock(fixedClock)

	// Target RPM of 100k is far below any youtube estimate, the title is 10
	// chars, there is no description, and only youtube is targeted.
	content := &domain.Content{
		Title:           "ten chars!",
		Type:            domain.ContentVideo,
		TargetPlatforms: []string{PlatformYouTube},
		TargetRPM:       100000,
	}

	recs := m.Recommendations(content, nil)

	if n := countByType(recs, RecRPMOptimization); n != 1 {
		t.Errorf("rpm_optimization count = %d, want 1", n)
	}
	if n := countByType(recs, RecContentOptimization); n != 2 {
		t.Errorf("content_optimization count = %d, want 2 (title + description)", n)
	}
	if n := countByType(recs, RecPlatformExpansion); n != 2 {
		t.Errorf("platform_expansion count = %d, want 2 (tiktok + instagram)", n)
	}
	if n := countByType(recs, RecTimingOptimization); n != 1 {
		t.Errorf("timing_optimization count = %d, want 1", n)
	}

	// Expansion suggestions must name the missing default platforms.
	seen := map[string]bool{}
	for _, r := range recs {
		if r.Type == RecPlatformExpansion {
			seen[r.Platform] = true
		}
	}
	if !seen[PlatformTikTok] || !seen[PlatformInstagram] {
		t.Errorf("expected tiktok and instagram expansion, got %v", seen)
	}
}

func TestRecommendationsInsertionOrder(t *testing.T) {
	m := NewModelWithClock(fixedClock)
	content := &domain.Content{
		Title:           "ten chars!",
		Type:            domain.ContentVideo,
		TargetPlatforms: []string{PlatformYouTube},
		TargetRPM:       100000,
	}

	recs := m.Recommendations(content, nil)
	if len(recs) == 0 {
		t.Fatal("no recommendations")
	}
	if recs[0].Type != RecRPMOptimization {
		t.Errorf("first recommendation = %s, want rpm_optimization", recs[0].Type)
	}
	if last := recs[len(recs)-1]; last.Type != RecTimingOptimization {
		t.Errorf("last recommendation = %s, want timing_optimization", last.Type)
	}
}

func TestRecommendationsBudgetReallocation(t *testing.T) {
	m := NewModelWithClock(fixedClock)
	content := &domain.Content{
		Title:           "A perfectly descriptive title",
		Description:     "A description easily long enough to pass the fifty character minimum.",
		Type:            domain.ContentVideo,
		TargetPlatforms: []string{PlatformYouTube, PlatformTikTok, PlatformInstagram},
		TargetRPM:       900000,
		MaxBudget:       10, // recommended spread will exceed 120% of this
	}

	recs := m.Recommendations(content, nil)
	if n := countByType(recs, RecBudgetReallocation); n != 1 {
		t.Fatalf("budget_reallocation count = %d, want 1", n)
	}
	for _, r := range recs {
		if r.Type == RecBudgetReallocation {
			if len(r.PlatformBreakdown) != 3 {
				t.Errorf("breakdown has %d platforms, want 3", len(r.PlatformBreakdown))
			}
		}
	}
}

func TestRecommendationsNoExpansionWithoutTargets(t *testing.T) {
	m := NewModelWithClock(fixedClock)

	// No explicit targets: the content is evaluated against the default
	// platform set, so nothing is "missing" to expand into.
	content := &domain.Content{
		Title:     "A perfectly descriptive title",
		Type:      domain.ContentVideo,
		TargetRPM: 5000000,
	}

	recs := m.Recommendations(content, nil)
	if n := countByType(recs, RecPlatformExpansion); n != 0 {
		t.Errorf("platform_expansion count = %d, want 0", n)
	}
}

func TestRecommendationsAlwaysIncludeTiming(t *testing.T) {
	m := NewModelWithClock(fixedClock)

	// Fully optimized content still gets the timing suggestion.
	content := &domain.Content{
		Title:           "A perfectly descriptive title",
		Description:     "A description easily long enough to pass the fifty character minimum.",
		Type:            domain.ContentArticle,
		TargetPlatforms: DefaultPlatforms,
		TargetRPM:       5000000,
	}

	recs := m.Recommendations(content, nil)
	if n := countByType(recs, RecTimingOptimization); n != 1 {
		t.Errorf("timing_optimization count = %d, want 1", n)
	}
	if n := countByType(recs, RecPlatformExpansion); n != 0 {
		t.Errorf("platform_expansion count = %d, want 0", n)
	}
}
