package optimization

import (
	"errors"
	"time"
)

// ErrInvalidBudget is returned when an ROI projection is requested with a
// non-positive budget. Budget must be validated before calling; dividing by
// zero here is a configuration error, not a data condition.
var ErrInvalidBudget = errors.New("budget must be greater than zero")

// Platforms supported by the yield models. Unknown platforms fall back to
// neutral default constants rather than erroring.
const (
	PlatformYouTube   = "youtube"
	PlatformTikTok    = "tiktok"
	PlatformInstagram = "instagram"
	PlatformTwitter   = "twitter"
	PlatformFacebook  = "facebook"
	PlatformLinkedIn  = "linkedin"
	PlatformPinterest = "pinterest"
)

// PlatformAll targets every platform at once; schedules may use it in place
// of a concrete platform.
const PlatformAll = "all"

// DefaultPlatforms are the platforms every content item is expected to
// target; missing ones trigger platform_expansion recommendations.
var DefaultPlatforms = []string{PlatformYouTube, PlatformTikTok, PlatformInstagram}

// KnownPlatform reports whether the yield models carry tables for the
// platform (or it is the "all" pseudo-platform).
func KnownPlatform(platform string) bool {
	switch platform {
	case PlatformYouTube, PlatformTikTok, PlatformInstagram, PlatformTwitter,
		PlatformFacebook, PlatformLinkedIn, PlatformPinterest, PlatformAll:
		return true
	}
	return false
}

// Neutral fallbacks applied when a platform or content type is unknown.
const (
	defaultBaseRPM    = 600000.0
	defaultBaseBudget = 200.0
	defaultTargetRPM  = 900000.0
)

// Model computes promotion yield estimates. The zero value is not usable;
// construct with NewModel or NewModelWithClock.
type Model struct {
	now func() time.Time
}

// NewModel creates a model on the system clock.
func NewModel() *Model {
	return &Model{now: time.Now}
}

// NewModelWithClock creates a model with an injected time source. Seasonal
// and time-of-day multipliers are derived from it, which makes estimates
// reproducible in tests.
func NewModelWithClock(now func() time.Time) *Model {
	return &Model{now: now}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
