package promotion

import (
	"time"

	"github.com/ignite/autopromote/internal/domain"
)

// NextPromotionTime computes the start of the next occurrence for a
// recurring schedule. It returns false for once or unrecognized frequencies;
// callers must treat that as "do not recur". A custom recurrence pattern,
// when present, overrides the frequency table.
//
// Month arithmetic uses time.AddDate, which normalizes overflow: Jan 31 +
// one month lands in early March rather than producing an invalid date or
// silently truncating.
func NextPromotionTime(start time.Time, freq domain.Frequency, pattern *domain.RecurrencePattern) (time.Time, bool) {
	if pattern != nil && pattern.Type == "custom" {
		return nextFromPattern(start, pattern)
	}

	switch freq {
	case domain.FreqHourly:
		return start.Add(time.Hour), true
	case domain.FreqDaily:
		return start.AddDate(0, 0, 1), true
	case domain.FreqWeekly:
		return start.AddDate(0, 0, 7), true
	case domain.FreqBiweekly:
		return start.AddDate(0, 0, 14), true
	case domain.FreqMonthly:
		return start.AddDate(0, 1, 0), true
	case domain.FreqQuarterly:
		return start.AddDate(0, 3, 0), true
	default:
		return time.Time{}, false
	}
}

func nextFromPattern(start time.Time, pattern *domain.RecurrencePattern) (time.Time, bool) {
	if pattern.Interval <= 0 {
		return time.Time{}, false
	}
	switch pattern.Unit {
	case domain.RecurDays:
		return start.AddDate(0, 0, pattern.Interval), true
	case domain.RecurWeeks:
		return start.AddDate(0, 0, pattern.Interval*7), true
	case domain.RecurMonths:
		return start.AddDate(0, pattern.Interval, 0), true
	default:
		return time.Time{}, false
	}
}
