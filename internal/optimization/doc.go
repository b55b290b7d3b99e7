// Package optimization implements the promotion yield models: RPM and budget
// estimation, expected-views/ROI/confidence projections, risk bucketing,
// actionable recommendations, and per-platform schedule plans.
//
// All estimators are pure given their inputs and the model's clock. The
// seasonal and time-of-day multiplier tables read "now" through an injected
// clock so tests can pin the month and hour.
package optimization
