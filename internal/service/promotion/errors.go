package promotion

import "errors"

// Sentinel errors for the promotion service layer.
var (
	ErrContentNotFound  = errors.New("content not found")
	ErrScheduleNotFound = errors.New("promotion schedule not found")
	ErrInvalidSchedule  = errors.New("invalid schedule input")
)
