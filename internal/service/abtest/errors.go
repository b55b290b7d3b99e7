package abtest

import "errors"

// Sentinel errors for the A/B testing service layer.
var (
	ErrTestNotFound    = errors.New("ab test not found")
	ErrVariantNotFound = errors.New("variant not found")
	ErrTestCompleted   = errors.New("ab test already completed")
	ErrInvalidTest     = errors.New("invalid test input")
)
