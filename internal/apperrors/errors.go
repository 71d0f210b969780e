package apperrors

import (
	"errors"
)

var (
	// ErrEventDecode marks a malformed inbound event: terminal, the event
	// must be acknowledged and dropped rather than retried forever.
	ErrEventDecode = errors.New("event decode failed")

	// ErrStoreUnavailable marks an unreachable or timed out backing store:
	// retryable, the whole event is redelivered.
	ErrStoreUnavailable = errors.New("store unavailable")

	ErrUserNotFound = errors.New("user not found")
	ErrGoalNotFound = errors.New("goal not found")
	ErrRuleNotFound = errors.New("rule not found")
)
