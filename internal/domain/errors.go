package domain

import "errors"

// Error kinds returned by the session core. The transport layer maps these to
// status codes; callers discriminate with errors.Is.
var (
	// ErrNotFound covers unknown session, player, question position, or quiz ids.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the caller does not own the session's quiz.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidState is returned for actions or queries not permitted in the
	// session's current state.
	ErrInvalidState = errors.New("invalid state")
	// ErrInvalidInput covers malformed action names, bad answer id sets,
	// duplicate player names, and out-of-range settings.
	ErrInvalidInput = errors.New("invalid input")
	// ErrPrecondition is returned when a session cannot be started for a quiz
	// (no questions, or too many live sessions).
	ErrPrecondition = errors.New("precondition failed")
)
