package domain

import "errors"

var (
	// ErrValidation wraps bad form input; callers report it inline and
	// never let it propagate past the immediate action.
	ErrValidation = errors.New("validation failed")
	// ErrQuizNotFound is returned when a room code matches no quiz.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrAlreadySubmitted guards re-join and re-submit of a finished attempt.
	ErrAlreadySubmitted = errors.New("quiz already submitted")
	// ErrNoActiveAttempt is returned when an action needs an attempt in progress.
	ErrNoActiveAttempt = errors.New("no active attempt")
	// ErrNotConfirmed is returned when a manual submission is declined by the
	// caller-supplied confirmation step.
	ErrNotConfirmed = errors.New("submission not confirmed")
	// ErrNoSelection is returned when congratulations are sent with no teams selected.
	ErrNoSelection = errors.New("no teams selected")
	// ErrSessionNotFound is returned when a device token has no session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidCredentials is returned on a failed admin login.
	ErrInvalidCredentials = errors.New("invalid administrator password")
	// ErrBackendUnavailable wraps store read/write failures. Callers surface
	// it as a dismissable notice; it is never fatal to the acting component.
	ErrBackendUnavailable = errors.New("backend unavailable")
)
