package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	ErrWrongPhase       = errors.New("operation not allowed in current game phase")
	ErrAlreadyVoted     = errors.New("user already voted")
	ErrNoPlayByPlay     = errors.New("no play-by-play data")
	ErrMalformedPayload = errors.New("malformed provider payload")
)
