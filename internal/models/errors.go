package models

import "errors"

// Funnel errors. Callers match them with errors.Is.
var (
	// ErrInvalidAnswer is returned for empty or whitespace-only answers; the caller re-prompts.
	ErrInvalidAnswer = errors.New("invalid answer: text is empty")

	// ErrAlreadyComplete is returned when an answer is submitted after the last question.
	ErrAlreadyComplete = errors.New("conversation already complete")

	// ErrUnexpectedQuestion is returned when an answer names a question other than the current one.
	ErrUnexpectedQuestion = errors.New("answer does not match the current question")

	// ErrMisconfiguredCatalog is returned at startup when the question catalog is unusable.
	ErrMisconfiguredCatalog = errors.New("misconfigured question catalog")

	// ErrSessionNotFound is returned by repositories and the funnel for unknown session IDs.
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidPhone is returned when a submitted phone number cannot be used for SMS.
	ErrInvalidPhone = errors.New("invalid phone number")

	// ErrInvalidToken is returned for tampered, expired or malformed follow-up tokens.
	ErrInvalidToken = errors.New("invalid follow-up token")
)
