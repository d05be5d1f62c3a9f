package domain

import "errors"

var (
	// ErrQuestionNotFound indicates a question lookup by id or key failed.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrNotActiveQuestion indicates an admin action targeted a question
	// that is not currently active on its track.
	ErrNotActiveQuestion = errors.New("not the active question for its track")
	// ErrNoActiveQuestion indicates a state transition was attempted on a
	// track with no active question. Callers are expected to guard this.
	ErrNoActiveQuestion = errors.New("no active question")
	// ErrNoAnswers rejects question upserts with zero non-empty answers.
	ErrNoAnswers = errors.New("no answers provided")
	// ErrAnswersClosed indicates the active question stopped accepting answers.
	ErrAnswersClosed = errors.New("question is no longer accepting answers")
	// ErrInvalidChoices indicates submitted answer indices are out of range
	// or violate the question's single-choice constraint.
	ErrInvalidChoices = errors.New("invalid answer choices")
	// ErrTooManyConnections rejects a subscription when a user exceeds the
	// per-channel connection ceiling.
	ErrTooManyConnections = errors.New("too many open polling requests")
	// ErrUserNotFound indicates an unknown user identity.
	ErrUserNotFound = errors.New("user not found")
	// ErrLoginDisabled indicates naive login is switched off in config.
	ErrLoginDisabled = errors.New("naive login is disabled")
)
