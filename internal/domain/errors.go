package domain

import "errors"

var (
	// ErrInvalidIndex is returned when a shuffle is asked to track a
	// correct index that does not exist in the option list.
	ErrInvalidIndex = errors.New("correct index out of range")
	// ErrInvalidDuration is returned when a countdown is started with a
	// non-positive duration.
	ErrInvalidDuration = errors.New("countdown duration must be positive")
	// ErrEmptyQuestion rejects authored questions with no text.
	ErrEmptyQuestion = errors.New("question text is empty")
	// ErrEmptyOption rejects authored questions with an unfilled option.
	ErrEmptyOption = errors.New("all options must be filled in")
	// ErrNoTopic rejects generation requests without a topic.
	ErrNoTopic = errors.New("no topic selected")
	// ErrNotHost is returned when a non-host client tries to start the game.
	ErrNotHost = errors.New("only the host may start the game")
	// ErrQuestionSetNotFound indicates a cached question set is absent.
	ErrQuestionSetNotFound = errors.New("question set not found")
	// ErrSummaryNotFound indicates an archived game summary is absent.
	ErrSummaryNotFound = errors.New("game summary not found")
)
