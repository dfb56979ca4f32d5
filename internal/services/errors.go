package services

import (
	"errors"
)

var (
	// ErrQuestionNotFound aborts a grading run: a submitted question id has no
	// catalog entry, so nothing is persisted and the event can be redelivered
	// once the catalog is consistent.
	ErrQuestionNotFound = errors.New("question not found in catalog")

	// ErrNoAnswersForPair means a repair was requested for a pair that has no
	// answer records at all, i.e. there is nothing to aggregate.
	ErrNoAnswersForPair = errors.New("no answer records for student and page")
)
