package game

import (
	"math/rand"

	"quizlive-client/internal/domain"
)

// Shuffle permutes a question's options uniformly at random and reports
// where the correct option ended up. This is the only place in the
// client where option order is ever changed: it runs in the authoring
// flow, before a set is persisted or broadcast. Reshuffling after a
// question has been shown would invalidate in-flight answers.
//
// The random source is injected so tests can fix the permutation.
func Shuffle(options []string, correctIndex int, rnd *rand.Rand) (domain.ShuffleResult, error) {
	if correctIndex < 0 || correctIndex >= len(options) {
		return domain.ShuffleResult{}, domain.ErrInvalidIndex
	}

	type indexed struct {
		text string
		orig int
	}
	pairs := make([]indexed, len(options))
	for i, opt := range options {
		pairs[i] = indexed{text: opt, orig: i}
	}

	// Fisher-Yates, last element down to the second.
	for i := len(pairs) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		pairs[i], pairs[j] = pairs[j], pairs[i]
	}

	result := domain.ShuffleResult{Options: make([]string, len(pairs))}
	for i, p := range pairs {
		result.Options[i] = p.text
		if p.orig == correctIndex {
			result.CorrectIndex = i
		}
	}
	return result, nil
}

// ShuffleAuthored applies Shuffle to an authored question in place of
// its option order, remapping the stored correct index.
func ShuffleAuthored(q domain.AuthoredQuestion, rnd *rand.Rand) (domain.AuthoredQuestion, error) {
	res, err := Shuffle(q.Options, q.CorrectIndex, rnd)
	if err != nil {
		return domain.AuthoredQuestion{}, err
	}
	q.Options = res.Options
	q.CorrectIndex = res.CorrectIndex
	return q, nil
}
