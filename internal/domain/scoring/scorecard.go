// Package scoring turns a criterion battery into a 0-20 score and a
// discrete confidence grade. Pure functions, no I/O, no randomness.
package scoring

import (
	"fmt"

	"github.com/tradeforge/signalcore/internal/domain/criteria"
)

// Grade is the confidence tier derived from the score.
type Grade string

const (
	GradeNotElite       Grade = "NOT_ELITE"
	GradeElitePlus      Grade = "ELITE_A_PLUS"
	GradeElitePlusPlus  Grade = "ELITE_A_PLUS_PLUS"
	GradeEliteTriplePlus Grade = "ELITE_A_PLUS_PLUS_PLUS"
)

// DefaultMinScore is the admission floor when a class does not override it.
const DefaultMinScore = 17

// ScoreCard holds the full battery outcome. Score is always the count of
// passed criteria and Grade a pure function of Score.
type ScoreCard struct {
	Criteria []criteria.Result `json:"criteria"`
	Score    int               `json:"score"`
	Grade    Grade             `json:"grade"`
}

// Build sums the passed criteria into a ScoreCard. It requires the full
// fixed-size battery: a partial battery would silently deflate the score.
func Build(results []criteria.Result) (ScoreCard, error) {
	if len(results) != criteria.Count {
		return ScoreCard{}, fmt.Errorf("scoring: got %d criterion results, want %d", len(results), criteria.Count)
	}

	score := 0
	for _, r := range results {
		if r.Passed {
			score++
		}
	}

	return ScoreCard{
		Criteria: results,
		Score:    score,
		Grade:    GradeFor(score),
	}, nil
}

// GradeFor maps a score to its confidence tier.
func GradeFor(score int) Grade {
	switch {
	case score >= 19:
		return GradeEliteTriplePlus
	case score == 18:
		return GradeElitePlusPlus
	case score == 17:
		return GradeElitePlus
	default:
		return GradeNotElite
	}
}

// Passing reports whether the card clears the configured minimum score.
func (sc ScoreCard) Passing(minScore int) bool {
	return sc.Score >= minScore
}

// FailedCriteria lists the names of criteria that did not pass, in battery
// order, for rejection evidence.
func (sc ScoreCard) FailedCriteria() []string {
	var out []string
	for _, r := range sc.Criteria {
		if !r.Passed {
			out = append(out, r.Name)
		}
	}
	return out
}
