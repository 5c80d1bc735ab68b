package service

import (
	"strings"

	counselormodels "counseling-platform/backend/counselor/models"
)

// Engine scores approved counselors against extracted topic tags and
// selects at most one winner.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Score counts the distinct extracted tags for which any of the
// counselor's specialization entries contains the tag as a substring.
// Specialization strings are free-form, so containment rather than
// equality is the match criterion.
func (e *Engine) Score(tags []string, specialization counselormodels.StringList) int {
	score := 0
	for _, tag := range tags {
		for _, spec := range specialization {
			if strings.Contains(spec, tag) {
				score++
				break
			}
		}
	}
	return score
}

// Match returns the counselor with the strictly highest positive
// score. Ties are broken by lowest counselor id so the outcome is
// deterministic under any roster ordering. A zero-score roster or an
// empty tag set yields no match, which is a normal outcome.
func (e *Engine) Match(tags []string, counselors []counselormodels.Counselor) (*counselormodels.Counselor, bool) {
	if len(tags) == 0 {
		return nil, false
	}

	var best *counselormodels.Counselor
	bestScore := 0

	for i := range counselors {
		counselor := &counselors[i]
		score := e.Score(tags, counselor.Specialization)
		if score == 0 {
			continue
		}
		if score > bestScore || (score == bestScore && counselor.ID < best.ID) {
			best = counselor
			bestScore = score
		}
	}

	if best == nil {
		return nil, false
	}
	return best, true
}
