// Package scoring aggregates graded items into a paper score.
package scoring

import (
	"github.com/p-n-ai/pai-study/internal/grading"
	"github.com/p-n-ai/pai-study/internal/mastery"
)

// DefaultPassThreshold is the percent of marks needed to pass.
const DefaultPassThreshold = 70

// ItemKind distinguishes quick checks from questions.
type ItemKind string

const (
	KindQuickCheck ItemKind = "quick_check"
	KindQuestion   ItemKind = "question"
)

// ItemResult is the graded outcome of one item of a test.
type ItemResult struct {
	ItemID        string   `json:"item_id"`
	Kind          ItemKind `json:"kind"`
	MarksAwarded  int      `json:"marks_awarded"`
	MarksPossible int      `json:"marks_possible"`
}

// Extended reports whether the item counts toward the extended subtotal.
func (r ItemResult) Extended() bool {
	return r.MarksPossible >= grading.ExtendedMarks
}

// Score is the aggregate result of a test. Percent is rounded for display
// only; Passed is decided on the exact ratio of marks, so 139 of 200 shows
// 70 but does not pass a 70 percent threshold.
type Score struct {
	MarksEarned    int  `json:"marks_earned"`
	MarksTotal     int  `json:"marks_total"`
	Percent        int  `json:"percent"`
	Passed         bool `json:"passed"`
	ExtendedEarned int  `json:"extended_earned"`
	ExtendedTotal  int  `json:"extended_total"`
}

// Scorer totals item results against a pass threshold.
type Scorer struct {
	passThreshold int
}

// NewScorer creates a scorer. A non-positive threshold selects
// DefaultPassThreshold.
func NewScorer(passThreshold int) *Scorer {
	if passThreshold <= 0 || passThreshold > 100 {
		passThreshold = DefaultPassThreshold
	}
	return &Scorer{passThreshold: passThreshold}
}

// PassThreshold returns the pass percent.
func (s *Scorer) PassThreshold() int {
	return s.passThreshold
}

// Score totals items. Awarded marks are clamped to [0, possible]. A test
// with no marks available scores 0 and does not pass. The extended subtotal
// is reported but never affects the pass decision.
func (s *Scorer) Score(items []ItemResult) Score {
	var sc Score
	for _, it := range items {
		possible := max(it.MarksPossible, 0)
		awarded := min(max(it.MarksAwarded, 0), possible)
		sc.MarksEarned += awarded
		sc.MarksTotal += possible
		if it.Extended() {
			sc.ExtendedEarned += awarded
			sc.ExtendedTotal += possible
		}
	}
	if sc.MarksTotal == 0 {
		return sc
	}
	sc.Percent = mastery.Percent(sc.MarksEarned, sc.MarksTotal)
	sc.Passed = sc.MarksEarned*100 >= s.passThreshold*sc.MarksTotal
	return sc
}

// QuickCheck returns the item result of a 1-mark quick check.
func QuickCheck(id string, correct bool) ItemResult {
	r := ItemResult{ItemID: id, Kind: KindQuickCheck, MarksPossible: 1}
	if correct {
		r.MarksAwarded = 1
	}
	return r
}

// Binary returns the all-or-nothing item result of a question.
func Binary(id string, marks int, correct bool) ItemResult {
	r := ItemResult{ItemID: id, Kind: KindQuestion, MarksPossible: marks}
	if correct {
		r.MarksAwarded = marks
	}
	return r
}

// Partial returns the item result of a question graded against a breakdown.
func Partial(id string, res grading.BreakdownResult) ItemResult {
	return ItemResult{ItemID: id, Kind: KindQuestion, MarksAwarded: res.Score, MarksPossible: res.TotalMarks}
}
