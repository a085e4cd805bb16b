// Package grading scores free-text answers with keyword and phrase heuristics.
package grading

import (
	"fmt"
	"math"
	"strings"
)

// Answer is the authored correct answer of an item. It is one of
// SingleAnswer, AnswerSet or OrderedSequence.
type Answer interface {
	isAnswer()
}

// SingleAnswer is one acceptable answer.
type SingleAnswer string

// AnswerSet lists several acceptable answers; matching any one is enough.
type AnswerSet []string

// OrderedSequence is the expected order of steps or items.
type OrderedSequence []string

func (SingleAnswer) isAnswer()    {}
func (AnswerSet) isAnswer()       {}
func (OrderedSequence) isAnswer() {}

// Reasons reported on a Result.
const (
	ReasonNoAnswerDefined = "No correct answer defined"
	ReasonEmptyResponse   = "No answer given"
	ReasonMatched         = "Matches the expected answer"
	ReasonNoMatch         = "Does not match the expected answer"
	ReasonSequenceMatched = "Sequence is in the correct order"
	ReasonSequenceWrong   = "Sequence is not in the correct order"
)

// Result is the outcome of binary grading.
type Result struct {
	Correct bool   `json:"correct"`
	Reason  string `json:"reason,omitempty"`
}

// Grader grades a response against a single correct answer.
type Grader struct {
	matcher *Matcher
}

// NewGrader creates a grader whose keyword fallback uses matcher.
func NewGrader(matcher *Matcher) *Grader {
	return &Grader{matcher: matcher}
}

// Grade checks response against answer. Heuristics apply in order and the
// first one that decides wins: exact or contained match, common-mistake
// rejection, then keyword coverage.
func (g *Grader) Grade(answer Answer, mistakes []string, response string) Result {
	var acceptable []string
	switch a := answer.(type) {
	case SingleAnswer:
		acceptable = nonBlank([]string{string(a)})
	case AnswerSet:
		acceptable = nonBlank(a)
	case OrderedSequence:
		return GradeSequence(a, SplitSequence(response))
	}
	if len(acceptable) == 0 {
		return Result{Correct: false, Reason: ReasonNoAnswerDefined}
	}

	user := Normalize(response)
	if user == "" {
		return Result{Correct: false, Reason: ReasonEmptyResponse}
	}

	for _, acc := range acceptable {
		if strings.Contains(user, Normalize(acc)) {
			return Result{Correct: true, Reason: ReasonMatched}
		}
	}

	for _, m := range mistakes {
		if matchesMistake(m, user) {
			return Result{Correct: false, Reason: fmt.Sprintf("Restates a common mistake: %q", strings.TrimSpace(m))}
		}
	}

	return g.gradeKeywords(acceptable, response)
}

func (g *Grader) gradeKeywords(acceptable []string, response string) Result {
	var want []string
	seen := make(map[string]struct{})
	for _, acc := range acceptable {
		for _, k := range g.matcher.Extract(acc) {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				want = append(want, k)
			}
		}
	}

	if len(want) == 0 {
		user := stripPunct(response)
		for _, acc := range acceptable {
			if a := stripPunct(acc); a != "" && strings.Contains(user, a) {
				return Result{Correct: true, Reason: ReasonMatched}
			}
		}
		return Result{Correct: false, Reason: ReasonNoMatch}
	}

	have := make(map[string]struct{})
	for _, k := range g.matcher.Extract(response) {
		have[k] = struct{}{}
	}
	matched := 0
	for _, k := range want {
		if _, ok := have[k]; ok {
			matched++
		}
	}

	required := RequiredKeywordMatches(len(want))
	reason := fmt.Sprintf("Covers %d of %d key terms (needs %d)", matched, len(want), required)
	return Result{Correct: matched >= required, Reason: reason}
}

// RequiredKeywordMatches is the number of key terms a response must cover
// when the correct answer yields n of them. The required fraction is 2/n
// clamped to [0.4, 0.6].
func RequiredKeywordMatches(n int) int {
	if n <= 0 {
		return 0
	}
	ratio := min(max(2/float64(n), 0.4), 0.6)
	return ceilFraction(n, ratio)
}

// GradeSequence compares a learner's ordering to the expected one,
// element by element after normalization.
func GradeSequence(want OrderedSequence, got []string) Result {
	expected := nonBlank(want)
	if len(expected) == 0 {
		return Result{Correct: false, Reason: ReasonNoAnswerDefined}
	}
	given := nonBlank(got)
	if len(given) == 0 {
		return Result{Correct: false, Reason: ReasonEmptyResponse}
	}
	if len(given) != len(expected) {
		return Result{Correct: false, Reason: ReasonSequenceWrong}
	}
	for i := range expected {
		if Normalize(expected[i]) != Normalize(given[i]) {
			return Result{Correct: false, Reason: ReasonSequenceWrong}
		}
	}
	return Result{Correct: true, Reason: ReasonSequenceMatched}
}

// SplitSequence splits a typed ordering ("a -> b -> c", "a, b, c" or one
// item per line) into its items.
func SplitSequence(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '\n' || r == ',' || r == '>' || r == ';'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.Trim(p, " \t\r-"); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func matchesMistake(phrase, user string) bool {
	p := Normalize(phrase)
	if p == "" {
		return false
	}
	if len([]rune(p)) >= 10 && strings.Contains(user, p) {
		return true
	}
	words := DeriveKeywords(p)
	if len(words) < 2 {
		return false
	}
	for _, w := range words {
		if !strings.Contains(user, w) {
			return false
		}
	}
	return true
}

func nonBlank(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// ceilFraction returns ceil(n*ratio), ignoring float noise below 1e-9.
func ceilFraction(n int, ratio float64) int {
	return int(math.Ceil(float64(n)*ratio - 1e-9))
}
