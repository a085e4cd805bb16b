package grading

import (
	"slices"
	"strings"
)

// Vocabulary is an immutable, ordered list of domain terms. The order of
// the terms defines the order of Extract's output.
type Vocabulary struct {
	terms []string
}

// NewVocabulary builds a vocabulary from terms. Terms are normalized,
// blanks and duplicates are dropped; the input slice is not retained.
func NewVocabulary(terms ...string) Vocabulary {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		n := Normalize(t)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return Vocabulary{terms: out}
}

// Terms returns a copy of the vocabulary terms.
func (v Vocabulary) Terms() []string {
	return slices.Clone(v.terms)
}

// Len returns the number of terms.
func (v Vocabulary) Len() int {
	return len(v.terms)
}

// Matcher extracts vocabulary terms from free text.
type Matcher struct {
	vocab Vocabulary
}

// NewMatcher creates a matcher over vocab.
func NewMatcher(vocab Vocabulary) *Matcher {
	return &Matcher{vocab: vocab}
}

// Extract returns the vocabulary terms contained in text, in vocabulary order.
func (m *Matcher) Extract(text string) []string {
	norm := Normalize(text)
	if norm == "" {
		return nil
	}
	var found []string
	for _, term := range m.vocab.terms {
		if strings.Contains(norm, term) {
			found = append(found, term)
		}
	}
	return found
}

// DeriveKeywords turns a free-text description into keywords: tokens of at
// least four characters that are not stopwords, deduplicated in order.
func DeriveKeywords(description string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, tok := range tokens(description) {
		if len([]rune(tok)) < 4 || isStopword(tok) {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

// CountMatches counts how many keywords occur as substrings of text.
func CountMatches(keywords []string, text string) int {
	norm := Normalize(text)
	if norm == "" {
		return 0
	}
	n := 0
	for _, k := range keywords {
		k = Normalize(k)
		if k != "" && strings.Contains(norm, k) {
			n++
		}
	}
	return n
}

func isStopword(w string) bool {
	_, ok := stopwords[w]
	return ok
}

var stopwords = map[string]struct{}{
	"about": {}, "above": {}, "after": {}, "again": {}, "also": {}, "because": {},
	"been": {}, "before": {}, "being": {}, "between": {}, "both": {}, "but": {},
	"can": {}, "could": {}, "does": {}, "doing": {}, "down": {}, "during": {},
	"each": {}, "from": {}, "further": {}, "have": {}, "having": {}, "here": {},
	"into": {}, "itself": {}, "just": {}, "less": {}, "like": {}, "more": {},
	"most": {}, "much": {}, "must": {}, "only": {}, "other": {}, "over": {},
	"same": {}, "should": {}, "some": {}, "such": {}, "than": {}, "that": {},
	"their": {}, "them": {}, "then": {}, "there": {}, "these": {}, "they": {},
	"this": {}, "those": {}, "through": {}, "under": {}, "until": {}, "very": {},
	"what": {}, "when": {}, "where": {}, "which": {}, "while": {}, "will": {},
	"with": {}, "would": {}, "your": {}, "via": {}, "using": {}, "used": {},
	"makes": {}, "make": {}, "means": {}, "shows": {}, "show": {}, "state": {},
	"explain": {}, "describe": {}, "give": {}, "gives": {}, "mark": {}, "marks": {},
	"answer": {}, "correct": {}, "identifies": {}, "identify": {}, "reference": {},
	"example": {}, "point": {}, "valid": {},
}
