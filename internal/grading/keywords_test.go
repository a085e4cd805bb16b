package grading_test

import (
	"slices"
	"testing"

	"github.com/p-n-ai/pai-study/internal/grading"
)

func TestMatcher_ExtractUsesVocabularyOrder(t *testing.T) {
	m := grading.NewMatcher(grading.NewVocabulary("membrane", "Osmosis", "glucose"))

	got := m.Extract("OSMOSIS moves water across the membrane")
	want := []string{"membrane", "osmosis"}
	if !slices.Equal(got, want) {
		t.Errorf("Extract() = %v, want %v", got, want)
	}
}

func TestMatcher_ExtractEmpty(t *testing.T) {
	m := grading.NewMatcher(grading.ScienceVocabulary())

	if got := m.Extract("   "); len(got) != 0 {
		t.Errorf("Extract(blank) = %v, want none", got)
	}
}

func TestNewVocabulary_DropsBlanksAndDuplicates(t *testing.T) {
	v := grading.NewVocabulary("Profit", "", "profit", "  revenue ")

	want := []string{"profit", "revenue"}
	if !slices.Equal(v.Terms(), want) {
		t.Errorf("Terms() = %v, want %v", v.Terms(), want)
	}
}

func TestVocabulary_TermsIsACopy(t *testing.T) {
	v := grading.NewVocabulary("profit", "revenue")

	terms := v.Terms()
	terms[0] = "mutated"

	if v.Terms()[0] != "profit" {
		t.Error("mutating Terms() result changed the vocabulary")
	}
}

func TestCountMatches(t *testing.T) {
	tests := []struct {
		name     string
		keywords []string
		text     string
		want     int
	}{
		{"none", []string{"glucose"}, "water", 0},
		{"case-insensitive", []string{"Glucose", "ATP"}, "glucose makes atp", 2},
		{"blank keyword ignored", []string{"", "glucose"}, "glucose", 1},
		{"blank text", []string{"glucose"}, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := grading.CountMatches(tt.keywords, tt.text); got != tt.want {
				t.Errorf("CountMatches() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBusinessVocabulary(t *testing.T) {
	m := grading.NewMatcher(grading.BusinessVocabulary())

	got := m.Extract("Higher fixed costs raise the break-even point and cut net profit")
	for _, want := range []string{"profit", "cost", "fixed cost", "break-even", "net profit"} {
		if !slices.Contains(got, want) {
			t.Errorf("Extract() = %v, missing %q", got, want)
		}
	}
}
