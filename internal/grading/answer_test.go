package grading_test

import (
	"strings"
	"testing"

	"github.com/p-n-ai/pai-study/internal/grading"
)

func newGrader() *grading.Grader {
	return grading.NewGrader(grading.NewMatcher(grading.ScienceVocabulary()))
}

func TestGrade_SubstringMatch(t *testing.T) {
	g := newGrader()

	res := g.Grade(grading.SingleAnswer("osmosis"), nil, "it moves by osmosis through the membrane")
	if !res.Correct {
		t.Fatalf("Grade() = %+v, want correct", res)
	}
	if res.Reason != grading.ReasonMatched {
		t.Errorf("Reason = %q, want %q", res.Reason, grading.ReasonMatched)
	}
}

func TestGrade_NormalizesBothSides(t *testing.T) {
	g := newGrader()

	tests := []struct {
		name     string
		answer   grading.Answer
		response string
		want     bool
	}{
		{"case", grading.SingleAnswer("Osmosis"), "OSMOSIS", true},
		{"whitespace", grading.SingleAnswer("carbon   dioxide"), "  carbon dioxide\n", true},
		{"full-width", grading.SingleAnswer("atp"), "ＡＴＰ", true},
		{"answer set second option", grading.AnswerSet{"mitochondrion", "mitochondria"}, "in the mitochondria", true},
		{"unrelated", grading.SingleAnswer("osmosis"), "it sinks", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.Grade(tt.answer, nil, tt.response).Correct; got != tt.want {
				t.Errorf("Grade(%v, %q).Correct = %v, want %v", tt.answer, tt.response, got, tt.want)
			}
		})
	}
}

func TestGrade_EmptyResponse(t *testing.T) {
	g := newGrader()

	for _, resp := range []string{"", "   ", "\n\t"} {
		res := g.Grade(grading.SingleAnswer("osmosis"), nil, resp)
		if res.Correct {
			t.Errorf("Grade(%q) should be incorrect", resp)
		}
		if res.Reason != grading.ReasonEmptyResponse {
			t.Errorf("Reason = %q, want %q", res.Reason, grading.ReasonEmptyResponse)
		}
	}
}

func TestGrade_NoCorrectAnswer(t *testing.T) {
	g := newGrader()

	tests := []struct {
		name   string
		answer grading.Answer
	}{
		{"nil", nil},
		{"blank single", grading.SingleAnswer("  ")},
		{"empty set", grading.AnswerSet{}},
		{"blank set", grading.AnswerSet{"", " "}},
		{"empty sequence", grading.OrderedSequence{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := g.Grade(tt.answer, nil, "anything")
			if res.Correct {
				t.Error("Grade() should be incorrect without a correct answer")
			}
			if res.Reason != grading.ReasonNoAnswerDefined {
				t.Errorf("Reason = %q, want %q", res.Reason, grading.ReasonNoAnswerDefined)
			}
		})
	}
}

func TestGrade_CommonMistakeBeatsKeywords(t *testing.T) {
	g := newGrader()
	answer := grading.SingleAnswer("water moves by osmosis from a dilute solution across a partially permeable membrane")

	// Keyword overlap alone would pass: osmosis + membrane of {osmosis, membrane}.
	response := "osmosis across the membrane needs energy from respiration"
	if res := g.Grade(answer, nil, response); !res.Correct {
		t.Fatalf("precondition: keyword grading should pass, got %+v", res)
	}

	res := g.Grade(answer, []string{"osmosis needs energy"}, response)
	if res.Correct {
		t.Fatalf("Grade() = %+v, want incorrect for common mistake", res)
	}
	if !strings.Contains(res.Reason, "common mistake") {
		t.Errorf("Reason = %q, want common mistake reason", res.Reason)
	}
}

func TestGrade_CommonMistakeRules(t *testing.T) {
	g := newGrader()
	answer := grading.SingleAnswer("enzymes are denatured at high temperature")

	tests := []struct {
		name     string
		mistake  string
		response string
		want     bool // correct
	}{
		{"long phrase present", "enzymes are killed", "the enzymes are killed by the heat and denature", false},
		{"single significant word ignored", "enzymes die", "enzymes will die when hot, they denature", true},
		{"all significant words present", "enzymes killed heat", "heat means the enzymes get killed, they denature", false},
		{"short phrase ignored", "dies", "enzyme dies so it is denatured", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := g.Grade(answer, []string{tt.mistake}, tt.response)
			if res.Correct != tt.want {
				t.Errorf("Grade() = %+v, want correct=%v", res, tt.want)
			}
		})
	}
}

func TestGrade_ExactMatchWinsOverMistake(t *testing.T) {
	g := newGrader()

	res := g.Grade(grading.SingleAnswer("diffusion"), []string{"diffusion needs energy"}, "diffusion needs energy")
	if !res.Correct {
		t.Errorf("Grade() = %+v, want correct: the exact match is checked first", res)
	}
}

func TestGrade_KeywordRatio(t *testing.T) {
	g := newGrader()
	// Extracted keywords: enzyme, active site, substrate, denature (4 terms, ratio 0.5 -> 2 needed).
	answer := grading.SingleAnswer("the enzyme active site changes shape so the substrate no longer fits; it is denatured")

	tests := []struct {
		name     string
		response string
		want     bool
	}{
		{"two of four", "the active site is a different shape and the enzyme stops", true},
		{"one of four", "the active site breaks", false},
		{"all", "enzyme denatured, active site shape changed, substrate cannot bind", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.Grade(answer, nil, tt.response).Correct; got != tt.want {
				t.Errorf("Grade(%q).Correct = %v, want %v", tt.response, got, tt.want)
			}
		})
	}
}

func TestGrade_NoKeywordsFallsBackToSubstring(t *testing.T) {
	g := newGrader()

	if res := g.Grade(grading.SingleAnswer("left ventricle."), nil, "The LEFT ventricle!"); !res.Correct {
		t.Errorf("Grade() = %+v, want correct after punctuation is ignored", res)
	}
	if res := g.Grade(grading.SingleAnswer("left ventricle"), nil, "right atrium"); res.Correct {
		t.Errorf("Grade() = %+v, want incorrect", res)
	}
}

func TestRequiredKeywordMatches(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, 0},
		{1, 1},  // ratio 0.6
		{2, 2},  // ratio 0.6 -> ceil(1.2)
		{3, 2},  // ratio 0.6 -> ceil(1.8)
		{4, 2},  // ratio 0.5
		{5, 2},  // ratio 0.4
		{10, 4}, // ratio 0.4
	}

	for _, tt := range tests {
		if got := grading.RequiredKeywordMatches(tt.n); got != tt.want {
			t.Errorf("RequiredKeywordMatches(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestGrade_OrderedSequence(t *testing.T) {
	g := newGrader()
	seq := grading.OrderedSequence{"Prophase", "Metaphase", "Anaphase", "Telophase"}

	tests := []struct {
		name     string
		response string
		want     bool
	}{
		{"arrows", "prophase -> metaphase -> anaphase -> telophase", true},
		{"lines", "Prophase\nMetaphase\nAnaphase\nTelophase", true},
		{"commas", "prophase, metaphase, anaphase, telophase", true},
		{"swapped", "prophase, anaphase, metaphase, telophase", false},
		{"short", "prophase, metaphase", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.Grade(seq, nil, tt.response).Correct; got != tt.want {
				t.Errorf("Grade(%q).Correct = %v, want %v", tt.response, got, tt.want)
			}
		})
	}
}

func TestGrade_ContainedAnswerAlwaysCorrect(t *testing.T) {
	g := newGrader()
	answers := []string{"osmosis", "active transport", "photosynthesis", "lactic acid"}
	wrappers := []string{"%s", "I think it is %s.", "because of %s and other things", "  %s  "}

	for _, a := range answers {
		for _, w := range wrappers {
			resp := strings.ReplaceAll(w, "%s", strings.ToUpper(a))
			if res := g.Grade(grading.SingleAnswer(a), []string{"it is not " + a}, resp); !res.Correct {
				t.Errorf("Grade(%q, %q) = %+v, want correct", a, resp, res)
			}
		}
	}
}
