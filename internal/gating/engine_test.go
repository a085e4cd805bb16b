package gating_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/p-n-ai/pai-study/internal/gating"
	"github.com/p-n-ai/pai-study/internal/mastery"
	"github.com/p-n-ai/pai-study/internal/progress"
)

func intPtr(n int) *int { return &n }

func epochPlus(step int) time.Time {
	return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC).Add(time.Duration(step) * time.Minute)
}

func TestChain_Stage(t *testing.T) {
	tests := []struct {
		name  string
		chain gating.Chain
		want  gating.Stage
	}{
		{"fresh", gating.Chain{PracticeCompleted: []bool{false}}, gating.StageLearn},
		{"started", gating.Chain{Started: true, PracticeCompleted: []bool{false}}, gating.StageCheck},
		{"check cleared", gating.Chain{Started: true, CheckCleared: true, PracticeCompleted: []bool{false}}, gating.StagePractice},
		{"practice done", gating.Chain{Started: true, CheckCleared: true, PracticeCompleted: []bool{true}}, gating.StageTest},
		{"passed", gating.Chain{Started: true, CheckCleared: true, PracticeCompleted: []bool{true}, TestPassed: true}, gating.StagePassed},
		{"pass without unlock", gating.Chain{Started: true, PracticeCompleted: []bool{true}, TestPassed: true}, gating.StageCheck},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.chain.Stage(); got != tt.want {
				t.Errorf("Stage() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChain_PracticeUnlocksInOrder(t *testing.T) {
	c := gating.Chain{CheckCleared: true, PracticeCompleted: []bool{false, true, false}}
	want := []bool{true, false, false}
	for i, w := range want {
		if got := c.PracticeUnlocked(i); got != w {
			t.Errorf("PracticeUnlocked(%d) = %v, want %v", i, got, w)
		}
	}
	if c.PracticeUnlocked(3) || c.PracticeUnlocked(-1) {
		t.Error("out of range stages should be locked")
	}
	if c.TestUnlocked() {
		t.Error("test should be locked until every practice stage completes")
	}
}

func TestEngine_ScienceTopic(t *testing.T) {
	e := gating.New(0, 0)
	tests := []struct {
		name       string
		rec        progress.TopicRecord
		wantQuiz   bool
		wantPassed bool
		wantStage  gating.Stage
	}{
		{"untouched", progress.TopicRecord{}, false, false, gating.StageLearn},
		{"65 percent", progress.TopicRecord{FlashcardMasteryPercent: 65, QuickCheckPassed: true}, false, false, gating.StageCheck},
		{"mastery without check", progress.TopicRecord{FlashcardMasteryPercent: 90}, false, false, gating.StageCheck},
		{"72 percent", progress.TopicRecord{FlashcardMasteryPercent: 72, QuickCheckPassed: true}, true, false, gating.StageTest},
		{"test failed", progress.TopicRecord{FlashcardMasteryPercent: 72, QuickCheckPassed: true, TopicTestCompleted: true, TopicTestScore: intPtr(60)}, true, false, gating.StageTest},
		{"test passed", progress.TopicRecord{FlashcardMasteryPercent: 72, QuickCheckPassed: true, TopicTestCompleted: true, TopicTestScore: intPtr(70), TopicTestPassed: true}, true, true, gating.StagePassed},
		{"rounded score is not a pass", progress.TopicRecord{FlashcardMasteryPercent: 72, QuickCheckPassed: true, TopicTestCompleted: true, TopicTestScore: intPtr(70)}, true, false, gating.StageTest},
		{"failed retake keeps pass", progress.TopicRecord{FlashcardMasteryPercent: 72, QuickCheckPassed: true, TopicTestCompleted: true, TopicTestScore: intPtr(40), TopicTestPassed: true}, true, true, gating.StagePassed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := e.ScienceTopic(tt.rec)
			if g.QuizUnlocked != tt.wantQuiz {
				t.Errorf("QuizUnlocked = %v, want %v", g.QuizUnlocked, tt.wantQuiz)
			}
			if g.Passed != tt.wantPassed {
				t.Errorf("Passed = %v, want %v", g.Passed, tt.wantPassed)
			}
			if g.Stage != tt.wantStage {
				t.Errorf("Stage = %v, want %v", g.Stage, tt.wantStage)
			}
		})
	}
}

func TestEngine_BusinessUnit(t *testing.T) {
	e := gating.New(70, 70)
	cleared := progress.TopicRecord{TopicKey: "t2", FlashcardMasteryPercent: 80, QuickCheckPassed: true}
	notCleared := progress.TopicRecord{TopicKey: "t1", FlashcardMasteryPercent: 40, QuickCheckPassed: true}

	unit := func(done ...string) progress.UnitRecord {
		u := progress.UnitRecord{UnitID: "u1", Stages: map[string]progress.StageRecord{}}
		for _, s := range done {
			u.Stages[s] = progress.StageRecord{Completed: true}
		}
		return u
	}

	tests := []struct {
		name                 string
		topics               []progress.TopicRecord
		unit                 progress.UnitRecord
		wantCase, wantCalc   bool
		wantEval, wantPassed bool
	}{
		{"nothing cleared", []progress.TopicRecord{notCleared}, unit(), false, false, false, false},
		{"one topic clears", []progress.TopicRecord{notCleared, cleared}, unit(), true, false, false, false},
		{"case study done", []progress.TopicRecord{cleared}, unit(gating.StageCaseStudy), true, true, false, false},
		{"calculations done", []progress.TopicRecord{cleared}, unit(gating.StageCaseStudy, gating.StageCalculations), true, true, true, false},
		{"all done", []progress.TopicRecord{cleared}, unit(gating.BusinessStages...), true, true, true, true},
		{"skipped stage does not count", []progress.TopicRecord{cleared}, unit(gating.StageCalculations), true, false, false, false},
		{"completion without check", []progress.TopicRecord{notCleared}, unit(gating.StageCaseStudy), false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := e.BusinessUnit(tt.topics, tt.unit)
			if g.CaseStudyUnlocked != tt.wantCase || g.CalculationsUnlocked != tt.wantCalc || g.EvaluationUnlocked != tt.wantEval {
				t.Errorf("gating = %+v, want case %v calc %v eval %v", g, tt.wantCase, tt.wantCalc, tt.wantEval)
			}
			if g.Passed != tt.wantPassed {
				t.Errorf("Passed = %v, want %v", g.Passed, tt.wantPassed)
			}
			for _, s := range gating.BusinessStages {
				if g.StageUnlocked(s) != map[string]bool{
					gating.StageCaseStudy:    tt.wantCase,
					gating.StageCalculations: tt.wantCalc,
					gating.StageEvaluation:   tt.wantEval,
				}[s] {
					t.Errorf("StageUnlocked(%q) disagrees with flags", s)
				}
			}
		})
	}
}

func TestEngine_BusinessEvaluationScore(t *testing.T) {
	e := gating.New(70, 70)
	topics := []progress.TopicRecord{{FlashcardMasteryPercent: 100, QuickCheckPassed: true}}
	u := progress.UnitRecord{UnitID: "u1", Stages: map[string]progress.StageRecord{
		gating.StageCaseStudy:    {Completed: true},
		gating.StageCalculations: {Completed: true},
		gating.StageEvaluation:   {Completed: true, Score: intPtr(50)},
	}}

	g := e.BusinessUnit(topics, u)
	if g.Passed || g.Stage != gating.StageTest {
		t.Errorf("low evaluation score: %+v, want not passed at test stage", g)
	}
	if g.StageUnlocked("unknown") {
		t.Error("unknown stage should be locked")
	}

	// A later low score does not take back an earlier pass.
	u.Stages[gating.StageEvaluation] = progress.StageRecord{Completed: true, Score: intPtr(50), Passed: true}
	if g := e.BusinessUnit(topics, u); !g.Passed || g.Stage != gating.StagePassed {
		t.Errorf("sticky evaluation pass: %+v, want passed", g)
	}
}

func TestEngine_StagePassed(t *testing.T) {
	e := gating.New(70, 70)
	tests := []struct {
		name string
		rec  progress.StageRecord
		want bool
	}{
		{"not completed", progress.StageRecord{}, false},
		{"not completed but flagged", progress.StageRecord{Passed: true}, false},
		{"completed without score", progress.StageRecord{Completed: true}, true},
		{"score below threshold", progress.StageRecord{Completed: true, Score: intPtr(69)}, false},
		{"score at threshold", progress.StageRecord{Completed: true, Score: intPtr(70)}, true},
		{"earlier pass kept", progress.StageRecord{Completed: true, Score: intPtr(10), Passed: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.StagePassed(tt.rec); got != tt.want {
				t.Errorf("StagePassed(%+v) = %v, want %v", tt.rec, got, tt.want)
			}
		})
	}
}

func TestEngine_Papers(t *testing.T) {
	e := gating.New(0, 0)
	pass := progress.PaperResult{MarksEarned: 21, MarksTotal: 30, Passed: true}
	fail := progress.PaperResult{MarksEarned: 10, MarksTotal: 30}
	failedRetake := progress.PaperResult{MarksEarned: 10, MarksTotal: 30, Cleared: true}

	tests := []struct {
		name         string
		latest       map[int]progress.PaperResult
		wantUnlocked []bool
		wantMastered bool
	}{
		{"no attempts", nil, []bool{true, false}, false},
		{"paper 1 failed", map[int]progress.PaperResult{1: fail}, []bool{true, false}, false},
		{"paper 1 passed", map[int]progress.PaperResult{1: pass}, []bool{true, true}, false},
		{"both passed", map[int]progress.PaperResult{1: pass, 2: pass}, []bool{true, true}, true},
		{"failed retake keeps unlock", map[int]progress.PaperResult{1: failedRetake}, []bool{true, true}, false},
		{"failed retake keeps mastery", map[int]progress.PaperResult{1: failedRetake, 2: pass}, []bool{true, true}, true},
		{"paper 2 retake failed", map[int]progress.PaperResult{1: pass, 2: failedRetake}, []bool{true, true}, true},
		{"paper 2 passed while locked", map[int]progress.PaperResult{1: fail, 2: pass}, []bool{true, false}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := e.Papers("biology", "higher", gating.SciencePapers, tt.latest)
			if len(g.Papers) != gating.SciencePapers {
				t.Fatalf("len(Papers) = %d, want %d", len(g.Papers), gating.SciencePapers)
			}
			for i, want := range tt.wantUnlocked {
				if got := g.PaperUnlocked(i + 1); got != want {
					t.Errorf("PaperUnlocked(%d) = %v, want %v", i+1, got, want)
				}
			}
			if g.Mastered != tt.wantMastered {
				t.Errorf("Mastered = %v, want %v", g.Mastered, tt.wantMastered)
			}
		})
	}

	if e.Papers("biology", "higher", 0, nil).Mastered {
		t.Error("a subject without papers is not mastered")
	}
}

// The quiz never unlocks below the threshold, whatever the order of
// rating, quick-check and rollup events.
func TestEngine_QuizInvariantUnderInterleavings(t *testing.T) {
	e := gating.New(70, 70)
	sched := mastery.DefaultSchedule()

	for seed := int64(1); seed <= 50; seed++ {
		rng := rand.New(rand.NewSource(seed))
		cards := make([]progress.FlashcardRecord, 3)
		var topic progress.TopicRecord

		for step := range 200 {
			switch rng.Intn(3) {
			case 0:
				i := rng.Intn(len(cards))
				cards[i] = mastery.Apply(cards[i], progress.Confidence(rng.Intn(3)+1), epochPlus(step), sched)
			case 1:
				topic.QuickCheckPassed = rng.Intn(2) == 0
			case 2:
				total := 0
				for _, c := range cards {
					total += c.MasteryPercent
				}
				topic.FlashcardMasteryPercent = mastery.Percent(total, 100*len(cards))
			}
			topic.Derive(e.UnlockThreshold())

			g := e.ScienceTopic(topic)
			if (topic.QuizUnlocked || g.QuizUnlocked) && topic.FlashcardMasteryPercent < 70 {
				t.Fatalf("seed %d step %d: quiz unlocked at %d%%", seed, step, topic.FlashcardMasteryPercent)
			}
			if g.QuizUnlocked != topic.QuizUnlocked {
				t.Fatalf("seed %d step %d: derived flag drifted from record", seed, step)
			}
		}
	}
}

func TestStageText(t *testing.T) {
	for st := gating.StageLearn; st <= gating.StagePassed; st++ {
		text, err := st.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v) error = %v", st, err)
		}
		var got gating.Stage
		if err := got.UnmarshalText(text); err != nil || got != st {
			t.Errorf("UnmarshalText(%q) = %v, %v; want %v", text, got, err, st)
		}
	}

	var s gating.Stage
	if err := s.UnmarshalText([]byte("revise")); err == nil {
		t.Error("expected error for unknown stage name")
	}
}
