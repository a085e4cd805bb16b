package gating

import (
	"github.com/p-n-ai/pai-study/internal/progress"
)

// Default thresholds, in percent.
const (
	DefaultUnlockThreshold = progress.DefaultUnlockThreshold
	DefaultPassThreshold   = 70
)

// Business practice stages, in unlock order. Evaluation is the unit's test.
const (
	StageCaseStudy    = "case_study"
	StageCalculations = "calculations"
	StageEvaluation   = "evaluation"
)

// BusinessStages lists the business unit stages in order.
var BusinessStages = []string{StageCaseStudy, StageCalculations, StageEvaluation}

// SciencePapers is the number of papers per science subject and tier.
const SciencePapers = 2

// Engine derives gating state with fixed thresholds.
type Engine struct {
	unlockThreshold int
	passThreshold   int
}

// New creates an engine. Non-positive thresholds select the defaults.
func New(unlockThreshold, passThreshold int) *Engine {
	if unlockThreshold <= 0 {
		unlockThreshold = DefaultUnlockThreshold
	}
	if passThreshold <= 0 {
		passThreshold = DefaultPassThreshold
	}
	return &Engine{unlockThreshold: unlockThreshold, passThreshold: passThreshold}
}

// UnlockThreshold returns the mastery percent that clears the check stage.
func (e *Engine) UnlockThreshold() int { return e.unlockThreshold }

// PassThreshold returns the percent needed to pass a test.
func (e *Engine) PassThreshold() int { return e.passThreshold }

// TopicGating is the derived state of a science topic.
type TopicGating struct {
	SubjectKey        string `json:"subject_key"`
	TopicKey          string `json:"topic_key"`
	MasteryPercent    int    `json:"flashcard_mastery_percent"`
	QuickCheckPassed  bool   `json:"quick_check_passed"`
	QuizUnlocked      bool   `json:"quiz_unlocked"`
	TopicTestUnlocked bool   `json:"topic_test_unlocked"`
	Passed            bool   `json:"passed"`
	Stage             Stage  `json:"stage"`
}

// ScienceTopic derives the state of a science topic from its record.
func (e *Engine) ScienceTopic(rec progress.TopicRecord) TopicGating {
	c := e.topicChain(rec, nil)
	return TopicGating{
		SubjectKey:        rec.SubjectKey,
		TopicKey:          rec.TopicKey,
		MasteryPercent:    rec.FlashcardMasteryPercent,
		QuickCheckPassed:  rec.QuickCheckPassed,
		QuizUnlocked:      c.CheckCleared,
		TopicTestUnlocked: c.TestUnlocked(),
		Passed:            c.Stage() == StagePassed,
		Stage:             c.Stage(),
	}
}

func (e *Engine) topicChain(rec progress.TopicRecord, practice []bool) Chain {
	return Chain{
		Started:           started(rec),
		CheckCleared:      rec.ClearsCheck(e.unlockThreshold),
		PracticeCompleted: practice,
		TestPassed:        rec.TopicTestPassed,
	}
}

func started(rec progress.TopicRecord) bool {
	return rec.FlashcardMasteryPercent > 0 || rec.QuickCheckScore != nil || rec.QuickCheckPassed || rec.TopicTestCompleted
}

// UnitGating is the derived state of a business unit.
type UnitGating struct {
	UnitID               string `json:"unit_id"`
	CaseStudyUnlocked    bool   `json:"case_study_unlocked"`
	CalculationsUnlocked bool   `json:"calculations_unlocked"`
	EvaluationUnlocked   bool   `json:"evaluation_unlocked"`
	Passed               bool   `json:"passed"`
	Stage                Stage  `json:"stage"`
}

// BusinessUnit derives the state of a unit from its topic records and stage
// record. The case study unlocks as soon as any one topic clears its check.
func (e *Engine) BusinessUnit(topics []progress.TopicRecord, unit progress.UnitRecord) UnitGating {
	c := Chain{
		PracticeCompleted: []bool{unit.StageCompleted(StageCaseStudy), unit.StageCompleted(StageCalculations)},
		TestPassed:        e.StagePassed(unit.Stages[StageEvaluation]),
	}
	for _, rec := range topics {
		if started(rec) {
			c.Started = true
		}
		if rec.ClearsCheck(e.unlockThreshold) {
			c.CheckCleared = true
		}
	}
	if len(unit.Stages) > 0 {
		c.Started = true
	}

	return UnitGating{
		UnitID:               unit.UnitID,
		CaseStudyUnlocked:    c.PracticeUnlocked(0),
		CalculationsUnlocked: c.PracticeUnlocked(1),
		EvaluationUnlocked:   c.TestUnlocked(),
		Passed:               c.Stage() == StagePassed,
		Stage:                c.Stage(),
	}
}

// StageUnlocked reports whether the named business stage is available.
func (g UnitGating) StageUnlocked(stage string) bool {
	switch stage {
	case StageCaseStudy:
		return g.CaseStudyUnlocked
	case StageCalculations:
		return g.CalculationsUnlocked
	case StageEvaluation:
		return g.EvaluationUnlocked
	default:
		return false
	}
}

// StagePassed reports whether a stage record counts as passed. A completed
// stage without a score counts as passed, and a pass is never taken back.
func (e *Engine) StagePassed(s progress.StageRecord) bool {
	return s.Completed && (s.Passed || s.Score == nil || *s.Score >= e.passThreshold)
}

// PaperStatus is the derived state of one paper.
type PaperStatus struct {
	Number   int                   `json:"paper"`
	Unlocked bool                  `json:"unlocked"`
	Passed   bool                  `json:"passed"`
	Latest   *progress.PaperResult `json:"latest,omitempty"`
}

// PaperGating is the derived paper state of a subject and tier.
type PaperGating struct {
	SubjectKey string        `json:"subject_key"`
	Tier       string        `json:"tier"`
	Papers     []PaperStatus `json:"papers"`
	Mastered   bool          `json:"mastered"`
}

// Papers derives paper availability from the latest result of each paper,
// keyed by paper number. Paper 1 is always available; paper N+1 unlocks
// once paper N has been passed by any attempt. The subject is mastered when
// every paper has been passed.
func (e *Engine) Papers(subject, tier string, count int, latest map[int]progress.PaperResult) PaperGating {
	g := PaperGating{SubjectKey: subject, Tier: tier, Papers: make([]PaperStatus, 0, count)}
	unlocked := true
	allPassed := count > 0
	for n := 1; n <= count; n++ {
		st := PaperStatus{Number: n, Unlocked: unlocked}
		if res, ok := latest[n]; ok {
			st.Latest = &res
			st.Passed = unlocked && (res.Passed || res.Cleared)
		}
		if !st.Passed {
			allPassed = false
		}
		unlocked = st.Passed
		g.Papers = append(g.Papers, st)
	}
	g.Mastered = allPassed
	return g
}

// PaperUnlocked reports whether paper n is available.
func (g PaperGating) PaperUnlocked(n int) bool {
	for _, p := range g.Papers {
		if p.Number == n {
			return p.Unlocked
		}
	}
	return false
}
