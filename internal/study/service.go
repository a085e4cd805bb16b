// Package study implements the learner-facing event surface: grading
// answers, rating flashcards, finishing tests and reading gating state.
package study

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/p-n-ai/pai-study/internal/curriculum"
	"github.com/p-n-ai/pai-study/internal/gating"
	"github.com/p-n-ai/pai-study/internal/grading"
	"github.com/p-n-ai/pai-study/internal/mastery"
	"github.com/p-n-ai/pai-study/internal/progress"
	"github.com/p-n-ai/pai-study/internal/scoring"
	"github.com/p-n-ai/pai-study/internal/store"
)

var (
	ErrUnknownItem   = errors.New("unknown item")
	ErrUnknownTopic  = errors.New("unknown topic")
	ErrUnknownStage  = errors.New("unknown stage")
	ErrInvalidRating = errors.New("rating must be 1, 2 or 3")
	ErrStageLocked   = errors.New("stage is locked")
	ErrPaperLocked   = errors.New("paper is locked")

	ErrInvalidSubmission = errors.New("invalid submission")
)

// Catalog is the read-only content the service grades against.
type Catalog interface {
	GetTopic(id string) (curriculum.Topic, bool)
	GetItem(id string) (curriculum.Item, bool)
	TopicForCard(cardID string) (curriculum.Topic, bool)
	FlashcardIDs(topicID string) []string
	QuestionsForTopic(topicID string) []curriculum.Item
	TopicsForUnit(unitID string) []curriculum.Topic
	TopicsForSubject(subjectID string) []curriculum.Topic
	AllTopics() []curriculum.Topic
	Vocabulary(name string) grading.Vocabulary
}

// Config holds dependencies and tuning for the service.
type Config struct {
	Catalog         Catalog
	Store           store.RecordStore
	Events          EventLogger
	UnlockThreshold int              // flashcard mastery percent that clears the check (default 70)
	PassThreshold   int              // test pass percent (default 70)
	BreakdownRatio  float64          // share of a mark point's keywords needed (default 0.4)
	Schedule        mastery.Schedule // zero value selects the default curve
	Clock           func() time.Time // defaults to time.Now
}

// Service is the study engine.
type Service struct {
	catalog   Catalog
	repo      *progress.Repository
	tracker   *mastery.Tracker
	graders   map[string]*grading.Grader
	breakdown *grading.BreakdownGrader
	gates     *gating.Engine
	scorer    *scoring.Scorer
	events    EventLogger
	clock     func() time.Time
}

// NewService creates a study service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("catalog is nil")
	}
	st := cfg.Store
	if st == nil {
		st = store.NewMemoryStore()
	}
	events := cfg.Events
	if events == nil {
		events = NopEventLogger{}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	repo := progress.NewRepository(st, cfg.UnlockThreshold)
	s := &Service{
		catalog:   cfg.Catalog,
		repo:      repo,
		tracker:   mastery.NewTracker(repo, cfg.Schedule, mastery.WithClock(clock)),
		graders:   make(map[string]*grading.Grader),
		breakdown: grading.NewBreakdownGrader(cfg.BreakdownRatio),
		gates:     gating.New(repo.UnlockThreshold(), cfg.PassThreshold),
		scorer:    scoring.NewScorer(cfg.PassThreshold),
		events:    events,
		clock:     clock,
	}
	for _, c := range []string{curriculum.Science, curriculum.Business} {
		s.graders[c] = grading.NewGrader(grading.NewMatcher(cfg.Catalog.Vocabulary(c)))
	}
	return s, nil
}

// Grade is the graded outcome of one submitted answer.
type Grade struct {
	ItemID        string                   `json:"item_id"`
	Correct       bool                     `json:"correct"`
	Reason        string                   `json:"reason,omitempty"`
	MarksAwarded  int                      `json:"marks_awarded"`
	MarksPossible int                      `json:"marks_possible"`
	Breakdown     *grading.BreakdownResult `json:"breakdown,omitempty"`
}

// SubmitAnswer grades a response to one item. Extended questions with an
// authored breakdown earn partial credit; everything else is all or nothing.
func (s *Service) SubmitAnswer(ctx context.Context, profile, itemID, response string) (Grade, error) {
	item, ok := s.catalog.GetItem(itemID)
	if !ok {
		return Grade{}, fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
	}
	g := s.grade(item, response)
	s.logEvent(profile, EventAnswerGraded, map[string]any{
		"item_id": itemID,
		"correct": g.Correct,
		"marks":   g.MarksAwarded,
	})
	return g, nil
}

func (s *Service) grade(item curriculum.Item, response string) Grade {
	g := Grade{ItemID: item.ID, MarksPossible: max(item.Marks, 1)}

	if item.Extended() {
		res := s.breakdown.Grade(*item.Breakdown, response)
		g.Breakdown = &res
		g.MarksAwarded = res.Score
		g.MarksPossible = res.TotalMarks
		g.Correct = res.TotalMarks > 0 && res.Score == res.TotalMarks
		g.Reason = fmt.Sprintf("Scored %d of %d marks", res.Score, res.TotalMarks)
		return g
	}

	res := s.graderFor(item.TopicID).Grade(item.Answer, item.CommonMistakes, response)
	g.Correct = res.Correct
	g.Reason = res.Reason
	if res.Correct {
		g.MarksAwarded = g.MarksPossible
	}
	return g
}

func (s *Service) graderFor(topicID string) *grading.Grader {
	if t, ok := s.catalog.GetTopic(topicID); ok {
		if g, ok := s.graders[t.Curriculum]; ok {
			return g
		}
	}
	return s.graders[curriculum.Science]
}

func (g Grade) itemResult(quickCheck bool) scoring.ItemResult {
	kind := scoring.KindQuestion
	if quickCheck {
		kind = scoring.KindQuickCheck
	}
	return scoring.ItemResult{ItemID: g.ItemID, Kind: kind, MarksAwarded: g.MarksAwarded, MarksPossible: g.MarksPossible}
}

// RatingResult is the outcome of a flashcard rating. Topic is set when the
// rating closed a review batch.
type RatingResult struct {
	Card  progress.FlashcardRecord `json:"card"`
	Topic *progress.TopicRecord    `json:"topic,omitempty"`
}

// RateFlashcard records a confidence rating. When endOfBatch is set the
// card's topic mastery is rolled up.
func (s *Service) RateFlashcard(ctx context.Context, profile, cardID string, level progress.Confidence, endOfBatch bool) (RatingResult, error) {
	if !level.Valid() {
		return RatingResult{}, fmt.Errorf("%w: got %d", ErrInvalidRating, level)
	}
	topic, ok := s.catalog.TopicForCard(cardID)
	if !ok {
		return RatingResult{}, fmt.Errorf("%w: %s", ErrUnknownItem, cardID)
	}

	card, err := s.tracker.Rate(ctx, profile, cardID, level)
	if err != nil {
		return RatingResult{}, err
	}
	res := RatingResult{Card: card}
	if endOfBatch {
		rec, err := s.tracker.Rollup(ctx, profile, topicRef(topic), s.catalog.FlashcardIDs(topic.ID))
		if err != nil {
			return RatingResult{}, err
		}
		res.Topic = &rec
	}

	s.logEvent(profile, EventFlashcardRated, map[string]any{
		"card_id":      cardID,
		"topic_id":     topic.ID,
		"rating":       int(level),
		"end_of_batch": endOfBatch,
	})
	return res, nil
}

// StartReview opens a review session over a topic's cards. With dueOnly
// the batch holds only cards due now.
func (s *Service) StartReview(ctx context.Context, profile, topicID string, dueOnly bool) (*mastery.Session, []string, error) {
	topic, ok := s.catalog.GetTopic(topicID)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownTopic, topicID)
	}
	cards := s.catalog.FlashcardIDs(topicID)
	batch := cards
	if dueOnly {
		due, err := s.tracker.DueCards(ctx, profile, cards)
		if err != nil {
			return nil, nil, err
		}
		batch = due
	}
	return s.tracker.StartSession(profile, topicRef(topic), cards, batch), batch, nil
}

// DueCards returns the topic's cards due for review now.
func (s *Service) DueCards(ctx context.Context, profile, topicID string) ([]string, error) {
	if _, ok := s.catalog.GetTopic(topicID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTopic, topicID)
	}
	return s.tracker.DueCards(ctx, profile, s.catalog.FlashcardIDs(topicID))
}

// QuickCheckResult is the outcome of a topic's quick-check set.
type QuickCheckResult struct {
	Items []Grade              `json:"items"`
	Score scoring.Score        `json:"score"`
	Topic progress.TopicRecord `json:"topic"`
}

// SubmitQuickCheck grades every quick check of a topic. Unanswered checks
// count as wrong. A pass is kept even if a later attempt fails.
func (s *Service) SubmitQuickCheck(ctx context.Context, profile, topicID string, answers map[string]string) (QuickCheckResult, error) {
	topic, ok := s.catalog.GetTopic(topicID)
	if !ok {
		return QuickCheckResult{}, fmt.Errorf("%w: %s", ErrUnknownTopic, topicID)
	}

	var out QuickCheckResult
	results := make([]scoring.ItemResult, 0, len(topic.QuickChecks))
	for _, qc := range topic.QuickChecks {
		g := s.grade(qc, answers[qc.ID])
		out.Items = append(out.Items, g)
		results = append(results, g.itemResult(true))
	}
	out.Score = s.scorer.Score(results)

	rec, err := s.repo.Topic(ctx, profile, topic.Curriculum, topic.GroupKey(), topic.ID)
	if err != nil {
		return QuickCheckResult{}, err
	}
	rec.QuickCheckPassed = rec.QuickCheckPassed || out.Score.Passed
	rec.QuickCheckScore = &out.Score.Percent
	if err := s.repo.SaveTopic(ctx, profile, rec); err != nil {
		return QuickCheckResult{}, err
	}
	rec.Derive(s.repo.UnlockThreshold())
	out.Topic = rec

	s.logEvent(profile, EventQuickCheckFinished, map[string]any{
		"topic_id": topicID,
		"percent":  out.Score.Percent,
		"passed":   out.Score.Passed,
	})
	return out, nil
}

// Submission is one answered item of a test.
type Submission struct {
	ItemID   string `json:"item_id"`
	Response string `json:"response"`
}

// TestResult is the outcome of a topic test or paper.
type TestResult struct {
	Items  []Grade              `json:"items"`
	Result progress.PaperResult `json:"result"`
}

// FinishTopicTest scores a topic test over the topic's questions and
// records the attempt. The test is refused until the topic's quiz is
// unlocked. Retakes replace the latest score but never a pass.
func (s *Service) FinishTopicTest(ctx context.Context, profile, topicID string, answers []Submission) (TestResult, error) {
	topic, ok := s.catalog.GetTopic(topicID)
	if !ok {
		return TestResult{}, fmt.Errorf("%w: %s", ErrUnknownTopic, topicID)
	}
	rec, err := s.repo.Topic(ctx, profile, topic.Curriculum, topic.GroupKey(), topic.ID)
	if err != nil {
		return TestResult{}, err
	}
	if !rec.QuizUnlocked {
		return TestResult{}, fmt.Errorf("%w: topic test for %s", ErrStageLocked, topicID)
	}

	set := s.testItems(topic)
	if len(set) == 0 {
		return TestResult{}, fmt.Errorf("%w: no questions for %s", ErrUnknownTopic, topicID)
	}
	items, score, err := s.scoreSubmissions(set, answers)
	if err != nil {
		return TestResult{}, err
	}

	now := s.clock()
	res := paperResult(score, topic.GroupKey(), topic.Tier, 0, now)
	res.TopicKey = topic.ID
	res, err = s.repo.RecordTopicTest(ctx, profile, topic.Curriculum, res)
	if err != nil {
		return TestResult{}, err
	}

	rec.TopicTestCompleted = true
	rec.TopicTestScore = &score.Percent
	rec.TopicTestPassed = rec.TopicTestPassed || score.Passed
	rec.TopicTestLastAttempt = &now
	if err := s.repo.SaveTopic(ctx, profile, rec); err != nil {
		return TestResult{}, err
	}

	s.logEvent(profile, EventTestFinished, map[string]any{
		"topic_id":   topicID,
		"attempt_id": res.AttemptID,
		"percent":    score.Percent,
		"passed":     score.Passed,
	})
	return TestResult{Items: items, Result: res}, nil
}

// TopicTestHistory returns every attempt of a topic test, oldest first.
func (s *Service) TopicTestHistory(ctx context.Context, profile, topicID string) ([]progress.PaperResult, error) {
	topic, ok := s.catalog.GetTopic(topicID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTopic, topicID)
	}
	return s.repo.TopicTestHistory(ctx, profile, topic.Curriculum, topic.GroupKey(), topic.ID)
}

// FinishPaper scores a paper attempt over the questions of every topic
// assigned to that paper and tier, and records it. Paper N+1 is refused
// until paper N has been passed.
func (s *Service) FinishPaper(ctx context.Context, profile, subject, tier string, paper int, answers []Submission) (TestResult, error) {
	papers, err := s.Papers(ctx, profile, subject, tier)
	if err != nil {
		return TestResult{}, err
	}
	if !papers.PaperUnlocked(paper) {
		return TestResult{}, fmt.Errorf("%w: %s %s paper %d", ErrPaperLocked, subject, tier, paper)
	}

	set := s.paperItems(subject, tier, paper)
	if len(set) == 0 {
		return TestResult{}, fmt.Errorf("%w: no questions for %s %s paper %d", ErrUnknownTopic, subject, tier, paper)
	}
	items, score, err := s.scoreSubmissions(set, answers)
	if err != nil {
		return TestResult{}, err
	}

	res, err := s.repo.RecordPaper(ctx, profile, paperResult(score, subject, tier, paper, s.clock()))
	if err != nil {
		return TestResult{}, err
	}

	slog.Info("paper finished",
		"profile", profile,
		"subject", subject,
		"tier", tier,
		"paper", paper,
		"percent", score.Percent,
		"passed", score.Passed,
	)
	s.logEvent(profile, EventTestFinished, map[string]any{
		"subject":    subject,
		"tier":       tier,
		"paper":      paper,
		"attempt_id": res.AttemptID,
		"percent":    score.Percent,
		"passed":     score.Passed,
	})
	return TestResult{Items: items, Result: res}, nil
}

// testItems returns the questions of a topic test: the topic's assessment
// questions, or its quick checks when it has none.
func (s *Service) testItems(topic curriculum.Topic) []curriculum.Item {
	if qs := s.catalog.QuestionsForTopic(topic.ID); len(qs) > 0 {
		return qs
	}
	return topic.QuickChecks
}

func (s *Service) paperItems(subject, tier string, paper int) []curriculum.Item {
	var items []curriculum.Item
	for _, t := range s.catalog.TopicsForSubject(subject) {
		if t.Tier == tier && t.Paper == paper {
			items = append(items, s.testItems(t)...)
		}
	}
	return items
}

// scoreSubmissions grades every item of set. Unanswered items score zero.
// Answers naming an item twice or an item outside the set are rejected.
func (s *Service) scoreSubmissions(set []curriculum.Item, answers []Submission) ([]Grade, scoring.Score, error) {
	inSet := make(map[string]bool, len(set))
	for _, it := range set {
		inSet[it.ID] = true
	}
	responses := make(map[string]string, len(answers))
	for _, a := range answers {
		if _, dup := responses[a.ItemID]; dup {
			return nil, scoring.Score{}, fmt.Errorf("%w: %s answered twice", ErrInvalidSubmission, a.ItemID)
		}
		if !inSet[a.ItemID] {
			if _, ok := s.catalog.GetItem(a.ItemID); !ok {
				return nil, scoring.Score{}, fmt.Errorf("%w: %s", ErrUnknownItem, a.ItemID)
			}
			return nil, scoring.Score{}, fmt.Errorf("%w: %s is not part of this test", ErrInvalidSubmission, a.ItemID)
		}
		responses[a.ItemID] = a.Response
	}

	grades := make([]Grade, 0, len(set))
	results := make([]scoring.ItemResult, 0, len(set))
	for _, item := range set {
		g := s.grade(item, responses[item.ID])
		grades = append(grades, g)
		results = append(results, g.itemResult(item.QuickCheck))
	}
	return grades, s.scorer.Score(results), nil
}

func paperResult(sc scoring.Score, subject, tier string, paper int, at time.Time) progress.PaperResult {
	return progress.PaperResult{
		SubjectKey:     subject,
		PaperNumber:    paper,
		Tier:           tier,
		MarksEarned:    sc.MarksEarned,
		MarksTotal:     sc.MarksTotal,
		Percent:        sc.Percent,
		Passed:         sc.Passed,
		ExtendedEarned: sc.ExtendedEarned,
		ExtendedTotal:  sc.ExtendedTotal,
		CompletedAt:    at,
	}
}

// CompleteStage marks a business practice stage completed. Completion is
// recorded whatever the score; the score only decides whether the final
// stage counts as passed, and a pass is kept through later attempts.
func (s *Service) CompleteStage(ctx context.Context, profile, unitID, stage string, score *int) (gating.UnitGating, error) {
	if !isBusinessStage(stage) {
		return gating.UnitGating{}, fmt.Errorf("%w: %s", ErrUnknownStage, stage)
	}
	g, unit, err := s.unitGating(ctx, profile, unitID)
	if err != nil {
		return gating.UnitGating{}, err
	}
	if !g.StageUnlocked(stage) {
		return gating.UnitGating{}, fmt.Errorf("%w: %s of %s", ErrStageLocked, stage, unitID)
	}

	now := s.clock()
	next := progress.StageRecord{Completed: true, Score: score, LastAttempt: &now}
	next.Passed = s.gates.StagePassed(unit.Stages[stage]) || s.gates.StagePassed(next)
	unit.Stages[stage] = next
	if err := s.repo.SaveUnit(ctx, profile, unit); err != nil {
		return gating.UnitGating{}, err
	}

	data := map[string]any{"unit_id": unitID, "stage": stage}
	if score != nil {
		data["score"] = *score
	}
	s.logEvent(profile, EventStageCompleted, data)

	g, _, err = s.unitGating(ctx, profile, unitID)
	return g, err
}

func isBusinessStage(stage string) bool {
	for _, st := range gating.BusinessStages {
		if st == stage {
			return true
		}
	}
	return false
}

// TopicGating returns the derived state of a science topic.
func (s *Service) TopicGating(ctx context.Context, profile, topicID string) (gating.TopicGating, error) {
	topic, ok := s.catalog.GetTopic(topicID)
	if !ok {
		return gating.TopicGating{}, fmt.Errorf("%w: %s", ErrUnknownTopic, topicID)
	}
	rec, err := s.repo.Topic(ctx, profile, topic.Curriculum, topic.GroupKey(), topic.ID)
	if err != nil {
		return gating.TopicGating{}, err
	}
	return s.gates.ScienceTopic(rec), nil
}

// UnitGating returns the derived state of a business unit.
func (s *Service) UnitGating(ctx context.Context, profile, unitID string) (gating.UnitGating, error) {
	g, _, err := s.unitGating(ctx, profile, unitID)
	return g, err
}

func (s *Service) unitGating(ctx context.Context, profile, unitID string) (gating.UnitGating, progress.UnitRecord, error) {
	topics := s.catalog.TopicsForUnit(unitID)
	if len(topics) == 0 {
		return gating.UnitGating{}, progress.UnitRecord{}, fmt.Errorf("%w: unit %s", ErrUnknownTopic, unitID)
	}
	recs := make([]progress.TopicRecord, 0, len(topics))
	for _, t := range topics {
		rec, err := s.repo.Topic(ctx, profile, t.Curriculum, t.GroupKey(), t.ID)
		if err != nil {
			return gating.UnitGating{}, progress.UnitRecord{}, err
		}
		recs = append(recs, rec)
	}
	unit, err := s.repo.Unit(ctx, profile, unitID)
	if err != nil {
		return gating.UnitGating{}, progress.UnitRecord{}, err
	}
	return s.gates.BusinessUnit(recs, unit), unit, nil
}

// Papers returns the derived paper state of a science subject and tier.
func (s *Service) Papers(ctx context.Context, profile, subject, tier string) (gating.PaperGating, error) {
	latest := make(map[int]progress.PaperResult, gating.SciencePapers)
	for n := 1; n <= gating.SciencePapers; n++ {
		res, ok, err := s.repo.Paper(ctx, profile, subject, tier, n)
		if err != nil {
			return gating.PaperGating{}, err
		}
		if ok {
			latest[n] = res
		}
	}
	return s.gates.Papers(subject, tier, gating.SciencePapers, latest), nil
}

// PaperHistory returns every attempt of a paper, oldest first.
func (s *Service) PaperHistory(ctx context.Context, profile, subject, tier string, paper int) ([]progress.PaperResult, error) {
	return s.repo.PaperHistory(ctx, profile, subject, tier, paper)
}

// ResetProfile removes all progress of a profile.
func (s *Service) ResetProfile(ctx context.Context, profile string) error {
	if err := s.repo.Reset(ctx, profile); err != nil {
		return err
	}
	s.logEvent(profile, EventProfileReset, nil)
	return nil
}

// Overview is a snapshot of a profile's progress across the catalog.
type Overview struct {
	Topics []progress.TopicRecord `json:"topics"`
	Papers []progress.PaperResult `json:"papers"`
}

// Overview collects every topic record and the latest result of every
// science paper of the catalog.
func (s *Service) Overview(ctx context.Context, profile string) (Overview, error) {
	var ov Overview
	type paperKey struct{ subject, tier string }
	seen := make(map[paperKey]bool)

	for _, t := range s.catalog.AllTopics() {
		rec, err := s.repo.Topic(ctx, profile, t.Curriculum, t.GroupKey(), t.ID)
		if err != nil {
			return Overview{}, err
		}
		ov.Topics = append(ov.Topics, rec)

		k := paperKey{t.SubjectID, t.Tier}
		if t.Curriculum == curriculum.Business || seen[k] {
			continue
		}
		seen[k] = true
		for n := 1; n <= gating.SciencePapers; n++ {
			res, ok, err := s.repo.Paper(ctx, profile, t.SubjectID, t.Tier, n)
			if err != nil {
				return Overview{}, err
			}
			if ok {
				ov.Papers = append(ov.Papers, res)
			}
		}
	}
	return ov, nil
}

func (s *Service) logEvent(profile, eventType string, data map[string]any) {
	if err := s.events.LogEvent(Event{
		Profile:   profile,
		EventType: eventType,
		Data:      data,
		CreatedAt: s.clock(),
	}); err != nil {
		slog.Warn("failed to log event", "type", eventType, "error", err)
	}
}

func topicRef(t curriculum.Topic) mastery.TopicRef {
	return mastery.TopicRef{Curriculum: t.Curriculum, SubjectKey: t.GroupKey(), TopicKey: t.ID}
}
