// Package progress holds a learner's persisted progress records.
package progress

import "time"

// Curricula with their own topic key space.
const (
	CurriculumScience  = "science"
	CurriculumBusiness = "business"
)

// Confidence is a learner's self-rating of a flashcard.
type Confidence int

const (
	ConfidenceAgain    Confidence = 1
	ConfidenceLearning Confidence = 2
	ConfidenceGotIt    Confidence = 3
)

// Valid reports whether c is one of the three ratings.
func (c Confidence) Valid() bool {
	return c >= ConfidenceAgain && c <= ConfidenceGotIt
}

func (c Confidence) String() string {
	switch c {
	case ConfidenceAgain:
		return "again"
	case ConfidenceLearning:
		return "learning"
	case ConfidenceGotIt:
		return "got it"
	default:
		return "unrated"
	}
}

// FlashcardRecord tracks confidence ratings of one flashcard.
type FlashcardRecord struct {
	ItemID               string     `json:"item_id"`
	ConfidenceLevel      Confidence `json:"confidence_level,omitempty"`
	TimesViewed          int        `json:"times_viewed"`
	TimesConfident       int        `json:"times_confident"`
	ConsecutiveConfident int        `json:"consecutive_confident"`
	IntervalMinutes      int        `json:"interval_minutes"`
	LastViewed           time.Time  `json:"last_viewed"`
	NextReviewDate       time.Time  `json:"next_review_date"`
	MasteryPercent       int        `json:"mastery_percent"`
}

// Due reports whether the card should be reviewed at now. Unseen cards are
// always due.
func (r FlashcardRecord) Due(now time.Time) bool {
	return r.TimesViewed == 0 || !now.Before(r.NextReviewDate)
}

// TopicRecord is the per-topic progress record. For the business
// curriculum SubjectKey holds the unit id and TopicKey the topic id.
// TopicTestPassed is sticky: once set, a failed retake only replaces
// TopicTestScore.
type TopicRecord struct {
	Curriculum              string     `json:"curriculum"`
	SubjectKey              string     `json:"subject_key"`
	TopicKey                string     `json:"topic_key"`
	FlashcardMasteryPercent int        `json:"flashcard_mastery_percent"`
	QuickCheckPassed        bool       `json:"quick_check_passed"`
	QuickCheckScore         *int       `json:"quick_check_score,omitempty"`
	QuizUnlocked            bool       `json:"quiz_unlocked"`
	TopicTestCompleted      bool       `json:"topic_test_completed"`
	TopicTestPassed         bool       `json:"topic_test_passed"`
	TopicTestScore          *int       `json:"topic_test_score,omitempty"`
	TopicTestLastAttempt    *time.Time `json:"topic_test_last_attempt,omitempty"`
}

// ClearsCheck reports whether the topic has cleared the check stage:
// flashcard mastery at or above threshold and the quick check passed.
func (r TopicRecord) ClearsCheck(threshold int) bool {
	return r.FlashcardMasteryPercent >= threshold && r.QuickCheckPassed
}

// Derive recomputes the derived QuizUnlocked flag.
func (r *TopicRecord) Derive(threshold int) {
	r.QuizUnlocked = r.ClearsCheck(threshold)
}

// StageRecord is the state of one practice stage of a unit. Score is the
// latest attempt; Passed is kept once any attempt passed.
type StageRecord struct {
	Completed   bool       `json:"completed"`
	Passed      bool       `json:"passed"`
	Score       *int       `json:"score,omitempty"`
	LastAttempt *time.Time `json:"last_attempt,omitempty"`
}

// UnitRecord holds the practice-stage records of a business unit.
type UnitRecord struct {
	UnitID string                 `json:"unit_id"`
	Stages map[string]StageRecord `json:"stages"`
}

// StageCompleted reports whether stage has been completed.
func (u UnitRecord) StageCompleted(stage string) bool {
	return u.Stages[stage].Completed
}

// PaperResult is the result of one paper or topic-test attempt. Passed
// belongs to this attempt; Cleared is set when this or any earlier attempt
// of the same paper passed. Topic-test attempts carry TopicKey and paper 0.
type PaperResult struct {
	AttemptID      string    `json:"attempt_id"`
	SubjectKey     string    `json:"subject_key"`
	TopicKey       string    `json:"topic_key,omitempty"`
	PaperNumber    int       `json:"paper_number"`
	Tier           string    `json:"tier"`
	MarksEarned    int       `json:"marks_earned"`
	MarksTotal     int       `json:"marks_total"`
	Percent        int       `json:"percent"`
	Passed         bool      `json:"passed"`
	Cleared        bool      `json:"cleared"`
	ExtendedEarned int       `json:"extended_earned"`
	ExtendedTotal  int       `json:"extended_total"`
	CompletedAt    time.Time `json:"completed_at"`
}
