// Package mastery tracks flashcard confidence ratings, review scheduling and
// the per-topic mastery rollup.
package mastery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/p-n-ai/pai-study/internal/progress"
)

// ErrNotInBatch is returned when a session rates a card it was not started with.
var ErrNotInBatch = errors.New("card not in session batch")

// TopicRef identifies the topic record a rollup writes to.
type TopicRef struct {
	Curriculum string
	SubjectKey string
	TopicKey   string
}

// Tracker applies ratings to flashcard records and rolls card mastery up to
// the topic level.
type Tracker struct {
	repo     *progress.Repository
	schedule Schedule
	clock    func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(t *Tracker) { t.clock = clock }
}

// NewTracker creates a tracker over repo.
func NewTracker(repo *progress.Repository, schedule Schedule, opts ...Option) *Tracker {
	t := &Tracker{
		repo:     repo,
		schedule: schedule.withDefaults(),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Schedule returns the review curve in use.
func (t *Tracker) Schedule() Schedule {
	return t.schedule
}

// Rate records a rating of a card and returns its updated record. The rating
// is assumed valid; callers reject values outside 1..3.
func (t *Tracker) Rate(ctx context.Context, profile, cardID string, c progress.Confidence) (progress.FlashcardRecord, error) {
	rec, err := t.repo.Flashcard(ctx, profile, cardID)
	if err != nil {
		return progress.FlashcardRecord{}, err
	}
	rec = Apply(rec, c, t.clock(), t.schedule)
	if err := t.repo.SaveFlashcard(ctx, profile, rec); err != nil {
		return progress.FlashcardRecord{}, fmt.Errorf("rate card %s: %w", cardID, err)
	}
	return rec, nil
}

// Rollup sets the topic's flashcard mastery to the mean mastery of cardIDs,
// counting unseen cards as 0, and returns the updated topic record.
func (t *Tracker) Rollup(ctx context.Context, profile string, topic TopicRef, cardIDs []string) (progress.TopicRecord, error) {
	total := 0
	for _, id := range cardIDs {
		rec, err := t.repo.Flashcard(ctx, profile, id)
		if err != nil {
			return progress.TopicRecord{}, err
		}
		total += rec.MasteryPercent
	}

	rec, err := t.repo.Topic(ctx, profile, topic.Curriculum, topic.SubjectKey, topic.TopicKey)
	if err != nil {
		return progress.TopicRecord{}, err
	}
	rec.FlashcardMasteryPercent = Percent(total, 100*len(cardIDs))
	if err := t.repo.SaveTopic(ctx, profile, rec); err != nil {
		return progress.TopicRecord{}, fmt.Errorf("rollup topic %s: %w", topic.TopicKey, err)
	}
	rec.Derive(t.repo.UnlockThreshold())
	return rec, nil
}

// DueCards returns the ids in cardIDs that are due for review now, in order.
func (t *Tracker) DueCards(ctx context.Context, profile string, cardIDs []string) ([]string, error) {
	now := t.clock()
	var due []string
	for _, id := range cardIDs {
		rec, err := t.repo.Flashcard(ctx, profile, id)
		if err != nil {
			return nil, err
		}
		if rec.Due(now) {
			due = append(due, id)
		}
	}
	return due, nil
}

// Session is one flashcard review batch of a topic. The topic rollup runs
// when the last pending card of the batch is rated.
type Session struct {
	tracker    *Tracker
	profile    string
	topic      TopicRef
	topicCards []string
	inBatch    map[string]bool
	pending    map[string]bool
}

// RateResult is the outcome of a rating inside a session. Topic is set only
// when the rating finished the batch.
type RateResult struct {
	Card  progress.FlashcardRecord
	Topic *progress.TopicRecord
}

// StartSession opens a review session over batch. topicCards lists every
// card of the topic and feeds the rollup.
func (t *Tracker) StartSession(profile string, topic TopicRef, topicCards, batch []string) *Session {
	s := &Session{
		tracker:    t,
		profile:    profile,
		topic:      topic,
		topicCards: append([]string(nil), topicCards...),
		inBatch:    make(map[string]bool, len(batch)),
		pending:    make(map[string]bool, len(batch)),
	}
	for _, id := range batch {
		s.inBatch[id] = true
		s.pending[id] = true
	}
	return s
}

// Remaining returns the number of batch cards not yet rated.
func (s *Session) Remaining() int {
	return len(s.pending)
}

// Rate rates a batch card. Cards may be re-rated; once every card has been
// rated, each rating refreshes the topic rollup.
func (s *Session) Rate(ctx context.Context, cardID string, c progress.Confidence) (RateResult, error) {
	if !s.inBatch[cardID] {
		return RateResult{}, fmt.Errorf("%w: %s", ErrNotInBatch, cardID)
	}
	card, err := s.tracker.Rate(ctx, s.profile, cardID, c)
	if err != nil {
		return RateResult{}, err
	}
	delete(s.pending, cardID)

	res := RateResult{Card: card}
	if len(s.pending) == 0 {
		topic, err := s.tracker.Rollup(ctx, s.profile, s.topic, s.topicCards)
		if err != nil {
			return RateResult{}, err
		}
		res.Topic = &topic
	}
	return res, nil
}
