package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/p-n-ai/pai-study/internal/store"
)

// DefaultUnlockThreshold is the flashcard mastery percent needed to clear
// the check stage.
const DefaultUnlockThreshold = 70

// Repository reads and writes typed progress records over a RecordStore.
// Missing or corrupt records read as their zero-progress default.
type Repository struct {
	store           store.RecordStore
	unlockThreshold int
}

// NewRepository creates a repository. A non-positive threshold selects
// DefaultUnlockThreshold.
func NewRepository(s store.RecordStore, unlockThreshold int) *Repository {
	if unlockThreshold <= 0 {
		unlockThreshold = DefaultUnlockThreshold
	}
	return &Repository{store: s, unlockThreshold: unlockThreshold}
}

// UnlockThreshold returns the mastery percent used to derive QuizUnlocked.
func (r *Repository) UnlockThreshold() int {
	return r.unlockThreshold
}

// Flashcard returns the record of a card.
func (r *Repository) Flashcard(ctx context.Context, profile, cardID string) (FlashcardRecord, error) {
	rec, _, err := load[FlashcardRecord](ctx, r.store, store.FlashcardKey(profile, cardID))
	if err != nil {
		return FlashcardRecord{}, err
	}
	rec.ItemID = cardID
	return rec, nil
}

// SaveFlashcard stores a card record.
func (r *Repository) SaveFlashcard(ctx context.Context, profile string, rec FlashcardRecord) error {
	return save(ctx, r.store, store.FlashcardKey(profile, rec.ItemID), rec)
}

// Topic returns the record of a topic.
func (r *Repository) Topic(ctx context.Context, profile, curriculum, subject, topic string) (TopicRecord, error) {
	rec, _, err := load[TopicRecord](ctx, r.store, store.TopicKey(profile, curriculum, subject, topic))
	if err != nil {
		return TopicRecord{}, err
	}
	rec.Curriculum, rec.SubjectKey, rec.TopicKey = curriculum, subject, topic
	rec.Derive(r.unlockThreshold)
	return rec, nil
}

// SaveTopic stores a topic record with its derived flags refreshed.
func (r *Repository) SaveTopic(ctx context.Context, profile string, rec TopicRecord) error {
	rec.Derive(r.unlockThreshold)
	return save(ctx, r.store, store.TopicKey(profile, rec.Curriculum, rec.SubjectKey, rec.TopicKey), rec)
}

// Unit returns the practice-stage record of a unit.
func (r *Repository) Unit(ctx context.Context, profile, unit string) (UnitRecord, error) {
	rec, _, err := load[UnitRecord](ctx, r.store, store.UnitKey(profile, unit))
	if err != nil {
		return UnitRecord{}, err
	}
	rec.UnitID = unit
	if rec.Stages == nil {
		rec.Stages = map[string]StageRecord{}
	}
	return rec, nil
}

// SaveUnit stores a unit record.
func (r *Repository) SaveUnit(ctx context.Context, profile string, rec UnitRecord) error {
	return save(ctx, r.store, store.UnitKey(profile, rec.UnitID), rec)
}

// Paper returns the latest result of a paper; ok is false if never attempted.
func (r *Repository) Paper(ctx context.Context, profile, subject, tier string, paper int) (PaperResult, bool, error) {
	return load[PaperResult](ctx, r.store, store.PaperKey(profile, subject, tier, paper))
}

// RecordPaper stores res as the latest result of its paper and appends it
// to the paper's history. It assigns the attempt id and carries Cleared
// forward from the previous latest result.
func (r *Repository) RecordPaper(ctx context.Context, profile string, res PaperResult) (PaperResult, error) {
	latestKey := store.PaperKey(profile, res.SubjectKey, res.Tier, res.PaperNumber)
	prev, ok, err := load[PaperResult](ctx, r.store, latestKey)
	if err != nil {
		return PaperResult{}, err
	}
	res.Cleared = res.Passed || (ok && (prev.Passed || prev.Cleared))

	history, err := r.PaperHistory(ctx, profile, res.SubjectKey, res.Tier, res.PaperNumber)
	if err != nil {
		return PaperResult{}, err
	}
	res, err = r.appendAttempt(ctx, store.PaperHistoryKey(profile, res.SubjectKey, res.Tier, res.PaperNumber), history, res)
	if err != nil {
		return PaperResult{}, err
	}
	if err := save(ctx, r.store, latestKey, res); err != nil {
		return PaperResult{}, err
	}
	return res, nil
}

// PaperHistory returns every recorded attempt of a paper, oldest first.
func (r *Repository) PaperHistory(ctx context.Context, profile, subject, tier string, paper int) ([]PaperResult, error) {
	history, _, err := load[[]PaperResult](ctx, r.store, store.PaperHistoryKey(profile, subject, tier, paper))
	return history, err
}

// RecordTopicTest appends res to the attempt history of the topic test
// named by res.SubjectKey and res.TopicKey. It assigns the attempt id.
func (r *Repository) RecordTopicTest(ctx context.Context, profile, curriculum string, res PaperResult) (PaperResult, error) {
	key := store.TopicTestHistoryKey(profile, curriculum, res.SubjectKey, res.TopicKey)
	history, err := r.TopicTestHistory(ctx, profile, curriculum, res.SubjectKey, res.TopicKey)
	if err != nil {
		return PaperResult{}, err
	}
	res.Cleared = res.Passed
	if n := len(history); n > 0 {
		res.Cleared = res.Cleared || history[n-1].Cleared
	}
	return r.appendAttempt(ctx, key, history, res)
}

// TopicTestHistory returns every recorded attempt of a topic test, oldest first.
func (r *Repository) TopicTestHistory(ctx context.Context, profile, curriculum, subject, topic string) ([]PaperResult, error) {
	history, _, err := load[[]PaperResult](ctx, r.store, store.TopicTestHistoryKey(profile, curriculum, subject, topic))
	return history, err
}

func (r *Repository) appendAttempt(ctx context.Context, key string, history []PaperResult, res PaperResult) (PaperResult, error) {
	res.AttemptID = uuid.NewString()
	if res.CompletedAt.IsZero() {
		res.CompletedAt = time.Now()
	}
	if err := save(ctx, r.store, key, append(history, res)); err != nil {
		return PaperResult{}, err
	}
	return res, nil
}

// Reset removes every record of a profile.
func (r *Repository) Reset(ctx context.Context, profile string) error {
	if err := r.store.DeletePrefix(ctx, store.ProfilePrefix(profile)); err != nil {
		return fmt.Errorf("reset profile: %w", err)
	}
	slog.Info("profile reset", "profile", profile)
	return nil
}

// load decodes the record under key. A corrupt document is logged and
// reported as absent.
func load[T any](ctx context.Context, s store.RecordStore, key string) (T, bool, error) {
	var zero T
	data, ok, err := s.Get(ctx, key)
	if err != nil {
		return zero, false, fmt.Errorf("load %s: %w", key, err)
	}
	if !ok {
		return zero, false, nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		slog.Warn("discarding corrupt record", "key", key, "error", err)
		return zero, false, nil
	}
	return v, true, nil
}

func save(ctx context.Context, s store.RecordStore, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.Set(ctx, key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
