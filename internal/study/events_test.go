package study_test

import (
	"testing"

	"github.com/p-n-ai/pai-study/internal/study"
)

func TestMemoryEventLogger_LogEvent(t *testing.T) {
	logger := study.NewMemoryEventLogger()

	err := logger.LogEvent(study.Event{
		Profile:   "p1",
		EventType: study.EventFlashcardRated,
		Data: map[string]any{
			"rating": 3,
		},
	})
	if err != nil {
		t.Fatalf("LogEvent() error = %v", err)
	}

	events := logger.Events()
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	if events[0].EventType != study.EventFlashcardRated {
		t.Errorf("EventType = %q, want %s", events[0].EventType, study.EventFlashcardRated)
	}
	if events[0].CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestMemoryEventLogger_RequiresType(t *testing.T) {
	logger := study.NewMemoryEventLogger()
	if err := logger.LogEvent(study.Event{Profile: "p1"}); err == nil {
		t.Fatal("expected error for missing event type")
	}
}

func TestPostgresEventLogger_LogEvent_NilPool(t *testing.T) {
	logger := study.NewPostgresEventLogger(nil)

	err := logger.LogEvent(study.Event{
		Profile:   "p1",
		EventType: study.EventTestFinished,
	})
	if err == nil {
		t.Fatal("expected error for nil pool")
	}
	if err := logger.Migrate(t.Context()); err == nil {
		t.Fatal("expected Migrate error for nil pool")
	}
}

func TestNopEventLogger(t *testing.T) {
	if err := (study.NopEventLogger{}).LogEvent(study.Event{}); err != nil {
		t.Errorf("LogEvent() error = %v, want nil", err)
	}
}
