// Package curriculum loads the read-only study content catalog.
package curriculum

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/p-n-ai/pai-study/internal/grading"
)

// Loader loads and caches curriculum content from the filesystem.
type Loader struct {
	rootDir       string
	topics        map[string]Topic
	items         map[string]Item
	questions     map[string][]string
	cardTopic     map[string]string
	teachingNotes map[string]string
	vocab         map[string]grading.Vocabulary
	mu            sync.RWMutex
}

// NewLoader creates a new curriculum loader and loads all content.
func NewLoader(rootDir string) (*Loader, error) {
	l := &Loader{
		rootDir:       rootDir,
		topics:        make(map[string]Topic),
		items:         make(map[string]Item),
		questions:     make(map[string][]string),
		cardTopic:     make(map[string]string),
		teachingNotes: make(map[string]string),
		vocab: map[string]grading.Vocabulary{
			Science:  grading.ScienceVocabulary(),
			Business: grading.BusinessVocabulary(),
		},
	}

	if err := l.loadAll(); err != nil {
		return nil, fmt.Errorf("loading curriculum: %w", err)
	}

	slog.Info("curriculum loaded", "topics", len(l.topics), "items", len(l.items))
	return l, nil
}

// GetTopic returns a topic by ID.
func (l *Loader) GetTopic(id string) (Topic, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.topics[id]
	return t, ok
}

// GetItem returns a quick check or question by ID.
func (l *Loader) GetItem(id string) (Item, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	it, ok := l.items[id]
	return it, ok
}

// GetTeachingNotes returns teaching notes for a topic ID.
func (l *Loader) GetTeachingNotes(id string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n, ok := l.teachingNotes[id]
	return n, ok
}

// TopicForCard returns the topic a flashcard belongs to.
func (l *Loader) TopicForCard(cardID string) (Topic, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	id, ok := l.cardTopic[cardID]
	if !ok {
		return Topic{}, false
	}
	return l.topics[id], true
}

// FlashcardIDs returns the card IDs of a topic in authored order.
func (l *Loader) FlashcardIDs(topicID string) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t := l.topics[topicID]
	ids := make([]string, 0, len(t.Flashcards))
	for _, c := range t.Flashcards {
		ids = append(ids, c.ID)
	}
	return ids
}

// QuestionsForTopic returns the assessment questions of a topic.
func (l *Loader) QuestionsForTopic(topicID string) []Item {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := l.questions[topicID]
	out := make([]Item, 0, len(ids))
	for _, id := range ids {
		out = append(out, l.items[id])
	}
	return out
}

// TopicsForUnit returns the business topics of a unit, sorted by ID.
func (l *Loader) TopicsForUnit(unitID string) []Topic {
	return l.filter(func(t Topic) bool {
		return t.Curriculum == Business && t.UnitID == unitID
	})
}

// TopicsForSubject returns the science topics of a subject, sorted by ID.
func (l *Loader) TopicsForSubject(subjectID string) []Topic {
	return l.filter(func(t Topic) bool {
		return t.Curriculum != Business && t.SubjectID == subjectID
	})
}

// AllTopics returns all loaded topics, sorted by ID.
func (l *Loader) AllTopics() []Topic {
	return l.filter(func(Topic) bool { return true })
}

// Vocabulary returns the domain vocabulary of a curriculum. Unknown
// curricula get the science vocabulary.
func (l *Loader) Vocabulary(curriculum string) grading.Vocabulary {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if v, ok := l.vocab[curriculum]; ok {
		return v
	}
	return l.vocab[Science]
}

func (l *Loader) filter(keep func(Topic) bool) []Topic {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Topic
	for _, t := range l.topics {
		if keep(t) {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b Topic) int { return strings.Compare(a.ID, b.ID) })
	return out
}

func (l *Loader) loadAll() error {
	var assessments []string
	err := filepath.Walk(l.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}

		switch base := filepath.Base(path); {
		case strings.HasSuffix(path, ".teaching.md"):
			return l.loadTeachingNotes(path)
		case base == "vocabulary.yaml" || base == "vocabulary.yml":
			return l.loadVocabulary(path)
		case strings.HasSuffix(path, ".assessments.yaml"):
			assessments = append(assessments, path)
		case strings.HasSuffix(path, ".examples.yaml"):
			return nil // Not catalog content
		case strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml"):
			return l.loadTopic(path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Assessments reference topics, so they load once every topic is known.
	for _, path := range assessments {
		if err := l.loadAssessments(path); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) loadTopic(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var topic Topic
	if err := yaml.Unmarshal(data, &topic); err != nil {
		slog.Warn("skipping invalid topic YAML", "path", path, "error", err)
		return nil
	}

	if topic.ID == "" {
		return nil // Not a topic file
	}
	if topic.Curriculum == "" {
		topic.Curriculum = Science
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range topic.QuickChecks {
		qc := &topic.QuickChecks[i]
		qc.TopicID = topic.ID
		qc.QuickCheck = true
		qc.Marks = 1
		l.items[qc.ID] = *qc
	}
	for _, c := range topic.Flashcards {
		l.cardTopic[c.ID] = topic.ID
	}
	l.topics[topic.ID] = topic

	return nil
}

func (l *Loader) loadAssessments(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := ValidateAssessment(data); err != nil {
		slog.Warn("skipping invalid assessments", "path", path, "error", err)
		return nil
	}

	var file assessmentFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		slog.Warn("skipping invalid assessments", "path", path, "error", err)
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.topics[file.TopicID]; !ok {
		slog.Warn("assessments for unknown topic", "path", path, "topic_id", file.TopicID)
		return nil
	}
	for _, q := range file.Questions {
		q.TopicID = file.TopicID
		l.items[q.ID] = q
		l.questions[file.TopicID] = append(l.questions[file.TopicID], q.ID)
	}
	return nil
}

func (l *Loader) loadVocabulary(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var file vocabularyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		slog.Warn("skipping invalid vocabulary YAML", "path", path, "error", err)
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(file.Science) > 0 {
		l.vocab[Science] = grading.NewVocabulary(file.Science...)
	}
	if len(file.Business) > 0 {
		l.vocab[Business] = grading.NewVocabulary(file.Business...)
	}
	return nil
}

func (l *Loader) loadTeachingNotes(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	// Derive topic ID from matching YAML file
	yamlPath := strings.TrimSuffix(path, ".teaching.md") + ".yaml"
	yamlData, err := os.ReadFile(yamlPath)
	if err != nil {
		return nil // No matching YAML, skip
	}

	var partial struct {
		ID string `yaml:"id"`
	}
	if err := yaml.Unmarshal(yamlData, &partial); err != nil || partial.ID == "" {
		return nil
	}

	l.mu.Lock()
	l.teachingNotes[partial.ID] = string(data)
	l.mu.Unlock()

	return nil
}
