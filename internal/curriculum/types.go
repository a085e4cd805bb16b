package curriculum

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/p-n-ai/pai-study/internal/grading"
)

// Curricula a topic can belong to.
const (
	Science  = "science"
	Business = "business"
)

// Topic represents a curriculum topic loaded from YAML. Science topics are
// keyed by subject, paper and tier; business topics by unit.
type Topic struct {
	ID          string      `yaml:"id"`
	Name        string      `yaml:"name"`
	Curriculum  string      `yaml:"curriculum"`
	SubjectID   string      `yaml:"subject_id"`
	UnitID      string      `yaml:"unit_id"`
	Paper       int         `yaml:"paper"`
	Tier        string      `yaml:"tier"`
	Flashcards  []Flashcard `yaml:"flashcards"`
	QuickChecks []Item      `yaml:"quick_checks"`
}

// GroupKey returns the subject for science topics and the unit for
// business topics.
func (t Topic) GroupKey() string {
	if t.Curriculum == Business {
		return t.UnitID
	}
	return t.SubjectID
}

// Flashcard is a two-sided review card.
type Flashcard struct {
	ID    string `yaml:"id"`
	Front string `yaml:"front"`
	Back  string `yaml:"back"`
}

// Item is a gradable quick check or exam-style question.
type Item struct {
	ID             string
	TopicID        string
	Prompt         string
	Format         string
	Choices        []string
	Marks          int
	QuickCheck     bool
	Answer         grading.Answer
	CommonMistakes []string
	Breakdown      *grading.AnswerBreakdown
}

// Extended reports whether the item is graded point by point.
func (it Item) Extended() bool {
	return it.Breakdown != nil && it.Marks >= grading.ExtendedMarks
}

// UnmarshalYAML decodes an item. A scalar answer is a single answer, a list
// is a set of acceptable answers, and an order list is an ordered sequence.
func (it *Item) UnmarshalYAML(n *yaml.Node) error {
	var raw struct {
		ID             string                   `yaml:"id"`
		Prompt         string                   `yaml:"prompt"`
		Format         string                   `yaml:"kind"`
		Choices        []string                 `yaml:"choices"`
		Marks          int                      `yaml:"marks"`
		Answer         yaml.Node                `yaml:"answer"`
		Order          []string                 `yaml:"order"`
		CommonMistakes []string                 `yaml:"common_mistakes"`
		Breakdown      *grading.AnswerBreakdown `yaml:"breakdown"`
	}
	if err := n.Decode(&raw); err != nil {
		return err
	}

	answer, err := decodeAnswer(&raw.Answer, raw.Order)
	if err != nil {
		return fmt.Errorf("item %s: %w", raw.ID, err)
	}

	*it = Item{
		ID:             raw.ID,
		Prompt:         raw.Prompt,
		Format:         raw.Format,
		Choices:        raw.Choices,
		Marks:          raw.Marks,
		Answer:         answer,
		CommonMistakes: raw.CommonMistakes,
		Breakdown:      raw.Breakdown,
	}
	if it.Breakdown != nil && it.Breakdown.QuestionID == "" {
		it.Breakdown.QuestionID = it.ID
	}
	return nil
}

func decodeAnswer(n *yaml.Node, order []string) (grading.Answer, error) {
	if len(order) > 0 {
		return grading.OrderedSequence(order), nil
	}
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.ScalarNode:
		var s string
		if err := n.Decode(&s); err != nil {
			return nil, err
		}
		return grading.SingleAnswer(s), nil
	case yaml.SequenceNode:
		var set []string
		if err := n.Decode(&set); err != nil {
			return nil, err
		}
		return grading.AnswerSet(set), nil
	default:
		return nil, fmt.Errorf("%w: answer must be a string or a list", ErrInvalidContent)
	}
}

// assessmentFile is the layout of a *.assessments.yaml file.
type assessmentFile struct {
	TopicID   string `yaml:"topic_id"`
	Questions []Item `yaml:"questions"`
}

// vocabularyFile is the layout of vocabulary.yaml.
type vocabularyFile struct {
	Science  []string `yaml:"science"`
	Business []string `yaml:"business"`
}
