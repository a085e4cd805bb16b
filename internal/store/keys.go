package store

import (
	"net/url"
	"strconv"
	"strings"
)

// Keys are slash-separated with every component path-escaped, so a
// component can never introduce a separator.

// ProfilePrefix is the prefix shared by every record of a profile.
func ProfilePrefix(profile string) string {
	return join("profile", profile) + "/"
}

// FlashcardKey addresses a FlashcardMasteryRecord.
func FlashcardKey(profile, cardID string) string {
	return join("profile", profile, "flashcard", cardID)
}

// TopicKey addresses a TopicMasteryRecord within a curriculum.
func TopicKey(profile, curriculum, subject, topic string) string {
	return join("profile", profile, "topic", curriculum, subject, topic)
}

// TopicTestHistoryKey addresses the attempt history of a topic test.
func TopicTestHistoryKey(profile, curriculum, subject, topic string) string {
	return TopicKey(profile, curriculum, subject, topic) + "/tests"
}

// UnitKey addresses the practice-stage record of a business unit.
func UnitKey(profile, unit string) string {
	return join("profile", profile, "unit", unit)
}

// PaperKey addresses the latest PaperTestResult of a paper.
func PaperKey(profile, subject, tier string, paper int) string {
	return join("profile", profile, "paper", subject, tier, strconv.Itoa(paper))
}

// PaperHistoryKey addresses the attempt history of a paper.
func PaperHistoryKey(profile, subject, tier string, paper int) string {
	return PaperKey(profile, subject, tier, paper) + "/history"
}

func join(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return strings.Join(escaped, "/")
}
