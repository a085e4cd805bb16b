// Package report exports a learner's progress as an Excel workbook.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-study/internal/progress"
)

// Sheet names.
const (
	TopicsSheet = "Topics"
	PapersSheet = "Papers"
)

var (
	topicHeader = []any{"Curriculum", "Subject / Unit", "Topic", "Flashcard mastery %", "Quick check passed", "Quiz unlocked", "Topic test score"}
	paperHeader = []any{"Subject", "Tier", "Paper", "Marks earned", "Marks total", "Percent", "Passed", "Extended earned", "Extended total", "Completed at"}
)

// Build creates the progress workbook. The caller closes it.
func Build(topics []progress.TopicRecord, papers []progress.PaperResult) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", TopicsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(PapersSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("add sheet: %w", err)
	}

	if err := writeTopics(f, topics); err != nil {
		f.Close()
		return nil, err
	}
	if err := writePapers(f, papers); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// Write builds the workbook and writes it to w.
func Write(w io.Writer, topics []progress.TopicRecord, papers []progress.PaperResult) error {
	f, err := Build(topics, papers)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeTopics(f *excelize.File, topics []progress.TopicRecord) error {
	if err := writeHeader(f, TopicsSheet, topicHeader); err != nil {
		return err
	}
	for i, t := range topics {
		row := []any{
			t.Curriculum,
			t.SubjectKey,
			t.TopicKey,
			t.FlashcardMasteryPercent,
			yesNo(t.QuickCheckPassed),
			yesNo(t.QuizUnlocked),
			optional(t.TopicTestScore),
		}
		if err := setRow(f, TopicsSheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writePapers(f *excelize.File, papers []progress.PaperResult) error {
	if err := writeHeader(f, PapersSheet, paperHeader); err != nil {
		return err
	}
	for i, p := range papers {
		completed := ""
		if !p.CompletedAt.IsZero() {
			completed = p.CompletedAt.UTC().Format("2006-01-02 15:04")
		}
		row := []any{
			p.SubjectKey,
			p.Tier,
			p.PaperNumber,
			p.MarksEarned,
			p.MarksTotal,
			p.Percent,
			yesNo(p.Passed),
			p.ExtendedEarned,
			p.ExtendedTotal,
			completed,
		}
		if err := setRow(f, PapersSheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, header []any) error {
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, style); err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	last, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", last, 18)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func optional(n *int) any {
	if n == nil {
		return ""
	}
	return *n
}
