package quiztutor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// QuestionExport is the interchange format for seeding and backing up the
// original-question set: a JSON array of these objects.
type QuestionExport struct {
	ID         int64             `json:"id"`
	Question   string            `json:"question"`
	Options    map[string]string `json:"options"`
	Answer     []string          `json:"answer"`
	Difficulty string            `json:"difficulty"`
	MediaURL   string            `json:"media_url,omitempty"`
	MediaType  string            `json:"media_type,omitempty"`
}

// ImportResult reports the outcome of a bulk import.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// ParseQuestionsJSON reads the interchange format.
func ParseQuestionsJSON(r io.Reader) ([]QuestionExport, error) {
	var items []QuestionExport
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to parse questions JSON: %w", err)
	}
	return items, nil
}

// ImportOriginals replaces the original-question set with the given items.
// Items failing validation are skipped and counted, never aborting the rest
// of the batch. An unknown difficulty token falls back to medium.
func (db *DB) ImportOriginals(items []QuestionExport) (*ImportResult, error) {
	if len(items) == 0 {
		return nil, ErrNoQuestionsAvailable
	}

	if _, err := db.db.Exec("DELETE FROM original_questions"); err != nil {
		return nil, fmt.Errorf("failed to clear original questions: %w", err)
	}

	result := ImportResult{}
	for _, item := range items {
		difficulty, ok := ParseDifficulty(item.Difficulty)
		if !ok {
			difficulty = DifficultyMedium
		}
		q := Question{
			ID:         item.ID,
			Variant:    VariantOriginal,
			Text:       item.Question,
			Options:    item.Options,
			Answer:     item.Answer,
			Difficulty: difficulty,
			MediaURL:   item.MediaURL,
			MediaType:  MediaType(item.MediaType),
		}
		if err := q.Validate(); err != nil {
			VerboseLog("Import: skipping question %d: %v", item.ID, err)
			result.Skipped++
			continue
		}

		optionsJSON, answerJSON, err := encodeQuestionColumns(&q)
		if err != nil {
			return &result, err
		}
		_, err = db.db.Exec(
			"INSERT INTO original_questions (id, question, options, answer, difficulty, media_url, media_type) VALUES (?, ?, ?, ?, ?, ?, ?)",
			q.ID, q.Text, optionsJSON, answerJSON, string(difficulty), nullable(q.MediaURL), nullable(string(q.MediaType)),
		)
		if err != nil {
			VerboseLog("Import: failed to insert question %d: %v", item.ID, err)
			result.Skipped++
			continue
		}
		result.Imported++
	}
	return &result, nil
}

// ExportOriginals produces the interchange-format snapshot of the
// original-question set, ordered by id.
func (db *DB) ExportOriginals() ([]QuestionExport, error) {
	ids, err := db.QuestionIDs(VariantOriginal)
	if err != nil {
		return nil, err
	}

	items := make([]QuestionExport, 0, len(ids))
	for _, id := range ids {
		q, err := db.GetQuestion(id, VariantOriginal)
		if err != nil {
			return nil, err
		}
		items = append(items, QuestionExport{
			ID:         q.ID,
			Question:   q.Text,
			Options:    q.Options,
			Answer:     q.Answer,
			Difficulty: string(q.Difficulty),
			MediaURL:   q.MediaURL,
			MediaType:  string(q.MediaType),
		})
	}
	return items, nil
}

// DifficultyAnalyzer classifies question difficulty. Satisfied by *Gateway.
type DifficultyAnalyzer interface {
	AnalyzeDifficulty(ctx context.Context, questionText string) (Difficulty, error)
}

// AnalyzeImportDifficulties runs the AI difficulty classifier over a batch
// before import, rewriting each item's tag in place. Items whose call fails
// keep medium and are counted; the batch always completes.
func AnalyzeImportDifficulties(ctx context.Context, analyzer DifficultyAnalyzer, items []QuestionExport) (failures int) {
	for i := range items {
		difficulty, err := analyzer.AnalyzeDifficulty(ctx, items[i].Question)
		if err != nil {
			VerboseLog("Difficulty analysis failed for question %d: %v", items[i].ID, err)
			failures++
		}
		items[i].Difficulty = string(difficulty)
	}
	return failures
}
