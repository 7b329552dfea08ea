package quiztutor

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// decodeQuestionColumns turns the JSON options/answer columns into typed
// collections. Rows never leave the store with opaque JSON strings.
func decodeQuestionColumns(q *Question, optionsJSON, answerJSON string) error {
	if err := json.Unmarshal([]byte(optionsJSON), &q.Options); err != nil {
		return fmt.Errorf("failed to decode options for question %d: %w", q.ID, err)
	}
	if err := json.Unmarshal([]byte(answerJSON), &q.Answer); err != nil {
		return fmt.Errorf("failed to decode answer for question %d: %w", q.ID, err)
	}
	return nil
}

func encodeQuestionColumns(q *Question) (optionsJSON, answerJSON string, err error) {
	opts, err := json.Marshal(q.Options)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal options: %w", err)
	}
	ans, err := json.Marshal(q.Answer)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal answer: %w", err)
	}
	return string(opts), string(ans), nil
}

// GetQuestion retrieves a question by id from the table selected by variant.
// A missing row is the normal ErrQuestionNotFound outcome.
func (db *DB) GetQuestion(id int64, variant Variant) (*Question, error) {
	if !variant.Valid() {
		return nil, fmt.Errorf("invalid question variant %q", variant)
	}

	q := Question{ID: id, Variant: variant}
	var optionsJSON, answerJSON string
	var err error

	if variant == VariantModified {
		err = db.db.QueryRow(
			"SELECT id, original_id, question, options, answer, difficulty, created_at FROM modified_questions WHERE id = ?",
			id,
		).Scan(&q.ID, &q.OriginalID, &q.Text, &optionsJSON, &answerJSON, &q.Difficulty, &q.CreatedAt)
	} else {
		var mediaURL, mediaType sql.NullString
		err = db.db.QueryRow(
			"SELECT id, question, options, answer, difficulty, media_url, media_type FROM original_questions WHERE id = ?",
			id,
		).Scan(&q.ID, &q.Text, &optionsJSON, &answerJSON, &q.Difficulty, &mediaURL, &mediaType)
		q.MediaURL = mediaURL.String
		q.MediaType = MediaType(mediaType.String)
	}

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: id=%d variant=%s", ErrQuestionNotFound, id, variant)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	if err := decodeQuestionColumns(&q, optionsJSON, answerJSON); err != nil {
		return nil, err
	}
	return &q, nil
}

// AddOriginal inserts a new authored question and returns its id.
func (db *DB) AddOriginal(q *Question) (int64, error) {
	if err := q.Validate(); err != nil {
		return 0, err
	}
	optionsJSON, answerJSON, err := encodeQuestionColumns(q)
	if err != nil {
		return 0, err
	}

	res, err := db.db.Exec(
		"INSERT INTO original_questions (question, options, answer, difficulty, media_url, media_type) VALUES (?, ?, ?, ?, ?, ?)",
		q.Text, optionsJSON, answerJSON, string(q.Difficulty), nullable(q.MediaURL), nullable(string(q.MediaType)),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert question: %w", err)
	}
	return res.LastInsertId()
}

// UpdateOriginal overwrites an authored question in place.
func (db *DB) UpdateOriginal(q *Question) error {
	if err := q.Validate(); err != nil {
		return err
	}
	optionsJSON, answerJSON, err := encodeQuestionColumns(q)
	if err != nil {
		return err
	}

	res, err := db.db.Exec(
		"UPDATE original_questions SET question = ?, options = ?, answer = ?, difficulty = ?, media_url = ?, media_type = ? WHERE id = ?",
		q.Text, optionsJSON, answerJSON, string(q.Difficulty), nullable(q.MediaURL), nullable(string(q.MediaType)), q.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id=%d variant=%s", ErrQuestionNotFound, q.ID, VariantOriginal)
	}
	return nil
}

// UpdateDifficulty rewrites just the difficulty tag of an original question.
func (db *DB) UpdateDifficulty(id int64, difficulty Difficulty) error {
	res, err := db.db.Exec(
		"UPDATE original_questions SET difficulty = ? WHERE id = ?",
		string(difficulty), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update difficulty: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update difficulty: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id=%d variant=%s", ErrQuestionNotFound, id, VariantOriginal)
	}
	return nil
}

// SaveModified persists an AI-generated variant of an original question and
// returns its new id. The variant inherits the difficulty tag it is given.
func (db *DB) SaveModified(originalID int64, gq *GeneratedQuestion, difficulty Difficulty) (int64, error) {
	q := Question{
		Variant:    VariantModified,
		OriginalID: originalID,
		Text:       gq.Question,
		Options:    gq.Options,
		Answer:     gq.Answer,
		Difficulty: difficulty,
	}
	if err := q.Validate(); err != nil {
		return 0, fmt.Errorf("generated question failed validation: %w", err)
	}
	optionsJSON, answerJSON, err := encodeQuestionColumns(&q)
	if err != nil {
		return 0, err
	}

	res, err := db.db.Exec(
		"INSERT INTO modified_questions (original_id, question, options, answer, difficulty, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		originalID, q.Text, optionsJSON, answerJSON, string(difficulty), time.Now(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert modified question: %w", err)
	}
	return res.LastInsertId()
}

// DeleteModified removes one AI variant along with every user's answer
// records and the cached explanation for it.
func (db *DB) DeleteModified(id int64) error {
	if _, err := db.db.Exec(
		"DELETE FROM user_answers WHERE question_id = ? AND question_type = ?", id, string(VariantModified),
	); err != nil {
		return fmt.Errorf("failed to delete answer records: %w", err)
	}
	if _, err := db.db.Exec(
		"DELETE FROM ai_explanations WHERE question_id = ? AND question_type = ?", id, string(VariantModified),
	); err != nil {
		return fmt.Errorf("failed to delete explanation: %w", err)
	}
	if _, err := db.db.Exec("DELETE FROM modified_questions WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete modified question: %w", err)
	}
	return nil
}

// ClearQuestions removes every question of the given variant, together with
// the answer records and cached explanations that reference them.
func (db *DB) ClearQuestions(variant Variant) error {
	if !variant.Valid() {
		return fmt.Errorf("invalid question variant %q", variant)
	}
	if _, err := db.db.Exec("DELETE FROM user_answers WHERE question_type = ?", string(variant)); err != nil {
		return fmt.Errorf("failed to clear answer records: %w", err)
	}
	if _, err := db.db.Exec("DELETE FROM ai_explanations WHERE question_type = ?", string(variant)); err != nil {
		return fmt.Errorf("failed to clear explanations: %w", err)
	}
	if _, err := db.db.Exec("DELETE FROM " + variant.table()); err != nil {
		return fmt.Errorf("failed to clear questions: %w", err)
	}
	return nil
}

// QuestionIDs returns all ids of the given variant in ascending order.
func (db *DB) QuestionIDs(variant Variant) ([]int64, error) {
	if !variant.Valid() {
		return nil, fmt.Errorf("invalid question variant %q", variant)
	}
	rows, err := db.db.Query("SELECT id FROM " + variant.table() + " ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list question ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan question id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating question ids: %w", err)
	}
	return ids, nil
}

// OriginalIDsByDifficulty returns original-question ids matching the
// difficulty filter; an empty difficulty means all difficulties.
func (db *DB) OriginalIDsByDifficulty(difficulty Difficulty) ([]int64, error) {
	if difficulty == "" {
		return db.QuestionIDs(VariantOriginal)
	}

	rows, err := db.db.Query("SELECT id FROM original_questions WHERE difficulty = ? ORDER BY id ASC", string(difficulty))
	if err != nil {
		return nil, fmt.Errorf("failed to list question ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan question id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating question ids: %w", err)
	}
	return ids, nil
}

// AllModified returns every AI variant, newest first.
func (db *DB) AllModified() ([]Question, error) {
	rows, err := db.db.Query(
		"SELECT id, original_id, question, options, answer, difficulty, created_at FROM modified_questions ORDER BY id DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list modified questions: %w", err)
	}
	defer rows.Close()

	var questions []Question
	for rows.Next() {
		q := Question{Variant: VariantModified}
		var optionsJSON, answerJSON string
		if err := rows.Scan(&q.ID, &q.OriginalID, &q.Text, &optionsJSON, &answerJSON, &q.Difficulty, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan modified question: %w", err)
		}
		if err := decodeQuestionColumns(&q, optionsJSON, answerJSON); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating modified questions: %w", err)
	}
	return questions, nil
}

// CountQuestions returns the number of stored questions of the given variant.
func (db *DB) CountQuestions(variant Variant) (int, error) {
	if !variant.Valid() {
		return 0, fmt.Errorf("invalid question variant %q", variant)
	}
	var n int
	if err := db.db.QueryRow("SELECT COUNT(*) FROM " + variant.table()).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}
	return n, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
