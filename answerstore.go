package quiztutor

import (
	"encoding/json"
	"fmt"
	"time"
)

// AppendAnswer adds one attempt to the append-only answer log. Records are
// never updated; repeated attempts at the same question each get a row.
func (db *DB) AppendAnswer(rec *AnswerRecord) error {
	choiceJSON, err := json.Marshal(rec.Choice)
	if err != nil {
		return fmt.Errorf("failed to marshal choice: %w", err)
	}
	if rec.SolvedAt.IsZero() {
		rec.SolvedAt = time.Now()
	}

	res, err := db.db.Exec(
		"INSERT INTO user_answers (username, question_id, question_type, user_choice, is_correct, solved_at) VALUES (?, ?, ?, ?, ?, ?)",
		rec.Username, rec.QuestionID, string(rec.Variant), string(choiceJSON), rec.IsCorrect, rec.SolvedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append answer record: %w", err)
	}
	rec.ID, _ = res.LastInsertId()
	return nil
}

// WrongAnswers returns the user's wrong-answer list: for each distinct
// (question, variant) pair only the latest attempt is considered, and the
// pair appears only when that latest attempt was incorrect. A question the
// user has since answered correctly does not show up.
func (db *DB) WrongAnswers(username string) ([]AnswerRecord, error) {
	rows, err := db.db.Query(`
		SELECT id, username, question_id, question_type, user_choice, is_correct, solved_at FROM (
			SELECT *, ROW_NUMBER() OVER (
				PARTITION BY question_id, question_type
				ORDER BY solved_at DESC, id DESC
			) AS attempt_rank
			FROM user_answers
			WHERE username = ?
		)
		WHERE attempt_rank = 1 AND is_correct = 0
		ORDER BY solved_at DESC`,
		username,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query wrong answers: %w", err)
	}
	defer rows.Close()

	var records []AnswerRecord
	for rows.Next() {
		var rec AnswerRecord
		var variant, choiceJSON string
		if err := rows.Scan(&rec.ID, &rec.Username, &rec.QuestionID, &variant, &choiceJSON, &rec.IsCorrect, &rec.SolvedAt); err != nil {
			return nil, fmt.Errorf("failed to scan answer record: %w", err)
		}
		rec.Variant = Variant(variant)
		if err := json.Unmarshal([]byte(choiceJSON), &rec.Choice); err != nil {
			return nil, fmt.Errorf("failed to decode choice for record %d: %w", rec.ID, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating answer records: %w", err)
	}
	return records, nil
}

// UserStats returns the all-attempts totals for a user. Every record counts,
// including repeat attempts at the same question.
func (db *DB) UserStats(username string) (total, correct int, accuracy float64, err error) {
	err = db.db.QueryRow(
		"SELECT COUNT(*), COALESCE(SUM(is_correct), 0) FROM user_answers WHERE username = ?",
		username,
	).Scan(&total, &correct)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to query stats: %w", err)
	}
	if total == 0 {
		return 0, 0, 0, nil
	}
	return total, correct, float64(correct) / float64(total) * 100, nil
}

// TopMissed returns the original questions the user has answered wrong most
// often, counting every attempt, ordered by wrong count descending with
// ascending question id as the tie-break.
func (db *DB) TopMissed(username string, limit int) ([]MissedQuestion, error) {
	rows, err := db.db.Query(`
		SELECT q.id, q.question, COUNT(*) AS wrong_count
		FROM user_answers ua
		JOIN original_questions q ON ua.question_id = q.id
		WHERE ua.is_correct = 0 AND ua.question_type = ? AND ua.username = ?
		GROUP BY q.id, q.question
		ORDER BY wrong_count DESC, q.id ASC
		LIMIT ?`,
		string(VariantOriginal), username, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query top missed: %w", err)
	}
	defer rows.Close()

	var missed []MissedQuestion
	for rows.Next() {
		var m MissedQuestion
		if err := rows.Scan(&m.QuestionID, &m.Question, &m.WrongCount); err != nil {
			return nil, fmt.Errorf("failed to scan missed question: %w", err)
		}
		missed = append(missed, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating missed questions: %w", err)
	}
	return missed, nil
}

// DeleteAnswers removes all of a user's records for one question.
func (db *DB) DeleteAnswers(username string, questionID int64, variant Variant) error {
	_, err := db.db.Exec(
		"DELETE FROM user_answers WHERE username = ? AND question_id = ? AND question_type = ?",
		username, questionID, string(variant),
	)
	if err != nil {
		return fmt.Errorf("failed to delete answer records: %w", err)
	}
	return nil
}

// DeleteAnswersForUser removes a user's entire answer history.
func (db *DB) DeleteAnswersForUser(username string) error {
	if _, err := db.db.Exec("DELETE FROM user_answers WHERE username = ?", username); err != nil {
		return fmt.Errorf("failed to delete answer history: %w", err)
	}
	return nil
}

// GradeAndRecord grades the session against the question store and appends
// one answer record per graded question. Revisiting results appends again;
// duplicates are attempts, not state.
func (db *DB) GradeAndRecord(username string, s *Session) (*GradeResult, error) {
	result, err := s.Grade(db)
	if err != nil {
		return nil, err
	}

	for _, r := range result.Results {
		rec := AnswerRecord{
			Username:   username,
			QuestionID: r.Ref.ID,
			Variant:    r.Ref.Variant,
			Choice:     r.Chosen,
			IsCorrect:  r.Correct,
		}
		if err := db.AppendAnswer(&rec); err != nil {
			return nil, err
		}
	}
	return result, nil
}
