package quiztutor

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ExplanationGenerator produces a structured explanation for a question.
// Satisfied by *Gateway.
type ExplanationGenerator interface {
	GenerateExplanation(ctx context.Context, q *Question) (*Explanation, error)
}

// GetExplanation returns the cached explanation for a question, or
// ErrNotFound when none has been generated yet.
func (db *DB) GetExplanation(questionID int64, variant Variant) (*Explanation, error) {
	var explanationJSON string
	err := db.db.QueryRow(
		"SELECT explanation FROM ai_explanations WHERE question_id = ? AND question_type = ?",
		questionID, string(variant),
	).Scan(&explanationJSON)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: explanation for id=%d variant=%s", ErrNotFound, questionID, variant)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get explanation: %w", err)
	}

	var exp Explanation
	if err := json.Unmarshal([]byte(explanationJSON), &exp); err != nil {
		return nil, fmt.Errorf("failed to decode stored explanation: %w", err)
	}
	return &exp, nil
}

// SaveExplanation caches a generated explanation, replacing any previous one
// for the same question.
func (db *DB) SaveExplanation(questionID int64, variant Variant, exp *Explanation) error {
	explanationJSON, err := json.Marshal(exp)
	if err != nil {
		return fmt.Errorf("failed to marshal explanation: %w", err)
	}
	_, err = db.db.Exec(
		"INSERT OR REPLACE INTO ai_explanations (question_id, question_type, explanation, created_at) VALUES (?, ?, ?, ?)",
		questionID, string(variant), string(explanationJSON), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save explanation: %w", err)
	}
	return nil
}

// ExplainQuestion returns the explanation for a question, generating and
// caching it on first request. Subsequent requests reuse the stored copy.
func (db *DB) ExplainQuestion(ctx context.Context, gen ExplanationGenerator, questionID int64, variant Variant) (*Explanation, error) {
	exp, err := db.GetExplanation(questionID, variant)
	if err == nil {
		return exp, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	q, err := db.GetQuestion(questionID, variant)
	if err != nil {
		return nil, err
	}

	exp, err = gen.GenerateExplanation(ctx, q)
	if err != nil {
		return nil, err
	}
	if err := db.SaveExplanation(questionID, variant, exp); err != nil {
		return nil, err
	}
	return exp, nil
}

// DeleteExplanation drops one cached explanation.
func (db *DB) DeleteExplanation(questionID int64, variant Variant) error {
	_, err := db.db.Exec(
		"DELETE FROM ai_explanations WHERE question_id = ? AND question_type = ?",
		questionID, string(variant),
	)
	if err != nil {
		return fmt.Errorf("failed to delete explanation: %w", err)
	}
	return nil
}

// DeleteAllExplanations empties the explanation cache.
func (db *DB) DeleteAllExplanations() error {
	if _, err := db.db.Exec("DELETE FROM ai_explanations"); err != nil {
		return fmt.Errorf("failed to clear explanations: %w", err)
	}
	return nil
}
