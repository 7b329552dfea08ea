package quiztutor

import (
	"fmt"
	"sort"
	"time"
)

// Variant distinguishes authored questions from AI-paraphrased derivatives.
type Variant string

const (
	VariantOriginal Variant = "original"
	VariantModified Variant = "modified"
)

// table returns the backing table for this variant.
func (v Variant) table() string {
	if v == VariantModified {
		return "modified_questions"
	}
	return "original_questions"
}

// Valid reports whether v is a known variant tag.
func (v Variant) Valid() bool {
	return v == VariantOriginal || v == VariantModified
}

// Difficulty is the soft classification tag attached to every question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty validates a difficulty token. The empty string means
// "no filter" to callers that accept it and is not a valid tag here.
func ParseDifficulty(s string) (Difficulty, bool) {
	switch Difficulty(s) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return Difficulty(s), true
	}
	return "", false
}

// MediaType tags an optional media attachment on a question.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// Question is one multiple-choice question from either table. Options maps
// single-letter labels (assigned A, B, C, ... in insertion order) to option
// text; Answer is the set of correct labels.
type Question struct {
	ID         int64             `json:"id"`
	Variant    Variant           `json:"variant"`
	OriginalID int64             `json:"original_id,omitempty"` // set on modified questions
	Text       string            `json:"question"`
	Options    map[string]string `json:"options"`
	Answer     []string          `json:"answer"`
	Difficulty Difficulty        `json:"difficulty"`
	MediaURL   string            `json:"media_url,omitempty"`
	MediaType  MediaType         `json:"media_type,omitempty"`
	CreatedAt  time.Time         `json:"created_at,omitempty"`
}

// AnswerCount returns the number of picks the question requires. A malformed
// empty answer key defaults to single-select so the question stays usable.
func (q *Question) AnswerCount() int {
	if len(q.Answer) == 0 {
		return 1
	}
	return len(q.Answer)
}

// SortedLabels returns the option labels in display order.
func (q *Question) SortedLabels() []string {
	labels := make([]string, 0, len(q.Options))
	for label := range q.Options {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Validate checks the structural invariants: at least two options and a
// non-empty answer set whose labels all exist in the options.
func (q *Question) Validate() error {
	if len(q.Options) < 2 {
		return fmt.Errorf("question needs at least 2 options, got %d", len(q.Options))
	}
	if len(q.Answer) == 0 {
		return fmt.Errorf("question has an empty answer set")
	}
	for _, label := range q.Answer {
		if _, ok := q.Options[label]; !ok {
			return fmt.Errorf("answer label %q is not an option", label)
		}
	}
	return nil
}

// QuizRef identifies one question within a quiz session.
type QuizRef struct {
	ID      int64   `json:"id"`
	Variant Variant `json:"variant"`
}

// AnswerRecord is one immutable log entry of a user's attempt at a question.
type AnswerRecord struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	QuestionID int64     `json:"question_id"`
	Variant    Variant   `json:"variant"`
	Choice     []string  `json:"choice"`
	IsCorrect  bool      `json:"is_correct"`
	SolvedAt   time.Time `json:"solved_at"`
}

// MissedQuestion is one row of the most-missed ranking.
type MissedQuestion struct {
	QuestionID int64  `json:"question_id"`
	Question   string `json:"question"`
	WrongCount int    `json:"wrong_count"`
}

// Explanation is the structured AI explanation for a question.
type Explanation struct {
	Analogy       string `json:"analogy"`
	Visualization string `json:"visualization"`
	CoreConcepts  string `json:"core_concepts"`
}

// GeneratedQuestion is the normalized payload of a variant-generation call.
type GeneratedQuestion struct {
	Question string            `json:"question"`
	Options  map[string]string `json:"options"`
	Answer   []string          `json:"answer"`
}

// User is one account row.
type User struct {
	Username     string `json:"username"`
	Name         string `json:"name"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ChatMessage is one turn of the free-form tutor chat.
type ChatMessage struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Title     string    `json:"session_title"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatSessionInfo summarizes one tutor chat session.
type ChatSessionInfo struct {
	SessionID string    `json:"session_id"`
	Title     string    `json:"session_title"`
	UpdatedAt time.Time `json:"updated_at"`
}
