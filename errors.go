package quiztutor

import (
	"errors"
	"fmt"
	"strings"
)

// Expected outcomes, returned as values rather than panics or opaque errors.
var (
	// ErrNotFound is the normal "no such row" outcome of a lookup.
	ErrNotFound = errors.New("not found")

	// ErrQuestionNotFound is returned when a quiz references a question id
	// that does not exist.
	ErrQuestionNotFound = errors.New("question not found")

	// ErrNoQuestionsAvailable is returned when a quiz start policy finds an
	// empty question pool.
	ErrNoQuestionsAvailable = errors.New("no questions available")

	// ErrGenerationFailed is returned when every sampled question failed
	// variant generation.
	ErrGenerationFailed = errors.New("AI variant generation failed for all sampled questions")

	// ErrDuplicateUsername is returned when registering an existing username.
	ErrDuplicateUsername = errors.New("username is already taken")

	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Upstream AI failure classes. Neither is retried automatically; they exist
// so callers can present different guidance.
var (
	ErrAIServerError   = errors.New("AI service server error, try again shortly")
	ErrAIQuotaExceeded = errors.New("AI usage quota exceeded, check your usage limits")
)

// MalformedAIResponseError means no JSON object could be extracted from the
// model output. Raw carries the full response text for diagnostics.
type MalformedAIResponseError struct {
	Raw string
}

func (e *MalformedAIResponseError) Error() string {
	return fmt.Sprintf("no valid JSON object in AI response: %s", truncate(e.Raw, 200))
}

// IncompleteGeneratedQuestionError means the variant-generation response
// parsed as JSON but is missing required fields.
type IncompleteGeneratedQuestionError struct {
	Raw     string
	Missing []string
}

func (e *IncompleteGeneratedQuestionError) Error() string {
	return fmt.Sprintf("generated question is missing required fields %s: %s",
		strings.Join(e.Missing, ", "), truncate(e.Raw, 200))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
