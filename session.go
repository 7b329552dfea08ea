package quiztutor

import (
	"errors"
	"fmt"
	"sort"
)

// Session is the per-user quiz state: the ordered question list, the cursor,
// and the labels chosen so far at each index. It is gob-encoded into the
// browser session between requests and mutated only by that user's requests,
// so it carries no locking.
type Session struct {
	Questions []QuizRef        `json:"questions"`
	Cursor    int              `json:"cursor"`
	Choices   map[int][]string `json:"choices"`
}

// Active reports whether a quiz is in progress.
func (s *Session) Active() bool {
	return len(s.Questions) > 0
}

// Start begins a new quiz over the given question list. All previous choices
// are cleared even when the list reuses the same question ids.
func (s *Session) Start(refs []QuizRef) error {
	if len(refs) == 0 {
		return errors.New("cannot start a quiz with no questions")
	}
	s.Questions = append([]QuizRef(nil), refs...)
	s.Cursor = 0
	s.Choices = make(map[int][]string)
	return nil
}

// Reset discards the active quiz.
func (s *Session) Reset() {
	s.Questions = nil
	s.Cursor = 0
	s.Choices = nil
}

// Select applies one option click at the given index. With answerCount <= 1
// the label replaces any previous choice (single-select); otherwise the label
// toggles in and out of the chosen set. Out-of-range indexes and inactive
// sessions are no-ops.
func (s *Session) Select(index int, label string, answerCount int) {
	if !s.Active() || index < 0 || index >= len(s.Questions) {
		return
	}
	if s.Choices == nil {
		s.Choices = make(map[int][]string)
	}

	if answerCount <= 1 {
		s.Choices[index] = []string{label}
		return
	}

	chosen := s.Choices[index]
	for i, l := range chosen {
		if l == label {
			s.Choices[index] = append(chosen[:i], chosen[i+1:]...)
			return
		}
	}
	s.Choices[index] = append(chosen, label)
}

// Advance moves the cursor by delta, clamped to [0, N-1]. No wraparound.
func (s *Session) Advance(delta int) {
	if !s.Active() {
		return
	}
	s.Cursor += delta
	if s.Cursor < 0 {
		s.Cursor = 0
	}
	if s.Cursor > len(s.Questions)-1 {
		s.Cursor = len(s.Questions) - 1
	}
}

// Current returns the question reference under the cursor.
func (s *Session) Current() (QuizRef, error) {
	if !s.Active() {
		return QuizRef{}, errors.New("no active quiz")
	}
	return s.Questions[s.Cursor], nil
}

// Choice returns the chosen labels at the given index.
func (s *Session) Choice(index int) []string {
	return s.Choices[index]
}

// QuestionGetter looks up a stored question. Satisfied by *DB.
type QuestionGetter interface {
	GetQuestion(id int64, variant Variant) (*Question, error)
}

// QuestionResult is the graded outcome for one session entry.
type QuestionResult struct {
	Ref     QuizRef  `json:"ref"`
	Text    string   `json:"question"`
	Chosen  []string `json:"chosen"`
	Answer  []string `json:"answer"`
	Correct bool     `json:"correct"`
}

// GradeResult is the outcome of grading a full session.
type GradeResult struct {
	Results      []QuestionResult `json:"results"`
	Skipped      []QuizRef        `json:"skipped,omitempty"`
	CorrectCount int              `json:"correct_count"`
	Total        int              `json:"total"`
	Score        float64          `json:"score"`
}

// Grade compares every entry's chosen labels against the stored answer key.
// A question is correct iff the two sets are equal ignoring order AND the
// stored key is non-empty; a malformed empty key can never be marked correct,
// even by an empty submission. Questions deleted from the store since the
// quiz started are skipped with a warning, not failed.
func (s *Session) Grade(store QuestionGetter) (*GradeResult, error) {
	if !s.Active() {
		return nil, errors.New("no active quiz to grade")
	}

	result := GradeResult{Total: len(s.Questions)}
	for i, ref := range s.Questions {
		q, err := store.GetQuestion(ref.ID, ref.Variant)
		if errors.Is(err, ErrQuestionNotFound) {
			VerboseLog("Grading: question id=%d variant=%s no longer exists, skipping", ref.ID, ref.Variant)
			result.Skipped = append(result.Skipped, ref)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to grade question %d: %w", ref.ID, err)
		}

		chosen := s.Choices[i]
		correct := len(q.Answer) > 0 && labelSetsEqual(chosen, q.Answer)
		if correct {
			result.CorrectCount++
		}
		result.Results = append(result.Results, QuestionResult{
			Ref:     ref,
			Text:    q.Text,
			Chosen:  chosen,
			Answer:  q.Answer,
			Correct: correct,
		})
	}

	result.Score = float64(result.CorrectCount) / float64(result.Total) * 100
	return &result, nil
}

func labelSetsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
