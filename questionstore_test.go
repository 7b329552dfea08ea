package quiztutor

import (
	"errors"
	"testing"
)

func TestQuestionRoundtrip(t *testing.T) {
	db := openTestDB(t)

	q := Question{
		Variant: VariantOriginal,
		Text:    "What does a mutex protect?",
		Options: map[string]string{"A": "shared state", "B": "disk space"},
		Answer:  []string{"A"},
		Difficulty: DifficultyEasy,
		MediaURL:   "https://example.com/diagram.png",
		MediaType:  MediaImage,
	}
	id, err := db.AddOriginal(&q)
	if err != nil {
		t.Fatalf("AddOriginal: %v", err)
	}

	got, err := db.GetQuestion(id, VariantOriginal)
	if err != nil {
		t.Fatalf("GetQuestion: %v", err)
	}
	if got.Text != q.Text {
		t.Errorf("text = %q, want %q", got.Text, q.Text)
	}
	if got.Options["B"] != "disk space" {
		t.Errorf("options = %v", got.Options)
	}
	if len(got.Answer) != 1 || got.Answer[0] != "A" {
		t.Errorf("answer = %v, want [A]", got.Answer)
	}
	if got.Difficulty != DifficultyEasy {
		t.Errorf("difficulty = %s, want easy", got.Difficulty)
	}
	if got.MediaURL != q.MediaURL || got.MediaType != MediaImage {
		t.Errorf("media = %q %q", got.MediaURL, got.MediaType)
	}
}

func TestAddOriginalRejectsInvalid(t *testing.T) {
	db := openTestDB(t)

	tests := []struct {
		name string
		q    Question
	}{
		{"one option", Question{Text: "q", Options: map[string]string{"A": "a"}, Answer: []string{"A"}}},
		{"empty answer", Question{Text: "q", Options: map[string]string{"A": "a", "B": "b"}}},
		{"answer not an option", Question{Text: "q", Options: map[string]string{"A": "a", "B": "b"}, Answer: []string{"Z"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := db.AddOriginal(&tt.q); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestGetQuestionNotFound(t *testing.T) {
	db := openTestDB(t)

	_, err := db.GetQuestion(42, VariantOriginal)
	if !errors.Is(err, ErrQuestionNotFound) {
		t.Errorf("error = %v, want ErrQuestionNotFound", err)
	}
	_, err = db.GetQuestion(42, VariantModified)
	if !errors.Is(err, ErrQuestionNotFound) {
		t.Errorf("modified error = %v, want ErrQuestionNotFound", err)
	}
	if _, err := db.GetQuestion(42, Variant("bogus")); err == nil {
		t.Error("invalid variant should fail")
	}
}

func TestUpdateOriginal(t *testing.T) {
	db := openTestDB(t)
	id := mustAddOriginal(t, db, "original text", "A")

	updated := Question{
		ID:      id,
		Variant: VariantOriginal,
		Text:    "updated text",
		Options: map[string]string{"A": "a", "B": "b"},
		Answer:  []string{"B"},
		Difficulty: DifficultyHard,
	}
	if err := db.UpdateOriginal(&updated); err != nil {
		t.Fatalf("UpdateOriginal: %v", err)
	}

	got, err := db.GetQuestion(id, VariantOriginal)
	if err != nil {
		t.Fatalf("GetQuestion: %v", err)
	}
	if got.Text != "updated text" || got.Answer[0] != "B" || got.Difficulty != DifficultyHard {
		t.Errorf("update not applied: %+v", got)
	}

	updated.ID = 999
	if err := db.UpdateOriginal(&updated); !errors.Is(err, ErrQuestionNotFound) {
		t.Errorf("updating missing id: error = %v, want ErrQuestionNotFound", err)
	}
}

func TestUpdateDifficulty(t *testing.T) {
	db := openTestDB(t)
	id := mustAddOriginal(t, db, "q", "A")

	if err := db.UpdateDifficulty(id, DifficultyHard); err != nil {
		t.Fatalf("UpdateDifficulty: %v", err)
	}
	q, err := db.GetQuestion(id, VariantOriginal)
	if err != nil {
		t.Fatalf("GetQuestion: %v", err)
	}
	if q.Difficulty != DifficultyHard {
		t.Errorf("difficulty = %s, want hard", q.Difficulty)
	}

	if err := db.UpdateDifficulty(999, DifficultyEasy); !errors.Is(err, ErrQuestionNotFound) {
		t.Errorf("error = %v, want ErrQuestionNotFound", err)
	}
}

func TestSaveModified(t *testing.T) {
	db := openTestDB(t)
	originalID := mustAddOriginal(t, db, "original", "A")

	gq := GeneratedQuestion{
		Question: "paraphrased",
		Options:  map[string]string{"A": "a", "B": "b"},
		Answer:   []string{"B"},
	}
	id, err := db.SaveModified(originalID, &gq, DifficultyHard)
	if err != nil {
		t.Fatalf("SaveModified: %v", err)
	}

	got, err := db.GetQuestion(id, VariantModified)
	if err != nil {
		t.Fatalf("GetQuestion: %v", err)
	}
	if got.OriginalID != originalID {
		t.Errorf("original_id = %d, want %d", got.OriginalID, originalID)
	}
	if got.Difficulty != DifficultyHard {
		t.Errorf("difficulty = %s, want hard", got.Difficulty)
	}

	// Generated payloads are validated like authored ones.
	bad := GeneratedQuestion{Question: "q", Options: map[string]string{"A": "a", "B": "b"}, Answer: []string{"Z"}}
	if _, err := db.SaveModified(originalID, &bad, DifficultyMedium); err == nil {
		t.Error("invalid generated question should be rejected")
	}
}

func TestDeleteModifiedCascades(t *testing.T) {
	db := openTestDB(t)
	originalID := mustAddOriginal(t, db, "original", "A")

	gq := GeneratedQuestion{Question: "v", Options: map[string]string{"A": "a", "B": "b"}, Answer: []string{"A"}}
	id, err := db.SaveModified(originalID, &gq, DifficultyMedium)
	if err != nil {
		t.Fatalf("SaveModified: %v", err)
	}

	rec := AnswerRecord{Username: "kim", QuestionID: id, Variant: VariantModified, Choice: []string{"B"}}
	if err := db.AppendAnswer(&rec); err != nil {
		t.Fatalf("AppendAnswer: %v", err)
	}
	if err := db.SaveExplanation(id, VariantModified, &Explanation{Analogy: "x", Visualization: "y", CoreConcepts: "z"}); err != nil {
		t.Fatalf("SaveExplanation: %v", err)
	}

	if err := db.DeleteModified(id); err != nil {
		t.Fatalf("DeleteModified: %v", err)
	}

	if _, err := db.GetQuestion(id, VariantModified); !errors.Is(err, ErrQuestionNotFound) {
		t.Errorf("question survived delete: %v", err)
	}
	records, err := db.WrongAnswers("kim")
	if err != nil {
		t.Fatalf("WrongAnswers: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("answer records survived delete: %v", records)
	}
	if _, err := db.GetExplanation(id, VariantModified); !errors.Is(err, ErrNotFound) {
		t.Errorf("explanation survived delete: %v", err)
	}
}

func TestClearQuestionsCascades(t *testing.T) {
	db := openTestDB(t)
	id := mustAddOriginal(t, db, "q1", "A")
	mustAddOriginal(t, db, "q2", "B")

	rec := AnswerRecord{Username: "kim", QuestionID: id, Variant: VariantOriginal, Choice: []string{"B"}}
	if err := db.AppendAnswer(&rec); err != nil {
		t.Fatalf("AppendAnswer: %v", err)
	}

	if err := db.ClearQuestions(VariantOriginal); err != nil {
		t.Fatalf("ClearQuestions: %v", err)
	}

	n, err := db.CountQuestions(VariantOriginal)
	if err != nil {
		t.Fatalf("CountQuestions: %v", err)
	}
	if n != 0 {
		t.Errorf("count after clear = %d, want 0", n)
	}
	total, _, _, err := db.UserStats("kim")
	if err != nil {
		t.Fatalf("UserStats: %v", err)
	}
	if total != 0 {
		t.Errorf("answer records survived clear: %d", total)
	}
}

func TestOriginalIDsByDifficulty(t *testing.T) {
	db := openTestDB(t)

	easy := Question{Variant: VariantOriginal, Text: "e", Options: map[string]string{"A": "a", "B": "b"}, Answer: []string{"A"}, Difficulty: DifficultyEasy}
	easyID, err := db.AddOriginal(&easy)
	if err != nil {
		t.Fatalf("AddOriginal: %v", err)
	}
	mustAddOriginal(t, db, "m", "A") // medium

	ids, err := db.OriginalIDsByDifficulty(DifficultyEasy)
	if err != nil {
		t.Fatalf("OriginalIDsByDifficulty: %v", err)
	}
	if len(ids) != 1 || ids[0] != easyID {
		t.Errorf("easy ids = %v, want [%d]", ids, easyID)
	}

	all, err := db.OriginalIDsByDifficulty("")
	if err != nil {
		t.Fatalf("OriginalIDsByDifficulty(all): %v", err)
	}
	if len(all) != 2 {
		t.Errorf("all ids = %v, want 2 entries", all)
	}
}
