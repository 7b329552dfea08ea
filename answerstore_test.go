package quiztutor

import (
	"testing"
	"time"
)

func appendAttempt(t *testing.T, db *DB, username string, questionID int64, variant Variant, correct bool, at time.Time) {
	t.Helper()
	rec := AnswerRecord{
		Username:   username,
		QuestionID: questionID,
		Variant:    variant,
		Choice:     []string{"A"},
		IsCorrect:  correct,
		SolvedAt:   at,
	}
	if err := db.AppendAnswer(&rec); err != nil {
		t.Fatalf("AppendAnswer: %v", err)
	}
}

func TestWrongAnswersLatestAttemptWins(t *testing.T) {
	db := openTestDB(t)
	q1 := mustAddOriginal(t, db, "q1", "A")
	q2 := mustAddOriginal(t, db, "q2", "A")
	q3 := mustAddOriginal(t, db, "q3", "A")

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	// q1: wrong then correct -> resolved, not listed.
	appendAttempt(t, db, "kim", q1, VariantOriginal, false, base)
	appendAttempt(t, db, "kim", q1, VariantOriginal, true, base.Add(time.Hour))

	// q2: correct then wrong -> regressed, listed.
	appendAttempt(t, db, "kim", q2, VariantOriginal, true, base)
	appendAttempt(t, db, "kim", q2, VariantOriginal, false, base.Add(2*time.Hour))

	// q3: wrong once -> listed.
	appendAttempt(t, db, "kim", q3, VariantOriginal, false, base.Add(time.Hour))

	records, err := db.WrongAnswers("kim")
	if err != nil {
		t.Fatalf("WrongAnswers: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("wrong answers = %d entries, want 2: %+v", len(records), records)
	}
	// Newest latest-attempt first.
	if records[0].QuestionID != q2 || records[1].QuestionID != q3 {
		t.Errorf("order = [%d %d], want [%d %d]", records[0].QuestionID, records[1].QuestionID, q2, q3)
	}
}

func TestWrongAnswersVariantsTrackedSeparately(t *testing.T) {
	db := openTestDB(t)
	originalID := mustAddOriginal(t, db, "q", "A")
	gq := GeneratedQuestion{Question: "v", Options: map[string]string{"A": "a", "B": "b"}, Answer: []string{"A"}}
	modifiedID, err := db.SaveModified(originalID, &gq, DifficultyMedium)
	if err != nil {
		t.Fatalf("SaveModified: %v", err)
	}

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	appendAttempt(t, db, "kim", originalID, VariantOriginal, true, base)
	appendAttempt(t, db, "kim", modifiedID, VariantModified, false, base)

	records, err := db.WrongAnswers("kim")
	if err != nil {
		t.Fatalf("WrongAnswers: %v", err)
	}
	if len(records) != 1 || records[0].Variant != VariantModified {
		t.Errorf("records = %+v, want only the modified attempt", records)
	}
}

func TestWrongAnswersScopedToUser(t *testing.T) {
	db := openTestDB(t)
	q := mustAddOriginal(t, db, "q", "A")

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	appendAttempt(t, db, "kim", q, VariantOriginal, false, base)
	appendAttempt(t, db, "lee", q, VariantOriginal, true, base)

	records, err := db.WrongAnswers("lee")
	if err != nil {
		t.Fatalf("WrongAnswers: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("lee sees kim's records: %+v", records)
	}
}

func TestUserStatsCountEveryAttempt(t *testing.T) {
	db := openTestDB(t)
	q := mustAddOriginal(t, db, "q", "A")

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	appendAttempt(t, db, "kim", q, VariantOriginal, false, base)
	appendAttempt(t, db, "kim", q, VariantOriginal, false, base.Add(time.Hour))
	appendAttempt(t, db, "kim", q, VariantOriginal, true, base.Add(2*time.Hour))
	appendAttempt(t, db, "kim", q, VariantOriginal, true, base.Add(3*time.Hour))

	total, correct, accuracy, err := db.UserStats("kim")
	if err != nil {
		t.Fatalf("UserStats: %v", err)
	}
	if total != 4 || correct != 2 {
		t.Errorf("stats = %d/%d, want 2/4", correct, total)
	}
	if accuracy != 50 {
		t.Errorf("accuracy = %v, want 50", accuracy)
	}
}

func TestUserStatsEmpty(t *testing.T) {
	db := openTestDB(t)
	total, correct, accuracy, err := db.UserStats("nobody")
	if err != nil {
		t.Fatalf("UserStats: %v", err)
	}
	if total != 0 || correct != 0 || accuracy != 0 {
		t.Errorf("empty stats = %d/%d/%v, want zeros", correct, total, accuracy)
	}
}

func TestTopMissedOrderingAndTiebreak(t *testing.T) {
	db := openTestDB(t)
	q1 := mustAddOriginal(t, db, "q1", "A")
	q2 := mustAddOriginal(t, db, "q2", "A")
	q3 := mustAddOriginal(t, db, "q3", "A")

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	// q2 missed three times, q1 and q3 once each.
	appendAttempt(t, db, "kim", q2, VariantOriginal, false, base)
	appendAttempt(t, db, "kim", q2, VariantOriginal, false, base.Add(time.Hour))
	appendAttempt(t, db, "kim", q2, VariantOriginal, false, base.Add(2*time.Hour))
	appendAttempt(t, db, "kim", q1, VariantOriginal, false, base)
	appendAttempt(t, db, "kim", q3, VariantOriginal, false, base)
	// A later correct attempt does not erase earlier misses here.
	appendAttempt(t, db, "kim", q2, VariantOriginal, true, base.Add(3*time.Hour))

	missed, err := db.TopMissed("kim", 2)
	if err != nil {
		t.Fatalf("TopMissed: %v", err)
	}
	if len(missed) != 2 {
		t.Fatalf("missed = %d entries, want 2", len(missed))
	}
	if missed[0].QuestionID != q2 || missed[0].WrongCount != 3 {
		t.Errorf("first = %+v, want question %d with 3 misses", missed[0], q2)
	}
	// Tie between q1 and q3 breaks toward the lower id.
	if missed[1].QuestionID != q1 {
		t.Errorf("second = %+v, want question %d", missed[1], q1)
	}
}

func TestDeleteAnswers(t *testing.T) {
	db := openTestDB(t)
	q1 := mustAddOriginal(t, db, "q1", "A")
	q2 := mustAddOriginal(t, db, "q2", "A")

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	appendAttempt(t, db, "kim", q1, VariantOriginal, false, base)
	appendAttempt(t, db, "kim", q2, VariantOriginal, false, base)

	if err := db.DeleteAnswers("kim", q1, VariantOriginal); err != nil {
		t.Fatalf("DeleteAnswers: %v", err)
	}

	records, err := db.WrongAnswers("kim")
	if err != nil {
		t.Fatalf("WrongAnswers: %v", err)
	}
	if len(records) != 1 || records[0].QuestionID != q2 {
		t.Errorf("records after delete = %+v, want only question %d", records, q2)
	}
}

func TestGradeAndRecordAppendsEveryResult(t *testing.T) {
	db := openTestDB(t)
	q1 := mustAddOriginal(t, db, "q1", "A")
	q2 := mustAddOriginal(t, db, "q2", "B")

	var s Session
	s.Start([]QuizRef{{ID: q1, Variant: VariantOriginal}, {ID: q2, Variant: VariantOriginal}})
	s.Select(0, "A", 1)
	s.Select(1, "A", 1)

	result, err := db.GradeAndRecord("kim", &s)
	if err != nil {
		t.Fatalf("GradeAndRecord: %v", err)
	}
	if result.CorrectCount != 1 || result.Total != 2 {
		t.Errorf("grade = %d/%d, want 1/2", result.CorrectCount, result.Total)
	}

	// Correct answers are recorded too, not just the misses.
	total, correct, _, err := db.UserStats("kim")
	if err != nil {
		t.Fatalf("UserStats: %v", err)
	}
	if total != 2 || correct != 1 {
		t.Errorf("recorded = %d/%d, want 1/2", correct, total)
	}

	// A second visit to the results appends a second attempt per question.
	if _, err := db.GradeAndRecord("kim", &s); err != nil {
		t.Fatalf("second GradeAndRecord: %v", err)
	}
	total, _, _, err = db.UserStats("kim")
	if err != nil {
		t.Fatalf("UserStats: %v", err)
	}
	if total != 4 {
		t.Errorf("recorded after revisit = %d, want 4", total)
	}
}
