package quiztutor

import (
	"context"
	"math/rand"
)

// VariantGenerator produces an AI paraphrase of a question. Satisfied by
// *Gateway.
type VariantGenerator interface {
	GenerateVariant(ctx context.Context, q *Question) (*GeneratedQuestion, error)
}

// QuizBuilder assembles the question list a session starts from. Each policy
// reports failure to the caller; nothing is retried behind their back.
type QuizBuilder struct {
	db  *DB
	gen VariantGenerator
}

// NewQuizBuilder creates a quiz builder.
func NewQuizBuilder(db *DB, gen VariantGenerator) *QuizBuilder {
	return &QuizBuilder{db: db, gen: gen}
}

// sampleIDs picks min(count, len(ids)) ids without replacement.
func sampleIDs(ids []int64, count int) []int64 {
	shuffled := append([]int64(nil), ids...)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if count > len(shuffled) {
		count = len(shuffled)
	}
	return shuffled[:count]
}

// RandomOriginal samples authored questions, optionally filtered by
// difficulty (empty = all). An empty pool is ErrNoQuestionsAvailable.
func (b *QuizBuilder) RandomOriginal(count int, difficulty Difficulty) ([]QuizRef, error) {
	ids, err := b.db.OriginalIDsByDifficulty(difficulty)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrNoQuestionsAvailable
	}

	refs := make([]QuizRef, 0, count)
	for _, id := range sampleIDs(ids, count) {
		refs = append(refs, QuizRef{ID: id, Variant: VariantOriginal})
	}
	return refs, nil
}

// RandomModified samples originals and generates an AI variant of each.
// Individual generation failures are skipped; only when every sampled
// question fails is the whole start reported as ErrGenerationFailed. Each
// variant inherits the difficulty tag of its original.
func (b *QuizBuilder) RandomModified(ctx context.Context, count int) ([]QuizRef, error) {
	ids, err := b.db.QuestionIDs(VariantOriginal)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrNoQuestionsAvailable
	}

	var refs []QuizRef
	for _, id := range sampleIDs(ids, count) {
		original, err := b.db.GetQuestion(id, VariantOriginal)
		if err != nil {
			VerboseLog("Variant generation: failed to load original %d: %v", id, err)
			continue
		}

		generated, err := b.gen.GenerateVariant(ctx, original)
		if err != nil {
			VerboseLog("Variant generation failed for question %d: %v", id, err)
			continue
		}

		newID, err := b.db.SaveModified(id, generated, original.Difficulty)
		if err != nil {
			VerboseLog("Failed to save variant of question %d: %v", id, err)
			continue
		}
		refs = append(refs, QuizRef{ID: newID, Variant: VariantModified})
	}

	if len(refs) == 0 {
		return nil, ErrGenerationFailed
	}
	return refs, nil
}

// SingleByID builds a one-question quiz from an original question id.
func (b *QuizBuilder) SingleByID(id int64) ([]QuizRef, error) {
	if _, err := b.db.GetQuestion(id, VariantOriginal); err != nil {
		return nil, err
	}
	return []QuizRef{{ID: id, Variant: VariantOriginal}}, nil
}

// RetryWrong builds a quiz from the user's wrong-answer list: the distinct
// questions whose latest attempt was incorrect.
func (b *QuizBuilder) RetryWrong(username string) ([]QuizRef, error) {
	records, err := b.db.WrongAnswers(username)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoQuestionsAvailable
	}

	refs := make([]QuizRef, 0, len(records))
	for _, rec := range records {
		refs = append(refs, QuizRef{ID: rec.QuestionID, Variant: rec.Variant})
	}
	return refs, nil
}

var _ QuestionGetter = (*DB)(nil)
