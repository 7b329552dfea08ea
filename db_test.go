package quiztutor

import (
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(":memory:")
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.CreateTables(); err != nil {
		t.Fatalf("CreateTables: %v", err)
	}
	return db
}

func mustAddOriginal(t *testing.T, db *DB, text string, answer ...string) int64 {
	t.Helper()
	q := Question{
		Variant: VariantOriginal,
		Text:    text,
		Options: map[string]string{
			"A": "first option",
			"B": "second option",
			"C": "third option",
		},
		Answer:     answer,
		Difficulty: DifficultyMedium,
	}
	id, err := db.AddOriginal(&q)
	if err != nil {
		t.Fatalf("AddOriginal(%q): %v", text, err)
	}
	return id
}

func TestEnsureMasterAccountIdempotent(t *testing.T) {
	db := openTestDB(t)

	if err := db.EnsureMasterAccount("admin", "Master Admin", "secret"); err != nil {
		t.Fatalf("first EnsureMasterAccount: %v", err)
	}
	if err := db.EnsureMasterAccount("admin", "Master Admin", "different"); err != nil {
		t.Fatalf("second EnsureMasterAccount: %v", err)
	}

	// The original password still works; the second call must not overwrite.
	user, err := db.Authenticate("admin", "secret")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if user.Role != RoleAdmin {
		t.Errorf("master account role = %q, want %q", user.Role, RoleAdmin)
	}
}
