package quiztutor

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

// DB is the tutor database connection. All stores hang off it.
type DB struct {
	db *sql.DB
}

// OpenDB opens a new database connection
func OpenDB(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.db.Close()
}

// CreateTables creates the necessary tables if they don't exist
func (db *DB) CreateTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS original_questions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			question TEXT NOT NULL,
			options TEXT NOT NULL,
			answer TEXT NOT NULL,
			difficulty TEXT NOT NULL DEFAULT 'medium',
			media_url TEXT,
			media_type TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS modified_questions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			original_id INTEGER NOT NULL,
			question TEXT NOT NULL,
			options TEXT NOT NULL,
			answer TEXT NOT NULL,
			difficulty TEXT NOT NULL DEFAULT 'medium',
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS user_answers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL,
			question_id INTEGER NOT NULL,
			question_type TEXT NOT NULL,
			user_choice TEXT NOT NULL,
			is_correct INTEGER NOT NULL,
			solved_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ai_explanations (
			question_id INTEGER NOT NULL,
			question_type TEXT NOT NULL,
			explanation TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			PRIMARY KEY (question_id, question_type)
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			username TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'user'
		)`,
		`CREATE TABLE IF NOT EXISTS chat_messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			session_title TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
	}

	for _, query := range queries {
		if _, err := db.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute %s: %w", query, err)
		}
	}
	return nil
}

// EnsureMasterAccount provisions the reserved admin account if it does not
// exist yet. Safe to call on every startup.
func (db *DB) EnsureMasterAccount(username, name, password string) error {
	var exists bool
	err := db.db.QueryRow("SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)", username).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check master account: %w", err)
	}
	if exists {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash master password: %w", err)
	}

	_, err = db.db.Exec(
		"INSERT INTO users (username, name, password_hash, role) VALUES (?, ?, ?, ?)",
		username, name, string(hash), RoleAdmin,
	)
	if err != nil {
		return fmt.Errorf("failed to create master account: %w", err)
	}

	VerboseLog("Master account %q provisioned", username)
	return nil
}
