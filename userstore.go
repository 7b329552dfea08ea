package quiztutor

import (
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// CreateUser registers a new account. The password is stored as a bcrypt
// hash; a taken username is the named ErrDuplicateUsername outcome.
func (db *DB) CreateUser(username, name, password, role string) error {
	var exists bool
	err := db.db.QueryRow("SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)", username).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrDuplicateUsername, username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	_, err = db.db.Exec(
		"INSERT INTO users (username, name, password_hash, role) VALUES (?, ?, ?, ?)",
		username, name, string(hash), role,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Authenticate checks a username/password pair. Unknown users and wrong
// passwords both come back as ErrInvalidCredentials.
func (db *DB) Authenticate(username, password string) (*User, error) {
	user, err := db.GetUser(username)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetUser retrieves one account row.
func (db *DB) GetUser(username string) (*User, error) {
	var user User
	err := db.db.QueryRow(
		"SELECT username, name, password_hash, role FROM users WHERE username = ?",
		username,
	).Scan(&user.Username, &user.Name, &user.PasswordHash, &user.Role)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, username)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// ListUsers returns every account, for the admin view.
func (db *DB) ListUsers() ([]User, error) {
	rows, err := db.db.Query("SELECT username, name, role FROM users ORDER BY username ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.Username, &user.Name, &user.Role); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// DeleteUser removes an account and all learning history tied to it.
func (db *DB) DeleteUser(username string) error {
	if err := db.DeleteAnswersForUser(username); err != nil {
		return err
	}
	if _, err := db.db.Exec("DELETE FROM chat_messages WHERE username = ?", username); err != nil {
		return fmt.Errorf("failed to delete chat history: %w", err)
	}
	if _, err := db.db.Exec("DELETE FROM users WHERE username = ?", username); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
