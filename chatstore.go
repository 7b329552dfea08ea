package quiztutor

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// NewChatSessionID returns a fresh tutor chat session identifier.
func NewChatSessionID() string {
	return uuid.NewString()
}

// AppendChatMessage stores one turn of a tutor conversation.
func (db *DB) AppendChatMessage(msg *ChatMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	res, err := db.db.Exec(
		"INSERT INTO chat_messages (username, session_id, role, content, session_title, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		msg.Username, msg.SessionID, msg.Role, msg.Content, msg.Title, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append chat message: %w", err)
	}
	msg.ID, _ = res.LastInsertId()
	return nil
}

// ChatSessions lists a user's tutor sessions, most recently active first.
func (db *DB) ChatSessions(username string) ([]ChatSessionInfo, error) {
	rows, err := db.db.Query(`
		SELECT session_id, session_title, MAX(created_at) AS updated_at
		FROM chat_messages
		WHERE username = ?
		GROUP BY session_id, session_title
		ORDER BY updated_at DESC`,
		username,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat sessions: %w", err)
	}
	defer rows.Close()

	var sessions []ChatSessionInfo
	for rows.Next() {
		var s ChatSessionInfo
		if err := rows.Scan(&s.SessionID, &s.Title, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chat sessions: %w", err)
	}
	return sessions, nil
}

// ChatHistory returns one session's messages in chronological order.
func (db *DB) ChatHistory(username, sessionID string) ([]ChatMessage, error) {
	rows, err := db.db.Query(
		"SELECT id, username, session_id, role, content, session_title, created_at FROM chat_messages WHERE username = ? AND session_id = ? ORDER BY id ASC",
		username, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat history: %w", err)
	}
	defer rows.Close()

	var messages []ChatMessage
	for rows.Next() {
		var msg ChatMessage
		if err := rows.Scan(&msg.ID, &msg.Username, &msg.SessionID, &msg.Role, &msg.Content, &msg.Title, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chat messages: %w", err)
	}
	return messages, nil
}

// DeleteChatSession removes one tutor session and its messages.
func (db *DB) DeleteChatSession(username, sessionID string) error {
	_, err := db.db.Exec(
		"DELETE FROM chat_messages WHERE username = ? AND session_id = ?",
		username, sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete chat session: %w", err)
	}
	return nil
}
