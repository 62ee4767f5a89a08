// Copyright SearchChat Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/searchchat/searchchat-gw/pkg/core/state"

	_ "modernc.org/sqlite"
)

func init() {
	state.Stores.Register("sqlite", func(_ context.Context, params map[string]string) (state.ConversationStore, error) {
		path := params["path"]
		if path == "" {
			return nil, fmt.Errorf("sqlite: path parameter is required")
		}
		return New(path)
	})
}

// Store is a SQLite-backed implementation of ConversationStore, for
// single-node deployments that want history to survive restarts without
// running a database server.
type Store struct {
	db *sql.DB
}

// New creates a new SQLite store backed by the given database file.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// modernc.org/sqlite is not safe for concurrent writers on one
	// connection pool without serialization.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT NOT NULL,
			conversation_id TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			source_count INTEGER NOT NULL DEFAULT 0,
			degraded INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			position INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (conversation_id, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_position ON messages(conversation_id, position)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("sqlite create tables: %w", err)
		}
	}
	return nil
}

// GetConversation retrieves a conversation and its messages.
func (s *Store) GetConversation(ctx context.Context, conversationID string) (*state.Conversation, error) {
	conv := &state.Conversation{ID: conversationID}
	err := s.db.QueryRowContext(ctx,
		`SELECT created_at, updated_at FROM conversations WHERE id = ?`,
		conversationID).Scan(&conv.CreatedAt, &conv.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, state.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite get conversation: %w", err)
	}

	msgs, err := s.loadMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	conv.Messages = msgs
	return conv, nil
}

// SaveConversation upserts the conversation row and replaces its messages.
func (s *Store) SaveConversation(ctx context.Context, conv *state.Conversation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO conversations (id, created_at, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET updated_at = excluded.updated_at`,
		conv.ID, conv.CreatedAt, conv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("sqlite upsert conversation: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM messages WHERE conversation_id = ?`, conv.ID); err != nil {
		return fmt.Errorf("sqlite clear messages: %w", err)
	}

	for i, msg := range conv.Messages {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO messages (id, conversation_id, role, content, source_count, degraded, created_at, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			msg.ID, conv.ID, msg.Role, msg.Content, msg.SourceCount, msg.Degraded, msg.CreatedAt, i)
		if err != nil {
			return fmt.Errorf("sqlite insert message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite commit: %w", err)
	}
	return nil
}

// ListConversations returns all conversations ordered by creation time.
func (s *Store) ListConversations(ctx context.Context) ([]*state.Conversation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, updated_at FROM conversations ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("sqlite list conversations: %w", err)
	}
	defer rows.Close()

	var convs []*state.Conversation
	for rows.Next() {
		conv := &state.Conversation{}
		if err := rows.Scan(&conv.ID, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite scan conversation: %w", err)
		}
		convs = append(convs, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite list conversations: %w", err)
	}

	for _, conv := range convs {
		msgs, err := s.loadMessages(ctx, conv.ID)
		if err != nil {
			return nil, err
		}
		conv.Messages = msgs
	}
	return convs, nil
}

// DeleteConversation deletes a conversation and its messages.
func (s *Store) DeleteConversation(ctx context.Context, conversationID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM messages WHERE conversation_id = ?`, conversationID); err != nil {
		return fmt.Errorf("sqlite delete messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM conversations WHERE id = ?`, conversationID); err != nil {
		return fmt.Errorf("sqlite delete conversation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite commit: %w", err)
	}
	return nil
}

func (s *Store) loadMessages(ctx context.Context, conversationID string) ([]state.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, role, content, source_count, degraded, created_at
		 FROM messages WHERE conversation_id = ? ORDER BY position`,
		conversationID)
	if err != nil {
		return nil, fmt.Errorf("sqlite load messages: %w", err)
	}
	defer rows.Close()

	var msgs []state.Message
	for rows.Next() {
		var msg state.Message
		if err := rows.Scan(&msg.ID, &msg.Role, &msg.Content, &msg.SourceCount, &msg.Degraded, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite scan message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite load messages: %w", err)
	}
	return msgs, nil
}
