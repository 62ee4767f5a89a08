// Copyright SearchChat Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package state defines the conversation history model and its storage
// interface. Only rendered message text is stored; raw search results
// stay turn-local and are never persisted.
package state

import (
	"context"
	"errors"
	"time"

	"github.com/searchchat/searchchat-gw/pkg/provider"
)

// ErrNotFound is returned when a conversation does not exist.
var ErrNotFound = errors.New("conversation not found")

// ConversationStore defines the interface for history storage.
type ConversationStore interface {
	GetConversation(ctx context.Context, conversationID string) (*Conversation, error)
	SaveConversation(ctx context.Context, conv *Conversation) error
	ListConversations(ctx context.Context) ([]*Conversation, error)
	DeleteConversation(ctx context.Context, conversationID string) error
	Close() error
}

// Stores is the registry of history backends, keyed by backend name.
var Stores = provider.NewRegistry[ConversationStore]("history")

// Conversation represents one chat session's message history.
type Conversation struct {
	ID        string    `json:"id"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message represents a message in a conversation. Assistant messages
// carry how many web sources backed the answer, and whether the turn was
// answered without context after a search failure.
type Message struct {
	ID          string    `json:"id"`
	Role        string    `json:"role"`
	Content     string    `json:"content"`
	SourceCount int       `json:"source_count,omitempty"`
	Degraded    bool      `json:"degraded,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
