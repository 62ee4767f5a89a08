// Copyright SearchChat Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/searchchat/searchchat-gw/pkg/core/state"
)

func init() {
	state.Stores.Register("memory", func(_ context.Context, _ map[string]string) (state.ConversationStore, error) {
		return New(), nil
	})
}

// Store is an in-memory implementation of ConversationStore
type Store struct {
	mu            sync.RWMutex
	conversations map[string]*state.Conversation
}

// New creates a new in-memory store
func New() *Store {
	return &Store{
		conversations: make(map[string]*state.Conversation),
	}
}

// GetConversation retrieves a conversation by ID
func (s *Store) GetConversation(_ context.Context, conversationID string) (*state.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, exists := s.conversations[conversationID]
	if !exists {
		return nil, state.ErrNotFound
	}
	return copyConversation(conv), nil
}

// SaveConversation creates or replaces a conversation
func (s *Store) SaveConversation(_ context.Context, conv *state.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversations[conv.ID] = copyConversation(conv)
	return nil
}

// ListConversations returns all conversations ordered by creation time
func (s *Store) ListConversations(_ context.Context) ([]*state.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	convs := make([]*state.Conversation, 0, len(s.conversations))
	for _, conv := range s.conversations {
		convs = append(convs, copyConversation(conv))
	}
	sort.Slice(convs, func(i, j int) bool {
		return convs[i].CreatedAt.Before(convs[j].CreatedAt)
	})
	return convs, nil
}

// DeleteConversation deletes a conversation; deleting a missing one is
// not an error
func (s *Store) DeleteConversation(_ context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.conversations, conversationID)
	return nil
}

// Close implements ConversationStore.Close
func (s *Store) Close() error { return nil }

// copyConversation keeps callers from sharing message slices with the
// store's own copy.
func copyConversation(conv *state.Conversation) *state.Conversation {
	out := *conv
	out.Messages = append([]state.Message(nil), conv.Messages...)
	return &out
}
