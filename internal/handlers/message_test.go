package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"hrms-backend/internal/chat"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubBackend stands in for ChatService persistence in the edit/delete paths.
type stubBackend struct {
	rows      map[string]*chat.Message // canonical rows the cache no longer holds
	editErr   error
	deleteErr error
	edits     int
	deletes   int
}

func (s *stubBackend) GetMessageByID(ctx context.Context, key, messageID string) (*chat.Message, error) {
	if m, ok := s.rows[messageID]; ok {
		return m, nil
	}
	return nil, chat.ErrMessageNotFound
}

func (s *stubBackend) EditMessage(ctx context.Context, key, messageID, content string) error {
	s.edits++
	return s.editErr
}

func (s *stubBackend) DeleteForEveryone(ctx context.Context, key, messageID string) error {
	s.deletes++
	return s.deleteErr
}

func (s *stubBackend) DeleteForParty(ctx context.Context, key, messageID string, senderSide bool) error {
	s.deletes++
	return s.deleteErr
}

func resetChatState(t *testing.T) {
	t.Helper()
	InitChatState(time.Minute, 30*time.Second)
}

func seedMessage(t *testing.T, key, id, sender, receiver string) {
	t.Helper()
	require.NoError(t, Store.Append(chat.Message{
		ID:              id,
		ConversationKey: key,
		SenderID:        sender,
		ReceiverID:      receiver,
		Type:            chat.TypeText,
		Content:         "hello",
		CreatedAt:       time.Now(),
	}))
}

func TestEditLeavesCacheUntouchedOnFailedPersist(t *testing.T) {
	resetChatState(t)
	key := chat.DeriveKey("1", "2")
	seedMessage(t, key, "m1", "1", "2")

	backend := &stubBackend{editErr: errors.New("connection refused")}
	err := editMessage(context.Background(), backend, key, "m1", "1", "changed")
	require.Error(t, err)

	got, ok := Store.Get(key, "m1")
	require.True(t, ok)
	assert.Equal(t, "hello", got.Content, "a failed persist must leave no local trace")
	assert.False(t, got.Edited)
}

func TestEditAppliesToCacheAfterPersist(t *testing.T) {
	resetChatState(t)
	key := chat.DeriveKey("1", "2")
	seedMessage(t, key, "m1", "1", "2")

	backend := &stubBackend{}
	require.NoError(t, editMessage(context.Background(), backend, key, "m1", "1", "changed"))
	assert.Equal(t, 1, backend.edits)

	got, _ := Store.Get(key, "m1")
	assert.Equal(t, "changed", got.Content)
	assert.True(t, got.Edited)
}

func TestEditValidatesBeforePersist(t *testing.T) {
	resetChatState(t)
	key := chat.DeriveKey("1", "2")
	seedMessage(t, key, "m1", "1", "2")

	backend := &stubBackend{}
	err := editMessage(context.Background(), backend, key, "m1", "2", "hijacked")
	assert.ErrorIs(t, err, chat.ErrNotAuthor)
	assert.Zero(t, backend.edits, "a rejected edit must never reach the database")
}

func TestDeleteLeavesCacheUntouchedOnFailedPersist(t *testing.T) {
	resetChatState(t)
	key := chat.DeriveKey("1", "2")
	seedMessage(t, key, "m1", "1", "2")

	backend := &stubBackend{deleteErr: errors.New("connection refused")}
	err := deleteMessage(context.Background(), backend, key, "m1", "1", chat.ScopeForEveryone)
	require.Error(t, err)

	got, ok := Store.Get(key, "m1")
	require.True(t, ok)
	assert.Equal(t, "hello", got.Content, "no tombstone the canonical store never recorded")
	assert.False(t, got.DeletedForEveryone)
}

func TestDeleteValidatesBeforePersist(t *testing.T) {
	resetChatState(t)
	key := chat.DeriveKey("1", "2")
	seedMessage(t, key, "m1", "1", "2")

	backend := &stubBackend{}
	err := deleteMessage(context.Background(), backend, key, "m1", "2", chat.ScopeForEveryone)
	assert.ErrorIs(t, err, chat.ErrNotAuthor)
	assert.Zero(t, backend.deletes)
}

func TestEditFallsBackToCanonicalRow(t *testing.T) {
	// The cache only retains recent messages; an older row must still be
	// editable straight from the canonical store.
	resetChatState(t)
	key := chat.DeriveKey("1", "2")

	backend := &stubBackend{rows: map[string]*chat.Message{
		"old": {
			ID:              "old",
			ConversationKey: key,
			SenderID:        "1",
			ReceiverID:      "2",
			Type:            chat.TypeText,
			Content:         "ancient",
			CreatedAt:       time.Now().Add(-24 * time.Hour),
		},
	}}

	require.NoError(t, editMessage(context.Background(), backend, key, "old", "1", "revised"))
	assert.Equal(t, 1, backend.edits)

	// Validation still applies to the fetched row.
	err := editMessage(context.Background(), backend, key, "old", "2", "hijacked")
	assert.ErrorIs(t, err, chat.ErrNotAuthor)
}

func TestDeleteFallsBackToCanonicalRow(t *testing.T) {
	resetChatState(t)
	key := chat.DeriveKey("1", "2")

	backend := &stubBackend{rows: map[string]*chat.Message{
		"old": {
			ID:              "old",
			ConversationKey: key,
			SenderID:        "1",
			ReceiverID:      "2",
			Type:            chat.TypeText,
			Content:         "ancient",
			CreatedAt:       time.Now().Add(-24 * time.Hour),
		},
	}}

	require.NoError(t, deleteMessage(context.Background(), backend, key, "old", "2", chat.ScopeForMe))
	assert.Equal(t, 1, backend.deletes)

	err := deleteMessage(context.Background(), backend, key, "missing", "1", chat.ScopeForMe)
	assert.ErrorIs(t, err, chat.ErrMessageNotFound)
}
