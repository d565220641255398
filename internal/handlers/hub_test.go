package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub() *Hub {
	return &Hub{
		conversations: make(map[string]map[string]*Connection),
		conns:         make(map[string]*Connection),
	}
}

func TestRegisterReportsFirstConnection(t *testing.T) {
	h := newTestHub()

	_, cameOnline := h.Register("c1", 1, "alice", nil)
	assert.True(t, cameOnline)

	// Second tab for the same user is not a fresh online transition.
	_, cameOnline = h.Register("c2", 1, "alice", nil)
	assert.False(t, cameOnline)

	_, cameOnline = h.Register("c3", 2, "bob", nil)
	assert.True(t, cameOnline)
}

func TestUnregisterReportsLastConnection(t *testing.T) {
	h := newTestHub()
	h.Register("c1", 1, "alice", nil)
	h.Register("c2", 1, "alice", nil)

	userID, wentOffline := h.Unregister("c1")
	assert.Equal(t, 1, userID)
	assert.False(t, wentOffline)
	assert.True(t, h.IsUserConnected(1))

	userID, wentOffline = h.Unregister("c2")
	assert.Equal(t, 1, userID)
	assert.True(t, wentOffline)
	assert.False(t, h.IsUserConnected(1))

	// Unknown connection is a no-op.
	_, wentOffline = h.Unregister("ghost")
	assert.False(t, wentOffline)
}

func TestJoinLeaveConversationMembership(t *testing.T) {
	h := newTestHub()
	h.Register("c1", 1, "alice", nil)
	h.Register("c2", 2, "bob", nil)

	h.Join("1:2", "c1")
	require.True(t, h.IsUserInConversation(1, "1:2"))
	assert.False(t, h.IsUserInConversation(2, "1:2"))

	h.Join("1:2", "c2")
	assert.True(t, h.IsUserInConversation(2, "1:2"))

	h.Leave("1:2", "c1")
	assert.False(t, h.IsUserInConversation(1, "1:2"))
	assert.True(t, h.IsUserInConversation(2, "1:2"))

	// Joining with an unregistered connection does nothing.
	h.Join("1:2", "ghost")
	assert.False(t, h.IsUserInConversation(0, "1:2"))
}

func TestUnregisterDropsConversationMembership(t *testing.T) {
	h := newTestHub()
	h.Register("c1", 1, "alice", nil)
	h.Join("1:2", "c1")
	h.Join("1:3", "c1")

	h.Unregister("c1")

	assert.False(t, h.IsUserInConversation(1, "1:2"))
	assert.False(t, h.IsUserInConversation(1, "1:3"))
	assert.Empty(t, h.conversations)
}
