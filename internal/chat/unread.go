package chat

import "sync"

// UnreadTracker counts unseen inbound messages per (conversation, user).
// The count is derived state: it must always equal the number of messages
// addressed to the user that arrived after their last read marker.
type UnreadTracker struct {
	mu     sync.RWMutex
	counts map[string]map[string]int // conversation key -> user id -> count
}

// NewUnreadTracker creates an empty tracker.
func NewUnreadTracker() *UnreadTracker {
	return &UnreadTracker{counts: make(map[string]map[string]int)}
}

// Increment bumps userID's unread count for a conversation by one.
func (t *UnreadTracker) Increment(key, userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.counts[key] == nil {
		t.counts[key] = make(map[string]int)
	}
	t.counts[key][userID]++
}

// Reset zeroes userID's unread count for a conversation.
func (t *UnreadTracker) Reset(key, userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if users := t.counts[key]; users != nil {
		delete(users, userID)
		if len(users) == 0 {
			delete(t.counts, key)
		}
	}
}

// Set overwrites userID's count, used when reconciling from the canonical
// store on reconnect.
func (t *UnreadTracker) Set(key, userID string, n int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n <= 0 {
		if users := t.counts[key]; users != nil {
			delete(users, userID)
			if len(users) == 0 {
				delete(t.counts, key)
			}
		}
		return
	}
	if t.counts[key] == nil {
		t.counts[key] = make(map[string]int)
	}
	t.counts[key][userID] = n
}

// Count returns userID's unread count for a conversation.
func (t *UnreadTracker) Count(key, userID string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.counts[key][userID]
}
