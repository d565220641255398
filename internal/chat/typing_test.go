package chat

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypingSetMembership(t *testing.T) {
	tr := NewTypingTracker()
	key := DeriveKey("u1", "u2")

	tr.Set(key, "u1", true)
	tr.Set(key, "u2", true)
	assert.ElementsMatch(t, []string{"u1", "u2"}, tr.Typists(key))

	tr.Set(key, "u1", false)
	assert.Equal(t, []string{"u2"}, tr.Typists(key))
	assert.False(t, tr.IsTyping(key, "u1"))

	// clearing a user who never typed is harmless
	tr.Set(key, "u3", false)
}

func TestDebounceClearsAfterIdle(t *testing.T) {
	tr := NewTypingTracker()
	key := DeriveKey("u1", "u2")

	var mu sync.Mutex
	cleared := 0
	d := NewTypingDebouncer(tr, 40*time.Millisecond, func(k, u string) {
		mu.Lock()
		cleared++
		mu.Unlock()
	})

	d.Touch(key, "u1")
	require.True(t, tr.IsTyping(key, "u1"))

	time.Sleep(100 * time.Millisecond)
	assert.False(t, tr.IsTyping(key, "u1"))

	mu.Lock()
	assert.Equal(t, 1, cleared, "a single burst clears exactly once")
	mu.Unlock()
}

func TestDebounceRestartsOnEachKeystroke(t *testing.T) {
	tr := NewTypingTracker()
	key := DeriveKey("u1", "u2")
	d := NewTypingDebouncer(tr, 60*time.Millisecond, nil)

	// keystrokes every 25ms for 100ms keep the flag alive the whole time
	for i := 0; i < 5; i++ {
		d.Touch(key, "u1")
		time.Sleep(25 * time.Millisecond)
		assert.True(t, tr.IsTyping(key, "u1"), "keystroke %d", i)
	}

	// only after the last keystroke goes idle does the flag drop
	time.Sleep(120 * time.Millisecond)
	assert.False(t, tr.IsTyping(key, "u1"))
}

func TestDebounceStopCancelsPendingTimer(t *testing.T) {
	tr := NewTypingTracker()
	key := DeriveKey("u1", "u2")

	var mu sync.Mutex
	cleared := 0
	d := NewTypingDebouncer(tr, 40*time.Millisecond, func(k, u string) {
		mu.Lock()
		cleared++
		mu.Unlock()
	})

	d.Touch(key, "u1")
	d.Stop(key, "u1")
	assert.False(t, tr.IsTyping(key, "u1"))

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, 0, cleared, "explicit stop must not fire the auto-clear")
	mu.Unlock()
}

func TestStaleTimerDoesNotClearFreshTyping(t *testing.T) {
	tr := NewTypingTracker()
	key := DeriveKey("u1", "u2")
	d := NewTypingDebouncer(tr, time.Minute, nil)

	d.Touch(key, "u1")
	d.mu.Lock()
	stale := d.timers[key+"|u1"]
	d.mu.Unlock()

	// a keystroke lands at the expiry instant and replaces the timer
	d.Touch(key, "u1")

	// the superseded timer firing late must not clear the rescheduled state
	d.clear(key+"|u1", key, "u1", stale)
	assert.True(t, tr.IsTyping(key, "u1"))

	d.mu.Lock()
	_, pending := d.timers[key+"|u1"]
	d.mu.Unlock()
	assert.True(t, pending, "the fresh timer must survive the stale fire")
}

func TestDebouncePairsAreIndependent(t *testing.T) {
	tr := NewTypingTracker()
	keyA := DeriveKey("u1", "u2")
	keyB := DeriveKey("u1", "u3")
	d := NewTypingDebouncer(tr, 40*time.Millisecond, nil)

	d.Touch(keyA, "u1")
	d.Touch(keyB, "u1")
	d.Stop(keyA, "u1")

	assert.False(t, tr.IsTyping(keyA, "u1"))
	assert.True(t, tr.IsTyping(keyB, "u1"))
}
