package chat

import (
	"sync"
	"time"
)

// DefaultTypingIdle is how long after the last keystroke a user stops
// counting as typing.
const DefaultTypingIdle = 3 * time.Second

// TypingTracker holds the ephemeral set of users currently composing a
// message per conversation. Nothing here is ever persisted.
type TypingTracker struct {
	mu     sync.RWMutex
	typing map[string]map[string]struct{} // conversation key -> user ids
}

// NewTypingTracker creates an empty tracker.
func NewTypingTracker() *TypingTracker {
	return &TypingTracker{typing: make(map[string]map[string]struct{})}
}

// Set adds or removes userID from the conversation's typing set.
func (t *TypingTracker) Set(key, userID string, isTyping bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if isTyping {
		if t.typing[key] == nil {
			t.typing[key] = make(map[string]struct{})
		}
		t.typing[key][userID] = struct{}{}
		return
	}
	if users := t.typing[key]; users != nil {
		delete(users, userID)
		if len(users) == 0 {
			delete(t.typing, key)
		}
	}
}

// Typists returns a snapshot of who is typing in the conversation.
func (t *TypingTracker) Typists(key string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]string, 0, len(t.typing[key]))
	for id := range t.typing[key] {
		out = append(out, id)
	}
	return out
}

// IsTyping reports whether userID is in the conversation's typing set.
func (t *TypingTracker) IsTyping(key, userID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, ok := t.typing[key][userID]
	return ok
}

// TypingDebouncer turns a stream of keystroke signals into typing-set
// membership with automatic expiry. Each Touch marks the user as typing and
// (re)schedules a single idle timer for the (conversation, user) pair; the
// previous timer is always cancelled first, so a rapid keystroke burst
// produces exactly one clear, firing one idle interval after the last
// keystroke.
type TypingDebouncer struct {
	mu      sync.Mutex
	tracker *TypingTracker
	idle    time.Duration
	timers  map[string]*time.Timer // keyed by "conversation|user"
	onClear func(key, userID string)
}

// NewTypingDebouncer creates a debouncer clearing through tracker after idle.
// A zero idle falls back to DefaultTypingIdle. onClear, if non-nil, runs
// after an automatic clear so callers can broadcast the stop signal.
func NewTypingDebouncer(tracker *TypingTracker, idle time.Duration, onClear func(key, userID string)) *TypingDebouncer {
	if idle <= 0 {
		idle = DefaultTypingIdle
	}
	return &TypingDebouncer{
		tracker: tracker,
		idle:    idle,
		timers:  make(map[string]*time.Timer),
		onClear: onClear,
	}
}

// Touch records a keystroke from userID in the conversation.
func (d *TypingDebouncer) Touch(key, userID string) {
	d.tracker.Set(key, userID, true)

	pair := key + "|" + userID

	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, ok := d.timers[pair]; ok {
		timer.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(d.idle, func() {
		d.clear(pair, key, userID, timer)
	})
	d.timers[pair] = timer
}

// Stop is the explicit stop signal (message sent, input cleared). It cancels
// any pending timer and clears the typing flag immediately.
func (d *TypingDebouncer) Stop(key, userID string) {
	pair := key + "|" + userID

	d.mu.Lock()
	if timer, ok := d.timers[pair]; ok {
		timer.Stop()
		delete(d.timers, pair)
	}
	d.mu.Unlock()

	d.tracker.Set(key, userID, false)
}

// clear runs when an idle timer fires. A timer that already fired can lose
// the race with a concurrent Touch; if it is no longer the pair's current
// timer the fresh typing state must stay untouched.
func (d *TypingDebouncer) clear(pair, key, userID string, fired *time.Timer) {
	d.mu.Lock()
	if d.timers[pair] != fired {
		d.mu.Unlock()
		return
	}
	delete(d.timers, pair)
	d.mu.Unlock()

	d.tracker.Set(key, userID, false)
	if d.onClear != nil {
		d.onClear(key, userID)
	}
}
