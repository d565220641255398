package chat

import (
	"fmt"
	"sync"
	"time"
)

// DefaultStaleness is how long after the last heartbeat a user still counts
// as online.
const DefaultStaleness = 30 * time.Second

// PresenceTracker implements heartbeat-based presence. Each connected client
// periodically records a liveness timestamp; a user is online only while
// their latest timestamp is within the staleness window, computed at read
// time. Nothing here trusts a pushed online/offline boolean.
type PresenceTracker struct {
	mu        sync.RWMutex
	records   map[string]presenceRecord
	staleness time.Duration
	now       func() time.Time
}

type presenceRecord struct {
	lastActive time.Time
	offline    bool // explicit disconnect; overrides the staleness window
}

// NewPresenceTracker creates a tracker with the given staleness window.
// A zero window falls back to DefaultStaleness.
func NewPresenceTracker(staleness time.Duration) *PresenceTracker {
	if staleness <= 0 {
		staleness = DefaultStaleness
	}
	return &PresenceTracker{
		records:   make(map[string]presenceRecord),
		staleness: staleness,
		now:       time.Now,
	}
}

// Heartbeat records that userID is alive right now. Called on connect and on
// every heartbeat ping.
func (t *PresenceTracker) Heartbeat(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.records[userID] = presenceRecord{lastActive: t.now()}
}

// SetOffline records userID's final activity timestamp on explicit
// disconnect. Their last-seen time is preserved for peers but they stop
// counting as online immediately.
func (t *PresenceTracker) SetOffline(userID string, lastActive time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.records[userID] = presenceRecord{lastActive: lastActive, offline: true}
}

// Online reports whether userID has not explicitly disconnected and their
// last heartbeat is within the staleness window.
func (t *PresenceTracker) Online(userID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rec, ok := t.records[userID]
	if !ok || rec.offline {
		return false
	}
	return t.now().Sub(rec.lastActive) < t.staleness
}

// LastActive returns userID's most recent recorded activity.
func (t *PresenceTracker) LastActive(userID string) (time.Time, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rec, ok := t.records[userID]
	return rec.lastActive, ok
}

// FormatLastSeen renders a last-active timestamp relative to now:
// under 10 seconds "just now", under a minute "N seconds ago", under an hour
// "N minute(s) ago", under a day "N hour(s) ago", otherwise "N day(s) ago".
func FormatLastSeen(lastActive, now time.Time) string {
	d := now.Sub(lastActive)
	switch {
	case d < 10*time.Second:
		return "just now"
	case d < time.Minute:
		return fmt.Sprintf("%d seconds ago", int(d.Seconds()))
	case d < time.Hour:
		return plural(int(d.Minutes()), "minute")
	case d < 24*time.Hour:
		return plural(int(d.Hours()), "hour")
	default:
		return plural(int(d.Hours())/24, "day")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
