package handlers

import (
	"strconv"
	"time"

	"hrms-backend/internal/chat"
	"hrms-backend/internal/models"
)

// Process-wide chat state, initialized once at startup. The Store mirrors the
// most recent messages of active conversations; Presence and Typing are
// purely ephemeral and start empty on every boot.
var (
	Unread   *chat.UnreadTracker
	Store    *chat.Store
	Presence *chat.PresenceTracker
	Typing   *chat.TypingTracker
	Debounce *chat.TypingDebouncer
)

// InitChatState wires the chat core. typingIdle and presenceStaleness come
// from configuration; zero values select the package defaults.
func InitChatState(typingIdle, presenceStaleness time.Duration) {
	Unread = chat.NewUnreadTracker()
	Store = chat.NewStore(Unread)
	Presence = chat.NewPresenceTracker(presenceStaleness)
	Typing = chat.NewTypingTracker()
	Debounce = chat.NewTypingDebouncer(Typing, typingIdle, func(key, userID string) {
		// Auto-clear after idle: let the conversation know typing stopped.
		Manager.Broadcast(key, models.WSMessage{
			Event:   "typing",
			Key:     key,
			Typists: Typing.Typists(key),
		}, "")
	})
}

// UserKey converts a numeric employee id into the string form the chat core
// keys its state by.
func UserKey(userID int) string {
	return strconv.Itoa(userID)
}

func uid(userID int) string {
	return UserKey(userID)
}
