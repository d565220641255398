// Package chat implements the core chat state for the HRMS: conversation
// keys, the per-conversation message lifecycle, presence, typing indicators
// and unread bookkeeping. The Store is an in-memory layer over the canonical
// database rows; it keeps the most recent messages per conversation and is
// reconciled from the database whenever a conversation is (re)joined.
package chat

import (
	"errors"
	"sort"
	"sync"
)

// Store errors.
var (
	ErrEmptyContent     = errors.New("message content is empty")
	ErrInvalidType      = errors.New("invalid message type")
	ErrInvalidStatus    = errors.New("invalid message status")
	ErrStatusRegression = errors.New("message status cannot move backwards")
	ErrMessageNotFound  = errors.New("message not found")
	ErrNotParticipant   = errors.New("caller is not a participant of this conversation")
	ErrNotAuthor        = errors.New("only the author may do this")
	ErrNotEditable      = errors.New("only text messages can be edited")
	ErrMessageDeleted   = errors.New("message was deleted for everyone")
	ErrInvalidScope     = errors.New("unknown delete scope")
)

// DeleteScope selects how far a delete reaches.
type DeleteScope string

const (
	// ScopeForMe hides the message from the caller's own view only.
	ScopeForMe DeleteScope = "for_me"
	// ScopeForEveryone tombstones the message for both participants.
	// Author-only, irreversible.
	ScopeForEveryone DeleteScope = "for_everyone"
)

// DefaultRetained is how many recent messages a conversation keeps in memory.
// Older history is always available from the canonical store.
const DefaultRetained = 200

// Store holds the in-memory chat state for all active conversations.
type Store struct {
	mu       sync.RWMutex
	convs    map[string][]*Message // conversation key -> messages
	focus    map[string]string     // user id -> focused conversation key
	unread   *UnreadTracker
	retained int
}

// NewStore creates a Store that reports unread counts through tracker.
func NewStore(tracker *UnreadTracker) *Store {
	return &Store{
		convs:    make(map[string][]*Message),
		focus:    make(map[string]string),
		unread:   tracker,
		retained: DefaultRetained,
	}
}

// Append inserts a freshly sent message. Status is forced to sent. If the
// receiver is not currently focused on this conversation their unread count
// goes up by one.
func (s *Store) Append(msg Message) error {
	if msg.Content == "" {
		return ErrEmptyContent
	}
	if !msg.Type.Valid() {
		return ErrInvalidType
	}
	msg.Status = StatusSent

	s.mu.Lock()
	defer s.mu.Unlock()

	key := msg.ConversationKey
	s.convs[key] = append(s.convs[key], &msg)
	s.sortLocked(key)
	s.trimLocked(key)

	if s.focus[msg.ReceiverID] != key {
		s.unread.Increment(key, msg.ReceiverID)
	}
	return nil
}

// Load replaces the cached messages for a conversation with rows read from
// the canonical store. It has no unread side effects.
func (s *Store) Load(key string, msgs []Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]*Message, 0, len(msgs))
	for i := range msgs {
		m := msgs[i]
		list = append(list, &m)
	}
	s.convs[key] = list
	s.sortLocked(key)
	s.trimLocked(key)
}

// AdvanceStatus moves a message's status forward. Re-applying the current
// status is a no-op; moving backwards is rejected.
func (s *Store) AdvanceStatus(key, messageID string, next Status) error {
	if !next.Valid() {
		return ErrInvalidStatus
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	msg := s.findLocked(key, messageID)
	if msg == nil {
		return ErrMessageNotFound
	}
	switch {
	case next.rank() == msg.Status.rank():
		return nil
	case next.rank() < msg.Status.rank():
		return ErrStatusRegression
	}
	msg.Status = next
	return nil
}

// EditContent replaces the content of a text message authored by callerID
// and marks it edited. The previous content is discarded. Editing a message
// deleted for everyone is rejected.
func (s *Store) EditContent(key, messageID, callerID, newContent string) error {
	if newContent == "" {
		return ErrEmptyContent
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	msg := s.findLocked(key, messageID)
	if msg == nil {
		return ErrMessageNotFound
	}
	if err := msg.ValidateEdit(callerID, newContent); err != nil {
		return err
	}
	msg.Content = newContent
	msg.Edited = true
	return nil
}

// Delete applies a delete to a message. ScopeForMe flags the caller's side
// only and requires the caller to be a participant. ScopeForEveryone is
// author-only; it tombstones the message and clears the content for good.
// Deleting for everyone twice is a harmless no-op.
func (s *Store) Delete(key, messageID, callerID string, scope DeleteScope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := s.findLocked(key, messageID)
	if msg == nil {
		return ErrMessageNotFound
	}
	if err := msg.ValidateDelete(callerID, scope); err != nil {
		return err
	}

	switch scope {
	case ScopeForMe:
		if callerID == msg.SenderID {
			msg.DeletedForSender = true
		} else {
			msg.DeletedForReceiver = true
		}
	case ScopeForEveryone:
		msg.DeletedForEveryone = true
		msg.Content = ""
	}
	return nil
}

// VisibleMessages returns the conversation as viewerID sees it: ordered by
// creation time with message id as the deterministic tie-break, messages the
// viewer deleted for themselves filtered out, and for-everyone deletes
// rendered as tombstones.
func (s *Store) VisibleMessages(key, viewerID string) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Message, 0, len(s.convs[key]))
	for _, m := range s.convs[key] {
		if !m.VisibleTo(viewerID) {
			continue
		}
		out = append(out, m.Render(viewerID))
	}
	return out
}

// Get returns a copy of one message.
func (s *Store) Get(key, messageID string) (Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if m := s.findLocked(key, messageID); m != nil {
		return *m, true
	}
	return Message{}, false
}

// Focus marks key as userID's active conversation, resets its unread count
// and advances every inbound message to read. The ids of messages whose
// status actually changed are returned so callers can persist and broadcast
// the transition.
func (s *Store) Focus(userID, key string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.focus[userID] = key
	s.unread.Reset(key, userID)
	return s.markReadLocked(userID, key)
}

// MarkRead advances every inbound message to read and resets the unread
// count without claiming focus, for read receipts issued while the user is
// viewing a different conversation (or none). Returns the changed ids.
func (s *Store) MarkRead(userID, key string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.unread.Reset(key, userID)
	return s.markReadLocked(userID, key)
}

func (s *Store) markReadLocked(userID, key string) []string {
	var changed []string
	for _, m := range s.convs[key] {
		if m.ReceiverID == userID && m.Status.rank() < StatusRead.rank() {
			m.Status = StatusRead
			changed = append(changed, m.ID)
		}
	}
	return changed
}

// Unfocus clears userID's active conversation if it is currently key.
func (s *Store) Unfocus(userID, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.focus[userID] == key {
		delete(s.focus, userID)
	}
}

// Focused returns the conversation key userID is currently viewing, if any.
func (s *Store) Focused(userID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, ok := s.focus[userID]
	return key, ok
}

// Unread returns userID's unread count for a conversation.
func (s *Store) Unread(key, userID string) int {
	return s.unread.Count(key, userID)
}

func (s *Store) findLocked(key, messageID string) *Message {
	for _, m := range s.convs[key] {
		if m.ID == messageID {
			return m
		}
	}
	return nil
}

func (s *Store) sortLocked(key string) {
	list := s.convs[key]
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
}

func (s *Store) trimLocked(key string) {
	if list := s.convs[key]; len(list) > s.retained {
		s.convs[key] = list[len(list)-s.retained:]
	}
}
