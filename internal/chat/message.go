package chat

import "time"

// Status is the delivery state of a message. It only ever moves forward
// through sent -> delivered -> read.
type Status string

const (
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
)

// rank maps a status to its position in the lifecycle. Unknown statuses rank
// below "sent" so they can never overwrite a real one.
func (s Status) rank() int {
	switch s {
	case StatusSent:
		return 1
	case StatusDelivered:
		return 2
	case StatusRead:
		return 3
	default:
		return 0
	}
}

// Valid reports whether s is one of the three known statuses.
func (s Status) Valid() bool {
	return s.rank() > 0
}

// MessageType describes what the content field holds.
type MessageType string

const (
	TypeText  MessageType = "text"
	TypeImage MessageType = "image"
	TypeVideo MessageType = "video"
	TypeLink  MessageType = "link"
)

// Valid reports whether t is a known message type.
func (t MessageType) Valid() bool {
	switch t {
	case TypeText, TypeImage, TypeVideo, TypeLink:
		return true
	}
	return false
}

// Tombstone replaces the content of a message deleted for everyone. The
// original content is unrecoverable once this substitution happens.
const Tombstone = "This message was deleted"

// Message is one chat message inside a conversation.
type Message struct {
	ID                 string      `json:"id"`
	ConversationKey    string      `json:"conversation_key"`
	SenderID           string      `json:"sender_id"`
	ReceiverID         string      `json:"receiver_id"`
	Type               MessageType `json:"type"`
	Content            string      `json:"content"`
	Status             Status      `json:"status"`
	Edited             bool        `json:"edited"`
	DeletedForSender   bool        `json:"deleted_for_sender"`
	DeletedForReceiver bool        `json:"deleted_for_receiver"`
	DeletedForEveryone bool        `json:"deleted_for_everyone"`
	CreatedAt          time.Time   `json:"created_at"`
}

// ValidateEdit reports whether editorID may replace the message content,
// without changing anything. The same checks guard Store.EditContent.
func (m *Message) ValidateEdit(editorID, newContent string) error {
	if newContent == "" {
		return ErrEmptyContent
	}
	if m.DeletedForEveryone {
		return ErrMessageDeleted
	}
	if m.SenderID != editorID {
		return ErrNotAuthor
	}
	if m.Type != TypeText {
		return ErrNotEditable
	}
	return nil
}

// ValidateDelete reports whether callerID may delete the message under the
// given scope, without changing anything.
func (m *Message) ValidateDelete(callerID string, scope DeleteScope) error {
	switch scope {
	case ScopeForMe:
		if callerID != m.SenderID && callerID != m.ReceiverID {
			return ErrNotParticipant
		}
	case ScopeForEveryone:
		if callerID != m.SenderID {
			return ErrNotAuthor
		}
	default:
		return ErrInvalidScope
	}
	return nil
}

// VisibleTo reports whether viewerID should see this message at all. A
// for-everyone delete does NOT hide the message; it is rendered as a
// tombstone instead (see Render).
func (m *Message) VisibleTo(viewerID string) bool {
	if m.DeletedForEveryone {
		return true
	}
	if viewerID == m.SenderID && m.DeletedForSender {
		return false
	}
	if viewerID == m.ReceiverID && m.DeletedForReceiver {
		return false
	}
	return true
}

// Render returns the message as viewerID should see it, substituting the
// tombstone text for messages deleted for everyone.
func (m Message) Render(viewerID string) Message {
	if m.DeletedForEveryone {
		m.Content = Tombstone
		m.Type = TypeText
	}
	return m
}
