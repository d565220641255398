package models

import "hrms-backend/internal/chat"

// WSMessage is the envelope for every WebSocket event, client- and
// server-bound. Which fields are set depends on the event.
type WSMessage struct {
	Event    string `json:"event"` // "join", "leave", "chat", "typing", "heartbeat", "seen", "edit", "delete", "list"
	PeerID   int    `json:"peer_id,omitempty"`
	Key      string `json:"conversation_key,omitempty"`
	ID       string `json:"id,omitempty"` // message id
	Text     string `json:"text,omitempty"`
	Type     string `json:"type,omitempty"`  // text, image, video, link
	Scope    string `json:"scope,omitempty"` // delete scope: for_me, for_everyone
	IsTyping bool   `json:"is_typing,omitempty"`

	// Server -> client only
	Timestamp     int64                  `json:"timestamp,omitempty"`
	Status        string                 `json:"status,omitempty"`
	Edited        bool                   `json:"edited,omitempty"`
	SenderID      int                    `json:"sender_id,omitempty"`
	Username      string                 `json:"username,omitempty"`
	Conversations []ConversationListItem `json:"conversations,omitempty"`
	History       []ChatHistoryItem      `json:"history,omitempty"`
	Typists       []string               `json:"typists,omitempty"`
	OtherUser     *EmployeeInfo          `json:"other_user,omitempty"`
	Error         string                 `json:"error,omitempty"`
}

// ChatHistoryItem is one rendered message inside a history event. It is built
// from the viewer's visible slice, so tombstones and for-me deletes are
// already applied.
type ChatHistoryItem struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	Type          string `json:"type"`
	Status        string `json:"status"`
	Edited        bool   `json:"edited"`
	Deleted       bool   `json:"deleted"` // deleted for everyone (tombstone)
	Timestamp     int64  `json:"timestamp"`
	IsYourMessage bool   `json:"is_your_message"`
}

// ConversationListItem is one row of the conversation list event.
type ConversationListItem struct {
	Key             string  `json:"conversation_key"`
	OtherUserID     int     `json:"other_user_id"`
	OtherUsername   string  `json:"other_username"`
	OtherUserStatus string  `json:"other_user_status"` // online, offline
	LastSeen        string  `json:"last_seen,omitempty"`
	LastMessage     *string `json:"last_message,omitempty"`
	LastMessageAt   int64   `json:"last_message_at,omitempty"`
	UnreadCount     int     `json:"unread_count"`
}

// HistoryItemFrom converts a rendered chat message for the wire.
func HistoryItemFrom(m chat.Message, viewerID string) ChatHistoryItem {
	return ChatHistoryItem{
		ID:            m.ID,
		Text:          m.Content,
		Type:          string(m.Type),
		Status:        string(m.Status),
		Edited:        m.Edited,
		Deleted:       m.DeletedForEveryone,
		Timestamp:     m.CreatedAt.UnixMilli(),
		IsYourMessage: m.SenderID == viewerID,
	}
}
