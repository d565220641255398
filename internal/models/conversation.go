package models

import "time"

// Conversation is a row in the conversations table. The key is derived from
// the sorted participant pair, so one row exists per unordered pair.
type Conversation struct {
	Key       string    `json:"key"`
	UserA     int       `json:"user_a"`
	UserB     int       `json:"user_b"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateConversationRequest struct {
	RecipientID int `json:"recipient_id"`
}

type ConversationResponse struct {
	Key   string `json:"conversation_key"`
	IsNew bool   `json:"is_new"`
}
