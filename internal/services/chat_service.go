package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"hrms-backend/internal/chat"
	"hrms-backend/internal/db"
	"hrms-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

// ErrConversationNotFound is returned when a conversation key has no row.
var ErrConversationNotFound = errors.New("conversation not found")

// ChatService persists chat state. Every message is written exactly once,
// under its conversation key; there are no per-user mirror writes, so a
// message can never be visible to one participant and missing for the other.
type ChatService struct{}

func NewChatService() *ChatService {
	return &ChatService{}
}

// GetOrCreateConversation ensures a conversation row exists for the pair and
// returns its derived key.
func (s *ChatService) GetOrCreateConversation(ctx context.Context, userID1, userID2 int) (*models.ConversationResponse, error) {
	a, b := userID1, userID2
	if a > b {
		a, b = b, a
	}
	key := chat.DeriveKey(strconv.Itoa(userID1), strconv.Itoa(userID2))

	tag, err := db.Pool.Exec(ctx,
		`INSERT INTO conversations (key, user_a, user_b) VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO NOTHING`,
		key, a, b)
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return &models.ConversationResponse{Key: key, IsNew: tag.RowsAffected() > 0}, nil
}

// SaveMessage inserts the message's canonical row.
func (s *ChatService) SaveMessage(ctx context.Context, msg *chat.Message) error {
	senderID, err := strconv.Atoi(msg.SenderID)
	if err != nil {
		return fmt.Errorf("bad sender id: %w", err)
	}
	receiverID, err := strconv.Atoi(msg.ReceiverID)
	if err != nil {
		return fmt.Errorf("bad receiver id: %w", err)
	}

	return db.Pool.QueryRow(ctx,
		`INSERT INTO messages (id, conversation_key, sender_id, receiver_id, type, content, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at`,
		msg.ID, msg.ConversationKey, senderID, receiverID,
		string(msg.Type), msg.Content, string(msg.Status), msg.CreatedAt,
	).Scan(&msg.CreatedAt)
}

// GetRecentMessages returns the newest messages of a conversation, oldest
// first, ordered by (created_at, id) so ties sort deterministically.
func (s *ChatService) GetRecentMessages(ctx context.Context, key string, limit int) ([]chat.Message, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, conversation_key, sender_id, receiver_id, type, content, status,
		        edited, deleted_for_sender, deleted_for_receiver, deleted_for_everyone, created_at
		 FROM messages
		 WHERE conversation_key = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		key, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []chat.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse to show oldest first
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// GetMessageByID fetches one message row.
func (s *ChatService) GetMessageByID(ctx context.Context, key, messageID string) (*chat.Message, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT id, conversation_key, sender_id, receiver_id, type, content, status,
		        edited, deleted_for_sender, deleted_for_receiver, deleted_for_everyone, created_at
		 FROM messages
		 WHERE conversation_key = $1 AND id = $2`,
		key, messageID)
	msg, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, chat.ErrMessageNotFound
		}
		return nil, err
	}
	return &msg, nil
}

// AdvanceStatus persists a forward-only status transition. A regression
// matches zero rows and changes nothing; the in-memory store is where it
// gets rejected with an error.
func (s *ChatService) AdvanceStatus(ctx context.Context, key, messageID string, status chat.Status) error {
	rank := map[chat.Status]int{chat.StatusSent: 1, chat.StatusDelivered: 2, chat.StatusRead: 3}[status]
	_, err := db.Pool.Exec(ctx,
		`UPDATE messages SET status = $3
		 WHERE conversation_key = $1 AND id = $2
		   AND CASE status WHEN 'sent' THEN 1 WHEN 'delivered' THEN 2 ELSE 3 END < $4`,
		key, messageID, string(status), rank)
	return err
}

// EditMessage persists a content edit.
func (s *ChatService) EditMessage(ctx context.Context, key, messageID, content string) error {
	_, err := db.Pool.Exec(ctx,
		`UPDATE messages SET content = $3, edited = TRUE
		 WHERE conversation_key = $1 AND id = $2 AND NOT deleted_for_everyone`,
		key, messageID, content)
	return err
}

// DeleteForParty persists a for-me delete on the sender's or receiver's side.
func (s *ChatService) DeleteForParty(ctx context.Context, key, messageID string, senderSide bool) error {
	col := "deleted_for_receiver"
	if senderSide {
		col = "deleted_for_sender"
	}
	_, err := db.Pool.Exec(ctx,
		`UPDATE messages SET `+col+` = TRUE
		 WHERE conversation_key = $1 AND id = $2`,
		key, messageID)
	return err
}

// DeleteForEveryone persists a tombstone: the flag is set and the original
// content is cleared for good.
func (s *ChatService) DeleteForEveryone(ctx context.Context, key, messageID string) error {
	_, err := db.Pool.Exec(ctx,
		`UPDATE messages SET deleted_for_everyone = TRUE, content = ''
		 WHERE conversation_key = $1 AND id = $2`,
		key, messageID)
	return err
}

// MarkConversationRead flips every inbound unread message to read and returns
// how many changed.
func (s *ChatService) MarkConversationRead(ctx context.Context, key string, readerID int) (int64, error) {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE messages SET status = 'read'
		 WHERE conversation_key = $1 AND receiver_id = $2 AND status <> 'read'`,
		key, readerID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// UnreadCount counts inbound messages not yet read, the canonical value the
// in-memory tracker is reconciled against.
func (s *ChatService) UnreadCount(ctx context.Context, key string, userID int) (int, error) {
	var n int
	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM messages
		 WHERE conversation_key = $1 AND receiver_id = $2 AND status <> 'read'`,
		key, userID).Scan(&n)
	return n, err
}

// GetParticipants returns the two employee ids of a conversation.
func (s *ChatService) GetParticipants(ctx context.Context, key string) (int, int, error) {
	var a, b int
	err := db.Pool.QueryRow(ctx,
		`SELECT user_a, user_b FROM conversations WHERE key = $1`, key).Scan(&a, &b)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, ErrConversationNotFound
		}
		return 0, 0, err
	}
	return a, b, nil
}

// GetOtherUserInConversation returns the peer of userID in a conversation.
func (s *ChatService) GetOtherUserInConversation(ctx context.Context, key string, userID int) (int, error) {
	a, b, err := s.GetParticipants(ctx, key)
	if err != nil {
		return 0, err
	}
	switch userID {
	case a:
		return b, nil
	case b:
		return a, nil
	}
	return 0, chat.ErrNotParticipant
}

// GetUserConversations lists userID's conversations with the peer, the last
// message preview and the unread count.
func (s *ChatService) GetUserConversations(ctx context.Context, userID int) ([]models.ConversationListItem, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT c.key,
		        CASE WHEN c.user_a = $1 THEN c.user_b ELSE c.user_a END AS other_id,
		        e.username,
		        lm.content, lm.created_at,
		        (SELECT COUNT(*) FROM messages m
		          WHERE m.conversation_key = c.key AND m.receiver_id = $1 AND m.status <> 'read') AS unread
		 FROM conversations c
		 JOIN employees e ON e.id = CASE WHEN c.user_a = $1 THEN c.user_b ELSE c.user_a END
		 LEFT JOIN LATERAL (
		     SELECT content, created_at FROM messages m
		     WHERE m.conversation_key = c.key
		     ORDER BY m.created_at DESC, m.id DESC LIMIT 1
		 ) lm ON TRUE
		 WHERE c.user_a = $1 OR c.user_b = $1
		 ORDER BY lm.created_at DESC NULLS LAST`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.ConversationListItem
	for rows.Next() {
		var item models.ConversationListItem
		var lastContent *string
		var lastAt *time.Time
		if err := rows.Scan(&item.Key, &item.OtherUserID, &item.OtherUsername,
			&lastContent, &lastAt, &item.UnreadCount); err != nil {
			return nil, err
		}
		item.LastMessage = lastContent
		if lastAt != nil {
			item.LastMessageAt = lastAt.UnixMilli()
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetEmployeeInfo returns a peer's basic profile.
func (s *ChatService) GetEmployeeInfo(ctx context.Context, userID int) (*models.EmployeeInfo, error) {
	var info models.EmployeeInfo
	err := db.Pool.QueryRow(ctx,
		`SELECT id, username, first_name, last_name, department, designation
		 FROM employees WHERE id = $1`,
		userID).Scan(&info.ID, &info.Username, &info.FirstName, &info.LastName,
		&info.Department, &info.Designation)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func scanMessage(row pgx.Row) (chat.Message, error) {
	var msg chat.Message
	var senderID, receiverID int
	var typ, status string
	err := row.Scan(&msg.ID, &msg.ConversationKey, &senderID, &receiverID, &typ,
		&msg.Content, &status, &msg.Edited, &msg.DeletedForSender,
		&msg.DeletedForReceiver, &msg.DeletedForEveryone, &msg.CreatedAt)
	if err != nil {
		return chat.Message{}, err
	}
	msg.SenderID = strconv.Itoa(senderID)
	msg.ReceiverID = strconv.Itoa(receiverID)
	msg.Type = chat.MessageType(typ)
	msg.Status = chat.Status(status)
	return msg, nil
}
