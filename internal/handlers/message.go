package handlers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"hrms-backend/internal/chat"
	"hrms-backend/internal/logging"
	"hrms-backend/internal/models"
	"hrms-backend/internal/services"
	"hrms-backend/internal/utils"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// HandleMessage dispatches one inbound websocket frame. currentKey tracks
// which conversation this connection has open; join/leave mutate it.
func HandleMessage(conn *Connection, msgType int, raw []byte, chatService *services.ChatService, currentKey *string) {
	if msgType != websocket.TextMessage {
		return
	}

	var msg models.WSMessage
	if err := utils.SafeJSONParse(raw, &msg); err != nil {
		utils.LogError(err, "ws parse")
		return
	}

	switch msg.Event {
	case "join":
		handleJoin(conn, &msg, currentKey, chatService)
	case "leave":
		handleLeave(conn, currentKey)
	case "chat":
		handleChat(conn, &msg, *currentKey, chatService)
	case "typing":
		handleTyping(conn, &msg, *currentKey)
	case "heartbeat":
		// Liveness was already recorded by the read loop; nothing else to do.
	case "seen":
		handleSeen(conn, &msg, *currentKey, chatService)
	case "edit":
		handleEdit(conn, &msg, *currentKey, chatService)
	case "delete":
		handleDelete(conn, &msg, *currentKey, chatService)
	case "list":
		handleList(conn, chatService)
	default:
		logging.Debug().Str("event", msg.Event).Msg("unknown ws event")
	}
}

func sendError(conn *Connection, text string) {
	utils.LogError(conn.Send(models.WSMessage{Event: "error", Error: text}), "send error")
}

// messageBackend is the slice of ChatService the edit and delete paths
// touch, narrowed so persistence can be substituted in tests.
type messageBackend interface {
	GetMessageByID(ctx context.Context, key, messageID string) (*chat.Message, error)
	EditMessage(ctx context.Context, key, messageID, content string) error
	DeleteForEveryone(ctx context.Context, key, messageID string) error
	DeleteForParty(ctx context.Context, key, messageID string, senderSide bool) error
}

// resolveMessage finds a message in the cache or, for rows older than the
// retained window, in the canonical store.
func resolveMessage(ctx context.Context, backend messageBackend, key, messageID string) (chat.Message, error) {
	if m, ok := Store.Get(key, messageID); ok {
		return m, nil
	}
	m, err := backend.GetMessageByID(ctx, key, messageID)
	if err != nil {
		return chat.Message{}, err
	}
	return *m, nil
}

// editMessage validates against the current message, persists the edit, and
// only then mirrors it into the cache. A failed persist leaves no local
// trace. A cache miss while mirroring just means the row is older than the
// retained window; the canonical store already has the edit.
func editMessage(ctx context.Context, backend messageBackend, key, messageID, editorID, content string) error {
	target, err := resolveMessage(ctx, backend, key, messageID)
	if err != nil {
		return err
	}
	if err := target.ValidateEdit(editorID, content); err != nil {
		return err
	}
	if err := backend.EditMessage(ctx, key, messageID, content); err != nil {
		return err
	}
	if err := Store.EditContent(key, messageID, editorID, content); err != nil && !errors.Is(err, chat.ErrMessageNotFound) {
		return err
	}
	return nil
}

// deleteMessage is the delete counterpart of editMessage: validate, persist,
// then mirror into the cache.
func deleteMessage(ctx context.Context, backend messageBackend, key, messageID, callerID string, scope chat.DeleteScope) error {
	target, err := resolveMessage(ctx, backend, key, messageID)
	if err != nil {
		return err
	}
	if err := target.ValidateDelete(callerID, scope); err != nil {
		return err
	}

	if scope == chat.ScopeForEveryone {
		err = backend.DeleteForEveryone(ctx, key, messageID)
	} else {
		err = backend.DeleteForParty(ctx, key, messageID, callerID == target.SenderID)
	}
	if err != nil {
		return err
	}

	if err := Store.Delete(key, messageID, callerID, scope); err != nil && !errors.Is(err, chat.ErrMessageNotFound) {
		return err
	}
	return nil
}

// handleJoin opens a conversation: subscribe to its events, warm the store
// from the canonical rows, focus it (resetting unread and cascading read
// status) and send back the viewer's visible history.
func handleJoin(conn *Connection, msg *models.WSMessage, currentKey *string, chatService *services.ChatService) {
	ctx := context.Background()
	viewer := uid(conn.UserID)

	key := msg.Key
	if key == "" {
		// Joining by peer id opens (and on first contact creates) the
		// conversation with that employee.
		if msg.PeerID == 0 || msg.PeerID == conn.UserID {
			return
		}
		convo, err := chatService.GetOrCreateConversation(ctx, conn.UserID, msg.PeerID)
		if err != nil {
			utils.LogError(err, "open conversation")
			sendError(conn, "failed to open conversation")
			return
		}
		key = convo.Key
	}

	otherID, err := chatService.GetOtherUserInConversation(ctx, key, conn.UserID)
	if err != nil {
		sendError(conn, "conversation not found")
		return
	}

	// Leave previous conversation if any
	if *currentKey != "" {
		handleLeave(conn, currentKey)
	}

	*currentKey = key
	Manager.Join(key, conn.ID)
	log := logging.WithConversation(key)
	log.Debug().Str("user", viewer).Msg("conversation joined")

	// Reconcile the in-memory cache against the canonical store.
	recent, err := chatService.GetRecentMessages(ctx, key, chat.DefaultRetained)
	if err != nil {
		utils.LogError(err, "load history")
		sendError(conn, "failed to load history")
		return
	}
	Store.Load(key, recent)

	// Focusing resets unread and flips inbound messages to read.
	changed := Store.Focus(viewer, key)
	if len(changed) > 0 {
		if _, err := chatService.MarkConversationRead(ctx, key, conn.UserID); err != nil {
			utils.LogError(err, "mark read")
		}
		Manager.Broadcast(key, models.WSMessage{
			Event:     "messages_seen",
			Key:       key,
			SenderID:  conn.UserID,
			Username:  conn.Username,
			Timestamp: time.Now().UnixMilli(),
		}, conn.ID)
	}

	utils.LogError(conn.Send(models.WSMessage{
		Event:     "joined",
		Key:       key,
		Timestamp: time.Now().UnixMilli(),
	}), "join ack")

	Manager.Broadcast(key, models.WSMessage{
		Event:    "join",
		Key:      key,
		SenderID: conn.UserID,
		Username: conn.Username,
	}, conn.ID)

	// History as a single packed event, rendered for this viewer.
	visible := Store.VisibleMessages(key, viewer)
	history := make([]models.ChatHistoryItem, 0, len(visible))
	for _, m := range visible {
		history = append(history, models.HistoryItemFrom(m, viewer))
	}

	otherUser, err := chatService.GetEmployeeInfo(ctx, otherID)
	if err != nil {
		utils.LogError(err, "peer info")
	}

	utils.LogError(conn.Send(models.WSMessage{
		Event:     "history",
		Key:       key,
		History:   history,
		OtherUser: otherUser,
		Typists:   Typing.Typists(key),
		Timestamp: time.Now().UnixMilli(),
	}), "send history")
}

func handleLeave(conn *Connection, currentKey *string) {
	if *currentKey == "" {
		return
	}
	key := *currentKey
	viewer := uid(conn.UserID)

	Store.Unfocus(viewer, key)
	Debounce.Stop(key, viewer)
	Manager.Leave(key, conn.ID)
	Manager.Broadcast(key, models.WSMessage{
		Event:    "leave",
		Key:      key,
		SenderID: conn.UserID,
		Username: conn.Username,
	}, conn.ID)

	*currentKey = ""
}

// handleChat sends a message: persist the canonical row first, then apply it
// to the in-memory store and fan it out. Nothing is applied locally until the
// write succeeds, so a failed persist never leaves state diverged.
func handleChat(conn *Connection, msg *models.WSMessage, currentKey string, chatService *services.ChatService) {
	if currentKey == "" {
		return
	}
	if msg.Text == "" {
		sendError(conn, "message content is empty")
		return
	}

	msgType := chat.TypeText
	if msg.Type != "" {
		msgType = chat.MessageType(msg.Type)
		if !msgType.Valid() {
			sendError(conn, "unknown message type")
			return
		}
	}

	ctx := context.Background()
	sender := uid(conn.UserID)

	receiverID, err := chatService.GetOtherUserInConversation(ctx, currentKey, conn.UserID)
	if err != nil {
		sendError(conn, "conversation not found")
		return
	}

	message := chat.Message{
		ID:              uuid.New().String(),
		ConversationKey: currentKey,
		SenderID:        sender,
		ReceiverID:      uid(receiverID),
		Type:            msgType,
		Content:         msg.Text,
		Status:          chat.StatusSent,
		CreatedAt:       time.Now().UTC(),
	}

	if err := chatService.SaveMessage(ctx, &message); err != nil {
		utils.LogError(err, "save message")
		sendError(conn, "failed to send message")
		return
	}
	if err := Store.Append(message); err != nil {
		utils.LogError(err, "append message")
		sendError(conn, err.Error())
		return
	}

	// Sending a message is an implicit stop-typing signal.
	Debounce.Stop(currentKey, sender)

	// The receiver being reachable advances the message to delivered.
	if Manager.IsUserConnected(receiverID) {
		if err := Store.AdvanceStatus(currentKey, message.ID, chat.StatusDelivered); err == nil {
			message.Status = chat.StatusDelivered
			utils.LogError(chatService.AdvanceStatus(ctx, currentKey, message.ID, chat.StatusDelivered), "advance delivered")
		}
	}

	Manager.Broadcast(currentKey, models.WSMessage{
		Event:     "chat",
		ID:        message.ID,
		Key:       currentKey,
		Text:      message.Content,
		Type:      string(message.Type),
		Status:    string(message.Status),
		SenderID:  conn.UserID,
		Username:  conn.Username,
		Timestamp: message.CreatedAt.UnixMilli(),
	}, "") // include the sender so they see the message confirmed

	// Out-of-band nudge for a receiver who is online but elsewhere.
	go notifyNewMessage(chatService, currentKey, conn.UserID, conn.Username, receiverID, message)
}

// notifyNewMessage pings the receiver's connections when they are online but
// do not have the conversation open, so their list view can bump its badge.
func notifyNewMessage(chatService *services.ChatService, key string, senderID int, senderUsername string, receiverID int, message chat.Message) {
	if !Manager.IsUserConnected(receiverID) || Manager.IsUserInConversation(receiverID, key) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	unread, err := chatService.UnreadCount(ctx, key, receiverID)
	if err != nil {
		utils.LogError(err, "unread count")
		unread = Unread.Count(key, uid(receiverID))
	} else {
		Unread.Set(key, uid(receiverID), unread)
	}

	Manager.SendToUser(receiverID, models.WSMessage{
		Event:     "new_message",
		ID:        message.ID,
		Key:       key,
		Text:      message.Content,
		Type:      string(message.Type),
		SenderID:  senderID,
		Username:  senderUsername,
		Timestamp: message.CreatedAt.UnixMilli(),
		Conversations: []models.ConversationListItem{{
			Key:         key,
			UnreadCount: unread,
		}},
	})
}

func handleTyping(conn *Connection, msg *models.WSMessage, currentKey string) {
	if currentKey == "" {
		return
	}
	viewer := uid(conn.UserID)

	if msg.IsTyping {
		Debounce.Touch(currentKey, viewer)
	} else {
		Debounce.Stop(currentKey, viewer)
	}

	Manager.Broadcast(currentKey, models.WSMessage{
		Event:   "typing",
		Key:     currentKey,
		Typists: Typing.Typists(currentKey),
	}, conn.ID)
}

// handleSeen marks everything inbound in the open conversation as read.
func handleSeen(conn *Connection, msg *models.WSMessage, currentKey string, chatService *services.ChatService) {
	key := currentKey
	if key == "" {
		key = msg.Key
	}
	if key == "" {
		return
	}

	ctx := context.Background()
	var changed []string
	if key == currentKey {
		changed = Store.Focus(uid(conn.UserID), key)
	} else {
		// Read receipt for a conversation the user is not viewing; it must
		// not take focus, or later inbound messages would skip the unread
		// counter.
		changed = Store.MarkRead(uid(conn.UserID), key)
	}
	updated, err := chatService.MarkConversationRead(ctx, key, conn.UserID)
	if err != nil {
		utils.LogError(err, "mark seen")
		sendError(conn, "failed to mark messages seen")
		return
	}

	utils.LogError(conn.Send(models.WSMessage{
		Event:     "seen_successful",
		Key:       key,
		Timestamp: time.Now().UnixMilli(),
	}), "seen ack")

	if len(changed) > 0 || updated > 0 {
		Manager.Broadcast(key, models.WSMessage{
			Event:     "messages_seen",
			Key:       key,
			SenderID:  conn.UserID,
			Username:  conn.Username,
			Timestamp: time.Now().UnixMilli(),
		}, conn.ID)
	}
}

func handleEdit(conn *Connection, msg *models.WSMessage, currentKey string, chatService *services.ChatService) {
	if currentKey == "" || msg.ID == "" {
		return
	}

	if err := editMessage(context.Background(), chatService, currentKey, msg.ID, uid(conn.UserID), msg.Text); err != nil {
		utils.LogError(err, "edit message")
		sendError(conn, err.Error())
		return
	}

	Manager.Broadcast(currentKey, models.WSMessage{
		Event:     "message_edited",
		ID:        msg.ID,
		Key:       currentKey,
		Text:      msg.Text,
		Edited:    true,
		SenderID:  conn.UserID,
		Timestamp: time.Now().UnixMilli(),
	}, "")
}

func handleDelete(conn *Connection, msg *models.WSMessage, currentKey string, chatService *services.ChatService) {
	if currentKey == "" || msg.ID == "" {
		return
	}
	caller := uid(conn.UserID)

	scope := chat.DeleteScope(msg.Scope)
	switch scope {
	case chat.ScopeForMe, chat.ScopeForEveryone:
	default:
		sendError(conn, chat.ErrInvalidScope.Error())
		return
	}

	if err := deleteMessage(context.Background(), chatService, currentKey, msg.ID, caller, scope); err != nil {
		utils.LogError(err, "delete message")
		sendError(conn, err.Error())
		return
	}

	deleted := models.WSMessage{
		Event:     "message_deleted",
		ID:        msg.ID,
		Key:       currentKey,
		Scope:     string(scope),
		SenderID:  conn.UserID,
		Timestamp: time.Now().UnixMilli(),
	}
	if scope == chat.ScopeForEveryone {
		// Both sides replace the bubble with the tombstone.
		deleted.Text = chat.Tombstone
		Manager.Broadcast(currentKey, deleted, "")
	} else {
		// For-me only changes the caller's own view (all their devices).
		Manager.SendToUser(conn.UserID, deleted)
	}
}

func handleList(conn *Connection, chatService *services.ChatService) {
	ctx := context.Background()

	items, err := chatService.GetUserConversations(ctx, conn.UserID)
	if err != nil {
		utils.LogError(err, "list conversations")
		utils.LogError(conn.Send(models.WSMessage{
			Event:         "list",
			Conversations: []models.ConversationListItem{},
			Error:         "failed to fetch conversations",
		}), "send list")
		return
	}

	now := time.Now()
	for i := range items {
		other := strconv.Itoa(items[i].OtherUserID)
		if Presence.Online(other) {
			items[i].OtherUserStatus = "online"
		} else {
			items[i].OtherUserStatus = "offline"
			if last, ok := Presence.LastActive(other); ok {
				items[i].LastSeen = chat.FormatLastSeen(last, now)
			}
		}
		// The canonical count wins over whatever the tracker accumulated
		// while this user was away.
		Unread.Set(items[i].Key, uid(conn.UserID), items[i].UnreadCount)
	}

	utils.LogError(conn.Send(models.WSMessage{
		Event:         "list",
		Conversations: items,
	}), "send list")
}
