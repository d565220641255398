package handlers

import (
	"time"

	"hrms-backend/internal/logging"
	"hrms-backend/internal/models"
	"hrms-backend/internal/services"
	"hrms-backend/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// WebSocketHandler handles the websocket connection
func WebSocketHandler(chatService *services.ChatService) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		// Retrieve user info from locals (set by middleware)
		userID := c.Locals("user_id").(int)
		username := c.Locals("username").(string)

		connID := uuid.New().String()
		log := logging.WithUser(uid(userID))
		log.Debug().Str("conn_id", connID).Msg("websocket connected")
		conn, cameOnline := Manager.Register(connID, userID, username, c)

		// Connecting is itself a liveness signal.
		Presence.Heartbeat(uid(userID))
		if cameOnline {
			Manager.BroadcastToAll(models.WSMessage{
				Event:     "presence",
				SenderID:  userID,
				Username:  username,
				Status:    "online",
				Timestamp: time.Now().UnixMilli(),
			})
		}

		var currentKey string

		defer func() {
			if currentKey != "" {
				Store.Unfocus(uid(userID), currentKey)
				Debounce.Stop(currentKey, uid(userID))
				Manager.Leave(currentKey, connID)
				Manager.Broadcast(currentKey, models.WSMessage{
					Event:    "leave",
					Key:      currentKey,
					Username: username,
				}, connID)
			}

			if _, wentOffline := Manager.Unregister(connID); wentOffline {
				now := time.Now()
				Presence.SetOffline(uid(userID), now)
				Manager.BroadcastToAll(models.WSMessage{
					Event:     "presence",
					SenderID:  userID,
					Username:  username,
					Status:    "offline",
					Timestamp: now.UnixMilli(),
				})
			}
			c.Close()
		}()

		utils.LogError(conn.Send(models.WSMessage{
			Event:    "connected",
			Username: username,
		}), "welcome")

		for {
			msgType, msg, err := c.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Warn().Err(err).Msg("read failed")
				}
				break
			}

			// Any inbound frame proves the client is alive.
			Presence.Heartbeat(uid(userID))

			HandleMessage(conn, msgType, msg, chatService, &currentKey)
		}
	})
}

// WSUpgradeMiddleware upgrades the connection to WebSocket
func WSUpgradeMiddleware(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		c.Locals("allowed", true)
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// AuthMiddleware verifies the JWT token before upgrading
func AuthMiddleware(c *fiber.Ctx) error {
	// Get token from query param `access_token` or Authorization header
	token := c.Query("access_token")
	if token == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			token = authHeader[7:]
		}
	}

	if token == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "Missing token")
	}

	claims, err := services.ValidateToken(token)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
	}

	// claims["user_id"] comes as float64 from JSON
	if id, ok := claims["user_id"].(float64); ok {
		c.Locals("user_id", int(id))
	} else {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
	}

	if u, ok := claims["username"].(string); ok {
		c.Locals("username", u)
	}

	return c.Next()
}
