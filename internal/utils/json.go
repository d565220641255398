package utils

import (
	"encoding/json"

	"hrms-backend/internal/logging"

	"github.com/gofiber/websocket/v2"
)

// SafeJSONParse parses JSON safely
func SafeJSONParse(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// SendJSON sends a JSON payload to a WebSocket connection.
// Fiber's websocket implementation is not safe for concurrent writes to one
// connection; the hub serializes writes with a per-connection mutex, so this
// must only be called through the hub or from the connection's own read loop.
func SendJSON(c *websocket.Conn, payload interface{}) error {
	return c.WriteJSON(payload)
}

// LogError logs an error if it's not nil
func LogError(err error, context string) {
	if err != nil {
		logging.Error().Err(err).Str("context", context).Msg("operation failed")
	}
}
