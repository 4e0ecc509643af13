// handlers/events_ws.go - websocket feed of a user's progress events
package handlers

import (
	"time"

	"mediahub/middleware"
	"mediahub/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// UpgradeProgressFeed vets the upgrade request before the websocket handshake.
// A caller with a token may only follow their own feed.
// GET /ws/users/:userId
func UpgradeProgressFeed(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	if hub == nil {
		return utils.JSONError(c, fiber.StatusServiceUnavailable, "Live updates are not enabled")
	}
	userID := c.Params("userId")
	if id, err := middleware.GetUserID(c); err == nil && id != userID {
		return utils.JSONError(c, fiber.StatusForbidden, "Cannot follow another user's progress")
	}
	if _, err := store.GetUser(c.UserContext(), userID); err != nil {
		return respondError(c, err, "User not found", "Failed to open progress feed")
	}
	return c.Next()
}

// StreamProgress forwards hub events to the socket until either side hangs up.
func StreamProgress(conn *websocket.Conn) {
	userID := conn.Params("userId")
	feed, cancel := hub.Subscribe(userID)
	defer cancel()

	done := make(chan struct{})
	go readPump(conn, done)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer conn.Close()

	log.Debug("progress feed opened", "userId", userID)
	for {
		select {
		case ev, ok := <-feed:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				log.Debug("progress feed write failed", "userId", userID, "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			log.Debug("progress feed closed", "userId", userID)
			return
		}
	}
}

// readPump drains client frames so pongs and close frames are processed.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
