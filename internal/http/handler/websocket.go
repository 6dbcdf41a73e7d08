package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WSUpgrade rejects plain HTTP requests on the websocket route.
func WSUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// DisplaySocket keeps a display client registered on the hub until it
// hangs up. Incoming frames are drained and ignored; the display feed
// is one-way.
func (h *Handler) DisplaySocket() fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		h.hub.Register <- c
		defer func() {
			h.hub.Unregister <- c
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	})
}
