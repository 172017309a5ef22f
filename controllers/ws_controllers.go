package controllers

import (
	middleware "notes-server/middlewares"
	"notes-server/models"
	service "notes-server/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// NoteEventsController streams the caller's note events over a websocket.
type NoteEventsController struct {
	hub *service.NoteEventHub
	log *zap.SugaredLogger
}

func NewNoteEventsController(hub *service.NoteEventHub, log *zap.SugaredLogger) *NoteEventsController {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &NoteEventsController{hub: hub, log: log}
}

// RequireUpgrade rejects plain HTTP requests to the websocket route.
func (wsc *NoteEventsController) RequireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return errorJSON(c, fiber.StatusUpgradeRequired, "Upgrade required")
}

func (wsc *NoteEventsController) HandleNoteEvents(c *websocket.Conn) {
	p, ok := c.Locals(middleware.PrincipalKey).(models.Principal)
	if !ok || p.ID == "" {
		_ = c.Close()
		return
	}

	wsc.hub.Subscribe(p.ID, c)
	wsc.log.Infow("note events connected", "user", p.ID, "remote", c.RemoteAddr().String())
	defer func() {
		wsc.hub.RemoveClient(c)
		_ = c.Close()
		wsc.log.Infow("note events disconnected", "user", p.ID)
	}()

	// Clients never send anything meaningful; reading only detects close.
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}
