package routes

import (
	"notes-server/controllers"
	middleware "notes-server/middlewares"
	"notes-server/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebSocketRoutes must be mounted before NoteRoutes, otherwise /notes/:id
// captures /notes/ws.
func WebSocketRoutes(app *fiber.App, eventsController *controllers.NoteEventsController, store *utils.PublicKeyStore) {
	app.Get("/notes/ws",
		eventsController.RequireUpgrade,
		middleware.JWTParser(store),
		websocket.New(eventsController.HandleNoteEvents),
	)
}
