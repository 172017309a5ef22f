package routes

import (
	"notes-server/controllers"
	middleware "notes-server/middlewares"
	"notes-server/utils"

	"github.com/gofiber/fiber/v2"
)

// NoteRoutes mounts the note API behind the JWT guard. Static segments are
// registered before /:id so "search" is never read as an id.
func NoteRoutes(app *fiber.App, noteController *controllers.NoteController, store *utils.PublicKeyStore) fiber.Router {
	notes := app.Group("/notes", middleware.JWTParser(store))

	notes.Get("/search", noteController.SearchNotes)
	notes.Post("/", noteController.CreateNote)
	notes.Get("/", noteController.GetMyNotes)
	notes.Get("/:id", noteController.GetNoteByID)
	notes.Put("/:id", noteController.UpdateNote)
	notes.Delete("/:id", noteController.DeleteNoteByID)
	return notes
}
