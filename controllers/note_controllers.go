package controllers

import (
	"errors"

	middleware "notes-server/middlewares"
	"notes-server/models"
	service "notes-server/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

type NoteController struct {
	svc *service.NoteService
	log *zap.SugaredLogger
}

func NewNoteController(svc *service.NoteService, log *zap.SugaredLogger) *NoteController {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &NoteController{svc: svc, log: log}
}

func (nc *NoteController) CreateNote(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	input, err := parseNoteInput(c)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid JSON")
	}
	nc.log.Infow("received create note request", "user", p.ID, "title", input.Title)

	note, err := nc.svc.Create(c.UserContext(), p, input.Title, input.Body)
	if err != nil {
		return nc.writeError(c, err, "Problem to create a new note")
	}
	return c.Status(fiber.StatusOK).JSON(note)
}

func (nc *NoteController) GetNoteByID(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	note, err := nc.svc.GetByID(c.UserContext(), p, utils.CopyString(c.Params("id")))
	if err != nil {
		return nc.writeError(c, err, "Problem to get the note")
	}
	return c.Status(fiber.StatusOK).JSON(note)
}

func (nc *NoteController) GetMyNotes(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	notes, err := nc.svc.ListMine(c.UserContext(), p)
	if err != nil {
		return nc.writeError(c, err, "Problem to get the notes")
	}
	return c.Status(fiber.StatusOK).JSON(notes)
}

func (nc *NoteController) SearchNotes(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	notes, err := nc.svc.SearchMine(c.UserContext(), p, utils.CopyString(c.Query("query")))
	if err != nil {
		return nc.writeError(c, err, "Problem to search the notes")
	}
	return c.Status(fiber.StatusOK).JSON(notes)
}

func (nc *NoteController) UpdateNote(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	input, err := parseNoteInput(c)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid JSON")
	}

	note, err := nc.svc.Update(c.UserContext(), p, utils.CopyString(c.Params("id")), input.Title, input.Body)
	if err != nil {
		return nc.writeError(c, err, "Problem to update the note")
	}
	return c.Status(fiber.StatusOK).JSON(note)
}

func (nc *NoteController) DeleteNoteByID(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	if err := nc.svc.Delete(c.UserContext(), p, utils.CopyString(c.Params("id"))); err != nil {
		return nc.writeError(c, err, "Problem to delete the note")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// writeError is the only place a service error becomes a response. The
// cause is logged; the client only ever sees a fixed message.
func (nc *NoteController) writeError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		return errorJSON(c, fiber.StatusForbidden, "Permission denied")
	case errors.Is(err, service.ErrNoteNotFound):
		return errorJSON(c, fiber.StatusNotFound, "Note not found")
	default:
		nc.log.Errorw(fallback, "path", utils.CopyString(c.Path()), "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, fallback)
	}
}

// parseNoteInput copies the decoded fields out of fiber's request buffer,
// which is reused once the handler returns.
func parseNoteInput(c *fiber.Ctx) (models.NoteInput, error) {
	var input models.NoteInput
	if err := c.BodyParser(&input); err != nil {
		return input, err
	}
	input.Title = utils.CopyString(input.Title)
	input.Body = utils.CopyString(input.Body)
	return input, nil
}

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}
