package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/opsdesk/helpdesk/internal/api/dto"
	"github.com/opsdesk/helpdesk/internal/auth"
	"github.com/opsdesk/helpdesk/internal/domain"
	"github.com/opsdesk/helpdesk/internal/service"
	apperrors "github.com/opsdesk/helpdesk/pkg/util"
)

// NotesHandler manages note threads and the reopen transition.
type NotesHandler struct {
	service *service.NoteService
}

// NewNotesHandler constructs handler.
func NewNotesHandler(noteService *service.NoteService) *NotesHandler {
	return &NotesHandler{service: noteService}
}

// List GET /tickets/:id/notes.
func (h *NotesHandler) List(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	notes, err := h.service.List(c.Context(), user, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.NoteResponse, 0, len(notes))
	for i := range notes {
		items = append(items, noteResponse(&notes[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Add POST /tickets/:id/notes.
func (h *NotesHandler) Add(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	note, err := h.service.Add(c.Context(), user, c.Params("id"), req.Text)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": noteResponse(note)})
}

// Reopen PUT /tickets/:id/reopen.
func (h *NotesHandler) Reopen(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ReopenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, note, err := h.service.Reopen(c.Context(), user, c.Params("id"), req.ReopenReason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ReopenResponse{
		Ticket:  ticketResponse(ticket),
		Note:    noteResponse(note),
		Message: "ticket reopened",
	}})
}

func noteResponse(note *domain.Note) dto.NoteResponse {
	return dto.NoteResponse{
		ID:        note.ID,
		TicketID:  note.TicketID,
		UserID:    note.UserID,
		UserName:  note.UserName,
		Text:      note.Text,
		IsStaff:   note.IsStaff,
		CreatedAt: note.CreatedAt,
	}
}
