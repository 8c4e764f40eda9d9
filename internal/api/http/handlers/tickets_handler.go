package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/opsdesk/helpdesk/internal/api/dto"
	"github.com/opsdesk/helpdesk/internal/auth"
	"github.com/opsdesk/helpdesk/internal/domain"
	"github.com/opsdesk/helpdesk/internal/service"
	apperrors "github.com/opsdesk/helpdesk/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// Create POST /tickets. Multipart form with an optional single file.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	input := service.TicketCreateInput{
		Description: c.FormValue("description"),
		Priority:    domain.TicketPriority(c.FormValue("priority")),
		Category:    domain.TicketCategory(c.FormValue("category")),
		SubCategory: c.FormValue("subCategory"),
		ServiceType: domain.ServiceType(c.FormValue("service")),
	}
	if v := c.FormValue("startDate"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return apperrors.NewValidationError("invalid startDate", map[string]any{"value": v})
		}
		input.StartDate = t
	}
	if v := c.FormValue("endDate"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return apperrors.NewValidationError("invalid endDate", map[string]any{"value": v})
		}
		input.EndDate = t
	}

	if fh, err := c.FormFile("file"); err == nil && fh != nil {
		attachment, err := readUpload(fh)
		if err != nil {
			return err
		}
		input.Attachment = attachment
	}

	ticket, err := h.service.Create(c.Context(), user, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ListMine GET /tickets.
func (h *TicketsHandler) ListMine(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	tickets, err := h.service.ListOwned(c.Context(), user.ID)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListAll GET /tickets/admin/allTickets.
func (h *TicketsHandler) ListAll(c *fiber.Ctx) error {
	tickets, err := h.service.ListAllWithOwners(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.AdminTicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.AdminTicketResponse{
			TicketResponse: ticketResponse(&tickets[i].Ticket),
			Owner: dto.TicketOwnerResponse{
				Name:         tickets[i].Owner.Name,
				Email:        tickets[i].Owner.Email,
				EmployeeCode: tickets[i].Owner.EmployeeCode,
			},
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.service.Get(c.Context(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// Update PUT /tickets/:id. Accepts JSON, or multipart when the patch
// replaces the stored attachment.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.UpdateTicketRequest
	var attachment *domain.Attachment
	if form, ferr := c.MultipartForm(); ferr == nil && form != nil {
		if err := patchFromForm(form, &req); err != nil {
			return err
		}
		if files := form.File["file"]; len(files) > 0 {
			att, err := readUpload(files[0])
			if err != nil {
				return err
			}
			attachment = att
		}
	} else if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validateStruct(req); err != nil {
		return err
	}

	patch := domain.TicketPatch{
		Status:      req.Status,
		Priority:    req.Priority,
		Category:    req.Category,
		SubCategory: req.SubCategory,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		ServiceType: req.Service,
	}
	if attachment != nil {
		patch.AttachmentName = &attachment.FileName
		patch.AttachmentMime = &attachment.MimeType
		patch.AttachmentData = attachment.Data
	}
	ticket, err := h.service.Update(c.Context(), user, c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// Delete DELETE /tickets/:id. Admin-gated at the route.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.Delete(c.Context(), user, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}

// Attachment GET /tickets/:id/attachment.
func (h *TicketsHandler) Attachment(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	attachment, err := h.service.Attachment(c.Context(), user, c.Params("id"))
	if err != nil {
		return err
	}
	if attachment.MimeType != "" {
		c.Set(fiber.HeaderContentType, attachment.MimeType)
	}
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", attachment.FileName))
	return c.Send(attachment.Data)
}

func parseDate(val string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", val)
}

func readUpload(fh *multipart.FileHeader) (*domain.Attachment, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, apperrors.NewValidationError("unreadable attachment", nil)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, apperrors.NewValidationError("unreadable attachment", nil)
	}
	return &domain.Attachment{
		FileName: fh.Filename,
		MimeType: fh.Header.Get("Content-Type"),
		Data:     data,
	}, nil
}

// patchFromForm maps present multipart fields onto the update request;
// absent fields stay nil so the patch leaves them untouched.
func patchFromForm(form *multipart.Form, req *dto.UpdateTicketRequest) error {
	get := func(key string) *string {
		if vals, ok := form.Value[key]; ok && len(vals) > 0 {
			return &vals[0]
		}
		return nil
	}

	if v := get("status"); v != nil {
		status := domain.TicketStatus(*v)
		req.Status = &status
	}
	if v := get("priority"); v != nil {
		priority := domain.TicketPriority(*v)
		req.Priority = &priority
	}
	if v := get("category"); v != nil {
		category := domain.TicketCategory(*v)
		req.Category = &category
	}
	if v := get("subCategory"); v != nil {
		req.SubCategory = v
	}
	if v := get("description"); v != nil {
		req.Description = v
	}
	if v := get("service"); v != nil {
		serviceType := domain.ServiceType(*v)
		req.Service = &serviceType
	}
	if v := get("startDate"); v != nil {
		t, err := parseDate(*v)
		if err != nil {
			return apperrors.NewValidationError("invalid startDate", map[string]any{"value": *v})
		}
		req.StartDate = &t
	}
	if v := get("endDate"); v != nil {
		t, err := parseDate(*v)
		if err != nil {
			return apperrors.NewValidationError("invalid endDate", map[string]any{"value": *v})
		}
		req.EndDate = &t
	}
	return nil
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:             ticket.ID,
		UserID:         ticket.UserID,
		Description:    ticket.Description,
		Priority:       ticket.Priority,
		Category:       ticket.Category,
		SubCategory:    ticket.SubCategory,
		Service:        ticket.ServiceType,
		Status:         ticket.Status,
		StartDate:      ticket.StartDate,
		EndDate:        ticket.EndDate,
		AttachmentName: ticket.AttachmentName,
		AttachmentMime: ticket.AttachmentMime,
		CreatedAt:      ticket.CreatedAt,
		UpdatedAt:      ticket.UpdatedAt,
	}
}
