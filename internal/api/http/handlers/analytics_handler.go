package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/opsdesk/helpdesk/internal/domain"
	"github.com/opsdesk/helpdesk/internal/service"
)

// AnalyticsHandler serves the admin dashboard aggregates. Every route
// under /analytics is admin-gated at registration.
type AnalyticsHandler struct {
	service *service.AnalyticsService
}

// NewAnalyticsHandler constructs handler.
func NewAnalyticsHandler(analyticsService *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: analyticsService}
}

// ByStatus GET /analytics/tickets/status.
func (h *AnalyticsHandler) ByStatus(c *fiber.Ctx) error {
	counts, err := h.service.TicketsByStatus(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": counts})
}

// ByCategory GET /analytics/tickets/category.
func (h *AnalyticsHandler) ByCategory(c *fiber.Ctx) error {
	counts, err := h.service.TicketsByCategory(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": counts})
}

// ByPriority GET /analytics/tickets/priority.
func (h *AnalyticsHandler) ByPriority(c *fiber.Ctx) error {
	counts, err := h.service.TicketsByPriority(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": counts})
}

// ByServiceType GET /analytics/tickets/service.
func (h *AnalyticsHandler) ByServiceType(c *fiber.Ctx) error {
	counts, err := h.service.TicketsByServiceType(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": counts})
}

// BySubCategory GET /analytics/tickets/subcategory/:category, also
// reachable with a ?category= query.
func (h *AnalyticsHandler) BySubCategory(c *fiber.Ctx) error {
	raw := c.Params("category")
	if raw == "" {
		raw = c.Query("category")
	}
	category := domain.TicketCategory(raw)
	counts, err := h.service.TicketsBySubCategory(c.Context(), category)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": counts})
}

// OverTime GET /analytics/tickets/overtime?timeframe=30days.
func (h *AnalyticsHandler) OverTime(c *fiber.Ctx) error {
	counts, err := h.service.TicketsOverTime(c.Context(), c.Query("timeframe"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": counts})
}

// TotalUsers GET /analytics/users/total.
func (h *AnalyticsHandler) TotalUsers(c *fiber.Ctx) error {
	count, err := h.service.TotalUsers(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"count": count}})
}
