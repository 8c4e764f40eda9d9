package dto

import (
	"time"

	"github.com/opsdesk/helpdesk/internal/domain"
)

// UpdateTicketRequest is the partial-update payload; absent fields are
// left untouched.
type UpdateTicketRequest struct {
	Status      *domain.TicketStatus   `json:"status" validate:"omitempty,oneof=new open reopened closed resolved"`
	Priority    *domain.TicketPriority `json:"priority" validate:"omitempty,oneof=High Medium Low"`
	Category    *domain.TicketCategory `json:"category" validate:"omitempty,oneof=SAP Digital"`
	SubCategory *string                `json:"subCategory"`
	Description *string                `json:"description"`
	StartDate   *time.Time             `json:"startDate"`
	EndDate     *time.Time             `json:"endDate"`
	Service     *domain.ServiceType    `json:"service" validate:"omitempty,oneof=Service Incident"`
}

// TicketResponse is the public shape of a ticket.
type TicketResponse struct {
	ID             string                `json:"id"`
	UserID         string                `json:"userId"`
	Description    string                `json:"description"`
	Priority       domain.TicketPriority `json:"priority"`
	Category       domain.TicketCategory `json:"category"`
	SubCategory    string                `json:"subCategory"`
	Service        domain.ServiceType    `json:"service"`
	Status         domain.TicketStatus   `json:"status"`
	StartDate      time.Time             `json:"startDate"`
	EndDate        time.Time             `json:"endDate"`
	AttachmentName *string               `json:"attachmentName,omitempty"`
	AttachmentMime *string               `json:"attachmentMime,omitempty"`
	CreatedAt      time.Time             `json:"createdAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`
}

// TicketOwnerResponse carries the owner identity on admin listings.
type TicketOwnerResponse struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	EmployeeCode string `json:"employeeCode"`
}

// AdminTicketResponse pairs a ticket with its owner's identity.
type AdminTicketResponse struct {
	TicketResponse
	Owner TicketOwnerResponse `json:"owner"`
}
