package events

import (
	"time"

	"github.com/opsdesk/helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated  EventType = "ticket_created"
	EventTicketReopened EventType = "ticket_reopened"
	EventNoteAdded      EventType = "note_added"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Category    domain.TicketCategory `json:"category"`
	SubCategory string                `json:"sub_category"`
	Priority    domain.TicketPriority `json:"priority"`
	ServiceType domain.ServiceType    `json:"service_type"`
}

// TicketReopenedPayload payload.
type TicketReopenedPayload struct {
	PreviousStatus domain.TicketStatus `json:"previous_status"`
	Reason         string              `json:"reason"`
	NoteID         string              `json:"note_id"`
}

// NoteAddedPayload payload.
type NoteAddedPayload struct {
	NoteID      string `json:"note_id"`
	IsStaff     bool   `json:"is_staff"`
	TextPreview string `json:"text_preview"`
}
