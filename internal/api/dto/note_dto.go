package dto

import "time"

// CreateNoteRequest payload.
type CreateNoteRequest struct {
	Text string `json:"text" validate:"required"`
}

// ReopenRequest payload.
type ReopenRequest struct {
	ReopenReason string `json:"reopenReason" validate:"required"`
}

// NoteResponse is the public shape of a note.
type NoteResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticketId"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Text      string    `json:"text"`
	IsStaff   bool      `json:"isStaff"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReopenResponse bundles the reopened ticket and its audit note.
type ReopenResponse struct {
	Ticket  TicketResponse `json:"ticket"`
	Note    NoteResponse   `json:"note"`
	Message string         `json:"message"`
}
