package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/opsdesk/helpdesk/internal/auth"
	"github.com/opsdesk/helpdesk/internal/domain"
	"github.com/opsdesk/helpdesk/internal/events"
	"github.com/opsdesk/helpdesk/internal/repository"
	apperrors "github.com/opsdesk/helpdesk/pkg/util"
)

// NoteService owns the per-ticket note thread and the compound reopen
// transition.
type NoteService struct {
	tx         repository.TxRunner
	tickets    repository.TicketRepository
	notes      repository.NoteRepository
	logs       repository.LogRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NoteDependencies bundles requirements for the note service.
type NoteDependencies struct {
	TxRunner   repository.TxRunner
	TicketRepo repository.TicketRepository
	NoteRepo   repository.NoteRepository
	LogRepo    repository.LogRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewNoteService constructs the service.
func NewNoteService(deps NoteDependencies) *NoteService {
	return &NoteService{
		tx:         deps.TxRunner,
		tickets:    deps.TicketRepo,
		notes:      deps.NoteRepo,
		logs:       deps.LogRepo,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// List returns the note thread newest-first for the owner or an admin.
func (s *NoteService) List(ctx context.Context, requester *domain.User, ticketID string) ([]domain.Note, error) {
	if _, err := s.accessibleTicket(ctx, requester, ticketID); err != nil {
		return nil, err
	}
	notes, err := s.notes.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return notes, nil
}

// Add appends a note authored by the requester. The staff flag is
// stamped from the requester's role at write time.
func (s *NoteService) Add(ctx context.Context, requester *domain.User, ticketID, text string) (*domain.Note, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("note text required", nil)
	}
	ticket, err := s.accessibleTicket(ctx, requester, ticketID)
	if err != nil {
		return nil, err
	}

	note := &domain.Note{
		TicketID: ticket.ID,
		UserID:   requester.ID,
		UserName: requester.Name,
		Text:     text,
		IsStaff:  requester.IsAdmin(),
	}
	if err := s.notes.Create(ctx, note); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventNoteAdded,
		TicketID: ticket.ID,
		Actor:    events.Actor{UserID: requester.ID, Role: requester.Role},
		Payload: events.NoteAddedPayload{
			NoteID:      note.ID,
			IsStaff:     note.IsStaff,
			TextPreview: preview(note.Text, 120),
		},
	})
	return note, nil
}

// Reopen transitions a closed or resolved ticket back to "reopened" and
// appends the mandatory audit note. Both writes happen in one
// transaction; they commit or roll back together.
func (s *NoteService) Reopen(ctx context.Context, requester *domain.User, ticketID, reason string) (*domain.Ticket, *domain.Note, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, nil, apperrors.NewValidationError("reopen reason required", nil)
	}
	ticket, err := s.accessibleTicket(ctx, requester, ticketID)
	if err != nil {
		return nil, nil, err
	}
	if !ticket.Status.Reopenable() {
		return nil, nil, apperrors.NewInvalidState(
			fmt.Sprintf("cannot reopen a ticket in status %q", ticket.Status))
	}

	note := &domain.Note{
		TicketID: ticket.ID,
		UserID:   requester.ID,
		UserName: requester.Name,
		Text: fmt.Sprintf("Ticket reopened by %s (%s): %s",
			requester.Name, requester.RoleLabel(), reason),
		IsStaff: requester.IsAdmin(),
	}

	var updated *domain.Ticket
	err = s.tx.InTx(ctx, func(tx pgx.Tx) error {
		status := domain.TicketStatusReopened
		reopened, err := s.tickets.WithTx(tx).Update(ctx, ticket.ID, domain.TicketPatch{Status: &status})
		if err != nil {
			return err
		}
		updated = reopened
		return s.notes.WithTx(tx).Create(ctx, note)
	})
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}

	s.audit(ctx, requester.ID, "ticket_reopened")
	s.publish(ctx, events.Event{
		Type:     events.EventTicketReopened,
		TicketID: ticket.ID,
		Actor:    events.Actor{UserID: requester.ID, Role: requester.Role},
		Payload: events.TicketReopenedPayload{
			PreviousStatus: ticket.Status,
			Reason:         reason,
			NoteID:         note.ID,
		},
	})
	return updated, note, nil
}

func (s *NoteService) accessibleTicket(ctx context.Context, requester *domain.User, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if !auth.CanAccessTicket(requester, ticket) {
		return nil, apperrors.NewForbidden("not allowed to access this ticket")
	}
	return ticket, nil
}

func (s *NoteService) audit(ctx context.Context, userID, action string) {
	if s.logs == nil {
		return
	}
	entry := &domain.LogEntry{UserID: userID, Action: action}
	if err := s.logs.Create(ctx, entry); err != nil {
		s.logger.Warn("write audit log", zap.Error(err), zap.String("action", action))
	}
}

func (s *NoteService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func preview(text string, max int) string {
	text = strings.TrimSpace(text)
	if len(text) <= max {
		return text
	}
	if max <= 3 {
		return text[:max]
	}
	return text[:max-3] + "..."
}
