package service

import (
	"context"
	"errors"
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

// TicketService owns ticket creation, retrieval, update and deletion.
type TicketService struct {
	tickets    repository.TicketRepository
	logs       repository.LogRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TicketDependencies bundles requirements for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	LogRepo    repository.LogRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Description string
	Priority    domain.TicketPriority
	Category    domain.TicketCategory
	SubCategory string
	ServiceType domain.ServiceType
	StartDate   time.Time
	EndDate     time.Time
	Attachment  *domain.Attachment
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		logs:       deps.LogRepo,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// Create validates the input, generates a unique identifier and persists
// the ticket with status "new". A duplicate-key race on insert surfaces
// as Conflict; the storage constraint is the arbiter.
func (s *TicketService) Create(ctx context.Context, owner *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	input.Description = strings.TrimSpace(input.Description)

	missing := []string{}
	if input.Description == "" {
		missing = append(missing, "description")
	}
	if input.Priority == "" {
		missing = append(missing, "priority")
	}
	if input.SubCategory == "" {
		missing = append(missing, "subCategory")
	}
	if input.StartDate.IsZero() {
		missing = append(missing, "startDate")
	}
	if input.EndDate.IsZero() {
		missing = append(missing, "endDate")
	}
	if input.ServiceType == "" {
		missing = append(missing, "service")
	}
	if input.Category == "" {
		missing = append(missing, "category")
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("missing required fields",
			map[string]any{"fields": missing})
	}

	if !domain.ValidSubCategory(input.Category, input.SubCategory) {
		return nil, apperrors.NewValidationError("invalid sub-category for category",
			map[string]any{
				"category": input.Category,
				"allowed":  domain.SubCategoriesFor(input.Category),
			})
	}

	number, err := s.uniqueTicketNumber(ctx)
	if err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		ID:          servicePrefix(input.ServiceType, s.logger) + number,
		UserID:      owner.ID,
		Description: input.Description,
		Priority:    input.Priority,
		Category:    input.Category,
		SubCategory: input.SubCategory,
		ServiceType: input.ServiceType,
		Status:      domain.TicketStatusNew,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
	}

	var attachmentData []byte
	if input.Attachment != nil {
		ticket.AttachmentName = &input.Attachment.FileName
		ticket.AttachmentMime = &input.Attachment.MimeType
		attachmentData = input.Attachment.Data
	}

	if err := s.tickets.Create(ctx, ticket, attachmentData); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.audit(ctx, owner.ID, "ticket_created")
	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    events.Actor{UserID: owner.ID, Role: owner.Role},
		Payload: events.TicketCreatedPayload{
			Category:    ticket.Category,
			SubCategory: ticket.SubCategory,
			Priority:    ticket.Priority,
			ServiceType: ticket.ServiceType,
		},
	})
	return ticket, nil
}

// uniqueTicketNumber probes for an unused numeric suffix, retrying a
// bounded number of times before giving up.
func (s *TicketService) uniqueTicketNumber(ctx context.Context) (string, error) {
	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		number := randomTicketNumber()
		count, err := s.tickets.CountSuffixMatches(ctx, number)
		if err != nil {
			return "", apperrors.MapError(err)
		}
		if count == 0 {
			return number, nil
		}
		s.logger.Warn("ticket number collision",
			zap.String("number", number), zap.Int("attempt", attempt))
	}
	return "", apperrors.NewGenerationError("could not generate a unique ticket number")
}

// Get fetches a ticket for the owner or an admin.
func (s *TicketService) Get(ctx context.Context, requester *domain.User, id string) (*domain.Ticket, error) {
	ticket, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.CanAccessTicket(requester, ticket) {
		return nil, apperrors.NewForbidden("not allowed to access this ticket")
	}
	return ticket, nil
}

// ListOwned returns the caller's tickets, newest-first.
func (s *TicketService) ListOwned(ctx context.Context, userID string) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListByOwner(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// ListAllWithOwners returns every ticket joined with minimal owner
// identity, newest-first. The route is admin-gated.
func (s *TicketService) ListAllWithOwners(ctx context.Context) ([]domain.TicketWithOwner, error) {
	tickets, err := s.tickets.ListAllWithOwner(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// Update applies a partial patch. An empty patch returns the current
// record unchanged.
func (s *TicketService) Update(ctx context.Context, requester *domain.User, id string, patch domain.TicketPatch) (*domain.Ticket, error) {
	ticket, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.CanAccessTicket(requester, ticket) {
		return nil, apperrors.NewForbidden("not allowed to update this ticket")
	}
	if patch.IsEmpty() {
		return ticket, nil
	}

	category := ticket.Category
	if patch.Category != nil {
		category = *patch.Category
	}
	subCategory := ticket.SubCategory
	if patch.SubCategory != nil {
		subCategory = *patch.SubCategory
	}
	if !domain.ValidSubCategory(category, subCategory) {
		return nil, apperrors.NewValidationError("invalid sub-category for category",
			map[string]any{
				"category": category,
				"allowed":  domain.SubCategoriesFor(category),
			})
	}

	updated, err := s.tickets.Update(ctx, id, patch)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return updated, nil
}

// Delete hard-deletes a ticket. The route is admin-gated.
func (s *TicketService) Delete(ctx context.Context, requester *domain.User, id string) error {
	if err := s.tickets.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("ticket", map[string]any{"id": id})
		}
		return apperrors.MapError(err)
	}
	s.audit(ctx, requester.ID, "ticket_deleted")
	return nil
}

// Attachment returns the stored inline file for the owner or an admin.
func (s *TicketService) Attachment(ctx context.Context, requester *domain.User, id string) (*domain.Attachment, error) {
	ticket, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.CanAccessTicket(requester, ticket) {
		return nil, apperrors.NewForbidden("not allowed to access this ticket")
	}
	attachment, err := s.tickets.GetAttachment(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("attachment", map[string]any{"ticket_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return attachment, nil
}

func (s *TicketService) load(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) audit(ctx context.Context, userID, action string) {
	if s.logs == nil {
		return
	}
	entry := &domain.LogEntry{UserID: userID, Action: action}
	if err := s.logs.Create(ctx, entry); err != nil {
		s.logger.Warn("write audit log", zap.Error(err), zap.String("action", action))
	}
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
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
