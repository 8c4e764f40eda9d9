package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opsdesk/helpdesk/internal/domain"
	"github.com/opsdesk/helpdesk/internal/events"
	"github.com/opsdesk/helpdesk/internal/repository/repotest"
	apperrors "github.com/opsdesk/helpdesk/pkg/util"
)

func newTicketService(tickets *repotest.TicketRepo, logs *repotest.LogRepo) *TicketService {
	return NewTicketService(TicketDependencies{
		TicketRepo: tickets,
		LogRepo:    logs,
		Dispatcher: events.NewInMemoryDispatcher(),
		Logger:     zap.NewNop(),
	})
}

func testUser(role domain.Role) *domain.User {
	return &domain.User{
		ID:     "user-" + string(role),
		Name:   "Jordan Example",
		Email:  string(role) + "@example.com",
		Role:   role,
		Status: domain.UserStatusActive,
	}
}

func validCreateInput() TicketCreateInput {
	return TicketCreateInput{
		Description: "SAP login fails with timeout",
		Priority:    domain.TicketPriorityHigh,
		Category:    domain.CategorySAP,
		SubCategory: "MM",
		ServiceType: domain.ServiceTypeIncident,
		StartDate:   time.Now(),
		EndDate:     time.Now().Add(48 * time.Hour),
	}
}

func TestTicketCreateGeneratesPrefixedID(t *testing.T) {
	tickets := repotest.NewTicketRepo()
	logs := repotest.NewLogRepo()
	svc := newTicketService(tickets, logs)
	owner := testUser(domain.RoleUser)

	ticket, err := svc.Create(context.Background(), owner, validCreateInput())
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^IN\d{8}$`), ticket.ID)
	assert.Equal(t, domain.TicketStatusNew, ticket.Status)
	assert.Equal(t, owner.ID, ticket.UserID)
	assert.Contains(t, logs.Actions(), "ticket_created")
}

func TestTicketCreateServicePrefix(t *testing.T) {
	tickets := repotest.NewTicketRepo()
	svc := newTicketService(tickets, repotest.NewLogRepo())
	owner := testUser(domain.RoleUser)

	input := validCreateInput()
	input.ServiceType = domain.ServiceTypeService
	ticket, err := svc.Create(context.Background(), owner, input)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^SR\d{8}$`), ticket.ID)
}

func TestTicketCreateMissingFields(t *testing.T) {
	svc := newTicketService(repotest.NewTicketRepo(), repotest.NewLogRepo())

	_, err := svc.Create(context.Background(), testUser(domain.RoleUser), TicketCreateInput{})
	require.Error(t, err)

	var derr *apperrors.DomainError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, "VALIDATION_FAILED", derr.Code)
	assert.ElementsMatch(t,
		[]string{"description", "priority", "subCategory", "startDate", "endDate", "service", "category"},
		derr.Details["fields"])
}

func TestTicketCreateInvalidSubCategory(t *testing.T) {
	svc := newTicketService(repotest.NewTicketRepo(), repotest.NewLogRepo())

	input := validCreateInput()
	input.Category = domain.CategoryDigital
	input.SubCategory = "MM"
	_, err := svc.Create(context.Background(), testUser(domain.RoleUser), input)

	var derr *apperrors.DomainError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, "VALIDATION_FAILED", derr.Code)
}

func TestTicketCreateNumberExhaustion(t *testing.T) {
	tickets := repotest.NewTicketRepo()
	tickets.AlwaysCollide = true
	svc := newTicketService(tickets, repotest.NewLogRepo())

	_, err := svc.Create(context.Background(), testUser(domain.RoleUser), validCreateInput())

	var derr *apperrors.DomainError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, "GENERATION_FAILED", derr.Code)
}

func TestTicketGetForbiddenForNonOwner(t *testing.T) {
	tickets := repotest.NewTicketRepo()
	svc := newTicketService(tickets, repotest.NewLogRepo())
	owner := testUser(domain.RoleUser)

	ticket, err := svc.Create(context.Background(), owner, validCreateInput())
	require.NoError(t, err)

	stranger := testUser(domain.RoleUser)
	stranger.ID = "someone-else"
	_, err = svc.Get(context.Background(), stranger, ticket.ID)

	var derr *apperrors.DomainError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, "FORBIDDEN", derr.Code)

	admin := testUser(domain.RoleAdmin)
	got, err := svc.Get(context.Background(), admin, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, got.ID)
}

func TestTicketUpdateEmptyPatchReturnsCurrent(t *testing.T) {
	tickets := repotest.NewTicketRepo()
	svc := newTicketService(tickets, repotest.NewLogRepo())
	owner := testUser(domain.RoleUser)

	ticket, err := svc.Create(context.Background(), owner, validCreateInput())
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), owner, ticket.ID, domain.TicketPatch{})
	require.NoError(t, err)
	assert.Equal(t, ticket.Description, updated.Description)
	assert.Equal(t, ticket.UpdatedAt, updated.UpdatedAt)
}

func TestTicketUpdateCrossValidatesSubCategory(t *testing.T) {
	tickets := repotest.NewTicketRepo()
	svc := newTicketService(tickets, repotest.NewLogRepo())
	owner := testUser(domain.RoleUser)

	ticket, err := svc.Create(context.Background(), owner, validCreateInput())
	require.NoError(t, err)

	// Switching category without a matching sub-category must fail.
	category := domain.CategoryDigital
	_, err = svc.Update(context.Background(), owner, ticket.ID, domain.TicketPatch{Category: &category})

	var derr *apperrors.DomainError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, "VALIDATION_FAILED", derr.Code)

	// Switching both together succeeds.
	subCategory := "CRM"
	updated, err := svc.Update(context.Background(), owner, ticket.ID,
		domain.TicketPatch{Category: &category, SubCategory: &subCategory})
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryDigital, updated.Category)
	assert.Equal(t, "CRM", updated.SubCategory)
}

func TestTicketDeleteMissing(t *testing.T) {
	svc := newTicketService(repotest.NewTicketRepo(), repotest.NewLogRepo())

	err := svc.Delete(context.Background(), testUser(domain.RoleAdmin), "IN00000000")

	var derr *apperrors.DomainError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, "NOT_FOUND", derr.Code)
}

func TestTicketAttachmentRoundTrip(t *testing.T) {
	tickets := repotest.NewTicketRepo()
	svc := newTicketService(tickets, repotest.NewLogRepo())
	owner := testUser(domain.RoleUser)

	input := validCreateInput()
	input.Attachment = &domain.Attachment{
		FileName: "screenshot.png",
		MimeType: "image/png",
		Data:     []byte{0x89, 0x50, 0x4e, 0x47},
	}
	ticket, err := svc.Create(context.Background(), owner, input)
	require.NoError(t, err)

	att, err := svc.Attachment(context.Background(), owner, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "screenshot.png", att.FileName)
	assert.Equal(t, "image/png", att.MimeType)
	assert.Equal(t, input.Attachment.Data, att.Data)
}

func TestTicketAttachmentMissing(t *testing.T) {
	tickets := repotest.NewTicketRepo()
	svc := newTicketService(tickets, repotest.NewLogRepo())
	owner := testUser(domain.RoleUser)

	ticket, err := svc.Create(context.Background(), owner, validCreateInput())
	require.NoError(t, err)

	_, err = svc.Attachment(context.Background(), owner, ticket.ID)

	var derr *apperrors.DomainError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, "NOT_FOUND", derr.Code)
}
