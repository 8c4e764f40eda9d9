package service

import (
	"context"
	"time"

	"github.com/opsdesk/helpdesk/internal/domain"
	"github.com/opsdesk/helpdesk/internal/repository"
	apperrors "github.com/opsdesk/helpdesk/pkg/util"
)

// AnalyticsService exposes read-only grouped counts for the admin
// dashboard. Every call re-aggregates against live data; nothing is
// cached.
type AnalyticsService struct {
	analytics repository.AnalyticsRepository
	users     repository.UserRepository
}

// NewAnalyticsService constructs the service.
func NewAnalyticsService(analytics repository.AnalyticsRepository, users repository.UserRepository) *AnalyticsService {
	return &AnalyticsService{analytics: analytics, users: users}
}

// TicketsByStatus returns ticket counts grouped by status.
func (s *AnalyticsService) TicketsByStatus(ctx context.Context) ([]domain.NameCount, error) {
	return s.named(s.analytics.TicketsByStatus(ctx))
}

// TicketsByCategory returns ticket counts grouped by category.
func (s *AnalyticsService) TicketsByCategory(ctx context.Context) ([]domain.NameCount, error) {
	return s.named(s.analytics.TicketsByCategory(ctx))
}

// TicketsByPriority returns ticket counts grouped by priority.
func (s *AnalyticsService) TicketsByPriority(ctx context.Context) ([]domain.NameCount, error) {
	return s.named(s.analytics.TicketsByPriority(ctx))
}

// TicketsByServiceType returns ticket counts grouped by service type.
func (s *AnalyticsService) TicketsByServiceType(ctx context.Context) ([]domain.NameCount, error) {
	return s.named(s.analytics.TicketsByServiceType(ctx))
}

// TicketsBySubCategory returns sub-category counts within one category.
// An unknown category simply aggregates to an empty result.
func (s *AnalyticsService) TicketsBySubCategory(ctx context.Context, category domain.TicketCategory) ([]domain.NameCount, error) {
	return s.named(s.analytics.TicketsBySubCategory(ctx, category))
}

// TicketsOverTime returns per-day creation counts over a trailing
// window. Unrecognized timeframes fall back to 30 days.
func (s *AnalyticsService) TicketsOverTime(ctx context.Context, timeframe string) ([]domain.DateCount, error) {
	counts, err := s.analytics.TicketsCreatedPerDay(ctx, windowStart(timeframe, time.Now()))
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if counts == nil {
		counts = []domain.DateCount{}
	}
	return counts, nil
}

// TotalUsers returns the account row count.
func (s *AnalyticsService) TotalUsers(ctx context.Context) (int, error) {
	count, err := s.users.CountAll(ctx)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return count, nil
}

func (s *AnalyticsService) named(counts []domain.NameCount, err error) ([]domain.NameCount, error) {
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if counts == nil {
		counts = []domain.NameCount{}
	}
	return counts, nil
}

// windowStart maps a timeframe label to the start of its trailing window.
func windowStart(timeframe string, now time.Time) time.Time {
	days := 30
	switch timeframe {
	case "7days":
		days = 7
	case "30days", "":
		days = 30
	case "90days":
		days = 90
	case "year":
		days = 365
	}
	return now.AddDate(0, 0, -days)
}
