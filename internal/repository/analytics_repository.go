package repository

import (
	"context"
	"time"

	"github.com/opsdesk/helpdesk/internal/domain"
)

// AnalyticsRepository issues the read-only aggregation queries behind the
// admin dashboard. Every method is a single GROUP BY against live data.
type AnalyticsRepository interface {
	TicketsByStatus(ctx context.Context) ([]domain.NameCount, error)
	TicketsByCategory(ctx context.Context) ([]domain.NameCount, error)
	TicketsByPriority(ctx context.Context) ([]domain.NameCount, error)
	TicketsByServiceType(ctx context.Context) ([]domain.NameCount, error)
	TicketsBySubCategory(ctx context.Context, category domain.TicketCategory) ([]domain.NameCount, error)
	TicketsCreatedPerDay(ctx context.Context, since time.Time) ([]domain.DateCount, error)
}

type analyticsRepository struct {
	db Querier
}

// NewAnalyticsRepository constructs repository.
func NewAnalyticsRepository(db Querier) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) TicketsByStatus(ctx context.Context) ([]domain.NameCount, error) {
	const query = `
        SELECT status, COUNT(*) FROM tickets
        GROUP BY status ORDER BY COUNT(*) DESC`
	return r.groupCount(ctx, query)
}

func (r *analyticsRepository) TicketsByCategory(ctx context.Context) ([]domain.NameCount, error) {
	const query = `
        SELECT category, COUNT(*) FROM tickets
        GROUP BY category ORDER BY COUNT(*) DESC`
	return r.groupCount(ctx, query)
}

func (r *analyticsRepository) TicketsByPriority(ctx context.Context) ([]domain.NameCount, error) {
	const query = `
        SELECT priority, COUNT(*) FROM tickets
        GROUP BY priority ORDER BY COUNT(*) DESC`
	return r.groupCount(ctx, query)
}

func (r *analyticsRepository) TicketsByServiceType(ctx context.Context) ([]domain.NameCount, error) {
	const query = `
        SELECT service_type, COUNT(*) FROM tickets
        GROUP BY service_type ORDER BY COUNT(*) DESC`
	return r.groupCount(ctx, query)
}

func (r *analyticsRepository) TicketsBySubCategory(ctx context.Context, category domain.TicketCategory) ([]domain.NameCount, error) {
	const query = `
        SELECT sub_category, COUNT(*) FROM tickets
        WHERE category=$1
        GROUP BY sub_category ORDER BY COUNT(*) DESC`
	return r.groupCount(ctx, query, category)
}

func (r *analyticsRepository) TicketsCreatedPerDay(ctx context.Context, since time.Time) ([]domain.DateCount, error) {
	const query = `
        SELECT TO_CHAR(created_at, 'YYYY-MM-DD') AS day, COUNT(*)
        FROM tickets WHERE created_at >= $1
        GROUP BY day ORDER BY day`
	rows, err := r.db.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.DateCount
	for rows.Next() {
		var item domain.DateCount
		if err := rows.Scan(&item.Date, &item.Count); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

func (r *analyticsRepository) groupCount(ctx context.Context, query string, args ...any) ([]domain.NameCount, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.NameCount
	for rows.Next() {
		var item domain.NameCount
		if err := rows.Scan(&item.Name, &item.Count); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}
