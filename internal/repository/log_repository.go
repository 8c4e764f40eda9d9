package repository

import (
	"context"

	"github.com/opsdesk/helpdesk/internal/domain"
)

// LogRepository records audit trail entries. The trail is write-only.
type LogRepository interface {
	Create(ctx context.Context, entry *domain.LogEntry) error
}

type logRepository struct {
	db Querier
}

// NewLogRepository constructs repository.
func NewLogRepository(db Querier) LogRepository {
	return &logRepository{db: db}
}

func (r *logRepository) Create(ctx context.Context, entry *domain.LogEntry) error {
	const query = `
        INSERT INTO logs (user_id, action)
        VALUES ($1,$2)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		entry.UserID,
		entry.Action,
	).Scan(&entry.ID, &entry.CreatedAt)
}
