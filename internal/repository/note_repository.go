package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/opsdesk/helpdesk/internal/domain"
)

// NoteRepository manages the append-only note thread per ticket.
type NoteRepository interface {
	Create(ctx context.Context, note *domain.Note) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Note, error)
	WithTx(tx pgx.Tx) NoteRepository
}

type noteRepository struct {
	db Querier
}

// NewNoteRepository builds repository.
func NewNoteRepository(db Querier) NoteRepository {
	return &noteRepository{db: db}
}

func (r *noteRepository) WithTx(tx pgx.Tx) NoteRepository {
	return &noteRepository{db: tx}
}

func (r *noteRepository) Create(ctx context.Context, note *domain.Note) error {
	const query = `
        INSERT INTO notes (ticket_id, user_id, user_name, text, is_staff)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		note.TicketID,
		note.UserID,
		note.UserName,
		note.Text,
		note.IsStaff,
	).Scan(&note.ID, &note.CreatedAt)
}

func (r *noteRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Note, error) {
	const query = `
        SELECT id, ticket_id, user_id, user_name, text, is_staff, created_at
        FROM notes WHERE ticket_id=$1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Note
	for rows.Next() {
		var note domain.Note
		if err := rows.Scan(
			&note.ID,
			&note.TicketID,
			&note.UserID,
			&note.UserName,
			&note.Text,
			&note.IsStaff,
			&note.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, note)
	}
	return result, rows.Err()
}
