package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/opsdesk/helpdesk/internal/domain"
)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket, attachment []byte) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListByOwner(ctx context.Context, userID string) ([]domain.Ticket, error)
	ListAllWithOwner(ctx context.Context) ([]domain.TicketWithOwner, error)
	Update(ctx context.Context, id string, patch domain.TicketPatch) (*domain.Ticket, error)
	Delete(ctx context.Context, id string) error
	CountSuffixMatches(ctx context.Context, suffix string) (int, error)
	GetAttachment(ctx context.Context, id string) (*domain.Attachment, error)
	WithTx(tx pgx.Tx) TicketRepository
}

type ticketRepository struct {
	db Querier
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db Querier) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) WithTx(tx pgx.Tx) TicketRepository {
	return &ticketRepository{db: tx}
}

const ticketColumns = `id, user_id, description, priority, category, sub_category,
               service_type, status, start_date, end_date, attachment_name, attachment_mime,
               created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket, attachment []byte) error {
	const query = `
        INSERT INTO tickets (id, user_id, description, priority, category, sub_category, service_type, status, start_date, end_date, attachment_name, attachment_mime, attachment_data)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        RETURNING created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		ticket.ID,
		ticket.UserID,
		ticket.Description,
		ticket.Priority,
		ticket.Category,
		ticket.SubCategory,
		ticket.ServiceType,
		ticket.Status,
		ticket.StartDate,
		ticket.EndDate,
		ticket.AttachmentName,
		ticket.AttachmentMime,
		attachment,
	).Scan(&ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := scanTicket(r.db.QueryRow(ctx, query, id), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListByOwner(ctx context.Context, userID string) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE user_id=$1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) ListAllWithOwner(ctx context.Context) ([]domain.TicketWithOwner, error) {
	const query = `
        SELECT t.id, t.user_id, t.description, t.priority, t.category, t.sub_category,
               t.service_type, t.status, t.start_date, t.end_date, t.attachment_name, t.attachment_mime,
               t.created_at, t.updated_at, u.name, u.email, u.employee_code
        FROM tickets t
        JOIN users u ON u.id = t.user_id
        ORDER BY t.created_at DESC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketWithOwner
	for rows.Next() {
		var item domain.TicketWithOwner
		if err := rows.Scan(
			&item.Ticket.ID,
			&item.Ticket.UserID,
			&item.Ticket.Description,
			&item.Ticket.Priority,
			&item.Ticket.Category,
			&item.Ticket.SubCategory,
			&item.Ticket.ServiceType,
			&item.Ticket.Status,
			&item.Ticket.StartDate,
			&item.Ticket.EndDate,
			&item.Ticket.AttachmentName,
			&item.Ticket.AttachmentMime,
			&item.Ticket.CreatedAt,
			&item.Ticket.UpdatedAt,
			&item.Owner.Name,
			&item.Owner.Email,
			&item.Owner.EmployeeCode,
		); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

// Update applies the non-nil fields of patch and stamps updated_at. The
// caller is responsible for rejecting empty patches.
func (r *ticketRepository) Update(ctx context.Context, id string, patch domain.TicketPatch) (*domain.Ticket, error) {
	sets := []string{}
	args := []any{}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}

	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.Priority != nil {
		add("priority", *patch.Priority)
	}
	if patch.Category != nil {
		add("category", *patch.Category)
	}
	if patch.SubCategory != nil {
		add("sub_category", *patch.SubCategory)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.StartDate != nil {
		add("start_date", *patch.StartDate)
	}
	if patch.EndDate != nil {
		add("end_date", *patch.EndDate)
	}
	if patch.ServiceType != nil {
		add("service_type", *patch.ServiceType)
	}
	if patch.AttachmentName != nil {
		add("attachment_name", *patch.AttachmentName)
	}
	if patch.AttachmentMime != nil {
		add("attachment_mime", *patch.AttachmentMime)
	}
	if patch.AttachmentData != nil {
		add("attachment_data", patch.AttachmentData)
	}
	sets = append(sets, "updated_at=NOW()")

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE tickets SET %s WHERE id=$%d RETURNING `+ticketColumns,
		strings.Join(sets, ", "), len(args))

	var ticket domain.Ticket
	if err := scanTicket(r.db.QueryRow(ctx, query, args...), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// CountSuffixMatches is the uniqueness probe for identifier generation:
// it counts existing identifiers ending in the given numeric suffix.
func (r *ticketRepository) CountSuffixMatches(ctx context.Context, suffix string) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM tickets WHERE id LIKE '%' || $1`, suffix,
	).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ticketRepository) GetAttachment(ctx context.Context, id string) (*domain.Attachment, error) {
	const query = `
        SELECT attachment_name, attachment_mime, attachment_data
        FROM tickets WHERE id=$1`
	var (
		name *string
		mime *string
		data []byte
	)
	if err := r.db.QueryRow(ctx, query, id).Scan(&name, &mime, &data); err != nil {
		return nil, err
	}
	if name == nil || len(data) == 0 {
		return nil, pgx.ErrNoRows
	}
	att := &domain.Attachment{FileName: *name, Data: data}
	if mime != nil {
		att.MimeType = *mime
	}
	return att, nil
}

// scanTicket reads the ticketColumns projection into ticket. row may be a
// pgx.Row or a pgx.Rows positioned on a record.
func scanTicket(row pgx.Row, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.UserID,
		&ticket.Description,
		&ticket.Priority,
		&ticket.Category,
		&ticket.SubCategory,
		&ticket.ServiceType,
		&ticket.Status,
		&ticket.StartDate,
		&ticket.EndDate,
		&ticket.AttachmentName,
		&ticket.AttachmentMime,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
}
