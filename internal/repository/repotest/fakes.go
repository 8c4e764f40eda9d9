// Package repotest provides in-memory repository fakes shared by
// service and handler tests.
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/opsdesk/helpdesk/internal/domain"
	"github.com/opsdesk/helpdesk/internal/repository"
)

// TxRunner satisfies repository.TxRunner without a database. fn
// receives a nil pgx.Tx; the fakes' WithTx returns the receiver, so
// transactional code paths run against the same in-memory state.
type TxRunner struct {
	// Err, when set, is returned instead of running fn.
	Err error
}

func (r *TxRunner) InTx(ctx context.Context, fn func(pgx.Tx) error) error {
	if r.Err != nil {
		return r.Err
	}
	return fn(nil)
}

// TicketRepo is an in-memory repository.TicketRepository.
type TicketRepo struct {
	mu          sync.Mutex
	tickets     map[string]*domain.Ticket
	attachments map[string][]byte

	// CreateErr and UpdateErr force failures for specific tests.
	CreateErr error
	UpdateErr error
	// SuffixCollisions pre-seeds uniqueness probe answers by suffix.
	SuffixCollisions map[string]int
	// AlwaysCollide makes every uniqueness probe report a match.
	AlwaysCollide bool
}

// NewTicketRepo returns an empty fake.
func NewTicketRepo() *TicketRepo {
	return &TicketRepo{
		tickets:     map[string]*domain.Ticket{},
		attachments: map[string][]byte{},
	}
}

func (r *TicketRepo) Create(ctx context.Context, ticket *domain.Ticket, attachment []byte) error {
	if r.CreateErr != nil {
		return r.CreateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tickets[ticket.ID]; exists {
		return &pgconn.PgError{Code: "23505", ConstraintName: "tickets_pkey"}
	}
	now := time.Now()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	clone := *ticket
	r.tickets[ticket.ID] = &clone
	if attachment != nil {
		r.attachments[ticket.ID] = attachment
	}
	return nil
}

func (r *TicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *ticket
	return &clone, nil
}

func (r *TicketRepo) ListByOwner(ctx context.Context, userID string) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if ticket.UserID == userID {
			result = append(result, *ticket)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *TicketRepo) ListAllWithOwner(ctx context.Context) ([]domain.TicketWithOwner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.TicketWithOwner
	for _, ticket := range r.tickets {
		result = append(result, domain.TicketWithOwner{Ticket: *ticket})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Ticket.CreatedAt.After(result[j].Ticket.CreatedAt)
	})
	return result, nil
}

func (r *TicketRepo) Update(ctx context.Context, id string, patch domain.TicketPatch) (*domain.Ticket, error) {
	if r.UpdateErr != nil {
		return nil, r.UpdateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if patch.Status != nil {
		ticket.Status = *patch.Status
	}
	if patch.Priority != nil {
		ticket.Priority = *patch.Priority
	}
	if patch.Category != nil {
		ticket.Category = *patch.Category
	}
	if patch.SubCategory != nil {
		ticket.SubCategory = *patch.SubCategory
	}
	if patch.Description != nil {
		ticket.Description = *patch.Description
	}
	if patch.StartDate != nil {
		ticket.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		ticket.EndDate = *patch.EndDate
	}
	if patch.ServiceType != nil {
		ticket.ServiceType = *patch.ServiceType
	}
	if patch.AttachmentName != nil {
		ticket.AttachmentName = patch.AttachmentName
	}
	if patch.AttachmentMime != nil {
		ticket.AttachmentMime = patch.AttachmentMime
	}
	if patch.AttachmentData != nil {
		r.attachments[id] = patch.AttachmentData
	}
	ticket.UpdatedAt = time.Now()
	clone := *ticket
	return &clone, nil
}

func (r *TicketRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tickets, id)
	delete(r.attachments, id)
	return nil
}

func (r *TicketRepo) CountSuffixMatches(ctx context.Context, suffix string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.AlwaysCollide {
		return 1, nil
	}
	if n, ok := r.SuffixCollisions[suffix]; ok {
		return n, nil
	}
	count := 0
	for id := range r.tickets {
		if strings.HasSuffix(id, suffix) {
			count++
		}
	}
	return count, nil
}

func (r *TicketRepo) GetAttachment(ctx context.Context, id string) (*domain.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	data := r.attachments[id]
	if ticket.AttachmentName == nil || len(data) == 0 {
		return nil, pgx.ErrNoRows
	}
	att := &domain.Attachment{FileName: *ticket.AttachmentName, Data: data}
	if ticket.AttachmentMime != nil {
		att.MimeType = *ticket.AttachmentMime
	}
	return att, nil
}

func (r *TicketRepo) WithTx(tx pgx.Tx) repository.TicketRepository { return r }

// Len reports the number of stored tickets.
func (r *TicketRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tickets)
}

// NoteRepo is an in-memory repository.NoteRepository.
type NoteRepo struct {
	mu    sync.Mutex
	notes []domain.Note

	CreateErr error
}

// NewNoteRepo returns an empty fake.
func NewNoteRepo() *NoteRepo {
	return &NoteRepo{}
}

func (r *NoteRepo) Create(ctx context.Context, note *domain.Note) error {
	if r.CreateErr != nil {
		return r.CreateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	note.ID = uuid.NewString()
	note.CreatedAt = time.Now()
	r.notes = append(r.notes, *note)
	return nil
}

func (r *NoteRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Note
	for _, note := range r.notes {
		if note.TicketID == ticketID {
			result = append(result, note)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *NoteRepo) WithTx(tx pgx.Tx) repository.NoteRepository { return r }

// UserRepo is an in-memory repository.UserRepository enforcing unique
// email and employee code the way the schema does.
type UserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

// NewUserRepo returns an empty fake.
func NewUserRepo() *UserRepo {
	return &UserRepo{users: map[string]*domain.User{}}
}

// Seed inserts a user directly, minting an ID when absent.
func (r *UserRepo) Seed(user domain.User) domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = &user
	return user
}

func (r *UserRepo) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
		}
		if existing.EmployeeCode == user.EmployeeCode {
			return &pgconn.PgError{Code: "23505", ConstraintName: "users_employee_code_key"}
		}
	}
	user.ID = uuid.NewString()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *UserRepo) Update(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[user.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	user.CreatedAt = stored.CreatedAt
	user.UpdatedAt = time.Now()
	if user.PasswordHash == "" {
		user.PasswordHash = stored.PasswordHash
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.User
	for _, user := range r.users {
		result = append(result, *user)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *UserRepo) CountAll(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users), nil
}

// LogRepo records audit entries in memory.
type LogRepo struct {
	mu      sync.Mutex
	Entries []domain.LogEntry
}

// NewLogRepo returns an empty fake.
func NewLogRepo() *LogRepo {
	return &LogRepo{}
}

func (r *LogRepo) Create(ctx context.Context, entry *domain.LogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now()
	r.Entries = append(r.Entries, *entry)
	return nil
}

// Actions returns the recorded action names in order.
func (r *LogRepo) Actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	actions := make([]string, 0, len(r.Entries))
	for _, entry := range r.Entries {
		actions = append(actions, entry.Action)
	}
	return actions
}

// AnalyticsRepo aggregates a seeded ticket set the way the SQL GROUP BY
// queries do, so tests can assert count properties against real data.
type AnalyticsRepo struct {
	mu      sync.Mutex
	tickets []domain.Ticket

	// LastSince captures the window start passed to TicketsCreatedPerDay.
	LastSince time.Time
}

// NewAnalyticsRepo returns an empty fake.
func NewAnalyticsRepo() *AnalyticsRepo {
	return &AnalyticsRepo{}
}

// SeedTicket adds a ticket to the aggregated set.
func (r *AnalyticsRepo) SeedTicket(ticket domain.Ticket) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now()
	}
	r.tickets = append(r.tickets, ticket)
}

// Total reports the number of seeded tickets.
func (r *AnalyticsRepo) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tickets)
}

func (r *AnalyticsRepo) TicketsByStatus(ctx context.Context) ([]domain.NameCount, error) {
	return r.groupBy(func(t domain.Ticket) string { return string(t.Status) }, nil), nil
}

func (r *AnalyticsRepo) TicketsByCategory(ctx context.Context) ([]domain.NameCount, error) {
	return r.groupBy(func(t domain.Ticket) string { return string(t.Category) }, nil), nil
}

func (r *AnalyticsRepo) TicketsByPriority(ctx context.Context) ([]domain.NameCount, error) {
	return r.groupBy(func(t domain.Ticket) string { return string(t.Priority) }, nil), nil
}

func (r *AnalyticsRepo) TicketsByServiceType(ctx context.Context) ([]domain.NameCount, error) {
	return r.groupBy(func(t domain.Ticket) string { return string(t.ServiceType) }, nil), nil
}

func (r *AnalyticsRepo) TicketsBySubCategory(ctx context.Context, category domain.TicketCategory) ([]domain.NameCount, error) {
	return r.groupBy(
		func(t domain.Ticket) string { return t.SubCategory },
		func(t domain.Ticket) bool { return t.Category == category },
	), nil
}

func (r *AnalyticsRepo) TicketsCreatedPerDay(ctx context.Context, since time.Time) ([]domain.DateCount, error) {
	r.mu.Lock()
	r.LastSince = since
	counts := map[string]int{}
	for _, t := range r.tickets {
		if t.CreatedAt.Before(since) {
			continue
		}
		counts[t.CreatedAt.Format("2006-01-02")]++
	}
	r.mu.Unlock()

	days := make([]string, 0, len(counts))
	for day := range counts {
		days = append(days, day)
	}
	sort.Strings(days)

	var result []domain.DateCount
	for _, day := range days {
		result = append(result, domain.DateCount{Date: day, Count: counts[day]})
	}
	return result, nil
}

func (r *AnalyticsRepo) groupBy(key func(domain.Ticket) string, filter func(domain.Ticket) bool) []domain.NameCount {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := map[string]int{}
	for _, t := range r.tickets {
		if filter != nil && !filter(t) {
			continue
		}
		counts[key(t)]++
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	var result []domain.NameCount
	for _, name := range names {
		result = append(result, domain.NameCount{Name: name, Count: counts[name]})
	}
	return result
}
