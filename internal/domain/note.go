package domain

import "time"

// Note is a timestamped comment on a ticket thread. UserName is a
// snapshot of the author's name captured at write time, so renaming a
// user later does not rewrite history. Notes are append-only.
type Note struct {
	ID        string
	TicketID  string
	UserID    string
	UserName  string
	Text      string
	IsStaff   bool
	CreatedAt time.Time
}
