package domain

import "time"

// LogEntry is a write-only audit trail record. There is no update or
// delete path for logs.
type LogEntry struct {
	ID        string
	UserID    string
	Action    string
	CreatedAt time.Time
}
