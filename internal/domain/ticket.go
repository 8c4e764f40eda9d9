package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew      TicketStatus = "new"
	TicketStatusOpen     TicketStatus = "open"
	TicketStatusReopened TicketStatus = "reopened"
	TicketStatusClosed   TicketStatus = "closed"
	TicketStatusResolved TicketStatus = "resolved"
)

// Reopenable reports whether a ticket in this status may be reopened.
// Reopening from new, open or reopened would duplicate the audit note.
func (s TicketStatus) Reopenable() bool {
	return s == TicketStatusClosed || s == TicketStatusResolved
}

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityHigh   TicketPriority = "High"
	TicketPriorityMedium TicketPriority = "Medium"
	TicketPriorityLow    TicketPriority = "Low"
)

// TicketCategory is the top-level classification of a ticket.
type TicketCategory string

const (
	CategorySAP     TicketCategory = "SAP"
	CategoryDigital TicketCategory = "Digital"
)

// ServiceType classifies a ticket as a service request or an incident.
// It determines the prefix of the ticket identifier.
type ServiceType string

const (
	ServiceTypeService  ServiceType = "Service"
	ServiceTypeIncident ServiceType = "Incident"
)

// subCategories is the fixed second-level vocabulary keyed by category.
var subCategories = map[TicketCategory][]string{
	CategorySAP:     {"MM", "SD", "PP", "QM", "FICO", "HCM", "ABAP", "BASIS"},
	CategoryDigital: {"Website", "Mobile App", "E-Commerce", "CRM", "Analytics", "Infrastructure"},
}

// ValidSubCategory reports whether sub belongs to the allowed set for cat.
func ValidSubCategory(cat TicketCategory, sub string) bool {
	for _, candidate := range subCategories[cat] {
		if candidate == sub {
			return true
		}
	}
	return false
}

// SubCategoriesFor returns the allowed sub-categories for a category.
func SubCategoriesFor(cat TicketCategory) []string {
	return subCategories[cat]
}

// Attachment holds a single inline file stored with a ticket.
type Attachment struct {
	FileName string
	MimeType string
	Data     []byte
}

// Ticket is the aggregate for support requests. ID is the human-readable
// identifier (SR/IN/GEN prefix plus eight digits) and serves as the
// primary key; the storage uniqueness constraint arbitrates concurrent
// identifier generation.
type Ticket struct {
	ID             string
	UserID         string
	Description    string
	Priority       TicketPriority
	Category       TicketCategory
	SubCategory    string
	ServiceType    ServiceType
	Status         TicketStatus
	StartDate      time.Time
	EndDate        time.Time
	AttachmentName *string
	AttachmentMime *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasAttachment reports whether an inline file is stored for the ticket.
func (t *Ticket) HasAttachment() bool {
	return t.AttachmentName != nil && *t.AttachmentName != ""
}

// TicketOwner carries the minimal owner identity joined for admin listings.
type TicketOwner struct {
	Name         string
	Email        string
	EmployeeCode string
}

// TicketWithOwner pairs a ticket with its owner's identity fields.
type TicketWithOwner struct {
	Ticket
	Owner TicketOwner
}

// TicketPatch is the typed set of updatable ticket fields. A nil field is
// left untouched; an all-nil patch is an idempotent no-op.
type TicketPatch struct {
	Status         *TicketStatus
	Priority       *TicketPriority
	Category       *TicketCategory
	SubCategory    *string
	Description    *string
	StartDate      *time.Time
	EndDate        *time.Time
	ServiceType    *ServiceType
	AttachmentName *string
	AttachmentMime *string
	AttachmentData []byte
}

// IsEmpty reports whether the patch changes nothing.
func (p TicketPatch) IsEmpty() bool {
	return p.Status == nil &&
		p.Priority == nil &&
		p.Category == nil &&
		p.SubCategory == nil &&
		p.Description == nil &&
		p.StartDate == nil &&
		p.EndDate == nil &&
		p.ServiceType == nil &&
		p.AttachmentName == nil &&
		p.AttachmentMime == nil &&
		p.AttachmentData == nil
}
