package domain

import "time"

// TicketStatus enumerates ticket lifecycle states.
type TicketStatus string

const (
	TicketStatusPending TicketStatus = "PENDING"
	TicketStatusSolved  TicketStatus = "SOLVED"
)

// Valid reports whether the status is a known state.
func (s TicketStatus) Valid() bool {
	return s == TicketStatusPending || s == TicketStatusSolved
}

// DeviceInfo carries optional metadata about the machine a ticket
// was raised for.
type DeviceInfo struct {
	IPAddress   string
	DeviceName  string
	AlternateIP string
}

// Ticket is the aggregate for support requests. Its access scope is
// wholly determined by the creator's owner chain, never by fields on
// the ticket itself.
type Ticket struct {
	ID          string
	Description string
	Status      TicketStatus
	Notes       string
	Device      DeviceInfo
	CreatedBy   string
	Attachments []Attachment
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Attachment is owned exclusively by its ticket and is never mutated
// independently.
type Attachment struct {
	ID        string
	TicketID  string
	Name      string
	URL       string
	FileType  *string
	CreatedAt time.Time
}
