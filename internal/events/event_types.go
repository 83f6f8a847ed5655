package events

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAccountCreated     EventType = "account_created"
	EventAccountDeactivated EventType = "account_deactivated"
	EventTicketCreated      EventType = "ticket_created"
	EventTicketClosed       EventType = "ticket_closed"
	EventTicketReopened     EventType = "ticket_reopened"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// AccountCreatedPayload payload.
type AccountCreatedPayload struct {
	AccountID string      `json:"account_id"`
	Role      domain.Role `json:"role"`
	CreatedBy string      `json:"created_by"`
}

// AccountDeactivatedPayload payload.
type AccountDeactivatedPayload struct {
	AccountID string      `json:"account_id"`
	Role      domain.Role `json:"role"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketID  string `json:"ticket_id"`
	CreatedBy string `json:"created_by"`
}

// TicketStatusPayload payload for close and reopen events.
type TicketStatusPayload struct {
	TicketID  string              `json:"ticket_id"`
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}
