package events

import (
	"time"

	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketDeleted       EventType = "ticket_deleted"
)

// TicketEventTypes lists every ticket event, for subscribers that react to any change.
var TicketEventTypes = []EventType{
	EventTicketCreated,
	EventTicketStatusChanged,
	EventTicketAssigned,
	EventTicketDeleted,
}

// Actor identifies who triggered an event. UserID is nil for anonymous submissions.
type Actor struct {
	UserID *string         `json:"user_id,omitempty"`
	Name   string          `json:"name,omitempty"`
	Role   domain.UserRole `json:"role,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Number          string `json:"number"`
	RequesterName   string `json:"requester_name"`
	RequesterEmail  string `json:"requester_email"`
	Department      string `json:"department"`
	ProblemType     string `json:"problem_type"`
	AttachmentCount int    `json:"attachment_count"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	Number         string              `json:"number"`
	RequesterEmail string              `json:"requester_email"`
	OldStatus      domain.TicketStatus `json:"old_status"`
	NewStatus      domain.TicketStatus `json:"new_status"`
}

// TicketAssignedPayload payload. Nil technicians mean unassigned.
type TicketAssignedPayload struct {
	Number        string  `json:"number"`
	OldTechnician *string `json:"old_technician,omitempty"`
	NewTechnician *string `json:"new_technician,omitempty"`
}

// TicketDeletedPayload payload.
type TicketDeletedPayload struct {
	Number string `json:"number"`
}
