package domain

import (
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets. Any status may follow any other.
type TicketStatus string

const (
	TicketStatusPending    TicketStatus = "pending"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
)

// TicketStatuses lists every status in display order.
var TicketStatuses = []TicketStatus{TicketStatusPending, TicketStatusInProgress, TicketStatusResolved}

var statusAliases = map[string]TicketStatus{
	"pending":     TicketStatusPending,
	"pendiente":   TicketStatusPending,
	"in_progress": TicketStatusInProgress,
	"en_proceso":  TicketStatusInProgress,
	"resolved":    TicketStatusResolved,
	"atendido":    TicketStatusResolved,
}

// ParseTicketStatus accepts canonical and legacy (pendiente, en_proceso, atendido) values.
func ParseTicketStatus(raw string) (TicketStatus, bool) {
	status, ok := statusAliases[strings.ToLower(strings.TrimSpace(raw))]
	return status, ok
}

// NormalizeTicketStatus is the store boundary default: unknown or missing values read as pending.
func NormalizeTicketStatus(raw string) TicketStatus {
	if status, ok := ParseTicketStatus(raw); ok {
		return status
	}
	return TicketStatusPending
}

// MaxAttachments is the most files a ticket can carry. The tickets table enforces it too.
const MaxAttachments = 5

// Attachment references an uploaded file.
type Attachment struct {
	Name string
	URL  string
	Type string
	Size int64
	Path string
}

// Ticket is the single support request record.
type Ticket struct {
	ID                 string
	Number             string
	Sequence           int64
	RequesterName      string
	RequesterEmail     string
	Department         string
	ProblemType        string
	Description        string
	Status             TicketStatus
	AssignedTechnician *string
	Attachments        []Attachment
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Version            int64
}

// NormalizeTechnician maps blank names to unassigned.
func NormalizeTechnician(name *string) *string {
	if name == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*name)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
