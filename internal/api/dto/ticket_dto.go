package dto

import (
	"time"

	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/domain"
)

// TicketResponse is a ticket as shown by both observation views.
type TicketResponse struct {
	ID                 string               `json:"id"`
	Number             string               `json:"number"`
	RequesterName      string               `json:"requester_name"`
	RequesterEmail     string               `json:"requester_email"`
	Department         string               `json:"department"`
	ProblemType        string               `json:"problem_type"`
	Description        string               `json:"description"`
	Status             domain.TicketStatus  `json:"status"`
	AssignedTechnician *string              `json:"assigned_technician"`
	Attachments        []AttachmentResponse `json:"attachments"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
	Version            int64                `json:"version"`
}

// SupportTicketResponse adds the 1-based display ordinal of the management view.
// The ordinal changes when tickets are added or removed; Number identifies the ticket.
type SupportTicketResponse struct {
	TicketResponse
	Position int `json:"position"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

// UpdateStatusRequest payload. ExpectedVersion enables the stale-write check.
type UpdateStatusRequest struct {
	Status          string `json:"status"`
	ExpectedVersion *int64 `json:"expected_version,omitempty"`
}

// AssignTechnicianRequest payload. A null or blank technician unassigns the ticket.
type AssignTechnicianRequest struct {
	Technician      *string `json:"technician"`
	ExpectedVersion *int64  `json:"expected_version,omitempty"`
}

// SnapshotResponse is one live-stream event body.
type SnapshotResponse struct {
	View      string    `json:"view"`
	Revision  uint64    `json:"revision"`
	UpdatedAt time.Time `json:"updated_at"`
	Count     int       `json:"count"`
	Tickets   any       `json:"tickets"`
}

// TicketHistoryResponse is one audit entry.
type TicketHistoryResponse struct {
	ID            string                  `json:"id"`
	ChangeType    domain.TicketChangeType `json:"change_type"`
	ChangedByID   *string                 `json:"changed_by_id"`
	ChangedByName string                  `json:"changed_by_name,omitempty"`
	OldValue      map[string]any          `json:"old_value"`
	NewValue      map[string]any          `json:"new_value"`
	CreatedAt     time.Time               `json:"created_at"`
}

// CatalogResponse lists the selectable values.
type CatalogResponse struct {
	ProblemTypes []string              `json:"problem_types"`
	Statuses     []domain.TicketStatus `json:"statuses"`
	Technicians  []string              `json:"technicians"`
	Departments  []string              `json:"departments"`
}
