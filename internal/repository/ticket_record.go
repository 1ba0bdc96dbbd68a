package repository

import (
	"strings"
	"time"

	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/domain"
)

// attachmentRecord is the stored shape of an attachment.
type attachmentRecord struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type"`
	Size int64  `json:"size"`
	Path string `json:"path,omitempty"`
}

// ticketRecord is the explicit store-boundary schema. Every optional field
// has a defined default applied by toDomain.
type ticketRecord struct {
	ID             string
	Number         string
	Sequence       int64
	RequesterName  string
	RequesterEmail string
	Department     string
	ProblemType    string
	Description    string
	Status         string
	Technician     *string
	Attachments    []attachmentRecord
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Version        int64
}

func newTicketRecord(t *domain.Ticket) ticketRecord {
	return ticketRecord{
		ID:             t.ID,
		Number:         t.Number,
		Sequence:       t.Sequence,
		RequesterName:  t.RequesterName,
		RequesterEmail: t.RequesterEmail,
		Department:     t.Department,
		ProblemType:    t.ProblemType,
		Description:    t.Description,
		Status:         string(t.Status),
		Technician:     domain.NormalizeTechnician(t.AssignedTechnician),
		Attachments:    toAttachmentRecords(t.Attachments),
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
		Version:        t.Version,
	}
}

func (r ticketRecord) toDomain() domain.Ticket {
	attachments := make([]domain.Attachment, 0, len(r.Attachments))
	for _, a := range r.Attachments {
		attachments = append(attachments, domain.Attachment{
			Name: a.Name,
			URL:  a.URL,
			Type: a.Type,
			Size: a.Size,
			Path: a.Path,
		})
	}
	updated := r.UpdatedAt
	if updated.IsZero() {
		updated = r.CreatedAt
	}
	return domain.Ticket{
		ID:                 r.ID,
		Number:             strings.TrimSpace(r.Number),
		Sequence:           r.Sequence,
		RequesterName:      r.RequesterName,
		RequesterEmail:     r.RequesterEmail,
		Department:         r.Department,
		ProblemType:        r.ProblemType,
		Description:        r.Description,
		Status:             domain.NormalizeTicketStatus(r.Status),
		AssignedTechnician: domain.NormalizeTechnician(r.Technician),
		Attachments:        attachments,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          updated,
		Version:            r.Version,
	}
}

// toAttachmentRecords never returns nil so an empty list is stored as [] rather than null.
func toAttachmentRecords(in []domain.Attachment) []attachmentRecord {
	out := make([]attachmentRecord, 0, len(in))
	for _, a := range in {
		out = append(out, attachmentRecord{
			Name: a.Name,
			URL:  a.URL,
			Type: a.Type,
			Size: a.Size,
			Path: a.Path,
		})
	}
	return out
}
