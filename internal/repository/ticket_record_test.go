package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/domain"
)

func TestTicketRecordDefaults(t *testing.T) {
	created := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	blank := ""
	rec := ticketRecord{
		ID:         "legacy-doc",
		Status:     "",
		Technician: &blank,
		CreatedAt:  created,
	}

	ticket := rec.toDomain()

	assert.Equal(t, domain.TicketStatusPending, ticket.Status)
	assert.Nil(t, ticket.AssignedTechnician)
	require.NotNil(t, ticket.Attachments)
	assert.Empty(t, ticket.Attachments)
	assert.Empty(t, ticket.Number)
	assert.Equal(t, created, ticket.UpdatedAt)
}

func TestTicketRecordLegacyStatus(t *testing.T) {
	tech := "Jan González"
	rec := ticketRecord{Status: "en_proceso", Technician: &tech}

	ticket := rec.toDomain()

	assert.Equal(t, domain.TicketStatusInProgress, ticket.Status)
	require.NotNil(t, ticket.AssignedTechnician)
	assert.Equal(t, tech, *ticket.AssignedTechnician)
}

func TestNewTicketRecordRoundTripsAttachments(t *testing.T) {
	ticket := &domain.Ticket{
		ID:     "b1",
		Number: "T-000001-ABCD",
		Status: domain.TicketStatusPending,
		Attachments: []domain.Attachment{
			{Name: "captura.png", URL: "https://cdn/x", Type: "image", Size: 2048, Path: "tickets/b1/captura.png"},
		},
	}

	rec := newTicketRecord(ticket)
	require.Len(t, rec.Attachments, 1)
	assert.Equal(t, "captura.png", rec.Attachments[0].Name)

	back := rec.toDomain()
	assert.Equal(t, ticket.Attachments, back.Attachments)
}

func TestToAttachmentRecordsNeverNil(t *testing.T) {
	assert.NotNil(t, toAttachmentRecords(nil))
}
