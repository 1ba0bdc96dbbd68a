package handlers

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/api/dto"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/domain"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/live"
)

func sampleTickets() []domain.Ticket {
	return []domain.Ticket{
		{ID: "a", Number: "T-000001-ABCD", Status: domain.TicketStatusPending},
		{ID: "b", Number: "T-000002-EF01", Status: domain.TicketStatusResolved},
	}
}

func TestWriteSnapshotFrame(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	snap := live.Snapshot{View: live.ViewSupport, Revision: 7, Tickets: sampleTickets(), UpdatedAt: time.Now()}

	require.NoError(t, writeSnapshot(w, snap))
	require.NoError(t, w.Flush())

	frame := buf.String()
	require.True(t, strings.HasPrefix(frame, "event: snapshot\nid: 7\ndata: "), frame)
	require.True(t, strings.HasSuffix(frame, "\n\n"))

	data := strings.TrimSuffix(strings.TrimPrefix(frame, "event: snapshot\nid: 7\ndata: "), "\n\n")
	var decoded struct {
		View    string                      `json:"view"`
		Count   int                         `json:"count"`
		Tickets []dto.SupportTicketResponse `json:"tickets"`
	}
	require.NoError(t, json.Unmarshal([]byte(data), &decoded))
	assert.Equal(t, "support", decoded.View)
	assert.Equal(t, 2, decoded.Count)
	assert.Equal(t, 1, decoded.Tickets[0].Position)
	assert.Equal(t, 2, decoded.Tickets[1].Position)
	assert.Equal(t, "T-000002-EF01", decoded.Tickets[1].Number)
}

func TestSnapshotResponseAdminHasNoPositions(t *testing.T) {
	resp := snapshotResponse(live.Snapshot{View: live.ViewAdmin, Revision: 1, Tickets: sampleTickets()})

	tickets, ok := resp.Tickets.([]dto.TicketResponse)
	require.True(t, ok)
	assert.Len(t, tickets, 2)
	assert.Equal(t, 2, resp.Count)
}
