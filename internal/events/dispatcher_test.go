package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDispatcherDeliversByType(t *testing.T) {
	d := NewInMemoryDispatcher(nil)

	var created, deleted []string
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		created = append(created, e.TicketID)
		return nil
	})
	d.Subscribe(EventTicketDeleted, func(_ context.Context, e Event) error {
		deleted = append(deleted, e.TicketID)
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketCreated, TicketID: "a"}))
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketDeleted, TicketID: "b"}))
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketAssigned, TicketID: "c"}))

	assert.Equal(t, []string{"a"}, created)
	assert.Equal(t, []string{"b"}, deleted)
}

func TestDispatcherContinuesAfterHandlerError(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	d := NewInMemoryDispatcher(zap.New(core))

	calls := 0
	d.Subscribe(EventTicketStatusChanged, func(context.Context, Event) error {
		calls++
		return errors.New("smtp down")
	})
	d.Subscribe(EventTicketStatusChanged, func(context.Context, Event) error {
		calls++
		return nil
	})

	err := d.Publish(context.Background(), Event{ID: "e1", Type: EventTicketStatusChanged, TicketID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	entries := logs.FilterMessage("event handler failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "t1", entries[0].ContextMap()["ticket_id"])
}
