//go:build integration

package repository

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/domain"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/persistence"
)

func getTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, persistence.RunMigrations(ctx, pool, "../../migrations", zap.NewNop()))
	_, err = pool.Exec(ctx, `TRUNCATE tickets, ticket_history, users CASCADE`)
	require.NoError(t, err)
	return pool
}

func newTicket(seq int64) *domain.Ticket {
	return &domain.Ticket{
		ID:             uuid.NewString(),
		Number:         uuid.NewString()[:12],
		Sequence:       seq,
		RequesterName:  "María López",
		RequesterEmail: "maria@meduca.gob.pa",
		Department:     "Planificación",
		ProblemType:    "Internet",
		Description:    "Sin conexión",
		Status:         domain.TicketStatusPending,
		Attachments:    []domain.Attachment{},
	}
}

func TestTicketRepository_Lifecycle(t *testing.T) {
	pool := getTestPool(t)
	repo := NewTicketRepository(pool)
	ctx := context.Background()

	first, err := repo.NextSequence(ctx)
	require.NoError(t, err)
	second, err := repo.NextSequence(ctx)
	require.NoError(t, err)
	assert.Equal(t, first+1, second)

	older := newTicket(first)
	require.NoError(t, repo.Create(ctx, older))
	newer := newTicket(second)
	newer.Attachments = []domain.Attachment{{Name: "log.txt", URL: "https://blobs.test/log.txt", Type: "text", Size: 3}}
	require.NoError(t, repo.Create(ctx, newer))
	assert.EqualValues(t, 1, newer.Version)

	natural, err := repo.List(ctx, OrderNatural)
	require.NoError(t, err)
	require.Len(t, natural, 2)
	assert.Equal(t, older.ID, natural[0].ID)

	got, err := repo.GetByID(ctx, newer.ID)
	require.NoError(t, err)
	require.Len(t, got.Attachments, 1)
	assert.Equal(t, "log.txt", got.Attachments[0].Name)
	assert.Nil(t, got.AssignedTechnician)

	status := domain.TicketStatusInProgress
	change, err := repo.UpdateFields(ctx, newer.ID, TicketFields{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusPending, change.Before.Status)
	assert.Equal(t, domain.TicketStatusInProgress, change.After.Status)
	assert.EqualValues(t, 2, change.After.Version)

	stale := int64(1)
	_, err = repo.UpdateFields(ctx, newer.ID, TicketFields{Status: &status, ExpectedVersion: &stale})
	assert.True(t, errors.Is(err, ErrVersionConflict), err)

	tech := "Laura Arosemena"
	change, err = repo.UpdateFields(ctx, newer.ID, TicketFields{AssignTechnician: true, Technician: &tech})
	require.NoError(t, err)
	require.NotNil(t, change.After.AssignedTechnician)
	assert.Equal(t, tech, *change.After.AssignedTechnician)

	require.NoError(t, repo.Delete(ctx, newer.ID))
	_, err = repo.GetByID(ctx, newer.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(repo.Delete(ctx, newer.ID), ErrNotFound))
}

func TestTicketHistoryRepository_ListByTicket(t *testing.T) {
	pool := getTestPool(t)
	tickets := NewTicketRepository(pool)
	history := NewTicketHistoryRepository(pool)
	ctx := context.Background()

	ticket := newTicket(1)
	require.NoError(t, tickets.Create(ctx, ticket))

	entry := &domain.TicketHistory{
		TicketID:      ticket.ID,
		ChangedByName: "Soporte",
		ChangeType:    domain.ChangeTypeStatus,
		OldValue:      map[string]any{"status": "pending"},
		NewValue:      map[string]any{"status": "resolved"},
	}
	require.NoError(t, history.Create(ctx, entry))
	assert.NotEmpty(t, entry.ID)

	entries, err := history.ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "resolved", entries[0].NewValue["status"])
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	pool := getTestPool(t)
	users := NewUserRepository(pool)
	ctx := context.Background()

	user := &domain.User{FirstName: "María", Email: "maria@meduca.gob.pa", Role: domain.UserRoleAdministrative, PasswordHash: "x"}
	require.NoError(t, users.Create(ctx, user))
	assert.NotEmpty(t, user.ID)

	dup := &domain.User{FirstName: "Otra", Email: "maria@meduca.gob.pa", Role: domain.UserRoleSupport, PasswordHash: "y"}
	assert.True(t, errors.Is(users.Create(ctx, dup), ErrDuplicate))

	got, err := users.GetByEmail(ctx, "maria@meduca.gob.pa")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}
