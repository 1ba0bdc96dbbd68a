package repository

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"google.golang.org/api/iterator"

	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/domain"
)

// TicketHistoryRepository stores audit entries.
type TicketHistoryRepository interface {
	Create(ctx context.Context, history *domain.TicketHistory) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error)
}

type ticketHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewTicketHistoryRepository builds the Postgres repository.
func NewTicketHistoryRepository(pool *pgxpool.Pool) TicketHistoryRepository {
	return &ticketHistoryRepository{pool: pool}
}

func (r *ticketHistoryRepository) Create(ctx context.Context, history *domain.TicketHistory) error {
	const query = `
        INSERT INTO ticket_history (ticket_id, changed_by_id, changed_by_name, change_type, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id::text, created_at`
	return mapPgError(r.pool.QueryRow(ctx, query,
		history.TicketID,
		history.ChangedByID,
		history.ChangedByName,
		string(history.ChangeType),
		history.OldValue,
		history.NewValue,
	).Scan(&history.ID, &history.CreatedAt))
}

func (r *ticketHistoryRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error) {
	if _, err := uuid.Parse(ticketID); err != nil {
		return []domain.TicketHistory{}, nil
	}
	const query = `
        SELECT id::text, ticket_id::text, changed_by_id::text, changed_by_name, change_type, old_value, new_value, created_at
        FROM ticket_history WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.TicketHistory{}
	for rows.Next() {
		var (
			history    domain.TicketHistory
			changeType string
		)
		if err := rows.Scan(
			&history.ID,
			&history.TicketID,
			&history.ChangedByID,
			&history.ChangedByName,
			&changeType,
			&history.OldValue,
			&history.NewValue,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		history.ChangeType = domain.TicketChangeType(changeType)
		result = append(result, history)
	}
	return result, rows.Err()
}

const historySubcollection = "historial"

type historyDocument struct {
	ChangedByID   *string        `firestore:"usuarioId"`
	ChangedByName string         `firestore:"usuarioNombre"`
	ChangeType    string         `firestore:"tipo"`
	OldValue      map[string]any `firestore:"anterior"`
	NewValue      map[string]any `firestore:"nuevo"`
	CreatedAt     time.Time      `firestore:"fecha,serverTimestamp"`
}

// FirestoreTicketHistoryRepository keeps entries in a subcollection of each ticket document.
type FirestoreTicketHistoryRepository struct {
	client  *firestore.Client
	tickets string
}

// NewFirestoreTicketHistoryRepository builds the repository.
func NewFirestoreTicketHistoryRepository(client *firestore.Client, ticketsCollection string) *FirestoreTicketHistoryRepository {
	return &FirestoreTicketHistoryRepository{client: client, tickets: ticketsCollection}
}

func (r *FirestoreTicketHistoryRepository) collection(ticketID string) *firestore.CollectionRef {
	return r.client.Collection(r.tickets).Doc(ticketID).Collection(historySubcollection)
}

func (r *FirestoreTicketHistoryRepository) Create(ctx context.Context, history *domain.TicketHistory) error {
	ref, wr, err := r.collection(history.TicketID).Add(ctx, historyDocument{
		ChangedByID:   history.ChangedByID,
		ChangedByName: history.ChangedByName,
		ChangeType:    string(history.ChangeType),
		OldValue:      history.OldValue,
		NewValue:      history.NewValue,
	})
	if err != nil {
		return mapFirestoreError(err)
	}
	history.ID = ref.ID
	history.CreatedAt = wr.UpdateTime
	return nil
}

func (r *FirestoreTicketHistoryRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error) {
	it := r.collection(ticketID).OrderBy("fecha", firestore.Asc).Documents(ctx)
	defer it.Stop()

	result := []domain.TicketHistory{}
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return result, nil
		}
		if err != nil {
			return nil, mapFirestoreError(err)
		}
		var doc historyDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, err
		}
		result = append(result, domain.TicketHistory{
			ID:            snap.Ref.ID,
			TicketID:      ticketID,
			ChangedByID:   doc.ChangedByID,
			ChangedByName: doc.ChangedByName,
			ChangeType:    domain.TicketChangeType(doc.ChangeType),
			OldValue:      doc.OldValue,
			NewValue:      doc.NewValue,
			CreatedAt:     doc.CreatedAt,
		})
	}
}
