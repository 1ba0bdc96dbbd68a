package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/domain"
)

const ticketCounterDoc = "tickets"

// FirestoreTicketRepository stores tickets as documents of one collection and
// doubles as a TicketWatcher through query snapshots.
type FirestoreTicketRepository struct {
	client   *firestore.Client
	tickets  string
	counters string
}

// NewFirestoreTicketRepository builds the firestore-backed repository.
func NewFirestoreTicketRepository(client *firestore.Client, ticketsCollection, countersCollection string) *FirestoreTicketRepository {
	return &FirestoreTicketRepository{client: client, tickets: ticketsCollection, counters: countersCollection}
}

func (r *FirestoreTicketRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(r.tickets)
}

// NextSequence increments the shared counter document inside a transaction.
func (r *FirestoreTicketRepository) NextSequence(ctx context.Context) (int64, error) {
	ref := r.client.Collection(r.counters).Doc(ticketCounterDoc)
	var next int64
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var current int64
		snap, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
		case err != nil:
			return err
		default:
			if raw, derr := snap.DataAt("counter"); derr == nil {
				if n, ok := raw.(int64); ok {
					current = n
				}
			}
		}
		next = current + 1
		return tx.Set(ref, map[string]any{"counter": next}, firestore.MergeAll)
	})
	if err != nil {
		return 0, fmt.Errorf("increment ticket counter: %w", err)
	}
	return next, nil
}

func (r *FirestoreTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	ticket.Version = 1
	wr, err := r.collection().Doc(ticket.ID).Create(ctx, encodeTicketDocument(newTicketRecord(ticket)))
	if err != nil {
		return mapFirestoreError(err)
	}
	ticket.CreatedAt = wr.UpdateTime
	ticket.UpdatedAt = wr.UpdateTime
	if ticket.Attachments == nil {
		ticket.Attachments = []domain.Attachment{}
	}
	return nil
}

func (r *FirestoreTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	snap, err := r.collection().Doc(id).Get(ctx)
	if err != nil {
		return nil, mapFirestoreError(err)
	}
	ticket, err := decodeTicket(snap)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *FirestoreTicketRepository) query(order TicketOrder) firestore.Query {
	if order == OrderCreatedDesc {
		return r.collection().OrderBy(fieldCreatedAt, firestore.Desc)
	}
	return r.collection().Query
}

func (r *FirestoreTicketRepository) List(ctx context.Context, order TicketOrder) ([]domain.Ticket, error) {
	return decodeTickets(r.query(order).Documents(ctx))
}

func (r *FirestoreTicketRepository) UpdateFields(ctx context.Context, id string, fields TicketFields) (*TicketChange, error) {
	ref := r.collection().Doc(id)
	var change TicketChange
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		before, err := decodeTicket(snap)
		if err != nil {
			return err
		}
		if fields.ExpectedVersion != nil && *fields.ExpectedVersion != before.Version {
			return ErrVersionConflict
		}

		after := before
		updates := []firestore.Update{
			{Path: fieldVersion, Value: firestore.Increment(1)},
			{Path: fieldUpdatedAt, Value: firestore.ServerTimestamp},
		}
		if fields.Status != nil {
			after.Status = *fields.Status
			updates = append(updates, firestore.Update{Path: fieldStatus, Value: string(*fields.Status)})
		}
		if fields.AssignTechnician {
			after.AssignedTechnician = domain.NormalizeTechnician(fields.Technician)
			var value any
			if after.AssignedTechnician != nil {
				value = *after.AssignedTechnician
			}
			updates = append(updates, firestore.Update{Path: fieldTechnician, Value: value})
		}
		after.Version = before.Version + 1
		after.UpdatedAt = time.Now().UTC()
		change = TicketChange{Before: before, After: after}
		return tx.Update(ref, updates)
	})
	if err != nil {
		if errors.Is(err, ErrVersionConflict) {
			return nil, ErrVersionConflict
		}
		return nil, mapFirestoreError(err)
	}
	return &change, nil
}

// Delete removes the ticket and its history subcollection in one transaction.
func (r *FirestoreTicketRepository) Delete(ctx context.Context, id string) error {
	ref := r.collection().Doc(id)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(ref); err != nil {
			return err
		}
		history, err := tx.Documents(ref.Collection(historySubcollection)).GetAll()
		if err != nil {
			return fmt.Errorf("list ticket history: %w", err)
		}
		for _, doc := range history {
			if err := tx.Delete(doc.Ref); err != nil {
				return err
			}
		}
		return tx.Delete(ref)
	})
	return mapFirestoreError(err)
}

// Watch streams full snapshots of the collection until ctx is cancelled or the listener fails.
func (r *FirestoreTicketRepository) Watch(ctx context.Context, order TicketOrder, fn func([]domain.Ticket)) error {
	it := r.query(order).Snapshots(ctx)
	defer it.Stop()

	for {
		snap, err := it.Next()
		if err != nil {
			if ctx.Err() != nil || status.Code(err) == codes.Canceled {
				return ctx.Err()
			}
			return fmt.Errorf("ticket snapshot listener: %w", err)
		}
		tickets, err := decodeTickets(snap.Documents)
		if err != nil {
			return err
		}
		fn(tickets)
	}
}

func decodeTickets(docs *firestore.DocumentIterator) ([]domain.Ticket, error) {
	defer docs.Stop()
	result := []domain.Ticket{}
	for {
		snap, err := docs.Next()
		if errors.Is(err, iterator.Done) {
			return result, nil
		}
		if err != nil {
			return nil, err
		}
		ticket, err := decodeTicket(snap)
		if err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
}

func decodeTicket(snap *firestore.DocumentSnapshot) (domain.Ticket, error) {
	if !snap.Exists() {
		return domain.Ticket{}, ErrNotFound
	}
	rec := decodeTicketDocument(snap.Ref.ID, snap.Data(), snap.CreateTime, snap.UpdateTime)
	return rec.toDomain(), nil
}
