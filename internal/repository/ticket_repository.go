package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/domain"
)

// TicketOrder selects how a full ticket listing is ordered.
type TicketOrder int

const (
	// OrderCreatedDesc lists newest tickets first.
	OrderCreatedDesc TicketOrder = iota
	// OrderNatural lists tickets in the store's own snapshot order.
	OrderNatural
)

func (o TicketOrder) String() string {
	if o == OrderCreatedDesc {
		return "created_desc"
	}
	return "natural"
}

// TicketFields describes a partial update of the mutable ticket fields.
// Technician is applied only when AssignTechnician is set; nil clears it.
type TicketFields struct {
	Status           *domain.TicketStatus
	AssignTechnician bool
	Technician       *string
	ExpectedVersion  *int64
}

// TicketChange holds a ticket before and after a field update.
type TicketChange struct {
	Before domain.Ticket
	After  domain.Ticket
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	NextSequence(ctx context.Context) (int64, error)
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, order TicketOrder) ([]domain.Ticket, error)
	UpdateFields(ctx context.Context, id string, fields TicketFields) (*TicketChange, error)
	Delete(ctx context.Context, id string) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the Postgres repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id::text, number, sequence, requester_name, requester_email, department,
               problem_type, description, status, assigned_technician, attachments,
               created_at, updated_at, version`

func (r *ticketRepository) NextSequence(ctx context.Context) (int64, error) {
	const query = `UPDATE ticket_number_counter SET counter = counter + 1 WHERE id = 1 RETURNING counter`
	var next int64
	if err := r.pool.QueryRow(ctx, query).Scan(&next); err != nil {
		return 0, fmt.Errorf("increment ticket counter: %w", mapPgError(err))
	}
	return next, nil
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (id, number, sequence, requester_name, requester_email, department,
            problem_type, description, status, assigned_technician, attachments)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING created_at, updated_at, version`
	return mapPgError(r.pool.QueryRow(ctx, query,
		ticket.ID,
		ticket.Number,
		ticket.Sequence,
		ticket.RequesterName,
		ticket.RequesterEmail,
		ticket.Department,
		ticket.ProblemType,
		ticket.Description,
		string(ticket.Status),
		ticket.AssignedTechnician,
		toAttachmentRecords(ticket.Attachments),
	).Scan(&ticket.CreatedAt, &ticket.UpdatedAt, &ticket.Version))
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	rec, err := scanTicket(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapPgError(err)
	}
	ticket := rec.toDomain()
	return &ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, order TicketOrder) ([]domain.Ticket, error) {
	orderBy := "sequence ASC"
	if order == OrderCreatedDesc {
		orderBy = "created_at DESC, sequence DESC"
	}
	rows, err := r.pool.Query(ctx, `SELECT `+ticketColumns+` FROM tickets ORDER BY `+orderBy)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Ticket{}
	for rows.Next() {
		rec, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rec.toDomain())
	}
	return result, rows.Err()
}

func (r *ticketRepository) UpdateFields(ctx context.Context, id string, fields TicketFields) (*TicketChange, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	var status *string
	if fields.Status != nil {
		s := string(*fields.Status)
		status = &s
	}

	const query = `
        UPDATE tickets t SET
            status = COALESCE($2::text, t.status),
            assigned_technician = CASE WHEN $3::boolean THEN $4::text ELSE t.assigned_technician END,
            version = t.version + 1,
            updated_at = NOW()
        FROM (SELECT id, status, assigned_technician, version, updated_at FROM tickets WHERE id = $1 FOR UPDATE) old
        WHERE t.id = old.id AND ($5::bigint IS NULL OR old.version = $5::bigint)
        RETURNING old.status, old.assigned_technician, old.version, old.updated_at,
            t.id::text, t.number, t.sequence, t.requester_name, t.requester_email, t.department,
            t.problem_type, t.description, t.status, t.assigned_technician, t.attachments,
            t.created_at, t.updated_at, t.version`

	var (
		oldStatus     string
		oldTechnician *string
		oldVersion    int64
		oldUpdatedAt  time.Time
		after         ticketRecord
	)
	err := r.pool.QueryRow(ctx, query, id, status, fields.AssignTechnician, fields.Technician, fields.ExpectedVersion).Scan(
		&oldStatus, &oldTechnician, &oldVersion, &oldUpdatedAt,
		&after.ID, &after.Number, &after.Sequence, &after.RequesterName, &after.RequesterEmail, &after.Department,
		&after.ProblemType, &after.Description, &after.Status, &after.Technician, &after.Attachments,
		&after.CreatedAt, &after.UpdatedAt, &after.Version,
	)
	if err == pgx.ErrNoRows {
		return nil, r.missOrConflict(ctx, id)
	}
	if err != nil {
		return nil, mapPgError(err)
	}

	before := after
	before.UpdatedAt = oldUpdatedAt
	before.Status = oldStatus
	before.Technician = oldTechnician
	before.Version = oldVersion
	return &TicketChange{Before: before.toDomain(), After: after.toDomain()}, nil
}

// missOrConflict tells a missing ticket from a stale version after an update matched no rows.
func (r *ticketRepository) missOrConflict(ctx context.Context, id string) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tickets WHERE id=$1)`, id).Scan(&exists); err != nil {
		return mapPgError(err)
	}
	if exists {
		return ErrVersionConflict
	}
	return ErrNotFound
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTicket(row pgx.Row) (ticketRecord, error) {
	var rec ticketRecord
	err := row.Scan(
		&rec.ID,
		&rec.Number,
		&rec.Sequence,
		&rec.RequesterName,
		&rec.RequesterEmail,
		&rec.Department,
		&rec.ProblemType,
		&rec.Description,
		&rec.Status,
		&rec.Technician,
		&rec.Attachments,
		&rec.CreatedAt,
		&rec.UpdatedAt,
		&rec.Version,
	)
	return rec, err
}
