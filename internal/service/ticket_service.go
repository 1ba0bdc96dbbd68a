package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/config"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/domain"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/events"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/observability"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/repository"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/ticketnumber"
	apperrors "github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/pkg/util/errorutil"
)

// Catalog holds the selectable values offered by the submission and management screens.
type Catalog struct {
	ProblemTypes []string
	Technicians  []string
	Departments  []string
	Statuses     []domain.TicketStatus
}

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets     repository.TicketRepository
	history     repository.TicketHistoryRepository
	numbers     *ticketnumber.Generator
	attachments *AttachmentPipeline
	dispatcher  events.Dispatcher
	catalog     Catalog
	logger      *zap.Logger
	metrics     *observability.Metrics
	now         func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	HistoryRepo repository.TicketHistoryRepository
	Attachments *AttachmentPipeline
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Metrics     *observability.Metrics
}

// SubmitTicketInput is the submission form. Empty requester fields are filled from the caller's profile.
type SubmitTicketInput struct {
	RequesterName  string
	RequesterEmail string
	Department     string
	ProblemType    string
	Description    string
	Files          []FileUpload
}

// NewTicketService constructs the service.
func NewTicketService(cfg config.TicketsConfig, deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:     deps.TicketRepo,
		history:     deps.HistoryRepo,
		numbers:     ticketnumber.NewGenerator(deps.TicketRepo, cfg.NumberPrefix),
		attachments: deps.Attachments,
		dispatcher:  deps.Dispatcher,
		catalog: Catalog{
			ProblemTypes: append([]string(nil), cfg.ProblemTypes...),
			Technicians:  append([]string(nil), cfg.Technicians...),
			Departments:  append([]string(nil), cfg.Departments...),
			Statuses:     append([]domain.TicketStatus(nil), domain.TicketStatuses...),
		},
		logger:  logger,
		metrics: deps.Metrics,
		now:     time.Now,
	}
}

// Catalog returns the configured selectable values.
func (s *TicketService) Catalog() Catalog {
	return s.catalog
}

// Technicians returns the assignable technician names.
func (s *TicketService) Technicians() []string {
	return s.catalog.Technicians
}

// SubmitTicket validates the form, uploads the attachments and creates the ticket in one write.
// A failed upload or create leaves neither a ticket nor uploaded blobs behind.
func (s *TicketService) SubmitTicket(ctx context.Context, requester *domain.User, input SubmitTicketInput) (*domain.Ticket, error) {
	input = prefillRequester(input, requester)
	if err := s.validateSubmission(input); err != nil {
		s.metrics.RecordSubmission("invalid")
		return nil, err
	}

	files := input.Files
	if s.attachments != nil {
		files = s.attachments.Accept(files)
	} else if len(files) > 0 {
		return nil, apperrors.NewValidationError("attachments are not accepted", nil)
	}

	number, seq, err := s.numbers.Next(ctx)
	if err != nil {
		s.metrics.RecordSubmission("failed")
		return nil, mapRepoError("ticket numbering", "ticket", err)
	}

	ticketID := uuid.NewString()
	attachments := []domain.Attachment{}
	if len(files) > 0 {
		attachments, err = s.attachments.Upload(ctx, ticketID, files)
		if err != nil {
			s.metrics.RecordSubmission("failed")
			s.logger.Warn("attachment upload failed", zap.String("ticket_id", ticketID), zap.Error(err))
			return nil, apperrors.NewUnavailable("attachment upload", err)
		}
	}

	ticket := &domain.Ticket{
		ID:             ticketID,
		Number:         number,
		Sequence:       seq,
		RequesterName:  input.RequesterName,
		RequesterEmail: input.RequesterEmail,
		Department:     input.Department,
		ProblemType:    input.ProblemType,
		Description:    input.Description,
		Status:         domain.TicketStatusPending,
		Attachments:    attachments,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		s.metrics.RecordSubmission("failed")
		if s.attachments != nil {
			s.attachments.Discard(ctx, attachmentPaths(attachments))
		}
		return nil, mapRepoError("ticket creation", "ticket", err)
	}
	s.metrics.RecordSubmission("created")

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    actorFor(requester),
		Payload: events.TicketCreatedPayload{
			Number:          ticket.Number,
			RequesterName:   ticket.RequesterName,
			RequesterEmail:  ticket.RequesterEmail,
			Department:      ticket.Department,
			ProblemType:     ticket.ProblemType,
			AttachmentCount: len(ticket.Attachments),
		},
	})
	return ticket, nil
}

func prefillRequester(input SubmitTicketInput, requester *domain.User) SubmitTicketInput {
	input.RequesterName = strings.TrimSpace(input.RequesterName)
	input.RequesterEmail = strings.TrimSpace(input.RequesterEmail)
	input.Department = strings.TrimSpace(input.Department)
	input.ProblemType = strings.TrimSpace(input.ProblemType)
	input.Description = strings.TrimSpace(input.Description)
	if requester == nil {
		return input
	}
	if input.RequesterName == "" {
		input.RequesterName = requester.FullName()
	}
	if input.RequesterEmail == "" {
		input.RequesterEmail = requester.Email
	}
	return input
}

func (s *TicketService) validateSubmission(input SubmitTicketInput) error {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"requester_name", input.RequesterName},
		{"requester_email", input.RequesterEmail},
		{"department", input.Department},
		{"problem_type", input.ProblemType},
		{"description", input.Description},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return apperrors.NewValidationError("please complete all required fields", map[string]any{"missing": missing})
	}
	if len(s.catalog.ProblemTypes) > 0 && !slices.Contains(s.catalog.ProblemTypes, input.ProblemType) {
		return apperrors.NewValidationError("unknown problem type", map[string]any{
			"problem_type": input.ProblemType,
			"allowed":      s.catalog.ProblemTypes,
		})
	}
	return nil
}

// ListTickets returns the full ticket list in the requested order.
func (s *TicketService) ListTickets(ctx context.Context, order repository.TicketOrder) ([]domain.Ticket, error) {
	tickets, err := s.tickets.List(ctx, order)
	if err != nil {
		return nil, mapRepoError("ticket listing", "ticket", err)
	}
	return tickets, nil
}

// GetTicket fetches one ticket.
func (s *TicketService) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError("ticket lookup", "ticket", err)
	}
	return ticket, nil
}

// UpdateStatus sets the status. Any status may follow any other.
// With expectedVersion set, a ticket changed since that version is rejected with a conflict.
func (s *TicketService) UpdateStatus(ctx context.Context, actor *domain.User, ticketID, rawStatus string, expectedVersion *int64) (*domain.Ticket, error) {
	status, ok := domain.ParseTicketStatus(rawStatus)
	if !ok {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{
			"status":  rawStatus,
			"allowed": domain.TicketStatuses,
		})
	}

	change, err := s.tickets.UpdateFields(ctx, ticketID, repository.TicketFields{
		Status:          &status,
		ExpectedVersion: expectedVersion,
	})
	if err != nil {
		s.metrics.RecordFieldUpdate("status", outcomeFor(err))
		return nil, mapRepoError("status update", "ticket", err)
	}
	s.metrics.RecordFieldUpdate("status", "ok")

	if change.Before.Status != change.After.Status {
		s.recordHistory(ctx, actor, ticketID, domain.ChangeTypeStatus,
			map[string]any{"status": change.Before.Status},
			map[string]any{"status": change.After.Status})
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticketID,
		Actor:    actorFor(actor),
		Payload: events.TicketStatusChangedPayload{
			Number:         change.After.Number,
			RequesterEmail: change.After.RequesterEmail,
			OldStatus:      change.Before.Status,
			NewStatus:      change.After.Status,
		},
	})
	after := change.After
	return &after, nil
}

// AssignTechnician sets or clears (nil or blank) the assigned technician.
func (s *TicketService) AssignTechnician(ctx context.Context, actor *domain.User, ticketID string, technician *string, expectedVersion *int64) (*domain.Ticket, error) {
	technician = domain.NormalizeTechnician(technician)
	if technician != nil && len(s.catalog.Technicians) > 0 && !slices.Contains(s.catalog.Technicians, *technician) {
		return nil, apperrors.NewValidationError("unknown technician", map[string]any{
			"technician": *technician,
			"allowed":    s.catalog.Technicians,
		})
	}

	change, err := s.tickets.UpdateFields(ctx, ticketID, repository.TicketFields{
		AssignTechnician: true,
		Technician:       technician,
		ExpectedVersion:  expectedVersion,
	})
	if err != nil {
		s.metrics.RecordFieldUpdate("technician", outcomeFor(err))
		return nil, mapRepoError("technician update", "ticket", err)
	}
	s.metrics.RecordFieldUpdate("technician", "ok")

	oldName, newName := stringOrEmpty(change.Before.AssignedTechnician), stringOrEmpty(change.After.AssignedTechnician)
	if oldName != newName {
		s.recordHistory(ctx, actor, ticketID, domain.ChangeTypeTechnician,
			map[string]any{"technician": nullable(change.Before.AssignedTechnician)},
			map[string]any{"technician": nullable(change.After.AssignedTechnician)})
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticketID,
		Actor:    actorFor(actor),
		Payload: events.TicketAssignedPayload{
			Number:        change.After.Number,
			OldTechnician: change.Before.AssignedTechnician,
			NewTechnician: change.After.AssignedTechnician,
		},
	})
	after := change.After
	return &after, nil
}

// DeleteTicket removes a ticket permanently. The caller must confirm the deletion.
// Attachment blobs stay in the blob store.
func (s *TicketService) DeleteTicket(ctx context.Context, actor *domain.User, ticketID string, confirmed bool) error {
	if !confirmed {
		return apperrors.NewValidationError("deletion must be confirmed", map[string]any{"confirm": "true"})
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		s.metrics.RecordDeletion(outcomeFor(err))
		return mapRepoError("ticket lookup", "ticket", err)
	}
	if err := s.tickets.Delete(ctx, ticketID); err != nil {
		s.metrics.RecordDeletion(outcomeFor(err))
		return mapRepoError("ticket deletion", "ticket", err)
	}
	s.metrics.RecordDeletion("ok")

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: ticketID,
		Actor:    actorFor(actor),
		Payload:  events.TicketDeletedPayload{Number: ticket.Number},
	})
	return nil
}

// ListHistory returns the audit trail of a ticket, oldest first.
func (s *TicketService) ListHistory(ctx context.Context, ticketID string) ([]domain.TicketHistory, error) {
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		return nil, mapRepoError("ticket lookup", "ticket", err)
	}
	if s.history == nil {
		return []domain.TicketHistory{}, nil
	}
	entries, err := s.history.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, mapRepoError("history listing", "ticket", err)
	}
	return entries, nil
}

// recordHistory appends an audit entry. The field write already happened, so failures are only logged.
func (s *TicketService) recordHistory(ctx context.Context, actor *domain.User, ticketID string, changeType domain.TicketChangeType, oldValue, newValue map[string]any) {
	if s.history == nil {
		return
	}
	entry := &domain.TicketHistory{
		TicketID:   ticketID,
		ChangeType: changeType,
		OldValue:   oldValue,
		NewValue:   newValue,
		CreatedAt:  s.now(),
	}
	if actor != nil {
		id := actor.ID
		entry.ChangedByID = &id
		entry.ChangedByName = actor.FullName()
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("ticket history write failed",
			zap.String("ticket_id", ticketID),
			zap.String("change_type", string(changeType)),
			zap.Error(err))
	}
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func actorFor(user *domain.User) events.Actor {
	if user == nil {
		return events.Actor{}
	}
	id := user.ID
	return events.Actor{UserID: &id, Name: user.FullName(), Role: user.Role}
}

// mapRepoError turns store errors into domain errors. Anything unrecognised is a collaborator failure.
func mapRepoError(operation, resource string, err error) error {
	var domainErr *apperrors.DomainError
	switch {
	case errors.As(err, &domainErr):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, nil)
	case errors.Is(err, repository.ErrVersionConflict):
		return apperrors.NewConflict(resource+" was modified by another session", nil)
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConflict(resource+" already exists", nil)
	default:
		return apperrors.NewUnavailable(operation, err)
	}
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return "not_found"
	case errors.Is(err, repository.ErrVersionConflict):
		return "conflict"
	default:
		return "failed"
	}
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
