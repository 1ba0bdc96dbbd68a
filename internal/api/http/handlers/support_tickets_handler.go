package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/api/dto"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/domain"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/repository"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/service"
)

// SupportTicketsHandler handles the management (technician) view.
type SupportTicketsHandler struct {
	tickets *service.TicketService
}

// NewSupportTicketsHandler constructs handler.
func NewSupportTicketsHandler(ticketService *service.TicketService) *SupportTicketsHandler {
	return &SupportTicketsHandler{tickets: ticketService}
}

// List GET /support/tickets.
func (h *SupportTicketsHandler) List(c *fiber.Ctx) error {
	tickets, err := h.tickets.ListTickets(c.UserContext(), repository.OrderNatural)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": supportTicketResponses(tickets)})
}

// Get GET /support/tickets/:id.
func (h *SupportTicketsHandler) Get(c *fiber.Ctx) error {
	ticket, err := h.tickets.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// UpdateStatus PATCH /support/tickets/:id/status.
func (h *SupportTicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	ticket, err := h.tickets.UpdateStatus(c.UserContext(), p.User, c.Params("id"), req.Status, req.ExpectedVersion)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// AssignTechnician PATCH /support/tickets/:id/technician.
func (h *SupportTicketsHandler) AssignTechnician(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.AssignTechnicianRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	ticket, err := h.tickets.AssignTechnician(c.UserContext(), p.User, c.Params("id"), req.Technician, req.ExpectedVersion)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// History GET /support/tickets/:id/history.
func (h *SupportTicketsHandler) History(c *fiber.Ctx) error {
	entries, err := h.tickets.ListHistory(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": historyResponses(entries)})
}

// Technicians GET /support/technicians.
func (h *SupportTicketsHandler) Technicians(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.tickets.Technicians()})
}

func historyResponses(entries []domain.TicketHistory) []dto.TicketHistoryResponse {
	items := make([]dto.TicketHistoryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, dto.TicketHistoryResponse{
			ID:            e.ID,
			ChangeType:    e.ChangeType,
			ChangedByID:   e.ChangedByID,
			ChangedByName: e.ChangedByName,
			OldValue:      e.OldValue,
			NewValue:      e.NewValue,
			CreatedAt:     e.CreatedAt,
		})
	}
	return items
}
