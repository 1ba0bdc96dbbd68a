package handlers

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/api/dto"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/domain"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/repository"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/service"
)

// attachment form field names; browsers send either form.
var attachmentFields = []string{"attachments", "attachments[]"}

// submitTicketRequest is the JSON form of a submission without files.
type submitTicketRequest struct {
	RequesterName  string `json:"requester_name" form:"requester_name"`
	RequesterEmail string `json:"requester_email" form:"requester_email"`
	Department     string `json:"department" form:"department"`
	ProblemType    string `json:"problem_type" form:"problem_type"`
	Description    string `json:"description" form:"description"`
}

// TicketsHandler exposes submission and the status (admin) view.
type TicketsHandler struct {
	tickets *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{tickets: ticketService}
}

// Submit handles POST /tickets as multipart form or JSON.
func (h *TicketsHandler) Submit(c *fiber.Ctx) error {
	var req submitTicketRequest
	var files []service.FileUpload

	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return invalidPayload()
		}
		req = submitTicketRequest{
			RequesterName:  formValue(form, "requester_name"),
			RequesterEmail: formValue(form, "requester_email"),
			Department:     formValue(form, "department"),
			ProblemType:    formValue(form, "problem_type"),
			Description:    formValue(form, "description"),
		}
		files = formFiles(form)
	} else if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}

	ticket, err := h.tickets.SubmitTicket(c.UserContext(), optionalUser(c), service.SubmitTicketInput{
		RequesterName:  req.RequesterName,
		RequesterEmail: req.RequesterEmail,
		Department:     req.Department,
		ProblemType:    req.ProblemType,
		Description:    req.Description,
		Files:          files,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ListAdmin handles GET /admin/tickets, newest first.
func (h *TicketsHandler) ListAdmin(c *fiber.Ctx) error {
	tickets, err := h.tickets.ListTickets(c.UserContext(), repository.OrderCreatedDesc)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponses(tickets)})
}

// Get handles GET /admin/tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	ticket, err := h.tickets.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// Delete handles DELETE /admin/tickets/:id?confirm=true and its support twin.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.tickets.DeleteTicket(c.UserContext(), p.User, c.Params("id"), parseBoolQuery(c, "confirm", false)); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Catalog handles GET /catalog.
func (h *TicketsHandler) Catalog(c *fiber.Ctx) error {
	catalog := h.tickets.Catalog()
	return c.JSON(fiber.Map{"data": dto.CatalogResponse{
		ProblemTypes: catalog.ProblemTypes,
		Statuses:     catalog.Statuses,
		Technicians:  catalog.Technicians,
		Departments:  catalog.Departments,
	}})
}

func formValue(form *multipart.Form, key string) string {
	if vals := form.Value[key]; len(vals) > 0 {
		return vals[0]
	}
	return ""
}

func formFiles(form *multipart.Form) []service.FileUpload {
	var out []service.FileUpload
	for _, field := range attachmentFields {
		for _, fh := range form.File[field] {
			header := fh
			out = append(out, service.FileUpload{
				Name:        header.Filename,
				ContentType: header.Header.Get(fiber.HeaderContentType),
				Size:        header.Size,
				Open: func() (io.ReadCloser, error) {
					return header.Open()
				},
			})
		}
	}
	return out
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	attachments := make([]dto.AttachmentResponse, 0, len(ticket.Attachments))
	for _, a := range ticket.Attachments {
		attachments = append(attachments, dto.AttachmentResponse{Name: a.Name, URL: a.URL, Type: a.Type, Size: a.Size})
	}
	return dto.TicketResponse{
		ID:                 ticket.ID,
		Number:             ticket.Number,
		RequesterName:      ticket.RequesterName,
		RequesterEmail:     ticket.RequesterEmail,
		Department:         ticket.Department,
		ProblemType:        ticket.ProblemType,
		Description:        ticket.Description,
		Status:             ticket.Status,
		AssignedTechnician: ticket.AssignedTechnician,
		Attachments:        attachments,
		CreatedAt:          ticket.CreatedAt,
		UpdatedAt:          ticket.UpdatedAt,
		Version:            ticket.Version,
	}
}

func ticketResponses(tickets []domain.Ticket) []dto.TicketResponse {
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return items
}

// supportTicketResponses numbers tickets 1..n in list order.
func supportTicketResponses(tickets []domain.Ticket) []dto.SupportTicketResponse {
	items := make([]dto.SupportTicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.SupportTicketResponse{TicketResponse: ticketResponse(&tickets[i]), Position: i + 1})
	}
	return items
}
