package backend

import (
	"context"
	"net/http"
	"strings"

	"github.com/finsim-app/admin-console/internal/models"
)

// GetTickets fetches all support tickets.
func (c *Client) GetTickets(ctx context.Context, token string) ([]models.Ticket, error) {
	var out struct {
		Success bool            `json:"success"`
		Tickets []models.Ticket `json:"tickets"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/tickets", token, nil, &out, "failed to load tickets"); err != nil {
		return nil, err
	}
	return out.Tickets, nil
}

// GetTicketByID fetches one ticket by its human-facing reference.
func (c *Client) GetTicketByID(ctx context.Context, token, ticketID string) (*models.Ticket, error) {
	ticketID = strings.TrimSpace(ticketID)
	if ticketID == "" {
		return nil, validationErr("ticket id is required")
	}

	var out struct {
		Success bool          `json:"success"`
		Ticket  models.Ticket `json:"ticket"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/tickets/"+ticketID, token, nil, &out, "failed to load ticket"); err != nil {
		return nil, err
	}
	return &out.Ticket, nil
}

// ReplyToTicket stores the admin's reply and moves the ticket to replied.
// The reply must be non-empty; the caller is expected to have refused
// closed tickets already, but the check is repeated here so no reply
// request can ever be issued for one.
func (c *Client) ReplyToTicket(ctx context.Context, token string, ticket *models.Ticket, reply string) (*models.Ticket, error) {
	if ticket == nil || strings.TrimSpace(ticket.TicketID) == "" {
		return nil, validationErr("ticket id is required")
	}
	if strings.TrimSpace(reply) == "" {
		return nil, validationErr("reply cannot be empty")
	}
	if !ticket.CanReply() {
		return nil, validationErr("ticket is closed")
	}

	body := map[string]string{"reply": reply}
	var out struct {
		Success bool          `json:"success"`
		Ticket  models.Ticket `json:"ticket"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/v1/tickets/"+ticket.TicketID+"/reply", token, body, &out, "failed to send reply"); err != nil {
		return nil, err
	}
	return &out.Ticket, nil
}
