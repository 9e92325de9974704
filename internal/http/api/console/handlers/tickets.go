package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/finsim-app/admin-console/internal/backend"
	"github.com/finsim-app/admin-console/internal/cache"
	"github.com/finsim-app/admin-console/internal/reads"
)

// TicketHandler serves the support inbox.
type TicketHandler struct {
	client *backend.Client
	reads  *reads.Service
}

// NewTicketHandler constructs a ticket handler.
func NewTicketHandler(client *backend.Client, readsSvc *reads.Service) *TicketHandler {
	return &TicketHandler{client: client, reads: readsSvc}
}

// List returns every support ticket.
func (h *TicketHandler) List(c *gin.Context) {
	sess := sessionFrom(c)
	tickets, errLoad := h.reads.Tickets(c.Request.Context(), sess.AccessToken)
	if errLoad != nil {
		writeBackendError(c, errLoad)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "tickets": tickets})
}

// Get returns one ticket. While a ticket is being viewed it is polled at
// the faster detail interval, so a user-side close or follow-up surfaces
// quickly.
func (h *TicketHandler) Get(c *gin.Context) {
	sess := sessionFrom(c)
	ticket, errLoad := h.reads.Ticket(c.Request.Context(), sess.AccessToken, c.Param("id"))
	if errLoad != nil {
		writeBackendError(c, errLoad)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "ticket": ticket})
}

// Reply stores the admin's reply. Closed tickets are refused before any
// backend request is made.
func (h *TicketHandler) Reply(c *gin.Context) {
	var body struct {
		Reply string `json:"reply"`
	}
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(body.Reply) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reply cannot be empty"})
		return
	}

	sess := sessionFrom(c)
	ticket, errLoad := h.reads.Ticket(c.Request.Context(), sess.AccessToken, c.Param("id"))
	if errLoad != nil {
		writeBackendError(c, errLoad)
		return
	}
	if !ticket.CanReply() {
		c.JSON(http.StatusConflict, gin.H{"error": "ticket is closed"})
		return
	}

	updated, errReply := h.client.ReplyToTicket(c.Request.Context(), sess.AccessToken, ticket, body.Reply)
	if errReply != nil {
		writeBackendError(c, errReply)
		return
	}

	h.reads.Invalidate(c.Request.Context(), cache.TagTickets)
	c.JSON(http.StatusOK, gin.H{"success": true, "ticket": updated})
}
