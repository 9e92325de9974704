package models

import "time"

// Ticket statuses reported by the backend. Closing and reopening happen on
// the backend or user side; the console only ever moves a ticket to
// replied.
const (
	TicketStatusNew     = "new"
	TicketStatusOpen    = "open"
	TicketStatusReplied = "replied"
	TicketStatusClosed  = "closed"
)

// Ticket represents a support request raised by an end user.
type Ticket struct {
	ID            string     `json:"_id"`               // Backend document ID.
	TicketID      string     `json:"ticketId"`          // Human-facing ticket reference.
	UserID        string     `json:"userId"`            // Raising user ID.
	UserEmail     string     `json:"userEmail"`         // Raising user email.
	Subject       string     `json:"subject"`           // Ticket subject line.
	Status        string     `json:"status"`            // new, open, replied or closed.
	Reply         string     `json:"reply"`             // Stored admin reply text.
	AdminID       string     `json:"adminId,omitempty"` // Replying admin, empty until replied.
	DateSubmitted time.Time  `json:"dateSubmitted"`     // Submission timestamp.
	CreatedAt     time.Time  `json:"createdAt"`         // Creation timestamp.
	UpdatedAt     time.Time  `json:"updatedAt"`         // Last update timestamp.
	CloseAt       *time.Time `json:"closeAt,omitempty"` // Close timestamp, nil while open.
}

// CanReply reports whether the console may reply to the ticket. Closed
// tickets are terminal from this application's perspective.
func (t *Ticket) CanReply() bool {
	if t == nil {
		return false
	}
	switch t.Status {
	case TicketStatusNew, TicketStatusOpen, TicketStatusReplied:
		return true
	}
	return false
}

// ValidTicketStatus reports whether s is a status the backend emits.
func ValidTicketStatus(s string) bool {
	switch s {
	case TicketStatusNew, TicketStatusOpen, TicketStatusReplied, TicketStatusClosed:
		return true
	}
	return false
}
