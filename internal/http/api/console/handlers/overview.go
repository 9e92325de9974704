package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/finsim-app/admin-console/internal/models"
	"github.com/finsim-app/admin-console/internal/reads"
)

// OverviewHandler serves the landing-page metrics, derived entirely from
// the cached user, plan and ticket lists.
type OverviewHandler struct {
	reads *reads.Service
}

// NewOverviewHandler constructs an overview handler.
func NewOverviewHandler(readsSvc *reads.Service) *OverviewHandler {
	return &OverviewHandler{reads: readsSvc}
}

// overviewMetrics is the dashboard summary payload.
type overviewMetrics struct {
	TotalUsers    int `json:"totalUsers"`    // All registered users.
	ActiveUsers   int `json:"activeUsers"`   // Users allowed to sign in.
	PremiumUsers  int `json:"premiumUsers"`  // Users with an active subscription.
	FreeUsers     int `json:"freeUsers"`     // Users without one.
	TotalPlans    int `json:"totalPlans"`    // All plan templates.
	ActivePlans   int `json:"activePlans"`   // Plans currently offered.
	OpenTickets   int `json:"openTickets"`   // Tickets awaiting a reply.
	ClosedTickets int `json:"closedTickets"` // Tickets closed by either side.
}

// Get aggregates the three cached lists into the overview metrics.
func (h *OverviewHandler) Get(c *gin.Context) {
	sess := sessionFrom(c)
	ctx := c.Request.Context()
	token := sess.AccessToken

	users, errUsers := h.reads.Users(ctx, token)
	if errUsers != nil {
		writeBackendError(c, errUsers)
		return
	}
	plans, errPlans := h.reads.Plans(ctx, token)
	if errPlans != nil {
		writeBackendError(c, errPlans)
		return
	}
	tickets, errTickets := h.reads.Tickets(ctx, token)
	if errTickets != nil {
		writeBackendError(c, errTickets)
		return
	}

	metrics := overviewMetrics{TotalUsers: len(users), TotalPlans: len(plans)}
	for i := range users {
		if users[i].IsActive {
			metrics.ActiveUsers++
		}
		if models.IsPremium(&users[i]) {
			metrics.PremiumUsers++
		} else {
			metrics.FreeUsers++
		}
	}
	for i := range plans {
		if plans[i].ActivePlan {
			metrics.ActivePlans++
		}
	}
	for i := range tickets {
		if tickets[i].Status == models.TicketStatusClosed {
			metrics.ClosedTickets++
		} else {
			metrics.OpenTickets++
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "overview": metrics})
}
