package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/finsim-app/admin-console/internal/backend"
	"github.com/finsim-app/admin-console/internal/cache"
	"github.com/finsim-app/admin-console/internal/reads"
)

// PlanHandler manages the subscription plan templates offered to end
// users.
type PlanHandler struct {
	client *backend.Client
	reads  *reads.Service
}

// NewPlanHandler constructs a plan handler.
func NewPlanHandler(client *backend.Client, readsSvc *reads.Service) *PlanHandler {
	return &PlanHandler{client: client, reads: readsSvc}
}

// List returns every plan template.
func (h *PlanHandler) List(c *gin.Context) {
	sess := sessionFrom(c)
	plans, errLoad := h.reads.Plans(c.Request.Context(), sess.AccessToken)
	if errLoad != nil {
		writeBackendError(c, errLoad)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "subscriptions": plans})
}

// Get returns one plan template.
func (h *PlanHandler) Get(c *gin.Context) {
	sess := sessionFrom(c)
	plan, errLoad := h.reads.Plan(c.Request.Context(), sess.AccessToken, c.Param("id"))
	if errLoad != nil {
		writeBackendError(c, errLoad)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "subscription": plan})
}

// Create validates and creates a plan template.
func (h *PlanHandler) Create(c *gin.Context) {
	var body backend.PlanParams
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	sess := sessionFrom(c)
	plan, errCreate := h.client.CreateSubscription(c.Request.Context(), sess.AccessToken, body)
	if errCreate != nil {
		writeBackendError(c, errCreate)
		return
	}

	h.reads.Invalidate(c.Request.Context(), cache.TagSubscriptions)
	c.JSON(http.StatusCreated, gin.H{"success": true, "subscription": plan})
}

// Update replaces a plan template's fields.
func (h *PlanHandler) Update(c *gin.Context) {
	var body backend.PlanParams
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	sess := sessionFrom(c)
	plan, errUpdate := h.client.UpdateSubscription(c.Request.Context(), sess.AccessToken, c.Param("id"), body)
	if errUpdate != nil {
		writeBackendError(c, errUpdate)
		return
	}

	h.reads.Invalidate(c.Request.Context(), cache.TagSubscriptions)
	c.JSON(http.StatusOK, gin.H{"success": true, "subscription": plan})
}

// Delete removes a plan template.
func (h *PlanHandler) Delete(c *gin.Context) {
	sess := sessionFrom(c)
	if errDelete := h.client.DeleteSubscription(c.Request.Context(), sess.AccessToken, c.Param("id")); errDelete != nil {
		writeBackendError(c, errDelete)
		return
	}

	h.reads.Invalidate(c.Request.Context(), cache.TagSubscriptions)
	c.JSON(http.StatusOK, gin.H{"success": true})
}
