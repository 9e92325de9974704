package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/finsim-app/admin-console/internal/backend"
	"github.com/finsim-app/admin-console/internal/cache"
	"github.com/finsim-app/admin-console/internal/reads"
)

// ProfileHandler serves the signed-in admin's own record.
type ProfileHandler struct {
	client *backend.Client
	reads  *reads.Service
}

// NewProfileHandler constructs a profile handler.
func NewProfileHandler(client *backend.Client, readsSvc *reads.Service) *ProfileHandler {
	return &ProfileHandler{client: client, reads: readsSvc}
}

// Get returns the extended admin record for the current session.
func (h *ProfileHandler) Get(c *gin.Context) {
	sess := sessionFrom(c)
	profile, errLoad := h.reads.AdminProfile(c.Request.Context(), sess.AccessToken, sess.Admin.ID)
	if errLoad != nil {
		writeBackendError(c, errLoad)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "admin": profile})
}

// ChangePassword updates the signed-in admin's password on the backend.
func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	var body backend.ChangePasswordParams
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	sess := sessionFrom(c)
	message, errChange := h.client.ChangePassword(c.Request.Context(), sess.AccessToken, body)
	if errChange != nil {
		writeBackendError(c, errChange)
		return
	}

	h.reads.Invalidate(c.Request.Context(), cache.TagAdmin)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}
