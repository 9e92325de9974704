package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/finsim-app/admin-console/internal/backend"
	"github.com/finsim-app/admin-console/internal/cache"
	"github.com/finsim-app/admin-console/internal/models"
	"github.com/finsim-app/admin-console/internal/reads"
)

// UserHandler serves the user table and the per-user account and
// subscription actions.
type UserHandler struct {
	client *backend.Client
	reads  *reads.Service
}

// NewUserHandler constructs a user handler.
func NewUserHandler(client *backend.Client, readsSvc *reads.Service) *UserHandler {
	return &UserHandler{client: client, reads: readsSvc}
}

// userView is a user row with the derived tier label attached.
type userView struct {
	models.User
	Tier string `json:"tier"` // Premium or Free.
}

// List returns every user with the derived subscription tier.
func (h *UserHandler) List(c *gin.Context) {
	sess := sessionFrom(c)
	users, errLoad := h.reads.Users(c.Request.Context(), sess.AccessToken)
	if errLoad != nil {
		writeBackendError(c, errLoad)
		return
	}

	views := make([]userView, 0, len(users))
	for i := range users {
		views = append(views, userView{User: users[i], Tier: models.TierLabel(&users[i])})
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "users": views})
}

// UpdateStatus blocks or unblocks a user account.
func (h *UserHandler) UpdateStatus(c *gin.Context) {
	var body struct {
		IsActive *bool `json:"isActive"`
	}
	if errBind := c.ShouldBindJSON(&body); errBind != nil || body.IsActive == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "isActive is required"})
		return
	}

	sess := sessionFrom(c)
	if errUpdate := h.client.UpdateUserStatus(c.Request.Context(), sess.AccessToken, c.Param("id"), *body.IsActive); errUpdate != nil {
		writeBackendError(c, errUpdate)
		return
	}

	h.reads.Invalidate(c.Request.Context(), cache.TagUsers)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// findUser locates a user in the cached list. Subscription actions only
// apply to users the table currently shows.
func (h *UserHandler) findUser(c *gin.Context, token, userID string) (*models.User, bool) {
	users, errLoad := h.reads.Users(c.Request.Context(), token)
	if errLoad != nil {
		writeBackendError(c, errLoad)
		return nil, false
	}
	for i := range users {
		if users[i].ID == userID {
			return &users[i], true
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	return nil, false
}

// requirePremium loads the target user and refuses the action unless they
// hold an active subscription.
func (h *UserHandler) requirePremium(c *gin.Context, token string) (*models.User, bool) {
	userID := strings.TrimSpace(c.Param("id"))
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user id is required"})
		return nil, false
	}

	user, ok := h.findUser(c, token, userID)
	if !ok {
		return nil, false
	}
	if !models.IsPremium(user) {
		c.JSON(http.StatusConflict, gin.H{"error": "user has no active subscription"})
		return nil, false
	}
	return user, true
}

// ExtendSubscription adds one of the offered day counts to a premium
// user's expiry.
func (h *UserHandler) ExtendSubscription(c *gin.Context) {
	var body struct {
		ExtraDays int `json:"extraDays"`
	}
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	sess := sessionFrom(c)
	user, ok := h.requirePremium(c, sess.AccessToken)
	if !ok {
		return
	}

	subscription, errExtend := h.client.ExtendSubscription(c.Request.Context(), sess.AccessToken, user.ID, body.ExtraDays)
	if errExtend != nil {
		writeBackendError(c, errExtend)
		return
	}

	h.reads.Invalidate(c.Request.Context(), cache.TagUsers)
	c.JSON(http.StatusOK, gin.H{"success": true, "subscription": subscription})
}

// DowngradeSubscription reverts a premium user to the free tier.
func (h *UserHandler) DowngradeSubscription(c *gin.Context) {
	sess := sessionFrom(c)
	user, ok := h.requirePremium(c, sess.AccessToken)
	if !ok {
		return
	}

	message, errDowngrade := h.client.DowngradeSubscription(c.Request.Context(), sess.AccessToken, user.ID)
	if errDowngrade != nil {
		writeBackendError(c, errDowngrade)
		return
	}

	h.reads.Invalidate(c.Request.Context(), cache.TagUsers)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}

// CancelSubscription cancels a premium user's subscription.
func (h *UserHandler) CancelSubscription(c *gin.Context) {
	sess := sessionFrom(c)
	user, ok := h.requirePremium(c, sess.AccessToken)
	if !ok {
		return
	}

	message, errCancel := h.client.CancelSubscription(c.Request.Context(), sess.AccessToken, user.ID)
	if errCancel != nil {
		writeBackendError(c, errCancel)
		return
	}

	h.reads.Invalidate(c.Request.Context(), cache.TagUsers)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}
