package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/finsim-app/admin-console/internal/backend"
	"github.com/finsim-app/admin-console/internal/config"
	"github.com/finsim-app/admin-console/internal/security"
	"github.com/finsim-app/admin-console/internal/session"
)

// AuthHandler implements login, logout and the password reset flow.
type AuthHandler struct {
	store  *session.Store  // Persisted console sessions.
	client *backend.Client // Remote FinSim API.
	jwtCfg config.JWTConfig
}

// NewAuthHandler constructs an auth handler.
func NewAuthHandler(store *session.Store, client *backend.Client, jwtCfg config.JWTConfig) *AuthHandler {
	return &AuthHandler{store: store, client: client, jwtCfg: jwtCfg}
}

// Login authenticates against the backend, persists the returned
// credentials under a fresh session key and hands the caller a console
// session token scoped to that key.
func (h *AuthHandler) Login(c *gin.Context) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	result, errLogin := h.client.Login(c.Request.Context(), body.Email, body.Password)
	if errLogin != nil {
		writeBackendError(c, errLogin)
		return
	}

	key, errKey := security.NewSessionKey()
	if errKey != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	if errSave := h.store.SetCredentials(c.Request.Context(), key, result.Admin, result.AccessToken, result.RefreshToken); errSave != nil {
		log.WithError(errSave).Error("login: persist session failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	token, errToken := security.MakeSessionToken(h.jwtCfg.Secret, key, result.Admin.ID, h.jwtCfg.Expiry)
	if errToken != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": result.Message,
		"admin":   result.Admin,
		"token":   token,
	})
}

// Logout removes the caller's persisted session. The backend tokens are
// simply discarded; the backend keeps its own expiry.
func (h *AuthHandler) Logout(c *gin.Context) {
	sess := sessionFrom(c)
	if sess == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
		return
	}

	if errLogout := h.store.Logout(c.Request.Context(), sess.Key); errLogout != nil {
		log.WithError(errLogout).Error("logout: remove session failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to log out"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ForgotPassword starts the email-OTP reset flow and records that an OTP
// is on its way for this email.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var body struct {
		Email string `json:"email"`
	}
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	message, errSend := h.client.ForgotPassword(c.Request.Context(), body.Email)
	if errSend != nil {
		writeBackendError(c, errSend)
		return
	}

	h.store.StartReset(body.Email)
	h.store.SetOTPSent(body.Email, true)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}

// ResendOTP emails a fresh code for a reset flow that is already open.
func (h *AuthHandler) ResendOTP(c *gin.Context) {
	var body struct {
		Email string `json:"email"`
	}
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	if inProgress, _ := h.store.ResetInProgress(body.Email); !inProgress {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no password reset in progress"})
		return
	}

	message, errResend := h.client.ResendOTP(c.Request.Context(), body.Email)
	if errResend != nil {
		writeBackendError(c, errResend)
		return
	}

	h.store.SetOTPSent(body.Email, true)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}

// ResetPassword completes the reset flow. A rejected OTP leaves the flow
// open so the caller can retry with a fresh code; any other success or
// hard failure ends it.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var body backend.ResetPasswordParams
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	message, errReset := h.client.ResetPassword(c.Request.Context(), body)
	if errReset != nil {
		// The flow stays open on failure, including a rejected OTP, so
		// the caller can retry with a fresh code.
		writeBackendError(c, errReset)
		return
	}

	h.store.ClearReset(body.Email)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}
