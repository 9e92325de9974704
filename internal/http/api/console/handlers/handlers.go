// Package handlers implements the console's HTTP endpoints. Handlers
// never talk to the FinSim backend directly for reads; they go through
// the read service so list screens share cached, polled data. Writes go
// through the backend client and invalidate the affected cache tags.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/finsim-app/admin-console/internal/backend"
	"github.com/finsim-app/admin-console/internal/session"
)

// Context keys set by the session guard.
const (
	ContextSessionKey = "consoleSession"
	ContextAdminIDKey = "adminID"
)

// sessionFrom returns the guard-loaded session, or nil outside guarded
// routes.
func sessionFrom(c *gin.Context) *session.Session {
	v, ok := c.Get(ContextSessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*session.Session)
	return sess
}

// writeBackendError translates a backend client failure into a console
// response. Validation failures are the caller's fault; APIError keeps
// the backend's status and message; anything else means the backend was
// unreachable.
func writeBackendError(c *gin.Context, err error) {
	if errors.Is(err, backend.ErrValidation) {
		message := strings.TrimSpace(strings.TrimPrefix(err.Error(), backend.ErrValidation.Error()+": "))
		c.JSON(http.StatusBadRequest, gin.H{"error": message})
		return
	}

	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		status := apiErr.StatusCode
		if status < http.StatusBadRequest || status > 599 {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": apiErr.Message})
		return
	}

	c.JSON(http.StatusBadGateway, gin.H{"error": "backend unavailable"})
}
