// Package console registers the admin console's HTTP surface: the public
// auth endpoints and the session-guarded dashboard API.
package console

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/finsim-app/admin-console/internal/backend"
	"github.com/finsim-app/admin-console/internal/config"
	handlers "github.com/finsim-app/admin-console/internal/http/api/console/handlers"
	"github.com/finsim-app/admin-console/internal/ratelimit"
	"github.com/finsim-app/admin-console/internal/reads"
	"github.com/finsim-app/admin-console/internal/security"
	"github.com/finsim-app/admin-console/internal/session"
)

// maxAuthAttemptsPerMinute bounds login and reset attempts per client.
const maxAuthAttemptsPerMinute = 10

// RegisterConsoleRoutes registers console routes, middleware, and handlers.
func RegisterConsoleRoutes(r *gin.Engine, db *gorm.DB, store *session.Store, client *backend.Client, readsSvc *reads.Service, limiter *ratelimit.Manager, jwtCfg config.JWTConfig) {
	if r == nil || store == nil || client == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(db)
	r.GET("/healthz", healthHandler.Healthz)

	versionHandler := handlers.NewVersionHandler()
	r.GET("/v0/version", versionHandler.GetVersion)

	authGroup := r.Group("/v0/auth")
	authGroup.Use(authThrottleMiddleware(limiter))

	authHandler := handlers.NewAuthHandler(store, client, jwtCfg)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/forgot-password", authHandler.ForgotPassword)
	authGroup.POST("/resend-otp", authHandler.ResendOTP)
	authGroup.POST("/reset-password", authHandler.ResetPassword)

	guarded := r.Group("/v0")
	guarded.Use(sessionAuthMiddleware(store, jwtCfg))

	guarded.POST("/auth/logout", authHandler.Logout)

	profileHandler := handlers.NewProfileHandler(client, readsSvc)
	guarded.GET("/profile", profileHandler.Get)
	guarded.PUT("/profile/password", profileHandler.ChangePassword)

	userHandler := handlers.NewUserHandler(client, readsSvc)
	guarded.GET("/users", userHandler.List)
	guarded.PUT("/users/:id/status", userHandler.UpdateStatus)
	guarded.PUT("/users/:id/subscription/extend", userHandler.ExtendSubscription)
	guarded.PUT("/users/:id/subscription/downgrade", userHandler.DowngradeSubscription)
	guarded.PUT("/users/:id/subscription/cancel", userHandler.CancelSubscription)

	planHandler := handlers.NewPlanHandler(client, readsSvc)
	guarded.POST("/plans", planHandler.Create)
	guarded.GET("/plans", planHandler.List)
	guarded.GET("/plans/:id", planHandler.Get)
	guarded.PUT("/plans/:id", planHandler.Update)
	guarded.DELETE("/plans/:id", planHandler.Delete)

	ticketHandler := handlers.NewTicketHandler(client, readsSvc)
	guarded.GET("/tickets", ticketHandler.List)
	guarded.GET("/tickets/:id", ticketHandler.Get)
	guarded.PUT("/tickets/:id/reply", ticketHandler.Reply)

	overviewHandler := handlers.NewOverviewHandler(readsSvc)
	guarded.GET("/overview", overviewHandler.Get)
}

// authThrottleMiddleware caps auth attempts per client address.
func authThrottleMiddleware(limiter *ratelimit.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, errAllow := limiter.Allow(c.Request.Context(), "auth:"+c.ClientIP(), maxAuthAttemptsPerMinute)
		if errAllow == nil && !result.Allowed {
			c.Header("Retry-After", result.Reset.UTC().Format(http.TimeFormat))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many attempts, try again later"})
			return
		}
		c.Next()
	}
}

// sessionAuthMiddleware validates console session tokens and loads the
// persisted session. A missing, invalid or logged-out session gets a 401
// with a login redirect hint.
func sessionAuthMiddleware(store *session.Store, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "missing authorization header")
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			unauthorized(c, "invalid authorization format")
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			unauthorized(c, "empty token")
			return
		}

		claims, errJWT := security.ParseSessionToken(jwtCfg.Secret, token)
		if errJWT != nil {
			unauthorized(c, "invalid token")
			return
		}

		sess, errFind := store.Get(c.Request.Context(), claims.SessionKey)
		if errFind != nil {
			unauthorized(c, "session expired")
			return
		}
		if !sess.LoggedIn() {
			unauthorized(c, "not signed in")
			return
		}

		c.Set(handlers.ContextSessionKey, sess)
		c.Set(handlers.ContextAdminIDKey, sess.Admin.ID)
		c.Next()
	}
}

// unauthorized aborts with 401 and the path the caller should return to.
func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message, "redirect": "/login"})
}
