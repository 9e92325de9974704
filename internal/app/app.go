// Package app wires the console's components together and runs the HTTP
// server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/finsim-app/admin-console/internal/backend"
	"github.com/finsim-app/admin-console/internal/cache"
	"github.com/finsim-app/admin-console/internal/config"
	"github.com/finsim-app/admin-console/internal/db"
	console "github.com/finsim-app/admin-console/internal/http/api/console"
	"github.com/finsim-app/admin-console/internal/ratelimit"
	"github.com/finsim-app/admin-console/internal/reads"
	"github.com/finsim-app/admin-console/internal/session"
)

// shutdownTimeout bounds how long in-flight requests may run after a
// termination signal.
const shutdownTimeout = 10 * time.Second

// Migrate opens the session database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	return db.Migrate(conn)
}

// RunServer boots the console API and blocks until ctx is cancelled or
// the listener fails.
func RunServer(ctx context.Context, cfg config.AppConfig, port int) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)

	dsn, errDSN := config.LoadDatabaseDSN(configPath)
	if errDSN != nil {
		return errDSN
	}
	conn, errOpen := db.Open(dsn)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	jwtCfg, errJWT := config.LoadJWTConfig(configPath)
	if errJWT != nil {
		return errJWT
	}
	backendCfg, errBackend := config.LoadBackendConfig(configPath)
	if errBackend != nil {
		return errBackend
	}
	pollCfg := config.LoadPollConfig(configPath)
	redisCfg := config.LoadRedisConfig(configPath)

	// The mirror interface must stay nil when no Redis is configured, a
	// typed nil pointer would not compare equal to nil.
	var mirror cache.Mirror
	if redisMirror := cache.NewRedisMirror(redisCfg); redisMirror != nil {
		mirror = redisMirror
		log.WithField("addr", redisCfg.Addr).Info("redis cache mirror enabled")
	}

	store := session.NewStore(conn)
	client := backend.NewClient(backendCfg)
	readsSvc := reads.NewService(client, cache.New(mirror), pollCfg)
	defer readsSvc.Close()
	limiter := ratelimit.NewManager(redisCfg)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())
	engine.Use(cors.New(corsConfig()))

	console.RegisterConsoleRoutes(engine, conn, store, client, readsSvc, limiter, jwtCfg)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("console server listening")
		if errServe := srv.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			errCh <- errServe
			return
		}
		errCh <- nil
	}()

	select {
	case errServe := <-errCh:
		return errServe
	case <-ctx.Done():
	}

	log.Info("shutting down console server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if errShutdown := srv.Shutdown(shutdownCtx); errShutdown != nil {
		return fmt.Errorf("shutdown: %w", errShutdown)
	}
	return <-errCh
}

// corsConfig allows the browser frontend to call the API from another
// origin with the session bearer header.
func corsConfig() cors.Config {
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	return corsCfg
}

// requestLogger logs one line per request.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start).String(),
		}).Info("request")
	}
}
