package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bitbucket.org/mmdatafocus/inventory_backend/analytics"
	"bitbucket.org/mmdatafocus/inventory_backend/config"
	"bitbucket.org/mmdatafocus/inventory_backend/handlers"
	"bitbucket.org/mmdatafocus/inventory_backend/models"
	"bitbucket.org/mmdatafocus/inventory_backend/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only log when there are errors
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func registerRoutes(r *gin.Engine) {
	r.POST("/businesses", handlers.CreateBusiness)

	api := r.Group("/api/v1")
	api.Use(handlers.BusinessMiddleware())
	{
		api.GET("/business", handlers.GetBusiness)

		api.POST("/categories", handlers.CreateItemCategory)
		api.GET("/categories", handlers.GetItemCategories)
		api.GET("/categories/:id", handlers.GetItemCategory)
		api.PUT("/categories/:id", handlers.UpdateItemCategory)
		api.DELETE("/categories/:id", handlers.DeleteItemCategory)
		api.PUT("/categories/:id/active", handlers.ToggleActiveItemCategory)

		api.POST("/items", handlers.CreateItem)
		api.GET("/items", handlers.GetItems)
		api.GET("/items/:id", handlers.GetItem)
		api.PUT("/items/:id", handlers.UpdateItem)
		api.DELETE("/items/:id", handlers.DeleteItem)
		api.PUT("/items/:id/active", handlers.ToggleActiveItem)

		api.POST("/consumption-records", handlers.CreateConsumptionRecord)
		api.GET("/items/:id/consumption-records", handlers.GetConsumptionRecords)
		api.PUT("/consumption-records/:id", handlers.UpdateConsumptionRecord)
		api.DELETE("/consumption-records/:id", handlers.DeleteConsumptionRecord)
		api.POST("/consumption-records/import", handlers.ImportConsumption)

		api.POST("/items/:id/profile/refresh", handlers.RefreshItemProfile)
		api.GET("/items/:id/abnormal-days", handlers.GetAbnormalDays)
		api.POST("/items/:id/correlations/:otherId/refresh", handlers.RefreshCorrelation)
		api.GET("/items/:id/correlations", handlers.GetItemCorrelations)
		api.GET("/items/:id/recommendations", handlers.GetRecommendations)
		api.POST("/analytics/refresh", handlers.RefreshAnalytics)

		api.GET("/reports/profiles", handlers.GetProfileReport)
		api.GET("/reports/correlations", handlers.GetCorrelationReport)
		api.GET("/reports/export", handlers.ExportAnalytics)
	}
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so Cloud Run considers the revision healthy.
	// Until DB/Redis are ready, we return 503 for app endpoints.
	r := gin.New()
	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		// Always allow the startup probe.
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		// Gate app endpoints on dependency readiness.
		if config.GetDB() == nil || config.GetRedisDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// Production-safe CORS: explicit allowlist via CORS_ALLOWED_ORIGINS in
	// production, allow-all otherwise.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			// Safer default: deny all if not configured in production.
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization", "X-Business-Id")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())
	registerRoutes(r)
	r.NoRoute(customNotFoundHandler)

	// Start listening immediately (startup probe is TCP based).
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// AutoMigrate can run DDL that blocks tables; allow disabling migrations on
	// startup and running them as a separate job instead.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	// Periodic stale-only analytics refresh across all businesses.
	// Env: ANALYTICS_CRON_SPEC (default hourly), ANALYTICS_CRON_DISABLED=true to turn off.
	cronRunner := cron.New()
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("ANALYTICS_CRON_DISABLED")), "true") {
		cronSpec := strings.TrimSpace(os.Getenv("ANALYTICS_CRON_SPEC"))
		if cronSpec == "" {
			cronSpec = "@hourly"
		}
		if _, err := cronRunner.AddFunc(cronSpec, func() {
			analytics.RefreshStaleBusinesses(context.Background())
		}); err != nil {
			config.LogError(logger, "server.go", "main", "Invalid analytics cron spec", cronSpec, err)
		} else {
			cronRunner.Start()
		}
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port, "/")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Stop background workers first so they don't start new work while draining.
	cronStopCtx := cronRunner.Stop()
	<-cronStopCtx.Done()

	// Drain HTTP requests.
	shutdownTimeout := 30 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	// Close Redis (best-effort).
	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}
