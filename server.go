package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/servicecenter_backend/catalog"
	"github.com/mmdatafocus/servicecenter_backend/config"
	"github.com/mmdatafocus/servicecenter_backend/hierarchy"
	"github.com/mmdatafocus/servicecenter_backend/middlewares"
	"github.com/mmdatafocus/servicecenter_backend/models"
	"github.com/mmdatafocus/servicecenter_backend/store"
	"github.com/mmdatafocus/servicecenter_backend/utils"
	"github.com/mmdatafocus/servicecenter_backend/workflow"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const defaultPort = "8080"

type uploadFunc func(ctx context.Context, objectName string, data []byte, contentType string) (string, error)

// server holds the services behind the HTTP surface. It is attached once the database is up.
type server struct {
	db      *gorm.DB
	store   store.Store
	orders  *hierarchy.Service
	catalog *catalog.Service
	logger  *logrus.Logger
	upload  uploadFunc
	now     func() time.Time
	ready   atomic.Bool
}

func newServer(logger *logrus.Logger) *server {
	return &server{
		logger: logger,
		upload: utils.UploadBytesToGCS,
		now:    time.Now,
	}
}

// attach wires the services to db and opens the readiness gate.
func (s *server) attach(db *gorm.DB, opts ...hierarchy.Option) {
	s.db = db
	s.store = store.NewGormStore(db)
	s.orders = hierarchy.NewService(s.store, append([]hierarchy.Option{hierarchy.WithLogger(s.logger)}, opts...)...)
	s.catalog = catalog.NewService(s.store)
	s.ready.Store(true)
}

func (s *server) isReady() bool {
	return s.ready.Load()
}

func newRouter(s *server) *gin.Engine {
	r := gin.New()
	r.Use(middlewares.CorrelationMiddleware())
	// Until the database is ready, app endpoints answer 503.
	r.Use(middlewares.ReadinessGate(s.isReady))
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	r.Use(cors.New(corsConfig()))
	r.Use(middlewares.SessionMiddleware())
	r.Use(middlewares.ErrorLogger(s.logger))
	r.Use(gin.Recovery())
	s.routes(r)
	r.NoRoute(customNotFoundHandler)
	return r
}

func corsConfig() cors.Config {
	corsConfig := cors.DefaultConfig()
	// In production, require an explicit allowlist via CORS_ALLOWED_ORIGINS (comma-separated).
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization",
		middlewares.HeaderCorrelationId, middlewares.HeaderUserId, middlewares.HeaderUserName)
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition", middlewares.HeaderCorrelationId)
	if !corsConfig.AllowAllOrigins {
		corsConfig.AllowCredentials = true
	}
	return corsConfig
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
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
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		gin.SetMode(gin.ReleaseMode)
	}

	// Cloud Run sends SIGTERM on revision shutdown.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	app := newServer(logger)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           newRouter(app),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()

	// AutoMigrate can block tables; SKIP_MIGRATIONS=true runs them as a separate job instead.
	if config.MigrationsEnabled() {
		if err := models.MigrateTable(db); err != nil {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Fatal(err.Error())
		}
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	var opts []hierarchy.Option
	if config.RedisConfigured() {
		config.ConnectRedisWithRetry()
		if config.ServiceOrderLockEnabled() && config.GetRedisLock() != nil {
			opts = append(opts, hierarchy.WithLocker(hierarchy.NewRedisLocker(config.GetRedisLock())))
		}
	} else {
		logger.WithFields(logrus.Fields{"field": "redis"}).Warn("REDIS_ADDRESS not set; running without part cache and service order lock")
	}
	app.attach(db, opts...)

	// The dispatcher publishes events after their transaction committed.
	dispatcherCtx, cancelDispatcher := context.WithCancel(context.Background())
	defer cancelDispatcher()
	if config.OutboxDispatcherEnabled() {
		go workflow.NewOutboxDispatcher(db, logger, workflow.PubSubPublisher).Run(dispatcherCtx)
	}

	log.Printf("server started on :%s", port)

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Stop background work first so it does not start new batches while we drain.
	cancelDispatcher()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	config.ClosePubSubClient()
	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
