package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rendezvous-csd/rendezvous-api/config"
	"github.com/rendezvous-csd/rendezvous-api/internal/cache"
	"github.com/rendezvous-csd/rendezvous-api/internal/handlers"
	"github.com/rendezvous-csd/rendezvous-api/internal/middleware"
	"github.com/rendezvous-csd/rendezvous-api/internal/models"
	"github.com/rendezvous-csd/rendezvous-api/internal/repository"
	"github.com/rendezvous-csd/rendezvous-api/internal/services"
	"github.com/rendezvous-csd/rendezvous-api/pkg/db"
	"github.com/rendezvous-csd/rendezvous-api/pkg/jwt"
	"github.com/rendezvous-csd/rendezvous-api/pkg/logger"
	"github.com/rendezvous-csd/rendezvous-api/pkg/metrics"
	"github.com/rendezvous-csd/rendezvous-api/pkg/objectstore"
	"github.com/rendezvous-csd/rendezvous-api/pkg/profiling"
	"github.com/rendezvous-csd/rendezvous-api/pkg/tracing"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const sessionSweepInterval = 10 * time.Minute

// newSessionStore picks the session store named by SESSION_STORE
func newSessionStore(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) services.SessionStore {
	if cfg.Session.Store == config.SessionStorePostgres {
		repo := repository.NewSessionRepository(pool)
		go sweepSessions(ctx, repo)
		logger.Info("Using PostgreSQL session store")
		return repo
	}

	logger.Info("Using in-memory session store")
	return cache.NewSessionCache(sessionSweepInterval)
}

// sweepSessions deletes expired session rows until ctx is done
func sweepSessions(ctx context.Context, repo *repository.SessionRepository) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := repo.PurgeExpired(ctx, now); err != nil {
				logger.Warn("Failed to purge expired sessions", zap.Error(err))
			}
		}
	}
}

// newUploadArchiver returns nil unless upload archiving is enabled
func newUploadArchiver(cfg *config.Config) services.UploadArchiver {
	if !cfg.Upload.ArchiveEnabled {
		return nil
	}

	client, err := objectstore.NewArchiveClient(objectstore.Config{
		AccessKeyID:     cfg.Upload.Archive.AccessKeyID,
		SecretAccessKey: cfg.Upload.Archive.SecretAccessKey,
		Bucket:          cfg.Upload.Archive.Bucket,
		Endpoint:        cfg.Upload.Archive.Endpoint,
		Region:          cfg.Upload.Archive.Region,
		Prefix:          cfg.Upload.Archive.Prefix,
	})
	if err != nil {
		logger.Fatal("Failed to initialize upload archive client", zap.Error(err))
	}
	return client
}

// registerRoutes wires the portal endpoints onto the router
func registerRoutes(
	router *gin.Engine,
	cfg *config.Config,
	authService services.AuthServiceInterface,
	cookie middleware.SessionCookie,
	authHandler *handlers.AuthHandler,
	importHandler *handlers.ImportHandler,
	healthHandler *handlers.HealthHandler,
) {
	router.POST("/", middleware.BodySizeLimitMiddleware(16*1024), authHandler.Login)
	router.GET("/", authHandler.Status)
	router.POST("/logout", authHandler.Logout)

	uploads := []gin.HandlerFunc{middleware.BodySizeLimitMiddleware(cfg.Upload.MaxBytes)}
	if cfg.Upload.RequireAdmin {
		uploads = append(uploads, middleware.RequireRoleMiddleware(authService, cookie, models.RoleAdministrator))
	} else {
		logger.Warn("Spreadsheet import endpoints are open: UPLOAD_REQUIRE_ADMIN is disabled")
	}
	uploads = uploads[:len(uploads):len(uploads)]
	router.POST("/admin/insertcourses", append(uploads, importHandler.ImportCourses)...)
	router.POST("/admin", append(uploads, importHandler.ImportTeachers)...)

	api := router.Group("/api")
	api.GET("/healthcheck", healthHandler.Healthcheck)
	api.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	err = logger.Initialize(logger.Config{
		Level:       cfg.Logging.Level,
		LogDir:      cfg.Logging.Dir,
		Environment: cfg.Server.AppEnv,
		ServiceName: cfg.Observability.ServiceName,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Rendezvous API",
		zap.String("version", cfg.Observability.ServiceVersion),
		zap.String("environment", cfg.Server.AppEnv),
	)

	// Initialize distributed tracing
	tracerShutdown, err := tracing.InitTracer(tracing.Config{
		ServiceName:       cfg.Observability.ServiceName,
		ServiceNamespace:  cfg.Observability.ServiceNamespace,
		ServiceVersion:    cfg.Observability.ServiceVersion,
		ServiceInstanceID: cfg.Observability.ServiceInstanceID,
		Environment:       cfg.Server.AppEnv,
		Endpoint:          cfg.Observability.ExporterEndpoint,
	})
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tracerShutdown(ctx); shutdownErr != nil {
			logger.Error("Failed to shutdown tracer", zap.Error(shutdownErr))
		}
	}()

	stopProfiler, err := profiling.Start(profiling.Options{
		Enabled:        cfg.Profiling.Enabled,
		Endpoint:       cfg.Profiling.Endpoint,
		AppName:        cfg.Profiling.AppName,
		SampleTypes:    cfg.Profiling.SampleTypes,
		UploadInterval: time.Duration(cfg.Profiling.UploadIntervalSeconds) * time.Second,
		Tags: map[string]string{
			"environment": cfg.Server.AppEnv,
			"version":     cfg.Observability.ServiceVersion,
		},
	})
	if err != nil {
		logger.Fatal("Failed to start profiler", zap.Error(err))
	}
	defer stopProfiler()

	// Start infrastructure metrics collection
	metrics.RecordInfrastructureMetrics()

	// Background work stops with the server
	appCtx, stopApp := context.WithCancel(context.Background())
	defer stopApp()

	// Initialize PostgreSQL connection pool
	pool, err := db.NewPool(appCtx, db.PoolConfig{
		URL:        cfg.Database.URL,
		MaxConns:   cfg.Database.MaxConns,
		MinConns:   cfg.Database.MinConns,
		CACertPath: cfg.Database.CACertPath,
	})
	if err != nil {
		logger.Fatal("Failed to initialize database connection pool", zap.Error(err))
	}
	defer pool.Close()

	// NOTE: migrations run separately via cmd/migrate

	// Repositories and stores
	rosterRepo := repository.NewRosterRepository(pool)
	importRepo := repository.NewImportRepository(pool)
	sessionStore := newSessionStore(appCtx, cfg, pool)

	// Services
	tokens := jwt.NewTokenManager(cfg.Session.Secret, cfg.Session.Issuer, cfg.Session.TTL())
	sessionService := services.NewSessionService(sessionStore, tokens)
	authService := services.NewAuthService(services.NewClassifier(cfg.Roles), rosterRepo, sessionService)
	importService := services.NewImportService(importRepo, newUploadArchiver(cfg))

	// Handlers
	cookie := middleware.SessionCookie{
		Name:   cfg.Session.CookieName,
		Domain: cfg.Session.CookieDomain,
		Secure: cfg.Session.CookieSecure,
		TTL:    cfg.Session.TTL(),
	}
	authHandler := handlers.NewAuthHandler(authService, cookie)
	importHandler := handlers.NewImportHandler(importService)
	healthHandler := handlers.NewHealthHandler(pool.Ping)

	// Set up Gin router
	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Observability.ServiceName))
	router.Use(middleware.ObservabilityMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// CORS: only the portal origins, with credentials for the session cookie
	allowedOrigins := cfg.Server.AllowedOrigins
	if cfg.IsDevelopment() {
		allowedOrigins = append(allowedOrigins, "http://localhost:3000", "http://127.0.0.1:3000")
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "HEAD", "PUT", "PATCH", "POST", "DELETE"},
		AllowHeaders:     []string{"Origin", "X-Requested-With", "Content-Type", "Accept", "Authorization", "X-Custom-Header", "traceparent", "tracestate"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	registerRoutes(router, cfg, authService, cookie, authHandler, importHandler, healthHandler)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       60 * time.Second, // spreadsheet uploads
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stopApp()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
