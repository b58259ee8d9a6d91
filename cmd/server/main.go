package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	panelapp "github.com/procurement/backoffice/internal/application/panel"
	"github.com/procurement/backoffice/internal/domain/panel"
	"github.com/procurement/backoffice/internal/domain/shared"
	"github.com/procurement/backoffice/internal/infrastructure/auth"
	"github.com/procurement/backoffice/internal/infrastructure/cache"
	"github.com/procurement/backoffice/internal/infrastructure/config"
	"github.com/procurement/backoffice/internal/infrastructure/i18n"
	"github.com/procurement/backoffice/internal/infrastructure/logger"
	"github.com/procurement/backoffice/internal/infrastructure/persistence"
	"github.com/procurement/backoffice/internal/infrastructure/persistence/models"
	"github.com/procurement/backoffice/internal/infrastructure/telemetry"
	"github.com/procurement/backoffice/internal/interfaces/http/middleware"
	"github.com/procurement/backoffice/internal/interfaces/http/router"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Procurement Backoffice API
//	@version		1.0
//	@description	Admin panel for procurement resources
//	@BasePath		/

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.ConfigFrom(cfg.Telemetry), log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize log export", zap.Error(err))
	}
	log = telemetry.Bridge(log, telemetry.NewZapOTELCore(cfg.Telemetry.ServiceName, loggerProvider, zapcore.InfoLevel))
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting procurement backoffice",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	db, err := persistence.NewDatabase(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThreshold),
		logger.WithIgnoreRecordNotFoundError(true),
	)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully", zap.String("driver", cfg.Database.Driver))

	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	dbTracing.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThreshold
	dbTracing.DBSystem = cfg.Database.Driver
	if err := telemetry.NewDBTracingPlugin(dbTracing, log).Register(db.DB); err != nil {
		log.Fatal("Failed to enable database tracing", zap.Error(err))
	}

	// Postgres schemas are managed by cmd/migrate; a sqlite file is created in place.
	if cfg.Database.Driver == "sqlite" {
		if err := db.DB.AutoMigrate(&models.RecordModel{}); err != nil {
			log.Fatal("Failed to create sqlite schema", zap.Error(err))
		}
	}

	translations, err := i18n.Default(i18n.WithDefaultLocale(cfg.Panel.DefaultLocale))
	if err != nil {
		log.Fatal("Failed to load translations", zap.Error(err))
	}

	pages := panelapp.NewPageService(panel.DefaultRegistry(), persistence.NewGormRecordRepository(db.DB), translations)
	pages.SetLogger(log)
	pages.SetPageSizes(cfg.Panel.DefaultPageSize, cfg.Panel.MaxPageSize)

	store, err := cache.NewIdempotencyStoreFactory(cfg.Panel, cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	if store != nil {
		pages.SetIdempotencyStore(store, shared.IdempotencyConfig{
			TTL:     cfg.Panel.IdempotencyTTL,
			Enabled: cfg.Panel.IdempotencyEnabled,
		})
		if closer, ok := store.(io.Closer); ok {
			defer closer.Close()
		}
	}

	if meterProvider.IsEnabled() {
		panelMetrics, err := telemetry.NewPanelMetrics(meterProvider.Meter("procurement.panel"))
		if err != nil {
			log.Fatal("Failed to create panel metrics", zap.Error(err))
		}
		pages.SetMetrics(panelMetrics)
	}

	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer limiter.Stop()
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := router.New(router.Dependencies{
		Config:       cfg,
		Logger:       log,
		JWT:          auth.NewJWTService(cfg.JWT),
		Translations: translations,
		Pages:        pages,
		DB:           db,
		Meters:       meterProvider,
		RateLimiter:  limiter,
		Version:      version,
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	for name, shutdown := range map[string]func(context.Context) error{
		"tracer": tracerProvider.Shutdown,
		"meter":  meterProvider.Shutdown,
		"logs":   loggerProvider.Shutdown,
	} {
		if err := shutdown(shutdownCtx); err != nil {
			log.Warn("Telemetry shutdown failed", zap.String("provider", name), zap.Error(err))
		}
	}

	log.Info("Server exited gracefully")
}
