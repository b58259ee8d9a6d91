package router

import (
	"github.com/gin-gonic/gin"
	panelapp "github.com/procurement/backoffice/internal/application/panel"
	"github.com/procurement/backoffice/internal/infrastructure/auth"
	"github.com/procurement/backoffice/internal/infrastructure/config"
	"github.com/procurement/backoffice/internal/infrastructure/i18n"
	"github.com/procurement/backoffice/internal/infrastructure/logger"
	"github.com/procurement/backoffice/internal/infrastructure/telemetry"
	"github.com/procurement/backoffice/internal/interfaces/http/handler"
	"github.com/procurement/backoffice/internal/interfaces/http/middleware"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/procurement/backoffice/docs"
)

// AdminBasePath is where every panel page and action is mounted
const AdminBasePath = "/admin"

// Dependencies are the collaborators the HTTP surface is built from
type Dependencies struct {
	Config       *config.Config
	Logger       *zap.Logger
	JWT          *auth.JWTService
	Translations *i18n.Table
	Pages        *panelapp.PageService
	DB           handler.Pinger
	Meters       *telemetry.MeterProvider
	// RateLimiter throttles /admin per actor, nil disables it
	RateLimiter *middleware.RateLimiter
	Version     string
}

// New builds the gin engine with the middleware stack and all routes.
//
// Middleware order:
//  1. Recovery - catch panics
//  2. RequestID - generate or propagate the request ID
//  3. Tracing - server span per request, error status on failures
//  4. Logger - request logging with correlation fields
//  5. Security headers, CORS, body limit and HTTP metrics
//
// The /admin group additionally authenticates the actor, resolves the
// locale and applies rate limiting.
func New(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(logger.Recovery(log))
	engine.Use(middleware.RequestID())
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfigFrom(cfg.HTTP)))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: deps.Meters,
		Enabled:       cfg.Telemetry.MetricsEnabled,
		Logger:        log,
	}))

	systemHandler := handler.NewSystemHandler(deps.Version, deps.DB)
	engine.GET("/health", systemHandler.Health)

	jwtAuth := middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService: deps.JWT,
		Logger:     log,
	})
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfigFrom(cfg.HTTP, cfg.App.Env == "production"), jwtAuth),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	api := NewRouter(engine, WithAPIVersion("v1"))
	api.Register(SystemRoutes(systemHandler))
	api.Setup()

	admin := NewRouter(engine, WithBasePath(AdminBasePath))
	admin.Use(jwtAuth, middleware.Locale(deps.Translations), middleware.TracingAttributeInjector())
	if deps.RateLimiter != nil {
		admin.Use(middleware.RateLimit(deps.RateLimiter))
	}
	admin.Register(PanelRoutes(
		handler.NewPanelHandler(deps.Pages),
		handler.NewTranslationHandler(deps.Translations),
	))
	admin.Setup()

	return engine
}

// SystemRoutes are the unauthenticated system endpoints under /api/v1
func SystemRoutes(h *handler.SystemHandler) *DomainGroup {
	return NewDomainGroup("system", "/system").
		GET("/ping", h.Ping)
}

// PanelRoutes serve every registered resource through one set of generic routes
func PanelRoutes(pages *handler.PanelHandler, translations *handler.TranslationHandler) *DomainGroup {
	g := NewDomainGroup("panel", "")
	g.GET("/resources", pages.ListResources)
	g.GET("/translations/:locale", translations.Translate)

	g.GET("/:resource", pages.List)
	g.POST("/:resource", pages.Create)
	g.GET("/:resource/create", pages.CreatePage)
	g.GET("/:resource/:id", pages.View)
	g.PUT("/:resource/:id", pages.Update)
	g.DELETE("/:resource/:id", pages.Delete)
	g.GET("/:resource/:id/edit", pages.EditPage)
	g.DELETE("/:resource/:id/force", pages.ForceDelete)
	g.POST("/:resource/:id/restore", pages.Restore)
	return g
}
