package telemetry

import (
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool          // include bound variables in db.statement (dev only)
	SlowQueryThresh time.Duration // statements slower than this get a slow_query event
	DBSystem        string
	TracerProvider  trace.TracerProvider // nil uses the global provider
}

// DefaultDBTracingConfig returns default configuration for database tracing.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "postgresql",
	}
}

// DBTracingPlugin wraps the otelgorm plugin with slow statement detection.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates a new database tracing plugin with the given configuration.
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}
	return &DBTracingPlugin{
		config: cfg,
		logger: logger,
	}
}

// Register installs otelgorm and the slow statement callbacks on db.
func (p *DBTracingPlugin) Register(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{
		otelgorm.WithDBName(p.config.DBSystem),
	}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if p.config.TracerProvider != nil {
		opts = append(opts, otelgorm.WithTracerProvider(p.config.TracerProvider))
	}

	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return fmt.Errorf("failed to register otelgorm: %w", err)
	}
	if err := p.registerTimingCallbacks(db); err != nil {
		return fmt.Errorf("failed to register slow query callbacks: %w", err)
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
	)
	return nil
}

type callbackRegister interface {
	Register(name string, fn func(*gorm.DB)) error
}

const queryStartKey = "panel:query_start"

// registerTimingCallbacks brackets each statement; the after hook runs before otelgorm ends the span.
func (p *DBTracingPlugin) registerTimingCallbacks(db *gorm.DB) error {
	cb := db.Callback()
	hooks := []struct {
		callback callbackRegister
		hook     func(*gorm.DB)
		name     string
	}{
		{cb.Create().Before("gorm:create"), markStart, "before_create"},
		{cb.Create().After("gorm:create").Before("otel:after:create"), p.afterStatement, "after_create"},
		{cb.Query().Before("gorm:query"), markStart, "before_query"},
		{cb.Query().After("gorm:query").Before("otel:after:select"), p.afterStatement, "after_query"},
		{cb.Update().Before("gorm:update"), markStart, "before_update"},
		{cb.Update().After("gorm:update").Before("otel:after:update"), p.afterStatement, "after_update"},
		{cb.Delete().Before("gorm:delete"), markStart, "before_delete"},
		{cb.Delete().After("gorm:delete").Before("otel:after:delete"), p.afterStatement, "after_delete"},
		{cb.Row().Before("gorm:row"), markStart, "before_row"},
		{cb.Row().After("gorm:row").Before("otel:after:row"), p.afterStatement, "after_row"},
		{cb.Raw().Before("gorm:raw"), markStart, "before_raw"},
		{cb.Raw().After("gorm:raw").Before("otel:after:raw"), p.afterStatement, "after_raw"},
	}

	var errs []error
	for _, h := range hooks {
		if err := h.callback.Register("panel_timing:"+h.name, h.hook); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func markStart(db *gorm.DB) {
	db.InstanceSet(queryStartKey, time.Now())
}

func (p *DBTracingPlugin) afterStatement(db *gorm.DB) {
	if db.Statement.Context == nil {
		return
	}
	span := trace.SpanFromContext(db.Statement.Context)
	if !span.IsRecording() {
		return
	}

	v, ok := db.InstanceGet(queryStartKey)
	if !ok {
		return
	}
	start, ok := v.(time.Time)
	if !ok {
		return
	}

	elapsed := time.Since(start)
	if elapsed <= p.config.SlowQueryThresh {
		return
	}
	span.SetAttributes(
		attribute.Bool("db.slow_query", true),
		attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
	)
	span.AddEvent("slow_query_warning", trace.WithAttributes(
		attribute.Int64("duration_ms", elapsed.Milliseconds()),
		attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
	))
	p.logger.Warn("Slow statement",
		zap.String("table", db.Statement.Table),
		zap.Duration("elapsed", elapsed),
	)
}
