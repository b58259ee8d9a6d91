package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

var _ gormlogger.Interface = (*GormLogger)(nil)

func sqlFunc(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestGormLogger_Options(t *testing.T) {
	gl := NewGormLogger(zap.NewNop(), gormlogger.Info,
		WithSlowThreshold(time.Second),
		WithIgnoreRecordNotFoundError(false),
	)

	assert.Equal(t, time.Second, gl.slowThreshold)
	assert.False(t, gl.ignoreRecordNotFoundError)

	warn, ok := gl.LogMode(gormlogger.Warn).(*GormLogger)
	require.True(t, ok)
	assert.Equal(t, gormlogger.Warn, warn.logLevel)
	assert.Equal(t, gormlogger.Info, gl.logLevel)
}

func TestGormLogger_Trace(t *testing.T) {
	t.Run("errors are logged with correlation fields", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Warn)
		ctx := WithActorID(WithRequestID(context.Background(), "req-1"), "actor-1")

		gl.Trace(ctx, time.Now(), sqlFunc("INSERT INTO panel_records", 0), errors.New("boom"))

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Equal(t, "SQL Error", logs[0].Message)
		fields := logs[0].ContextMap()
		assert.Equal(t, "req-1", fields["request_id"])
		assert.Equal(t, "actor-1", fields["actor_id"])
	})

	t.Run("record not found is ignored", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Warn)

		gl.Trace(context.Background(), time.Now(), sqlFunc("SELECT 1", 0), gormlogger.ErrRecordNotFound)

		assert.Empty(t, recorded.All())
	})

	t.Run("slow queries warn", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Warn, WithSlowThreshold(time.Millisecond))

		gl.Trace(context.Background(), time.Now().Add(-time.Second), sqlFunc("SELECT 1", 1), nil)

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Equal(t, zapcore.WarnLevel, logs[0].Level)
	})

	t.Run("info level logs every statement at debug", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Info)

		gl.Trace(context.Background(), time.Now(), sqlFunc("SELECT 1", 1), nil)

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Equal(t, "SQL Query", logs[0].Message)
	})

	t.Run("silent logs nothing", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Silent)

		gl.Trace(context.Background(), time.Now(), sqlFunc("SELECT 1", 1), errors.New("boom"))

		assert.Empty(t, recorded.All())
	})
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("WARN"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("info"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
}
