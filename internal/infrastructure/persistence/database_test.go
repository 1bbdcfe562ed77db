package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"

	"github.com/shopops/revsync/internal/domain/integration"
	"github.com/shopops/revsync/internal/infrastructure/config"
)

func TestNewDatabase_SQLite(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	db, err := NewDatabase(&config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: ":memory:",
	}, zap.New(core), gormlogger.Info)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, "sqlite", db.DBSystem())
	assert.NoError(t, db.Ping())
	require.NoError(t, db.AutoMigrate())

	repo := NewGormSyncRunRepository(db.DB, time.UTC)
	run := integration.NewSyncRun(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), "cli")
	require.NoError(t, repo.Save(context.Background(), run))

	assert.NotZero(t, logs.FilterLoggerName("gorm").Len())
}

func TestNewDatabase_UnsupportedDriver(t *testing.T) {
	_, err := NewDatabase(&config.DatabaseConfig{Driver: "mysql"}, nil, gormlogger.Silent)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mysql")
}

func TestDatabase_DBSystem(t *testing.T) {
	assert.Equal(t, "postgresql", (&Database{Driver: config.DriverPostgres}).DBSystem())
	assert.Equal(t, "sqlite", (&Database{Driver: config.DriverSQLite}).DBSystem())
}
