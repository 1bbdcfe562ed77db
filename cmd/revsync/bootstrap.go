package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/shopops/revsync/internal/application/revenue"
	"github.com/shopops/revsync/internal/domain/integration"
	"github.com/shopops/revsync/internal/infrastructure/bitable"
	"github.com/shopops/revsync/internal/infrastructure/cache"
	"github.com/shopops/revsync/internal/infrastructure/config"
	"github.com/shopops/revsync/internal/infrastructure/ecommerce"
	"github.com/shopops/revsync/internal/infrastructure/logger"
	"github.com/shopops/revsync/internal/infrastructure/migration"
	"github.com/shopops/revsync/internal/infrastructure/persistence"
	"github.com/shopops/revsync/internal/infrastructure/telemetry"
)

const shutdownTimeout = 30 * time.Second

// runtime holds the process-wide collaborators of one command invocation
type runtime struct {
	cfg      *config.Config
	log      *zap.Logger
	meter    metric.Meter
	location *time.Location

	db      *persistence.Database
	closers []func(context.Context) error
}

// bootstrap loads configuration and starts logging and telemetry
func bootstrap(c *cli.Context) (*runtime, error) {
	cfg, err := config.LoadFile(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	if cfg.App.Version == "" {
		cfg.App.Version = version
	}

	base, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	rt := &runtime{cfg: cfg, log: base}
	rt.addCloser(func(context.Context) error {
		_ = base.Sync()
		return nil
	})

	ctx := c.Context
	tel := cfg.Telemetry

	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           tel.LogsEnabled,
		CollectorEndpoint: tel.CollectorEndpoint,
		ServiceName:       tel.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          tel.Insecure,
	}, base)
	if err != nil {
		return nil, rt.abort(fmt.Errorf("initialize log exporter: %w", err))
	}
	rt.addCloser(lp.Shutdown)
	rt.log = telemetry.Bridge(base, tel.ServiceName, lp, logger.ParseLevel(cfg.Log.Level))

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           tel.Enabled,
		CollectorEndpoint: tel.CollectorEndpoint,
		SamplingRatio:     tel.SamplingRatio,
		ServiceName:       tel.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          tel.Insecure,
	}, rt.log)
	if err != nil {
		return nil, rt.abort(fmt.Errorf("initialize tracer: %w", err))
	}
	rt.addCloser(tp.Shutdown)

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           tel.MetricsEnabled,
		CollectorEndpoint: tel.CollectorEndpoint,
		ExportInterval:    tel.MetricsInterval,
		ServiceName:       tel.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          tel.Insecure,
	}, rt.log)
	if err != nil {
		return nil, rt.abort(fmt.Errorf("initialize meter: %w", err))
	}
	rt.addCloser(mp.Shutdown)
	rt.meter = mp.Meter("revsync")

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         tel.ProfilingEnabled,
		ServerAddress:   tel.ProfilingServer,
		ApplicationName: tel.ServiceName,
		ProfileTypes:    tel.ProfileTypes,
	}, rt.log)
	if err != nil {
		return nil, rt.abort(fmt.Errorf("initialize profiler: %w", err))
	}
	rt.addCloser(func(context.Context) error { return profiler.Stop() })
	if profiler.IsEnabled() && tp.IsEnabled() {
		if err := tp.EnableSpanProfiles(); err != nil {
			rt.log.Warn("Span profiles unavailable", zap.Error(err))
		}
	}

	rakutenCfg := rt.rakutenConfig()
	rt.location = rakutenCfg.Location()
	return rt, nil
}

func (rt *runtime) addCloser(fn func(context.Context) error) {
	rt.closers = append(rt.closers, fn)
}

// abort releases what bootstrap already started and returns err
func (rt *runtime) abort(err error) error {
	rt.Close()
	return err
}

// Close releases resources in reverse start order
func (rt *runtime) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](ctx); err != nil {
			rt.log.Warn("Shutdown step failed", zap.Error(err))
		}
	}
	rt.closers = nil
}

func (rt *runtime) rakutenConfig() *ecommerce.RakutenConfig {
	rc := rt.cfg.Rakuten
	cfg := ecommerce.NewRakutenConfig(rc.ServiceSecret, rc.LicenseKey)
	cfg.APIBaseURL = rc.APIBaseURL
	cfg.TimeZone = rc.TimeZone
	cfg.TimeoutSeconds = rc.TimeoutSeconds
	cfg.RequestsPerSecond = rc.RequestsPerSecond
	cfg.DetailVersion = rc.DetailVersion
	return cfg
}

func (rt *runtime) bitableClient() (*bitable.Client, error) {
	lc := rt.cfg.Lark
	cfg := bitable.NewConfig(lc.AppID, lc.AppSecret)
	cfg.APIBaseURL = lc.APIBaseURL
	cfg.TimeoutSeconds = lc.TimeoutSeconds
	cfg.NotifyOpenID = lc.NotifyOpenID
	return bitable.NewClient(cfg, rt.log)
}

// pivotEngine builds the pivot writer from the [pivot] section
func (rt *runtime) pivotEngine(client *bitable.Client) (*revenue.PivotSyncEngine, error) {
	pc := rt.cfg.Pivot
	return revenue.NewPivotSyncEngine(client, integration.PivotTarget{
		AppToken: pc.AppToken,
		TableID:  pc.TableID,
		KeyField: pc.KeyField,
	}, integration.ColumnScheme(pc.ColumnScheme), rt.log)
}

// openDatabase connects to the run history store and brings its schema up
// to date. It returns nil when history is disabled.
func (rt *runtime) openDatabase() (*persistence.Database, error) {
	dbCfg := rt.cfg.Database
	if !dbCfg.Enabled {
		return nil, nil
	}

	db, err := persistence.NewDatabase(&dbCfg, rt.log, logger.MapGormLogLevel(rt.cfg.Log.Level))
	if err != nil {
		return nil, err
	}
	rt.addCloser(func(context.Context) error { return db.Close() })

	tel := rt.cfg.Telemetry
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         tel.Enabled && tel.DBTraceEnabled,
		DBSystem:        db.DBSystem(),
		LogFullSQL:      tel.DBLogFullSQL,
		SlowQueryThresh: tel.DBSlowQueryThresh,
	}, rt.log); err != nil {
		return nil, fmt.Errorf("register db tracing: %w", err)
	}

	if err := rt.migrate(db); err != nil {
		return nil, err
	}
	rt.db = db
	return db, nil
}

func (rt *runtime) migrate(db *persistence.Database) error {
	if db.Driver != config.DriverPostgres {
		return db.AutoMigrate()
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, rt.log)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()
	return m.Up()
}

// syncService wires the full ingestion and pivot pipeline
func (rt *runtime) syncService(ctx context.Context) (*revenue.DailySyncService, error) {
	adapter, err := ecommerce.NewRakutenAdapter(rt.rakutenConfig(), rt.log)
	if err != nil {
		return nil, err
	}
	client, err := rt.bitableClient()
	if err != nil {
		return nil, err
	}
	engine, err := rt.pivotEngine(client)
	if err != nil {
		return nil, err
	}

	sc := rt.cfg.Sync
	aggregator := revenue.NewAggregator(adapter, revenue.AggregatorConfig{
		PageSize:        sc.PageSize,
		DetailBatchSize: sc.DetailBatchSize,
		SortSkus:        sc.SortSkus,
		NormalizeWidth:  sc.NormalizeWidth,
	}, rt.log)

	lock, err := cache.NewRunLockFactory(rt.cfg.Redis, rt.log).Create(ctx)
	if err != nil {
		return nil, err
	}
	rt.addCloser(func(context.Context) error { return lock.Close() })

	opts := []revenue.DailySyncOption{
		revenue.WithRunLock(lock),
		revenue.WithLocation(rt.location),
		revenue.WithLockTTL(sc.LockTTL),
		revenue.WithNotifier(bitable.NewNotifier(client, rt.cfg.Lark.NotifyOpenID, rt.log)),
	}

	metrics, err := telemetry.NewSyncMetrics(rt.meter)
	if err != nil {
		return nil, fmt.Errorf("initialize sync metrics: %w", err)
	}
	opts = append(opts, revenue.WithRecorder(metrics))

	db, err := rt.openDatabase()
	if err != nil {
		return nil, fmt.Errorf("open run history: %w", err)
	}
	if db != nil {
		opts = append(opts, revenue.WithHistory(persistence.NewGormSyncRunRepository(db.DB, rt.location)))
	}

	return revenue.NewDailySyncService(aggregator, engine, rt.log, opts...), nil
}
