package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/shopops/revsync/internal/application/revenue"
	"github.com/shopops/revsync/internal/domain/integration"
	"github.com/shopops/revsync/internal/infrastructure/config"
	"github.com/shopops/revsync/internal/infrastructure/logger"
	"github.com/shopops/revsync/internal/infrastructure/migration"
	"github.com/shopops/revsync/internal/infrastructure/persistence"
	"github.com/shopops/revsync/internal/infrastructure/scheduler"
	"github.com/shopops/revsync/internal/interfaces/http/handler"
	"github.com/shopops/revsync/internal/interfaces/http/middleware"
	"github.com/shopops/revsync/internal/interfaces/http/router"
)

// =============================================================================
// SYNC COMMAND
// =============================================================================

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Aggregate one day of orders and write the totals into the pivot table",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "date",
				Aliases: []string{"d"},
				Usage:   "Day to sync as YYYY-MM-DD in the marketplace time zone (default: yesterday)",
			},
			&cli.StringFlag{
				Name:  "app-token",
				Usage: "Override pivot.app_token",
			},
			&cli.StringFlag{
				Name:  "table-id",
				Usage: "Override pivot.table_id",
			},
		},
		Action: runSync,
	}
}

func runSync(c *cli.Context) error {
	rt, err := bootstrap(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	date, err := revenue.ParseSyncDate(c.String("date"), time.Now(), rt.location)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := rt.syncService(ctx)
	if err != nil {
		return err
	}

	report, err := svc.RunDailySync(ctx, revenue.SyncRequest{
		Date:    date,
		Trigger: revenue.TriggerCLI,
		Target:  integration.PivotTarget{AppToken: c.String("app-token"), TableID: c.String("table-id")},
	})
	if report != nil {
		printReport(c, report)
	}
	return err
}

func printReport(c *cli.Context, r *revenue.SyncReport) {
	w := c.App.Writer
	fmt.Fprintf(w, "date:     %s (column %s)\n", r.Date.Format(time.DateOnly), r.Column)
	fmt.Fprintf(w, "status:   %s\n", r.Status)
	fmt.Fprintf(w, "orders:   %d\n", r.OrderCount)
	fmt.Fprintf(w, "skus:     %d synced / %d total\n", r.SyncedCount, r.SkuCount)
	fmt.Fprintf(w, "rows:     %d created, %d updated\n", r.CreatedRows, r.UpdatedRows)
	fmt.Fprintf(w, "duration: %s\n", r.Duration.Round(time.Millisecond))
}

// =============================================================================
// INSPECT COMMAND
// =============================================================================

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "List the column names of the pivot table",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "app-token",
				Usage: "Bitable app token (default: pivot.app_token)",
			},
			&cli.StringFlag{
				Name:  "table-id",
				Usage: "Table id (default: pivot.table_id)",
			},
		},
		Action: runInspect,
	}
}

func runInspect(c *cli.Context) error {
	rt, err := bootstrap(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	client, err := rt.bitableClient()
	if err != nil {
		return err
	}
	engine, err := rt.pivotEngine(client)
	if err != nil {
		return err
	}

	columns, err := engine.ListColumns(c.Context, integration.PivotTarget{
		AppToken: c.String("app-token"),
		TableID:  c.String("table-id"),
	})
	if err != nil {
		return err
	}
	for _, name := range columns {
		fmt.Fprintln(c.App.Writer, name)
	}
	return nil
}

// =============================================================================
// SERVE COMMAND
// =============================================================================

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the HTTP trigger API and the daily scheduler",
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	rt, err := bootstrap(c)
	if err != nil {
		return err
	}
	defer rt.Close()
	cfg, log := rt.cfg, rt.log

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := rt.syncService(ctx)
	if err != nil {
		return err
	}

	log.Info("Starting revsync",
		zap.String("env", cfg.App.Env),
		zap.String("version", cfg.App.Version),
		zap.String("port", cfg.HTTP.Port),
		zap.Bool("scheduler", cfg.Scheduler.Enabled),
	)

	if cfg.Scheduler.Enabled {
		trigger, err := scheduler.NewDailyTrigger(scheduler.DailyTriggerConfig{
			DailyHour:     cfg.Scheduler.DailyHour,
			DailyMinute:   cfg.Scheduler.DailyMinute,
			CheckInterval: cfg.Scheduler.CheckInterval,
			RetryAttempts: cfg.Scheduler.RetryAttempts,
			RetryDelay:    cfg.Scheduler.RetryDelay,
			Location:      rt.location,
		}, svc, log)
		if err != nil {
			return err
		}
		if err := trigger.Start(ctx); err != nil {
			return err
		}
		rt.addCloser(trigger.Stop)
	}

	engine, err := router.NewEngine(router.EngineConfig{
		Mode:           ginMode(cfg.App.Env),
		ServiceName:    cfg.Telemetry.ServiceName,
		TracingEnabled: cfg.Telemetry.Enabled,
		Meter:          rt.meter,
		CORS: middleware.CORSConfig{
			AllowOrigins:  cfg.HTTP.CORSAllowOrigins,
			AllowMethods:  cfg.HTTP.CORSAllowMethods,
			AllowHeaders:  cfg.HTTP.CORSAllowHeaders,
			ExposeHeaders: middleware.DefaultCORSConfig().ExposeHeaders,
			MaxAge:        middleware.DefaultCORSConfig().MaxAge,
		},
		MaxBodyBytes:    cfg.HTTP.MaxBodyBytes,
		RateLimitBurst:  cfg.HTTP.RateLimitBurst,
		RateLimitWindow: cfg.HTTP.RateLimitWindow,
	}, log)
	if err != nil {
		return err
	}

	var pinger handler.Pinger
	if rt.db != nil {
		pinger = rt.db
	}
	router.RegisterRoutes(engine,
		handler.NewSystemHandler(cfg.App.Name, cfg.App.Version, pinger),
		handler.NewSyncHandler(svc),
	)

	srv := &http.Server{
		Addr:           ":" + cfg.HTTP.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("Server exited gracefully")
	return nil
}

func ginMode(env string) string {
	switch env {
	case "production", "staging":
		return gin.ReleaseMode
	case "testing":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}

// =============================================================================
// MIGRATE COMMAND
// =============================================================================

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage the PostgreSQL run history schema",
		Subcommands: []*cli.Command{
			{Name: "up", Usage: "Apply all pending migrations", Action: withMigrator(func(c *cli.Context, m *migration.Migrator) error {
				return m.Up()
			})},
			{Name: "down", Usage: "Roll back all migrations", Action: withMigrator(func(c *cli.Context, m *migration.Migrator) error {
				return m.Down()
			})},
			{Name: "version", Usage: "Print the current schema version", Action: withMigrator(func(c *cli.Context, m *migration.Migrator) error {
				v, dirty, err := m.Version()
				if err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "version: %d dirty: %t\n", v, dirty)
				return nil
			})},
			{Name: "force", Usage: "Force the schema version without running migrations", ArgsUsage: "VERSION",
				Action: withMigrator(func(c *cli.Context, m *migration.Migrator) error {
					v, err := strconv.Atoi(strings.TrimSpace(c.Args().First()))
					if err != nil {
						return fmt.Errorf("force requires a numeric version: %w", err)
					}
					return m.Force(v)
				})},
		},
	}
}

func withMigrator(fn func(*cli.Context, *migration.Migrator) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		rt, err := bootstrap(c)
		if err != nil {
			return err
		}
		defer rt.Close()

		dbCfg := rt.cfg.Database
		if dbCfg.Driver != config.DriverPostgres {
			return fmt.Errorf("migrate requires database.driver = %q, got %q", config.DriverPostgres, dbCfg.Driver)
		}
		db, err := persistence.NewDatabase(&dbCfg, rt.log, logger.MapGormLogLevel(rt.cfg.Log.Level))
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		sqlDB, err := db.DB.DB()
		if err != nil {
			return err
		}
		m, err := migration.New(sqlDB, rt.log)
		if err != nil {
			return err
		}
		defer func() { _ = m.Close() }()

		return fn(c, m)
	}
}
