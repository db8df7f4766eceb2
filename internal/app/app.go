package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/worklog-ledger/internal/config"
	"github.com/cmlabs-hris/worklog-ledger/internal/domain/staff"
	"github.com/cmlabs-hris/worklog-ledger/internal/domain/worklog"
	"github.com/cmlabs-hris/worklog-ledger/internal/pkg/database"
	"github.com/cmlabs-hris/worklog-ledger/internal/pkg/distlock"
	"github.com/cmlabs-hris/worklog-ledger/internal/repository/postgresql"
	calendarService "github.com/cmlabs-hris/worklog-ledger/internal/service/calendar"
	workLogService "github.com/cmlabs-hris/worklog-ledger/internal/service/worklog"
	"github.com/redis/go-redis/v9"
)

// App holds the wired ledger shared by the API server and ledgerctl.
type App struct {
	Config         *config.Config
	DB             *database.DB
	Redis          *redis.Client
	StaffRegistry  staff.Registry
	WorkLogService worklog.Service
}

// New connects to PostgreSQL and, when configured, Redis, then wires the
// ledger service.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if cfg.Database.RunMigrations {
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
	}

	a := &App{Config: cfg, DB: db}

	var opts []workLogService.Option
	if cfg.Redis.Address != "" {
		rdb, err := distlock.NewRedisClient(ctx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.Redis = rdb
		opts = append(opts, workLogService.WithSweepLocker(distlock.NewRedisLocker(rdb)))
		slog.Info("Sweep lock enabled", "redis_address", cfg.Redis.Address)
	} else {
		slog.Info("REDIS_ADDRESS not set, sweeping without a distributed lock")
	}

	workLogRepo := postgresql.NewWorkLogRepository(db)
	calendarRepo := postgresql.NewCalendarRepository(db)
	a.StaffRegistry = postgresql.NewStaffRegistry(db)
	leaveChecker := postgresql.NewLeaveChecker(db)
	transactor := postgresql.NewTransactor(db)

	a.WorkLogService = workLogService.NewWorkLogService(
		workLogRepo,
		transactor,
		a.StaffRegistry,
		calendarService.NewResolver(calendarRepo),
		leaveChecker,
		ServiceConfig(cfg),
		opts...,
	)

	return a, nil
}

// ServiceConfig maps application configuration to the ledger policy.
func ServiceConfig(cfg *config.Config) workLogService.Config {
	lockTTL := 2 * cfg.Sweep.Interval
	if lockTTL < 10*time.Minute {
		lockTTL = 10 * time.Minute
	}

	return workLogService.Config{
		Location: workLogService.LocationPolicy{
			Required:          cfg.Ledger.RequireLocation,
			MaxAccuracyMeters: cfg.Ledger.MaxAccuracyMeters,
		},
		Status: workLogService.StatusPolicy{
			HalfDayThresholdHours: cfg.Ledger.HalfDayThresholdHours,
			MissingClockOutStatus: worklog.Status(cfg.Ledger.MissingClockOutStatus),
		},
		LeavePunchPolicy: cfg.Ledger.LeavePunchPolicy,
		SweepGrace:       cfg.Sweep.Grace,
		SweepLockTTL:     lockTTL,
	}
}

func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			slog.Warn("Failed to close redis client", "error", err)
		}
	}
	a.DB.Close()
}
