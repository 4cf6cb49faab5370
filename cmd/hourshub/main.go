// Package main - точка входа сервиса учёта волонтёрских часов.
//
// Процесс поднимает хранилище записей (SQLite или PostgreSQL), шину событий,
// HTTP API и планировщик, который периодически пересчитывает рейтинг
// и публикует его в Redis.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/servicehours/hours-hub/config"
	"github.com/servicehours/hours-hub/internal/application/command"
	"github.com/servicehours/hours-hub/internal/application/query"
	"github.com/servicehours/hours-hub/internal/domain/accolade"
	"github.com/servicehours/hours-hub/internal/domain/shared"
	"github.com/servicehours/hours-hub/internal/domain/store"
	"github.com/servicehours/hours-hub/internal/infrastructure/messaging"
	"github.com/servicehours/hours-hub/internal/infrastructure/metrics"
	"github.com/servicehours/hours-hub/internal/infrastructure/persistence/postgres"
	"github.com/servicehours/hours-hub/internal/infrastructure/persistence/redis"
	"github.com/servicehours/hours-hub/internal/infrastructure/persistence/sqlite"
	"github.com/servicehours/hours-hub/internal/infrastructure/scheduler"
	"github.com/servicehours/hours-hub/internal/infrastructure/scheduler/jobs"
	httpapi "github.com/servicehours/hours-hub/internal/interface/http"
	"github.com/servicehours/hours-hub/internal/interface/http/handlers"
	"github.com/servicehours/hours-hub/pkg/circuitbreaker"
	"github.com/servicehours/hours-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. КОНФИГУРАЦИЯ И ЛОГИРОВАНИЕ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := setupLogger(cfg)
	log.Info("starting hours hub",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"store", cfg.Store.Driver,
		"milestones", cfg.Accolades.Milestones.String(),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 2. ХРАНИЛИЩЕ (миграции применяются при открытии)
	// ─────────────────────────────────────────────────────────────────────────
	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing store...")
		_ = st.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 3. МЕТРИКИ И ШИНА СОБЫТИЙ
	// ─────────────────────────────────────────────────────────────────────────
	m := metrics.New()

	busCfg := messaging.DefaultInMemoryEventBusConfig()
	busCfg.Logger = log
	busCfg.Observer = m
	bus := messaging.NewInMemoryEventBus(busCfg)
	defer func() {
		log.Info("closing event bus...")
		_ = bus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var cache *redis.Cache
	if cfg.Redis.Enabled {
		cache, err = redis.NewCache(redis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   redis.DefaultConfig().MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			log.Warn("failed to connect to Redis, publication disabled", "error", err)
			cache = nil
		} else {
			defer cache.Close()
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ПРИЛОЖЕНИЕ
	// ─────────────────────────────────────────────────────────────────────────
	clock := shared.Clock(shared.SystemClock)
	engine := accolade.NewEngine(cfg.Accolades.Milestones, clock)

	rankings := query.NewRankings(st, bus, clock, log)
	deps := httpapi.Dependencies{
		RegisterAccount:     command.NewRegisterAccountHandler(st, bus, clock, log),
		LogHours:            command.NewLogHoursHandler(st, bus, clock, log),
		ConfirmHours:        command.NewConfirmHoursHandler(st, engine, bus, clock, log),
		RequestConfirmation: command.NewRequestConfirmationHandler(st, bus, clock, log),
		Accounts:            query.NewAccounts(st),
		Rankings:            rankings,
		Logger:              log,
	}

	subscriptions := []error{
		bus.Subscribe(shared.EventHoursConfirmed, rankings.OnStandingsChanged),
		bus.Subscribe(shared.EventStudentRegistered, rankings.OnStandingsChanged),
		bus.SubscribeAll(messaging.NewAuditHandler(log)),
	}
	if cfg.Observability.MetricsEnabled {
		subscriptions = append(subscriptions, bus.SubscribeAll(m.HandleEvent))
		deps.Metrics = m.Handler()
	}
	if cache != nil {
		b := cfg.Redis.EventsBreaker
		forwarder := messaging.NewRedisForwarder(cache.Client(), cfg.Redis.EventsChannel, instanceID(), log,
			circuitbreaker.WithFailureThreshold(b.FailureThreshold),
			circuitbreaker.WithSuccessThreshold(b.SuccessThreshold),
			circuitbreaker.WithCooldown(b.Cooldown),
			circuitbreaker.WithMaxHalfOpenRequests(b.HalfOpenRequests),
		)
		subscriptions = append(subscriptions, bus.SubscribeAll(forwarder.Handle))
	}
	if err := errors.Join(subscriptions...); err != nil {
		return fmt.Errorf("failed to subscribe event handlers: %w", err)
	}

	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	health.SetTimeout(cfg.HTTP.HealthCheckTimeout)
	health.AddCheck("store", handlers.NewPingCheck(st))
	if cache != nil {
		health.AddCheck("redis", handlers.NewPingCheck(cache))
	}
	deps.HealthChecker = health

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ПЛАНИРОВЩИК
	// ─────────────────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		jobCfg := jobs.DefaultRebuildLeaderboardConfig()
		jobCfg.Timeout = cfg.Scheduler.JobTimeout

		opts := []jobs.Option{jobs.WithObserver(m)}
		if cache != nil {
			published := redis.NewLeaderboardCache(cache, cfg.Redis.LeaderboardTTL)
			deps.Published = published
			opts = append(opts,
				jobs.WithPublisher(published),
				jobs.WithLocker(cache, redis.ErrLockNotAcquired),
			)
		}

		schedCfg := scheduler.DefaultSchedulerConfig()
		schedCfg.Logger = log
		sched = scheduler.NewScheduler(schedCfg)
		job := jobs.NewRebuildLeaderboardJob(rankings, log, jobCfg, opts...)
		if err := sched.Register(job, scheduler.NewIntervalSchedule(cfg.Scheduler.RebuildLeaderboardInterval)); err != nil {
			return fmt.Errorf("failed to register job: %w", err)
		}
		sched.OnJobComplete(func(r scheduler.JobResult) {
			if stats := job.LastRebuildStats(); stats != nil && r.JobName == job.Name() {
				log.Debug("leaderboard rebuild stats",
					"students", stats.TotalStudents,
					"published", stats.Published,
					"skipped", stats.Skipped,
				)
			}
		})
		deps.Jobs = sched
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. HTTP СЕРВЕР
	// ─────────────────────────────────────────────────────────────────────────
	httpCfg := httpapi.DefaultConfig()
	httpCfg.Port = cfg.HTTP.Port
	httpCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	httpCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	httpCfg.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpCfg.Version = cfg.App.Version

	server := httpapi.NewServer(httpCfg, deps)
	serverErr := server.StartAsync()

	log.Info("hours hub is running", "address", server.Address())

	// ─────────────────────────────────────────────────────────────────────────
	// 8. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	select {
	case <-ctx.Done():
		log.Info("received shutdown signal")
	case err := <-serverErr:
		if err != nil {
			log.Error("http server failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", "error", err)
	}
	if sched != nil {
		if err := sched.Stop(); err != nil && !errors.Is(err, scheduler.ErrSchedulerNotRunning) {
			log.Error("scheduler shutdown failed", "error", err)
		}
	}

	log.Info("shutdown completed")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// openStore открывает хранилище выбранного типа и применяет миграции.
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (store.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		log.Info("connecting to PostgreSQL...")
		pgCfg := postgres.DefaultConfig()
		pgCfg.URL = cfg.Store.DatabaseURL
		pgCfg.MaxConns = int32(cfg.Store.MaxConns)
		conn, err := postgres.Connect(ctx, pgCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := postgres.Migrate(ctx, conn); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("database schema is up to date")
		return postgres.NewStore(conn, log), nil

	default:
		log.Info("opening SQLite database...", "path", cfg.Store.SQLitePath)
		sqlCfg := sqlite.DefaultConfig()
		sqlCfg.Path = cfg.Store.SQLitePath
		st, err := sqlite.Open(ctx, sqlCfg, log)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return st, nil
	}
}

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := logger.DefaultOptions()
	opts.Level = cfg.Observability.LogLevel
	opts.Format = logger.Format(cfg.Observability.LogFormat)
	opts.Service = cfg.App.Name
	if cfg.IsProduction() {
		opts.Format = logger.FormatJSON
	}

	log := logger.New(opts)
	slog.SetDefault(log)
	return log
}

// instanceID идентифицирует процесс в пересылаемых событиях.
func instanceID() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return host + "-" + uuid.NewString()[:8]
}
