package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	catalogapp "github.com/erp/backoffice/internal/application/catalog"
	financeapp "github.com/erp/backoffice/internal/application/finance"
	partnerapp "github.com/erp/backoffice/internal/application/partner"
	reportapp "github.com/erp/backoffice/internal/application/report"
	tradeapp "github.com/erp/backoffice/internal/application/trade"
	"github.com/erp/backoffice/internal/application/unitofwork"
	"github.com/erp/backoffice/internal/infrastructure/auth"
	"github.com/erp/backoffice/internal/infrastructure/cache"
	"github.com/erp/backoffice/internal/infrastructure/config"
	"github.com/erp/backoffice/internal/infrastructure/lock"
	"github.com/erp/backoffice/internal/infrastructure/logger"
	"github.com/erp/backoffice/internal/infrastructure/persistence"
	"github.com/erp/backoffice/internal/infrastructure/scheduler"
	"github.com/erp/backoffice/internal/infrastructure/storage"
	"github.com/erp/backoffice/internal/infrastructure/telemetry"
	"github.com/erp/backoffice/internal/interfaces/http/handler"
	"github.com/erp/backoffice/internal/interfaces/http/middleware"
	"github.com/erp/backoffice/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	jobMarkOverdue     = "payables.mark_overdue"
	idempotencyTTL     = 24 * time.Hour
	backgroundStopWait = 10 * time.Second
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	tel, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
		LogsEnabled:       cfg.Telemetry.LogsEnabled,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
		ProfilingEnabled:  cfg.Telemetry.ProfilingEnabled,
		PyroscopeServer:   cfg.Telemetry.PyroscopeServer,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()

	// Mirror every entry to the OTLP log pipeline once it is running
	if tel.Logs.IsEnabled() {
		if log, err = logger.New(logCfg, tel.Logs.ZapCore(logger.ParseLevel(cfg.Log.Level))); err != nil {
			panic("Failed to initialize logger: " + err.Error())
		}
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting back-office ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("database", cfg.Database.Driver),
	)

	gormLog := logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level), 200*time.Millisecond)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if db.Driver == "sqlite" {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to prepare sqlite schema", zap.Error(err))
		}
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{DBName: cfg.Database.DBName}); err != nil {
			log.Warn("Database tracing not enabled", zap.Error(err))
		}
	}
	log.Info("Database connected successfully")

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
	}
	store := cache.NewStore(redisClient, log)
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing cache store", zap.Error(err))
		}
	}()
	locker := lock.New(cfg.Lock, redisClient, log)

	var objectStore tradeapp.ObjectStore
	if cfg.Storage.Enabled {
		s3Store, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		if err := s3Store.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to prepare export bucket", zap.Error(err))
		}
		objectStore = s3Store
		log.Info("Object storage enabled", zap.String("bucket", s3Store.Bucket()))
	}

	// Repositories
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	saleRepo := persistence.NewGormSaleRepository(db.DB)
	payableRepo := persistence.NewGormPayableRepository(db.DB)
	summaryRepo := persistence.NewGormSummaryRepository(db.DB)
	invoices := persistence.NewGormInvoiceNumberAllocator(db.DB)
	txManager := persistence.NewGormTransactionManager(db.DB)

	// Application services
	summaryService := reportapp.NewSummaryService(summaryRepo, store, cfg.Cache.SummaryTTL)
	uow := unitofwork.New(txManager, locker, summaryService)

	customerService := partnerapp.NewCustomerService(customerRepo)
	productService := catalogapp.NewProductService(productRepo)
	orderService := tradeapp.NewOrderService(orderRepo, customerRepo, productRepo, uow)
	saleService := tradeapp.NewSaleService(saleRepo, orderRepo, customerRepo, productRepo, invoices, uow)
	exportService := tradeapp.NewExportService(saleRepo, objectStore)
	payableService := financeapp.NewPayableService(payableRepo, uow)

	meter := tel.Meter.Meter(cfg.Telemetry.ServiceName)
	ledgerMetrics, err := telemetry.NewLedgerMetrics(meter)
	if err != nil {
		log.Warn("Ledger metrics not registered", zap.Error(err))
	} else {
		orderService.SetMetrics(ledgerMetrics)
		saleService.SetMetrics(ledgerMetrics)
		payableService.SetMetrics(ledgerMetrics)
	}

	// Background jobs
	if cfg.Scheduler.Enabled {
		hour, minute, err := scheduler.ParseDailySchedule(cfg.Scheduler.OverdueSweep)
		if err != nil {
			log.Fatal("Invalid scheduler.overdue_sweep", zap.Error(err))
		}

		jobs := scheduler.NewScheduler(scheduler.SchedulerConfig{
			Workers:       cfg.Scheduler.Workers,
			JobTimeout:    cfg.Scheduler.JobTimeout,
			RetryAttempts: cfg.Scheduler.RetryAttempts,
			RetryDelay:    cfg.Scheduler.RetryDelay,
		}, log)
		jobs.Register(jobMarkOverdue, func(ctx context.Context) error {
			_, err := payableService.MarkOverdue(logger.WithContext(ctx, log))
			return err
		})
		trigger := scheduler.NewDailyTrigger(scheduler.DailyTriggerConfig{
			Hour:          hour,
			Minute:        minute,
			CheckInterval: time.Minute,
			RunOnStart:    cfg.Scheduler.RunOnStart,
		}, jobs, log, jobMarkOverdue)

		if err := jobs.Start(ctx); err != nil {
			log.Fatal("Failed to start job scheduler", zap.Error(err))
		}
		if err := trigger.Start(ctx); err != nil {
			log.Fatal("Failed to start daily trigger", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), backgroundStopWait)
			defer cancel()
			if err := errors.Join(trigger.Stop(stopCtx), jobs.Stop(stopCtx)); err != nil {
				log.Error("Error stopping background jobs", zap.Error(err))
			}
		}()
	}

	// HTTP
	handlers := router.Handlers{
		Customers: handler.NewCustomerHandler(customerService),
		Products:  handler.NewProductHandler(productService),
		Orders:    handler.NewOrderHandler(orderService),
		Sales:     handler.NewSaleHandler(saleService, exportService),
		Payables:  handler.NewPayableHandler(payableService),
		Reports:   handler.NewReportHandler(summaryService),
	}
	health := handler.NewHealthHandler(map[string]handler.HealthCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"cache": store.Ping,
	})

	engineCfg := router.EngineConfig{
		App:         cfg.App,
		HTTP:        cfg.HTTP,
		Telemetry:   cfg.Telemetry,
		Logger:      log,
		Meter:       meter,
		Idempotency: middleware.Idempotency(store, idempotencyTTL),
	}
	if cfg.JWT.Enabled {
		engineCfg.Verifier = auth.NewVerifier(cfg.JWT)
	} else {
		log.Warn("JWT verification disabled; API requests are not authenticated")
	}
	engine, err := router.NewEngine(engineCfg, handlers, health)
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info("Shutting down server...", zap.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("Server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
