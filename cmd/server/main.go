package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	appinv "github.com/handmade/backend/internal/application/inventory"
	"github.com/handmade/backend/internal/domain/shared"
	"github.com/handmade/backend/internal/infrastructure/auth"
	"github.com/handmade/backend/internal/infrastructure/cache"
	"github.com/handmade/backend/internal/infrastructure/config"
	"github.com/handmade/backend/internal/infrastructure/event"
	"github.com/handmade/backend/internal/infrastructure/logger"
	"github.com/handmade/backend/internal/infrastructure/persistence"
	"github.com/handmade/backend/internal/infrastructure/scheduler"
	"github.com/handmade/backend/internal/infrastructure/telemetry"
	"github.com/handmade/backend/internal/interfaces/http/handler"
	"github.com/handmade/backend/internal/interfaces/http/middleware"
	"github.com/handmade/backend/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/handmade/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			Handmade Inventory API
//	@version		1.0
//	@description	Stock ledger, order reservations, fulfillment and returns for a handmade goods storefront.

//	@contact.name	Storefront Engineering

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

//go:generate swag init --dir ../../ --generalInfo cmd/server/main.go --output ../../docs --parseInternal

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	bootstrap, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	// Telemetry providers come first so the final logger can tee into
	// OpenTelemetry logs
	logProvider, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, bootstrap)
	if err != nil {
		bootstrap.Fatal("Failed to initialize log exporter", zap.Error(err))
	}
	log, err := logger.New(logCfg, logProvider.ZapCore(logger.ParseLevel(cfg.Log.Level)))
	if err != nil {
		bootstrap.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting inventory service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize meter", zap.Error(err))
	}
	profiler, err := telemetry.NewProfiler(cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}
	meter := meterProvider.Meter(cfg.Telemetry.ServiceName)

	db, err := persistence.NewDatabase(&cfg.Database, log,
		logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected successfully")
	if _, err := telemetry.RegisterDBInstrumentation(db.DB, cfg.Telemetry, meter, log); err != nil {
		log.Fatal("Failed to instrument database", zap.Error(err))
	}

	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithKeyPrefix(cfg.Idempotency.KeyPrefix),
	).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	blacklist, closeBlacklist := newTokenBlacklist(ctx, cfg.Redis, log)

	// Repositories and services
	txScope := persistence.NewGormTransactionScope(db.DB)
	stockRepo := persistence.NewGormStockRecordRepository(db.DB)
	products := persistence.NewGormProductReader(db.DB)
	settings := appinv.Settings{
		LowStockThreshold: cfg.Inventory.LowStockThreshold,
		BulkWorkers:       cfg.Inventory.BulkWorkers,
		BulkBatchSize:     cfg.Inventory.BulkBatchSize,
		MaxBulkItems:      cfg.Inventory.MaxBulkItems,
		MaxBulkErrors:     cfg.Inventory.MaxBulkErrors,
	}

	ledgerService := appinv.NewLedgerService(txScope, stockRepo, products, settings)
	movementService := appinv.NewMovementService(txScope, stockRepo, persistence.NewGormStockMovementRepository(db.DB), settings)
	reservationService := appinv.NewReservationService(txScope, settings)
	returnService := appinv.NewReturnService(txScope, settings)
	bulkService := appinv.NewBulkService(txScope, products, settings)
	auditService := appinv.NewAuditService(persistence.NewGormAuditLogRepository(db.DB))
	statsService := appinv.NewStatsService(stockRepo, settings)
	syncService := appinv.NewSyncService(txScope, products, stockRepo, settings, log)

	inventoryMetrics, err := telemetry.NewInventoryMetrics(meter, log)
	if err != nil {
		log.Fatal("Failed to create inventory metrics", zap.Error(err))
	}

	// Event bus: low stock alerts deduplicated per record version, plus an
	// audit log of every event at debug level
	eventBus := event.NewInMemoryEventBus(log)
	serializer := event.NewEventSerializer()
	event.RegisterInventoryEvents(serializer)

	lowStockHandler := appinv.NewLowStockHandler(log).
		WithNotifier(appinv.NewLoggingStockAlertNotifier(log)).
		WithMetrics(inventoryMetrics)
	eventBus.Subscribe(event.NewIdempotentHandler(lowStockHandler, idempotencyStore, log,
		event.WithKeyFunc(event.LowStockKey),
		event.WithIdempotencyConfig(shared.IdempotencyConfig{
			TTL:     cfg.Idempotency.TTL,
			Enabled: cfg.Idempotency.Enabled,
		}),
	), lowStockHandler.EventTypes()...)
	eventBus.Subscribe(event.NewEventLogHandler(serializer, log))

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	type instrumented interface {
		SetEventPublisher(shared.EventPublisher)
		SetMetrics(appinv.MetricsRecorder)
	}
	for _, svc := range []instrumented{
		ledgerService, movementService, reservationService, returnService, bulkService, syncService,
	} {
		svc.SetEventPublisher(eventBus)
		svc.SetMetrics(inventoryMetrics)
	}

	// Background jobs
	var (
		jobScheduler *scheduler.Scheduler
		trigger      *scheduler.IntervalTrigger
	)
	if cfg.Scheduler.Enabled {
		executor := scheduler.NewInventoryJobExecutor(syncService, statsService, statsService, inventoryMetrics, log)
		jobScheduler = scheduler.NewScheduler(cfg.Scheduler, executor, log)
		if err := jobScheduler.Start(ctx); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		trigger = scheduler.NewIntervalTrigger(jobScheduler, log,
			scheduler.Schedule{Job: scheduler.JobCatalogSync, Interval: cfg.Scheduler.SyncInterval, OnStartup: cfg.Scheduler.SyncOnStartup},
			scheduler.Schedule{Job: scheduler.JobInventoryGauges, Interval: cfg.Scheduler.MetricsInterval, OnStartup: true},
			scheduler.Schedule{Job: scheduler.JobLowStockScan, Interval: cfg.Scheduler.LowStockScanPeriod},
		)
		if err := trigger.Start(ctx); err != nil {
			log.Fatal("Failed to start job trigger", zap.Error(err))
		}
		log.Info("Scheduler started",
			zap.Int("max_concurrent_jobs", cfg.Scheduler.MaxConcurrentJobs),
			zap.Duration("sync_interval", cfg.Scheduler.SyncInterval),
		)
	}

	// HTTP
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	skipPaths, skipPrefixes := middleware.DefaultActorSkipPaths()
	jwtService := auth.NewJWTService(cfg.JWT)

	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		logger.GinMiddleware(log),
		middleware.Secure(),
		middleware.CORSWithConfig(corsConfig),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.ActorAuth(middleware.ActorAuthConfig{
			JWTService:       jwtService,
			Blacklist:        blacklist,
			Required:         cfg.JWT.Required,
			SkipPaths:        skipPaths,
			SkipPathPrefixes: skipPrefixes,
			Logger:           log,
		}),
		middleware.SpanEnricher(),
		middleware.HTTPMetrics(meter, log),
		middleware.Profiling(middleware.ProfilingConfig{
			Enabled:   cfg.Telemetry.ProfilingEnabled,
			SkipPaths: []string{"/api/v1/health"},
		}),
	)

	writeChain := []gin.HandlerFunc{middleware.RequireActor()}
	if cfg.Idempotency.Enabled {
		writeChain = append(writeChain, middleware.Idempotency(middleware.IdempotencyConfig{
			Store:  idempotencyStore,
			TTL:    cfg.Idempotency.TTL,
			Logger: log,
		}))
	}

	// Swagger documentation endpoint
	engine.GET("/swagger/*any", middleware.SwaggerProtection(middleware.SwaggerConfig{
		Enabled:     cfg.Swagger.Enabled,
		RequireAuth: cfg.Swagger.RequireAuth,
		AllowedIPs:  cfg.Swagger.AllowedIPs,
		JWTService:  jwtService,
	}), ginSwagger.WrapHandler(swaggerFiles.Handler))

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	router.RegisterInventoryAPI(r, router.Handlers{
		System: handler.NewSystemHandler(cfg.App.Name, version, map[string]handler.HealthCheck{
			"database": db.Ping,
		}),
		Inventory: handler.NewInventoryHandler(ledgerService, movementService),
		Orders:    handler.NewOrderHandler(reservationService, returnService),
		Bulk:      handler.NewBulkHandler(bulkService),
		Audit:     handler.NewAuditHandler(auditService),
		Stats:     handler.NewStatsHandler(statsService, syncService),
	}, writeChain...)
	r.Setup()
	log.Info("Routes registered", zap.Int("routes", len(r.Routes())))

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	// Stop accepting work first, then drain background jobs and events,
	// then flush telemetry and close stores
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if trigger != nil {
		if err := trigger.Stop(shutdownCtx); err != nil {
			log.Error("Error stopping job trigger", zap.Error(err))
		}
	}
	if jobScheduler != nil {
		if err := jobScheduler.Stop(shutdownCtx); err != nil {
			log.Error("Error stopping scheduler", zap.Error(err))
		}
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	if err := idempotencyStore.Close(); err != nil {
		log.Error("Error closing idempotency store", zap.Error(err))
	}
	closeBlacklist()
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	log.Info("Server exited gracefully")
	if err := logProvider.Shutdown(shutdownCtx); err != nil {
		bootstrap.Error("Error shutting down log provider", zap.Error(err))
	}
}

// newTokenBlacklist uses Redis when it is enabled and reachable so that
// revocations are shared by every replica, and an in-process list otherwise
func newTokenBlacklist(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) (auth.TokenBlacklist, func()) {
	if !cfg.Enabled {
		return auth.NewInMemoryTokenBlacklist(), func() {}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		log.Warn("Redis unavailable, token revocations are per instance", zap.Error(err))
		return auth.NewInMemoryTokenBlacklist(), func() {}
	}
	return auth.NewRedisTokenBlacklist(client), func() { _ = client.Close() }
}
