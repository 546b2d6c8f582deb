package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	eventapp "github.com/clubhousegolfcanada/clubos-pls/internal/application/event"
	identityapp "github.com/clubhousegolfcanada/clubos-pls/internal/application/identity"
	plsapp "github.com/clubhousegolfcanada/clubos-pls/internal/application/pls"
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/pattern"
	"github.com/clubhousegolfcanada/clubos-pls/internal/infrastructure/auth"
	"github.com/clubhousegolfcanada/clubos-pls/internal/infrastructure/cache"
	"github.com/clubhousegolfcanada/clubos-pls/internal/infrastructure/config"
	infraevent "github.com/clubhousegolfcanada/clubos-pls/internal/infrastructure/event"
	"github.com/clubhousegolfcanada/clubos-pls/internal/infrastructure/llm"
	"github.com/clubhousegolfcanada/clubos-pls/internal/infrastructure/logger"
	"github.com/clubhousegolfcanada/clubos-pls/internal/infrastructure/persistence"
	"github.com/clubhousegolfcanada/clubos-pls/internal/infrastructure/scheduler"
	"github.com/clubhousegolfcanada/clubos-pls/internal/infrastructure/storage"
	"github.com/clubhousegolfcanada/clubos-pls/internal/infrastructure/telemetry"
	"github.com/clubhousegolfcanada/clubos-pls/internal/interfaces/http/handler"
	"github.com/clubhousegolfcanada/clubos-pls/internal/interfaces/http/middleware"
	"github.com/clubhousegolfcanada/clubos-pls/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync(log)

	ctx := context.Background()

	// Telemetry providers are no-ops when telemetry is disabled, so the
	// rest of the wiring does not need to branch on cfg.Telemetry.Enabled.
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("failed to initialize tracer provider", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("failed to initialize meter provider", zap.Error(err))
	}

	var logsProvider *telemetry.LoggerProvider
	if cfg.Telemetry.Enabled {
		logsProvider, err = telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
			Enabled:           true,
			CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
			ServiceName:       cfg.Telemetry.ServiceName,
			Insecure:          cfg.Telemetry.Insecure,
		}, log)
		if err != nil {
			log.Fatal("failed to initialize logs provider", zap.Error(err))
		}

		bridged, err := telemetry.CreateBridgedLoggerFromConfig(&telemetry.BaseLoggerConfig{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
			Output: cfg.Log.Output,
		}, logsProvider, cfg.Telemetry.ServiceName)
		if err != nil {
			log.Fatal("failed to create bridged logger", zap.Error(err))
		}
		log = bridged
	}

	gormLogger := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLogger)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	log.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.DBName))

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbTracingCfg := telemetry.DefaultDBTracingConfig()
		dbTracingCfg.Enabled = true
		dbTracingCfg.LogFullSQL = cfg.Telemetry.DBLogFullSQL
		if cfg.Telemetry.DBSlowQueryThresh > 0 {
			dbTracingCfg.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
		}
		if err := telemetry.NewDBTracingPlugin(dbTracingCfg, log).RegisterOtelGorm(db.DB); err != nil {
			log.Warn("failed to register database tracing", zap.Error(err))
		}
	}

	var engineMetrics *telemetry.EngineMetrics
	var dbMetrics *telemetry.DBMetrics
	if meterProvider.IsEnabled() {
		dbMetrics, err = telemetry.NewDBMetrics(
			meterProvider.Meter("clubos-pls/db"),
			telemetry.DefaultDBMetricsConfig(),
			log,
		)
		if err != nil {
			log.Warn("failed to initialize database metrics", zap.Error(err))
		} else {
			if sqlDB, derr := db.DB.DB(); derr == nil {
				dbMetrics.SetSQLDB(sqlDB)
			}
			dbMetrics.StartPoolStatsCollection(ctx)
		}

		engineMetrics, err = telemetry.NewEngineMetrics(telemetry.EngineMetricsConfig{
			Meter:         meterProvider.Meter("clubos-pls/engine"),
			Logger:        log,
			GaugeProvider: telemetry.NewGormEngineGaugeProvider(db.DB),
		})
		if err != nil {
			log.Warn("failed to initialize engine metrics", zap.Error(err))
		} else {
			engineMetrics.StartPeriodicCollection(ctx, time.Minute)
		}
	}

	// Repositories
	messageRepo := persistence.NewGormMessageRepository(db.DB)
	basePatternRepo := persistence.NewGormPatternRepository(db.DB)
	suggestionRepo := persistence.NewGormSuggestionRepository(db.DB)
	shadowRepo := persistence.NewGormShadowLogRepository(db.DB)
	baseConfigRepo := persistence.NewGormEngineConfigRepository(db.DB)
	auditRepo := persistence.NewGormConfigAuditRepository(db.DB)
	operatorRepo := persistence.NewGormOperatorRepository(db.DB)
	outboxRepo := infraevent.NewGormOutboxRepository(db.DB)

	// Pattern reads sit on the hot path of every inbound message, so they
	// go through the Redis-backed cache. The factory falls back to an
	// in-memory cache when Redis is unreachable.
	cacheCfg := pattern.DefaultCacheConfig()
	if cfg.Engine.PatternCacheTTL > 0 {
		cacheCfg.PatternTTL = cfg.Engine.PatternCacheTTL
	}
	cacheFactory := cache.NewFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithFactoryCacheConfig(cacheCfg),
		cache.WithInMemoryFallback(true),
	)
	patternCache, err := cacheFactory.CreatePatternCache()
	if err != nil {
		log.Fatal("failed to create pattern cache", zap.Error(err))
	}
	idempotencyStore, err := cacheFactory.CreateIdempotencyStore()
	if err != nil {
		log.Fatal("failed to create idempotency store", zap.Error(err))
	}
	patternRepo := cache.NewCachingPatternRepository(basePatternRepo, patternCache,
		cache.WithCachingRepositoryConfig(cacheCfg),
		cache.WithCachingRepositoryLogger(log),
	)
	configRepo := cache.NewCachingConfigRepository(baseConfigRepo, cacheCfg.ConfigTTL, log)

	// Events
	serializer := infraevent.NewEventSerializer()
	infraevent.RegisterAllEvents(serializer)

	eventBus := infraevent.NewInMemoryEventBus(log)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("failed to start event bus", zap.Error(err))
	}

	var outboxProcessor *infraevent.OutboxProcessor
	if cfg.Event.ProcessorEnabled {
		processorCfg := infraevent.DefaultOutboxProcessorConfig()
		if cfg.Event.BatchSize > 0 {
			processorCfg.BatchSize = cfg.Event.BatchSize
		}
		if cfg.Event.PollInterval > 0 {
			processorCfg.PollInterval = cfg.Event.PollInterval
		}
		processorCfg.CleanupEnabled = cfg.Event.CleanupEnabled
		if cfg.Event.CleanupRetention > 0 {
			processorCfg.CleanupRetention = cfg.Event.CleanupRetention
		}
		outboxProcessor = infraevent.NewOutboxProcessor(outboxRepo, eventBus, serializer, processorCfg, log)
		if err := outboxProcessor.Start(ctx); err != nil {
			log.Fatal("failed to start outbox processor", zap.Error(err))
		}
	}

	// Auth
	jwtService := auth.NewJWTService(cfg.JWT)
	var tokenBlacklist auth.TokenBlacklist
	redisBlacklist, err := auth.NewRedisTokenBlacklist(auth.RedisTokenBlacklistConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("redis token blacklist unavailable, using in-memory blacklist", zap.Error(err))
		tokenBlacklist = auth.NewInMemoryTokenBlacklist()
	} else {
		tokenBlacklist = redisBlacklist
	}

	// Application services
	authService := identityapp.NewAuthService(operatorRepo, jwtService, tokenBlacklist,
		identityapp.DefaultAuthServiceConfig(), log)
	operatorService := identityapp.NewOperatorService(operatorRepo, log)

	classifyCfg := plsapp.DefaultClassifyServiceConfig()
	if cfg.Engine.MessageDedupeTTL > 0 {
		classifyCfg.DedupeTTL = cfg.Engine.MessageDedupeTTL
	}
	classifyService := plsapp.NewClassifyService(messageRepo, suggestionRepo, shadowRepo,
		patternRepo, configRepo, idempotencyStore, eventBus, classifyCfg, log)
	suggestionService := plsapp.NewSuggestionService(suggestionRepo, messageRepo, patternRepo,
		configRepo, eventBus, log)
	patternService := plsapp.NewPatternService(patternRepo, configRepo, auditRepo, eventBus, log)
	configService := plsapp.NewConfigService(configRepo, auditRepo, eventBus, log)
	statsService := plsapp.NewStatsService(messageRepo, suggestionRepo, shadowRepo, patternRepo, log)
	outboxService := eventapp.NewOutboxService(outboxRepo, log)

	decayService := plsapp.NewDecayService(patternRepo, configRepo, eventBus,
		cfg.Engine.DecayBatchSize, log)

	var learningService *plsapp.LearningService
	if cfg.Learner.Enabled {
		learner, err := llm.NewGeminiLearner(&cfg.Learner, log)
		if err != nil {
			log.Fatal("failed to initialize learner", zap.Error(err))
		}
		learningService = plsapp.NewLearningService(messageRepo, patternRepo, configRepo, learner, eventBus,
			plsapp.LearningServiceConfig{
				ClusterWindow:  cfg.Learner.ClusterWindow,
				MinClusterSize: cfg.Learner.MinClusterSize,
				MaxPerRun:      cfg.Learner.MaxPerRun,
			}, log)
	}

	var archiveStore plsapp.ArchiveStore
	if cfg.Archive.Enabled {
		s3Store, err := storage.NewS3ObjectStorage(&cfg.Archive, storage.WithLogger(log))
		if err != nil {
			log.Fatal("failed to initialize archive storage", zap.Error(err))
		}
		archiveStore = s3Store
	} else {
		log.Warn("archive storage disabled, archived records are held in memory only")
		archiveStore = storage.NewInMemoryObjectStorage()
	}
	archiveService := plsapp.NewArchiveService(shadowRepo, suggestionRepo, messageRepo, archiveStore,
		plsapp.ArchiveServiceConfig{
			ShadowRetention:  cfg.Engine.ShadowRetention,
			MessageRetention: cfg.Engine.MessageRetention,
		}, log)

	// Background jobs
	var learningRunner scheduler.LearningRunner
	if learningService != nil {
		learningRunner = learningService
	}
	executor := scheduler.NewMaintenanceExecutor(decayService, suggestionService, learningRunner,
		archiveService, scheduler.DefaultMaintenanceExecutorConfig(), log)
	jobScheduler := scheduler.NewScheduler(scheduler.DefaultSchedulerConfig(), executor, log)
	if err := jobScheduler.Start(ctx); err != nil {
		log.Fatal("failed to start scheduler", zap.Error(err))
	}

	cronCfg := scheduler.DefaultCronTriggerConfig()
	if cfg.Engine.ExpiryCheckInterval > 0 {
		cronCfg.ExpiryInterval = cfg.Engine.ExpiryCheckInterval
	}
	if learningService != nil {
		cronCfg.LearningInterval = cfg.Learner.RunInterval
	} else {
		cronCfg.LearningInterval = 0
	}
	cronTrigger := scheduler.NewCronTrigger(cronCfg, jobScheduler, log)
	if err := cronTrigger.Start(ctx); err != nil {
		log.Fatal("failed to start cron trigger", zap.Error(err))
	}

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	operatorHandler := handler.NewOperatorHandler(operatorService)
	messageHandler := handler.NewMessageHandler(classifyService)
	suggestionHandler := handler.NewSuggestionHandler(suggestionService)
	patternHandler := handler.NewPatternHandler(patternService)
	configHandler := handler.NewConfigHandler(configService)
	statsHandler := handler.NewStatsHandler(statsService)
	outboxHandler := handler.NewOutboxHandler(outboxService)
	systemHandler := handler.NewSystemHandler()

	// HTTP engine
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("failed to set trusted proxies", zap.Error(err))
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
		engine.Use(middleware.SpanErrorMarker())
	}
	if meterProvider.IsEnabled() {
		engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
			MeterProvider: meterProvider,
			ServiceName:   cfg.Telemetry.ServiceName,
			Enabled:       true,
		}))
	}

	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsCfg))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		globalLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(globalLimiter))
	}

	engine.GET("/health", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database unreachable",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// API routes. The inbound webhook and the auth token endpoints are the
	// only unauthenticated API paths; they are listed in the JWT skip set.
	jwtCfg := middleware.DefaultJWTConfig(jwtService)
	jwtCfg.TokenBlacklist = tokenBlacklist
	jwtCfg.Logger = log

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtCfg))

	var loginGuards []gin.HandlerFunc
	if cfg.HTTP.AuthRateLimitEnabled {
		authLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		loginGuards = append(loginGuards, middleware.RateLimitByKey(authLimiter, func(c *gin.Context) string {
			return "auth:" + c.ClientIP()
		}))
	}

	authRoutes := router.NewDomainGroup("auth", "/auth")
	authRoutes.POST("/login", append(loginGuards, authHandler.Login)...)
	authRoutes.POST("/refresh", authHandler.RefreshToken)
	authRoutes.POST("/logout", authHandler.Logout)
	authRoutes.GET("/me", authHandler.GetCurrentOperator)
	authRoutes.PUT("/password", authHandler.ChangePassword)

	operatorRoutes := router.NewDomainGroup("operators", "/operators")
	operatorRoutes.Use(middleware.RequireAdmin())
	operatorRoutes.POST("", operatorHandler.Create)
	operatorRoutes.GET("", operatorHandler.List)
	operatorRoutes.GET("/:id", operatorHandler.Get)
	operatorRoutes.PUT("/:id", operatorHandler.Update)
	operatorRoutes.DELETE("/:id", operatorHandler.Deactivate)
	operatorRoutes.POST("/:id/unlock", operatorHandler.Unlock)
	operatorRoutes.POST("/:id/reset-password", operatorHandler.ResetPassword)

	webhookLimiter := middleware.NewRateLimiter(cfg.HTTP.WebhookRateLimitReqs, time.Minute)
	messageRoutes := router.NewDomainGroup("messages", "/messages")
	messageRoutes.POST("/inbound",
		middleware.RateLimitByKey(webhookLimiter, func(c *gin.Context) string {
			return "webhook:" + c.ClientIP()
		}),
		messageHandler.Ingest)
	messageRoutes.GET("", messageHandler.List)
	messageRoutes.GET("/:id", messageHandler.Get)

	suggestionRoutes := router.NewDomainGroup("suggestions", "/suggestions")
	suggestionRoutes.GET("", suggestionHandler.List)
	suggestionRoutes.GET("/:id", suggestionHandler.Get)
	suggestionRoutes.POST("/:id/accept", middleware.RequireCurator(), suggestionHandler.Accept)
	suggestionRoutes.POST("/:id/modify", middleware.RequireCurator(), suggestionHandler.Modify)
	suggestionRoutes.POST("/:id/reject", middleware.RequireCurator(), suggestionHandler.Reject)

	patternRoutes := router.NewDomainGroup("patterns", "/patterns")
	patternRoutes.GET("", patternHandler.List)
	patternRoutes.GET("/stats/summary", statsHandler.Summary)
	patternRoutes.GET("/:id", patternHandler.Get)
	patternRoutes.POST("", middleware.RequireCurator(), patternHandler.Create)
	patternRoutes.PUT("/:id", middleware.RequireCurator(), patternHandler.Update)
	patternRoutes.DELETE("/:id", middleware.RequireCurator(), patternHandler.Delete)
	patternRoutes.POST("/:id/activate", middleware.RequireAdmin(), patternHandler.Activate)
	patternRoutes.POST("/:id/deactivate", middleware.RequireAdmin(), patternHandler.Deactivate)
	patternRoutes.POST("/:id/promote", middleware.RequireAdmin(), patternHandler.Promote)
	patternRoutes.POST("/:id/demote", middleware.RequireAdmin(), patternHandler.Demote)

	shadowRoutes := router.NewDomainGroup("shadow-logs", "/shadow-logs")
	shadowRoutes.GET("", statsHandler.ListShadowLogs)

	configRoutes := router.NewDomainGroup("config", "/config")
	configRoutes.GET("", configHandler.Get)
	configRoutes.PUT("", middleware.RequireAdmin(), configHandler.Update)
	configRoutes.GET("/audit", middleware.RequireAdmin(), configHandler.ListAudit)

	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	outboxRoutes := systemRoutes.Group("outbox", "/outbox")
	outboxRoutes.Use(middleware.RequireAdmin())
	outboxRoutes.GET("/dead", outboxHandler.GetDeadLetterEntries)
	outboxRoutes.GET("/stats", outboxHandler.GetStats)
	outboxRoutes.GET("/:id", outboxHandler.GetEntry)
	outboxRoutes.POST("/:id/retry", outboxHandler.RetryDeadEntry)
	outboxRoutes.POST("/dead/retry-all", outboxHandler.RetryAllDeadEntries)

	r.Register(authRoutes)
	r.Register(operatorRoutes)
	r.Register(messageRoutes)
	r.Register(suggestionRoutes)
	r.Register(patternRoutes)
	r.Register(shadowRoutes)
	r.Register(configRoutes)
	r.Register(systemRoutes)
	r.Setup()

	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()
	log.Info("server started",
		zap.String("port", cfg.App.Port),
		zap.String("env", cfg.App.Env))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := cronTrigger.Stop(shutdownCtx); err != nil {
		log.Error("failed to stop cron trigger", zap.Error(err))
	}
	if err := jobScheduler.Stop(shutdownCtx); err != nil {
		log.Error("failed to stop scheduler", zap.Error(err))
	}
	if outboxProcessor != nil {
		if err := outboxProcessor.Stop(shutdownCtx); err != nil {
			log.Error("failed to stop outbox processor", zap.Error(err))
		}
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("failed to stop event bus", zap.Error(err))
	}
	if engineMetrics != nil {
		engineMetrics.Stop()
	}
	if dbMetrics != nil {
		dbMetrics.Stop()
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	if logsProvider != nil {
		if err := logsProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to shut down logs provider", zap.Error(err))
		}
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shut down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shut down tracer provider", zap.Error(err))
	}

	log.Info("server exited")
}
