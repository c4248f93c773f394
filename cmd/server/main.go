package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"newsbrief/internal/compliance"
	"newsbrief/internal/config"
	"newsbrief/internal/drafting"
	"newsbrief/internal/handler"
	"newsbrief/internal/infrastructure/database"
	"newsbrief/internal/llm"
	"newsbrief/internal/logger"
	"newsbrief/internal/metrics"
	"newsbrief/internal/middleware"
	"newsbrief/internal/pipeline"
	"newsbrief/internal/repository"
	"newsbrief/internal/scoring"
	"newsbrief/internal/service"
	"newsbrief/internal/source"
	"newsbrief/internal/validator"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration",
			slog.String("error", err.Error()))
	}
	logger.Init(cfg.LogLevel)

	// Connect to database
	poolCfg := database.PoolConfig{
		Host:              cfg.DBHost,
		Port:              cfg.DBPort,
		User:              cfg.DBUser,
		Password:          cfg.DBPassword,
		Database:          cfg.DBName,
		SSLMode:           cfg.DBSSLMode,
		MaxConns:          cfg.DBMaxConns,
		MinConns:          cfg.DBMinConns,
		MaxConnLifetime:   cfg.DBMaxConnLifetime,
		MaxConnIdleTime:   cfg.DBMaxConnIdleTime,
		HealthCheckPeriod: cfg.DBHealthCheckPeriod,
	}
	if err := database.Migrate(poolCfg, cfg.MigrationsPath); err != nil {
		logger.Fatal("Failed to apply migrations",
			slog.String("error", err.Error()))
	}
	pool, err := database.NewPostgres(context.Background(), poolCfg)
	if err != nil {
		logger.Fatal("Failed to connect to database",
			slog.String("error", err.Error()))
	}
	defer pool.Close()

	// Start database pool metrics collector
	poolStatsCollector := metrics.NewPoolStatsCollector(pool)
	poolStatsCollector.Start(15 * time.Second)
	defer poolStatsCollector.Stop()

	// Initialize repositories
	store := repository.NewStore(pool)

	// Source providers. A provider without credentials is simply not
	// registered; the pipeline degrades instead of failing.
	var providers []source.Provider
	if cfg.ResearchAPIKey != "" {
		providers = append(providers, source.NewResearchProvider(
			cfg.ResearchBaseURL, cfg.ResearchAPIKey, cfg.ProviderTimeout, cfg.ProviderRetries))
	}
	if cfg.SerpAPIKey != "" {
		providers = append(providers, source.NewSerpNewsProvider(
			cfg.SerpBaseURL, cfg.SerpAPIKey, cfg.ProviderTimeout, cfg.ProviderRetries))
	}
	providers = append(providers, source.NewEdgarProvider(
		cfg.EdgarBaseURL, cfg.ProviderTimeout, cfg.ProviderRetries))
	if cfg.FredAPIKey != "" {
		providers = append(providers, source.NewFredProvider(
			cfg.FredBaseURL, cfg.FredAPIKey, cfg.ProviderTimeout, cfg.ProviderRetries))
	}
	registry := source.NewRegistry(providers...)
	logger.Info("source providers registered", "providers", registry.Names())

	// Verification
	tierLists := scoring.DefaultTierLists()
	if cfg.TierListPath != "" {
		tierLists, err = scoring.LoadTierLists(cfg.TierListPath)
		if err != nil {
			logger.Fatal("Failed to load tier lists",
				slog.String("error", err.Error()))
		}
	}
	verifier := scoring.NewVerifier(tierLists, 10*time.Second,
		cfg.LinkProbeConcurrency, cfg.RelevanceFloor, cfg.DedupSimilarityThreshold)

	// Drafting and compliance
	generator := llm.NewClient(cfg.LLMEndpoint, cfg.LLMModel, cfg.LLMAPIKey, cfg.LLMTimeout)
	engine := drafting.NewEngine(generator, cfg.DraftConcurrency)

	ruleTable := compliance.DefaultRuleTable()
	if cfg.RulesPath != "" {
		ruleTable, err = compliance.LoadRuleTable(cfg.RulesPath)
		if err != nil {
			logger.Fatal("Failed to load compliance rules",
				slog.String("error", err.Error()))
		}
	}
	pass1 := compliance.NewPass1Scanner(ruleTable)

	reference, err := compliance.LoadRegulatoryReference(cfg.RegulatoryRefPath)
	if err != nil {
		logger.Fatal("Failed to load regulatory reference",
			slog.String("error", err.Error()))
	}
	pass2 := compliance.NewPass2Reviewer(generator, reference, cfg.Pass2Concurrency)

	// Pipeline orchestrator
	orchestrator := pipeline.New(pipeline.NewStoreWriter(store), registry,
		verifier, engine, pass1, pass2, cfg.RetrievalWindow)

	// Initialize validator
	v := validator.NewValidator()

	// Initialize services
	editionService := service.NewEditionService(
		store.Editions, store.Articles, store.Drafts, store.Flags, store.Audit,
		orchestrator)
	reviewService := service.NewReviewService(
		store.Editions, store.Drafts, store.Flags, store.Audit,
		cfg.ApprovalBlockOnAnyUnresolved)

	// Initialize handlers
	editionHandler := handler.NewEditionHandler(editionService, v)
	reviewHandler := handler.NewReviewHandler(reviewService, v)
	healthHandler := handler.NewHealthHandler(pool)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Metrics())
	router.Use(gin.Logger())

	// Health and metrics endpoints
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)
	router.GET("/live", healthHandler.Live)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		editions := v1.Group("/editions")
		{
			editions.POST("", editionHandler.CreateEdition)
			editions.GET("", editionHandler.ListEditions)
			editions.GET("/:id", editionHandler.GetEdition)
			editions.GET("/:id/articles", editionHandler.ListArticles)
			editions.GET("/:id/drafts", editionHandler.ListDrafts)
			editions.GET("/:id/flags", editionHandler.ListFlags)
			editions.GET("/:id/audit", editionHandler.ListAuditTrail)
			editions.POST("/:id/start", editionHandler.StartEdition)
			editions.POST("/:id/cancel", editionHandler.CancelEdition)
			editions.POST("/:id/approve", reviewHandler.ApproveEdition)
		}

		flags := v1.Group("/flags")
		{
			flags.POST("/:id/resolve", reviewHandler.ResolveFlag)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Starting server",
			slog.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server",
				slog.String("error", err.Error()))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	// Stop pipeline runs first so terminal states get recorded
	logger.Info("Stopping pipeline orchestrator")
	orchestrator.Close()

	// Shutdown HTTP server
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error",
			slog.String("error", err.Error()))
	}

	logger.Info("Server exited")
}
