package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/roamly/trip-service/config"
	_ "github.com/roamly/trip-service/docs"
	"github.com/roamly/trip-service/internal/adapters/weather"
	"github.com/roamly/trip-service/internal/database"
	"github.com/roamly/trip-service/internal/discovery"
	"github.com/roamly/trip-service/internal/handlers"
	"github.com/roamly/trip-service/internal/jobs"
	"github.com/roamly/trip-service/internal/middleware"
	"github.com/roamly/trip-service/internal/planner"
	"github.com/roamly/trip-service/internal/sources"
	"github.com/roamly/trip-service/internal/telemetry"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := initLogger(cfg.Logging)

	logger.Info().Msg("Starting trip service")

	ctx := context.Background()

	telemetryCleanup, err := telemetry.Init(ctx, telemetry.GetConfigFromEnv())
	if err != nil {
		logger.Warn().Err(err).Msg("Telemetry init failed, continuing without it")
		telemetryCleanup = func(context.Context) error { return nil }
	}

	dbURL := config.GetDatabaseURL()
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL not set")
	}

	if err := database.Connect(
		ctx,
		dbURL,
		cfg.Database.MaxConnections,
		cfg.Database.MinConnections,
		cfg.Database.MaxConnLifetime,
		cfg.Database.MaxConnIdleTime,
	); err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	logger.Info().Msg("Database connected")

	if err := handleInterruptedRuns(ctx, logger); err != nil {
		logger.Warn().Err(err).Msg("Failed to handle interrupted runs")
	}

	if err := sources.InitializeDefaultAdapters(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize source adapters")
	}

	tripPlanner := planner.New(&cfg.Planner)
	weatherClient := weather.NewClient(&cfg.Weather)

	catalogCache := discovery.NewCatalogCache(database.Pool(), &cfg.Discovery)
	go func() {
		if err := catalogCache.StartWarmup(ctx); err != nil {
			logger.Warn().Err(err).Msg("Catalog cache warmup incomplete")
		}
	}()

	handlers.InitPlanner(tripPlanner, catalogCache, weatherClient)

	cleanupManager := jobs.NewCleanupManager(cfg.Cleanup, logger)
	cleanupManager.Start()

	if cfg.Logging.Level == "info" || cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	setupMiddleware(router, logger)

	router.GET("/health", handlers.HealthCheck)
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	internal := router.Group("/internal")
	internal.Use(middleware.InternalAuthMiddleware())
	internal.Use(middleware.ServiceRateLimitMiddleware(50, 100))
	{
		internal.GET("/health", handlers.HealthCheck)

		plan := internal.Group("/plan")
		{
			plan.POST("/score", handlers.ScoreCandidates)
			plan.POST("/route", handlers.OptimizeRoute)
		}

		trips := internal.Group("/trips")
		{
			trips.POST("", handlers.CreateTrip)
			trips.GET("", handlers.ListTrips)
			trips.GET("/:id", handlers.GetTrip)
			trips.DELETE("/:id", handlers.DeleteTrip)
			trips.PUT("/:id/itinerary", handlers.SaveItinerary)
		}

		pois := internal.Group("/pois")
		{
			pois.GET("/search", handlers.SearchPOIs)
		}

		catalog := internal.Group("/catalog")
		{
			catalog.POST("/cache/warmup", handlers.CacheWarmup)
			catalog.POST("/cache/refresh/:source", handlers.CacheRefresh)
			catalog.GET("/cache/health", handlers.CacheHealth)
		}

		admin := internal.Group("/admin")
		{
			admin.POST("/import/:source", handlers.TriggerImport)
		}

		imports := internal.Group("/import")
		{
			imports.GET("/runs", handlers.ListImportRuns)
			imports.GET("/runs/:id", handlers.GetImportRun)
		}
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")
	cleanupManager.Stop()
	catalogCache.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := telemetryCleanup(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Telemetry shutdown failed")
	}

	logger.Info().Msg("Server exited")
}

// handleInterruptedRuns marks import runs left in 'running' by a previous
// process as failed so they do not block checksum dedup forever
func handleInterruptedRuns(ctx context.Context, logger *zerolog.Logger) error {
	pool := database.Pool()

	rows, err := pool.Query(ctx, `
		SELECT id, source_slug, started_at, processed_files, total_files
		FROM import_runs
		WHERE status = 'running'
		ORDER BY started_at DESC
	`)
	if err != nil {
		return fmt.Errorf("failed to query running runs: %w", err)
	}
	defer rows.Close()

	type interrupted struct {
		ID             string
		Source         string
		Started        *time.Time
		ProcessedFiles *int
		TotalFiles     *int
	}

	var runs []interrupted
	for rows.Next() {
		var run interrupted
		if err := rows.Scan(&run.ID, &run.Source, &run.Started, &run.ProcessedFiles, &run.TotalFiles); err != nil {
			logger.Error().Err(err).Msg("Failed to scan run")
			continue
		}
		runs = append(runs, run)
	}

	if len(runs) == 0 {
		logger.Info().Msg("No interrupted runs found")
		return nil
	}

	for _, run := range runs {
		_, err := pool.Exec(ctx, `
			UPDATE import_runs
			SET status = 'failed',
			    completed_at = NOW(),
			    metadata = '{"interrupted_reason": "Service restarted during processing"}'
			WHERE id = $1
		`, run.ID)

		if err != nil {
			logger.Error().Err(err).Str("id", run.ID).Msg("Failed to mark run as interrupted")
			continue
		}
		logger.Info().
			Str("id", run.ID).
			Str("source", run.Source).
			Msg("Marked interrupted run")
	}

	logger.Info().Int("count", len(runs)).Msg("Handled interrupted runs")
	return nil
}

func initLogger(cfg config.LoggingConfig) *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var output io.Writer
	if cfg.Format == "json" {
		output = os.Stdout
	} else {
		output = zerolog.ConsoleWriter{Out: os.Stdout, NoColor: cfg.NoColor}
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Str("service", "trip-service").Logger()
	return &logger
}

func setupMiddleware(router *gin.Engine, logger *zerolog.Logger) {
	router.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		end := time.Now()
		latency := end.Sub(start)

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Int("status", c.Writer.Status()).
			Dur("latency", latency).
			Str("ip", c.ClientIP()).
			Msg("HTTP request")
	})
}
