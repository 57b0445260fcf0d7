package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"golang.org/x/crypto/bcrypt"

	database "github.com/wayfarer-bot/wayfarer/app/db"
	appLogger "github.com/wayfarer-bot/wayfarer/app/logger"
	appMiddleware "github.com/wayfarer-bot/wayfarer/app/middleware"
	"github.com/wayfarer-bot/wayfarer/config"
	"github.com/wayfarer-bot/wayfarer/internal/conversation"
	"github.com/wayfarer-bot/wayfarer/internal/enrich"
	"github.com/wayfarer-bot/wayfarer/internal/geo"
	"github.com/wayfarer-bot/wayfarer/internal/panel"
	"github.com/wayfarer-bot/wayfarer/internal/router"
	"github.com/wayfarer-bot/wayfarer/internal/store"
)

func main() {
	createAdmin := flag.String("create-admin", "", "create a panel admin with this username (password from ADMIN_PASSWORD) and exit")
	flag.Parse()

	// Use standard log until slog is configured, in case godotenv fails.
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	logger := setupLogger(cfg.Mode)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Database Setup ---
	dbConfig, err := database.NewDatabaseConfig(&cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		os.Exit(1)
	}

	if err = database.RunMigrations(dbConfig.ConnectionURL, logger); err != nil {
		logger.Error("Failed to run database migrations", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if !database.WaitForDB(ctx, pool, logger) {
		logger.Error("Database not ready after waiting, exiting.")
		os.Exit(1)
	}

	// --- Repositories ---
	userRepo := store.NewPostgresUserRepo(pool, logger)
	journeyRepo := store.NewPostgresJourneyRepo(pool, logger)
	locationRepo := store.NewPostgresLocationRepo(pool, logger)
	noteRepo := store.NewPostgresNoteRepo(pool, logger)
	adminRepo := store.NewPostgresAdminRepo(pool, logger)

	if *createAdmin != "" {
		if err := seedAdmin(ctx, adminRepo, *createAdmin); err != nil {
			logger.Error("Failed to create admin", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Admin created", slog.String("username", *createAdmin))
		return
	}

	// --- Metrics ---
	exporter, err := otelprom.New(otelprom.WithRegisterer(prometheus.DefaultRegisterer))
	if err != nil {
		logger.Error("Failed to create Prometheus exporter", slog.Any("error", err))
		os.Exit(1)
	}
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName("wayfarer"),
		)),
	)
	otel.SetMeterProvider(meterProvider)
	defer func() {
		if err := meterProvider.Shutdown(context.Background()); err != nil {
			logger.Warn("Meter provider shutdown failed", slog.Any("error", err))
		}
	}()

	// --- Dependency Injection ---
	geoClient := geo.NewClient(&cfg, logger)
	enricher := enrich.NewService(geoClient, geoClient, geoClient, cfg.Providers.HotelRadiusMeters, logger)
	states := conversation.NewStateStore(cfg.Conversation.ScratchTTL)
	engine := conversation.NewEngine(states, userRepo, journeyRepo, locationRepo, noteRepo, geoClient, enricher, logger)
	messageHandler := conversation.NewHandler(engine, logger)

	panelService := panel.NewService(adminRepo, userRepo, journeyRepo, locationRepo, noteRepo, cfg.JWT, logger)
	panelHandler := panel.NewHandler(panelService, logger)

	// --- Router Setup ---
	routerConfig := &router.Config{
		MessageHandler:         messageHandler,
		PanelHandler:           panelHandler,
		AuthenticateMiddleware: appMiddleware.Authenticate([]byte(cfg.JWT.SecretKey)),
	}
	mainRouter := router.SetupRouter(routerConfig)

	mux := chi.NewMux()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(appLogger.StructuredLogger(logger))
	mux.Use(middleware.Recoverer)
	mux.Use(middleware.StripSlashes)
	mux.Use(middleware.Timeout(60 * time.Second))
	mux.Use(middleware.Compress(5, "application/json"))
	mux.Mount("/", mainRouter)

	// --- HTTP Server Setup ---
	serverAddress := fmt.Sprintf(":%s", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddress,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	go func() {
		logger.Info("Starting HTTP server", slog.String("address", serverAddress))
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server ListenAndServe error", slog.Any("error", err))
			cancel()
		}
	}()

	<-ctx.Done()

	logger.Info("Shutdown signal received, starting graceful shutdown...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", slog.Any("error", err))
	} else {
		logger.Info("HTTP server gracefully stopped")
	}

	logger.Info("Application shut down complete.")
}

// seedAdmin creates a panel administrator from the ADMIN_PASSWORD env var.
func seedAdmin(ctx context.Context, admins store.AdminRepo, username string) error {
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		return errors.New("ADMIN_PASSWORD environment variable is not set")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if _, err := admins.Create(ctx, username, string(hash)); err != nil {
		return fmt.Errorf("storing admin: %w", err)
	}
	return nil
}

// setupLogger configures and returns the application logger.
func setupLogger(mode string) *slog.Logger {
	if mode == "development" || mode == "" {
		tintOpts := &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
			AddSource:  true,
		}
		logger := slog.New(tint.NewHandler(os.Stdout, tintOpts))
		log.Println("Initialized development logger (tint)")
		return logger
	}

	jsonOpts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, jsonOpts))
	log.Println("Initialized production logger (JSON)")
	return logger
}
