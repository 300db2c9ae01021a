package router

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"app/internal/api/v1/handler"
	"app/internal/config"
	"app/internal/middleware"
	"app/internal/repository"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

func New(cfg *config.Config, logger zerolog.Logger) (http.Handler, *sql.DB, error) {
	logger.Info().Str("environment", cfg.Environment).Msg("Router initializing")

	// 1. Open DB connection (connection pooling)
	dsn := cfg.DBConnectionString
	// In a development environment, ensure SSL is disabled for local testing.
	// In production the connection string carries the correct SSL settings.
	if cfg.Environment == "development" && !strings.Contains(dsn, "sslmode") {
		separator := "?"
		if strings.Contains(dsn, "?") {
			separator = "&"
		}
		dsn += separator + "sslmode=disable"
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open DB connection")
		return nil, nil, err
	}
	pingCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.StoreTimeoutSec)*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		logger.Error().Err(err).Msg("Failed to ping DB")
		return nil, nil, err
	}
	logger.Info().Msg("Database connection successful")

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)

	// 2. Initialize validator
	validate := validator.New(validator.WithRequiredStructEnabled())

	// 3. Initialize repositories & services & handlers
	limitRepo := repository.NewLimitRepo(db)
	usageRepo := repository.NewUsageRepo(db)
	conversationRepo := repository.NewConversationRepo(db, logger)

	tierSvc := service.NewTierService(service.NewStripeProductClient(), logger)
	quotaSvc := service.NewQuotaService(limitRepo, usageRepo, logger)
	billingSvc := service.NewBillingService(cfg, limitRepo, tierSvc, logger)
	transcriber := service.NewTranscriptionClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.TranscriptionModel, time.Duration(cfg.TranscriptionTimeoutSec)*time.Second, logger)
	analyzer := service.NewAnalysisClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.AnalysisModel, time.Duration(cfg.AnalysisTimeoutSec)*time.Second, logger)
	processingSvc := service.NewProcessingService(quotaSvc, transcriber, analyzer, service.NewAnalysisParser(), conversationRepo, logger)

	healthHandler := handler.NewHealthHandler(cfg)
	audioHandler := handler.NewAudioHandler(processingSvc, validate, logger)
	usageHandler := handler.NewUsageHandler(quotaSvc, logger)

	// 4. Initialize middleware
	authMiddleware := middleware.AuthMiddleware(cfg.JWTSecret)
	metricsAuth := middleware.MetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword)

	// 5. Create ServeMux router
	mux := http.NewServeMux()
	healthHandler.RegisterRoutes(mux)
	audioHandler.RegisterRoutes(mux, authMiddleware)
	usageHandler.RegisterRoutes(mux, authMiddleware)
	// Stripe signs the raw body; the handler verifies it before parsing.
	mux.HandleFunc("/stripe-webhook", billingSvc.HandleWebhook)
	mux.Handle("/metrics", metricsAuth(promhttp.Handler()))

	// 6. Apply CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"https://muilinguistics.netlify.app", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-User-ID"},
		AllowCredentials: true,
	})

	h := middleware.RecoverMiddleware(middleware.LoggerMiddleware(middleware.MetricsMiddleware(c.Handler(mux))))
	return h, db, nil
}
