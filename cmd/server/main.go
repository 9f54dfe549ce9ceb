package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/medprep/medmcq-backend/internal/billing"
	"github.com/medprep/medmcq-backend/internal/config"
	"github.com/medprep/medmcq-backend/internal/database"
	"github.com/medprep/medmcq-backend/internal/handler"
	"github.com/medprep/medmcq-backend/internal/logger"
	"github.com/medprep/medmcq-backend/internal/repository"
	"github.com/medprep/medmcq-backend/internal/router"
	"github.com/medprep/medmcq-backend/internal/service"
	"github.com/medprep/medmcq-backend/internal/validator"
	"github.com/medprep/medmcq-backend/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Bool("billing", cfg.BillingEnabled()).
		Msg("Starting MedMCQ Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	moduleRepo := repository.NewModuleRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	sessionRepo := repository.NewStudySessionRepository(pool)
	attemptRepo := repository.NewAttemptRepository(pool)
	planRepo := repository.NewPlanRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb)
	userService := service.NewUserService(userRepo, authService)
	entitlementService := service.NewEntitlementService(userRepo, moduleRepo)
	moduleService := service.NewModuleService(moduleRepo, entitlementService, rdb, log)
	questionService := service.NewQuestionService(questionRepo, moduleRepo, entitlementService, rdb, cfg, log)
	sessionService := service.NewStudySessionService(sessionRepo, attemptRepo, questionService, entitlementService, rdb, log)
	practiceService := service.NewPracticeService(
		questionService,
		entitlementService,
		sessionService,
		service.NewRedisRunStore(rdb, cfg.PracticeRunTTL),
		nil,
		log,
	)
	planService := service.NewPlanService(planRepo, rdb, log)

	// A nil provider leaves the payment endpoints answering 503.
	var provider billing.Provider
	if cfg.BillingEnabled() {
		provider = billing.NewStripeProvider(cfg.StripeSecretKey, cfg.StripeWebhookSecret, log)
	}
	billingService := service.NewBillingService(userRepo, planRepo, paymentRepo, provider, cfg.PaymentCurrency, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:         handler.NewAuthHandler(authService, userService, log),
		User:         handler.NewUserHandler(userService, sessionService, billingService, log),
		Module:       handler.NewModuleHandler(moduleService, log),
		Question:     handler.NewQuestionHandler(questionService, sessionService, log),
		StudySession: handler.NewStudySessionHandler(sessionService, log),
		Practice:     handler.NewPracticeHandler(practiceService, log),
		Billing:      handler.NewBillingHandler(planService, billingService, log),
		WS:           handler.NewWSHandler(practiceService, log, cfg.AllowedOrigins),
		System:       handler.NewSystemHandler(pool, rdb, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	attemptWorker := worker.NewAttemptWorker(pool, rdb, log)
	sessionCloseWorker := worker.NewSessionCloseWorker(pool, rdb, log)

	workers.Add(2)
	go func() {
		defer workers.Done()
		attemptWorker.Start(workerCtx)
	}()
	go func() {
		defer workers.Done()
		sessionCloseWorker.Start(workerCtx)
	}()

	// ─── Prewarm Redis Caches ─────────────────────────────────────────
	// Load every module's question set before accepting traffic so the
	// first practice runs do not all miss the cache at once.
	if err := questionService.PrewarmAllCaches(ctx); err != nil {
		log.Warn().Err(err).Msg("Cache prewarm failed")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(ctx, authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for their final flush.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
