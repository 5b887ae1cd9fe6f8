package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/aulalink/aula-backend/internal/config"
	"github.com/aulalink/aula-backend/internal/database"
	"github.com/aulalink/aula-backend/internal/handler"
	"github.com/aulalink/aula-backend/internal/logger"
	"github.com/aulalink/aula-backend/internal/repository"
	"github.com/aulalink/aula-backend/internal/router"
	"github.com/aulalink/aula-backend/internal/service"
	"github.com/aulalink/aula-backend/internal/validator"
	"github.com/aulalink/aula-backend/internal/worker"
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
		Msg("Starting AulaLink Backend")

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
	staffRepo := repository.NewStaffRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)
	simulationRepo := repository.NewSimulationRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	participantRepo := repository.NewParticipantRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)
	cheatRepo := repository.NewCheatRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb)
	presenceService := service.NewPresenceService(rdb, cfg.PresenceTTL)
	broadcaster := service.NewSessionBroadcaster(rdb, log)
	studentService := service.NewStudentService(studentRepo, authService, log)
	simulationService := service.NewSimulationService(simulationRepo, questionRepo, rdb, log)
	sessionService := service.NewSessionService(
		sessionRepo, participantRepo, simulationRepo, messageRepo, cheatRepo,
		presenceService, broadcaster, log,
	)
	participantService := service.NewParticipantService(
		participantRepo, sessionRepo, simulationService, presenceService, rdb, log,
	)
	messageService := service.NewMessageService(messageRepo, participantRepo, broadcaster, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:        handler.NewAuthHandler(authService, studentService, staffRepo),
		Session:     handler.NewSessionHandler(sessionService),
		Message:     handler.NewMessageHandler(messageService),
		Simulation:  handler.NewSimulationHandler(simulationService),
		Question:    handler.NewQuestionHandler(simulationService),
		StudentMgmt: handler.NewStudentManagementHandler(studentService),
		StudentPortal: handler.NewStudentPortalHandler(
			sessionService, participantService, simulationService, messageService,
		),
		WS: handler.NewWSHandler(participantService, presenceService, broadcaster, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	answerWorker := worker.NewAnswerWorker(pool, rdb, log)
	cheatWorker := worker.NewCheatWorker(pool, rdb, log)

	go answerWorker.Start(workerCtx)
	go cheatWorker.Start(workerCtx)

	// ─── Prewarm Redis Caches ─────────────────────────────────────────
	// Load all published simulations into Redis BEFORE accepting traffic,
	// so the first polling wave never races a lazy load.
	if err := simulationService.PrewarmAll(ctx); err != nil {
		log.Warn().Err(err).Msg("Cache prewarm failed")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
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

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second)

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
