package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"leetlab/internal/api"
	"leetlab/internal/api/handler"
	"leetlab/internal/app/service"
	"leetlab/internal/app/worker"
	"leetlab/internal/common/security"
	"leetlab/internal/domain/repository"
	"leetlab/internal/platform/config"
	"leetlab/internal/platform/database"
	"leetlab/internal/platform/judge"
	"leetlab/internal/platform/logger"
	"leetlab/internal/platform/metrics"
	"leetlab/internal/platform/queue"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	// 1. Configuration and logging
	config.Load()
	logger.Init(config.AppConfig.LogLevel, config.AppConfig.LogPretty)
	log.Info().Msg("Configuration loaded")

	// 2. JWT
	security.InitJWT()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Database
	database.Connect()
	defer database.Close()
	if err := database.Migrate(ctx, database.DB); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database schema")
	}

	// 4. Redis
	queue.ConnectRedis()
	defer queue.CloseRedis()

	// 5. Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	// 6. Judge client
	judgeClient := judge.NewClient(judge.Config{
		BaseURL:      config.AppConfig.JudgeBaseURL,
		APIKey:       config.AppConfig.JudgeAPIKey,
		APIHost:      config.AppConfig.JudgeAPIHost,
		PollAttempts: config.AppConfig.JudgePollAttempts,
		PollInterval: config.AppConfig.JudgePollInterval,
		Timeout:      config.AppConfig.JudgeRequestTimeout,
	}, collector)

	// 7. Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	problemRepo := repository.NewPgProblemRepository(database.DB)
	submissionRepo := repository.NewPgSubmissionRepository(database.DB)
	blocklist := repository.NewRedisTokenBlocklist(queue.RDB)
	jobQueue := queue.NewJobQueue(queue.RDB, config.AppConfig.ExecutionQueueName)

	// 8. Services
	authService := service.NewAuthService(userRepo, blocklist)
	problemService := service.NewProblemService(problemRepo, judgeClient)
	submissionService := service.NewSubmissionService(submissionRepo, problemRepo, jobQueue, judgeClient, collector)
	leaderboardService := service.NewLeaderboardService(userRepo)
	chatService, err := service.NewGeminiChatService(ctx, config.AppConfig.GeminiAPIKey, config.AppConfig.GeminiModel)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise AI chat")
	}
	defer chatService.Close()

	// 9. Execution worker
	lock := queue.NewLock(queue.RDB, config.AppConfig.ExecutionLockKey,
		time.Duration(config.AppConfig.ExecutionLockTTLSeconds)*time.Second)
	executionWorker := worker.NewExecutionWorker(jobQueue, lock, submissionService, config.AppConfig.ExecutionMaxAttempts)

	// 10. Router & HTTP server
	router := api.NewRouter(api.Services{
		Auth:           authService,
		Problems:       problemService,
		Submissions:    submissionService,
		Leaderboard:    leaderboardService,
		Chat:           chatService,
		AllowedOrigins: strings.Split(config.AppConfig.FrontendURL, ","),
		Health: map[string]handler.Pinger{
			"postgres": database.DB.PingContext,
			"redis":    func(ctx context.Context) error { return queue.RDB.Ping(ctx).Err() },
		},
		Metrics: metrics.Handler(registry),
	})

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return executionWorker.Start(gctx)
	})
	g.Go(func() error {
		log.Info().Str("port", config.AppConfig.APIPort).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
		return
	}
	log.Info().Msg("Server and worker stopped gracefully")
}
