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

	"github.com/claimstack/claims-chat/internal/api"
	"github.com/claimstack/claims-chat/internal/api/handler"
	"github.com/claimstack/claims-chat/internal/blob"
	"github.com/claimstack/claims-chat/internal/broadcast"
	"github.com/claimstack/claims-chat/internal/config"
	"github.com/claimstack/claims-chat/internal/domain"
	"github.com/claimstack/claims-chat/internal/repository/mongo"
	"github.com/claimstack/claims-chat/internal/repository/postgres"
	"github.com/claimstack/claims-chat/internal/repository/redis"
	"github.com/claimstack/claims-chat/internal/service"
	"github.com/joho/godotenv"
	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogger(cfg.Logging)

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Msg("Starting claims-chat API server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Document store (conversations + jobs)
	docDB, err := mongo.NewDB(ctx, cfg.Mongo)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to document store")
	}
	defer docDB.Close(context.Background())

	// Relational store (claims)
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Redis (history cache + rate limiting)
	redisClient, err := redis.NewClient(cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	// Blob store
	var blobStore blob.Store
	var artifactDir string
	if cfg.Blob.Enabled {
		fsStore, err := blob.NewFSStore(cfg.Blob.Dir, cfg.Blob.BaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize blob store")
		}
		blobStore = fsStore
		artifactDir = fsStore.Dir()
	} else {
		log.Warn().Msg("Blob store disabled, uploads will be rejected")
		blobStore = blob.Disabled{}
	}

	// Broadcast hub
	var broadcaster domain.Broadcaster
	var hub *broadcast.Hub
	if cfg.Broadcast.Enabled {
		hub = broadcast.NewHub(cfg.Broadcast.SendBuffer)
		go hub.Run(ctx)
		broadcaster = hub
	} else {
		log.Warn().Msg("Broadcast disabled, events will be dropped")
		broadcaster = broadcast.Noop{}
	}

	// Repositories
	messageRepo := mongo.NewMessageRepository(docDB)
	jobRepo := mongo.NewJobRepository(docDB)
	claimRepo := postgres.NewClaimRepository(db)
	historyCache := redis.NewHistoryCache(redisClient)
	rateLimiter := redis.NewRateLimiter(redisClient, cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)

	// Services
	jobService := service.NewJobService(jobRepo, broadcaster)
	conversationService := service.NewConversationService(messageRepo, historyCache, service.EchoResponder{}, broadcaster)
	workflowService := service.NewWorkflowService(jobService, service.LicensePlatePolicy, cfg.Workflow.CompletionQueue)
	claimService := service.NewClaimService(claimRepo, blobStore)

	go workflowService.Run(ctx, cfg.Workflow.CompletionWorkers)

	router := api.NewRouter(cfg, api.Deps{
		Conversations: conversationService,
		Workflows:     workflowService,
		Jobs:          jobService,
		Claims:        claimService,
		Hub:           hub,
		RateLimiter:   rateLimiter,
		Stores: map[string]handler.Pinger{
			"documents": docDB,
			"database":  db,
			"redis":     redisClient,
		},
		ArtifactDir: artifactDir,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

// setupLogger configures zerolog per config: console writer outside
// production, rotating file output when logging.file is set.
func setupLogger(cfg config.LoggingConfig) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if level, err := zerolog.ParseLevel(cfg.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	var out io.Writer = os.Stderr
	if cfg.File != "" {
		rotated, err := rotatelogs.New(
			cfg.File+".%Y%m%d",
			rotatelogs.WithLinkName(cfg.File),
			rotatelogs.WithRotationTime(24*time.Hour),
			rotatelogs.WithMaxAge(7*24*time.Hour),
		)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to open rotating log file, using stderr")
		} else {
			out = rotated
		}
	}

	if cfg.Format == "console" || os.Getenv("ENV") != "production" {
		out = zerolog.ConsoleWriter{Out: out}
	}
	log.Logger = log.Output(out)
}
