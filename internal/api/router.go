package api

import (
	"net/http"

	"github.com/claimstack/claims-chat/internal/api/handler"
	customMiddleware "github.com/claimstack/claims-chat/internal/api/middleware"
	"github.com/claimstack/claims-chat/internal/api/response"
	"github.com/claimstack/claims-chat/internal/broadcast"
	"github.com/claimstack/claims-chat/internal/config"
	"github.com/claimstack/claims-chat/internal/repository/redis"
	"github.com/claimstack/claims-chat/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Deps carries the constructed services and collaborators the router
// wires into handlers.
type Deps struct {
	Conversations *service.ConversationService
	Workflows     *service.WorkflowService
	Jobs          *service.JobService
	Claims        *service.ClaimService
	Hub           *broadcast.Hub
	RateLimiter   *redis.RateLimiter
	Stores        map[string]handler.Pinger
	ArtifactDir   string
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, deps Deps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	chatHandler := handler.NewChatHandler(deps.Conversations)
	workflowHandler := handler.NewWorkflowHandler(deps.Workflows, deps.Jobs)
	claimHandler := handler.NewClaimHandler(deps.Claims)
	uploadHandler := handler.NewUploadHandler(deps.Claims, cfg.Blob.MaxSize)

	r.Route("/api/v1", func(r chi.Router) {
		// The WebSocket and uploads manage their own deadlines; the
		// REST surface gets the shared timeout.
		r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))

		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(deps.Stores))

		r.Group(func(r chi.Router) {
			if deps.RateLimiter != nil {
				rateLimitMiddleware := customMiddleware.NewRateLimitMiddleware(deps.RateLimiter)
				r.Use(rateLimitMiddleware.Limit)
			}

			r.Post("/chat", chatHandler.Post)
			r.Get("/conversations/{sessionID}", chatHandler.GetConversation)

			r.Post("/workflows", workflowHandler.Start)
			r.Route("/jobs/{jobID}", func(r chi.Router) {
				r.Get("/", workflowHandler.Get)
				r.Post("/resume", workflowHandler.Resume)
			})

			r.Route("/claims/{claimID}", func(r chi.Router) {
				r.Get("/", claimHandler.Get)
				r.Get("/attachments", claimHandler.ListAttachments)
				r.Post("/uploads", uploadHandler.Upload)
			})
		})
	})

	if deps.Hub != nil {
		wsHandler := handler.NewWSHandler(deps.Hub, deps.Conversations)
		r.Get("/ws", wsHandler.Serve)
	} else {
		r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
			response.Error(w, http.StatusServiceUnavailable, "broadcast disabled")
		})
	}

	// Uploaded artifacts are served straight from the blob directory.
	if deps.ArtifactDir != "" {
		fileServer := http.StripPrefix("/artifacts/", http.FileServer(http.Dir(deps.ArtifactDir)))
		r.Get("/artifacts/*", fileServer.ServeHTTP)
	}

	return r
}
