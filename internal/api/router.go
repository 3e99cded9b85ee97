package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/modchat/modchat/internal/a2a"
	"github.com/modchat/modchat/internal/api/handler"
	customMiddleware "github.com/modchat/modchat/internal/api/middleware"
	"github.com/modchat/modchat/internal/checkpoint"
	"github.com/modchat/modchat/internal/config"
	"github.com/modchat/modchat/internal/conversation"
	"github.com/modchat/modchat/internal/domain"
	"github.com/modchat/modchat/internal/llm"
	"github.com/modchat/modchat/internal/llm/anthropic"
	"github.com/modchat/modchat/internal/llm/google"
	"github.com/modchat/modchat/internal/llm/ollama"
	"github.com/modchat/modchat/internal/llm/openai"
	"github.com/modchat/modchat/internal/repository/postgres"
	"github.com/modchat/modchat/internal/repository/redis"
	"github.com/modchat/modchat/internal/service"
)

// NewRouter creates and configures the HTTP router. The database and Redis
// client may be nil; feedback, telemetry, metadata and rate limiting then
// degrade to no-ops.
func NewRouter(cfg *config.Config, db *postgres.DB, redisClient *redis.Client, store checkpoint.Store) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))

	// CORS
	origins := []string{cfg.Frontend.URL}
	if cfg.Frontend.URL == "" {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Vendor catalog and handle factory
	registry := llm.NewRegistry()
	registry.Register(openai.Vendor())
	registry.Register(anthropic.Vendor())
	registry.Register(google.Vendor())
	registry.Register(ollama.Vendor())

	factory := llm.NewFactory(registry, llm.Config{
		"openai":    {APIKey: cfg.LLM.OpenAI.APIKey, Timeout: cfg.LLM.Timeout},
		"anthropic": {APIKey: cfg.LLM.Anthropic.APIKey, Timeout: cfg.LLM.Timeout},
		"google":    {APIKey: cfg.LLM.Google.APIKey, Timeout: cfg.LLM.Timeout},
		"ollama":    {Host: cfg.LLM.Ollama.Host, Timeout: cfg.LLM.Timeout},
	})

	// Optional persistence backends
	var feedbackRepo domain.FeedbackRepository
	var eventRepo domain.EventRepository
	if db != nil {
		feedbackRepo = postgres.NewFeedbackRepository(db.Pool)
		eventRepo = postgres.NewEventRepository(db.Pool)
	} else {
		log.Warn().Msg("no database configured, feedback and event storage are disabled")
	}

	var metadataStore conversation.MetadataStore
	var limiter customMiddleware.RateLimiter
	if redisClient != nil {
		metadataStore = redis.NewMetadataCache(redisClient)
		limiter = redis.NewRateLimiter(redisClient, cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	} else {
		log.Warn().Msg("no Redis configured, conversation metadata and rate limiting are disabled")
	}

	conversations := conversation.NewManager(store, metadataStore, eventRepo, cfg.Checkpoint.MaxConversations)

	// Decomposition agent client
	var agentClient service.AgentClient
	if cfg.Agent.URL != "" {
		agentClient = a2a.NewClient(cfg.Agent.URL, cfg.Agent.Timeout)
	} else {
		log.Warn().Msg("MOD_AGENT_URL is not set, decomposition is disabled")
	}

	// Services
	uploadService := service.NewUploadService(cfg.Upload.Folder, cfg.Upload.MaxSize)
	chatService := service.NewChatService(factory, conversations, uploadService, agentClient)
	feedbackService := service.NewFeedbackService(feedbackRepo)

	// Handlers
	chatHandler := handler.NewChatHandler(chatService, cfg.Logging.Debug)
	modelsHandler := handler.NewModelsHandler(registry)
	feedbackHandler := handler.NewFeedbackHandler(feedbackService, cfg.Logging.Debug)
	healthHandler := handler.NewHealthHandler(registry, factory, uploadService)
	uploadHandler := handler.NewUploadHandler(uploadService)
	eventHandler := handler.NewEventHandler(conversations)
	settingsHandler := handler.NewSettingsHandler()

	rateLimitMiddleware := customMiddleware.NewRateLimitMiddleware(limiter)

	// Routes
	r.Get("/health", healthHandler.Health)
	r.Get("/models", modelsHandler.List)
	r.Post("/feedback", feedbackHandler.Submit)
	r.Post("/upload", uploadHandler.Upload)
	r.Post("/log_event", eventHandler.Log)
	r.Post("/save_settings", settingsHandler.Save)

	// Model-invoking routes carry the rate limit
	r.Group(func(r chi.Router) {
		r.Use(rateLimitMiddleware.Limit)

		r.Post("/chat", chatHandler.Chat)
		r.Post("/regenerate", chatHandler.Regenerate)
	})

	return r
}
