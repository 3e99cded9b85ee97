package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/modchat/modchat/internal/a2a"
	"github.com/modchat/modchat/internal/agent"
	"github.com/modchat/modchat/internal/config"
	"github.com/modchat/modchat/internal/llm"
	"github.com/modchat/modchat/internal/llm/anthropic"
	"github.com/modchat/modchat/internal/llm/google"
	"github.com/modchat/modchat/internal/llm/ollama"
	"github.com/modchat/modchat/internal/llm/openai"
	"github.com/modchat/modchat/internal/logging"
)

func main() {
	// Load .env file - try multiple locations
	envPaths := []string{".env", "../.env", "../../.env"}
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			fmt.Printf("Loaded .env from: %s\n", p)
			break
		}
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	if err := logging.Setup(cfg.Logging); err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}

	log.Info().
		Str("vendor", cfg.Agent.Vendor).
		Str("model", cfg.Agent.Model).
		Int("port", cfg.Agent.Port()).
		Msg("Starting decomposition agent")

	// Resolve the agent's model handle up front so a bad vendor or
	// missing API key fails at startup, not on the first task.
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

	handle, err := factory.Resolve(cfg.Agent.Vendor, cfg.Agent.Model, map[string]any{
		"contextLength": 32000,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to resolve agent model")
	}

	card := a2a.AgentCard{
		Name:        cfg.Agent.Name,
		Description: cfg.Agent.Description,
		URL:         cfg.Agent.BaseURL,
		Version:     cfg.Agent.Version,
		Capabilities: a2a.AgentCapabilities{
			Streaming:         cfg.Agent.Streaming,
			PushNotifications: cfg.Agent.PushNotifications,
		},
	}

	origins := []string{cfg.Frontend.URL, cfg.Backend.URL}
	agentServer := agent.NewServer(card, agent.NewDecomposer(handle), cfg.Agent.Vendor, cfg.Agent.Model, origins)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", cfg.Agent.Port()),
		Handler:      agentServer.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Msgf("Agent listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down agent...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Agent stopped")
}
