package agent

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/modchat/modchat/internal/a2a"
	customMiddleware "github.com/modchat/modchat/internal/api/middleware"
	"github.com/modchat/modchat/internal/api/response"
)

// Server exposes the decomposer over the task protocol, along with the
// discovery card and service health endpoints.
type Server struct {
	card       a2a.AgentCard
	decomposer *Decomposer
	vendor     string
	model      string
	origins    []string
}

// NewServer creates the task protocol server. origins lists the peers
// allowed by CORS; empty means no CORS layer.
func NewServer(card a2a.AgentCard, decomposer *Decomposer, vendor, model string, origins []string) *Server {
	return &Server{
		card:       card,
		decomposer: decomposer,
		vendor:     vendor,
		model:      model,
		origins:    origins,
	}
}

// Router creates and configures the HTTP router
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)

	if len(s.origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.origins,
			AllowedMethods:   []string{"GET", "POST"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
		}))
	}

	r.Get("/.well-known/agent.json", s.handleCard)
	r.Post("/tasks/send", s.handleTask)
	r.Get("/healthz", s.handleHealth)
	r.Get("/info", s.handleInfo)

	return r
}

func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, s.card)
}

func (s *Server) handleTask(w http.ResponseWriter, r *http.Request) {
	var task a2a.Task
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		response.BadRequest(w, "invalid task payload")
		return
	}

	text := task.Text()
	if text == "" {
		response.BadRequest(w, "No response text provided")
		return
	}

	log.Info().
		Str("task_id", task.ID).
		Str("conversation_id", task.ConversationID).
		Msg("Decomposition request received")

	decomposed, err := s.decomposer.Decompose(r.Context(), text)
	if err != nil {
		log.Error().Err(err).Str("task_id", task.ID).Msg("decomposition failed")
		response.Error(w, http.StatusInternalServerError, "A decomposition request was sent but no response was found.")
		return
	}

	// outputStructure is always derived from the component order, never
	// cached separately.
	data := map[string]any{
		"components":      decomposed.Components,
		"outputType":      ClassifyOutput(text),
		"outputStructure": decomposed.Labels(),
	}

	id := task.ID
	if id == "" {
		id = uuid.NewString()
	}

	log.Info().Int("components", len(decomposed.Components)).Msg("Successfully decomposed response")

	response.JSON(w, http.StatusOK, a2a.Task{
		ID:        id,
		ContextID: task.ConversationID,
		Status:    a2a.TaskStatus{State: a2a.TaskCompleted},
		Artifacts: []a2a.Artifact{{
			ArtifactID: "decomposition",
			Parts:      []a2a.Part{{Kind: "data", Data: data}},
		}},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{
		"name":   Name,
		"vendor": s.vendor,
		"model":  s.model,
	})
}
