// Package handlers exposes profiles, exercises, session history and live
// session drafts over a JSON HTTP API.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"speechcoach/internal/security"
	"speechcoach/internal/service"
	"speechcoach/internal/session"
)

// Dependencies are the services the API is built on. Uploads and Ping are optional.
type Dependencies struct {
	Profiles  *service.ProfileService
	Exercises *service.ExerciseService
	History   *service.HistoryService
	Drafts    *session.Manager
	// Uploads serves stored recordings under /uploads
	Uploads http.Handler
	// Ping reports whether the store is reachable
	Ping func(ctx context.Context) error
	// DraftLimiter, when set, bounds draft creation per client IP
	DraftLimiter   *security.RateLimiter
	AllowedOrigins []string
	MaxBodyBytes   int64
	Logger         logrus.FieldLogger
}

// Server represents the HTTP API server
type Server struct {
	deps   Dependencies
	logger logrus.FieldLogger
	router *chi.Mux
}

// NewServer creates a new API server
func NewServer(deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}
	if deps.MaxBodyBytes <= 0 {
		deps.MaxBodyBytes = defaultMaxBodyBytes
	}
	if len(deps.AllowedOrigins) == 0 {
		deps.AllowedOrigins = []string{"*"}
	}
	s := &Server{deps: deps, logger: deps.Logger}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(Logging(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.deps.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	if s.deps.Uploads != nil {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", s.deps.Uploads))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/profiles", func(r chi.Router) {
			r.Get("/", s.handleListProfiles)
			r.Post("/", s.handleCreateProfile)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetProfile)
				r.Put("/", s.handleUpdateProfile)
				r.Delete("/", s.handleDeleteProfile)
				r.Get("/progress", s.handleProgress)
			})
		})

		r.Route("/exercises", func(r chi.Router) {
			r.Get("/", s.handleListExercises)
			r.Post("/", s.handleCreateExercise)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetExercise)
				r.Put("/", s.handleUpdateExercise)
				r.Delete("/", s.handleDeleteExercise)
			})
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", s.handleListSessions)
			r.Get("/{id}", s.handleGetSession)
		})

		r.Route("/drafts", func(r chi.Router) {
			r.With(s.limitDrafts).Post("/", s.handleCreateDraft)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetDraft)
				r.Delete("/", s.handleDeleteDraft)
				r.Post("/devices", s.handleSetDevices)
				r.Post("/start", s.handleStartDraft)
				r.Post("/recording/begin", s.handleBeginRecording)
				r.Post("/recording/chunk", s.handleRecordingChunk)
				r.Post("/recording/end", s.handleEndRecording)
				r.Post("/frames", s.handleFrame)
				r.Post("/emotions", s.handleObserveEmotion)
				r.Post("/advance", s.handleAdvance)
				r.Post("/reset", s.handleReset)
				r.Post("/retry-save", s.handleRetrySave)
				r.Get("/events", s.handleEvents)
			})
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ping != nil {
		if err := s.deps.Ping(r.Context()); err != nil {
			s.logger.WithError(err).Warn("Health check failed")
			respondError(w, http.StatusServiceUnavailable, "not_ready", "store unreachable")
			return
		}
	}

	drafts := 0
	if s.deps.Drafts != nil {
		drafts = s.deps.Drafts.Count()
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
		"drafts": drafts,
	})
}
