package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/terra-clan/aptitude-engine/internal/app"
	"github.com/terra-clan/aptitude-engine/internal/assessment"
	"github.com/terra-clan/aptitude-engine/internal/auth"
	"github.com/terra-clan/aptitude-engine/internal/catalog"
	"github.com/terra-clan/aptitude-engine/internal/config"
	"github.com/terra-clan/aptitude-engine/internal/services"
)

const requestTimeout = 60 * time.Second

// Server represents the HTTP API server
type Server struct {
	config         config.ServerConfig
	router         *chi.Mux
	bank           catalog.Bank
	assessments    assessment.Manager
	app            *app.Service
	probes         *services.Registry
	authMiddleware *AuthMiddleware
}

// NewServer creates a new API server. probes may be nil.
func NewServer(
	cfg config.ServerConfig,
	bank catalog.Bank,
	assessments assessment.Manager,
	appService *app.Service,
	verifier auth.Verifier,
	probes *services.Registry,
) *Server {
	if probes == nil {
		probes = services.NewRegistry()
	}
	s := &Server{
		config:         cfg,
		bank:           bank,
		assessments:    assessments,
		app:            appService,
		probes:         probes,
		authMiddleware: NewAuthMiddleware(verifier),
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(loggingMiddleware)
	r.Use(middleware.Recoverer)

	origins := s.config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/auth", func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Post("/signup", s.handleSignUp)
		r.Post("/login", s.handleLogin)
		r.Post("/otp/send", s.handleSendPhoneCode)
		r.Post("/otp/verify", s.handleVerifyPhoneCode)

		r.With(s.authMiddleware.Authenticate).Post("/logout", s.handleLogout)
		r.With(s.authMiddleware.Authenticate).Get("/session", s.handleSession)
	})

	r.Route("/api/v1", func(r chi.Router) {
		// the countdown stream outlives the request timeout
		r.With(s.authMiddleware.Authenticate).Get("/assessments/{id}/ws", s.handleCountdownWS)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))

			r.Get("/topics", s.handleListTopics)
			r.Get("/topics/{topicId}", s.handleGetTopic)

			r.Group(func(r chi.Router) {
				r.Use(s.authMiddleware.Authenticate)

				r.Post("/assessments", s.handleStartAssessment)
				r.Get("/assessments/{id}", s.handleGetAssessment)
				r.Delete("/assessments/{id}", s.handleDiscardAssessment)
				r.Put("/assessments/{id}/answer", s.handleAnswer)
				r.Post("/assessments/{id}/navigate", s.handleNavigate)
				r.Post("/assessments/{id}/submit", s.handleSubmit)

				r.Get("/results/{id}", s.handleGetResult)

				r.Get("/scores", s.handleListScores)
				r.Get("/scores/summary", s.handleScoreSummary)
				r.Get("/scores/best", s.handlePersonalBest)
				r.Post("/scores/import", s.handleImportScores)

				r.Get("/profile", s.handleGetProfile)
				r.Patch("/profile", s.handleUpdateProfile)
			})
		})
	})

	s.router = r
}
