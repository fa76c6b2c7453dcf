package api

import (
	"net/http"
	"time"

	"leetlab/internal/api/handler"
	"leetlab/internal/api/middleware"
	"leetlab/internal/app/service"
	"leetlab/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
)

// Services groups what the HTTP layer calls into.
type Services struct {
	Auth        *service.AuthService
	Problems    *service.ProblemService
	Submissions *service.SubmissionService
	Leaderboard *service.LeaderboardService
	Chat        service.ChatService

	AllowedOrigins []string
	Health         map[string]handler.Pinger
	Metrics        http.Handler
}

func NewRouter(s Services) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Session cookie first, bearer header as fallback.
	r.Use(jwtauth.Verify(security.TokenAuth, security.TokenFromSessionCookie, jwtauth.TokenFromHeader))
	authn := middleware.Authenticator(s.Auth)

	r.Get("/health", handler.Health(s.Health))
	if s.Metrics != nil {
		r.Handle("/metrics", s.Metrics)
	}

	r.Route("/api/v1", func(v1 chi.Router) {
		authHandler := handler.NewAuthHandler(s.Auth, s.Problems, s.Submissions)
		v1.Route("/user", func(ur chi.Router) { authHandler.RegisterRoutes(ur, authn) })

		problemHandler := handler.NewProblemHandler(s.Problems, s.Submissions)
		v1.Route("/problems", func(pr chi.Router) { problemHandler.RegisterRoutes(pr, authn) })

		submissionHandler := handler.NewSubmissionHandler(s.Submissions)
		v1.Route("/submissions", func(sr chi.Router) { submissionHandler.RegisterRoutes(sr, authn) })

		chatHandler := handler.NewChatHandler(s.Chat)
		v1.Route("/ai", func(ar chi.Router) { chatHandler.RegisterRoutes(ar, authn) })

		leaderboardHandler := handler.NewLeaderboardHandler(s.Leaderboard)
		v1.Route("/leaderboard", leaderboardHandler.RegisterRoutes)

		v1.Get("/languages", handler.ListLanguages)
	})

	return r
}
