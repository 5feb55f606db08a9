// Package api wires the HTTP routes of murmur.
package api

import (
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/isdelr/murmur/internal/api/handlers"
	"github.com/isdelr/murmur/internal/auth"
	"github.com/isdelr/murmur/internal/forms"
	"github.com/isdelr/murmur/internal/services"
	"github.com/isdelr/murmur/internal/store"
	"github.com/isdelr/murmur/internal/websocket"
)

// Deps are the collaborators the router hands to its handlers.
type Deps struct {
	DB             handlers.Pinger
	Users          store.UserStore
	Sessions       *auth.SessionManager
	CSRF           *auth.CSRFProtector
	Validator      *forms.Validator
	Templates      *template.Template
	Hub            *websocket.Hub
	UserService    services.UserServiceProvider
	PostService    services.PostServiceProvider
	EventService   services.EventServiceProvider
	Metrics        http.Handler
	AllowedOrigins []string
}

// NewRouter creates and configures a new Chi router.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	// Initialize handlers
	pageHandler := handlers.NewPageHandler(d.PostService, d.CSRF, d.Templates)
	authHandler := handlers.NewAuthHandler(d.UserService, d.Sessions, d.Validator, pageHandler)
	postHandler := handlers.NewPostHandler(d.PostService, d.Validator, pageHandler)
	userHandler := handlers.NewUserHandler(d.UserService)
	eventHandler := handlers.NewEventHandler(d.EventService)
	wsHandler := handlers.NewWebSocketHandler(d.Hub, d.AllowedOrigins)
	healthHandler := handlers.NewHealthHandler(d.DB)

	r.Get("/healthz", healthHandler.Healthz)
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics)
	}

	r.Group(func(r chi.Router) {
		// The CSRF check binds tokens to the session, so sessions resolve first.
		r.Use(d.Sessions.Middleware(d.Users))
		r.Use(d.CSRF.Middleware)

		r.Get("/", pageHandler.Home)
		r.Post("/signin", authHandler.SignIn)
		r.Post("/signup", authHandler.SignUp)
		r.Post("/posts", postHandler.Create)
		r.Post("/logout", authHandler.Logout)

		// API versioning
		r.Route("/api/v1", func(r chi.Router) {
			if len(d.AllowedOrigins) > 0 {
				r.Use(cors.Handler(cors.Options{
					AllowedOrigins:   d.AllowedOrigins,
					AllowedMethods:   []string{"GET", "OPTIONS"},
					AllowedHeaders:   []string{"Accept", "Content-Type", auth.CSRFHeader},
					AllowCredentials: true,
					MaxAge:           300,
				}))
			}

			r.Get("/posts", postHandler.GetAll)
			r.Get("/csrf", pageHandler.CSRFToken)
			r.Get("/ws", wsHandler.Serve)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAuth)
				r.Get("/me", userHandler.GetMe)
				r.Get("/events", eventHandler.GetRecent)
			})
		})
	})

	return r
}
