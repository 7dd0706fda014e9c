package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/Dosada05/pickup-hoops/docs" // swagger spec
	"github.com/Dosada05/pickup-hoops/handlers"
	"github.com/Dosada05/pickup-hoops/metrics"
	"github.com/Dosada05/pickup-hoops/middleware"
	"github.com/Dosada05/pickup-hoops/models"
)

type Handlers struct {
	Auth        *handlers.AuthHandler
	Game        *handlers.GameHandler
	Participant *handlers.ParticipantHandler
	Profile     *handlers.ProfileHandler
	Gym         *handlers.GymHandler
	Message     *handlers.MessageHandler
	WebSocket   *handlers.WebSocketHandler
	Dashboard   *handlers.DashboardHandler
}

type Options struct {
	JWTSecret      string
	AllowedOrigins []string
	RateLimiter    *middleware.RateLimiter
	Metrics        *metrics.Registry
	// Health проверяет зависимости (БД); nil - всегда ok.
	Health func(r *http.Request) error
}

func SetupRoutes(router *chi.Mux, h Handlers, opts Options) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	if opts.Metrics != nil {
		router.Use(opts.Metrics.InstrumentHandler)
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if opts.Health != nil {
			if err := opts.Health(r); err != nil {
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.Write([]byte("ok"))
	})
	if opts.Metrics != nil {
		router.Handle("/metrics", opts.Metrics.Handler())
	}
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	authenticate := middleware.Authenticate(opts.JWTSecret)
	optionalAuth := middleware.OptionalAuthenticate(opts.JWTSecret)

	router.Route("/api/v1", func(r chi.Router) {
		// Websocket вне таймаута и лимитера: соединение долгое.
		r.With(authenticate).Get("/ws", h.WebSocket.ServeWs)

		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware.Timeout(30 * time.Second))
			// Лимит считается по пользователю, если токен передан, иначе по IP.
			r.Use(optionalAuth)
			if opts.RateLimiter != nil {
				r.Use(opts.RateLimiter.Limit)
			}
			apiRoutes(r, h, authenticate)
		})
	})
}

func apiRoutes(r chi.Router, h Handlers, authenticate func(http.Handler) http.Handler) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Auth.Register)
		r.Post("/login", h.Auth.Login)
	})
	r.With(authenticate).Get("/me", h.Auth.Me)

	r.Route("/games", func(r chi.Router) {
		r.Get("/", h.Game.ListGames)
		r.With(authenticate).Get("/mine", h.Game.ListHostedGames)
		r.With(authenticate).Post("/", h.Game.CreateGame)

		r.Route("/{gameID}", func(r chi.Router) {
			r.Get("/", h.Game.GetGame)
			r.Get("/participants", h.Participant.ListApplications)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Put("/", h.Game.UpdateGame)
				r.Delete("/", h.Game.DeleteGame)
				r.Post("/apply", h.Participant.Apply)
				r.Patch("/participants/{participantID}", h.Participant.UpdateApplicationStatus)
			})
		})
	})

	r.Route("/participants", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/mine", h.Participant.ListMyApplications)
		r.Delete("/{participantID}", h.Participant.Withdraw)
	})

	r.Route("/profiles", func(r chi.Router) {
		r.Get("/{userID}", h.Profile.GetProfile)
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Put("/me", h.Profile.UpsertMyProfile)
			r.Post("/me/avatar", h.Profile.UploadMyAvatar)
		})
	})

	r.Route("/gyms", func(r chi.Router) {
		r.Get("/", h.Gym.ListGyms)
		r.Get("/{gymID}", h.Gym.GetGym)
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", h.Gym.CreateGym)
			r.Put("/{gymID}", h.Gym.UpdateGym)
			r.Delete("/{gymID}", h.Gym.DeleteGym)
			r.Post("/{gymID}/photo", h.Gym.UploadGymPhoto)
		})
	})

	r.Route("/messages", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/", h.Message.Inbox)
		r.Get("/unread", h.Message.UnreadCount)
		r.Get("/{userID}", h.Message.Conversation)
		r.Post("/{userID}", h.Message.Send)
		r.Post("/{userID}/read", h.Message.MarkRead)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(middleware.Authorize(models.RoleAdmin))
		r.Get("/stats", h.Dashboard.Stats)
	})
}
