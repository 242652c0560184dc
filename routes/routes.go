package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/grapplehub/grapplehub/handlers"
	"github.com/grapplehub/grapplehub/middleware"
)

type Handlers struct {
	Auth        *handlers.AuthHandler
	User        *handlers.UserHandler
	Event       *handlers.EventHandler
	Match       *handlers.MatchHandler
	Competition *handlers.CompetitionHandler
	Training    *handlers.TrainingHandler
	Summary     *handlers.SummaryHandler
	WebSocket   *handlers.WebSocketHandler
}

func InitRoutes(h Handlers, jwtSecret []byte) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)

	router.Post("/auth/register", h.Auth.Register)
	router.Post("/auth/login", h.Auth.Login)

	router.Get("/swagger/*", httpSwagger.WrapHandler)

	// Живые обновления матча. Токен для websocket не требуется,
	// клиенты только слушают.
	router.Get("/ws/matches/{matchID}", h.WebSocket.ServeMatchUpdates)

	router.Route("/users", func(r chi.Router) {
		// Публичный просмотр профиля
		r.Get("/{userID}", h.User.GetProfile)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Patch("/me", h.User.UpdateProfile)
			r.Put("/me/avatar", h.User.UploadAvatar)
		})
	})

	router.Route("/events", func(r chi.Router) {
		// Публичные маршруты просмотра
		r.Get("/{eventID}", h.Event.GetEvent)
		r.Get("/{eventID}/matches", h.Match.ListEventMatches)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/", h.Event.CreateEvent)
			r.Get("/mine", h.Event.ListMyEvents)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/{matchID}", h.Match.GetMatch)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/", h.Match.CreateMatch)
			r.Delete("/{matchID}", h.Match.CancelMatch)
			r.Post("/{matchID}/requests", h.Match.RequestSlot)
			r.Post("/{matchID}/competitors", h.Match.AddManualCompetitor)
			r.Post("/{matchID}/withdraw", h.Match.Withdraw)
			r.Post("/{matchID}/result", h.Match.RecordResult)
			r.Get("/{matchID}/eligibility", h.Match.CheckEligibility)
		})
	})

	router.Route("/requests", func(r chi.Router) {
		r.Use(authenticate)

		r.Post("/{requestID}/approve", h.Match.ApproveRequest)
		r.Post("/{requestID}/reject", h.Match.RejectRequest)
	})

	router.Route("/competitors", func(r chi.Router) {
		r.Use(authenticate)

		r.Post("/{competitorID}/confirm", h.Match.ConfirmCompetitor)
		r.Delete("/{competitorID}", h.Match.RemoveCompetitor)
	})

	router.Route("/competitions", func(r chi.Router) {
		r.Use(authenticate)

		r.Post("/", h.Competition.CreateEntry)
		r.Get("/", h.Competition.ListMyEntries)
		r.Put("/{entryID}", h.Competition.UpdateEntry)
		r.Delete("/{entryID}", h.Competition.DeleteEntry)
		r.Post("/{entryID}/photo", h.Competition.UploadPodiumPhoto)
	})

	router.Route("/training", func(r chi.Router) {
		r.Use(authenticate)

		r.Post("/", h.Training.LogSession)
		r.Get("/", h.Training.ListMySessions)
		r.Delete("/{logID}", h.Training.DeleteSession)
	})

	router.Route("/summaries", func(r chi.Router) {
		r.Use(authenticate)

		r.Get("/{summaryType}", h.Summary.GetSummary)
	})

	return router
}
