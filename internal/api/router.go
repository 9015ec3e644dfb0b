package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/padsapp/pads-be/internal/api/handlers"
	"github.com/padsapp/pads-be/internal/auth"
	"github.com/padsapp/pads-be/internal/services"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(
	authn *auth.Authenticator,
	userService services.UserServiceProvider,
	timerService services.TimerServiceProvider,
	groupService services.GroupServiceProvider,
	importService services.ImportServiceProvider,
	allowedOrigin string,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{allowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService, importService, authn)
	timerHandler := handlers.NewTimerHandler(timerService)
	groupHandler := handlers.NewGroupHandler(groupService)

	r.Route("/api/v1", func(r chi.Router) {
		// Account creation and sign-in need no session
		r.Post("/users", userHandler.Register)
		r.Post("/session", userHandler.Login)
		r.Post("/quicklists", userHandler.CreateQuickList)

		// Reads resolve a session when present, otherwise run as the
		// anonymous actor and see only public timers
		r.Group(func(r chi.Router) {
			r.Use(authn.Optional())
			r.Get("/timers", timerHandler.GetAll)
			r.Get("/timers/permalink/{code}", timerHandler.GetByPermalink)
			r.Get("/timers/{id}", timerHandler.Get)
			r.Get("/timers/{id}/history", timerHandler.GetHistory)
		})

		// Everything else requires a signed-in actor
		r.Group(func(r chi.Router) {
			r.Use(authn.Require())

			r.Route("/users/me", func(r chi.Router) {
				r.Get("/", userHandler.GetMe)
				r.Delete("/", userHandler.DeleteMe)
				r.Put("/password", userHandler.ChangePassword)
				r.Put("/timezone", userHandler.SetTimeZone)
				r.Put("/display-name", userHandler.SetDisplayName)
				r.Post("/import", userHandler.ImportQuickList)
			})

			r.Post("/timers", timerHandler.Create)
			r.Route("/timers/{id}", func(r chi.Router) {
				r.Put("/description", timerHandler.Rename)
				r.Post("/reset", timerHandler.Reset)
				r.Post("/stop", timerHandler.Stop)
				r.Post("/resume", timerHandler.Resume)
				r.Post("/share", timerHandler.Share)
				r.Post("/unshare", timerHandler.Unshare)
				r.Delete("/", timerHandler.Delete)
			})

			r.Route("/groups", func(r chi.Router) {
				r.Get("/", groupHandler.GetAll)
				r.Post("/", groupHandler.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Delete("/", groupHandler.Delete)
					r.Get("/timers", groupHandler.GetTimers)
					r.Put("/timers/{timerID}", groupHandler.AddTimer)
					r.Delete("/timers/{timerID}", groupHandler.RemoveTimer)
				})
			})
		})
	})

	return r
}
