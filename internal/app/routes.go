package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"
)

func (app *Application) Routes() http.Handler {
	r := chi.NewRouter()

	r.NotFound(app.notFoundResponse)

	r.Use(middleware.RequestID)
	r.Use(otelchi.Middleware(serviceName, otelchi.WithChiRoutes(r)))
	r.Use(app.requestLogger)
	r.Use(app.recoverPanic)
	r.Use(app.sessionManager.LoadAndSave)
	r.Use(app.ensureGuestUserSession)

	// The event stream stays open indefinitely, so it is the one route
	// outside the request timeout group.
	r.Get("/events", app.StreamEvents)

	r.Group(func(r chi.Router) {
		r.Use(app.withRequestTimeout)

		r.Get("/health", app.GetHealth)

		r.Post("/users", app.RegisterUser)
		r.Post("/tokens/session", app.Login)
		r.Delete("/tokens/session", app.Logout)

		r.With(app.requireAuthentication).Route("/users/me", func(r chi.Router) {
			r.Get("/", app.GetCurrentUser)
			r.Patch("/", app.UpdateUser)
			r.Delete("/", app.DeleteUser)
		})

		r.Route("/movies", func(r chi.Router) {
			r.Get("/", app.GetMovies)
			r.With(app.requireAuthentication).Post("/", app.CreateMovie)

			r.Route("/{movieId}", func(r chi.Router) {
				r.Get("/", app.GetMovie)
				r.With(app.requireAuthentication).Patch("/", app.UpdateMovie)
				r.With(app.requireAuthentication).Delete("/", app.DeleteMovie)

				r.With(app.requireAuthentication).Post("/screenings", app.CreateScreening)
			})
		})

		r.Route("/screenings", func(r chi.Router) {
			r.Get("/", app.GetScreenings)

			r.Route("/{screeningId}", func(r chi.Router) {
				r.Get("/", app.GetScreening)
				r.With(app.requireAuthentication).Put("/seats", app.UpdateSeatState)
				r.With(app.requireAuthentication).Post("/holds", app.CreateHold)
				r.With(app.requireAuthentication).Delete("/holds", app.DeleteHold)
			})
		})

		r.With(app.requireAuthentication).Route("/bookings", func(r chi.Router) {
			r.Post("/", app.CreateBooking)
			r.Get("/", app.GetBookings)
			r.Get("/user/{userId}", app.GetBookingsOfUser)

			r.Route("/{reference}", func(r chi.Router) {
				r.Get("/", app.GetBooking)
				r.Patch("/", app.UpdateBooking)
				r.Patch("/status", app.UpdateBookingStatus)
				r.Delete("/", app.DeleteBooking)
			})
		})
	})

	return r
}
