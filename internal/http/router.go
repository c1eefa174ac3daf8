package http

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/redmonkez12/go-tours-api/internal/auth"
	"github.com/redmonkez12/go-tours-api/internal/booking"
	"github.com/redmonkez12/go-tours-api/internal/config"
	"github.com/redmonkez12/go-tours-api/internal/crud"
	"github.com/redmonkez12/go-tours-api/internal/httputil"
	"github.com/redmonkez12/go-tours-api/internal/logging"
	"github.com/redmonkez12/go-tours-api/internal/review"
	"github.com/redmonkez12/go-tours-api/internal/tour"
	"github.com/redmonkez12/go-tours-api/internal/user"
)

// Handlers collects everything the router wires up.
type Handlers struct {
	Auth           *auth.Handler
	AuthMiddleware *auth.Middleware
	User           *user.Handler
	Tour           *tour.Handler
	Users          *crud.Controller[user.User, *user.User]
	Tours          *crud.Controller[tour.Tour, *tour.Tour]
	Reviews        *crud.Controller[review.Review, *review.Review]
	Bookings       *crud.Controller[booking.Booking, *booking.Booking]
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, h Handlers, logger *logging.Logger) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders)               // Security headers on all responses
	r.Use(middleware.Recoverer)          // Recover from panics
	r.Use(middleware.RequestID)          // Add request ID
	r.Use(middleware.RealIP)             // Set RemoteAddr to real IP
	r.Use(logging.RequestLogger(logger)) // Structured logging with request context
	r.Use(middleware.Compress(5))        // Compress responses

	// Public routes
	r.Get("/health", handleHealth)

	// Swagger UI - only in development
	// Production builds will not have this route at all
	if cfg.Server.IsDevelopment() {
		log.Println("Swagger UI enabled at /swagger/*")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	} else {
		log.Println("Swagger UI disabled (production mode)")
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/signup", h.Auth.Signup)
			r.Post("/login", h.Auth.Login)
			r.Get("/logout", h.Auth.Logout)
			r.Post("/forgotPassword", h.Auth.ForgotPassword)
			r.Patch("/resetPassword/{token}", h.Auth.ResetPassword)

			// Everything below requires a valid session
			r.Group(func(r chi.Router) {
				r.Use(h.AuthMiddleware.Protect)

				r.Patch("/updateMyPassword", h.Auth.UpdatePassword)
				r.Get("/me", h.User.Me)
				r.Patch("/updateMe", h.User.UpdateMe)
				r.Delete("/deleteMe", h.User.DeleteMe)

				// Account administration
				r.Group(func(r chi.Router) {
					r.Use(auth.RestrictTo(user.RoleAdmin))

					r.Get("/", h.Users.GetAll)
					r.Post("/", h.User.CreateUserStub)
					r.Get("/{id}", h.Users.GetOne)
					r.Patch("/{id}", h.Users.UpdateOne)
					r.Delete("/{id}", h.Users.DeleteOne)
				})
			})
		})

		r.Route("/tours", func(r chi.Router) {
			// Public reads still pick up the principal when a session exists
			r.Group(func(r chi.Router) {
				r.Use(h.AuthMiddleware.IsLoggedIn)

				r.Get("/", h.Tours.GetAll)
				r.Get("/top-5-cheap", tour.AliasTopTours(h.Tours.GetAll))
				r.Get("/tour-stats", h.Tour.GetTourStats)
				r.Get("/{id}", h.Tours.GetOne)
			})

			r.With(h.AuthMiddleware.Protect, auth.RestrictTo(user.RoleAdmin, user.RoleLeadGuide, user.RoleGuide)).
				Get("/monthly-plan/{year}", h.Tour.GetMonthlyPlan)

			r.Group(func(r chi.Router) {
				r.Use(h.AuthMiddleware.Protect)
				r.Use(auth.RestrictTo(user.RoleAdmin, user.RoleLeadGuide))

				r.Post("/", h.Tours.CreateOne)
				r.Patch("/{id}", h.Tours.UpdateOne)
				r.Delete("/{id}", h.Tours.DeleteOne)
			})

			// Nested reviews on a tour
			r.Route("/{tourId}/reviews", func(r chi.Router) {
				r.Use(h.AuthMiddleware.Protect)

				r.Get("/", h.Reviews.GetAll)
				r.With(auth.RestrictTo(user.RoleUser)).Post("/", h.Reviews.CreateOne)
			})
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Use(h.AuthMiddleware.Protect)

			r.Get("/", h.Reviews.GetAll)
			r.Get("/{id}", h.Reviews.GetOne)
			r.With(auth.RestrictTo(user.RoleUser)).Post("/", h.Reviews.CreateOne)
			r.With(auth.RestrictTo(user.RoleUser, user.RoleAdmin)).Patch("/{id}", h.Reviews.UpdateOne)
			r.With(auth.RestrictTo(user.RoleUser, user.RoleAdmin)).Delete("/{id}", h.Reviews.DeleteOne)
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Use(h.AuthMiddleware.Protect)
			r.Use(auth.RestrictTo(user.RoleAdmin, user.RoleLeadGuide))

			r.Get("/", h.Bookings.GetAll)
			r.Post("/", h.Bookings.CreateOne)
			r.Get("/{id}", h.Bookings.GetOne)
			r.Patch("/{id}", h.Bookings.UpdateOne)
			r.Delete("/{id}", h.Bookings.DeleteOne)
		})
	})

	r.NotFound(handleNotFound)

	return r
}

// handleHealth is a simple health check endpoint
// @Summary      Health check
// @Description  Check if the API is running
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /health [get]
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "api is running"}, http.StatusOK)
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{
		"status":  "fail",
		"message": "can't find " + r.URL.Path + " on this server",
	}, http.StatusNotFound)
}
