package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/redmonkez12/go-tours-api/internal/auth"
	"github.com/redmonkez12/go-tours-api/internal/booking"
	"github.com/redmonkez12/go-tours-api/internal/config"
	"github.com/redmonkez12/go-tours-api/internal/crud"
	"github.com/redmonkez12/go-tours-api/internal/database"
	"github.com/redmonkez12/go-tours-api/internal/email"
	httpServer "github.com/redmonkez12/go-tours-api/internal/http"
	"github.com/redmonkez12/go-tours-api/internal/logging"
	"github.com/redmonkez12/go-tours-api/internal/query"
	"github.com/redmonkez12/go-tours-api/internal/ratelimit"
	"github.com/redmonkez12/go-tours-api/internal/review"
	"github.com/redmonkez12/go-tours-api/internal/tour"
	"github.com/redmonkez12/go-tours-api/internal/user"
)

// @title           Tours API
// @version         1.0
// @description     REST API for browsing and booking tours, with session authentication and role-based access.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	// Initialize database connection
	db, err := database.Connect(cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	// Initialize Redis connection
	redisClient, err := initRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	// Initialize repositories
	userRepo := user.NewRepository(db)
	tourRepo := tour.NewRepository(db)
	reviewRepo := review.NewRepository(db)

	// Initialize rate limiter
	rateLimiter := ratelimit.NewLimiter(redisClient)

	// Initialize PASETO service
	pasetoService, err := auth.NewPasetoService(cfg.Auth.PasetoKey)
	if err != nil {
		return fmt.Errorf("failed to initialize PASETO service: %w", err)
	}

	// Initialize email service
	emailService := email.NewService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		"",
	)

	// Initialize auth service
	authService := auth.NewService(
		userRepo,
		pasetoService,
		emailService,
		logger,
		cfg.Auth.SessionTokenDuration,
	)

	// Initialize HTTP handlers
	authHandler := auth.NewHandler(
		authService,
		rateLimiter,
		logger,
		!cfg.Server.IsDevelopment(), // isProduction
		cfg.Server.PublicURL,
		cfg.Auth.CookieDuration,
	)
	authMiddleware := auth.NewMiddleware(pasetoService, userRepo)

	userHandler := user.NewHandler(userRepo, func(r *http.Request) (uuid.UUID, bool) {
		p, ok := auth.GetPrincipal(r.Context())
		return p.ID, ok
	})
	tourHandler := tour.NewHandler(tourRepo)

	// Generic CRUD controllers per resource
	userStore := crud.NewBunStore(db, crud.WithScope[user.User](
		query.Filter{Field: "active", Op: query.OpEq, Value: true},
	))
	tourStore := crud.NewBunStore(db, crud.WithScope[tour.Tour](
		query.Filter{Field: "secret", Op: query.OpEq, Value: false},
	))
	reviewStore := crud.NewBunStore(db, crud.WithRelations[review.Review]("User"))
	bookingStore := crud.NewBunStore(db, crud.WithRelations[booking.Booking]("Tour", "User"))

	usersController := crud.NewController[user.User, *user.User](userStore, crud.Options[user.User]{})
	toursController := crud.NewController[tour.Tour, *tour.Tour](tourStore, crud.Options[tour.Tour]{
		BeforeCreate: func(r *http.Request, t *tour.Tour) error {
			t.Slugify()
			return nil
		},
	})
	reviewsController := crud.NewController[review.Review, *review.Review](reviewStore, crud.Options[review.Review]{
		Scope:        review.NestedTourScope,
		BeforeCreate: review.SetTourUserIDs,
		AfterWrite:   review.RecalcRatings(reviewRepo),
	})
	bookingsController := crud.NewController[booking.Booking, *booking.Booking](bookingStore, crud.Options[booking.Booking]{})

	// Initialize router
	router := httpServer.NewRouter(cfg, httpServer.Handlers{
		Auth:           authHandler,
		AuthMiddleware: authMiddleware,
		User:           userHandler,
		Tour:           tourHandler,
		Users:          usersController,
		Tours:          toursController,
		Reviews:        reviewsController,
		Bookings:       bookingsController,
	}, logger)

	// Initialize HTTP server
	serverAddr := ":" + cfg.Server.Port
	server := httpServer.NewServer(
		serverAddr,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Printf("Received signal: %v", sig)

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
