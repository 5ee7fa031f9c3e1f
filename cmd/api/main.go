package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/gatehouse/visitgate/internal/handlers"
	"github.com/gatehouse/visitgate/internal/repository"
	"github.com/gatehouse/visitgate/internal/service"
	"github.com/gatehouse/visitgate/pkg/config"
	"github.com/gatehouse/visitgate/pkg/database"
	"github.com/gatehouse/visitgate/pkg/events"
	"github.com/gatehouse/visitgate/pkg/logger"
	mw "github.com/gatehouse/visitgate/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Error("Failed to apply schema", "error", err)
		os.Exit(1)
	}

	var eventBus events.Publisher = events.NopPublisher{}
	if cfg.NATS.Enabled {
		bus, err := events.NewNATSPublisher(cfg.NATS.URL)
		if err != nil {
			logger.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer bus.Close()
		eventBus = bus
	}

	// Repositories
	userRepo := repository.NewUserRepository(pool)
	visitorRepo := repository.NewVisitorRepository(pool)
	rateLimitRepo := repository.NewRateLimitRepository(pool, cfg.Auth.LoginRateLimit, cfg.Auth.LoginRateWindow)
	idempotencyRepo := repository.NewIdempotencyRepository(pool)

	// Services
	authService := service.NewAuthService(userRepo, eventBus, cfg)
	visitorService := service.NewVisitorService(visitorRepo, userRepo, idempotencyRepo, eventBus)

	if err := authService.EnsureDefaultAdmin(ctx); err != nil {
		logger.Error("Failed to seed default admin", "error", err)
		os.Exit(1)
	}

	// Handlers
	h := handlers.New(authService, visitorService, rateLimitRepo, cfg)

	// Router
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.Logging)
	r.Use(mw.Recover)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(mw.Health)

	r.Mount("/", h.Routes())

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Shutdown error", "error", err)
		}
	}()

	logger.Info("Starting visitgate API", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}
