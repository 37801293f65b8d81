package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"projectboard/internal/access"
	"projectboard/internal/auth"
	"projectboard/internal/config"
	"projectboard/internal/http_server/handlers/assets"
	"projectboard/internal/http_server/handlers/collaborators"
	"projectboard/internal/http_server/handlers/csrftoken"
	"projectboard/internal/http_server/handlers/login"
	"projectboard/internal/http_server/handlers/logout"
	"projectboard/internal/http_server/handlers/notes"
	"projectboard/internal/http_server/handlers/projects"
	"projectboard/internal/http_server/handlers/refresh"
	"projectboard/internal/http_server/handlers/register"
	"projectboard/internal/http_server/handlers/tickets"
	"projectboard/internal/lib/jwt"
	"projectboard/internal/middleware/authn"
	"projectboard/internal/middleware/csrf"
	rateLimit "projectboard/internal/middleware/ratelimit"
	"projectboard/internal/middleware/roles"
	"projectboard/internal/models"
	"projectboard/internal/rabbitmq"
	minioStore "projectboard/internal/storage/minio"
	"projectboard/internal/storage/postgres"
	redisStore "projectboard/internal/storage/redis"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad("./config/config.yaml")

	log := setupLogger(cfg.Env)

	log.Info("starting projectboard", slog.String("env", cfg.Env))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("Shutdown signal received")
		cancel()
	}()

	storage, err := postgres.New(ctx, cfg)
	if err != nil {
		log.Error("failed to connect postgres", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer storage.Close()

	sessions, err := redisStore.New(ctx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Error("failed to connect redis", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer sessions.Close()

	blobs, err := minioStore.New(ctx, cfg)
	if err != nil {
		log.Error("failed to connect minio", slog.String("err", err.Error()))
		os.Exit(1)
	}

	msgBroker, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		log.Error("failed to connect rabbitmq", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer msgBroker.Close()

	tokens := jwt.NewManager(
		cfg.Tokens.AccessTokenSecret,
		cfg.Tokens.RefreshTokenSecret,
		cfg.Tokens.AccessTokenTTL,
		cfg.Tokens.RefreshTokenTTL,
	)

	authService := auth.New(log, storage, storage, sessions, tokens)
	resolver := access.NewResolver(storage, storage)
	csrfGuard := csrf.New(log, cfg.CSRF.Secret, cfg.CSRF.TTL)

	router := setupRouter(log, authService, tokens, storage, resolver, csrfGuard, blobs, msgBroker)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server is running", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed", slog.String("err", err.Error()))
			cancel()
		}
	}()

	<-ctx.Done()

	log.Info("Shutting down HTTP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", slog.String("err", err.Error()))
	} else {
		log.Info("Server stopped gracefully")
	}

	log.Info("Main service stopped")
}

func setupRouter(
	log *slog.Logger,
	authService *auth.Auth,
	tokens *jwt.Manager,
	storage *postgres.PostgresRepo,
	resolver *access.Resolver,
	csrfGuard *csrf.Guard,
	blobs *minioStore.BlobStore,
	msgBroker *rabbitmq.Client,
) *chi.Mux {
	validate := validator.New()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(csrfGuard.Protect)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		render.JSON(w, req, map[string]bool{"success": true})
	})

	r.With(rateLimit.Register()).Post("/register",
		register.New(log, validate, authService),
	)
	r.With(rateLimit.Login()).Post("/login",
		login.New(log, validate, authService),
	)
	r.With(rateLimit.Refresh()).Post("/refresh",
		refresh.New(log, validate, authService),
	)
	r.With(rateLimit.Logout(), authn.Authenticate(log, tokens, storage)).Post("/logout",
		logout.New(log, authService),
	)
	r.With(authn.Maybe(log, tokens, storage)).Get("/csrf-token",
		csrftoken.New(log, csrfGuard),
	)

	viewer := []models.Role{models.RoleOwner, models.RoleEditor, models.RoleViewer}
	editor := []models.Role{models.RoleOwner, models.RoleEditor}
	owner := []models.Role{models.RoleOwner}

	r.Route("/projects", func(r chi.Router) {
		r.Use(authn.Authenticate(log, tokens, storage))

		r.Post("/", projects.Create(log, validate, storage))
		r.Get("/", projects.List(log, storage))

		r.Route("/{projectID}", func(r chi.Router) {
			r.With(roles.Require(log, resolver, viewer...)).Get("/", projects.Get(log, storage))
			r.With(roles.Require(log, resolver, editor...)).Put("/", projects.Update(log, validate, storage))
			r.With(roles.Require(log, resolver, owner...)).Delete("/", projects.Delete(log, storage))

			r.Route("/tickets", func(r chi.Router) {
				r.With(roles.Require(log, resolver, editor...)).Post("/", tickets.Create(log, validate, storage))
				r.With(roles.Require(log, resolver, viewer...)).Get("/", tickets.List(log, storage))
				r.With(roles.Require(log, resolver, editor...)).Put("/{ticketID}", tickets.Update(log, validate, storage))
				r.With(roles.Require(log, resolver, editor...)).Delete("/{ticketID}", tickets.Delete(log, storage))
			})

			r.Route("/notes", func(r chi.Router) {
				r.With(roles.Require(log, resolver, editor...)).Post("/", notes.Create(log, validate, storage))
				r.With(roles.Require(log, resolver, viewer...)).Get("/", notes.List(log, storage))
				r.With(roles.Require(log, resolver, editor...)).Delete("/{noteID}", notes.Delete(log, storage))
			})

			r.Route("/collaborators", func(r chi.Router) {
				r.With(roles.Require(log, resolver, owner...)).Post("/",
					collaborators.Invite(log, validate, storage, storage, storage, msgBroker),
				)
				r.With(roles.Require(log, resolver, viewer...)).Get("/", collaborators.List(log, storage))
				// Accepting is authorized by the pending invite itself.
				r.Post("/accept", collaborators.Accept(log, storage))
				r.With(roles.Require(log, resolver, owner...)).Put("/{userID}", collaborators.UpdateRole(log, validate, storage))
				r.With(roles.Require(log, resolver, owner...)).Delete("/{userID}", collaborators.Remove(log, storage))
			})

			r.Route("/assets", func(r chi.Router) {
				r.With(rateLimit.Upload(), roles.Require(log, resolver, editor...)).Post("/", assets.Upload(log, storage, blobs))
				r.With(roles.Require(log, resolver, viewer...)).Get("/", assets.List(log, storage))
				r.With(roles.Require(log, resolver, viewer...)).Get("/{assetID}/download", assets.Download(log, storage, blobs))
				r.With(roles.Require(log, resolver, editor...)).Delete("/{assetID}", assets.Delete(log, storage, blobs))
			})
		})
	})

	return r
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
