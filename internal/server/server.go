// Package server is the composition root: it wires the repositories,
// services, and handlers together and owns the router, the live hub,
// and graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/community-hub/internal/auth"
	"github.com/sakif/community-hub/internal/config"
	"github.com/sakif/community-hub/internal/handler"
	"github.com/sakif/community-hub/internal/live"
	"github.com/sakif/community-hub/internal/mail"
	"github.com/sakif/community-hub/internal/middleware"
	sqliteRepo "github.com/sakif/community-hub/internal/repository/sqlite"
	"github.com/sakif/community-hub/internal/service"
	"github.com/sakif/community-hub/internal/storage"
)

// Server owns the router and every long-lived resource: the database
// connection and the websocket hub. Both are released on shutdown.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	hub    *live.Hub
}

// New opens the database, connects optional subsystems (object storage,
// GitHub OAuth), and wires the dependency graph. Optional subsystems
// that are not configured leave their endpoints returning an explicit
// error instead of preventing startup.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("server: JWT_SECRET must be set")
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("server: opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		hub:    live.NewHub(logger),
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Server) setupRoutes() error {
	cfg := s.config

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenDuration)
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}
	passwords := auth.NewPasswordService()

	var github *auth.GitHubProvider
	if cfg.GitHubClientID != "" && cfg.GitHubClientSecret != "" {
		github = auth.NewGitHubProvider(cfg.GitHubClientID, cfg.GitHubClientSecret, cfg.GitHubCallbackURL)
	} else {
		s.logger.Warn("GitHub OAuth not configured, /auth/github routes disabled")
	}

	// Object storage is optional; without it the upload endpoints report
	// uploads as unavailable.
	var store storage.ObjectStore
	if cfg.MinIO.Endpoint != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		minioStore, err := storage.NewMinIOClient(ctx, cfg.MinIO)
		if err != nil {
			return fmt.Errorf("server: connecting object storage: %w", err)
		}
		store = minioStore
	} else {
		s.logger.Warn("MinIO not configured, image uploads disabled")
	}

	mailer := mail.NewMailer(mail.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		BaseURL:  cfg.SMTP.BaseURL,
	}, s.logger)

	authService := service.NewAuthService(s.db, s.db, tokens, passwords, mailer, s.logger)
	userService := service.NewUserService(s.db, store, s.hub, s.logger)
	postService := service.NewPostService(s.db, s.db, s.hub, s.logger)
	sectionService := service.NewSectionService(s.db, s.db, s.hub, s.logger)
	submissionService := service.NewSubmissionService(s.db, s.db, s.db, s.hub, s.logger)
	applicationService := service.NewApplicationService(s.db, s.db, s.hub, s.logger)
	videoService := service.NewVideoService(s.db, s.db, store, s.hub, s.logger)

	authHandler := handler.NewAuthHandler(authService, github, tokens.Lifetime(), s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)
	postHandler := handler.NewPostHandler(postService, s.logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, sectionService, s.logger)
	applicationHandler := handler.NewApplicationHandler(applicationService, s.logger)
	videoHandler := handler.NewVideoHandler(videoService, s.logger)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.HandleSignup)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
		r.Post("/reset-password", authHandler.HandleResetRequest)
		r.Post("/reset-password/confirm", authHandler.HandleResetConfirm)
		r.Get("/github/login", authHandler.HandleGitHubLogin)
		r.Get("/github/callback", authHandler.HandleGitHubCallback)
	})

	s.router.Route("/api", func(r chi.Router) {
		// Public reads.
		r.Get("/posts", postHandler.HandleList)
		r.Get("/posts/{id}", postHandler.HandleGet)
		r.Get("/sections", submissionHandler.HandleListSections)
		r.Get("/feed", submissionHandler.HandleFeed)
		r.Get("/partners", userHandler.HandleListPartners)
		r.Get("/applications/questions", applicationHandler.HandleQuestions)
		r.Get("/videos", videoHandler.HandleList)

		// Everything below needs a signed-in user; the policy layer
		// decides what each role may actually do.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/me", authHandler.HandleMe)
			r.Put("/me/profile", userHandler.HandleUpdateProfile)
			r.Post("/me/avatar", userHandler.HandleUploadAvatar)
			r.Post("/me/background", userHandler.HandleUploadBackground)
			r.Get("/me/submissions", submissionHandler.HandleMine)

			r.Get("/users", userHandler.HandleList)
			r.Get("/users/{id}", userHandler.HandleGet)
			r.Put("/users/{id}/role", userHandler.HandleChangeRole)
			r.Put("/users/{id}/ban", userHandler.HandleBan)
			r.Delete("/users/{id}", userHandler.HandleDelete)

			r.Post("/posts", postHandler.HandleCreate)
			r.Delete("/posts/{id}", postHandler.HandleDelete)
			r.Post("/posts/{id}/comments", postHandler.HandleAddComment)
			r.Put("/posts/{id}/reactions/{emoji}", postHandler.HandleToggleReaction)

			r.Post("/sections", submissionHandler.HandleCreateSection)
			r.Delete("/sections/{id}", submissionHandler.HandleDeleteSection)
			r.Post("/submissions", submissionHandler.HandleSubmit)
			r.Get("/submissions/pending", submissionHandler.HandlePending)
			r.Put("/submissions/{id}/approve", submissionHandler.HandleApprove)
			r.Put("/submissions/{id}/reject", submissionHandler.HandleReject)

			r.Put("/applications/questions", applicationHandler.HandleReplaceQuestions)
			r.Post("/applications", applicationHandler.HandleApply)
			r.Get("/applications/pending", applicationHandler.HandlePending)
			r.Put("/applications/{id}/approve", applicationHandler.HandleApprove)
			r.Put("/applications/{id}/deny", applicationHandler.HandleDeny)

			r.Post("/videos", videoHandler.HandleCreate)
			r.Delete("/videos/{id}", videoHandler.HandleDelete)
			r.Post("/videos/{id}/thumbnail", videoHandler.HandleUploadThumbnail)
		})
	})

	// Live change notifications. The socket itself is open; it only
	// carries ids, never content.
	s.router.Get("/ws", s.hub.ServeWS)

	return nil
}

// Start runs the server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests,
// stop the hub, close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go s.hub.Run(hubCtx)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
