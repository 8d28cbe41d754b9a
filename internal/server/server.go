package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/userhub/apiserver/config"
	"github.com/userhub/apiserver/internal/handlers"
	"github.com/userhub/apiserver/internal/mq"
	"github.com/userhub/apiserver/internal/services"
	"github.com/userhub/apiserver/internal/upstream"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	emitter    *mq.Emitter
	closers    []io.Closer
	logger     *slog.Logger
}

// New constructs a Server with its backends selected from cfg.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var closers []io.Closer
	fail := func(err error) (*Server, error) {
		closeAll(closers, logger)
		return nil, err
	}

	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		return fail(fmt.Errorf("open store: %w", err))
	}
	closers = append(closers, repos.closer)

	objects, err := openStorage(ctx, cfg)
	if err != nil {
		return fail(fmt.Errorf("open storage: %w", err))
	}
	logger.Info("avatar storage ready", "backend", cfg.StorageBackend, "bucket", objects.Bucket())

	backend, err := openMQ(ctx, cfg)
	if err != nil {
		return fail(fmt.Errorf("open mq: %w", err))
	}
	queue := mq.New(backend)
	closers = append(closers, queue)

	client, err := upstream.NewClient(cfg.Upstream)
	if err != nil {
		return fail(err)
	}

	emitter := mq.NewEmitter(queue, cfg.MQ.Queue, cfg.MQ.PublishTimeout, logger)
	userService := services.NewUserService(repos.users, client, emitter)
	avatarService := services.NewAvatarService(repos.avatars, objects, userService, client, cfg.Avatar.MaxBytes)

	router := NewRouter(userService, avatarService, cfg.Auth.JWTSecret, logger)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		emitter:    emitter,
		closers:    closers,
		logger:     logger,
	}, nil
}

// NewRouter builds the chi router serving the user and avatar API.
func NewRouter(
	userService *services.UserService,
	avatarService *services.AvatarService,
	jwtSecret string,
	logger *slog.Logger,
) *chi.Mux {
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/api", func(r chi.Router) {
		handlers.UserRouter(r, userService, avatarService, handlers.RequireAuth(jwtSecret), logger)
	})
	return router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting requests, waits for in-flight events and closes
// the backends.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if cerr := s.emitter.Close(); cerr != nil {
		s.logger.Warn("close emitter failed", "error", cerr)
	}
	closeAll(s.closers, s.logger)
	return err
}

func closeAll(closers []io.Closer, logger *slog.Logger) {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			logger.Warn("close backend failed", "error", err)
		}
	}
}
