package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Clark-Hu/movie-catalog/internal/config"
	"github.com/Clark-Hu/movie-catalog/internal/domain"
	"github.com/Clark-Hu/movie-catalog/internal/observability"
)

// DirectorService is the director use-case surface the handlers call.
type DirectorService interface {
	Create(ctx context.Context, in domain.DirectorInput) (domain.DirectorView, error)
	Get(ctx context.Context, id string) (domain.DirectorView, error)
	List(ctx context.Context, q domain.ListQuery) (domain.Page[domain.DirectorView], error)
	Update(ctx context.Context, id string, patch domain.DirectorPatch) (domain.DirectorView, error)
	Delete(ctx context.Context, id string) (domain.DirectorView, error)
}

// MovieService is the movie use-case surface the handlers call.
type MovieService interface {
	Create(ctx context.Context, in domain.MovieInput, expand bool) (domain.MovieView, error)
	Get(ctx context.Context, id string, expand bool) (domain.MovieView, error)
	List(ctx context.Context, q domain.ListQuery, filter domain.MovieFilter) (domain.Page[domain.MovieView], error)
	Update(ctx context.Context, id string, patch domain.MoviePatch, expand bool) (domain.MovieView, error)
	Delete(ctx context.Context, id string) (domain.MovieView, error)
}

// HealthChecker reports whether the database answers.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// CacheStatus reports the cache configuration and backend reachability.
type CacheStatus interface {
	Enabled() bool
	IsHealthy(ctx context.Context) bool
}

// Deps are the collaborators the server routes requests to.
type Deps struct {
	Store     HealthChecker
	Cache     CacheStatus
	Directors DirectorService
	Movies    MovieService
	Metrics   *observability.Metrics
	Logger    *zap.Logger
}

// Server wires HTTP routing, middleware, and handlers.
type Server struct {
	cfg       config.Config
	store     HealthChecker
	cache     CacheStatus
	directors DirectorService
	movies    MovieService
	metrics   *observability.Metrics
	logger    *zap.Logger
	router    chi.Router
	httpSrv   *http.Server
	startedAt time.Time
}

// New constructs the HTTP server with base middleware and routes.
func New(cfg config.Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		cfg:       cfg,
		store:     deps.Store,
		cache:     deps.Cache,
		directors: deps.Directors,
		movies:    deps.Movies,
		metrics:   deps.Metrics,
		logger:    logger.Named("http"),
		startedAt: time.Now(),
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(s.recordMetrics)
	r.Use(middleware.Recoverer)
	s.router = r
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.Get("/health", s.handleHealth)
	if s.metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	s.router.Route("/v1", func(r chi.Router) {
		r.Route("/directors", func(r chi.Router) {
			r.Get("/", s.handleListDirectors)
			r.With(s.requireBearer).Post("/", s.handleCreateDirector)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetDirector)
				r.With(s.requireBearer).Patch("/", s.handleUpdateDirector)
				r.With(s.requireBearer).Delete("/", s.handleDeleteDirector)
			})
		})
		r.Route("/movies", func(r chi.Router) {
			r.Get("/", s.handleListMovies)
			r.With(s.requireBearer).Post("/", s.handleCreateMovie)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetMovie)
				r.With(s.requireBearer).Patch("/", s.handleUpdateMovie)
				r.With(s.requireBearer).Delete("/", s.handleDeleteMovie)
			})
		})
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start boots the HTTP server and blocks until ctx ends or serving fails.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.httpSrv.Addr))
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

type healthResponse struct {
	Status    string            `json:"status"`
	Uptime    float64           `json:"uptime"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{
		Status:    "ok",
		Uptime:    time.Since(s.startedAt).Seconds(),
		Timestamp: time.Now().UTC(),
		Services: map[string]string{
			"postgres": "healthy",
			"redis":    "healthy",
			"cache":    "disabled",
		},
	}
	status := http.StatusOK

	if s.store == nil || s.store.HealthCheck(ctx) != nil {
		resp.Status = "degraded"
		resp.Services["postgres"] = "unhealthy"
		status = http.StatusServiceUnavailable
	}
	if s.cache != nil {
		if s.cache.Enabled() {
			resp.Services["cache"] = "enabled"
		}
		if !s.cache.IsHealthy(ctx) {
			resp.Services["redis"] = "unhealthy"
		}
	}

	s.respondJSON(w, status, resp)
}
