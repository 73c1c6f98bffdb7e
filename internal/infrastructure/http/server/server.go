// Package server assembles the chi router, middleware chain and HTTP server
// lifecycle for the analysis API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	analysishttp "eddp/analizador_cfdi/internal/adapters/http/analysis"
	"eddp/analizador_cfdi/internal/infrastructure/config"
	httperrors "eddp/analizador_cfdi/internal/infrastructure/http"
	"eddp/analizador_cfdi/internal/infrastructure/http/middleware"
)

// Server wraps the http.Server with graceful lifecycle management.
type Server struct {
	log        *slog.Logger
	cfg        config.AppConfig
	httpServer *http.Server
	auth       *middleware.JWTAuthenticator
}

// Options collects the dependencies the server needs. Handlers left nil fall
// back to a 503 response so the process can still boot partially configured.
type Options struct {
	Config          config.AppConfig
	Logger          *slog.Logger
	HealthHandler   http.Handler
	AnalysisHandler *analysishttp.Handler
}

// New builds the router and server. The JWT authenticator is created here so
// its JWKS refresher shares the server lifecycle.
func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.HealthHandler == nil {
		return nil, errors.New("health handler is required")
	}

	auth, err := middleware.NewJWTAuthenticator(opts.Config.Auth, opts.Logger)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(middleware.RequestTimeout(opts.Config.HTTP))
	r.Use(auth.Middleware)

	r.Method(http.MethodGet, "/health", opts.HealthHandler)

	if opts.AnalysisHandler != nil {
		h := opts.AnalysisHandler
		r.Route("/api/v1/scans", func(r chi.Router) {
			r.Post("/", h.StartScan)
			r.Get("/", h.List)
			r.Get("/{scanId}", h.Status)
			r.Get("/{scanId}/kpis", h.Snapshot)
			r.Post("/{scanId}/cancelar", h.Cancel)
		})
	} else {
		r.HandleFunc("/api/v1/scans", unavailable(opts.Logger))
		r.HandleFunc("/api/v1/scans/*", unavailable(opts.Logger))
	}

	srv := &http.Server{
		Addr:         opts.Config.HTTP.Address(),
		Handler:      r,
		ReadTimeout:  opts.Config.HTTP.ReadTimeout,
		WriteTimeout: opts.Config.HTTP.WriteTimeout,
		IdleTimeout:  opts.Config.HTTP.IdleTimeout,
	}

	return &Server{
		log:        opts.Logger,
		cfg:        opts.Config,
		httpServer: srv,
		auth:       auth,
	}, nil
}

// Run starts the server and blocks until the context is canceled or the
// listener fails.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server started", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.log.Info("HTTP server stopped")
		return nil
	case err := <-errCh:
		return err
	}
}

// Close releases background resources.
func (s *Server) Close() {
	if s.auth != nil {
		s.auth.Close()
	}
}

func unavailable(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, http.StatusServiceUnavailable, "Servicio No Disponible", []string{"El servicio de análisis no está configurado"}, log)
	}
}
