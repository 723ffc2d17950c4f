package web

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"telegram-random-image/internal/infra/metrics"
)

const (
	healthTimeout   = 3 * time.Second
	shutdownTimeout = 5 * time.Second
)

// CatalogCounter is the read the health check needs from the catalog.
type CatalogCounter interface {
	Count(ctx context.Context) (int, error)
}

// BotStatus reports whether the update loop is alive.
type BotStatus interface {
	Running() bool
}

type Server struct {
	catalog CatalogCounter
	bot     BotStatus
	log     *zerolog.Logger
}

func NewServer(catalog CatalogCounter, bot BotStatus, logger *zerolog.Logger) *Server {
	return &Server{catalog: catalog, bot: bot, log: logger}
}

// Router exposes /health for the hosting platform's keepalive and /metrics.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	return r
}

type healthResponse struct {
	Status      string `json:"status"`
	Bot         string `json:"bot"`
	ImagesCount int    `json:"images_count"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := healthResponse{Status: "healthy", Bot: "running"}
	code := http.StatusOK

	if s.bot != nil && !s.bot.Running() {
		resp.Bot = "stopped"
	}
	n, err := s.catalog.Count(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("health check: catalog count failed")
		resp.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	resp.ImagesCount = n

	writeJSON(w, code, resp)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", ln.Addr().String()).Msg("http server listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info().Msg("http server stopped")
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
