// Package api serves the house operations over HTTP/JSON.
package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/roach88/houseledger/internal/metrics"
	"github.com/roach88/houseledger/internal/service"
)

// Server handles HTTP requests for the house API.
type Server struct {
	svc     *service.Service
	metrics *metrics.Metrics
	mux     *http.ServeMux
	addr    string
	logger  *slog.Logger
}

// NewServer creates a server for svc. m may be nil, in which case /metrics
// is not registered.
func NewServer(svc *service.Service, m *metrics.Metrics, addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		svc:     svc,
		metrics: m,
		mux:     http.NewServeMux(),
		addr:    addr,
		logger:  logger,
	}
	s.registerRoutes()
	return s
}

// registerRoutes sets up all HTTP routes.
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /api/houses", s.handleAddHouse)
	s.mux.HandleFunc("GET /api/houses", s.handleGetAllHouses)
	s.mux.HandleFunc("GET /api/houses/available", s.handleGetAvailableHouses)
	s.mux.HandleFunc("GET /api/houses/search", s.handleSearchHouses)
	s.mux.HandleFunc("GET /api/houses/search/price/{amount}", s.handleSearchPrice)
	s.mux.HandleFunc("GET /api/houses/sorted", s.handleSortHouseByName)
	s.mux.HandleFunc("GET /api/houses/{id}", s.handleGetHouse)
	s.mux.HandleFunc("GET /api/houses/{id}/availability", s.handleHouseAvailability)
	s.mux.HandleFunc("GET /api/houses/{id}/history", s.handleGetHouseUpdateHistory)
	s.mux.HandleFunc("PUT /api/houses/{id}", s.handleUpdateHouse)
	s.mux.HandleFunc("POST /api/houses/{id}/buy", s.handleBuyHouse)
	s.mux.HandleFunc("POST /api/houses/{id}/available", s.handleSetHouseAvailable)
	s.mux.HandleFunc("DELETE /api/houses/{id}/available", s.handleSetHouseNotAvailable)
	s.mux.HandleFunc("PUT /api/houses/{id}/price", s.handleSetPrice)
	s.mux.HandleFunc("DELETE /api/houses/{id}", s.handleDeleteHouse)

	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}
}

// Handler returns the HTTP handler for use with custom servers.
func (s *Server) Handler() http.Handler {
	return withRequestID(s.withLogging(s.mux))
}

// Start listens on the configured address until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting http server", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		s.logger.Info("http server stopped")
		return nil
	}
}
