// Package server exposes the trading platform over HTTP: the control API,
// strategy management, report downloads, the HTML dashboard with htmx
// fragments, a websocket status broadcast, and the metrics endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"algotrade-pro/internal/engine"
	"algotrade-pro/internal/metrics"
	"algotrade-pro/internal/report"
	"algotrade-pro/internal/strategy"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Server serves the control API and the dashboard.
type Server struct {
	engine   *engine.Controller
	registry *strategy.Registry
	reports  *report.Generator
	metrics  *metrics.Wrapper

	httpSrv  *http.Server
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]bool

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func New(port int, eng *engine.Controller, reg *strategy.Registry, rep *report.Generator, m *metrics.Wrapper) *Server {
	s := &Server{
		engine:   eng,
		registry: reg,
		reports:  rep,
		metrics:  m,
		clients:  make(map[*websocket.Conn]bool),
		stopCh:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}

	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/control/start", s.handleStart).Methods(http.MethodPost)
	api.HandleFunc("/control/stop", s.handleStop).Methods(http.MethodPost)
	api.HandleFunc("/control/emergency", s.handleEmergency).Methods(http.MethodPost)
	api.HandleFunc("/control/status", s.handleStatus).Methods(http.MethodGet)
	api.HandleFunc("/control/restart/{component}", s.handleRestart).Methods(http.MethodPost)
	api.HandleFunc("/reports/generate", s.handleGenerateReport).Methods(http.MethodPost)
	api.HandleFunc("/strategies", s.handleListStrategies).Methods(http.MethodGet)
	api.HandleFunc("/strategies/control", s.handleStrategyControl).Methods(http.MethodPost)

	r.HandleFunc("/dashboard", s.handleDashboard).Methods(http.MethodGet)
	r.HandleFunc("/dashboard/strategy-cards", s.handleStrategyCards).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWS)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Start begins serving and launches the websocket broadcaster.
func (s *Server) Start() {
	s.wg.Add(1)
	go s.broadcastLoop()

	go func() {
		log.Info().Str("addr", s.httpSrv.Addr).Msg("http server listening")
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server failed")
		}
	}()
}

// Stop shuts the server down gracefully and closes all websocket clients.
func (s *Server) Stop(ctx context.Context) error {
	close(s.stopCh)

	s.mu.Lock()
	for conn := range s.clients {
		conn.Close()
	}
	s.clients = make(map[*websocket.Conn]bool)
	s.mu.Unlock()

	s.wg.Wait()
	return s.httpSrv.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.routes()
}
