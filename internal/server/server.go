package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/slok/go-http-metrics/metrics/prometheus"
	metricsmw "github.com/slok/go-http-metrics/middleware"
	"github.com/slok/go-http-metrics/middleware/std"

	"github.com/studentpay/backoffice/internal/core/handler"
	"github.com/studentpay/backoffice/internal/core/logger"
	"github.com/studentpay/backoffice/internal/core/middleware"
	"github.com/studentpay/backoffice/internal/core/store"
)

// Server - заглушка бэкенда: обслуживает wire-контракт платформы поверх
// переданного store.Store (in-memory либо postgres), чтобы клиент и демо
// не зависели от настоящего сервера.
type Server struct {
	router     *mux.Router
	log        logger.Logger
	httpServer *http.Server
	handler    *handler.Handler
}

func NewServer(st store.Store, log logger.Logger) *Server {
	s := &Server{
		log:     log,
		router:  mux.NewRouter(),
		handler: handler.New(st, log),
	}

	mw := metricsmw.New(metricsmw.Config{
		Recorder: prometheus.NewRecorder(prometheus.Config{}),
	})

	s.router.Use(
		middleware.RequestLogger(s.log),
		func(next http.Handler) http.Handler {
			return std.Handler("", mw, next)
		},
		middleware.Recovery(s.log),
	)

	s.RegisterRoutes()

	return s
}

func (s *Server) RegisterRoutes() {
	s.handler.RegisterRoutes(s.router)
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

// Router отдаёт корневой роутер. Для httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) Run(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       9 * time.Second,
		WriteTimeout:      12 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 6 * time.Second,
	}

	s.httpServer = srv

	return srv.ListenAndServe()
}

func (s *Server) RunTLS(addr, certFile, keyFile string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       9 * time.Second,
		WriteTimeout:      9 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 6 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
	}

	s.httpServer = srv
	return srv.ListenAndServeTLS(certFile, keyFile)
}

func (s *Server) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	var shutdownErr error

	go func() {
		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(ctx); err != nil {
				s.log.Error("failed to shutdown HTTP server", logger.ErrorField("error", err))
				shutdownErr = fmt.Errorf("HTTP server shutdown error: %w", err)
			}
		}
		close(done)
	}()

	select {
	case <-done:
		return shutdownErr
	case <-ctx.Done():
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}
