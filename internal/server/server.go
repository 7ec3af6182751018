// Package server exposes XAY conversion over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Faultbox/xaytool/internal/config"
	"github.com/Faultbox/xaytool/internal/logger"
)

// Server serves the conversion API.
type Server struct {
	cfg     config.ServerConfig
	strict  bool
	log     *zap.Logger
	handler http.Handler
}

// New builds a server. strict enables index and section validation for
// every request.
func New(cfg config.ServerConfig, strict bool) *Server {
	s := &Server{
		cfg:    cfg,
		strict: strict,
		log:    logger.Named("server"),
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/v1/formats", s.handleFormats).Methods(http.MethodGet)
	r.HandleFunc("/v1/inspect", s.handleInspect).Methods(http.MethodPost)
	r.HandleFunc("/v1/convert/{format}", s.handleConvert).Methods(http.MethodPost)

	var h http.Handler = r
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(s.log)),
		handlers.PrintRecoveryStack(true),
	)(h)
	h = handlers.LoggingHandler(logger.StdWriter("http"), h)
	s.handler = h

	return s
}

// Handler returns the routed handler with access logging and panic recovery.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) maxBodyBytes() int64 {
	return int64(s.cfg.MaxBodyMB) << 20
}
