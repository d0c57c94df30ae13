// Package httpserver wraps http.Server with the service's timeout and
// graceful-shutdown conventions.
package httpserver

import (
	"context"
	"fmt"
	"net/http"

	"github.com/specificocean23/ABie-backend/internal/config"
	"github.com/specificocean23/ABie-backend/pkg/logger"
)

// Server owns the HTTP listener lifecycle.
type Server struct {
	cfg config.ServerConfig
	log *logger.Logger
	srv *http.Server
}

// New creates a server serving the provided handler.
func New(cfg config.ServerConfig, log *logger.Logger, handler http.Handler) *Server {
	if log == nil {
		log = logger.NewDefault("httpserver")
	}
	return &Server{
		cfg: cfg,
		log: log,
		srv: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.srv.Addr
}

// Start blocks serving requests until Shutdown is called or the listener
// fails. It returns http.ErrServerClosed after a graceful shutdown.
func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

// Shutdown stops accepting new connections and waits for in-flight requests
// to finish, bounded by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
