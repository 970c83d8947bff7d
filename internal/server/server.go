package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/amankumarsingh77/episode-transcoder/internal/config"
	"github.com/amankumarsingh77/episode-transcoder/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	maxHeaderBytes = 1 << 20
	ctxTimeout     = 5
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Server exposes worker metrics and health over HTTP.
type Server struct {
	echo     *echo.Echo
	cfg      *config.Config
	gatherer prometheus.Gatherer
	checks   map[string]HealthCheck
	logger   logger.Logger
}

func NewServer(cfg *config.Config, gatherer prometheus.Gatherer, checks map[string]HealthCheck, logger logger.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	return &Server{
		echo:     e,
		cfg:      cfg,
		gatherer: gatherer,
		checks:   checks,
		logger:   logger,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.echo.Use(middleware.Recover())
	s.MapHandlers(s.echo)

	server := &http.Server{
		Addr:           s.cfg.Server.Port,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: maxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("metrics server listening on %s", s.cfg.Server.Port)
		if err := s.echo.StartServer(server); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, shutdown := context.WithTimeout(context.Background(), time.Second*ctxTimeout)
	defer shutdown()
	s.logger.Infof("shutting down server")
	return s.echo.Shutdown(shutdownCtx)
}
