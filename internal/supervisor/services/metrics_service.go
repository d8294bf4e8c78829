// Tastemaker - Semantic Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemaker

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// HTTPServer matches the *http.Server lifecycle methods the metrics service
// needs, enabling testing with mocks.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// MetricsService serves the Prometheus /metrics endpoint as a supervised
// service. It translates http.Server's blocking ListenAndServe pattern into
// suture's context-aware Serve pattern.
type MetricsService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
	logger          zerolog.Logger
	addr            string
	name            string
}

// NewMetricsService creates a metrics listener on the given address.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewMetricsService(addr string, shutdownTimeout time.Duration, logger zerolog.Logger) *MetricsService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &MetricsService{
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		shutdownTimeout: shutdownTimeout,
		logger:          logger.With().Str("service", "metrics").Logger(),
		addr:            addr,
		name:            "metrics-server",
	}
}

// Serve implements suture.Service. It blocks until the context is canceled
// or the listener fails, then shuts the server down gracefully.
func (s *MetricsService) Serve(ctx context.Context) error {
	s.logger.Info().Str("addr", s.addr).Msg("metrics listener starting")

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("metrics listener failed: %w", err)
		}
		return nil

	case <-ctx.Done():
		// The serve context is canceled; shutdown needs its own deadline.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics listener shutdown failed: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

// String returns the service name for logging.
func (s *MetricsService) String() string {
	return s.name
}
