// Tastemaker - Semantic Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemaker

package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeHTTPServer struct {
	listenErr   error
	shutdownErr error
	started     chan struct{}
	release     chan struct{}
	shutdowns   int
}

func newFakeHTTPServer() *fakeHTTPServer {
	return &fakeHTTPServer{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (f *fakeHTTPServer) ListenAndServe() error {
	close(f.started)
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.release
	return errServerClosedSentinel
}

func (f *fakeHTTPServer) Shutdown(context.Context) error {
	f.shutdowns++
	close(f.release)
	return f.shutdownErr
}

// Matches http.ErrServerClosed behavior without importing it into the fake.
var errServerClosedSentinel = errors.New("http: Server closed")

func newTestMetricsService(server HTTPServer) *MetricsService {
	svc := NewMetricsService(":0", time.Second, zerolog.Nop())
	svc.server = server
	return svc
}

func TestMetricsServiceGracefulShutdown(t *testing.T) {
	fake := newFakeHTTPServer()
	svc := newTestMetricsService(fake)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	select {
	case <-fake.started:
	case <-time.After(2 * time.Second):
		t.Fatal("server never started")
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
	if fake.shutdowns != 1 {
		t.Errorf("shutdowns = %d, want 1", fake.shutdowns)
	}
}

func TestMetricsServiceListenFailure(t *testing.T) {
	fake := newFakeHTTPServer()
	fake.listenErr = errors.New("address already in use")
	svc := newTestMetricsService(fake)

	err := svc.Serve(context.Background())
	if err == nil || !strings.Contains(err.Error(), "address already in use") {
		t.Errorf("Serve err = %v, want listen failure", err)
	}
}

func TestMetricsServiceShutdownFailure(t *testing.T) {
	fake := newFakeHTTPServer()
	fake.shutdownErr = errors.New("hung connections")
	svc := newTestMetricsService(fake)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	<-fake.started
	cancel()

	select {
	case err := <-done:
		if err == nil || !strings.Contains(err.Error(), "hung connections") {
			t.Errorf("Serve err = %v, want shutdown failure", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}
}

func TestMetricsServiceString(t *testing.T) {
	svc := NewMetricsService(":9090", 0, zerolog.Nop())
	if got := svc.String(); got != "metrics-server" {
		t.Errorf("String() = %q, want metrics-server", got)
	}
}
