// Tastemaker - Semantic Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemaker

package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/tastemaker/internal/events"
	"github.com/tomtom215/tastemaker/internal/logging"
	"github.com/tomtom215/tastemaker/internal/recommend"
)

// syncBuffer guards the log buffer against concurrent writes from the
// consumer goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitForLog(t *testing.T, buf *syncBuffer, substr string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if strings.Contains(buf.String(), substr) {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("log never contained %q, got:\n%s", substr, buf.String())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestRunEventServiceLogsOutcomes(t *testing.T) {
	bus := events.NewBus(events.Config{}, zerolog.Nop())
	t.Cleanup(func() { _ = bus.Close() })

	var buf syncBuffer
	svc := NewRunEventService(bus, logging.NewTestLogger(&buf))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	// Give the subscriber a moment to attach before publishing.
	time.Sleep(50 * time.Millisecond)

	completed := &recommend.Run{
		ID:            "run-ok",
		UserID:        1,
		MediaType:     recommend.MediaTypeMovie,
		Status:        recommend.RunCompleted,
		SelectedCount: 20,
	}
	if err := bus.PublishRunCompleted(completed); err != nil {
		t.Fatalf("PublishRunCompleted: %v", err)
	}
	waitForLog(t, &buf, "run-ok")

	failed := &recommend.Run{
		ID:           "run-bad",
		UserID:       2,
		MediaType:    recommend.MediaTypeSeries,
		Status:       recommend.RunFailed,
		ErrorMessage: "store offline",
	}
	if err := bus.PublishRunFailed(failed); err != nil {
		t.Fatalf("PublishRunFailed: %v", err)
	}
	waitForLog(t, &buf, "run-bad")
	waitForLog(t, &buf, "store offline")

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not stop on cancellation")
	}
}

func TestRunEventServiceString(t *testing.T) {
	bus := events.NewBus(events.Config{}, zerolog.Nop())
	t.Cleanup(func() { _ = bus.Close() })

	svc := NewRunEventService(bus, zerolog.Nop())
	if got := svc.String(); got != "run-event-consumer" {
		t.Errorf("String() = %q, want run-event-consumer", got)
	}
}
