// Tastemaker - Semantic Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemaker

package events

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/tomtom215/tastemaker/internal/recommend"
)

func testBus(t *testing.T) *Bus {
	t.Helper()
	bus := NewBus(Config{}, zerolog.Nop())
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

func receive(t *testing.T, messages <-chan *message.Message) *message.Message {
	t.Helper()
	select {
	case msg := <-messages:
		msg.Ack()
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestPublishRunCompleted(t *testing.T) {
	bus := testBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, err := bus.Subscribe(ctx, TopicRunCompleted)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	run := &recommend.Run{
		ID:             "run-1",
		UserID:         7,
		MediaType:      recommend.MediaTypeMovie,
		Status:         recommend.RunCompleted,
		CandidateCount: 40,
		SelectedCount:  20,
		DurationMS:     315,
	}
	if err := bus.PublishRunCompleted(run); err != nil {
		t.Fatalf("PublishRunCompleted: %v", err)
	}

	msg := receive(t, messages)
	if msg.UUID != run.ID {
		t.Errorf("message UUID = %q, want run ID %q", msg.UUID, run.ID)
	}
	if got := msg.Metadata.Get("user_id"); got != "7" {
		t.Errorf("user_id metadata = %q, want 7", got)
	}
	if got := msg.Metadata.Get("media_type"); got != "movie" {
		t.Errorf("media_type metadata = %q, want movie", got)
	}

	event, err := DecodeRunEvent(msg.Payload)
	if err != nil {
		t.Fatalf("DecodeRunEvent: %v", err)
	}
	if event.RunID != run.ID || event.Status != string(recommend.RunCompleted) {
		t.Errorf("event = %+v, want completed run-1", event)
	}
	if event.CandidateCount != 40 || event.SelectedCount != 20 || event.DurationMS != 315 {
		t.Errorf("event counts = %+v, want 40/20/315", event)
	}
	if event.OccurredAt.IsZero() {
		t.Error("OccurredAt not set")
	}
}

func TestPublishRunFailed(t *testing.T) {
	bus := testBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, err := bus.Subscribe(ctx, TopicRunFailed)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	run := &recommend.Run{
		ID:           "run-2",
		UserID:       3,
		MediaType:    recommend.MediaTypeSeries,
		Status:       recommend.RunFailed,
		ErrorMessage: "embedding store unavailable",
	}
	if err := bus.PublishRunFailed(run); err != nil {
		t.Fatalf("PublishRunFailed: %v", err)
	}

	event, err := DecodeRunEvent(receive(t, messages).Payload)
	if err != nil {
		t.Fatalf("DecodeRunEvent: %v", err)
	}
	if event.Status != string(recommend.RunFailed) || event.ErrorMessage != "embedding store unavailable" {
		t.Errorf("event = %+v, want failed with message", event)
	}
}

func TestPublishWithoutSubscribersDrops(t *testing.T) {
	bus := testBus(t)

	run := &recommend.Run{ID: "run-3", MediaType: recommend.MediaTypeMovie, Status: recommend.RunCompleted}
	if err := bus.PublishRunCompleted(run); err != nil {
		t.Fatalf("PublishRunCompleted with no subscribers: %v", err)
	}
}

func TestTopicsAreIndependent(t *testing.T) {
	bus := testBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	completed, err := bus.Subscribe(ctx, TopicRunCompleted)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	failed := &recommend.Run{ID: "run-4", MediaType: recommend.MediaTypeMovie, Status: recommend.RunFailed}
	if err := bus.PublishRunFailed(failed); err != nil {
		t.Fatalf("PublishRunFailed: %v", err)
	}

	select {
	case msg := <-completed:
		t.Errorf("run.completed subscriber received %q from run.failed topic", msg.UUID)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	bus := NewBus(Config{BufferSize: 8}, zerolog.Nop())
	if err := bus.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
