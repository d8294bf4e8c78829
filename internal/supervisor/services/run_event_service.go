// Tastemaker - Semantic Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemaker

package services

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/tomtom215/tastemaker/internal/events"
)

// EventSubscriber is the read side of the event bus. Satisfied by *events.Bus.
type EventSubscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
}

// RunEventService consumes run lifecycle events and writes them to the
// structured log. It is the built-in consumer that keeps an audit trail of
// run outcomes even when no external integration is subscribed.
type RunEventService struct {
	bus    EventSubscriber
	logger zerolog.Logger
	name   string
}

// NewRunEventService creates the run event consumer.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRunEventService(bus EventSubscriber, logger zerolog.Logger) *RunEventService {
	return &RunEventService{
		bus:    bus,
		logger: logger.With().Str("service", "run-events").Logger(),
		name:   "run-event-consumer",
	}
}

// Serve implements suture.Service. It subscribes to both run topics and
// processes messages until the context is canceled.
func (s *RunEventService) Serve(ctx context.Context) error {
	completed, err := s.bus.Subscribe(ctx, events.TopicRunCompleted)
	if err != nil {
		return err
	}
	failed, err := s.bus.Subscribe(ctx, events.TopicRunFailed)
	if err != nil {
		return err
	}

	s.logger.Info().Msg("run event consumer starting")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case msg, ok := <-completed:
			if !ok {
				return nil
			}
			s.handle(msg, false)

		case msg, ok := <-failed:
			if !ok {
				return nil
			}
			s.handle(msg, true)
		}
	}
}

func (s *RunEventService) handle(msg *message.Message, failed bool) {
	defer msg.Ack()

	event, err := events.DecodeRunEvent(msg.Payload)
	if err != nil {
		s.logger.Error().Err(err).Str("message_uuid", msg.UUID).Msg("undecodable run event")
		return
	}

	log := s.logger.Info()
	if failed {
		log = s.logger.Warn().Str("error_message", event.ErrorMessage)
	}
	log.Str("run_id", event.RunID).
		Int("user_id", event.UserID).
		Str("media_type", event.MediaType).
		Str("status", event.Status).
		Int("candidates", event.CandidateCount).
		Int("selected", event.SelectedCount).
		Int64("duration_ms", event.DurationMS).
		Msg("run finished")
}

// String returns the service name for logging.
func (s *RunEventService) String() string {
	return s.name
}
