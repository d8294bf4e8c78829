// Tastemaker - Semantic Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemaker

package events

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/tastemaker/internal/recommend"
)

// Bus is an in-process pub/sub bus for run lifecycle events. It satisfies
// recommend.EventPublisher and additionally exposes Subscribe for consumers.
//
// The gochannel backend delivers each message to every active subscriber of
// the topic. Messages published with no subscribers are dropped, which is
// the intended behavior for fire-and-forget notifications.
type Bus struct {
	pubsub *gochannel.GoChannel
	logger zerolog.Logger
}

// Config holds event bus configuration.
type Config struct {
	// BufferSize is the per-subscriber output channel buffer.
	// Default: 64
	BufferSize int64
}

// NewBus creates an in-process event bus.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBus(cfg Config, logger zerolog.Logger) *Bus {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 64
	}

	busLogger := logger.With().Str("component", "events").Logger()
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: cfg.BufferSize,
	}, &watermillAdapter{logger: busLogger})

	return &Bus{pubsub: pubsub, logger: busLogger}
}

// PublishRunCompleted publishes a run.completed event.
func (b *Bus) PublishRunCompleted(run *recommend.Run) error {
	return b.publish(TopicRunCompleted, run)
}

// PublishRunFailed publishes a run.failed event.
func (b *Bus) PublishRunFailed(run *recommend.Run) error {
	return b.publish(TopicRunFailed, run)
}

func (b *Bus) publish(topic string, run *recommend.Run) error {
	payload, err := json.Marshal(NewRunEvent(run))
	if err != nil {
		return fmt.Errorf("marshal run event: %w", err)
	}

	msg := message.NewMessage(run.ID, payload)
	msg.Metadata.Set("media_type", string(run.MediaType))
	msg.Metadata.Set("user_id", strconv.Itoa(run.UserID))

	if err := b.pubsub.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe returns a channel of messages for the given topic. The channel
// is closed when the context is canceled or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, topic)
}

// Close shuts down the bus and closes all subscriber channels.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}

// DecodeRunEvent unmarshals a run event payload.
func DecodeRunEvent(payload []byte) (RunEvent, error) {
	var event RunEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return event, fmt.Errorf("unmarshal run event: %w", err)
	}
	return event, nil
}

// watermillAdapter bridges Watermill's logging to zerolog.
type watermillAdapter struct {
	logger zerolog.Logger
}

func (a *watermillAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.event(a.logger.Error().Err(err), fields).Msg(msg)
}

func (a *watermillAdapter) Info(msg string, fields watermill.LogFields) {
	a.event(a.logger.Debug(), fields).Msg(msg)
}

func (a *watermillAdapter) Debug(msg string, fields watermill.LogFields) {
	a.event(a.logger.Debug(), fields).Msg(msg)
}

func (a *watermillAdapter) Trace(msg string, fields watermill.LogFields) {
	a.event(a.logger.Trace(), fields).Msg(msg)
}

func (a *watermillAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	logger := a.logger
	for k, v := range fields {
		logger = logger.With().Interface(k, v).Logger()
	}
	return &watermillAdapter{logger: logger}
}

func (a *watermillAdapter) event(e *zerolog.Event, fields watermill.LogFields) *zerolog.Event {
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	return e
}
