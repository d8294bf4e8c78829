// Tastemaker - Semantic Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemaker

// Package events provides the in-process event bus for run lifecycle
// notifications. Completed and failed runs are published as JSON payloads
// over Watermill's gochannel pub/sub so that downstream consumers (batch
// bookkeeping, future webhook or notification integrations) observe run
// outcomes without coupling to the engine.
package events

import (
	"time"

	"github.com/tomtom215/tastemaker/internal/recommend"
)

// Topics for run lifecycle events.
const (
	TopicRunCompleted = "run.completed"
	TopicRunFailed    = "run.failed"
)

// RunEvent is the wire payload for run lifecycle notifications.
type RunEvent struct {
	RunID          string    `json:"run_id"`
	UserID         int       `json:"user_id"`
	MediaType      string    `json:"media_type"`
	Status         string    `json:"status"`
	CandidateCount int       `json:"candidate_count"`
	SelectedCount  int       `json:"selected_count"`
	DurationMS     int64     `json:"duration_ms"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// NewRunEvent builds the event payload for a terminal run.
func NewRunEvent(run *recommend.Run) RunEvent {
	return RunEvent{
		RunID:          run.ID,
		UserID:         run.UserID,
		MediaType:      string(run.MediaType),
		Status:         string(run.Status),
		CandidateCount: run.CandidateCount,
		SelectedCount:  run.SelectedCount,
		DurationMS:     run.DurationMS,
		ErrorMessage:   run.ErrorMessage,
		OccurredAt:     time.Now().UTC(),
	}
}
