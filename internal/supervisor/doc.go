// Tastemaker - Semantic Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemaker

/*
Package supervisor provides process supervision for Tastemaker using suture v4.

This package implements a hierarchical supervisor tree that manages the
lifecycle of all long-running services in the application, with automatic
restart, failure isolation, and graceful shutdown.

# Overview

The tree organizes services into two layers for failure isolation:

	RootSupervisor ("tastemaker")
	├── BatchSupervisor ("batch-layer")
	│   └── BatchService (if batch.enabled)
	└── TelemetrySupervisor ("telemetry-layer")
	    ├── MetricsService (if metrics.enabled)
	    └── RunEventService

This hierarchy ensures that a crash in the batch sweep never takes down the
metrics listener, and vice versa.

# Service Interface

All services implement suture.Service:

	type Service interface {
	    Serve(ctx context.Context) error
	}

Return behavior:
  - Return nil: service stopped cleanly, will not be restarted
  - Return error: service crashed, will be restarted with backoff
  - Context canceled: shutdown requested, return promptly

# Failure Handling

The supervisor uses a failure counter with exponential decay. Each failure
increments the counter; when it exceeds FailureThreshold the supervisor
enters backoff for FailureBackoff before restarting. Default values match
suture's built-in defaults (threshold 5, decay 30s, backoff 15s).

# What Is NOT Supervised

DuckDB and BadgerDB are embedded libraries, not long-running services; their
connections are owned by the database and embedding packages and closed from
main. A crash inside either would require a process restart anyway.

# See Also

  - internal/supervisor/services: service wrappers
  - github.com/thejerf/suture/v4: underlying library
*/
package supervisor
