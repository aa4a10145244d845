// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/go-a2a/a2a-agent/server/handler"
	"github.com/go-a2a/a2a-agent/server/task"
)

// Option represents an option for configuring the [Server].
type Option func(*Server)

// WithTaskStore sets the task store of the [Server] in place of the configured one.
// The server does not close a store given this way.
func WithTaskStore(store task.TaskStore) Option {
	return func(s *Server) {
		s.store = store
	}
}

// WithCallContextBuilder sets how the [Server] describes incoming calls to the agent.
func WithCallContextBuilder(b handler.CallContextBuilder) Option {
	return func(s *Server) {
		s.callContextBuilder = b
	}
}

// WithLogger sets the [*slog.Logger] for the [Server].
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithTracer sets the [trace.Tracer] for the [Server].
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Server) {
		s.tracer = tracer
	}
}
