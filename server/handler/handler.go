// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package handler implements A2A request handling: the transport-neutral RequestHandler that
// runs agent executors and tracks their tasks, and the JSON-RPC over HTTP binding on top of it.
package handler

import (
	"context"
	"iter"

	"github.com/go-a2a/a2a-agent"
	"github.com/go-a2a/a2a-agent/server/agent_execution"
	"github.com/go-a2a/a2a-agent/server/event"
)

// RequestHandler defines the interface for handling A2A protocol requests independently of the
// transport they arrive on.
type RequestHandler interface {
	// OnMessageSend runs the agent for the message and returns its final response message.
	OnMessageSend(ctx context.Context, callCtx *agent_execution.ServerCallContext, params *a2a.MessageSendParams) (*a2a.Message, error)

	// OnMessageSendStream runs the agent for the message and returns the sequence of events it
	// produces. Errors that prevent the execution from starting are returned directly; errors
	// occurring later are yielded and end the sequence. Stopping the iteration early cancels the
	// execution.
	OnMessageSendStream(ctx context.Context, callCtx *agent_execution.ServerCallContext, params *a2a.MessageSendParams) (iter.Seq2[event.Event, error], error)

	// OnCancelTask requests cancellation of a task and returns the canceled task.
	OnCancelTask(ctx context.Context, callCtx *agent_execution.ServerCallContext, params *a2a.TaskIDParams) (*a2a.Task, error)

	// OnGetTask returns the current state of a task.
	OnGetTask(ctx context.Context, callCtx *agent_execution.ServerCallContext, params *a2a.TaskQueryParams) (*a2a.Task, error)
}
