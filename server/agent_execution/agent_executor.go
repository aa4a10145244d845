// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package agent_execution defines the contract between the request handler and agent
// implementations: the AgentExecutor interface and the RequestContext it receives.
package agent_execution

import (
	"context"
	"fmt"

	"github.com/go-a2a/a2a-agent"
	"github.com/go-a2a/a2a-agent/server/event"
)

// AgentExecutor contains the core logic of an agent.
//
// Execute processes the request and publishes its output as events to queue. It must publish at
// least one terminal event: an agent message, or a final status update. ctx is canceled when the
// task is canceled, and executors are expected to stop promptly when it is. Execute must not
// close the queue; the caller closes it once Execute returns.
//
// Cancel requests cancellation of a running task. queue is the event queue of the running
// execution, or a fresh queue when the task is not running. Executors that cannot cancel return
// an error wrapping a2a.ErrUnsupportedOperation; see UnsupportedCancel.
type AgentExecutor interface {
	Execute(ctx context.Context, reqCtx *RequestContext, queue *event.EventQueue) error
	Cancel(ctx context.Context, reqCtx *RequestContext, queue *event.EventQueue) error
}

// UnsupportedCancel can be embedded in executors that do not support cancellation.
type UnsupportedCancel struct{}

// Cancel always returns an error wrapping a2a.ErrUnsupportedOperation.
func (UnsupportedCancel) Cancel(ctx context.Context, reqCtx *RequestContext, queue *event.EventQueue) error {
	return fmt.Errorf("%w: cancel is not supported by this agent", a2a.ErrUnsupportedOperation)
}

// ExecuteFunc adapts a function to an AgentExecutor that does not support cancellation.
type ExecuteFunc func(ctx context.Context, reqCtx *RequestContext, queue *event.EventQueue) error

var _ AgentExecutor = ExecuteFunc(nil)

// Execute calls f.
func (f ExecuteFunc) Execute(ctx context.Context, reqCtx *RequestContext, queue *event.EventQueue) error {
	return f(ctx, reqCtx, queue)
}

// Cancel always returns an error wrapping a2a.ErrUnsupportedOperation.
func (f ExecuteFunc) Cancel(ctx context.Context, reqCtx *RequestContext, queue *event.EventQueue) error {
	return UnsupportedCancel{}.Cancel(ctx, reqCtx, queue)
}
