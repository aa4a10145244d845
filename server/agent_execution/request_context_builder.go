// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package agent_execution

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/go-a2a/a2a-agent"
	"github.com/go-a2a/a2a-agent/server/task"
)

// RequestContextBuilder builds the RequestContext supplied to the AgentExecutor.
type RequestContextBuilder interface {
	// Build creates a RequestContext for params. currentTask is the task the message continues,
	// or nil. Missing task and context ids are generated and copied onto the user message.
	Build(ctx context.Context, params *a2a.MessageSendParams, currentTask *a2a.Task, callContext *ServerCallContext) (*RequestContext, error)
}

// DefaultRelatedTasksLimit bounds the related tasks attached to a request context.
const DefaultRelatedTasksLimit = 20

// SimpleRequestContextBuilder is the default RequestContextBuilder.
// When constructed with a store it attaches the other tasks of the same context.
type SimpleRequestContextBuilder struct {
	store task.TaskStore
	limit int
}

var _ RequestContextBuilder = (*SimpleRequestContextBuilder)(nil)

// NewSimpleRequestContextBuilder creates a new SimpleRequestContextBuilder.
// store may be nil, in which case related tasks are not populated.
func NewSimpleRequestContextBuilder(store task.TaskStore) *SimpleRequestContextBuilder {
	return &SimpleRequestContextBuilder{
		store: store,
		limit: DefaultRelatedTasksLimit,
	}
}

// Build implements [RequestContextBuilder].
func (b *SimpleRequestContextBuilder) Build(ctx context.Context, params *a2a.MessageSendParams, currentTask *a2a.Task, callContext *ServerCallContext) (*RequestContext, error) {
	if params == nil {
		return nil, fmt.Errorf("%w: message send params cannot be nil", a2a.ErrMalformedRequest)
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", a2a.ErrMalformedRequest, err)
	}

	taskID, contextID := params.Message.TaskID, params.Message.ContextID
	if currentTask != nil {
		taskID, contextID = currentTask.ID, currentTask.ContextID
	}
	if taskID == "" {
		taskID = uuid.NewString()
	}
	if contextID == "" {
		contextID = uuid.NewString()
	}

	resolved := *params
	resolved.Message = params.Message.WithTask(taskID, contextID)

	opts := []RequestContextOption{
		WithRequestID(uuid.NewString()),
		WithCurrentTask(currentTask),
		WithCallContext(callContext),
	}
	if b.store != nil {
		related, err := b.relatedTasks(ctx, taskID, contextID)
		if err != nil {
			return nil, fmt.Errorf("failed to populate related tasks: %w", err)
		}
		opts = append(opts, WithRelatedTasks(related...))
	}

	rc := NewRequestContext(&resolved, taskID, contextID, opts...)
	if err := rc.Validate(); err != nil {
		return nil, fmt.Errorf("built request context is invalid: %w", err)
	}
	return rc, nil
}

func (b *SimpleRequestContextBuilder) relatedTasks(ctx context.Context, taskID, contextID string) ([]*a2a.Task, error) {
	tasks, err := b.store.List(ctx, contextID, b.limit, 0)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(tasks, func(t *a2a.Task) bool { return t.ID == taskID }), nil
}
