// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-a2a/a2a-agent"
	"github.com/go-a2a/a2a-agent/server/event"
)

// Updater publishes the status of one task to its event queue.
// Once a final update has been published no further updates are accepted.
type Updater struct {
	taskID    string
	contextID string
	queue     *event.EventQueue

	mu       sync.Mutex
	terminal bool
}

// NewUpdater creates a new Updater for the given task.
func NewUpdater(queue *event.EventQueue, taskID, contextID string) (*Updater, error) {
	if taskID == "" {
		return nil, fmt.Errorf("task ID cannot be empty")
	}
	if queue == nil {
		return nil, fmt.Errorf("event queue cannot be nil")
	}

	return &Updater{
		taskID:    taskID,
		contextID: contextID,
		queue:     queue,
	}, nil
}

// UpdateStatus publishes a status update. An empty message publishes a status without message.
func (u *Updater) UpdateStatus(ctx context.Context, state a2a.TaskState, message string, final bool) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.terminal {
		return NewTaskNotUpdatableError(u.taskID, state)
	}

	var msg *a2a.Message
	if message != "" {
		msg = a2a.NewAgentTextMessage(message, u.taskID, u.contextID)
	}
	final = final || state.IsTerminal()

	ev := event.NewTaskStatusUpdateEvent(u.taskID, u.contextID, a2a.NewTaskStatus(state, msg), final)
	if err := u.queue.Enqueue(ctx, ev); err != nil {
		return fmt.Errorf("failed to publish status update event: %w", err)
	}
	u.terminal = final
	return nil
}

// StartWork marks the task as working.
func (u *Updater) StartWork(ctx context.Context, message string) error {
	return u.UpdateStatus(ctx, a2a.TaskStateWorking, message, false)
}

// Complete marks the task as completed.
func (u *Updater) Complete(ctx context.Context, message string) error {
	return u.UpdateStatus(ctx, a2a.TaskStateCompleted, message, true)
}

// Failed marks the task as failed.
func (u *Updater) Failed(ctx context.Context, message string) error {
	return u.UpdateStatus(ctx, a2a.TaskStateFailed, message, true)
}

// Cancel marks the task as canceled.
func (u *Updater) Cancel(ctx context.Context, message string) error {
	return u.UpdateStatus(ctx, a2a.TaskStateCanceled, message, true)
}

// TaskID returns the task ID this updater is associated with.
func (u *Updater) TaskID() string {
	return u.taskID
}

// IsTerminal reports whether a final update has been published.
func (u *Updater) IsTerminal() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.terminal
}
