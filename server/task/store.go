// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package task provides task persistence and the helpers agents use to report task progress.
package task

import (
	"context"

	"github.com/go-a2a/a2a-agent"
)

// TaskStore defines the interface for task persistence operations.
//
// Implementations hand out copies: mutating a returned task never changes stored state.
// Lookups of unknown ids return a TaskNotFoundError, which matches a2a.ErrTaskNotFound.
type TaskStore interface {
	// Save persists a task to the storage backend.
	// If the task already exists, it is replaced.
	Save(ctx context.Context, task *a2a.Task) error

	// Get retrieves a task by its ID from the storage backend.
	Get(ctx context.Context, taskID string) (*a2a.Task, error)

	// UpdateStatus sets the status of a task and returns the updated task.
	// A task in a terminal state cannot move to another state; see TaskNotUpdatableError.
	UpdateStatus(ctx context.Context, taskID string, status a2a.TaskStatus) (*a2a.Task, error)

	// AppendHistory appends messages to the history of a task and returns the updated task.
	AppendHistory(ctx context.Context, taskID string, msgs ...*a2a.Message) (*a2a.Task, error)

	// Delete removes a task from the storage backend.
	Delete(ctx context.Context, taskID string) error

	// List retrieves tasks in creation order.
	// The contextID parameter can be used to filter tasks by context.
	// If contextID is empty, all tasks are returned. A limit of 0 means no limit.
	List(ctx context.Context, contextID string, limit, offset int) ([]*a2a.Task, error)

	// Count returns the total number of tasks in the storage backend.
	// If contextID is not empty, only tasks of that context are counted.
	Count(ctx context.Context, contextID string) (int64, error)

	// Initialize prepares the storage backend for use.
	Initialize(ctx context.Context) error

	// Close cleanly shuts down the storage backend.
	Close(ctx context.Context) error
}

// checkTransition reports whether task may move to status.
func checkTransition(task *a2a.Task, status a2a.TaskStatus) error {
	if err := status.Validate(); err != nil {
		return NewTaskValidationError(task.ID, err)
	}
	if task.Status.State.IsTerminal() && status.State != task.Status.State {
		return NewTaskNotUpdatableError(task.ID, task.Status.State)
	}
	return nil
}
