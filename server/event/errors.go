// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"errors"
	"fmt"

	"github.com/go-a2a/a2a-agent"
)

var (
	// ErrQueueClosed is returned when enqueuing to a closed queue, or dequeuing from a closed and
	// drained one.
	ErrQueueClosed = a2a.ErrQueueClosed

	// ErrInvalidQueueSize is returned when creating a queue with a negative size.
	ErrInvalidQueueSize = errors.New("max queue size cannot be negative")
)

// TaskQueueExistsError is returned when registering a queue for a task that already has one.
type TaskQueueExistsError struct {
	TaskID string
}

// Error implements the error interface.
func (e *TaskQueueExistsError) Error() string {
	return fmt.Sprintf("event queue for task %s already exists", e.TaskID)
}
