// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package a2a provides the data model of the Agent-to-Agent (A2A) protocol: messages and their
// parts, tasks and their lifecycle states, agent cards, JSON-RPC envelopes and the protocol error
// kinds shared by the server and client packages.
package a2a

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ProtocolVersion is the A2A protocol version spoken by this module.
const ProtocolVersion = "0.2.5"

// TaskState represents the state of a Task.
type TaskState string

const (
	// TaskStateSubmitted indicates the task has been received but not yet started.
	TaskStateSubmitted TaskState = "submitted"

	// TaskStateWorking indicates the task is being executed.
	TaskStateWorking TaskState = "working"

	// TaskStateCompleted indicates the task finished successfully.
	TaskStateCompleted TaskState = "completed"

	// TaskStateCanceled indicates the task was canceled.
	TaskStateCanceled TaskState = "canceled"

	// TaskStateFailed indicates the task failed.
	TaskStateFailed TaskState = "failed"
)

// IsTerminal reports whether no further transition is possible from s.
func (s TaskState) IsTerminal() bool {
	switch s {
	case TaskStateCompleted, TaskStateCanceled, TaskStateFailed:
		return true
	default:
		return false
	}
}

// Validate ensures the TaskState is a known state.
func (s TaskState) Validate() error {
	switch s {
	case TaskStateSubmitted, TaskStateWorking, TaskStateCompleted, TaskStateCanceled, TaskStateFailed:
		return nil
	default:
		return fmt.Errorf("invalid task state: %q", s)
	}
}

// TaskStatus is the current status of a Task.
type TaskStatus struct {
	State     TaskState `json:"state"`
	Message   *Message  `json:"message,omitzero"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// NewTaskStatus returns a TaskStatus in state stamped with the current time.
func NewTaskStatus(state TaskState, msg *Message) TaskStatus {
	return TaskStatus{
		State:     state,
		Message:   msg,
		Timestamp: time.Now().UTC(),
	}
}

// Validate ensures the TaskStatus is valid.
func (s TaskStatus) Validate() error {
	if err := s.State.Validate(); err != nil {
		return err
	}
	if s.Message != nil {
		if err := s.Message.Validate(); err != nil {
			return fmt.Errorf("status message is invalid: %w", err)
		}
	}
	return nil
}

// Task is one unit of requested agent work.
//
// History holds the originating user message first, followed by the response messages produced
// while the task ran.
type Task struct {
	ID        string         `json:"id"`
	ContextID string         `json:"contextId"`
	Status    TaskStatus     `json:"status"`
	History   []*Message     `json:"history,omitzero"`
	Metadata  map[string]any `json:"metadata,omitzero"`
	Kind      string         `json:"kind"`
}

// KindTask is the wire discriminator of a Task.
const KindTask = "task"

// NewTask creates a submitted Task for the originating message msg.
//
// The task and context ids are taken from msg when present and generated otherwise.
func NewTask(msg *Message) (*Task, error) {
	if msg == nil {
		return nil, fmt.Errorf("task message cannot be nil")
	}
	if err := msg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid task message: %w", err)
	}

	taskID := msg.TaskID
	if taskID == "" {
		taskID = uuid.NewString()
	}
	contextID := msg.ContextID
	if contextID == "" {
		contextID = uuid.NewString()
	}

	return &Task{
		ID:        taskID,
		ContextID: contextID,
		Status:    NewTaskStatus(TaskStateSubmitted, nil),
		History:   []*Message{msg},
		Kind:      KindTask,
	}, nil
}

// Validate ensures the Task is valid.
func (t *Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}
	if t.ContextID == "" {
		return fmt.Errorf("task context ID cannot be empty")
	}
	if err := t.Status.Validate(); err != nil {
		return fmt.Errorf("task %s status is invalid: %w", t.ID, err)
	}
	for i, msg := range t.History {
		if msg == nil {
			return fmt.Errorf("task %s history entry %d cannot be nil", t.ID, i)
		}
	}
	return nil
}

// OriginatingMessage returns the message the task was created from, or nil.
func (t *Task) OriginatingMessage() *Message {
	if len(t.History) == 0 {
		return nil
	}
	return t.History[0]
}

// Responses returns the messages produced for the task after the originating one.
func (t *Task) Responses() []*Message {
	if len(t.History) < 2 {
		return nil
	}
	return t.History[1:]
}

// Clone returns a deep copy of the task. Messages are immutable and shared.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	c.History = append([]*Message(nil), t.History...)
	if t.Metadata != nil {
		c.Metadata = make(map[string]any, len(t.Metadata))
		for k, v := range t.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// TrimHistory returns a copy of the task keeping only the last n history entries.
// A negative n keeps the full history.
func (t *Task) TrimHistory(n int) *Task {
	c := t.Clone()
	if n >= 0 && len(c.History) > n {
		c.History = c.History[len(c.History)-n:]
	}
	return c
}
