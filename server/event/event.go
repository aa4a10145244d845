// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package event provides the events an agent produces while executing a task and the queue that
// carries them from the executor to the request handler.
package event

import (
	"fmt"

	"github.com/go-a2a/a2a-agent"
)

// Event is one unit of output produced by an agent executor.
type Event interface {
	// EventType returns the wire kind of the event ("message" or "status-update").
	EventType() string

	// Validate ensures the event is in a valid state.
	Validate() error

	// StreamEvent returns the event as a chunk of a message/stream response.
	StreamEvent() a2a.StreamEvent
}

// MessageEvent wraps an a2a.Message produced by the agent.
type MessageEvent struct {
	Message *a2a.Message
}

var _ Event = (*MessageEvent)(nil)

// NewMessageEvent creates a new MessageEvent.
func NewMessageEvent(msg *a2a.Message) *MessageEvent {
	return &MessageEvent{Message: msg}
}

// EventType implements [Event].
func (*MessageEvent) EventType() string { return a2a.KindMessage }

// Validate implements [Event].
func (e *MessageEvent) Validate() error {
	if e.Message == nil {
		return fmt.Errorf("message event message cannot be nil")
	}
	return e.Message.Validate()
}

// StreamEvent implements [Event].
func (e *MessageEvent) StreamEvent() a2a.StreamEvent {
	return a2a.StreamEvent{Message: e.Message}
}

// String returns a string representation of the MessageEvent.
func (e *MessageEvent) String() string {
	if e.Message == nil {
		return "MessageEvent{Message: nil}"
	}
	return fmt.Sprintf("MessageEvent{TaskID: %s, Text: %.50q}", e.Message.TaskID, e.Message.Text(" "))
}

// TaskStatusUpdateEvent reports a task status change.
type TaskStatusUpdateEvent struct {
	a2a.TaskStatusUpdateEvent
}

var _ Event = (*TaskStatusUpdateEvent)(nil)

// NewTaskStatusUpdateEvent creates a new TaskStatusUpdateEvent.
func NewTaskStatusUpdateEvent(taskID, contextID string, status a2a.TaskStatus, final bool) *TaskStatusUpdateEvent {
	return &TaskStatusUpdateEvent{
		TaskStatusUpdateEvent: a2a.TaskStatusUpdateEvent{
			TaskID:    taskID,
			ContextID: contextID,
			Status:    status,
			Final:     final,
			Kind:      a2a.KindStatusUpdate,
		},
	}
}

// NewFailureEvent creates the final status update reporting that executing the task failed with err.
// The status message carries the error text as an agent message.
func NewFailureEvent(taskID, contextID string, err error) *TaskStatusUpdateEvent {
	text := "agent execution failed"
	if err != nil {
		text = err.Error()
	}
	msg := a2a.NewAgentTextMessage(text, taskID, contextID)
	return NewTaskStatusUpdateEvent(taskID, contextID, a2a.NewTaskStatus(a2a.TaskStateFailed, msg), true)
}

// EventType implements [Event].
func (*TaskStatusUpdateEvent) EventType() string { return a2a.KindStatusUpdate }

// StreamEvent implements [Event].
func (e *TaskStatusUpdateEvent) StreamEvent() a2a.StreamEvent {
	update := e.TaskStatusUpdateEvent
	return a2a.StreamEvent{StatusUpdate: &update}
}

// String returns a string representation of the TaskStatusUpdateEvent.
func (e *TaskStatusUpdateEvent) String() string {
	return fmt.Sprintf("TaskStatusUpdateEvent{TaskID: %s, Status: %s, Final: %t}", e.TaskID, e.Status.State, e.Final)
}

// IsTerminal reports whether no further events follow ev for its task.
// Messages are always terminal; status updates are terminal when final or in a terminal state.
func IsTerminal(ev Event) bool {
	switch e := ev.(type) {
	case *MessageEvent:
		return true
	case *TaskStatusUpdateEvent:
		return e.Final || e.Status.State.IsTerminal()
	default:
		return false
	}
}

// IsFailure reports whether ev marks the task as failed.
func IsFailure(ev Event) bool {
	e, ok := ev.(*TaskStatusUpdateEvent)
	return ok && e.Status.State == a2a.TaskStateFailed
}
