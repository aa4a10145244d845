// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Role represents the role of a message sender.
type Role string

// Role constants for message senders.
const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// KindMessage is the wire discriminator of a Message.
const KindMessage = "message"

// Message is one unit of exchanged content. A Message is not modified after construction.
type Message struct {
	Role      Role           `json:"role"`
	Parts     Parts          `json:"parts"`
	MessageID string         `json:"messageId"`
	TaskID    string         `json:"taskId,omitzero"`
	ContextID string         `json:"contextId,omitzero"`
	Metadata  map[string]any `json:"metadata,omitzero"`
	Kind      string         `json:"kind"`
}

// Validate ensures the Message is valid.
func (m *Message) Validate() error {
	if m.Role != RoleAgent && m.Role != RoleUser {
		return fmt.Errorf("invalid message role: %q", m.Role)
	}
	if m.MessageID == "" {
		return fmt.Errorf("message ID cannot be empty")
	}
	if len(m.Parts) == 0 {
		return fmt.Errorf("message must contain at least one part")
	}
	return m.Parts.Validate()
}

// Text joins the text of all text parts with sep.
func (m *Message) Text(sep string) string {
	if m == nil {
		return ""
	}
	return strings.Join(m.Parts.Texts(), sep)
}

// WithTask returns a copy of m bound to the given task and context ids.
func (m *Message) WithTask(taskID, contextID string) *Message {
	c := *m
	c.TaskID = taskID
	c.ContextID = contextID
	return &c
}

// NewMessage creates a message with a generated id.
func NewMessage(role Role, parts ...Part) *Message {
	return &Message{
		Role:      role,
		Parts:     parts,
		MessageID: uuid.NewString(),
		Kind:      KindMessage,
	}
}

// NewUserTextMessage creates a user message containing a single TextPart.
func NewUserTextMessage(text string) *Message {
	return NewMessage(RoleUser, &TextPart{Text: text})
}

// NewAgentTextMessage creates an agent message containing a single TextPart bound to the given
// task and context ids, which may be empty.
func NewAgentTextMessage(text, taskID, contextID string) *Message {
	msg := NewMessage(RoleAgent, &TextPart{Text: text})
	msg.TaskID = taskID
	msg.ContextID = contextID
	return msg
}
