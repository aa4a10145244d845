// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package uppercase implements a reference agent that replies with its input in upper case.
package uppercase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-a2a/a2a-agent"
	"github.com/go-a2a/a2a-agent/server/agent_execution"
	"github.com/go-a2a/a2a-agent/server/event"
)

// DefaultDelay is how long the agent works before replying.
const DefaultDelay = 100 * time.Millisecond

// SkillID is the id of the agent's only skill.
const SkillID = "uppercase"

// ErrNoText is returned by Execute when the request carries no text to uppercase.
var ErrNoText = errors.New("message has no text to uppercase")

// Executor is the uppercase [agent_execution.AgentExecutor]. It does not support cancellation.
type Executor struct {
	agent_execution.UnsupportedCancel

	delay  time.Duration
	logger *slog.Logger
}

var _ agent_execution.AgentExecutor = (*Executor)(nil)

// Option represents an option for configuring the [Executor].
type Option func(*Executor)

// WithDelay sets how long the executor works before replying.
func WithDelay(d time.Duration) Option {
	return func(e *Executor) {
		e.delay = d
	}
}

// WithLogger sets the [*slog.Logger] for the [Executor].
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// NewExecutor creates a new Executor.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		delay:  DefaultDelay,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute joins the text parts of the request with spaces and replies with the result in upper
// case after the configured delay.
func (e *Executor) Execute(ctx context.Context, reqCtx *agent_execution.RequestContext, queue *event.EventQueue) error {
	input := reqCtx.UserInput(" ")
	if input == "" {
		return ErrNoText
	}
	e.logger.DebugContext(ctx, "uppercasing input",
		slog.String("task_id", reqCtx.TaskID()),
		slog.Int("length", len(input)),
	)

	if e.delay > 0 {
		timer := time.NewTimer(e.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	reply := a2a.NewAgentTextMessage(strings.ToUpper(input), reqCtx.TaskID(), reqCtx.ContextID())
	if err := queue.Enqueue(ctx, event.NewMessageEvent(reply)); err != nil {
		return fmt.Errorf("publish reply: %w", err)
	}
	return nil
}

// Card returns the agent card of the uppercase agent served at url.
func Card(url string) *a2a.AgentCard {
	return &a2a.AgentCard{
		Name:        "Uppercase Agent",
		Description: "An agent that replies with your messages in upper case.",
		URL:         url,
		Version:     "1.0.0",
		Capabilities: a2a.AgentCapabilities{
			Streaming: true,
		},
		Skills: []a2a.AgentSkill{{
			ID:          SkillID,
			Name:        "Uppercase Echo",
			Description: "Returns the text in upper case.",
			Tags:        []string{"echo", "uppercase"},
			Examples:    []string{"bonjour", "hello"},
			InputModes:  []string{"text"},
			OutputModes: []string{"text"},
		}},
		DefaultInputModes:                 []string{"text"},
		DefaultOutputModes:                []string{"text"},
		SupportsAuthenticatedExtendedCard: false,
	}
}
