// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package agent_execution

import (
	"fmt"

	"github.com/go-a2a/a2a-agent"
)

// ParamsAccessor extracts the send parameters from a RequestContext, returning nil when the
// location it knows about is empty.
type ParamsAccessor func(*RequestContext) *a2a.MessageSendParams

// PublicParams reads the exported MessageSendParams field.
func PublicParams(rc *RequestContext) *a2a.MessageSendParams {
	return rc.MessageSendParams
}

// FallbackParams reads the parameters attached with WithFallbackParams.
func FallbackParams(rc *RequestContext) *a2a.MessageSendParams {
	return rc.params
}

// DefaultParamsAccessors is the resolution order used by RequestContext.Params.
var DefaultParamsAccessors = []ParamsAccessor{PublicParams, FallbackParams}

// RequestContext is the read-only view of one request handed to an AgentExecutor.
type RequestContext struct {
	// MessageSendParams are the send parameters of the request.
	//
	// Producers that do not populate this field attach the parameters with WithFallbackParams
	// instead. Executors read them through the Params method, which consults both.
	MessageSendParams *a2a.MessageSendParams

	params       *a2a.MessageSendParams
	accessors    []ParamsAccessor
	taskID       string
	contextID    string
	requestID    string
	currentTask  *a2a.Task
	relatedTasks []*a2a.Task
	callContext  *ServerCallContext
}

// RequestContextOption configures a RequestContext.
type RequestContextOption func(*RequestContext)

// WithFallbackParams attaches params to the non-exported fallback location.
func WithFallbackParams(params *a2a.MessageSendParams) RequestContextOption {
	return func(rc *RequestContext) { rc.params = params }
}

// WithParamsAccessors replaces the parameter resolution order.
func WithParamsAccessors(accessors ...ParamsAccessor) RequestContextOption {
	return func(rc *RequestContext) { rc.accessors = accessors }
}

// WithRequestID sets the id of the request.
func WithRequestID(id string) RequestContextOption {
	return func(rc *RequestContext) { rc.requestID = id }
}

// WithCurrentTask sets the task the request continues.
func WithCurrentTask(task *a2a.Task) RequestContextOption {
	return func(rc *RequestContext) { rc.currentTask = task }
}

// WithRelatedTasks sets other tasks of the same conversation context.
func WithRelatedTasks(tasks ...*a2a.Task) RequestContextOption {
	return func(rc *RequestContext) { rc.relatedTasks = tasks }
}

// WithCallContext sets the transport call context.
func WithCallContext(callContext *ServerCallContext) RequestContextOption {
	return func(rc *RequestContext) { rc.callContext = callContext }
}

// NewRequestContext creates a new RequestContext.
func NewRequestContext(params *a2a.MessageSendParams, taskID, contextID string, opts ...RequestContextOption) *RequestContext {
	rc := &RequestContext{
		MessageSendParams: params,
		accessors:         DefaultParamsAccessors,
		taskID:            taskID,
		contextID:         contextID,
	}
	for _, opt := range opts {
		opt(rc)
	}
	if rc.callContext == nil {
		rc.callContext = NewServerCallContext(nil, nil)
	}
	return rc
}

// Params returns the send parameters of the request from the first accessor that yields them.
// It returns an error wrapping a2a.ErrMalformedRequest when no accessor does.
func (rc *RequestContext) Params() (*a2a.MessageSendParams, error) {
	for _, accessor := range rc.accessors {
		if params := accessor(rc); params != nil {
			return params, nil
		}
	}
	return nil, fmt.Errorf("%w: request context carries no message send parameters", a2a.ErrMalformedRequest)
}

// Message returns the user message of the request, or nil when the parameters are unresolvable.
func (rc *RequestContext) Message() *a2a.Message {
	params, err := rc.Params()
	if err != nil {
		return nil
	}
	return params.Message
}

// UserInput joins the text parts of the user message with sep.
func (rc *RequestContext) UserInput(sep string) string {
	return rc.Message().Text(sep)
}

// TaskID returns the id of the task the request executes.
func (rc *RequestContext) TaskID() string { return rc.taskID }

// ContextID returns the conversation context id of the request.
func (rc *RequestContext) ContextID() string { return rc.contextID }

// RequestID returns the id of the request.
func (rc *RequestContext) RequestID() string { return rc.requestID }

// CurrentTask returns the task the request continues, or nil for a new task.
func (rc *RequestContext) CurrentTask() *a2a.Task { return rc.currentTask }

// RelatedTasks returns other tasks of the same conversation context.
func (rc *RequestContext) RelatedTasks() []*a2a.Task { return rc.relatedTasks }

// CallContext returns the transport call context.
func (rc *RequestContext) CallContext() *ServerCallContext { return rc.callContext }

// Configuration returns the send configuration, or nil.
func (rc *RequestContext) Configuration() *a2a.MessageSendConfiguration {
	params, err := rc.Params()
	if err != nil {
		return nil
	}
	return params.Configuration
}

// Validate ensures the RequestContext is usable by an executor.
func (rc *RequestContext) Validate() error {
	if rc.taskID == "" {
		return fmt.Errorf("request context task ID cannot be empty")
	}
	if rc.contextID == "" {
		return fmt.Errorf("request context context ID cannot be empty")
	}
	params, err := rc.Params()
	if err != nil {
		return err
	}
	if err := params.Validate(); err != nil {
		return fmt.Errorf("%w: %w", a2a.ErrMalformedRequest, err)
	}
	return nil
}
