// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"fmt"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// JSONRPCVersion is the only supported JSON-RPC version.
const JSONRPCVersion = "2.0"

// A2A RPC method names.
const (
	// MethodMessageSend sends a message and waits for the final response.
	MethodMessageSend = "message/send"
	// MethodMessageStream sends a message and streams the response events.
	MethodMessageStream = "message/stream"
	// MethodTasksGet retrieves a task.
	MethodTasksGet = "tasks/get"
	// MethodTasksCancel requests cancellation of a task.
	MethodTasksCancel = "tasks/cancel"
)

// JSONRPCRequest is a JSON-RPC 2.0 request.
//
// LegacyParams holds the "_params" member some SDK versions emit instead of "params".
type JSONRPCRequest struct {
	JSONRPC      string         `json:"jsonrpc"`
	ID           any            `json:"id,omitzero"`
	Method       string         `json:"method"`
	Params       jsontext.Value `json:"params,omitzero"`
	LegacyParams jsontext.Value `json:"_params,omitzero"`
}

// NewJSONRPCRequest creates a request for method with params encoded as JSON.
func NewJSONRPCRequest(id any, method string, params any) (*JSONRPCRequest, error) {
	data, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal %s params: %w", method, err)
	}
	return &JSONRPCRequest{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Method:  method,
		Params:  data,
	}, nil
}

// Validate ensures the request envelope is well formed.
func (r *JSONRPCRequest) Validate() error {
	if r.JSONRPC != JSONRPCVersion {
		return fmt.Errorf("%w: unsupported jsonrpc version %q", ErrInvalidRequest, r.JSONRPC)
	}
	if r.Method == "" {
		return fmt.Errorf("%w: method cannot be empty", ErrInvalidRequest)
	}
	return nil
}

// JSONRPCResponse is a JSON-RPC 2.0 response. Exactly one of Result and Error is set.
type JSONRPCResponse struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      any            `json:"id,omitzero"`
	Result  jsontext.Value `json:"result,omitzero"`
	Error   *Error         `json:"error,omitzero"`
}

// NewJSONRPCResponse creates a success response carrying result encoded as JSON.
func NewJSONRPCResponse(id, result any) (*JSONRPCResponse, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return &JSONRPCResponse{JSONRPC: JSONRPCVersion, ID: id, Result: data}, nil
}

// NewJSONRPCErrorResponse creates an error response for err.
func NewJSONRPCErrorResponse(id any, err error) *JSONRPCResponse {
	return &JSONRPCResponse{JSONRPC: JSONRPCVersion, ID: id, Error: AsError(err)}
}

// DecodeResult decodes the result into v, or returns the response error.
func (r *JSONRPCResponse) DecodeResult(v any) error {
	if r.Error != nil {
		return r.Error
	}
	if len(r.Result) == 0 {
		return fmt.Errorf("%w: response has neither result nor error", ErrInternal)
	}
	if err := json.Unmarshal(r.Result, v); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

// StreamEvent is one chunk of a message/stream response. Exactly one field is set.
type StreamEvent struct {
	Message      *Message
	StatusUpdate *TaskStatusUpdateEvent
	Task         *Task
}

// MarshalJSON implements [json.Marshaler].
func (e StreamEvent) MarshalJSON() ([]byte, error) {
	switch {
	case e.Message != nil:
		return json.Marshal(e.Message)
	case e.StatusUpdate != nil:
		return json.Marshal(e.StatusUpdate)
	case e.Task != nil:
		return json.Marshal(e.Task)
	default:
		return nil, fmt.Errorf("cannot marshal empty stream event")
	}
}

// UnmarshalJSON implements [json.Unmarshaler].
func (e *StreamEvent) UnmarshalJSON(data []byte) error {
	kind, err := rawKind(data)
	if err != nil {
		return fmt.Errorf("decode stream event kind: %w", err)
	}
	*e = StreamEvent{}
	switch kind {
	case KindMessage:
		e.Message = new(Message)
		return json.Unmarshal(data, e.Message)
	case KindStatusUpdate:
		e.StatusUpdate = new(TaskStatusUpdateEvent)
		return json.Unmarshal(data, e.StatusUpdate)
	case KindTask:
		e.Task = new(Task)
		return json.Unmarshal(data, e.Task)
	default:
		return fmt.Errorf("unknown stream event kind: %q", kind)
	}
}

// Text returns the text carried by the event: the message text, or the status message text.
func (e *StreamEvent) Text() string {
	switch {
	case e.Message != nil:
		return e.Message.Text(" ")
	case e.StatusUpdate != nil:
		return e.StatusUpdate.Status.Message.Text(" ")
	case e.Task != nil:
		return e.Task.Status.Message.Text(" ")
	default:
		return ""
	}
}
