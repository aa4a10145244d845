// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"errors"
	"fmt"
)

// JSON-RPC 2.0 and A2A error codes.
const (
	CodeParseError              = -32700
	CodeInvalidRequest          = -32600
	CodeMethodNotFound          = -32601
	CodeInvalidParams           = -32602
	CodeInternalError           = -32603
	CodeTaskNotFound            = -32001
	CodeTaskNotCancelable       = -32002
	CodeUnsupportedOperation    = -32004
	CodeContentTypeNotSupported = -32005
	CodeTaskNotUpdatable        = -32006

	// Implementation-defined server errors.
	CodeExecutionFault = -32050
	CodeTaskCanceled   = -32051
)

// Error is a protocol error carrying a JSON-RPC error code.
//
// Two Errors match under [errors.Is] when their codes are equal, so an error decoded from the wire
// matches the corresponding sentinel below.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitzero"`
}

// NewError creates a new Error.
func NewError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("%s (code %d): %v", e.Message, e.Code, e.Data)
	}
	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Protocol error kinds that travel over JSON-RPC.
var (
	ErrParse                   = NewError(CodeParseError, "parse error")
	ErrInvalidRequest          = NewError(CodeInvalidRequest, "invalid request")
	ErrMethodNotFound          = NewError(CodeMethodNotFound, "method not found")
	ErrMalformedRequest        = NewError(CodeInvalidParams, "malformed request")
	ErrInternal                = NewError(CodeInternalError, "internal error")
	ErrTaskNotFound            = NewError(CodeTaskNotFound, "task not found")
	ErrTaskNotCancelable       = NewError(CodeTaskNotCancelable, "task cannot be canceled")
	ErrUnsupportedOperation    = NewError(CodeUnsupportedOperation, "this operation is not supported")
	ErrContentTypeNotSupported = NewError(CodeContentTypeNotSupported, "content type not supported")
	ErrTaskNotUpdatable        = NewError(CodeTaskNotUpdatable, "task cannot be updated")
	ErrExecutionFault          = NewError(CodeExecutionFault, "agent execution failed")
	ErrTaskCanceled            = NewError(CodeTaskCanceled, "task was canceled")
)

// Local error kinds that never travel over the wire.
var (
	// ErrQueueClosed is returned when enqueuing to, or draining, a closed event queue.
	ErrQueueClosed = errors.New("event queue is closed")

	// ErrCardUnavailable is returned when an agent card cannot be resolved.
	ErrCardUnavailable = errors.New("agent card unavailable")

	// ErrRequestFailed is returned when the transport answers with a non-success status.
	ErrRequestFailed = errors.New("request failed")
)

// AsError converts err into a wire *Error. Errors that do not wrap an *Error become internal
// errors. When err adds context to a wrapped *Error, the full text is carried in Data.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if !errors.As(err, &e) {
		return &Error{Code: CodeInternalError, Message: ErrInternal.Message, Data: err.Error()}
	}
	if err == error(e) {
		return e
	}
	out := &Error{Code: e.Code, Message: e.Message, Data: e.Data}
	if out.Data == nil {
		out.Data = err.Error()
	}
	return out
}
