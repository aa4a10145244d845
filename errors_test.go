// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-json-experiment/json"
	gocmp "github.com/google/go-cmp/cmp"

	"github.com/go-a2a/a2a-agent"
)

func TestError_Is(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err    error
		target error
		want   bool
	}{
		"same sentinel": {
			err:    a2a.ErrTaskNotFound,
			target: a2a.ErrTaskNotFound,
			want:   true,
		},
		"decoded from wire": {
			err:    &a2a.Error{Code: a2a.CodeTaskNotFound, Message: "no such task"},
			target: a2a.ErrTaskNotFound,
			want:   true,
		},
		"wrapped": {
			err:    fmt.Errorf("get task: %w", a2a.ErrTaskNotCancelable),
			target: a2a.ErrTaskNotCancelable,
			want:   true,
		},
		"different code": {
			err:    a2a.ErrTaskNotFound,
			target: a2a.ErrTaskNotCancelable,
			want:   false,
		},
		"plain error": {
			err:    errors.New("task not found"),
			target: a2a.ErrTaskNotFound,
			want:   false,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if got := errors.Is(tt.err, tt.target); got != tt.want {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.want)
			}
		})
	}
}

func TestError_Error(t *testing.T) {
	t.Parallel()

	if got, want := a2a.ErrMethodNotFound.Error(), "method not found (code -32601)"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	withData := &a2a.Error{Code: a2a.CodeExecutionFault, Message: "agent execution failed", Data: "boom"}
	if got, want := withData.Error(), "agent execution failed (code -32050): boom"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestErrorCodes(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err  *a2a.Error
		code int
	}{
		"parse":                    {err: a2a.ErrParse, code: -32700},
		"invalid request":          {err: a2a.ErrInvalidRequest, code: -32600},
		"method not found":         {err: a2a.ErrMethodNotFound, code: -32601},
		"malformed request":        {err: a2a.ErrMalformedRequest, code: -32602},
		"internal":                 {err: a2a.ErrInternal, code: -32603},
		"task not found":           {err: a2a.ErrTaskNotFound, code: -32001},
		"task not cancelable":      {err: a2a.ErrTaskNotCancelable, code: -32002},
		"unsupported operation":    {err: a2a.ErrUnsupportedOperation, code: -32004},
		"content type unsupported": {err: a2a.ErrContentTypeNotSupported, code: -32005},
		"task not updatable":       {err: a2a.ErrTaskNotUpdatable, code: -32006},
		"execution fault":          {err: a2a.ErrExecutionFault, code: -32050},
		"task canceled":            {err: a2a.ErrTaskCanceled, code: -32051},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if tt.err.Code != tt.code {
				t.Errorf("code = %d, want %d", tt.err.Code, tt.code)
			}
		})
	}
}

func TestAsError(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err  error
		want *a2a.Error
	}{
		"nil": {
			err:  nil,
			want: nil,
		},
		"sentinel": {
			err:  a2a.ErrTaskNotFound,
			want: a2a.ErrTaskNotFound,
		},
		"wrapped sentinel": {
			err: fmt.Errorf("task 42: %w", a2a.ErrTaskNotFound),
			want: &a2a.Error{
				Code:    a2a.CodeTaskNotFound,
				Message: "task not found",
				Data:    "task 42: task not found (code -32001)",
			},
		},
		"wrapped error keeps its data": {
			err: fmt.Errorf("run: %w", &a2a.Error{Code: a2a.CodeExecutionFault, Message: "agent execution failed", Data: "model unavailable"}),
			want: &a2a.Error{
				Code:    a2a.CodeExecutionFault,
				Message: "agent execution failed",
				Data:    "model unavailable",
			},
		},
		"plain error": {
			err: errors.New("disk full"),
			want: &a2a.Error{
				Code:    a2a.CodeInternalError,
				Message: "internal error",
				Data:    "disk full",
			},
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if diff := gocmp.Diff(tt.want, a2a.AsError(tt.err)); diff != "" {
				t.Errorf("AsError() (-want +got):\n%s", diff)
			}
		})
	}
}

func TestError_JSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(a2a.ErrTaskNotFound)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if got, want := string(data), `{"code":-32001,"message":"task not found"}`; got != want {
		t.Errorf("Marshal() = %s, want %s", got, want)
	}

	var decoded a2a.Error
	if err := json.Unmarshal([]byte(`{"code":-32002,"message":"nope","data":{"id":"t"}}`), &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !errors.Is(&decoded, a2a.ErrTaskNotCancelable) {
		t.Errorf("decoded error %v does not match ErrTaskNotCancelable", &decoded)
	}
}
