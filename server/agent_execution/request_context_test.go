// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package agent_execution

import (
	"errors"
	"testing"

	"github.com/go-a2a/a2a-agent"
)

func TestRequestContext_Params(t *testing.T) {
	public := &a2a.MessageSendParams{Message: a2a.NewUserTextMessage("public")}
	fallback := &a2a.MessageSendParams{Message: a2a.NewUserTextMessage("fallback")}

	tests := map[string]struct {
		params   *a2a.MessageSendParams
		opts     []RequestContextOption
		wantText string
		wantErr  error
	}{
		"public field": {
			params:   public,
			wantText: "public",
		},
		"public field wins over fallback": {
			params:   public,
			opts:     []RequestContextOption{WithFallbackParams(fallback)},
			wantText: "public",
		},
		"fallback when public field is empty": {
			opts:     []RequestContextOption{WithFallbackParams(fallback)},
			wantText: "fallback",
		},
		"custom order": {
			params: public,
			opts: []RequestContextOption{
				WithFallbackParams(fallback),
				WithParamsAccessors(FallbackParams, PublicParams),
			},
			wantText: "fallback",
		},
		"error: neither location": {
			wantErr: a2a.ErrMalformedRequest,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			rc := NewRequestContext(tt.params, "task-1", "ctx-1", tt.opts...)

			got, err := rc.Params()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Params() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if rc.Message() != nil {
					t.Error("Message() != nil for unresolvable params")
				}
				if verr := rc.Validate(); !errors.Is(verr, a2a.ErrMalformedRequest) {
					t.Errorf("Validate() error = %v, want %v", verr, a2a.ErrMalformedRequest)
				}
				return
			}
			if text := got.Message.Text(" "); text != tt.wantText {
				t.Errorf("Params().Message text = %q, want %q", text, tt.wantText)
			}
			if input := rc.UserInput(" "); input != tt.wantText {
				t.Errorf("UserInput() = %q, want %q", input, tt.wantText)
			}
		})
	}
}

func TestRequestContext_Defaults(t *testing.T) {
	rc := NewRequestContext(nil, "task-1", "ctx-1")

	if rc.CallContext() == nil {
		t.Fatal("CallContext() = nil, want default call context")
	}
	if rc.CallContext().User().IsAuthenticated() {
		t.Error("default call context user is authenticated")
	}
	if rc.Configuration() != nil {
		t.Error("Configuration() != nil without params")
	}
	if rc.CurrentTask() != nil {
		t.Error("CurrentTask() != nil for a new request")
	}
}

func TestServerCallContext_State(t *testing.T) {
	initial := map[string]any{StateRemoteAddr: "127.0.0.1"}
	scc := NewServerCallContext(nil, initial)
	initial[StateRemoteAddr] = "changed"

	if v, _ := scc.GetState(StateRemoteAddr); v != "127.0.0.1" {
		t.Errorf("GetState() = %v, want the value at construction", v)
	}

	scc.SetState(StateMethod, a2a.MethodMessageSend)
	state := scc.State()
	state[StateMethod] = "mutated"
	if v, _ := scc.GetState(StateMethod); v != a2a.MethodMessageSend {
		t.Errorf("GetState() = %v after mutating a copy", v)
	}
}
