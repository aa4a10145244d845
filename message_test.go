// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a_test

import (
	"testing"

	"github.com/go-json-experiment/json"
	gocmp "github.com/google/go-cmp/cmp"

	"github.com/go-a2a/a2a-agent"
)

func TestMessage_Validate(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		msg     *a2a.Message
		wantErr bool
	}{
		"user text": {
			msg: a2a.NewUserTextMessage("hello"),
		},
		"agent text": {
			msg: a2a.NewAgentTextMessage("HELLO", "t", "c"),
		},
		"invalid role": {
			msg:     &a2a.Message{Role: "system", MessageID: "m", Parts: a2a.Parts{&a2a.TextPart{Text: "x"}}},
			wantErr: true,
		},
		"missing id": {
			msg:     &a2a.Message{Role: a2a.RoleUser, Parts: a2a.Parts{&a2a.TextPart{Text: "x"}}},
			wantErr: true,
		},
		"no parts": {
			msg:     &a2a.Message{Role: a2a.RoleUser, MessageID: "m"},
			wantErr: true,
		},
		"invalid part": {
			msg:     a2a.NewMessage(a2a.RoleUser, &a2a.TextPart{}),
			wantErr: true,
		},
		"nil part": {
			msg:     a2a.NewMessage(a2a.RoleUser, nil),
			wantErr: true,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if err := tt.msg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMessage_Text(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		msg  *a2a.Message
		sep  string
		want string
	}{
		"nil": {
			msg:  nil,
			want: "",
		},
		"single": {
			msg:  a2a.NewUserTextMessage("hello"),
			sep:  " ",
			want: "hello",
		},
		"mixed parts": {
			msg: a2a.NewMessage(a2a.RoleUser,
				&a2a.TextPart{Text: "hello"},
				&a2a.DataPart{Data: map[string]any{"k": 1}},
				&a2a.TextPart{Text: "world"},
			),
			sep:  "\n",
			want: "hello\nworld",
		},
		"no text": {
			msg:  a2a.NewMessage(a2a.RoleUser, &a2a.FilePart{File: a2a.File{URI: "file:///a"}}),
			sep:  " ",
			want: "",
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if got := tt.msg.Text(tt.sep); got != tt.want {
				t.Errorf("Text(%q) = %q, want %q", tt.sep, got, tt.want)
			}
		})
	}
}

func TestMessage_WithTask(t *testing.T) {
	t.Parallel()

	msg := a2a.NewUserTextMessage("hello")
	bound := msg.WithTask("task-1", "ctx-1")

	if bound.TaskID != "task-1" || bound.ContextID != "ctx-1" {
		t.Errorf("WithTask() ids = (%q, %q), want (task-1, ctx-1)", bound.TaskID, bound.ContextID)
	}
	if msg.TaskID != "" || msg.ContextID != "" {
		t.Errorf("WithTask() modified the receiver: (%q, %q)", msg.TaskID, msg.ContextID)
	}
	if bound.MessageID != msg.MessageID {
		t.Errorf("WithTask() message id = %q, want %q", bound.MessageID, msg.MessageID)
	}
}

func TestNewMessage(t *testing.T) {
	t.Parallel()

	a := a2a.NewUserTextMessage("a")
	b := a2a.NewUserTextMessage("a")
	if a.MessageID == "" || a.MessageID == b.MessageID {
		t.Errorf("message ids = (%q, %q), want distinct generated ids", a.MessageID, b.MessageID)
	}
	if a.Kind != a2a.KindMessage {
		t.Errorf("kind = %q, want %q", a.Kind, a2a.KindMessage)
	}

	reply := a2a.NewAgentTextMessage("A", "t", "c")
	if reply.Role != a2a.RoleAgent || reply.TaskID != "t" || reply.ContextID != "c" {
		t.Errorf("NewAgentTextMessage() = %+v", reply)
	}
}

func TestMessage_JSON(t *testing.T) {
	t.Parallel()

	msg := &a2a.Message{
		Role:      a2a.RoleUser,
		Parts:     a2a.Parts{&a2a.TextPart{Text: "bonjour"}},
		MessageID: "m-1",
		TaskID:    "t-1",
		Kind:      a2a.KindMessage,
	}
	const want = `{"role":"user","parts":[{"kind":"text","text":"bonjour"}],"messageId":"m-1","taskId":"t-1","kind":"message"}`

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if got := string(data); got != want {
		t.Errorf("Marshal() = %s, want %s", got, want)
	}

	var got a2a.Message
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if diff := gocmp.Diff(msg, &got); diff != "" {
		t.Errorf("Unmarshal() (-want +got):\n%s", diff)
	}
}
