// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a_test

import (
	"testing"

	gocmp "github.com/google/go-cmp/cmp"

	"github.com/go-a2a/a2a-agent"
)

func TestTaskState(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		state        a2a.TaskState
		wantTerminal bool
		wantErr      bool
	}{
		"submitted": {state: a2a.TaskStateSubmitted},
		"working":   {state: a2a.TaskStateWorking},
		"completed": {state: a2a.TaskStateCompleted, wantTerminal: true},
		"canceled":  {state: a2a.TaskStateCanceled, wantTerminal: true},
		"failed":    {state: a2a.TaskStateFailed, wantTerminal: true},
		"unknown":   {state: a2a.TaskState("paused"), wantErr: true},
		"empty":     {state: a2a.TaskState(""), wantErr: true},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if got := tt.state.IsTerminal(); got != tt.wantTerminal {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.wantTerminal)
			}
			if err := tt.state.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewTask(t *testing.T) {
	t.Parallel()

	t.Run("generates ids", func(t *testing.T) {
		t.Parallel()

		msg := a2a.NewUserTextMessage("hello")
		task, err := a2a.NewTask(msg)
		if err != nil {
			t.Fatalf("NewTask() error = %v", err)
		}
		if task.ID == "" || task.ContextID == "" {
			t.Errorf("NewTask() ids = (%q, %q), want generated ids", task.ID, task.ContextID)
		}
		if task.Status.State != a2a.TaskStateSubmitted {
			t.Errorf("state = %s, want %s", task.Status.State, a2a.TaskStateSubmitted)
		}
		if task.Status.Timestamp.IsZero() {
			t.Error("status timestamp is zero")
		}
		if task.Kind != a2a.KindTask {
			t.Errorf("kind = %q, want %q", task.Kind, a2a.KindTask)
		}
		if got := task.OriginatingMessage(); got != msg {
			t.Errorf("OriginatingMessage() = %v, want %v", got, msg)
		}
		if err := task.Validate(); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
	})

	t.Run("keeps message ids", func(t *testing.T) {
		t.Parallel()

		msg := a2a.NewUserTextMessage("hello").WithTask("task-1", "ctx-1")
		task, err := a2a.NewTask(msg)
		if err != nil {
			t.Fatalf("NewTask() error = %v", err)
		}
		if task.ID != "task-1" || task.ContextID != "ctx-1" {
			t.Errorf("NewTask() ids = (%q, %q), want (task-1, ctx-1)", task.ID, task.ContextID)
		}
	})

	t.Run("nil message", func(t *testing.T) {
		t.Parallel()

		if _, err := a2a.NewTask(nil); err == nil {
			t.Error("NewTask(nil) error = nil, want error")
		}
	})

	t.Run("invalid message", func(t *testing.T) {
		t.Parallel()

		if _, err := a2a.NewTask(&a2a.Message{Role: a2a.RoleUser, MessageID: "m"}); err == nil {
			t.Error("NewTask() error = nil, want error for a message without parts")
		}
	})
}

func TestTask_Validate(t *testing.T) {
	t.Parallel()

	valid := func() *a2a.Task {
		return &a2a.Task{
			ID:        "t",
			ContextID: "c",
			Status:    a2a.NewTaskStatus(a2a.TaskStateWorking, nil),
			History:   []*a2a.Message{a2a.NewUserTextMessage("hi")},
			Kind:      a2a.KindTask,
		}
	}

	tests := map[string]struct {
		mutate  func(*a2a.Task)
		wantErr bool
	}{
		"valid":              {mutate: func(*a2a.Task) {}},
		"missing id":         {mutate: func(t *a2a.Task) { t.ID = "" }, wantErr: true},
		"missing context id": {mutate: func(t *a2a.Task) { t.ContextID = "" }, wantErr: true},
		"bad state":          {mutate: func(t *a2a.Task) { t.Status.State = "sleeping" }, wantErr: true},
		"nil history entry":  {mutate: func(t *a2a.Task) { t.History = append(t.History, nil) }, wantErr: true},
		"invalid status message": {
			mutate:  func(t *a2a.Task) { t.Status.Message = &a2a.Message{Role: a2a.RoleAgent} },
			wantErr: true,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			task := valid()
			tt.mutate(task)
			if err := task.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTask_Responses(t *testing.T) {
	t.Parallel()

	first := a2a.NewUserTextMessage("in")
	reply := a2a.NewAgentTextMessage("OUT", "", "")
	task := &a2a.Task{History: []*a2a.Message{first, reply}}

	if diff := gocmp.Diff([]*a2a.Message{reply}, task.Responses()); diff != "" {
		t.Errorf("Responses() (-want +got):\n%s", diff)
	}
	if got := (&a2a.Task{History: []*a2a.Message{first}}).Responses(); got != nil {
		t.Errorf("Responses() = %v, want nil", got)
	}
	if got := (&a2a.Task{}).OriginatingMessage(); got != nil {
		t.Errorf("OriginatingMessage() = %v, want nil", got)
	}
}

func TestTask_Clone(t *testing.T) {
	t.Parallel()

	task, err := a2a.NewTask(a2a.NewUserTextMessage("hi"))
	if err != nil {
		t.Fatal(err)
	}
	task.Metadata = map[string]any{"k": "v"}

	c := task.Clone()
	c.History = append(c.History, a2a.NewAgentTextMessage("HI", task.ID, task.ContextID))
	c.Metadata["k"] = "changed"
	c.Status.State = a2a.TaskStateCompleted

	if len(task.History) != 1 {
		t.Errorf("original history len = %d, want 1", len(task.History))
	}
	if task.Metadata["k"] != "v" {
		t.Errorf("original metadata = %v, want unchanged", task.Metadata)
	}
	if task.Status.State != a2a.TaskStateSubmitted {
		t.Errorf("original state = %s, want submitted", task.Status.State)
	}

	var nilTask *a2a.Task
	if nilTask.Clone() != nil {
		t.Error("Clone() of nil task is not nil")
	}
}

func TestTask_TrimHistory(t *testing.T) {
	t.Parallel()

	msgs := []*a2a.Message{
		a2a.NewUserTextMessage("one"),
		a2a.NewAgentTextMessage("two", "", ""),
		a2a.NewAgentTextMessage("three", "", ""),
	}

	tests := map[string]struct {
		n    int
		want []*a2a.Message
	}{
		"negative keeps all": {n: -1, want: msgs},
		"zero":               {n: 0, want: []*a2a.Message{}},
		"last two":           {n: 2, want: msgs[1:]},
		"larger than len":    {n: 10, want: msgs},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			task := &a2a.Task{ID: "t", History: msgs}
			got := task.TrimHistory(tt.n)
			if diff := gocmp.Diff(tt.want, got.History); diff != "" {
				t.Errorf("TrimHistory(%d) (-want +got):\n%s", tt.n, diff)
			}
			if len(task.History) != len(msgs) {
				t.Errorf("TrimHistory modified the original history: len = %d", len(task.History))
			}
		})
	}
}
