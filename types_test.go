// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a_test

import (
	"testing"

	"github.com/go-json-experiment/json"
	gocmp "github.com/google/go-cmp/cmp"

	"github.com/go-a2a/a2a-agent"
)

func validCard() *a2a.AgentCard {
	return &a2a.AgentCard{
		Name:         "Echo Agent",
		Description:  "Echoes messages",
		URL:          "http://localhost:9999/",
		Version:      "1.0.0",
		Capabilities: a2a.AgentCapabilities{Streaming: true},
		Skills: []a2a.AgentSkill{{
			ID:          "echo",
			Name:        "Echo",
			Description: "Echoes the input",
			Tags:        []string{"echo"},
		}},
		DefaultInputModes:  []string{"text"},
		DefaultOutputModes: []string{"text"},
	}
}

func TestAgentCard_Validate(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		mutate  func(*a2a.AgentCard)
		wantErr bool
	}{
		"valid":           {mutate: func(*a2a.AgentCard) {}},
		"missing name":    {mutate: func(c *a2a.AgentCard) { c.Name = "" }, wantErr: true},
		"missing url":     {mutate: func(c *a2a.AgentCard) { c.URL = "" }, wantErr: true},
		"missing version": {mutate: func(c *a2a.AgentCard) { c.Version = "" }, wantErr: true},
		"skill without id": {
			mutate:  func(c *a2a.AgentCard) { c.Skills[0].ID = "" },
			wantErr: true,
		},
		"skill without name": {
			mutate:  func(c *a2a.AgentCard) { c.Skills[0].Name = "" },
			wantErr: true,
		},
		"no skills": {mutate: func(c *a2a.AgentCard) { c.Skills = nil }},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			card := validCard()
			tt.mutate(card)
			if err := card.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAgentCard_JSON(t *testing.T) {
	t.Parallel()

	card := validCard()
	data, err := json.Marshal(card)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	const want = `{"name":"Echo Agent","description":"Echoes messages","url":"http://localhost:9999/","version":"1.0.0",` +
		`"capabilities":{"streaming":true},` +
		`"skills":[{"id":"echo","name":"Echo","description":"Echoes the input","tags":["echo"]}],` +
		`"default_input_modes":["text"],"default_output_modes":["text"],"supports_authenticated_extended_card":false}`
	if got := string(data); got != want {
		t.Errorf("Marshal() =\n%s\nwant\n%s", got, want)
	}

	var got a2a.AgentCard
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if diff := gocmp.Diff(card, &got); diff != "" {
		t.Errorf("Unmarshal() (-want +got):\n%s", diff)
	}
}

func TestMessageSendParams_Validate(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		params  a2a.MessageSendParams
		wantErr bool
	}{
		"valid": {
			params: a2a.MessageSendParams{Message: a2a.NewUserTextMessage("hi")},
		},
		"nil message": {
			params:  a2a.MessageSendParams{},
			wantErr: true,
		},
		"invalid message": {
			params:  a2a.MessageSendParams{Message: &a2a.Message{Role: a2a.RoleUser}},
			wantErr: true,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if err := tt.params.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTaskParams_Validate(t *testing.T) {
	t.Parallel()

	negative := -1
	two := 2

	tests := map[string]struct {
		params  interface{ Validate() error }
		wantErr bool
	}{
		"id params":             {params: &a2a.TaskIDParams{ID: "t"}},
		"id params missing id":  {params: &a2a.TaskIDParams{}, wantErr: true},
		"query params":          {params: &a2a.TaskQueryParams{ID: "t", HistoryLength: &two}},
		"query params no bound": {params: &a2a.TaskQueryParams{ID: "t"}},
		"query missing id":      {params: &a2a.TaskQueryParams{}, wantErr: true},
		"query negative bound":  {params: &a2a.TaskQueryParams{ID: "t", HistoryLength: &negative}, wantErr: true},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if err := tt.params.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTaskStatusUpdateEvent_Validate(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		event   a2a.TaskStatusUpdateEvent
		wantErr bool
	}{
		"valid": {
			event: a2a.TaskStatusUpdateEvent{TaskID: "t", Status: a2a.TaskStatus{State: a2a.TaskStateWorking}},
		},
		"missing task id": {
			event:   a2a.TaskStatusUpdateEvent{Status: a2a.TaskStatus{State: a2a.TaskStateWorking}},
			wantErr: true,
		},
		"invalid state": {
			event:   a2a.TaskStatusUpdateEvent{TaskID: "t", Status: a2a.TaskStatus{State: "dreaming"}},
			wantErr: true,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if err := tt.event.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
