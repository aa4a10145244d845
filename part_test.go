// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a_test

import (
	"testing"

	"github.com/go-json-experiment/json"
	gocmp "github.com/google/go-cmp/cmp"

	"github.com/go-a2a/a2a-agent"
)

func TestPart_Validate(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		part    a2a.Part
		wantErr bool
	}{
		"text":         {part: &a2a.TextPart{Text: "x"}},
		"empty text":   {part: &a2a.TextPart{}, wantErr: true},
		"file uri":     {part: &a2a.FilePart{File: a2a.File{URI: "https://example.com/a.png"}}},
		"file bytes":   {part: &a2a.FilePart{File: a2a.File{Bytes: []byte("hi")}}},
		"file both":    {part: &a2a.FilePart{File: a2a.File{URI: "u", Bytes: []byte("hi")}}, wantErr: true},
		"file neither": {part: &a2a.FilePart{File: a2a.File{Name: "a"}}, wantErr: true},
		"data":         {part: &a2a.DataPart{Data: map[string]any{}}},
		"data nil map": {part: &a2a.DataPart{}, wantErr: true},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if err := tt.part.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParts_JSON(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		parts a2a.Parts
		want  string
	}{
		"text": {
			parts: a2a.Parts{&a2a.TextPart{Text: "hello"}},
			want:  `[{"kind":"text","text":"hello"}]`,
		},
		"file": {
			parts: a2a.Parts{&a2a.FilePart{File: a2a.File{Name: "a.txt", MIMEType: "text/plain", Bytes: []byte("hi")}}},
			want:  `[{"kind":"file","file":{"name":"a.txt","mimeType":"text/plain","bytes":"aGk="}}]`,
		},
		"data": {
			parts: a2a.Parts{&a2a.DataPart{Data: map[string]any{"k": "v"}}},
			want:  `[{"kind":"data","data":{"k":"v"}}]`,
		},
		"text with metadata": {
			parts: a2a.Parts{&a2a.TextPart{Text: "x", Metadata: map[string]any{"lang": "fr"}}},
			want:  `[{"kind":"text","text":"x","metadata":{"lang":"fr"}}]`,
		},
		"empty": {
			parts: a2a.Parts{},
			want:  `[]`,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			data, err := json.Marshal(tt.parts)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if got := string(data); got != tt.want {
				t.Errorf("Marshal() = %s, want %s", got, tt.want)
			}

			var got a2a.Parts
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if diff := gocmp.Diff(tt.parts, got); diff != "" {
				t.Errorf("Unmarshal() (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParts_UnmarshalErrors(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"unknown kind":      `[{"kind":"video"}]`,
		"file without file": `[{"kind":"file"}]`,
		"not an array":      `{"kind":"text","text":"x"}`,
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var got a2a.Parts
			if err := json.Unmarshal([]byte(input), &got); err == nil {
				t.Errorf("Unmarshal(%s) error = nil, want error", input)
			}
		})
	}
}

func TestParts_MarshalNil(t *testing.T) {
	t.Parallel()

	if _, err := json.Marshal(a2a.Parts{nil}); err == nil {
		t.Error("Marshal() error = nil, want error for a nil part")
	}
}

func TestParts_Texts(t *testing.T) {
	t.Parallel()

	parts := a2a.Parts{
		&a2a.TextPart{Text: "a"},
		&a2a.DataPart{Data: map[string]any{}},
		&a2a.TextPart{Text: "b"},
	}
	if diff := gocmp.Diff([]string{"a", "b"}, parts.Texts()); diff != "" {
		t.Errorf("Texts() (-want +got):\n%s", diff)
	}
}
