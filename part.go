// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"fmt"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// PartKind discriminates the Part variants on the wire.
type PartKind string

// Known part kinds.
const (
	PartKindText PartKind = "text"
	PartKindFile PartKind = "file"
	PartKindData PartKind = "data"
)

// Part is a typed fragment of message content.
type Part interface {
	// Kind returns the wire discriminator of the part.
	Kind() PartKind

	// Validate ensures the part is well formed.
	Validate() error
}

// TextPart is a plain text fragment.
type TextPart struct {
	Text     string
	Metadata map[string]any
}

var _ Part = (*TextPart)(nil)

// Kind implements [Part].
func (*TextPart) Kind() PartKind { return PartKindText }

// Validate implements [Part].
func (p *TextPart) Validate() error {
	if p.Text == "" {
		return fmt.Errorf("text part text cannot be empty")
	}
	return nil
}

// File is the payload of a FilePart, referenced either by URI or carried inline as bytes.
type File struct {
	Name     string `json:"name,omitzero"`
	MIMEType string `json:"mimeType,omitzero"`
	Bytes    []byte `json:"bytes,omitzero,format:base64"`
	URI      string `json:"uri,omitzero"`
}

// FilePart is a file fragment.
type FilePart struct {
	File     File
	Metadata map[string]any
}

var _ Part = (*FilePart)(nil)

// Kind implements [Part].
func (*FilePart) Kind() PartKind { return PartKindFile }

// Validate implements [Part].
func (p *FilePart) Validate() error {
	hasBytes := len(p.File.Bytes) > 0
	hasURI := p.File.URI != ""
	switch {
	case hasBytes && hasURI:
		return fmt.Errorf("file part cannot carry both bytes and uri")
	case !hasBytes && !hasURI:
		return fmt.Errorf("file part must carry bytes or uri")
	}
	return nil
}

// DataPart is a structured data fragment.
type DataPart struct {
	Data     map[string]any
	Metadata map[string]any
}

var _ Part = (*DataPart)(nil)

// Kind implements [Part].
func (*DataPart) Kind() PartKind { return PartKindData }

// Validate implements [Part].
func (p *DataPart) Validate() error {
	if p.Data == nil {
		return fmt.Errorf("data part data cannot be nil")
	}
	return nil
}

// partJSON is the flattened wire form shared by every Part variant.
type partJSON struct {
	Kind     PartKind       `json:"kind"`
	Text     string         `json:"text,omitzero"`
	File     *File          `json:"file,omitzero"`
	Data     map[string]any `json:"data,omitzero"`
	Metadata map[string]any `json:"metadata,omitzero"`
}

func toPartJSON(p Part) (partJSON, error) {
	switch p := p.(type) {
	case *TextPart:
		return partJSON{Kind: PartKindText, Text: p.Text, Metadata: p.Metadata}, nil
	case *FilePart:
		file := p.File
		return partJSON{Kind: PartKindFile, File: &file, Metadata: p.Metadata}, nil
	case *DataPart:
		return partJSON{Kind: PartKindData, Data: p.Data, Metadata: p.Metadata}, nil
	case nil:
		return partJSON{}, fmt.Errorf("cannot marshal nil part")
	default:
		return partJSON{}, fmt.Errorf("unsupported part type %T", p)
	}
}

func (w partJSON) part() (Part, error) {
	switch w.Kind {
	case PartKindText:
		return &TextPart{Text: w.Text, Metadata: w.Metadata}, nil
	case PartKindFile:
		if w.File == nil {
			return nil, fmt.Errorf("file part is missing its file")
		}
		return &FilePart{File: *w.File, Metadata: w.Metadata}, nil
	case PartKindData:
		return &DataPart{Data: w.Data, Metadata: w.Metadata}, nil
	default:
		return nil, fmt.Errorf("unknown part kind: %q", w.Kind)
	}
}

// Parts is an ordered list of message parts, encoded as a JSON array of kind-tagged objects.
type Parts []Part

// MarshalJSON implements [json.Marshaler].
func (ps Parts) MarshalJSON() ([]byte, error) {
	wire := make([]partJSON, len(ps))
	for i, p := range ps {
		w, err := toPartJSON(p)
		if err != nil {
			return nil, fmt.Errorf("part %d: %w", i, err)
		}
		wire[i] = w
	}
	return json.Marshal(wire)
}

// UnmarshalJSON implements [json.Unmarshaler].
func (ps *Parts) UnmarshalJSON(data []byte) error {
	var wire []partJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("failed to unmarshal parts: %w", err)
	}
	out := make(Parts, len(wire))
	for i, w := range wire {
		p, err := w.part()
		if err != nil {
			return fmt.Errorf("part %d: %w", i, err)
		}
		out[i] = p
	}
	*ps = out
	return nil
}

// Validate ensures every part is present and well formed.
func (ps Parts) Validate() error {
	for i, p := range ps {
		if p == nil {
			return fmt.Errorf("part at index %d cannot be nil", i)
		}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("part at index %d is invalid: %w", i, err)
		}
	}
	return nil
}

// Texts returns the text of every TextPart, in order.
func (ps Parts) Texts() []string {
	var texts []string
	for _, p := range ps {
		if tp, ok := p.(*TextPart); ok && tp.Text != "" {
			texts = append(texts, tp.Text)
		}
	}
	return texts
}

// rawKind decodes just the "kind" discriminator of a JSON object.
func rawKind(data jsontext.Value) (string, error) {
	var probe struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &probe, json.RejectUnknownMembers(false)); err != nil {
		return "", err
	}
	return probe.Kind, nil
}
