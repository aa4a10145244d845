// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package sse implements the subset of Server-Sent Events used to stream A2A responses.
package sse

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-a2a/a2a-agent/internal/pool"
)

// ContentType is the media type of an SSE stream.
const ContentType = "text/event-stream"

// maxLineSize bounds a single SSE line, and therefore a single encoded event.
const maxLineSize = 4 << 20

// Event represents a Server-Sent Event.
type Event struct {
	Type  string
	Data  string
	ID    string
	Retry int
}

// Decoder decodes Server-Sent Events from an io.Reader.
type Decoder struct {
	scanner *bufio.Scanner
}

// NewDecoder creates a new SSE decoder.
func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLineSize)
	return &Decoder{scanner: scanner}
}

// Decode decodes the next event from the stream. It returns io.EOF when the stream ends
// without a pending event.
func (d *Decoder) Decode() (*Event, error) {
	event := &Event{}
	pending, seenData := false, false

	for d.scanner.Scan() {
		line := d.scanner.Text()

		// An empty line dispatches the event.
		if line == "" {
			if pending {
				return event, nil
			}
			continue
		}

		// Comments are used as keep-alives.
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "event":
			event.Type = value
		case "data":
			if seenData {
				event.Data += "\n"
			}
			event.Data += value
			seenData = true
		case "id":
			event.ID = value
		case "retry":
			if retry, err := strconv.Atoi(value); err == nil {
				event.Retry = retry
			}
		default:
			continue
		}
		pending = true
	}

	if err := d.scanner.Err(); err != nil {
		return nil, fmt.Errorf("sse: scan: %w", err)
	}
	if pending {
		return event, nil
	}
	return nil, io.EOF
}

// Events returns a sequence over the remaining events of the stream. The sequence ends at EOF;
// any other decode error is yielded once and ends the sequence.
func (d *Decoder) Events() iter.Seq2[*Event, error] {
	return func(yield func(*Event, error) bool) {
		for {
			event, err := d.Decode()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(event, err) || err != nil {
				return
			}
		}
	}
}

// Encoder writes Server-Sent Events to an http.ResponseWriter, flushing after each event.
type Encoder struct {
	w       io.Writer
	flusher http.Flusher
}

// NewEncoder creates an Encoder and writes the SSE response headers.
func NewEncoder(w http.ResponseWriter) *Encoder {
	h := w.Header()
	h.Set("Content-Type", ContentType)
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	return &Encoder{w: w, flusher: flusher}
}

// Encode writes one event.
func (e *Encoder) Encode(event *Event) error {
	b := pool.Bytes.Get()
	defer pool.PutBuffer(b)

	if event.ID != "" {
		fmt.Fprintf(b, "id: %s\n", event.ID)
	}
	if event.Type != "" {
		fmt.Fprintf(b, "event: %s\n", event.Type)
	}
	if event.Retry > 0 {
		fmt.Fprintf(b, "retry: %d\n", event.Retry)
	}
	for line := range strings.SplitSeq(event.Data, "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	if _, err := b.WriteTo(e.w); err != nil {
		return fmt.Errorf("sse: write event: %w", err)
	}
	if e.flusher != nil {
		e.flusher.Flush()
	}
	return nil
}
