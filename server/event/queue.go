// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
)

// EventQueue is a FIFO of events handed from one agent execution to its consumer.
//
// A queue created with a max size of zero is unbounded and Enqueue never blocks. Events enqueued
// before Close are still delivered after it; Dequeue reports ErrQueueClosed only once the queue is
// closed and drained.
type EventQueue struct {
	mu      sync.Mutex
	events  []Event
	maxSize int
	closed  bool

	notify     chan struct{} // an event was enqueued
	space      chan struct{} // an event was dequeued
	closeOnce  sync.Once
	doneSignal chan struct{}
}

// NewEventQueue creates a new event queue holding at most maxSize pending events.
// A maxSize of 0 means unbounded.
func NewEventQueue(maxSize int) (*EventQueue, error) {
	if maxSize < 0 {
		return nil, ErrInvalidQueueSize
	}
	return &EventQueue{
		maxSize:    maxSize,
		notify:     make(chan struct{}, 1),
		space:      make(chan struct{}, 1),
		doneSignal: make(chan struct{}),
	}, nil
}

// NewUnboundedEventQueue creates a new event queue without a size limit.
func NewUnboundedEventQueue() *EventQueue {
	q, _ := NewEventQueue(0)
	return q
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// Enqueue appends ev to the queue. On a bounded queue it waits for room or ctx.
// Returns ErrQueueClosed if the queue is closed.
func (q *EventQueue) Enqueue(ctx context.Context, ev Event) error {
	if ev == nil {
		return fmt.Errorf("cannot enqueue nil event")
	}

	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return ErrQueueClosed
		}
		if q.maxSize == 0 || len(q.events) < q.maxSize {
			q.events = append(q.events, ev)
			hasRoom := q.maxSize == 0 || len(q.events) < q.maxSize
			q.mu.Unlock()
			signal(q.notify)
			if hasRoom && q.maxSize > 0 {
				signal(q.space)
			}
			return nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.doneSignal:
		case <-q.space:
		}
	}
}

// Dequeue removes and returns the oldest event, waiting until one is available, the queue is
// closed and drained (ErrQueueClosed) or ctx is done.
func (q *EventQueue) Dequeue(ctx context.Context) (Event, error) {
	for {
		q.mu.Lock()
		if len(q.events) > 0 {
			ev := q.events[0]
			q.events[0] = nil
			q.events = q.events[1:]
			more := len(q.events) > 0
			q.mu.Unlock()

			if more {
				signal(q.notify)
			}
			signal(q.space)
			return ev, nil
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return nil, ErrQueueClosed
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.notify:
		case <-q.doneSignal:
		}
	}
}

// Events returns a sequence draining the queue until it is closed. A context error is yielded
// once and ends the sequence.
func (q *EventQueue) Events(ctx context.Context) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		for {
			ev, err := q.Dequeue(ctx)
			if errors.Is(err, ErrQueueClosed) {
				return
			}
			if !yield(ev, err) || err != nil {
				return
			}
		}
	}
}

// Close closes the queue. Pending events remain available to Dequeue. Close is idempotent.
func (q *EventQueue) Close() error {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		q.mu.Unlock()
		close(q.doneSignal)
	})
	return nil
}

// Done returns a channel that is closed when the queue is closed.
func (q *EventQueue) Done() <-chan struct{} {
	return q.doneSignal
}

// IsClosed reports whether the queue is closed.
func (q *EventQueue) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Len returns the number of pending events.
func (q *EventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Capacity returns the maximum number of pending events, or 0 when unbounded.
func (q *EventQueue) Capacity() int {
	return q.maxSize
}
