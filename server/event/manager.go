// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"sync"
)

// QueueManager tracks the event queue of each running task.
type QueueManager interface {
	// Add registers queue for taskID. Returns TaskQueueExistsError if one is already registered.
	Add(taskID string, queue *EventQueue) error

	// Get returns the queue registered for taskID.
	Get(taskID string) (*EventQueue, bool)

	// Close closes and removes the queue registered for taskID. Unknown ids are ignored.
	Close(taskID string) error

	// CloseAll closes and removes every queue.
	CloseAll() error
}

// InMemoryQueueManager provides in-memory event queue management.
type InMemoryQueueManager struct {
	mu     sync.RWMutex
	queues map[string]*EventQueue
}

var _ QueueManager = (*InMemoryQueueManager)(nil)

// NewInMemoryQueueManager creates a new in-memory queue manager.
func NewInMemoryQueueManager() *InMemoryQueueManager {
	return &InMemoryQueueManager{
		queues: make(map[string]*EventQueue),
	}
}

// Add implements [QueueManager].
func (m *InMemoryQueueManager) Add(taskID string, queue *EventQueue) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.queues[taskID]; exists {
		return &TaskQueueExistsError{TaskID: taskID}
	}
	m.queues[taskID] = queue
	return nil
}

// Get implements [QueueManager].
func (m *InMemoryQueueManager) Get(taskID string) (*EventQueue, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	queue, ok := m.queues[taskID]
	return queue, ok
}

// Close implements [QueueManager].
func (m *InMemoryQueueManager) Close(taskID string) error {
	m.mu.Lock()
	queue, exists := m.queues[taskID]
	delete(m.queues, taskID)
	m.mu.Unlock()

	if !exists {
		return nil
	}
	return queue.Close()
}

// CloseAll implements [QueueManager].
func (m *InMemoryQueueManager) CloseAll() error {
	m.mu.Lock()
	queues := m.queues
	m.queues = make(map[string]*EventQueue)
	m.mu.Unlock()

	var firstErr error
	for _, queue := range queues {
		if err := queue.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Size returns the number of managed queues.
func (m *InMemoryQueueManager) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.queues)
}
