// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/go-a2a/a2a-agent"
)

// InMemoryTaskStore is an in-memory implementation of TaskStore.
// Task data is lost when the server process stops.
type InMemoryTaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*a2a.Task
	order []string
}

var _ TaskStore = (*InMemoryTaskStore)(nil)

// NewInMemoryTaskStore creates a new InMemoryTaskStore.
func NewInMemoryTaskStore() *InMemoryTaskStore {
	return &InMemoryTaskStore{
		tasks: make(map[string]*a2a.Task),
	}
}

// Save persists a task to the in-memory storage.
func (s *InMemoryTaskStore) Save(ctx context.Context, task *a2a.Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}
	if err := task.Validate(); err != nil {
		return NewTaskValidationError(task.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID]; !exists {
		s.order = append(s.order, task.ID)
	}
	s.tasks[task.ID] = task.Clone()
	return nil
}

// Get retrieves a task by its ID from the in-memory storage.
func (s *InMemoryTaskStore) Get(ctx context.Context, taskID string) (*a2a.Task, error) {
	if taskID == "" {
		return nil, fmt.Errorf("task ID cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	task, exists := s.tasks[taskID]
	if !exists {
		return nil, TaskNotFoundError{TaskID: taskID}
	}
	return task.Clone(), nil
}

// UpdateStatus sets the status of a task.
func (s *InMemoryTaskStore) UpdateStatus(ctx context.Context, taskID string, status a2a.TaskStatus) (*a2a.Task, error) {
	return s.update(taskID, func(task *a2a.Task) error {
		if err := checkTransition(task, status); err != nil {
			return err
		}
		task.Status = status
		return nil
	})
}

// AppendHistory appends messages to the history of a task.
func (s *InMemoryTaskStore) AppendHistory(ctx context.Context, taskID string, msgs ...*a2a.Message) (*a2a.Task, error) {
	return s.update(taskID, func(task *a2a.Task) error {
		for _, msg := range msgs {
			if msg == nil {
				return NewTaskValidationError(taskID, fmt.Errorf("history message cannot be nil"))
			}
		}
		task.History = append(task.History, msgs...)
		return nil
	})
}

func (s *InMemoryTaskStore) update(taskID string, fn func(*a2a.Task) error) (*a2a.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.tasks[taskID]
	if !exists {
		return nil, TaskNotFoundError{TaskID: taskID}
	}

	task := stored.Clone()
	if err := fn(task); err != nil {
		return nil, err
	}
	s.tasks[taskID] = task
	return task.Clone(), nil
}

// Delete removes a task from the in-memory storage.
func (s *InMemoryTaskStore) Delete(ctx context.Context, taskID string) error {
	if taskID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[taskID]; !exists {
		return TaskNotFoundError{TaskID: taskID}
	}
	delete(s.tasks, taskID)
	s.order = slices.DeleteFunc(s.order, func(id string) bool { return id == taskID })
	return nil
}

// List retrieves tasks in creation order with optional filtering.
func (s *InMemoryTaskStore) List(ctx context.Context, contextID string, limit, offset int) ([]*a2a.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tasks []*a2a.Task
	skipped := 0
	for _, id := range s.order {
		task := s.tasks[id]
		if contextID != "" && task.ContextID != contextID {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if limit > 0 && len(tasks) >= limit {
			break
		}
		tasks = append(tasks, task.Clone())
	}
	return tasks, nil
}

// Count returns the total number of tasks in the in-memory storage.
func (s *InMemoryTaskStore) Count(ctx context.Context, contextID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if contextID == "" {
		return int64(len(s.tasks)), nil
	}

	var count int64
	for _, task := range s.tasks {
		if task.ContextID == contextID {
			count++
		}
	}
	return count, nil
}

// Initialize prepares the in-memory storage for use.
func (s *InMemoryTaskStore) Initialize(ctx context.Context) error {
	return nil
}

// Close clears the in-memory storage.
func (s *InMemoryTaskStore) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = make(map[string]*a2a.Task)
	s.order = nil
	return nil
}

// Size returns the current number of tasks in the in-memory storage.
func (s *InMemoryTaskStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.tasks)
}
