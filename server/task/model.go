// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/go-json-experiment/json"
	"gorm.io/gorm"

	"github.com/go-a2a/a2a-agent"
)

// DefaultTableName is the table DatabaseTaskStore uses unless configured otherwise.
const DefaultTableName = "tasks"

func scanJSON(value any, v any, name string) error {
	var data []byte
	switch value := value.(type) {
	case []byte:
		data = value
	case string:
		data = []byte(value)
	default:
		return fmt.Errorf("cannot scan %T into %s", value, name)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("cannot unmarshal %s: %w", name, err)
	}
	return nil
}

// TaskStatusJSON stores an a2a.TaskStatus in a JSON column.
type TaskStatusJSON struct {
	a2a.TaskStatus
}

// Value implements the driver.Valuer interface for database storage.
func (ts TaskStatusJSON) Value() (driver.Value, error) {
	data, err := json.Marshal(ts.TaskStatus)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements the sql.Scanner interface for database retrieval.
func (ts *TaskStatusJSON) Scan(value any) error {
	if value == nil {
		*ts = TaskStatusJSON{}
		return nil
	}
	return scanJSON(value, &ts.TaskStatus, "TaskStatusJSON")
}

// MessageSliceJSON stores a message history in a JSON column.
type MessageSliceJSON struct {
	Messages []*a2a.Message
}

// Value implements the driver.Valuer interface for database storage.
func (ms MessageSliceJSON) Value() (driver.Value, error) {
	if ms.Messages == nil {
		return "[]", nil
	}
	data, err := json.Marshal(ms.Messages)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements the sql.Scanner interface for database retrieval.
func (ms *MessageSliceJSON) Scan(value any) error {
	if value == nil {
		*ms = MessageSliceJSON{}
		return nil
	}
	return scanJSON(value, &ms.Messages, "MessageSliceJSON")
}

// MetadataJSON stores free-form metadata in a JSON column.
type MetadataJSON map[string]any

// Value implements the driver.Valuer interface for database storage.
func (m MetadataJSON) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	data, err := json.Marshal(map[string]any(m))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements the sql.Scanner interface for database retrieval.
func (m *MetadataJSON) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	return scanJSON(value, (*map[string]any)(m), "MetadataJSON")
}

// TaskModel is the database row of a task.
//
// State duplicates Status.State so tasks can be filtered by state without JSON functions.
type TaskModel struct {
	ID        string           `gorm:"primaryKey;size:64"`
	ContextID string           `gorm:"size:64;index;not null"`
	Kind      string           `gorm:"size:16;default:task;not null"`
	State     string           `gorm:"size:16;index;not null"`
	Status    TaskStatusJSON   `gorm:"type:json"`
	History   MessageSliceJSON `gorm:"type:json"`
	Metadata  MetadataJSON     `gorm:"type:json"`
	CreatedAt time.Time        `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time        `gorm:"autoUpdateTime"`
}

// TableName returns the default table name for the TaskModel.
func (TaskModel) TableName() string {
	return DefaultTableName
}

// Validate ensures the TaskModel is in a valid state.
func (tm *TaskModel) Validate() error {
	if tm.ID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}
	if tm.ContextID == "" {
		return fmt.Errorf("task context ID cannot be empty")
	}
	if err := tm.Status.TaskStatus.Validate(); err != nil {
		return fmt.Errorf("task status is invalid: %w", err)
	}
	return nil
}

// String returns a string representation of the TaskModel for debugging.
func (tm *TaskModel) String() string {
	return fmt.Sprintf("TaskModel{ID: %s, ContextID: %s, State: %s}", tm.ID, tm.ContextID, tm.State)
}

// BeforeSave is a GORM hook called before creating or updating a record.
func (tm *TaskModel) BeforeSave(tx *gorm.DB) error {
	tm.State = string(tm.Status.State)
	return tm.Validate()
}

// NewTaskModelFromTask creates a TaskModel from an A2A Task.
func NewTaskModelFromTask(task *a2a.Task) (*TaskModel, error) {
	if task == nil {
		return nil, fmt.Errorf("task cannot be nil")
	}
	if err := task.Validate(); err != nil {
		return nil, fmt.Errorf("task is invalid: %w", err)
	}

	return &TaskModel{
		ID:        task.ID,
		ContextID: task.ContextID,
		Kind:      a2a.KindTask,
		State:     string(task.Status.State),
		Status:    TaskStatusJSON{task.Status},
		History:   MessageSliceJSON{Messages: task.History},
		Metadata:  MetadataJSON(task.Metadata),
	}, nil
}

// ToTask converts a TaskModel to an A2A Task.
func (tm *TaskModel) ToTask() (*a2a.Task, error) {
	if err := tm.Validate(); err != nil {
		return nil, fmt.Errorf("task model is invalid: %w", err)
	}

	return &a2a.Task{
		ID:        tm.ID,
		ContextID: tm.ContextID,
		Status:    tm.Status.TaskStatus,
		History:   tm.History.Messages,
		Metadata:  map[string]any(tm.Metadata),
		Kind:      a2a.KindTask,
	}, nil
}
