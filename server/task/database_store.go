// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/go-a2a/a2a-agent"
)

// DatabaseTaskStore is a database implementation of TaskStore using GORM.
type DatabaseTaskStore struct {
	db          *gorm.DB
	tableName   string
	createTable bool
}

var _ TaskStore = (*DatabaseTaskStore)(nil)

// DatabaseTaskStoreConfig holds configuration for DatabaseTaskStore.
type DatabaseTaskStoreConfig struct {
	DB          *gorm.DB
	TableName   string // Optional, defaults to "tasks"
	CreateTable bool   // Whether to create the table if it doesn't exist
}

// NewDatabaseTaskStore creates a new DatabaseTaskStore.
func NewDatabaseTaskStore(config DatabaseTaskStoreConfig) (*DatabaseTaskStore, error) {
	if config.DB == nil {
		return nil, fmt.Errorf("database connection cannot be nil")
	}

	tableName := config.TableName
	if tableName == "" {
		tableName = DefaultTableName
	}

	return &DatabaseTaskStore{
		db:          config.DB,
		tableName:   tableName,
		createTable: config.CreateTable,
	}, nil
}

func (s *DatabaseTaskStore) table(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Table(s.tableName)
}

// Save persists a task to the database, replacing any existing row with the same ID.
func (s *DatabaseTaskStore) Save(ctx context.Context, task *a2a.Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}
	if err := task.Validate(); err != nil {
		return NewTaskValidationError(task.ID, err)
	}

	model, err := NewTaskModelFromTask(task)
	if err != nil {
		return NewTaskStoreError("save", task.ID, err)
	}

	upsert := clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}
	if err := s.table(ctx).Clauses(upsert).Create(model).Error; err != nil {
		return NewTaskStoreError("save", task.ID, err)
	}
	return nil
}

// Get retrieves a task by its ID from the database.
func (s *DatabaseTaskStore) Get(ctx context.Context, taskID string) (*a2a.Task, error) {
	if taskID == "" {
		return nil, fmt.Errorf("task ID cannot be empty")
	}

	model, err := s.load(s.table(ctx), taskID)
	if err != nil {
		return nil, err
	}

	task, err := model.ToTask()
	if err != nil {
		return nil, NewTaskStoreError("get", taskID, err)
	}
	return task, nil
}

func (s *DatabaseTaskStore) load(db *gorm.DB, taskID string) (*TaskModel, error) {
	var model TaskModel
	if err := db.Where("id = ?", taskID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, TaskNotFoundError{TaskID: taskID}
		}
		return nil, NewTaskStoreError("get", taskID, err)
	}
	return &model, nil
}

// UpdateStatus sets the status of a task within a transaction.
func (s *DatabaseTaskStore) UpdateStatus(ctx context.Context, taskID string, status a2a.TaskStatus) (*a2a.Task, error) {
	return s.update(ctx, "update_status", taskID, func(task *a2a.Task) error {
		if err := checkTransition(task, status); err != nil {
			return err
		}
		task.Status = status
		return nil
	})
}

// AppendHistory appends messages to the history of a task within a transaction.
func (s *DatabaseTaskStore) AppendHistory(ctx context.Context, taskID string, msgs ...*a2a.Message) (*a2a.Task, error) {
	return s.update(ctx, "append_history", taskID, func(task *a2a.Task) error {
		for _, msg := range msgs {
			if msg == nil {
				return NewTaskValidationError(taskID, fmt.Errorf("history message cannot be nil"))
			}
		}
		task.History = append(task.History, msgs...)
		return nil
	})
}

func (s *DatabaseTaskStore) update(ctx context.Context, op, taskID string, fn func(*a2a.Task) error) (*a2a.Task, error) {
	var updated *a2a.Task
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model, err := s.load(tx.Table(s.tableName), taskID)
		if err != nil {
			return err
		}
		task, err := model.ToTask()
		if err != nil {
			return NewTaskStoreError(op, taskID, err)
		}
		if err := fn(task); err != nil {
			return err
		}

		model.Status = TaskStatusJSON{task.Status}
		model.History = MessageSliceJSON{Messages: task.History}
		if err := tx.Table(s.tableName).Save(model).Error; err != nil {
			return NewTaskStoreError(op, taskID, err)
		}
		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a task from the database.
func (s *DatabaseTaskStore) Delete(ctx context.Context, taskID string) error {
	if taskID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}

	result := s.table(ctx).Where("id = ?", taskID).Delete(&TaskModel{})
	if result.Error != nil {
		return NewTaskStoreError("delete", taskID, result.Error)
	}
	if result.RowsAffected == 0 {
		return TaskNotFoundError{TaskID: taskID}
	}
	return nil
}

// List retrieves tasks in creation order with optional filtering.
func (s *DatabaseTaskStore) List(ctx context.Context, contextID string, limit, offset int) ([]*a2a.Task, error) {
	db := s.table(ctx)
	if contextID != "" {
		db = db.Where("context_id = ?", contextID)
	}
	if limit > 0 {
		db = db.Limit(limit)
	}
	if offset > 0 {
		db = db.Offset(offset)
	}

	var models []TaskModel
	if err := db.Order("created_at").Order("id").Find(&models).Error; err != nil {
		return nil, NewTaskStoreError("list", "", err)
	}
	return toTasks("list", models)
}

// ListByState retrieves tasks in the given state.
func (s *DatabaseTaskStore) ListByState(ctx context.Context, state a2a.TaskState) ([]*a2a.Task, error) {
	var models []TaskModel
	if err := s.table(ctx).Where("state = ?", string(state)).Order("created_at").Find(&models).Error; err != nil {
		return nil, NewTaskStoreError("list_by_state", "", err)
	}
	return toTasks("list_by_state", models)
}

func toTasks(op string, models []TaskModel) ([]*a2a.Task, error) {
	tasks := make([]*a2a.Task, len(models))
	for i := range models {
		task, err := models[i].ToTask()
		if err != nil {
			return nil, NewTaskStoreError(op, models[i].ID, err)
		}
		tasks[i] = task
	}
	return tasks, nil
}

// Count returns the total number of tasks in the database.
func (s *DatabaseTaskStore) Count(ctx context.Context, contextID string) (int64, error) {
	query := s.table(ctx)
	if contextID != "" {
		query = query.Where("context_id = ?", contextID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, NewTaskStoreError("count", "", err)
	}
	return count, nil
}

// Initialize creates the task table when CreateTable is set.
func (s *DatabaseTaskStore) Initialize(ctx context.Context) error {
	if !s.createTable {
		return nil
	}
	if err := s.table(ctx).AutoMigrate(&TaskModel{}); err != nil {
		return NewTaskStoreError("initialize", "", err)
	}
	return nil
}

// Close closes the underlying database connection pool.
func (s *DatabaseTaskStore) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return NewTaskStoreError("close", "", err)
	}
	return sqlDB.Close()
}

// Transaction executes fn with a store bound to a single database transaction.
func (s *DatabaseTaskStore) Transaction(ctx context.Context, fn func(TaskStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&DatabaseTaskStore{
			db:          tx,
			tableName:   s.tableName,
			createTable: s.createTable,
		})
	})
}
