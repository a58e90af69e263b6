package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

// TaskPriority orders tasks for triage.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

// Task is a unit of work within a project, optionally assigned to a user.
type Task struct {
	ID           uuid.UUID    `gorm:"type:char(36);primaryKey"`
	Title        string       `gorm:"type:varchar(200);not null"`
	Description  string       `gorm:"type:varchar(1000)"`
	ProjectID    uuid.UUID    `gorm:"type:char(36);not null;index"`
	AssignedToID *uuid.UUID   `gorm:"type:char(36);index"`
	Status       TaskStatus   `gorm:"type:varchar(20);not null;default:todo;index"`
	Priority     TaskPriority `gorm:"type:varchar(20);not null;default:medium"`
	DueDate      *time.Time   `gorm:"index"`
	CreatedAt    time.Time    `gorm:"autoCreateTime"`
	UpdatedAt    time.Time    `gorm:"autoUpdateTime"`

	Project    *Project `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProjectID;references:ID"`
	AssignedTo *User    `gorm:"constraint:OnDelete:SET NULL;foreignKey:AssignedToID;references:ID"`
}
