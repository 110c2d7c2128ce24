package model

import (
	"time"
)

type TaskStatus string

const (
	StatusTodo TaskStatus = "todo"
	StatusDone TaskStatus = "done"
)

// TaskStatuses lists every accepted status in declaration order.
var TaskStatuses = []TaskStatus{StatusTodo, StatusDone}

func ParseTaskStatus(s string) (TaskStatus, bool) {
	switch TaskStatus(s) {
	case StatusTodo, StatusDone:
		return TaskStatus(s), true
	}
	return "", false
}

type TaskPriority int

const (
	PriorityLow TaskPriority = iota + 1
	PriorityStandard
	PriorityMedium
	PriorityHigh
	PriorityUrgent
)

var TaskPriorities = []TaskPriority{PriorityLow, PriorityStandard, PriorityMedium, PriorityHigh, PriorityUrgent}

func ParseTaskPriority(n int) (TaskPriority, bool) {
	p := TaskPriority(n)
	if p < PriorityLow || p > PriorityUrgent {
		return 0, false
	}
	return p, true
}

func (p TaskPriority) String() string {
	switch p {
	case PriorityLow:
		return "LOW"
	case PriorityStandard:
		return "STANDARD"
	case PriorityMedium:
		return "MEDIUM"
	case PriorityHigh:
		return "HIGH"
	case PriorityUrgent:
		return "URGENT"
	}
	return "UNKNOWN"
}

type Task struct {
	ID          uint         `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID      uint         `gorm:"column:user_id;not null;index" json:"user_id"`
	Title       string       `gorm:"column:title;type:varchar(255);not null" json:"title"`
	Description *string      `gorm:"column:description;type:text" json:"description"`
	Status      TaskStatus   `gorm:"column:status;type:varchar(16);not null;default:'todo';index:idx_tasks_status_priority,priority:1" json:"status"`
	Priority    TaskPriority `gorm:"column:priority;not null;default:1;index:idx_tasks_status_priority,priority:2" json:"priority"`
	CreatedAt   time.Time    `gorm:"column:created_at;index:idx_tasks_status_priority,priority:3" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"column:updated_at" json:"updated_at"`
	CompletedAt *time.Time   `gorm:"column:completed_at;index:idx_tasks_status_priority,priority:4" json:"completed_at"`
	ParentID    *uint        `gorm:"column:parent_id;index" json:"parent_id"`

	// Relations
	User     *User  `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE" json:"-"`
	Subtasks []Task `gorm:"foreignKey:ParentID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE" json:"-"`
}

func (Task) TableName() string {
	return "tasks"
}

func (t *Task) IsDone() bool {
	return t.Status == StatusDone
}

// HasOpenSubtasks reports whether any loaded subtask is still todo.
func (t *Task) HasOpenSubtasks() bool {
	for _, sub := range t.Subtasks {
		if sub.Status != StatusDone {
			return true
		}
	}
	return false
}

// TaskColumns are the columns a client may sort or filter on.
var TaskColumns = []string{
	"id", "user_id", "title", "description", "status", "priority",
	"created_at", "updated_at", "completed_at", "parent_id",
}

func IsTaskColumn(name string) bool {
	for _, c := range TaskColumns {
		if c == name {
			return true
		}
	}
	return false
}
