package model

import "time"

// Priority is the urgency of a todo.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// TodoType distinguishes fixed-date events from movable tasks. Tasks are
// eligible for the overdue auto-move; events are not.
type TodoType string

const (
	TodoTypeEvent TodoType = "event"
	TodoTypeTask  TodoType = "task"
)

// Todo is one calendar/todo item owned by a user.
type Todo struct {
	Meta
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Completed   bool      `json:"completed"`
	Priority    Priority  `json:"priority"`
	CategoryID  string    `json:"categoryId"`
	TodoType    TodoType  `json:"todoType"`
	DueDate     time.Time `json:"dueDate"`
	UserID      string    `json:"userId"`
}

// OwnerID returns the owning user's id.
func (t *Todo) OwnerID() string { return t.UserID }

// ApplyDefaults fills unset enum fields with their defaults.
func (t *Todo) ApplyDefaults() {
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.TodoType == "" {
		t.TodoType = TodoTypeEvent
	}
}

// IsOverdueTask reports whether the todo is a movable task that is
// incomplete and due strictly before the given day.
func (t *Todo) IsOverdueTask(day time.Time) bool {
	return t.TodoType == TodoTypeTask && !t.Completed && t.DueDate.Before(day)
}
