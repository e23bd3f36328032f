package models

// TaskStatus is a column on the task board.
type TaskStatus string

// Task statuses in board order.
const (
	StatusOpen       TaskStatus = "open"
	StatusInProgress TaskStatus = "in-progress"
	StatusReview     TaskStatus = "review"
	StatusDone       TaskStatus = "done"
)

// Statuses lists every task status in board order.
var Statuses = []TaskStatus{StatusOpen, StatusInProgress, StatusReview, StatusDone}

// Priority is a task priority.
type Priority string

// Task priorities.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists every accepted priority.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Task is a record on the task board.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Status      TaskStatus `json:"status"`
	Priority    Priority   `json:"priority"`
	SpecFile    *string    `json:"specFile"`
	Created     string     `json:"created"`
	Completed   *string    `json:"completed"`
	Description string     `json:"description,omitempty"`
}

// TaskFile is the on-disk shape of projects/<name>/tasks.json.
type TaskFile struct {
	Project string `json:"project,omitempty"`
	Tasks   []Task `json:"tasks"`
}

// Project is an entry of projects/_index.md.
type Project struct {
	Name        string             `json:"name"`
	Status      string             `json:"status"`
	Description string             `json:"description"`
	TaskCounts  map[TaskStatus]int `json:"taskCounts"`
}

// TaskInput is the body of a task creation request.
type TaskInput struct {
	Title       string   `json:"title"`
	Priority    Priority `json:"priority,omitempty"`
	Description string   `json:"description,omitempty"`
}

// TaskPatch is a partial task update. Nil fields are left unchanged.
type TaskPatch struct {
	Title       *string     `json:"title,omitempty"`
	Status      *TaskStatus `json:"status,omitempty"`
	Priority    *Priority   `json:"priority,omitempty"`
	SpecFile    *string     `json:"specFile,omitempty"`
	Description *string     `json:"description,omitempty"`
}
