package models

import (
	"time"
)

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleEmployee Role = "EMPLOYEE"
)

// Roles lists every role the system knows about.
var Roles = []Role{RoleAdmin, RoleEmployee}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEmployee:
		return true
	}
	return false
}

type Status string

const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type User struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserSummary is the reduced projection of a user embedded in tasks and
// comments. Email is only populated for assignees.
type UserSummary struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type Task struct {
	ID           int          `json:"id"`
	Title        string       `json:"title"`
	Description  *string      `json:"description"`
	Status       Status       `json:"status"`
	Priority     Priority     `json:"priority"`
	AssignedToID *int         `json:"assignedToId"`
	CreatedByID  int          `json:"createdById"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
	AssignedTo   *UserSummary `json:"assignedTo"`
	CreatedBy    *UserSummary `json:"createdBy"`
	Comments     []Comment    `json:"comments"`
}

// TaskRef identifies a task row together with its current assignee.
type TaskRef struct {
	ID           int
	AssignedToID *int
}

type Comment struct {
	ID        int          `json:"id"`
	Content   string       `json:"content"`
	TaskID    int          `json:"taskId"`
	AuthorID  int          `json:"authorId"`
	CreatedAt time.Time    `json:"createdAt"`
	Author    *UserSummary `json:"author"`
}

// Scope is a row-level restriction on tasks. A nil AssignedToID means the
// caller is not restricted.
type Scope struct {
	AssignedToID *int
}

// Unrestricted reports whether the scope lets every task through.
func (s Scope) Unrestricted() bool {
	return s.AssignedToID == nil
}

// Includes reports whether a task with the given assignee falls inside s.
func (s Scope) Includes(assignedToID *int) bool {
	if s.AssignedToID == nil {
		return true
	}
	return assignedToID != nil && *assignedToID == *s.AssignedToID
}

// AssignedTo restricts a scope to tasks assigned to userID.
func AssignedTo(userID int) Scope {
	return Scope{AssignedToID: &userID}
}

type TaskFilter struct {
	Scope    Scope
	Status   Status
	Priority Priority
	Search   string
}

type NewTask struct {
	Title        string
	Description  *string
	Status       Status
	Priority     Priority
	AssignedToID *int
	CreatedByID  int
}

type NewComment struct {
	Content  string
	TaskID   int
	AuthorID int
}

type NewUser struct {
	Name         string
	Email        string
	PasswordHash string
	Role         Role
}
