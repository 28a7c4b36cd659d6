// Package policy decides which tasks a caller may read or mutate.
//
// Evaluate is a pure function: it never touches the store. Callers apply
// the returned Scope to their queries, so a row outside the scope is
// indistinguishable from a row that does not exist.
package policy

import (
	"taskflow/internal/models"
)

// Caller is the authenticated identity attached to a request.
type Caller struct {
	ID   int
	Role models.Role
}

func (c Caller) IsAdmin() bool {
	return c.Role == models.RoleAdmin
}

type Operation int

const (
	ListTasks Operation = iota
	ReadTask
	CreateTask
	UpdateTask
	UpdateStatus
	UpdatePriority
	DeleteTask
	ReadComments
	CreateComment
	UpdateComment
	DeleteComment
	ListUsers
	RegisterUser
)

var operationNames = map[Operation]string{
	ListTasks:      "list_tasks",
	ReadTask:       "read_task",
	CreateTask:     "create_task",
	UpdateTask:     "update_task",
	UpdateStatus:   "update_status",
	UpdatePriority: "update_priority",
	DeleteTask:     "delete_task",
	ReadComments:   "read_comments",
	CreateComment:  "create_comment",
	UpdateComment:  "update_comment",
	DeleteComment:  "delete_comment",
	ListUsers:      "list_users",
	RegisterUser:   "register_user",
}

func (o Operation) String() string {
	if n, ok := operationNames[o]; ok {
		return n
	}
	return "unknown"
}

// Decision is the outcome of evaluating an operation for a caller. Fields is
// only meaningful for task mutations.
type Decision struct {
	Allowed bool
	Scope   models.Scope
	Fields  models.FieldSet
}

var denied = Decision{}

func allow(scope models.Scope, fields models.FieldSet) Decision {
	return Decision{Allowed: true, Scope: scope, Fields: fields}
}

// Evaluate maps a caller and an operation to a decision.
func Evaluate(c Caller, op Operation) Decision {
	switch c.Role {
	case models.RoleAdmin:
		return evaluateAdmin(c, op)
	case models.RoleEmployee:
		return evaluateEmployee(c, op)
	default:
		return denied
	}
}

func evaluateAdmin(c Caller, op Operation) Decision {
	switch op {
	case ListTasks, ReadTask, ReadComments, CreateComment:
		return allow(models.Scope{}, 0)
	case CreateTask, UpdateTask:
		return allow(models.Scope{}, models.AllTaskFields)
	case UpdateStatus:
		// the status endpoint is scoped by assignment for every role
		return allow(models.AssignedTo(c.ID), models.FieldStatus)
	case UpdatePriority:
		return allow(models.Scope{}, models.FieldPriority)
	case DeleteTask, UpdateComment, DeleteComment, ListUsers, RegisterUser:
		return allow(models.Scope{}, 0)
	default:
		return denied
	}
}

func evaluateEmployee(c Caller, op Operation) Decision {
	own := models.AssignedTo(c.ID)
	switch op {
	case ListTasks, ReadTask, ReadComments, CreateComment:
		return allow(own, 0)
	case UpdateTask, UpdateStatus:
		return allow(own, models.FieldStatus)
	case CreateTask, UpdatePriority, DeleteTask, UpdateComment, DeleteComment, ListUsers, RegisterUser:
		return denied
	default:
		return denied
	}
}

// CanSee reports whether c may read a task with the given assignee.
func CanSee(c Caller, assignedToID *int) bool {
	d := Evaluate(c, ReadTask)
	return d.Allowed && d.Scope.Includes(assignedToID)
}
