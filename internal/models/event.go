package models

type EventType string

const (
	EventTaskCreated    EventType = "task.created"
	EventTaskUpdated    EventType = "task.updated"
	EventTaskDeleted    EventType = "task.deleted"
	EventCommentCreated EventType = "comment.created"
	EventCommentUpdated EventType = "comment.updated"
	EventCommentDeleted EventType = "comment.deleted"
)

// Event announces a committed change to a task or one of its comments.
// The assignee fields decide who may be told about it and are never sent.
type Event struct {
	Type             EventType `json:"type"`
	TaskID           int       `json:"taskId"`
	CommentID        int       `json:"commentId,omitempty"`
	AssignedToID     *int      `json:"-"`
	PreviousAssignee *int      `json:"-"`
}
