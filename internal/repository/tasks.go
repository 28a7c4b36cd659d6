package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"taskflow/internal/models"
)

const taskSelect = `
SELECT t.id, t.title, t.description, t.status, t.priority, t.assigned_to_id, t.created_by_id,
       t.created_at, t.updated_at,
       a.id, a.name, a.email,
       c.id, c.name
FROM tasks t
LEFT JOIN users a ON a.id = t.assigned_to_id
JOIN users c ON c.id = t.created_by_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (models.Task, error) {
	var (
		task         models.Task
		description  sql.NullString
		assignedTo   sql.NullInt64
		assigneeID   sql.NullInt64
		assignee     sql.NullString
		assigneeMail sql.NullString
		creator      models.UserSummary
	)
	err := row.Scan(
		&task.ID, &task.Title, &description, &task.Status, &task.Priority, &assignedTo, &task.CreatedByID,
		&task.CreatedAt, &task.UpdatedAt,
		&assigneeID, &assignee, &assigneeMail,
		&creator.ID, &creator.Name,
	)
	if err != nil {
		return task, err
	}
	if description.Valid {
		task.Description = &description.String
	}
	if assignedTo.Valid {
		id := int(assignedTo.Int64)
		task.AssignedToID = &id
	}
	if assigneeID.Valid {
		task.AssignedTo = &models.UserSummary{
			ID:    int(assigneeID.Int64),
			Name:  assignee.String,
			Email: assigneeMail.String,
		}
	}
	task.CreatedBy = &creator
	task.Comments = []models.Comment{}
	return task, nil
}

// likePattern builds a case-insensitive substring pattern, escaping the
// LIKE metacharacters in term.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}

func (q queries) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Scope.AssignedToID != nil {
		where = append(where, "t.assigned_to_id = "+arg(*filter.Scope.AssignedToID))
	}
	if filter.Status != "" {
		where = append(where, "t.status = "+arg(string(filter.Status)))
	}
	if filter.Priority != "" {
		where = append(where, "t.priority = "+arg(string(filter.Priority)))
	}
	if filter.Search != "" {
		p := arg(likePattern(filter.Search))
		where = append(where, fmt.Sprintf("(t.title ILIKE %s OR COALESCE(t.description, '') ILIKE %s)", p, p))
	}

	query := taskSelect
	if len(where) > 0 {
		query += "\nWHERE " + strings.Join(where, " AND ")
	}
	query += "\nORDER BY t.created_at DESC, t.id DESC"

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}

	if err := q.attachComments(ctx, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (q queries) FindTask(ctx context.Context, id int, scope models.Scope) (*models.Task, error) {
	query := taskSelect + "\nWHERE t.id = $1"
	args := []any{id}
	if scope.AssignedToID != nil {
		query += " AND t.assigned_to_id = $2"
		args = append(args, *scope.AssignedToID)
	}

	task, err := scanTask(q.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapError(err)
	}
	tasks := []models.Task{task}
	if err := q.attachComments(ctx, tasks); err != nil {
		return nil, err
	}
	return &tasks[0], nil
}

// attachComments loads the comments of every task in one round trip.
func (q queries) attachComments(ctx context.Context, tasks []models.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	ids := make([]int64, len(tasks))
	index := make(map[int]int, len(tasks))
	for i, t := range tasks {
		ids[i] = int64(t.ID)
		index[t.ID] = i
	}

	rows, err := q.db.QueryContext(ctx, commentSelect+`
WHERE cm.task_id = ANY($1)
ORDER BY cm.created_at DESC, cm.id DESC`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return fmt.Errorf("scan comment: %w", err)
		}
		i := index[c.TaskID]
		tasks[i].Comments = append(tasks[i].Comments, c)
	}
	return rows.Err()
}

func (q queries) resolveTask(ctx context.Context, id int, scope models.Scope, lock bool) (models.TaskRef, error) {
	query := "SELECT id, assigned_to_id FROM tasks WHERE id = $1"
	args := []any{id}
	if scope.AssignedToID != nil {
		query += " AND assigned_to_id = $2"
		args = append(args, *scope.AssignedToID)
	}
	if lock {
		query += " FOR UPDATE"
	}

	var (
		ref      models.TaskRef
		assignee sql.NullInt64
	)
	if err := q.db.QueryRowContext(ctx, query, args...).Scan(&ref.ID, &assignee); err != nil {
		return ref, mapError(err)
	}
	if assignee.Valid {
		v := int(assignee.Int64)
		ref.AssignedToID = &v
	}
	return ref, nil
}

func (q queries) TaskVisible(ctx context.Context, id int, scope models.Scope) (models.TaskRef, error) {
	return q.resolveTask(ctx, id, scope, false)
}

func (q queries) LockTask(ctx context.Context, id int, scope models.Scope) (models.TaskRef, error) {
	return q.resolveTask(ctx, id, scope, true)
}

func (q queries) CreateTask(ctx context.Context, t models.NewTask) (int, error) {
	var id int
	err := q.db.QueryRowContext(ctx, `
INSERT INTO tasks (title, description, status, priority, assigned_to_id, created_by_id)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`,
		t.Title, t.Description, string(t.Status), string(t.Priority), t.AssignedToID, t.CreatedByID,
	).Scan(&id)
	if err != nil {
		return 0, mapError(err)
	}
	return id, nil
}

func (q queries) UpdateTask(ctx context.Context, id int, p models.TaskPatch) error {
	var (
		sets []string
		args []any
	)
	set := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if p.Title != nil {
		set("title", *p.Title)
	}
	if p.Description != nil {
		set("description", *p.Description)
	}
	if p.Status != nil {
		set("status", string(*p.Status))
	}
	if p.Priority != nil {
		set("priority", string(*p.Priority))
	}
	if p.AssignedToID.Set {
		set("assigned_to_id", p.AssignedToID.Ptr())
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf("UPDATE tasks SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	res, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err)
	}
	return checkAffected(res)
}

func (q queries) DeleteTask(ctx context.Context, id int) error {
	if _, err := q.db.ExecContext(ctx, "DELETE FROM comments WHERE task_id = $1", id); err != nil {
		return mapError(err)
	}
	res, err := q.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return mapError(err)
	}
	return checkAffected(res)
}
