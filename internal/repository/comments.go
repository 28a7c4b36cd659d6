package repository

import (
	"context"
	"fmt"

	"taskflow/internal/models"
)

const commentSelect = `
SELECT cm.id, cm.content, cm.task_id, cm.author_id, cm.created_at, u.id, u.name
FROM comments cm
JOIN users u ON u.id = cm.author_id`

func scanComment(row rowScanner) (models.Comment, error) {
	var (
		c      models.Comment
		author models.UserSummary
	)
	if err := row.Scan(&c.ID, &c.Content, &c.TaskID, &c.AuthorID, &c.CreatedAt, &author.ID, &author.Name); err != nil {
		return c, err
	}
	c.Author = &author
	return c, nil
}

func (q queries) ListComments(ctx context.Context, taskID int) ([]models.Comment, error) {
	rows, err := q.db.QueryContext(ctx, commentSelect+`
WHERE cm.task_id = $1
ORDER BY cm.created_at DESC, cm.id DESC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return comments, nil
}

func (q queries) FindComment(ctx context.Context, id int) (*models.Comment, error) {
	c, err := scanComment(q.db.QueryRowContext(ctx, commentSelect+"\nWHERE cm.id = $1", id))
	if err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

func (q queries) LockComment(ctx context.Context, id int) (*models.Comment, error) {
	var c models.Comment
	err := q.db.QueryRowContext(ctx,
		"SELECT id, content, task_id, author_id, created_at FROM comments WHERE id = $1 FOR UPDATE", id,
	).Scan(&c.ID, &c.Content, &c.TaskID, &c.AuthorID, &c.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

func (q queries) CreateComment(ctx context.Context, c models.NewComment) (int, error) {
	var id int
	err := q.db.QueryRowContext(ctx,
		"INSERT INTO comments (content, task_id, author_id) VALUES ($1, $2, $3) RETURNING id",
		c.Content, c.TaskID, c.AuthorID,
	).Scan(&id)
	if err != nil {
		return 0, mapError(err)
	}
	return id, nil
}

func (q queries) UpdateComment(ctx context.Context, id int, content string) error {
	res, err := q.db.ExecContext(ctx, "UPDATE comments SET content = $1 WHERE id = $2", content, id)
	if err != nil {
		return mapError(err)
	}
	return checkAffected(res)
}

func (q queries) DeleteComment(ctx context.Context, id int) error {
	res, err := q.db.ExecContext(ctx, "DELETE FROM comments WHERE id = $1", id)
	if err != nil {
		return mapError(err)
	}
	return checkAffected(res)
}
