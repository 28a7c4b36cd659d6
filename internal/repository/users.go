package repository

import (
	"context"
	"fmt"
	"strings"

	"taskflow/internal/models"
)

func (q queries) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT id, name, email, role, created_at, updated_at FROM users ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

const userSelect = "SELECT id, name, email, password, role, created_at, updated_at FROM users"

func (q queries) findUser(ctx context.Context, where string, arg any) (*models.User, error) {
	var u models.User
	err := q.db.QueryRowContext(ctx, userSelect+" WHERE "+where, arg).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

func (q queries) FindUserByID(ctx context.Context, id int) (*models.User, error) {
	return q.findUser(ctx, "id = $1", id)
}

// FindUserByEmail matches emails case-insensitively.
func (q queries) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return q.findUser(ctx, "email = $1", strings.ToLower(strings.TrimSpace(email)))
}

func (q queries) CreateUser(ctx context.Context, u models.NewUser) (int, error) {
	var id int
	err := q.db.QueryRowContext(ctx,
		"INSERT INTO users (name, email, password, role) VALUES ($1, $2, $3, $4) RETURNING id",
		u.Name, strings.ToLower(strings.TrimSpace(u.Email)), u.PasswordHash, string(u.Role),
	).Scan(&id)
	if err != nil {
		return 0, mapError(err)
	}
	return id, nil
}
