package repository

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"taskflow/internal/models"
	"taskflow/pkg/logger"
)

type seedUser struct {
	Name     string
	Email    string
	Password string
	Role     models.Role
}

var seedUsers = []seedUser{
	{"Admin User", "admin@dquant.com", "admin123", models.RoleAdmin},
	{"John Doe", "john@dquant.com", "employee123", models.RoleEmployee},
	{"Jane Smith", "jane@dquant.com", "employee123", models.RoleEmployee},
}

// ensureUser returns the id of the user with u's email, creating it first
// if needed.
func ensureUser(ctx context.Context, q Queries, u seedUser) (int, error) {
	existing, err := q.FindUserByEmail(ctx, u.Email)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return 0, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}
	return q.CreateUser(ctx, models.NewUser{
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: string(hash),
		Role:         u.Role,
	})
}

// SeedDemoData creates the demo accounts and, when the store holds no tasks
// yet, a few sample tasks with comments. Running it twice is harmless.
func SeedDemoData(ctx context.Context, store Store) error {
	return store.InTx(ctx, func(q Queries) error {
		ids := make([]int, len(seedUsers))
		for i, u := range seedUsers {
			id, err := ensureUser(ctx, q, u)
			if err != nil {
				return fmt.Errorf("seed user %s: %w", u.Email, err)
			}
			ids[i] = id
		}
		admin, john, jane := ids[0], ids[1], ids[2]

		existing, err := q.ListTasks(ctx, models.TaskFilter{})
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			logger.SystemLogger.Info("Seed skipped tasks, store already has data", zap.Int("tasks", len(existing)))
			return nil
		}

		str := func(s string) *string { return &s }
		tasks := []models.NewTask{
			{
				Title:        "Design new landing page",
				Description:  str("Create a modern and responsive landing page for the main website"),
				Status:       models.StatusTodo,
				Priority:     models.PriorityHigh,
				AssignedToID: &john,
				CreatedByID:  admin,
			},
			{
				Title:        "Fix login bug",
				Description:  str("Users are experiencing issues with the login functionality"),
				Status:       models.StatusInProgress,
				Priority:     models.PriorityUrgent,
				AssignedToID: &jane,
				CreatedByID:  admin,
			},
			{
				Title:        "Update documentation",
				Description:  str("Update the API documentation with new endpoints"),
				Status:       models.StatusTodo,
				Priority:     models.PriorityMedium,
				AssignedToID: &john,
				CreatedByID:  admin,
			},
		}
		taskIDs := make([]int, len(tasks))
		for i, t := range tasks {
			id, err := q.CreateTask(ctx, t)
			if err != nil {
				return fmt.Errorf("seed task %q: %w", t.Title, err)
			}
			taskIDs[i] = id
		}

		comments := []models.NewComment{
			{Content: "I'll start working on this tomorrow morning.", TaskID: taskIDs[0], AuthorID: john},
			{Content: "This is a critical issue that needs immediate attention.", TaskID: taskIDs[1], AuthorID: admin},
			{Content: "I've identified the root cause. Working on a fix.", TaskID: taskIDs[1], AuthorID: jane},
		}
		for _, c := range comments {
			if _, err := q.CreateComment(ctx, c); err != nil {
				return fmt.Errorf("seed comment: %w", err)
			}
		}

		logger.SystemLogger.Info("Demo data seeded", zap.Int("users", len(ids)), zap.Int("tasks", len(taskIDs)))
		return nil
	})
}
