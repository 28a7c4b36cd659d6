package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"taskflow/internal/apperror"
	"taskflow/internal/models"
	"taskflow/internal/policy"
	"taskflow/internal/repository"
	"taskflow/pkg/logger"
)

// UserDirectory caches the full user listing.
type UserDirectory interface {
	Get(ctx context.Context) ([]models.User, bool)
	Set(ctx context.Context, users []models.User)
	Invalidate(ctx context.Context)
}

type RegisterInput struct {
	Name     string      `json:"name" validate:"notblank"`
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=6"`
	Role     models.Role `json:"role" validate:"omitempty,oneof=ADMIN EMPLOYEE"`
}

type UserService struct {
	store repository.Store
	cache UserDirectory
}

// NewUserService builds the service. cache may be nil.
func NewUserService(store repository.Store, cache UserDirectory) *UserService {
	return &UserService{store: store, cache: cache}
}

// List returns every user, for assignment pickers. Admins only.
func (s *UserService) List(ctx context.Context, caller policy.Caller) ([]models.User, error) {
	if !policy.Evaluate(caller, policy.ListUsers).Allowed {
		return nil, errAdminOnly
	}
	if s.cache != nil {
		if users, ok := s.cache.Get(ctx); ok {
			return users, nil
		}
	}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, storeError(err, "User not found")
	}
	if s.cache != nil {
		s.cache.Set(ctx, users)
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, caller policy.Caller, id int) (*models.User, error) {
	if !policy.Evaluate(caller, policy.ListUsers).Allowed {
		return nil, errAdminOnly
	}
	user, err := s.store.FindUserByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "User not found")
	}
	return user, nil
}

// Register creates an account. New users are employees unless a role is
// given.
func (s *UserService) Register(ctx context.Context, caller policy.Caller, in RegisterInput) (*models.User, error) {
	if !policy.Evaluate(caller, policy.RegisterUser).Allowed {
		logger.SecurityLogger.Warn("Registration denied", zap.Int("user_id", caller.ID))
		return nil, errAdminOnly
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := check(in); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = models.RoleEmployee
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Internal("hash password", err)
	}

	var user *models.User
	err = s.store.InTx(ctx, func(q repository.Queries) error {
		id, err := q.CreateUser(ctx, models.NewUser{
			Name:         strings.TrimSpace(in.Name),
			Email:        in.Email,
			PasswordHash: string(hash),
			Role:         in.Role,
		})
		if err != nil {
			return err
		}
		user, err = q.FindUserByID(ctx, id)
		return err
	})
	if errors.Is(err, repository.ErrConflict) {
		logger.SecurityLogger.Warn("Duplicate email on register", zap.String("email", in.Email))
		return nil, apperror.Conflict("User with this email already exists")
	}
	if err != nil {
		return nil, storeError(err, "User not found")
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	logger.AuditLogger.Info("User registered", zap.Int("user_id", user.ID), zap.String("role", string(user.Role)), zap.Int("actor_id", caller.ID))
	return user, nil
}
