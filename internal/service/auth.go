package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"taskflow/internal/apperror"
	"taskflow/internal/auth"
	"taskflow/internal/models"
	"taskflow/internal/policy"
	"taskflow/internal/repository"
	"taskflow/pkg/logger"
)

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

var errBadCredentials = apperror.Unauthenticated("Invalid credentials")

type AuthService struct {
	store  repository.Store
	tokens *auth.TokenManager
}

func NewAuthService(store repository.Store, tokens *auth.TokenManager) *AuthService {
	return &AuthService{store: store, tokens: tokens}
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := check(in); err != nil {
		return nil, err
	}

	user, err := s.store.FindUserByEmail(ctx, in.Email)
	if errors.Is(err, repository.ErrNotFound) {
		logger.SecurityLogger.Warn("Login for unknown email", zap.String("email", in.Email))
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, storeError(err, "User not found")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		logger.SecurityLogger.Warn("Login with wrong password", zap.Int("user_id", user.ID))
		return nil, errBadCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, apperror.Internal("issue token", err)
	}
	logger.AuditLogger.Info("Login success", zap.Int("user_id", user.ID), zap.String("role", string(user.Role)))
	return &LoginResult{Token: token, User: user}, nil
}

// Authenticate resolves a raw bearer token into its claims.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (*auth.Claims, error) {
	if raw == "" {
		return nil, apperror.Unauthenticated("No token provided")
	}
	claims, err := s.tokens.Parse(ctx, raw)
	switch {
	case errors.Is(err, auth.ErrInvalidToken):
		return nil, apperror.Unauthenticated("Invalid token")
	case errors.Is(err, auth.ErrRevokedToken):
		return nil, apperror.Unauthenticated("Token has been revoked")
	case err != nil:
		return nil, apperror.Internal("verify token", err)
	}
	return claims, nil
}

// Me returns the account behind caller.
func (s *AuthService) Me(ctx context.Context, caller policy.Caller) (*models.User, error) {
	user, err := s.store.FindUserByID(ctx, caller.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.Unauthenticated("User no longer exists")
	}
	if err != nil {
		return nil, storeError(err, "User not found")
	}
	return user, nil
}

// Logout revokes the presented token until it expires.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if err := s.tokens.Revoke(ctx, claims); err != nil {
		return apperror.Internal("revoke token", err)
	}
	logger.AuditLogger.Info("Logout", zap.Int("user_id", claims.UserID))
	return nil
}
