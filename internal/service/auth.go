// Package service contains the application's business logic, sitting
// between the HTTP handlers and the store.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/saucepanapp/saucepan-server/internal/auth"
	"github.com/saucepanapp/saucepan-server/internal/domain"
	domainerrors "github.com/saucepanapp/saucepan-server/internal/errors"
	"github.com/saucepanapp/saucepan-server/internal/id"
	"github.com/saucepanapp/saucepan-server/internal/store"
	"github.com/saucepanapp/saucepan-server/internal/validation"
)

// AuthService handles user registration, login, and token verification.
type AuthService struct {
	store        store.Store
	tokenService *auth.TokenService
	validator    *validation.Validator
	logger       *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(store store.Store, tokenService *auth.TokenService, validator *validation.Validator, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:        store,
		tokenService: tokenService,
		validator:    validator,
		logger:       logger,
	}
}

// RegisterRequest contains user registration data.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=5,max=1024"`
	Name     string `json:"name" validate:"max=255"`
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse carries an issued access token.
type TokenResponse struct {
	Token string `json:"token"`
}

// Register creates a new user account.
// A duplicate email is reported as a validation failure so registration
// responses stay uniform for the client.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate("user")
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           userID,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Name:         req.Name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{
				"email": "a user with this email already exists",
			})
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered", "user_id", userID, "email", user.Email)

	return user, nil
}

// Login verifies credentials and returns an access token.
//
// Each user has at most one live token: a still-valid stored token is
// returned as-is, an expired or missing one is replaced.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Don't leak whether the email exists.
			return nil, domainerrors.InvalidCredentials("unable to authenticate with provided credentials")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	ok, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, domainerrors.InvalidCredentials("unable to authenticate with provided credentials")
	}

	// Reuse the stored token while it still verifies.
	if existing, err := s.store.GetAuthToken(ctx, user.ID); err == nil {
		if _, verifyErr := s.tokenService.VerifyAccessToken(existing); verifyErr == nil {
			return &TokenResponse{Token: existing}, nil
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("get auth token: %w", err)
	}

	token, err := s.tokenService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	if err := s.store.SetAuthToken(ctx, user.ID, token); err != nil {
		return nil, fmt.Errorf("store auth token: %w", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID)

	return &TokenResponse{Token: token}, nil
}

// VerifyToken checks a presented bearer token and returns its user.
// The token must both decrypt cleanly and match the stored token for
// its user, so logout and rotation invalidate older tokens.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokenService.VerifyAccessToken(token)
	if err != nil {
		return nil, domainerrors.Unauthorized("invalid or expired token").WithCause(err)
	}

	stored, err := s.store.GetAuthToken(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.Unauthorized("token has been revoked")
		}
		return nil, fmt.Errorf("get auth token: %w", err)
	}
	if stored != token {
		return nil, domainerrors.Unauthorized("token has been revoked")
	}

	user, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.Unauthorized("user no longer exists")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}
