package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/saucepanapp/saucepan-server/internal/auth"
	"github.com/saucepanapp/saucepan-server/internal/domain"
	domainerrors "github.com/saucepanapp/saucepan-server/internal/errors"
	"github.com/saucepanapp/saucepan-server/internal/store"
	"github.com/saucepanapp/saucepan-server/internal/validation"
)

// UserService handles profile reads and updates for authenticated users.
type UserService struct {
	store     store.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(store store.Store, validator *validation.Validator, logger *slog.Logger) *UserService {
	return &UserService{
		store:     store,
		validator: validator,
		logger:    logger,
	}
}

// UpdateProfileRequest contains profile fields to change.
// Nil fields are left untouched.
type UpdateProfileRequest struct {
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=5,max=1024"`
	Name     *string `json:"name,omitempty" validate:"omitempty,max=255"`
}

// Get returns the user's profile.
func (s *UserService) Get(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// Update applies a partial profile update. A new password is rehashed
// before storage; the plaintext is never persisted.
func (s *UserService) Update(ctx context.Context, userID string, req UpdateProfileRequest) (*domain.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}
	user.Touch()

	if err := s.store.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{
				"email": "a user with this email already exists",
			})
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.Info("user profile updated", "user_id", userID)

	return user, nil
}
