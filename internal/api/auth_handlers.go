package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/saucepanapp/saucepan-server/internal/domain"
	"github.com/saucepanapp/saucepan-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "registerUser",
		Method:        http.MethodPost,
		Path:          "/api/v1/users",
		Summary:       "Register user",
		Description:   "Creates a new user account",
		Tags:          []string{"Users"},
		DefaultStatus: http.StatusCreated,
	}, s.handleRegisterUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "createToken",
		Method:      http.MethodPost,
		Path:        "/api/v1/users/token",
		Summary:     "Create token",
		Description: "Issues an access token for valid credentials",
		Tags:        []string{"Users"},
	}, s.handleCreateToken)
}

// === DTOs ===

// UserResponse contains user data in API responses.
type UserResponse struct {
	ID        string    `json:"id" doc:"User ID"`
	Email     string    `json:"email" doc:"Email address"`
	Name      string    `json:"name,omitempty" doc:"Display name"`
	CreatedAt time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt time.Time `json:"updated_at" doc:"Last update time"`
}

// RegisterUserRequest is the request body for registering a user.
type RegisterUserRequest struct {
	Email    string `json:"email" doc:"Email address"`
	Password string `json:"password" doc:"Password (at least 5 characters)"`
	Name     string `json:"name,omitempty" doc:"Display name"`
}

// RegisterUserInput wraps the register request for Huma.
type RegisterUserInput struct {
	Body RegisterUserRequest
}

// UserOutput wraps the user response for Huma.
type UserOutput struct {
	Body UserResponse
}

// CreateTokenRequest is the request body for issuing a token.
type CreateTokenRequest struct {
	Email    string `json:"email" doc:"Email address"`
	Password string `json:"password" doc:"Password"`
}

// CreateTokenInput wraps the token request for Huma.
type CreateTokenInput struct {
	Body CreateTokenRequest
}

// TokenResponse contains an issued access token.
type TokenResponse struct {
	Token string `json:"token" doc:"PASETO access token"`
}

// TokenOutput wraps the token response for Huma.
type TokenOutput struct {
	Body TokenResponse
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// === Handlers ===

func (s *Server) handleRegisterUser(ctx context.Context, input *RegisterUserInput) (*UserOutput, error) {
	user, err := s.services.Auth.Register(ctx, service.RegisterRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
		Name:     input.Body.Name,
	})
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: toUserResponse(user)}, nil
}

func (s *Server) handleCreateToken(ctx context.Context, input *CreateTokenInput) (*TokenOutput, error) {
	// Throttle per account to slow down credential stuffing.
	key := strings.ToLower(strings.TrimSpace(input.Body.Email))
	if !s.loginLimiter.Allow(key) {
		s.logger.Warn("login rate limit exceeded", "email", key)
		return nil, huma.Error429TooManyRequests("Too many login attempts. Please try again later.")
	}

	resp, err := s.services.Auth.Login(ctx, service.LoginRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}

	return &TokenOutput{Body: TokenResponse{Token: resp.Token}}, nil
}
