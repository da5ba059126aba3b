package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/saucepanapp/saucepan-server/internal/service"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me",
		Summary:     "Get current user",
		Description: "Returns the authenticated user's profile",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetCurrentUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateCurrentUser",
		Method:      http.MethodPatch,
		Path:        "/api/v1/users/me",
		Summary:     "Update current user",
		Description: "Partially updates the authenticated user's profile",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateCurrentUser)
}

// === DTOs ===

// GetCurrentUserInput contains parameters for reading the profile.
type GetCurrentUserInput struct {
	Authorization string `header:"Authorization"`
}

// UpdateCurrentUserRequest is the request body for a profile update.
// Omitted fields are left untouched.
type UpdateCurrentUserRequest struct {
	Email    *string `json:"email,omitempty" doc:"New email address"`
	Password *string `json:"password,omitempty" doc:"New password (at least 5 characters)"`
	Name     *string `json:"name,omitempty" doc:"New display name"`
}

// UpdateCurrentUserInput wraps the profile update for Huma.
type UpdateCurrentUserInput struct {
	Authorization string `header:"Authorization"`
	Body          UpdateCurrentUserRequest
}

// === Handlers ===

func (s *Server) handleGetCurrentUser(ctx context.Context, input *GetCurrentUserInput) (*UserOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: toUserResponse(user)}, nil
}

func (s *Server) handleUpdateCurrentUser(ctx context.Context, input *UpdateCurrentUserInput) (*UserOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	updated, err := s.services.User.Update(ctx, user.ID, service.UpdateProfileRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
		Name:     input.Body.Name,
	})
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: toUserResponse(updated)}, nil
}
