package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/saucepanapp/saucepan-server/internal/domain"
	"github.com/saucepanapp/saucepan-server/internal/service"
)

// labelService is implemented by both TagService and IngredientService.
type labelService interface {
	Create(ctx context.Context, userID string, req service.LabelRequest) (*domain.Label, bool, error)
	List(ctx context.Context, userID string, assignedOnly bool) ([]*domain.Label, error)
	Rename(ctx context.Context, userID string, id int64, req service.LabelRequest) (*domain.Label, error)
	Delete(ctx context.Context, userID string, id int64) error
}

// === DTOs ===

// LabelResponse contains tag or ingredient data in API responses.
type LabelResponse struct {
	ID   int64  `json:"id" doc:"Label ID"`
	Name string `json:"name" doc:"Label name"`
}

// ListLabelsInput contains parameters for listing tags or ingredients.
type ListLabelsInput struct {
	Authorization string `header:"Authorization"`
	AssignedOnly  string `query:"assigned_only" doc:"Only labels assigned to at least one recipe (0 or 1)"`
}

// ListLabelsOutput wraps a label list for Huma.
type ListLabelsOutput struct {
	Body []LabelResponse
}

// LabelBody is the request body for creating or renaming a label.
type LabelBody struct {
	Name string `json:"name" doc:"Label name"`
}

// CreateLabelInput wraps a label create request for Huma.
type CreateLabelInput struct {
	Authorization string `header:"Authorization"`
	Body          LabelBody
}

// LabelOutput wraps a single label response for Huma.
type LabelOutput struct {
	Body LabelResponse
}

// UpdateLabelInput wraps a label rename request for Huma.
type UpdateLabelInput struct {
	Authorization string `header:"Authorization"`
	ID            int64  `path:"id" doc:"Label ID"`
	Body          LabelBody
}

// DeleteLabelInput contains parameters for deleting a label.
type DeleteLabelInput struct {
	Authorization string `header:"Authorization"`
	ID            int64  `path:"id" doc:"Label ID"`
}

// DeleteLabelOutput is the empty response for a deletion.
type DeleteLabelOutput struct{}

func toLabelResponse(l *domain.Label) LabelResponse {
	return LabelResponse{ID: l.ID, Name: l.Name}
}

// registerLabelRoutes wires up the identical route set shared by tags
// and ingredients.
func (s *Server) registerLabelRoutes(kind, plural string, svc labelService) {
	basePath := "/api/v1/" + plural
	tag := strings.ToUpper(kind[:1]) + kind[1:] + "s"

	huma.Register(s.api, huma.Operation{
		OperationID: "list" + tag,
		Method:      http.MethodGet,
		Path:        basePath,
		Summary:     "List " + plural,
		Description: "Returns the current user's " + plural + ", ordered by name descending",
		Tags:        []string{tag},
		Security:    []map[string][]string{{"bearer": {}}},
	}, func(ctx context.Context, input *ListLabelsInput) (*ListLabelsOutput, error) {
		user, err := s.authenticateRequest(ctx, input.Authorization)
		if err != nil {
			return nil, err
		}

		assignedOnly, err := parseAssignedOnly(input.AssignedOnly)
		if err != nil {
			return nil, err
		}

		labels, err := svc.List(ctx, user.ID, assignedOnly)
		if err != nil {
			return nil, err
		}

		resp := make([]LabelResponse, len(labels))
		for i, l := range labels {
			resp[i] = toLabelResponse(l)
		}
		return &ListLabelsOutput{Body: resp}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID:   "create" + tag,
		Method:        http.MethodPost,
		Path:          basePath,
		Summary:       "Create " + kind,
		Description:   "Creates a " + kind + ", or returns the existing one with the same name",
		Tags:          []string{tag},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateLabelInput) (*LabelOutput, error) {
		user, err := s.authenticateRequest(ctx, input.Authorization)
		if err != nil {
			return nil, err
		}

		label, _, err := svc.Create(ctx, user.ID, service.LabelRequest{Name: input.Body.Name})
		if err != nil {
			return nil, err
		}
		return &LabelOutput{Body: toLabelResponse(label)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "update" + tag,
		Method:      http.MethodPatch,
		Path:        basePath + "/{id}",
		Summary:     "Update " + kind,
		Description: "Renames a " + kind,
		Tags:        []string{tag},
		Security:    []map[string][]string{{"bearer": {}}},
	}, func(ctx context.Context, input *UpdateLabelInput) (*LabelOutput, error) {
		user, err := s.authenticateRequest(ctx, input.Authorization)
		if err != nil {
			return nil, err
		}

		label, err := svc.Rename(ctx, user.ID, input.ID, service.LabelRequest{Name: input.Body.Name})
		if err != nil {
			return nil, err
		}
		return &LabelOutput{Body: toLabelResponse(label)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID:   "delete" + tag,
		Method:        http.MethodDelete,
		Path:          basePath + "/{id}",
		Summary:       "Delete " + kind,
		Description:   "Deletes a " + kind + "; recipes keep their other labels",
		Tags:          []string{tag},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *DeleteLabelInput) (*DeleteLabelOutput, error) {
		user, err := s.authenticateRequest(ctx, input.Authorization)
		if err != nil {
			return nil, err
		}

		if err := svc.Delete(ctx, user.ID, input.ID); err != nil {
			return nil, err
		}
		return &DeleteLabelOutput{}, nil
	})
}

func (s *Server) registerTagRoutes() {
	s.registerLabelRoutes("tag", "tags", s.services.Tag)
}

func (s *Server) registerIngredientRoutes() {
	s.registerLabelRoutes("ingredient", "ingredients", s.services.Ingredient)
}
