package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/saucepanapp/saucepan-server/internal/domain"
	domainerrors "github.com/saucepanapp/saucepan-server/internal/errors"
	"github.com/saucepanapp/saucepan-server/internal/store"
	"github.com/saucepanapp/saucepan-server/internal/validation"
)

// LabelRequest carries a label name for create and rename operations.
type LabelRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// labelOps binds the shared label logic to one store catalog.
// Tags and ingredients behave identically; only the store calls differ.
type labelOps struct {
	kind         string
	findOrCreate func(ctx context.Context, userID, name string) (*domain.Label, bool, error)
	list         func(ctx context.Context, userID string, assignedOnly bool) ([]*domain.Label, error)
	get          func(ctx context.Context, userID string, id int64) (*domain.Label, error)
	update       func(ctx context.Context, label *domain.Label) error
	delete       func(ctx context.Context, userID string, id int64) error

	validator *validation.Validator
	logger    *slog.Logger
}

// Create returns the user's label with the given name, creating it if
// needed. Creating an existing name just returns the existing row.
func (o *labelOps) Create(ctx context.Context, userID string, req LabelRequest) (*domain.Label, bool, error) {
	if err := o.validator.Validate(req); err != nil {
		return nil, false, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, false, domainerrors.Validationf("%s name cannot be blank", o.kind)
	}

	label, created, err := o.findOrCreate(ctx, userID, name)
	if err != nil {
		return nil, false, fmt.Errorf("find or create %s: %w", o.kind, err)
	}

	if created {
		o.logger.Info(o.kind+" created", "user_id", userID, "name", name)
	}

	return label, created, nil
}

// List returns the user's labels ordered by name descending.
// With assignedOnly, only labels attached to at least one recipe.
func (o *labelOps) List(ctx context.Context, userID string, assignedOnly bool) ([]*domain.Label, error) {
	labels, err := o.list(ctx, userID, assignedOnly)
	if err != nil {
		return nil, fmt.Errorf("list %ss: %w", o.kind, err)
	}
	return labels, nil
}

// Get returns one of the user's labels by id.
func (o *labelOps) Get(ctx context.Context, userID string, id int64) (*domain.Label, error) {
	label, err := o.get(ctx, userID, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("%s not found", o.kind)
		}
		return nil, fmt.Errorf("get %s: %w", o.kind, err)
	}
	return label, nil
}

// Rename changes a label's name.
func (o *labelOps) Rename(ctx context.Context, userID string, id int64, req LabelRequest) (*domain.Label, error) {
	if err := o.validator.Validate(req); err != nil {
		return nil, err
	}

	label, err := o.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	label.Name = strings.TrimSpace(req.Name)
	label.Touch()

	if err := o.update(ctx, label); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, domainerrors.NotFoundf("%s not found", o.kind)
		case errors.Is(err, store.ErrAlreadyExists):
			return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{
				"name": fmt.Sprintf("a %s with this name already exists", o.kind),
			})
		}
		return nil, fmt.Errorf("update %s: %w", o.kind, err)
	}

	return label, nil
}

// Delete removes a label. Recipes keep their other labels.
func (o *labelOps) Delete(ctx context.Context, userID string, id int64) error {
	if err := o.delete(ctx, userID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFoundf("%s not found", o.kind)
		}
		return fmt.Errorf("delete %s: %w", o.kind, err)
	}

	o.logger.Info(o.kind+" deleted", "user_id", userID, "id", id)
	return nil
}

// TagService manages a user's tag catalog.
type TagService struct {
	labelOps
}

// NewTagService creates a new tag service.
func NewTagService(st store.Store, validator *validation.Validator, logger *slog.Logger) *TagService {
	return &TagService{labelOps{
		kind:         "tag",
		findOrCreate: st.FindOrCreateTag,
		list:         st.ListTags,
		get:          st.GetTag,
		update:       st.UpdateTag,
		delete:       st.DeleteTag,
		validator:    validator,
		logger:       logger,
	}}
}

// IngredientService manages a user's ingredient catalog.
type IngredientService struct {
	labelOps
}

// NewIngredientService creates a new ingredient service.
func NewIngredientService(st store.Store, validator *validation.Validator, logger *slog.Logger) *IngredientService {
	return &IngredientService{labelOps{
		kind:         "ingredient",
		findOrCreate: st.FindOrCreateIngredient,
		list:         st.ListIngredients,
		get:          st.GetIngredient,
		update:       st.UpdateIngredient,
		delete:       st.DeleteIngredient,
		validator:    validator,
		logger:       logger,
	}}
}
