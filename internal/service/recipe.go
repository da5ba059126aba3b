package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/saucepanapp/saucepan-server/internal/domain"
	domainerrors "github.com/saucepanapp/saucepan-server/internal/errors"
	"github.com/saucepanapp/saucepan-server/internal/media/images"
	"github.com/saucepanapp/saucepan-server/internal/search"
	"github.com/saucepanapp/saucepan-server/internal/store"
	"github.com/saucepanapp/saucepan-server/internal/validation"
)

// priceRe matches a price of at most five digits with at most two
// decimal places, e.g. "5", "5.5", "123.45".
var priceRe = regexp.MustCompile(`^\d{1,3}(\.\d{1,2})?$`)

// RecipeService handles recipe CRUD, filtering, search, and images.
type RecipeService struct {
	store       store.Store
	searchIndex *search.RecipeIndex
	imageStore  *images.Storage
	validator   *validation.Validator
	logger      *slog.Logger
}

// NewRecipeService creates a new recipe service.
func NewRecipeService(
	st store.Store,
	searchIndex *search.RecipeIndex,
	imageStore *images.Storage,
	validator *validation.Validator,
	logger *slog.Logger,
) *RecipeService {
	return &RecipeService{
		store:       st,
		searchIndex: searchIndex,
		imageStore:  imageStore,
		validator:   validator,
		logger:      logger,
	}
}

// CreateRecipeRequest contains the fields for a new recipe.
type CreateRecipeRequest struct {
	Title       string         `json:"title" validate:"required,max=255"`
	TimeMinutes int            `json:"time_minutes" validate:"gte=0"`
	Price       string         `json:"price" validate:"required"`
	Link        string         `json:"link,omitempty" validate:"max=255"`
	Description string         `json:"description,omitempty"`
	Tags        []LabelRequest `json:"tags,omitempty" validate:"dive"`
	Ingredients []LabelRequest `json:"ingredients,omitempty" validate:"dive"`
}

// UpdateRecipeRequest contains a partial recipe update.
// Nil fields are left untouched; for tags and ingredients an empty
// slice clears the association set.
type UpdateRecipeRequest struct {
	Title       *string         `json:"title,omitempty" validate:"omitempty,max=255"`
	TimeMinutes *int            `json:"time_minutes,omitempty" validate:"omitempty,gte=0"`
	Price       *string         `json:"price,omitempty"`
	Link        *string         `json:"link,omitempty" validate:"omitempty,max=255"`
	Description *string         `json:"description,omitempty"`
	Tags        *[]LabelRequest `json:"tags,omitempty" validate:"omitempty,dive"`
	Ingredients *[]LabelRequest `json:"ingredients,omitempty" validate:"omitempty,dive"`
}

// ListRecipesParams narrows a recipe listing.
type ListRecipesParams struct {
	TagIDs        []int64
	IngredientIDs []int64
}

// Create stores a new recipe with its labels. Label names that don't
// exist yet in the user's catalogs are created on the fly.
func (s *RecipeService) Create(ctx context.Context, userID string, req CreateRecipeRequest) (*domain.Recipe, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	price, err := normalizePrice(req.Price)
	if err != nil {
		return nil, err
	}

	tagIDs, err := s.resolveLabels(ctx, userID, req.Tags, s.store.FindOrCreateTag)
	if err != nil {
		return nil, err
	}
	ingredientIDs, err := s.resolveLabels(ctx, userID, req.Ingredients, s.store.FindOrCreateIngredient)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	recipe := &domain.Recipe{
		UserID:      userID,
		Title:       req.Title,
		TimeMinutes: req.TimeMinutes,
		Price:       price,
		Link:        req.Link,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.CreateRecipe(ctx, recipe, tagIDs, ingredientIDs); err != nil {
		return nil, fmt.Errorf("create recipe: %w", err)
	}

	created, err := s.Get(ctx, userID, recipe.ID)
	if err != nil {
		return nil, err
	}

	s.indexRecipe(created)
	s.logger.Info("recipe created", "user_id", userID, "recipe_id", created.ID)

	return created, nil
}

// Get returns one of the user's recipes with labels loaded.
func (s *RecipeService) Get(ctx context.Context, userID string, recipeID int64) (*domain.Recipe, error) {
	recipe, err := s.store.GetRecipe(ctx, userID, recipeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("recipe not found")
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	return recipe, nil
}

// List returns the user's recipes, newest first, optionally narrowed to
// those carrying any of the given tag and ingredient ids.
func (s *RecipeService) List(ctx context.Context, userID string, params ListRecipesParams) ([]*domain.Recipe, error) {
	recipes, err := s.store.ListRecipes(ctx, userID, params.TagIDs, params.IngredientIDs)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return recipes, nil
}

// Update applies a partial update. Tag and ingredient sets are replaced
// wholesale when present in the request.
func (s *RecipeService) Update(ctx context.Context, userID string, recipeID int64, req UpdateRecipeRequest) (*domain.Recipe, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	recipe, err := s.Get(ctx, userID, recipeID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		recipe.Title = *req.Title
	}
	if req.TimeMinutes != nil {
		recipe.TimeMinutes = *req.TimeMinutes
	}
	if req.Price != nil {
		price, err := normalizePrice(*req.Price)
		if err != nil {
			return nil, err
		}
		recipe.Price = price
	}
	if req.Link != nil {
		recipe.Link = *req.Link
	}
	if req.Description != nil {
		recipe.Description = *req.Description
	}
	recipe.Touch()

	var tagIDs, ingredientIDs *[]int64
	if req.Tags != nil {
		ids, err := s.resolveLabels(ctx, userID, *req.Tags, s.store.FindOrCreateTag)
		if err != nil {
			return nil, err
		}
		tagIDs = &ids
	}
	if req.Ingredients != nil {
		ids, err := s.resolveLabels(ctx, userID, *req.Ingredients, s.store.FindOrCreateIngredient)
		if err != nil {
			return nil, err
		}
		ingredientIDs = &ids
	}

	if err := s.store.UpdateRecipe(ctx, recipe, tagIDs, ingredientIDs); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("recipe not found")
		}
		return nil, fmt.Errorf("update recipe: %w", err)
	}

	updated, err := s.Get(ctx, userID, recipeID)
	if err != nil {
		return nil, err
	}

	s.indexRecipe(updated)

	return updated, nil
}

// Delete removes a recipe, its stored image, and its search document.
func (s *RecipeService) Delete(ctx context.Context, userID string, recipeID int64) error {
	recipe, err := s.Get(ctx, userID, recipeID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteRecipe(ctx, userID, recipeID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("recipe not found")
		}
		return fmt.Errorf("delete recipe: %w", err)
	}

	if recipe.HasImage() {
		if err := s.imageStore.Delete(recipe.ImagePath); err != nil {
			s.logger.Warn("failed to delete recipe image", "recipe_id", recipeID, "error", err)
		}
	}
	if err := s.searchIndex.DeleteRecipe(recipeID); err != nil {
		s.logger.Warn("failed to deindex recipe", "recipe_id", recipeID, "error", err)
	}

	s.logger.Info("recipe deleted", "user_id", userID, "recipe_id", recipeID)

	return nil
}

// Search returns the user's recipes matching a full-text query,
// ordered by relevance.
func (s *RecipeService) Search(ctx context.Context, userID, query string) ([]*domain.Recipe, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domainerrors.Validation("search query cannot be empty")
	}

	ids, err := s.searchIndex.Search(ctx, userID, query)
	if err != nil {
		return nil, fmt.Errorf("search recipes: %w", err)
	}

	recipes := make([]*domain.Recipe, 0, len(ids))
	for _, recipeID := range ids {
		recipe, err := s.store.GetRecipe(ctx, userID, recipeID)
		if err != nil {
			// Index can lag behind deletes.
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("get recipe: %w", err)
		}
		recipes = append(recipes, recipe)
	}

	return recipes, nil
}

// ReindexAll rebuilds the search index from the database. Returns the
// number of recipes indexed.
func (s *RecipeService) ReindexAll(ctx context.Context) (int, error) {
	recipes, err := s.store.ListAllRecipes(ctx)
	if err != nil {
		return 0, fmt.Errorf("list recipes: %w", err)
	}

	for _, r := range recipes {
		if err := s.searchIndex.IndexRecipe(r); err != nil {
			return 0, fmt.Errorf("index recipe %d: %w", r.ID, err)
		}
	}

	return len(recipes), nil
}

// IndexedDocumentCount reports how many recipes the search index holds.
func (s *RecipeService) IndexedDocumentCount() (uint64, error) {
	return s.searchIndex.DocumentCount()
}

// UploadImage validates and stores an image for a recipe, replacing any
// previous one. Returns the updated recipe.
func (s *RecipeService) UploadImage(ctx context.Context, userID string, recipeID int64, data []byte) (*domain.Recipe, error) {
	recipe, err := s.Get(ctx, userID, recipeID)
	if err != nil {
		return nil, err
	}

	processed, err := images.Process(data)
	if err != nil {
		return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{
			"image": "must be a valid JPEG, PNG, GIF, or WebP image",
		}).WithCause(err)
	}

	if err := s.imageStore.Save(processed.Filename, data); err != nil {
		return nil, fmt.Errorf("save image: %w", err)
	}

	oldPath := recipe.ImagePath
	recipe.ImagePath = processed.Filename
	recipe.ImageHash = processed.BlurHash
	recipe.Touch()

	if err := s.store.UpdateRecipe(ctx, recipe, nil, nil); err != nil {
		// Roll back the orphaned file.
		_ = s.imageStore.Delete(processed.Filename)
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("recipe not found")
		}
		return nil, fmt.Errorf("update recipe: %w", err)
	}

	if oldPath != "" && oldPath != processed.Filename {
		if err := s.imageStore.Delete(oldPath); err != nil {
			s.logger.Warn("failed to delete replaced image", "recipe_id", recipeID, "error", err)
		}
	}

	s.logger.Info("recipe image uploaded",
		"user_id", userID,
		"recipe_id", recipeID,
		"format", processed.Format,
	)

	return recipe, nil
}

// GetImage returns the stored image bytes for a recipe.
func (s *RecipeService) GetImage(ctx context.Context, userID string, recipeID int64) ([]byte, string, error) {
	recipe, err := s.Get(ctx, userID, recipeID)
	if err != nil {
		return nil, "", err
	}
	if !recipe.HasImage() {
		return nil, "", domainerrors.NotFound("recipe has no image")
	}

	data, err := s.imageStore.Get(recipe.ImagePath)
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}

	return data, contentTypeFor(recipe.ImagePath), nil
}

// resolveLabels maps label names onto ids, creating missing labels.
func (s *RecipeService) resolveLabels(
	ctx context.Context,
	userID string,
	reqs []LabelRequest,
	findOrCreate func(ctx context.Context, userID, name string) (*domain.Label, bool, error),
) ([]int64, error) {
	ids := make([]int64, 0, len(reqs))
	seen := make(map[int64]bool, len(reqs))

	for _, req := range reqs {
		name := strings.TrimSpace(req.Name)
		if name == "" {
			return nil, domainerrors.Validation("label name cannot be blank")
		}

		label, _, err := findOrCreate(ctx, userID, name)
		if err != nil {
			return nil, fmt.Errorf("find or create label: %w", err)
		}
		if !seen[label.ID] {
			seen[label.ID] = true
			ids = append(ids, label.ID)
		}
	}

	return ids, nil
}

// indexRecipe updates the search index, best effort.
func (s *RecipeService) indexRecipe(r *domain.Recipe) {
	if err := s.searchIndex.IndexRecipe(r); err != nil {
		s.logger.Warn("failed to index recipe", "recipe_id", r.ID, "error", err)
	}
}

// normalizePrice validates a price string and pads it to two decimals.
func normalizePrice(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !priceRe.MatchString(raw) {
		return "", domainerrors.ValidationWithDetails("validation failed", map[string]string{
			"price": "must be a decimal with up to two decimal places, e.g. 5.00",
		})
	}

	whole, frac, found := strings.Cut(raw, ".")
	if !found {
		frac = ""
	}
	for len(frac) < 2 {
		frac += "0"
	}
	return whole + "." + frac, nil
}

// contentTypeFor maps a stored image filename onto its MIME type.
func contentTypeFor(filename string) string {
	switch {
	case strings.HasSuffix(filename, ".png"):
		return "image/png"
	case strings.HasSuffix(filename, ".gif"):
		return "image/gif"
	case strings.HasSuffix(filename, ".webp"):
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
