package api

import (
	"bytes"
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/saucepanapp/saucepan-server/internal/domain"
	"github.com/saucepanapp/saucepan-server/internal/service"
)

func (s *Server) registerRecipeRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listRecipes",
		Method:      http.MethodGet,
		Path:        "/api/v1/recipes",
		Summary:     "List recipes",
		Description: "Returns the current user's recipes, newest first, optionally filtered by tag and ingredient ids",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListRecipes)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createRecipe",
		Method:        http.MethodPost,
		Path:          "/api/v1/recipes",
		Summary:       "Create recipe",
		Description:   "Creates a new recipe; unknown tag and ingredient names are created on the fly",
		Tags:          []string{"Recipes"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchRecipes",
		Method:      http.MethodGet,
		Path:        "/api/v1/recipes/search",
		Summary:     "Search recipes",
		Description: "Full-text search over the current user's recipe titles and descriptions",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSearchRecipes)

	huma.Register(s.api, huma.Operation{
		OperationID: "getRecipe",
		Method:      http.MethodGet,
		Path:        "/api/v1/recipes/{id}",
		Summary:     "Get recipe",
		Description: "Returns a recipe by ID",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateRecipe",
		Method:      http.MethodPatch,
		Path:        "/api/v1/recipes/{id}",
		Summary:     "Update recipe",
		Description: "Partially updates a recipe; tag and ingredient lists, when present, replace the existing sets",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "replaceRecipe",
		Method:      http.MethodPut,
		Path:        "/api/v1/recipes/{id}",
		Summary:     "Replace recipe",
		Description: "Fully replaces a recipe; omitted optional fields are reset and label sets are replaced",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleReplaceRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteRecipe",
		Method:        http.MethodDelete,
		Path:          "/api/v1/recipes/{id}",
		Summary:       "Delete recipe",
		Description:   "Deletes a recipe and its image; tags and ingredients survive",
		Tags:          []string{"Recipes"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "uploadRecipeImage",
		Method:      http.MethodPost,
		Path:        "/api/v1/recipes/{id}/upload-image",
		Summary:     "Upload recipe image",
		Description: "Stores an image for the recipe, replacing any previous one; accepts raw image bytes or a multipart form with an \"image\" field",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUploadRecipeImage)

	huma.Register(s.api, huma.Operation{
		OperationID: "getRecipeImage",
		Method:      http.MethodGet,
		Path:        "/api/v1/recipes/{id}/image",
		Summary:     "Get recipe image",
		Description: "Returns the stored image bytes for the recipe",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetRecipeImage)
}

// === DTOs ===

// RecipeListItem is the compact recipe representation used in listings.
type RecipeListItem struct {
	ID          int64           `json:"id" doc:"Recipe ID"`
	Title       string          `json:"title" doc:"Recipe title"`
	TimeMinutes int             `json:"time_minutes" doc:"Preparation time in minutes"`
	Price       string          `json:"price" doc:"Price as a decimal string"`
	Link        string          `json:"link,omitempty" doc:"External link"`
	Tags        []LabelResponse `json:"tags" doc:"Attached tags"`
	Ingredients []LabelResponse `json:"ingredients" doc:"Attached ingredients"`
}

// RecipeDetail is the full recipe representation.
type RecipeDetail struct {
	RecipeListItem
	Description   string    `json:"description,omitempty" doc:"Free-form description"`
	ImageBlurHash string    `json:"image_blurhash,omitempty" doc:"BlurHash preview of the image"`
	CreatedAt     time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt     time.Time `json:"updated_at" doc:"Last update time"`
}

// ListRecipesInput contains parameters for listing recipes.
type ListRecipesInput struct {
	Authorization string `header:"Authorization"`
	Tags          string `query:"tags" doc:"Comma-separated tag IDs; keeps recipes carrying any of them"`
	Ingredients   string `query:"ingredients" doc:"Comma-separated ingredient IDs; keeps recipes carrying any of them"`
}

// ListRecipesOutput wraps a recipe listing for Huma.
type ListRecipesOutput struct {
	Body []RecipeListItem
}

// RecipeBody is the request body for creating a recipe.
type RecipeBody struct {
	Title       string      `json:"title" doc:"Recipe title"`
	TimeMinutes int         `json:"time_minutes" doc:"Preparation time in minutes"`
	Price       string      `json:"price" doc:"Price as a decimal string, e.g. 5.00"`
	Link        string      `json:"link,omitempty" doc:"External link"`
	Description string      `json:"description,omitempty" doc:"Free-form description"`
	Tags        []LabelBody `json:"tags,omitempty" doc:"Tags by name; missing ones are created"`
	Ingredients []LabelBody `json:"ingredients,omitempty" doc:"Ingredients by name; missing ones are created"`
}

// CreateRecipeInput wraps the create request for Huma.
type CreateRecipeInput struct {
	Authorization string `header:"Authorization"`
	Body          RecipeBody
}

// RecipeOutput wraps a recipe detail response for Huma.
type RecipeOutput struct {
	Body RecipeDetail
}

// GetRecipeInput contains parameters for reading one recipe.
type GetRecipeInput struct {
	Authorization string `header:"Authorization"`
	ID            int64  `path:"id" doc:"Recipe ID"`
}

// UpdateRecipeBody is the request body for a partial recipe update.
// Omitted fields are left untouched; empty tag or ingredient lists
// clear the respective set.
type UpdateRecipeBody struct {
	Title       *string      `json:"title,omitempty" doc:"Recipe title"`
	TimeMinutes *int         `json:"time_minutes,omitempty" doc:"Preparation time in minutes"`
	Price       *string      `json:"price,omitempty" doc:"Price as a decimal string"`
	Link        *string      `json:"link,omitempty" doc:"External link"`
	Description *string      `json:"description,omitempty" doc:"Free-form description"`
	Tags        *[]LabelBody `json:"tags,omitempty" doc:"Replacement tag set"`
	Ingredients *[]LabelBody `json:"ingredients,omitempty" doc:"Replacement ingredient set"`
}

// UpdateRecipeInput wraps the update request for Huma.
type UpdateRecipeInput struct {
	Authorization string `header:"Authorization"`
	ID            int64  `path:"id" doc:"Recipe ID"`
	Body          UpdateRecipeBody
}

// ReplaceRecipeInput wraps a full-replacement request for Huma.
type ReplaceRecipeInput struct {
	Authorization string `header:"Authorization"`
	ID            int64  `path:"id" doc:"Recipe ID"`
	Body          RecipeBody
}

// DeleteRecipeInput contains parameters for deleting a recipe.
type DeleteRecipeInput struct {
	Authorization string `header:"Authorization"`
	ID            int64  `path:"id" doc:"Recipe ID"`
}

// DeleteRecipeOutput is the empty response for a deletion.
type DeleteRecipeOutput struct{}

// SearchRecipesInput contains the search query.
type SearchRecipesInput struct {
	Authorization string `header:"Authorization"`
	Query         string `query:"q" doc:"Full-text query"`
}

// UploadRecipeImageInput carries an uploaded image for a recipe,
// either as raw body bytes or as a multipart form with an "image" field.
type UploadRecipeImageInput struct {
	Authorization string `header:"Authorization"`
	ContentType   string `header:"Content-Type"`
	ID            int64  `path:"id" doc:"Recipe ID"`
	RawBody       []byte
}

// GetRecipeImageInput contains parameters for reading a recipe image.
type GetRecipeImageInput struct {
	Authorization string `header:"Authorization"`
	ID            int64  `path:"id" doc:"Recipe ID"`
}

// RecipeImageOutput returns raw image bytes.
type RecipeImageOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

func toLabelResponses(labels []*domain.Label) []LabelResponse {
	resp := make([]LabelResponse, len(labels))
	for i, l := range labels {
		resp[i] = toLabelResponse(l)
	}
	return resp
}

func toRecipeListItem(r *domain.Recipe) RecipeListItem {
	return RecipeListItem{
		ID:          r.ID,
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price,
		Link:        r.Link,
		Tags:        toLabelResponses(r.Tags),
		Ingredients: toLabelResponses(r.Ingredients),
	}
}

func toRecipeDetail(r *domain.Recipe) RecipeDetail {
	return RecipeDetail{
		RecipeListItem: toRecipeListItem(r),
		Description:    r.Description,
		ImageBlurHash:  r.ImageHash,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func toLabelRequests(bodies []LabelBody) []service.LabelRequest {
	reqs := make([]service.LabelRequest, len(bodies))
	for i, b := range bodies {
		reqs[i] = service.LabelRequest{Name: b.Name}
	}
	return reqs
}

// === Handlers ===

func (s *Server) handleListRecipes(ctx context.Context, input *ListRecipesInput) (*ListRecipesOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	tagIDs, err := parseIDList("tags", input.Tags)
	if err != nil {
		return nil, err
	}
	ingredientIDs, err := parseIDList("ingredients", input.Ingredients)
	if err != nil {
		return nil, err
	}

	recipes, err := s.services.Recipe.List(ctx, user.ID, service.ListRecipesParams{
		TagIDs:        tagIDs,
		IngredientIDs: ingredientIDs,
	})
	if err != nil {
		return nil, err
	}

	resp := make([]RecipeListItem, len(recipes))
	for i, r := range recipes {
		resp[i] = toRecipeListItem(r)
	}
	return &ListRecipesOutput{Body: resp}, nil
}

func (s *Server) handleCreateRecipe(ctx context.Context, input *CreateRecipeInput) (*RecipeOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipe.Create(ctx, user.ID, service.CreateRecipeRequest{
		Title:       input.Body.Title,
		TimeMinutes: input.Body.TimeMinutes,
		Price:       input.Body.Price,
		Link:        input.Body.Link,
		Description: input.Body.Description,
		Tags:        toLabelRequests(input.Body.Tags),
		Ingredients: toLabelRequests(input.Body.Ingredients),
	})
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: toRecipeDetail(recipe)}, nil
}

func (s *Server) handleGetRecipe(ctx context.Context, input *GetRecipeInput) (*RecipeOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipe.Get(ctx, user.ID, input.ID)
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: toRecipeDetail(recipe)}, nil
}

func (s *Server) handleUpdateRecipe(ctx context.Context, input *UpdateRecipeInput) (*RecipeOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	req := service.UpdateRecipeRequest{
		Title:       input.Body.Title,
		TimeMinutes: input.Body.TimeMinutes,
		Price:       input.Body.Price,
		Link:        input.Body.Link,
		Description: input.Body.Description,
	}
	if input.Body.Tags != nil {
		tags := toLabelRequests(*input.Body.Tags)
		req.Tags = &tags
	}
	if input.Body.Ingredients != nil {
		ingredients := toLabelRequests(*input.Body.Ingredients)
		req.Ingredients = &ingredients
	}

	recipe, err := s.services.Recipe.Update(ctx, user.ID, input.ID, req)
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: toRecipeDetail(recipe)}, nil
}

func (s *Server) handleReplaceRecipe(ctx context.Context, input *ReplaceRecipeInput) (*RecipeOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	tags := toLabelRequests(input.Body.Tags)
	ingredients := toLabelRequests(input.Body.Ingredients)

	recipe, err := s.services.Recipe.Update(ctx, user.ID, input.ID, service.UpdateRecipeRequest{
		Title:       &input.Body.Title,
		TimeMinutes: &input.Body.TimeMinutes,
		Price:       &input.Body.Price,
		Link:        &input.Body.Link,
		Description: &input.Body.Description,
		Tags:        &tags,
		Ingredients: &ingredients,
	})
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: toRecipeDetail(recipe)}, nil
}

func (s *Server) handleDeleteRecipe(ctx context.Context, input *DeleteRecipeInput) (*DeleteRecipeOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Recipe.Delete(ctx, user.ID, input.ID); err != nil {
		return nil, err
	}
	return &DeleteRecipeOutput{}, nil
}

func (s *Server) handleSearchRecipes(ctx context.Context, input *SearchRecipesInput) (*ListRecipesOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	recipes, err := s.services.Recipe.Search(ctx, user.ID, input.Query)
	if err != nil {
		return nil, err
	}

	resp := make([]RecipeListItem, len(recipes))
	for i, r := range recipes {
		resp[i] = toRecipeListItem(r)
	}
	return &ListRecipesOutput{Body: resp}, nil
}

func (s *Server) handleUploadRecipeImage(ctx context.Context, input *UploadRecipeImageInput) (*RecipeOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	data, err := imagePayload(input.ContentType, input.RawBody)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipe.UploadImage(ctx, user.ID, input.ID, data)
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: toRecipeDetail(recipe)}, nil
}

// imagePayload extracts the image bytes from an upload. Multipart forms
// must carry the image in an "image" field; any other content type is
// treated as raw image bytes.
func imagePayload(contentType string, body []byte) ([]byte, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "multipart/form-data" {
		return body, nil
	}

	boundary := params["boundary"]
	if boundary == "" {
		return nil, huma.Error400BadRequest("multipart form is missing a boundary")
	}

	mr := multipart.NewReader(bytes.NewReader(body), boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, huma.Error400BadRequest("invalid multipart form")
		}
		if part.FormName() != "image" {
			continue
		}

		data, err := io.ReadAll(part)
		if err != nil {
			return nil, huma.Error400BadRequest("failed to read uploaded image")
		}
		return data, nil
	}

	return nil, huma.Error400BadRequest("multipart form is missing an \"image\" field")
}

func (s *Server) handleGetRecipeImage(ctx context.Context, input *GetRecipeImageInput) (*RecipeImageOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	data, contentType, err := s.services.Recipe.GetImage(ctx, user.ID, input.ID)
	if err != nil {
		return nil, err
	}

	return &RecipeImageOutput{ContentType: contentType, Body: data}, nil
}
