// Package store defines the persistence interface and its error values.
package store

import (
	"context"
	"errors"

	"github.com/saucepanapp/saucepan-server/internal/domain"
)

// Sentinel errors returned by store implementations.
var (
	// ErrNotFound indicates the requested row does not exist, or is not
	// visible to the requesting owner. Implementations never distinguish
	// the two cases.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a uniqueness constraint was violated.
	ErrAlreadyExists = errors.New("already exists")

	// ErrEmailExists indicates the email is already registered.
	ErrEmailExists = errors.New("email already exists")
)

// Store is the persistence interface used by services.
//
// Every owner-scoped method takes the owner's user ID explicitly; there
// is no ambient caller identity anywhere below the API layer.
type Store interface {
	UserStore
	TokenStore
	LabelStore
	RecipeStore

	Close() error
}

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, u *domain.User) error
}

// TokenStore persists the single active auth token per user.
type TokenStore interface {
	GetAuthToken(ctx context.Context, userID string) (string, error)
	SetAuthToken(ctx context.Context, userID, token string) error
	DeleteAuthToken(ctx context.Context, userID string) error
}

// LabelStore persists tags and ingredients. The two catalogs share
// shape and rules but are independent namespaces.
type LabelStore interface {
	FindOrCreateTag(ctx context.Context, userID, name string) (*domain.Tag, bool, error)
	ListTags(ctx context.Context, userID string, assignedOnly bool) ([]*domain.Tag, error)
	GetTag(ctx context.Context, userID string, tagID int64) (*domain.Tag, error)
	UpdateTag(ctx context.Context, t *domain.Tag) error
	DeleteTag(ctx context.Context, userID string, tagID int64) error

	FindOrCreateIngredient(ctx context.Context, userID, name string) (*domain.Ingredient, bool, error)
	ListIngredients(ctx context.Context, userID string, assignedOnly bool) ([]*domain.Ingredient, error)
	GetIngredient(ctx context.Context, userID string, ingredientID int64) (*domain.Ingredient, error)
	UpdateIngredient(ctx context.Context, i *domain.Ingredient) error
	DeleteIngredient(ctx context.Context, userID string, ingredientID int64) error
}

// RecipeStore persists recipes and their label associations.
//
// Association arguments on UpdateRecipe are tri-state: a nil pointer
// leaves the association set untouched, a pointer to an empty slice
// clears it, a pointer to a non-empty slice replaces it.
type RecipeStore interface {
	CreateRecipe(ctx context.Context, r *domain.Recipe, tagIDs, ingredientIDs []int64) error
	GetRecipe(ctx context.Context, userID string, recipeID int64) (*domain.Recipe, error)
	ListRecipes(ctx context.Context, userID string, tagIDs, ingredientIDs []int64) ([]*domain.Recipe, error)
	// ListAllRecipes returns every recipe across all owners, without
	// label associations. Used to rebuild the search index.
	ListAllRecipes(ctx context.Context) ([]*domain.Recipe, error)
	UpdateRecipe(ctx context.Context, r *domain.Recipe, tagIDs, ingredientIDs *[]int64) error
	DeleteRecipe(ctx context.Context, userID string, recipeID int64) error
}
