package api

import (
	"github.com/saucepanapp/saucepan-server/internal/service"
)

// Services groups all business logic services used by the API server.
type Services struct {
	Auth       *service.AuthService
	User       *service.UserService
	Tag        *service.TagService
	Ingredient *service.IngredientService
	Recipe     *service.RecipeService
}
