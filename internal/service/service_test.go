package service

import (
	"context"
	"encoding/hex"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/saucepanapp/saucepan-server/internal/auth"
	"github.com/saucepanapp/saucepan-server/internal/domain"
	"github.com/saucepanapp/saucepan-server/internal/media/images"
	"github.com/saucepanapp/saucepan-server/internal/search"
	"github.com/saucepanapp/saucepan-server/internal/store/sqlite"
	"github.com/saucepanapp/saucepan-server/internal/validation"
)

// testServices bundles every service wired against throwaway storage.
type testServices struct {
	auth        *AuthService
	users       *UserService
	tags        *TagService
	ingredients *IngredientService
	recipes     *RecipeService
}

// setupServices creates the full service stack on temporary storage.
func setupServices(t *testing.T) *testServices {
	t.Helper()

	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := sqlite.Open(filepath.Join(dir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	authKey, err := auth.LoadOrGenerateKey(dir)
	require.NoError(t, err)
	tokenService, err := auth.NewTokenService(hex.EncodeToString(authKey), time.Hour)
	require.NoError(t, err)

	searchIndex, err := search.NewRecipeIndex(search.Options{DataPath: dir, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = searchIndex.Close() })

	imageStore, err := images.NewStorage(dir)
	require.NoError(t, err)

	validator := validation.New()

	return &testServices{
		auth:        NewAuthService(st, tokenService, validator, logger),
		users:       NewUserService(st, validator, logger),
		tags:        NewTagService(st, validator, logger),
		ingredients: NewIngredientService(st, validator, logger),
		recipes:     NewRecipeService(st, searchIndex, imageStore, validator, logger),
	}
}

// registerUser registers a user and returns it.
func registerUser(t *testing.T, svc *testServices, email string) *domain.User {
	t.Helper()
	user, err := svc.auth.Register(context.Background(), RegisterRequest{
		Email:    email,
		Password: "testpass123",
		Name:     "Test User",
	})
	require.NoError(t, err)
	return user
}
