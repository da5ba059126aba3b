package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/saucepanapp/saucepan-server/internal/errors"
)

func strPtr(s string) *string { return &s }

func TestUserService_Get(t *testing.T) {
	svc := setupServices(t)

	user := registerUser(t, svc, "cook@example.com")

	got, err := svc.users.Get(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)
}

func TestUserService_Get_Unknown(t *testing.T) {
	svc := setupServices(t)

	_, err := svc.users.Get(context.Background(), "user-missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrNotFound))
}

func TestUserService_Update_Partial(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	user := registerUser(t, svc, "cook@example.com")

	got, err := svc.users.Update(ctx, user.ID, UpdateProfileRequest{
		Name: strPtr("New Name"),
	})
	require.NoError(t, err)
	assert.Equal(t, "New Name", got.Name)
	// Untouched fields survive.
	assert.Equal(t, "cook@example.com", got.Email)
}

func TestUserService_Update_PasswordRehash(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	user := registerUser(t, svc, "cook@example.com")
	oldHash := user.PasswordHash

	updated, err := svc.users.Update(ctx, user.ID, UpdateProfileRequest{
		Password: strPtr("newsecret"),
	})
	require.NoError(t, err)
	assert.NotEqual(t, oldHash, updated.PasswordHash)
	assert.NotContains(t, updated.PasswordHash, "newsecret")

	// New password works for login, old one doesn't.
	_, err = svc.auth.Login(ctx, LoginRequest{Email: "cook@example.com", Password: "newsecret"})
	assert.NoError(t, err)
	_, err = svc.auth.Login(ctx, LoginRequest{Email: "cook@example.com", Password: "testpass123"})
	assert.Error(t, err)
}

func TestUserService_Update_EmailCollision(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	registerUser(t, svc, "first@example.com")
	second := registerUser(t, svc, "second@example.com")

	_, err := svc.users.Update(ctx, second.ID, UpdateProfileRequest{
		Email: strPtr("first@example.com"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrValidation))
}

func TestUserService_Update_InvalidFields(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	user := registerUser(t, svc, "cook@example.com")

	_, err := svc.users.Update(ctx, user.ID, UpdateProfileRequest{Email: strPtr("nope")})
	assert.True(t, errors.Is(err, domainerrors.ErrValidation))

	_, err = svc.users.Update(ctx, user.ID, UpdateProfileRequest{Password: strPtr("pw")})
	assert.True(t, errors.Is(err, domainerrors.ErrValidation))
}
