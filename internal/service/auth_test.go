package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/saucepanapp/saucepan-server/internal/errors"
)

func TestAuthService_Register(t *testing.T) {
	svc := setupServices(t)

	user := registerUser(t, svc, "cook@example.com")
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "cook@example.com", user.Email)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "testpass123", user.PasswordHash)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	registerUser(t, svc, "cook@example.com")

	_, err := svc.auth.Register(ctx, RegisterRequest{
		Email:    "COOK@example.com",
		Password: "anotherpass",
	})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)
}

func TestAuthService_Register_Invalid(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"missing email", RegisterRequest{Password: "testpass123"}},
		{"bad email", RegisterRequest{Email: "nope", Password: "testpass123"}},
		{"short password", RegisterRequest{Email: "cook@example.com", Password: "pw"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.auth.Register(ctx, tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domainerrors.ErrValidation))
		})
	}
}

func TestAuthService_Register_PasswordBoundary(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	// Four characters is one short of the minimum.
	_, err := svc.auth.Register(ctx, RegisterRequest{
		Email:    "cook@example.com",
		Password: "abcd",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrValidation))

	// Five is exactly enough.
	user, err := svc.auth.Register(ctx, RegisterRequest{
		Email:    "cook@example.com",
		Password: "abcde",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
}

func TestAuthService_Login(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	user := registerUser(t, svc, "cook@example.com")

	resp, err := svc.auth.Login(ctx, LoginRequest{
		Email:    "cook@example.com",
		Password: "testpass123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)

	verified, err := svc.auth.VerifyToken(ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, verified.ID)
}

func TestAuthService_Login_ReusesLiveToken(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	registerUser(t, svc, "cook@example.com")

	first, err := svc.auth.Login(ctx, LoginRequest{Email: "cook@example.com", Password: "testpass123"})
	require.NoError(t, err)
	second, err := svc.auth.Login(ctx, LoginRequest{Email: "cook@example.com", Password: "testpass123"})
	require.NoError(t, err)

	assert.Equal(t, first.Token, second.Token)
}

func TestAuthService_Login_BadCredentials(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	registerUser(t, svc, "cook@example.com")

	tests := []struct {
		name string
		req  LoginRequest
	}{
		{"wrong password", LoginRequest{Email: "cook@example.com", Password: "wrongpass"}},
		{"unknown email", LoginRequest{Email: "ghost@example.com", Password: "testpass123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.auth.Login(ctx, tt.req)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, domainerrors.CodeInvalidCredentials, domainErr.Code)
		})
	}
}

func TestAuthService_VerifyToken_Garbage(t *testing.T) {
	svc := setupServices(t)

	_, err := svc.auth.VerifyToken(context.Background(), "v4.local.garbage")
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, domainerrors.CodeUnauthorized, domainErr.Code)
}

func TestAuthService_VerifyToken_RevokedAfterRotation(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	user := registerUser(t, svc, "cook@example.com")

	resp, err := svc.auth.Login(ctx, LoginRequest{Email: "cook@example.com", Password: "testpass123"})
	require.NoError(t, err)

	// Simulate rotation by generating and storing a different token.
	_, err = svc.users.Get(ctx, user.ID)
	require.NoError(t, err)
	other, err := svc.auth.tokenService.GenerateAccessToken(user)
	require.NoError(t, err)
	require.NoError(t, svc.auth.store.SetAuthToken(ctx, user.ID, other))

	_, err = svc.auth.VerifyToken(ctx, resp.Token)
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, domainerrors.CodeUnauthorized, domainErr.Code)
}
