package api

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saucepanapp/saucepan-server/internal/auth"
	"github.com/saucepanapp/saucepan-server/internal/media/images"
	"github.com/saucepanapp/saucepan-server/internal/ratelimit"
	"github.com/saucepanapp/saucepan-server/internal/search"
	"github.com/saucepanapp/saucepan-server/internal/service"
	"github.com/saucepanapp/saucepan-server/internal/store/sqlite"
	"github.com/saucepanapp/saucepan-server/internal/validation"
)

// testServer wraps the API server for handler testing.
type testServer struct {
	*Server
	api humatest.TestAPI
}

// setupTestServer creates a server on throwaway storage with a
// permissive login rate limiter.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	return setupTestServerWithLimiter(t, ratelimit.New(1000, 1000))
}

func setupTestServerWithLimiter(t *testing.T, limiter *ratelimit.KeyedRateLimiter) *testServer {
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

	services := &Services{
		Auth:       service.NewAuthService(st, tokenService, validator, logger),
		User:       service.NewUserService(st, validator, logger),
		Tag:        service.NewTagService(st, validator, logger),
		Ingredient: service.NewIngredientService(st, validator, logger),
		Recipe:     service.NewRecipeService(st, searchIndex, imageStore, validator, logger),
	}

	s := NewServer(services, limiter, logger)

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, s.api),
	}
}

// registerAndLogin creates an account through the API and returns an
// access token for it.
func (ts *testServer) registerAndLogin(t *testing.T, email string) string {
	t.Helper()

	resp := ts.api.Post("/api/v1/users", map[string]any{
		"email":    email,
		"password": "testpass123",
		"name":     "Test User",
	})
	require.Equal(t, http.StatusCreated, resp.Code, "registration failed: %s", resp.Body.String())

	resp = ts.api.Post("/api/v1/users/token", map[string]any{
		"email":    email,
		"password": "testpass123",
	})
	require.Equal(t, http.StatusOK, resp.Code, "login failed: %s", resp.Body.String())

	var body TokenResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)
	return body.Token
}

// decodeBody unmarshals a response body into T.
func decodeBody[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v))
	return v
}

// testPNG returns a small valid PNG image.
func testPNG(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 32), G: uint8(y * 32), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	assert.Equal(t, http.StatusOK, resp.Code)

	body := decodeBody[HealthResponse](t, resp.Body.Bytes())
	assert.Equal(t, "healthy", body.Status)
}
