package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saucepanapp/saucepan-server/internal/domain"
)

// setupTestIndex creates a temporary recipe index for testing.
func setupTestIndex(t *testing.T) *RecipeIndex {
	t.Helper()

	index, err := NewRecipeIndex(Options{DataPath: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	return index
}

func TestNewRecipeIndex(t *testing.T) {
	index := setupTestIndex(t)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestRecipeIndex_IndexAndSearch(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.IndexRecipe(&domain.Recipe{
		ID: 1, UserID: "user-a", Title: "Beef Stew", Description: "Slow cooked with root vegetables",
	}))
	require.NoError(t, index.IndexRecipe(&domain.Recipe{
		ID: 2, UserID: "user-a", Title: "Green Salad", Description: "Fresh and crisp",
	}))

	ids, err := index.Search(ctx, "user-a", "stew")
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)

	// Description text is searchable too.
	ids, err = index.Search(ctx, "user-a", "vegetables")
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)
}

func TestRecipeIndex_OwnerScoping(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.IndexRecipe(&domain.Recipe{
		ID: 1, UserID: "user-a", Title: "Beef Stew",
	}))
	require.NoError(t, index.IndexRecipe(&domain.Recipe{
		ID: 2, UserID: "user-b", Title: "Beef Stew Deluxe",
	}))

	ids, err := index.Search(ctx, "user-a", "stew")
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)

	ids, err = index.Search(ctx, "user-b", "stew")
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids)
}

func TestRecipeIndex_UpdateReplacesDocument(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	r := &domain.Recipe{ID: 1, UserID: "user-a", Title: "Beef Stew"}
	require.NoError(t, index.IndexRecipe(r))

	r.Title = "Chicken Soup"
	require.NoError(t, index.IndexRecipe(r))

	ids, err := index.Search(ctx, "user-a", "stew")
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = index.Search(ctx, "user-a", "soup")
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)
}

func TestRecipeIndex_Delete(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.IndexRecipe(&domain.Recipe{
		ID: 1, UserID: "user-a", Title: "Beef Stew",
	}))
	require.NoError(t, index.DeleteRecipe(1))

	ids, err := index.Search(ctx, "user-a", "stew")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRecipeIndex_NoMatches(t *testing.T) {
	index := setupTestIndex(t)

	ids, err := index.Search(context.Background(), "user-a", "nothing indexed")
	require.NoError(t, err)
	assert.Empty(t, ids)
}
