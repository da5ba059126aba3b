package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Tags and ingredients share one route set, so most cases run against
// both resources.
var labelResources = []string{"tags", "ingredients"}

func (ts *testServer) createLabel(t *testing.T, token, plural, name string) LabelResponse {
	t.Helper()

	resp := ts.api.Post("/api/v1/"+plural,
		map[string]any{"name": name},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	return decodeBody[LabelResponse](t, resp.Body.Bytes())
}

func TestCreateLabel_Success(t *testing.T) {
	for _, plural := range labelResources {
		t.Run(plural, func(t *testing.T) {
			ts := setupTestServer(t)
			token := ts.registerAndLogin(t, "cook@example.com")

			label := ts.createLabel(t, token, plural, "Vegan")
			assert.NotZero(t, label.ID)
			assert.Equal(t, "Vegan", label.Name)
		})
	}
}

func TestCreateLabel_IdempotentByName(t *testing.T) {
	for _, plural := range labelResources {
		t.Run(plural, func(t *testing.T) {
			ts := setupTestServer(t)
			token := ts.registerAndLogin(t, "cook@example.com")

			first := ts.createLabel(t, token, plural, "Vegan")
			second := ts.createLabel(t, token, plural, "Vegan")
			assert.Equal(t, first.ID, second.ID)
		})
	}
}

func TestCreateLabel_BlankName(t *testing.T) {
	for _, plural := range labelResources {
		t.Run(plural, func(t *testing.T) {
			ts := setupTestServer(t)
			token := ts.registerAndLogin(t, "cook@example.com")

			resp := ts.api.Post("/api/v1/"+plural,
				map[string]any{"name": "   "},
				"Authorization: Bearer "+token)
			assert.Equal(t, http.StatusBadRequest, resp.Code)
		})
	}
}

func TestListLabels_OrderedByNameDescending(t *testing.T) {
	for _, plural := range labelResources {
		t.Run(plural, func(t *testing.T) {
			ts := setupTestServer(t)
			token := ts.registerAndLogin(t, "cook@example.com")

			for _, name := range []string{"Apple", "Zucchini", "Mango"} {
				ts.createLabel(t, token, plural, name)
			}

			resp := ts.api.Get("/api/v1/"+plural, "Authorization: Bearer "+token)
			require.Equal(t, http.StatusOK, resp.Code)

			labels := decodeBody[[]LabelResponse](t, resp.Body.Bytes())
			require.Len(t, labels, 3)
			assert.Equal(t, "Zucchini", labels[0].Name)
			assert.Equal(t, "Mango", labels[1].Name)
			assert.Equal(t, "Apple", labels[2].Name)
		})
	}
}

func TestListLabels_ScopedToOwner(t *testing.T) {
	for _, plural := range labelResources {
		t.Run(plural, func(t *testing.T) {
			ts := setupTestServer(t)
			owner := ts.registerAndLogin(t, "owner@example.com")
			other := ts.registerAndLogin(t, "other@example.com")

			ts.createLabel(t, owner, plural, "Mine")

			resp := ts.api.Get("/api/v1/"+plural, "Authorization: Bearer "+other)
			require.Equal(t, http.StatusOK, resp.Code)

			labels := decodeBody[[]LabelResponse](t, resp.Body.Bytes())
			assert.Empty(t, labels)
		})
	}
}

func TestListLabels_AssignedOnly(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.registerAndLogin(t, "cook@example.com")

	ts.createLabel(t, token, "tags", "Unused")

	resp := ts.api.Post("/api/v1/recipes", map[string]any{
		"title":        "Lentil soup",
		"time_minutes": 30,
		"price":        "5.00",
		"tags":         []map[string]any{{"name": "Assigned"}},
	}, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	resp = ts.api.Get("/api/v1/tags?assigned_only=1", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	labels := decodeBody[[]LabelResponse](t, resp.Body.Bytes())
	require.Len(t, labels, 1)
	assert.Equal(t, "Assigned", labels[0].Name)

	resp = ts.api.Get("/api/v1/tags?assigned_only=0", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	labels = decodeBody[[]LabelResponse](t, resp.Body.Bytes())
	assert.Len(t, labels, 2)
}

func TestListLabels_AssignedOnlyRejectsOtherValues(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.registerAndLogin(t, "cook@example.com")

	for _, value := range []string{"true", "yes", "2"} {
		resp := ts.api.Get("/api/v1/tags?assigned_only="+value, "Authorization: Bearer "+token)
		assert.Equal(t, http.StatusBadRequest, resp.Code, "value %q", value)
	}
}

func TestUpdateLabel_Rename(t *testing.T) {
	for _, plural := range labelResources {
		t.Run(plural, func(t *testing.T) {
			ts := setupTestServer(t)
			token := ts.registerAndLogin(t, "cook@example.com")

			label := ts.createLabel(t, token, plural, "Vegan")

			resp := ts.api.Patch(fmt.Sprintf("/api/v1/%s/%d", plural, label.ID),
				map[string]any{"name": "Plant Based"},
				"Authorization: Bearer "+token)
			require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

			updated := decodeBody[LabelResponse](t, resp.Body.Bytes())
			assert.Equal(t, label.ID, updated.ID)
			assert.Equal(t, "Plant Based", updated.Name)
		})
	}
}

func TestUpdateLabel_NameCollision(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.registerAndLogin(t, "cook@example.com")

	ts.createLabel(t, token, "tags", "Vegan")
	label := ts.createLabel(t, token, "tags", "Dessert")

	resp := ts.api.Patch(fmt.Sprintf("/api/v1/tags/%d", label.ID),
		map[string]any{"name": "Vegan"},
		"Authorization: Bearer "+token)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestUpdateLabel_CrossOwnerNotFound(t *testing.T) {
	for _, plural := range labelResources {
		t.Run(plural, func(t *testing.T) {
			ts := setupTestServer(t)
			owner := ts.registerAndLogin(t, "owner@example.com")
			other := ts.registerAndLogin(t, "other@example.com")

			label := ts.createLabel(t, owner, plural, "Private")

			resp := ts.api.Patch(fmt.Sprintf("/api/v1/%s/%d", plural, label.ID),
				map[string]any{"name": "Stolen"},
				"Authorization: Bearer "+other)
			assert.Equal(t, http.StatusNotFound, resp.Code)
		})
	}
}

func TestDeleteLabel_Success(t *testing.T) {
	for _, plural := range labelResources {
		t.Run(plural, func(t *testing.T) {
			ts := setupTestServer(t)
			token := ts.registerAndLogin(t, "cook@example.com")

			label := ts.createLabel(t, token, plural, "Doomed")

			resp := ts.api.Delete(fmt.Sprintf("/api/v1/%s/%d", plural, label.ID),
				"Authorization: Bearer "+token)
			assert.Equal(t, http.StatusNoContent, resp.Code)

			resp = ts.api.Get("/api/v1/"+plural, "Authorization: Bearer "+token)
			require.Equal(t, http.StatusOK, resp.Code)
			labels := decodeBody[[]LabelResponse](t, resp.Body.Bytes())
			assert.Empty(t, labels)
		})
	}
}

func TestDeleteLabel_CrossOwnerNotFound(t *testing.T) {
	ts := setupTestServer(t)
	owner := ts.registerAndLogin(t, "owner@example.com")
	other := ts.registerAndLogin(t, "other@example.com")

	label := ts.createLabel(t, owner, "ingredients", "Private")

	resp := ts.api.Delete(fmt.Sprintf("/api/v1/ingredients/%d", label.ID),
		"Authorization: Bearer "+other)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
