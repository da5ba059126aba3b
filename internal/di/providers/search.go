package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/saucepanapp/saucepan-server/internal/config"
	"github.com/saucepanapp/saucepan-server/internal/logger"
	"github.com/saucepanapp/saucepan-server/internal/search"
	"github.com/saucepanapp/saucepan-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.RecipeIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve search index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewRecipeIndex(search.Options{
		DataPath: cfg.Storage.DataPath,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{RecipeIndex: index}, nil
}

// TriggerSearchReindexIfNeeded rebuilds an empty index when the
// database holds recipes. Happens after a mapping version bump or
// index corruption, both of which start the index from scratch.
// Should be called after all services are wired.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	recipeService := do.MustInvoke[*service.RecipeService](i)
	log := do.MustInvoke[*logger.Logger](i)

	docCount, _ := recipeService.IndexedDocumentCount()
	if docCount > 0 {
		return
	}

	go func() {
		count, err := recipeService.ReindexAll(context.Background())
		if err != nil {
			log.Error("Search reindex failed", "error", err)
			return
		}
		if count > 0 {
			log.Info("Search reindex completed", "documents", count)
		}
	}()
}
