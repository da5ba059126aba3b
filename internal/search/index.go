// Package search provides full-text recipe search using Bleve.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/saucepanapp/saucepan-server/internal/domain"
)

// mappingVersion is incremented whenever the index mapping changes.
// A mismatch on startup triggers an automatic rebuild.
const mappingVersion = "1"

// RecipeIndex wraps a Bleve index with recipe-specific operations.
//
// Thread safety: all public methods are safe for concurrent use.
type RecipeIndex struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the recipe index.
type Options struct {
	DataPath string       // Directory for index storage
	Logger   *slog.Logger // Logger for operations
}

// recipeDocument is the shape indexed for each recipe.
type recipeDocument struct {
	UserID      string `json:"user_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// NewRecipeIndex creates or opens the recipe search index.
// A corrupted or outdated index is removed and recreated; the database
// remains the source of truth, so a fresh index just starts empty.
func NewRecipeIndex(opts Options) (*RecipeIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	indexPath := filepath.Join(opts.DataPath, "search.bleve")
	versionPath := filepath.Join(opts.DataPath, "search.version")

	var index bleve.Index
	var err error
	needsRebuild := false

	indexExists := false
	if _, statErr := os.Stat(indexPath); statErr == nil {
		indexExists = true
	}

	if indexExists {
		existingVersion, readErr := os.ReadFile(versionPath)
		if readErr != nil || string(existingVersion) != mappingVersion {
			logger.Info("search index mapping outdated, rebuilding",
				"new_version", mappingVersion,
			)
			needsRebuild = true
		}
	}

	if !needsRebuild && indexExists {
		index, err = bleve.Open(indexPath)
		if err != nil {
			logger.Warn("failed to open existing search index, recreating",
				"path", indexPath,
				"error", err,
			)
			needsRebuild = true
		}
	}

	if needsRebuild {
		if removeErr := os.RemoveAll(indexPath); removeErr != nil {
			return nil, fmt.Errorf("remove old index: %w", removeErr)
		}
		index = nil
	}

	if index == nil {
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if writeErr := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); writeErr != nil {
			logger.Warn("failed to write search version file", "error", writeErr)
		}
		logger.Info("created new search index", "path", indexPath)
	} else {
		logger.Info("opened existing search index", "path", indexPath)
	}

	return &RecipeIndex{
		index:  index,
		path:   indexPath,
		logger: logger,
	}, nil
}

// Close closes the index and releases resources.
func (s *RecipeIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexRecipe adds or updates a recipe in the index.
func (s *RecipeIndex) IndexRecipe(r *domain.Recipe) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.index.Index(docID(r.ID), recipeDocument{
		UserID:      r.UserID,
		Title:       r.Title,
		Description: r.Description,
	})
}

// DeleteRecipe removes a recipe from the index.
func (s *RecipeIndex) DeleteRecipe(id int64) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(docID(id))
}

// Search returns the IDs of the user's recipes matching the query,
// ordered by relevance.
func (s *RecipeIndex) Search(ctx context.Context, userID, queryString string) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	titleMatch := bleve.NewMatchQuery(queryString)
	titleMatch.SetField("title")
	descMatch := bleve.NewMatchQuery(queryString)
	descMatch.SetField("description")

	ownerTerm := bleve.NewTermQuery(userID)
	ownerTerm.SetField("user_id")

	q := bleve.NewBooleanQuery()
	q.AddMust(ownerTerm)
	q.AddMust(bleve.NewDisjunctionQuery(titleMatch, descMatch))

	req := bleve.NewSearchRequestOptions(q, 100, 0, false)

	result, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	ids := make([]int64, 0, len(result.Hits))
	for _, hit := range result.Hits {
		id, err := strconv.ParseInt(hit.ID, 10, 64)
		if err != nil {
			s.logger.Warn("unparseable document id in search index", "id", hit.ID)
			continue
		}
		ids = append(ids, id)
	}

	return ids, nil
}

// DocumentCount returns the total number of indexed recipes.
func (s *RecipeIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

func docID(id int64) string {
	return strconv.FormatInt(id, 10)
}
