package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/saucepanapp/saucepan-server/internal/domain"
	"github.com/saucepanapp/saucepan-server/internal/store"
)

// recipeColumns is the ordered list of columns selected in recipe queries.
// Must match the scan order in scanRecipe.
const recipeColumns = `id, user_id, title, time_minutes, price, link, description,
	image_path, image_hash, created_at, updated_at`

// scanRecipe scans a sql.Row (or sql.Rows via its Scan method) into a
// domain.Recipe. Associations are loaded separately.
func scanRecipe(scanner interface{ Scan(dest ...any) error }) (*domain.Recipe, error) {
	var r domain.Recipe

	var (
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&r.ID,
		&r.UserID,
		&r.Title,
		&r.TimeMinutes,
		&r.Price,
		&r.Link,
		&r.Description,
		&r.ImagePath,
		&r.ImageHash,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	r.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &r, nil
}

// CreateRecipe inserts a recipe and its label associations in a single
// transaction, so a failed create leaves no orphaned associations.
// On success r.ID is set to the assigned row id.
func (s *Store) CreateRecipe(ctx context.Context, r *domain.Recipe, tagIDs, ingredientIDs []int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO recipes (user_id, title, time_minutes, price, link, description,
			image_path, image_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.UserID,
		r.Title,
		r.TimeMinutes,
		r.Price,
		r.Link,
		r.Description,
		r.ImagePath,
		r.ImageHash,
		formatTime(r.CreatedAt),
		formatTime(r.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert recipe: %w", err)
	}

	r.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}

	if err := replaceAssociations(ctx, tx, "recipe_tags", "tag_id", r.ID, tagIDs); err != nil {
		return err
	}
	if err := replaceAssociations(ctx, tx, "recipe_ingredients", "ingredient_id", r.ID, ingredientIDs); err != nil {
		return err
	}

	return tx.Commit()
}

// GetRecipe retrieves a recipe with its associations, scoped to the owner.
// A recipe owned by someone else returns store.ErrNotFound.
func (s *Store) GetRecipe(ctx context.Context, userID string, recipeID int64) (*domain.Recipe, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE id = ? AND user_id = ?`,
		recipeID, userID)

	r, err := scanRecipe(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadRecipeLabels(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// ListRecipes returns the owner's recipes ordered by id descending.
// Non-empty tagIDs restricts to recipes carrying at least one of the
// tags; same for ingredientIDs. EXISTS subqueries keep each recipe in
// the result exactly once no matter how many filter values it matches.
func (s *Store) ListRecipes(ctx context.Context, userID string, tagIDs, ingredientIDs []int64) ([]*domain.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes WHERE user_id = ?`
	args := []any{userID}

	if len(tagIDs) > 0 {
		query += ` AND EXISTS (SELECT 1 FROM recipe_tags rt
			WHERE rt.recipe_id = recipes.id AND rt.tag_id IN (` + placeholders(len(tagIDs)) + `))`
		for _, id := range tagIDs {
			args = append(args, id)
		}
	}
	if len(ingredientIDs) > 0 {
		query += ` AND EXISTS (SELECT 1 FROM recipe_ingredients ri
			WHERE ri.recipe_id = recipes.id AND ri.ingredient_id IN (` + placeholders(len(ingredientIDs)) + `))`
		for _, id := range ingredientIDs {
			args = append(args, id)
		}
	}

	query += ` ORDER BY id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipes := []*domain.Recipe{}
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, r := range recipes {
		if err := s.loadRecipeLabels(ctx, r); err != nil {
			return nil, err
		}
	}

	return recipes, nil
}

// ListAllRecipes returns every recipe across all owners, without label
// associations. Only the search reindex path uses it.
func (s *Store) ListAllRecipes(ctx context.Context) ([]*domain.Recipe, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipes := []*domain.Recipe{}
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, r)
	}
	return recipes, rows.Err()
}

// UpdateRecipe persists scalar fields and, when the corresponding
// pointer is non-nil, replaces the tag / ingredient association set.
// Everything happens in one transaction; a nil pointer leaves that
// association set untouched (absent != empty list).
func (s *Store) UpdateRecipe(ctx context.Context, r *domain.Recipe, tagIDs, ingredientIDs *[]int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE recipes
		SET title = ?, time_minutes = ?, price = ?, link = ?, description = ?,
			image_path = ?, image_hash = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		r.Title,
		r.TimeMinutes,
		r.Price,
		r.Link,
		r.Description,
		r.ImagePath,
		r.ImageHash,
		formatTime(r.UpdatedAt),
		r.ID,
		r.UserID,
	)
	if err != nil {
		return fmt.Errorf("update recipe: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}

	if tagIDs != nil {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM recipe_tags WHERE recipe_id = ?`, r.ID); err != nil {
			return fmt.Errorf("clear recipe_tags: %w", err)
		}
		if err := replaceAssociations(ctx, tx, "recipe_tags", "tag_id", r.ID, *tagIDs); err != nil {
			return err
		}
	}
	if ingredientIDs != nil {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM recipe_ingredients WHERE recipe_id = ?`, r.ID); err != nil {
			return fmt.Errorf("clear recipe_ingredients: %w", err)
		}
		if err := replaceAssociations(ctx, tx, "recipe_ingredients", "ingredient_id", r.ID, *ingredientIDs); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// DeleteRecipe removes a recipe, scoped to the owner. Association rows
// go with it via FK cascade.
func (s *Store) DeleteRecipe(ctx context.Context, userID string, recipeID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM recipes WHERE id = ? AND user_id = ?`, recipeID, userID)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// loadRecipeLabels populates r.Tags and r.Ingredients.
func (s *Store) loadRecipeLabels(ctx context.Context, r *domain.Recipe) error {
	tags, err := s.queryRecipeLabels(ctx, tagTable, r.ID)
	if err != nil {
		return fmt.Errorf("load recipe tags: %w", err)
	}
	r.Tags = tags

	ingredients, err := s.queryRecipeLabels(ctx, ingredientTable, r.ID)
	if err != nil {
		return fmt.Errorf("load recipe ingredients: %w", err)
	}
	r.Ingredients = ingredients
	return nil
}

func (s *Store) queryRecipeLabels(ctx context.Context, tbl labelTable, recipeID int64) ([]*domain.Label, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT l.id, l.user_id, l.name, l.created_at, l.updated_at
		FROM `+tbl.table+` l
		JOIN `+tbl.joinTable+` jt ON jt.`+tbl.joinCol+` = l.id
		WHERE jt.recipe_id = ?
		ORDER BY l.id`, recipeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	labels := []*domain.Label{}
	for rows.Next() {
		l, err := scanLabel(rows)
		if err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

// replaceAssociations inserts association rows for a recipe. INSERT OR
// IGNORE tolerates duplicate ids in the input; membership is a set.
func replaceAssociations(ctx context.Context, tx *sql.Tx, joinTable, joinCol string, recipeID int64, labelIDs []int64) error {
	for _, labelID := range labelIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO `+joinTable+` (recipe_id, `+joinCol+`)
			VALUES (?, ?)`,
			recipeID, labelID,
		)
		if err != nil {
			return fmt.Errorf("insert %s: %w", joinTable, err)
		}
	}
	return nil
}

// placeholders returns n comma-separated SQL placeholders.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
