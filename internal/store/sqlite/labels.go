package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/saucepanapp/saucepan-server/internal/domain"
	"github.com/saucepanapp/saucepan-server/internal/store"
)

// labelTable describes one of the two label catalogs. Tags and
// ingredients share every rule, so the SQL is written once against this
// descriptor.
type labelTable struct {
	table     string // labels table
	joinTable string // recipe association table
	joinCol   string // label FK column in the join table
}

var (
	tagTable        = labelTable{table: "tags", joinTable: "recipe_tags", joinCol: "tag_id"}
	ingredientTable = labelTable{table: "ingredients", joinTable: "recipe_ingredients", joinCol: "ingredient_id"}
)

// labelColumns is the ordered list of columns selected in label queries.
// Must match the scan order in scanLabel.
const labelColumns = `id, user_id, name, created_at, updated_at`

// scanLabel scans a sql.Row (or sql.Rows via its Scan method) into a domain.Label.
func scanLabel(scanner interface{ Scan(dest ...any) error }) (*domain.Label, error) {
	var l domain.Label

	var (
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&l.ID,
		&l.UserID,
		&l.Name,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	l.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &l, nil
}

func (s *Store) getLabelByName(ctx context.Context, tbl labelTable, userID, name string) (*domain.Label, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+labelColumns+` FROM `+tbl.table+` WHERE user_id = ? AND name = ?`,
		userID, name)

	l, err := scanLabel(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

// findOrCreateLabel finds an existing (owner, name) label or creates one.
// Returns (label, created, error). The UNIQUE(user_id, name) constraint
// makes the check-then-act atomic: a concurrent insert of the same pair
// surfaces as a constraint violation and we re-read the winner.
func (s *Store) findOrCreateLabel(ctx context.Context, tbl labelTable, userID, name string) (*domain.Label, bool, error) {
	existing, err := s.getLabelByName(ctx, tbl, userID, name)
	if err == nil {
		return existing, false, nil
	}
	if err != store.ErrNotFound {
		return nil, false, err
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO `+tbl.table+` (user_id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?)`,
		userID, name, formatTime(now), formatTime(now),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			// Lost the race: another request created it.
			winner, err := s.getLabelByName(ctx, tbl, userID, name)
			if err != nil {
				return nil, false, err
			}
			return winner, false, nil
		}
		return nil, false, err
	}

	labelID, err := res.LastInsertId()
	if err != nil {
		return nil, false, fmt.Errorf("last insert id: %w", err)
	}

	return &domain.Label{
		ID:        labelID,
		UserID:    userID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}, true, nil
}

// listLabels returns all labels for an owner, ordered by name descending.
// With assignedOnly, only labels attached to at least one recipe are
// returned.
func (s *Store) listLabels(ctx context.Context, tbl labelTable, userID string, assignedOnly bool) ([]*domain.Label, error) {
	query := `SELECT ` + labelColumns + ` FROM ` + tbl.table + ` WHERE user_id = ?`
	if assignedOnly {
		query += ` AND EXISTS (SELECT 1 FROM ` + tbl.joinTable + ` jt WHERE jt.` + tbl.joinCol + ` = ` + tbl.table + `.id)`
	}
	query += ` ORDER BY name DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
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
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return labels, nil
}

// getLabel retrieves a label by ID, scoped to the owner.
// A label owned by a different user is indistinguishable from a missing
// one: both return store.ErrNotFound.
func (s *Store) getLabel(ctx context.Context, tbl labelTable, userID string, labelID int64) (*domain.Label, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+labelColumns+` FROM `+tbl.table+` WHERE id = ? AND user_id = ?`,
		labelID, userID)

	l, err := scanLabel(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

// updateLabel persists a label rename, scoped to the owner.
func (s *Store) updateLabel(ctx context.Context, tbl labelTable, l *domain.Label) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE `+tbl.table+` SET name = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		l.Name, formatTime(l.UpdatedAt), l.ID, l.UserID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
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

// deleteLabel removes a label and its recipe associations (FK cascade),
// scoped to the owner.
func (s *Store) deleteLabel(ctx context.Context, tbl labelTable, userID string, labelID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM `+tbl.table+` WHERE id = ? AND user_id = ?`, labelID, userID)
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

// === Tags ===

// FindOrCreateTag finds an existing (owner, name) tag or creates one.
func (s *Store) FindOrCreateTag(ctx context.Context, userID, name string) (*domain.Tag, bool, error) {
	return s.findOrCreateLabel(ctx, tagTable, userID, name)
}

// ListTags returns all tags for an owner, ordered by name descending.
func (s *Store) ListTags(ctx context.Context, userID string, assignedOnly bool) ([]*domain.Tag, error) {
	return s.listLabels(ctx, tagTable, userID, assignedOnly)
}

// GetTag retrieves a tag by ID, scoped to the owner.
func (s *Store) GetTag(ctx context.Context, userID string, tagID int64) (*domain.Tag, error) {
	return s.getLabel(ctx, tagTable, userID, tagID)
}

// UpdateTag persists a tag rename, scoped to the owner.
func (s *Store) UpdateTag(ctx context.Context, t *domain.Tag) error {
	return s.updateLabel(ctx, tagTable, t)
}

// DeleteTag removes a tag, scoped to the owner.
func (s *Store) DeleteTag(ctx context.Context, userID string, tagID int64) error {
	return s.deleteLabel(ctx, tagTable, userID, tagID)
}

// === Ingredients ===

// FindOrCreateIngredient finds an existing (owner, name) ingredient or creates one.
func (s *Store) FindOrCreateIngredient(ctx context.Context, userID, name string) (*domain.Ingredient, bool, error) {
	return s.findOrCreateLabel(ctx, ingredientTable, userID, name)
}

// ListIngredients returns all ingredients for an owner, ordered by name descending.
func (s *Store) ListIngredients(ctx context.Context, userID string, assignedOnly bool) ([]*domain.Ingredient, error) {
	return s.listLabels(ctx, ingredientTable, userID, assignedOnly)
}

// GetIngredient retrieves an ingredient by ID, scoped to the owner.
func (s *Store) GetIngredient(ctx context.Context, userID string, ingredientID int64) (*domain.Ingredient, error) {
	return s.getLabel(ctx, ingredientTable, userID, ingredientID)
}

// UpdateIngredient persists an ingredient rename, scoped to the owner.
func (s *Store) UpdateIngredient(ctx context.Context, i *domain.Ingredient) error {
	return s.updateLabel(ctx, ingredientTable, i)
}

// DeleteIngredient removes an ingredient, scoped to the owner.
func (s *Store) DeleteIngredient(ctx context.Context, userID string, ingredientID int64) error {
	return s.deleteLabel(ctx, ingredientTable, userID, ingredientID)
}
