package domain

import "time"

// Label is the shared shape of user-owned name catalogs.
// Tags and ingredients are both labels: owned by one user, deduplicated
// by (owner, name), attached many-to-many to recipes.
type Label struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp.
func (l *Label) Touch() {
	l.UpdatedAt = time.Now().UTC()
}

// Tag categorizes recipes within a single user's catalog.
type Tag = Label

// Ingredient names a recipe component within a single user's catalog.
// Same shape and rules as Tag, independent namespace.
type Ingredient = Label
