package domain

import "time"

// Recipe represents a user-owned recipe with its label associations.
// Tag and ingredient membership is a set: order carries no meaning.
type Recipe struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"-"`
	Title       string    `json:"title"`
	TimeMinutes int       `json:"time_minutes"`
	Price       string    `json:"price"` // Non-negative decimal, e.g. "5.00"
	Link        string    `json:"link,omitempty"`
	Description string    `json:"description"`
	ImagePath   string    `json:"-"` // Filename under image storage, empty when unset
	ImageHash   string    `json:"image_blurhash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Tags        []*Tag        `json:"tags"`
	Ingredients []*Ingredient `json:"ingredients"`
}

// Touch updates the UpdatedAt timestamp.
func (r *Recipe) Touch() {
	r.UpdatedAt = time.Now().UTC()
}

// HasImage reports whether an image has been uploaded for the recipe.
func (r *Recipe) HasImage() bool {
	return r.ImagePath != ""
}
