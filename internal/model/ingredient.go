package model

import "time"

// MaxNameLength is the longest name accepted for ingredients and tags.
const MaxNameLength = 255

// Ingredient is a named ingredient owned by a single user.
type Ingredient struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"-"`
}

// Tag is a named label owned by a single user, used to categorize recipes.
type Tag struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"-"`
}
