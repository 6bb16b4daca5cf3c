// Package model defines domain entities for the application.
package model

import "time"

// User owns ingredients, tags and recipes, and is the subject of authentication.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
