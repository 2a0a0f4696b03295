// Package users owns accounts, credentials, and the per-user activity
// counters. The counters are written only by recomputation paths (relations,
// engagement, reconciler); nothing in this package increments them.
package users

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Stats are denormalized counters derived from edge and engagement rows.
type Stats struct {
	Followers      int `json:"followers"`
	Following      int `json:"following"`
	FavoritesCount int `json:"favorites_count"`
	WatchlistCount int `json:"watchlist_count"`
	TotalReviews   int `json:"total_reviews"`
	TotalComments  int `json:"total_comments"`
}

// User is an account document. PasswordHash never serializes.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	Role         Role      `json:"role"`
	Bio          string    `json:"bio,omitempty"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	PasswordHash string    `json:"-"`
	Stats        Stats     `json:"stats"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
