package models

import "time"

// User mirrors the platform API's user record. It is never mutated locally;
// profile changes go upstream and the mirror is replaced by a full refetch.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	IsAdmin   bool      `json:"is_admin"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
