package models

import "time"

// Course mirrors the platform API's course record. Like state and count are
// patched optimistically after a like action; everything else is replaced
// wholesale on the next catalog refresh.
type Course struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       int64     `json:"price_cents"`
	Duration    string    `json:"duration"`
	MediaURL    string    `json:"media_url"`
	Liked       bool      `json:"liked"`
	LikeCount   int       `json:"like_count"`
	Purchased   bool      `json:"purchased"`
	CreatedAt   time.Time `json:"created_at"`
}
