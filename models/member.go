package models

import (
	"time"
)

// DefaultRating is the skill rating assigned to a member with no recorded games.
const DefaultRating = 1200

// Member represents a game-night regular who can compete and hold coins
type Member struct {
	ID              int64     `db:"id"`
	DisplayName     string    `db:"display_name"`
	Rating          int       `db:"rating"`
	RatingUpdatedAt time.Time `db:"rating_updated_at"`
	CreatedAt       time.Time `db:"created_at"`
}
