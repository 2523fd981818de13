package models

import (
	"time"

	"github.com/google/uuid"
)

// Reaction is one actor's reaction to one tracked post. Rows for a
// (post, scope user) pair are fully replaced on every rescrape, never
// patched in place.
type Reaction struct {
	ID        uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	PostID    uuid.UUID `json:"post_id" db:"post_id" gorm:"type:uuid;index;not null"`
	ProfileID uuid.UUID `json:"profile_id" db:"profile_id" gorm:"type:uuid;index;not null"`

	// ScopeUser is the scrape account the rows were collected under.
	ScopeUser    string    `json:"scope_user" db:"scope_user" gorm:"index"`
	ReactionType string    `json:"reaction_type" db:"reaction_type"`
	ScrapedAt    time.Time `json:"scraped_at" db:"scraped_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
}

// TableName sets the table name for the Reaction model
func (Reaction) TableName() string {
	return "reactions"
}
