package models

import (
	"time"

	"github.com/google/uuid"
)

// TrackedPost is a post whose engagement (reactions, comments) is being
// scraped and imported.
type TrackedPost struct {
	ID         uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	PostURN    string    `json:"post_urn" db:"post_urn" gorm:"uniqueIndex;not null"`
	PostURL    string    `json:"post_url" db:"post_url"`
	AuthorName string    `json:"author_name" db:"author_name"`

	LastScrapedAt *time.Time `json:"last_scraped_at" db:"last_scraped_at"`
	NeedsRescrape bool       `json:"needs_rescrape" db:"needs_rescrape" gorm:"default:true"`

	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Reactions []Reaction `json:"reactions,omitempty" gorm:"foreignKey:PostID"`
	Comments  []Comment  `json:"comments,omitempty" gorm:"foreignKey:PostID"`
}

// TableName sets the table name for the TrackedPost model
func (TrackedPost) TableName() string {
	return "tracked_posts"
}
