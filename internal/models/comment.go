package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment is one actor's comment on one tracked post. Same replace-on-rescrape
// lifecycle as Reaction.
type Comment struct {
	ID        uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	PostID    uuid.UUID `json:"post_id" db:"post_id" gorm:"type:uuid;index;not null"`
	ProfileID uuid.UUID `json:"profile_id" db:"profile_id" gorm:"type:uuid;index;not null"`

	ScopeUser string `json:"scope_user" db:"scope_user" gorm:"index"`

	// CommentURN is the scraper's stable per-comment id; rows without one are
	// dropped at the import boundary.
	CommentURN   string     `json:"comment_urn" db:"comment_urn" gorm:"index"`
	Text         string     `json:"text" db:"text" gorm:"type:text"`
	IsEdited     bool       `json:"is_edited" db:"is_edited" gorm:"default:false"`
	IsPinned     bool       `json:"is_pinned" db:"is_pinned" gorm:"default:false"`
	RepliesCount int        `json:"replies_count" db:"replies_count" gorm:"default:0"`
	PostedAt     *time.Time `json:"posted_at" db:"posted_at"`
	ScrapedAt    time.Time  `json:"scraped_at" db:"scraped_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
}

// TableName sets the table name for the Comment model
func (Comment) TableName() string {
	return "comments"
}
