package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Profile is the canonical record for one real-world actor seen engaging
// with a tracked post. The scraper exposes inconsistent identifiers for the
// same person across sessions, so a profile carries several identifier slots:
//
//   - Urn: the historical single-identifier field, preserved once set
//   - MemberID: the platform-internal opaque id (ACoA... shape)
//   - PublicHandle: the human-chosen vanity slug from the profile URL
//   - AlternativeIDs: identifiers that conflicted with occupied slots
type Profile struct {
	ID           uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Urn          string    `json:"urn" db:"urn" gorm:"index"`
	MemberID     string    `json:"member_id" db:"member_id" gorm:"index"`
	PublicHandle string    `json:"public_handle" db:"public_handle" gorm:"index"`

	DisplayName string         `json:"display_name" db:"display_name"`
	Headline    string         `json:"headline" db:"headline"`
	ProfileURL  string         `json:"profile_url" db:"profile_url"`
	PictureURLs pq.StringArray `json:"picture_urls" db:"picture_urls" gorm:"type:text[]"`

	// Identifiers that could not be placed in any slot without clobbering an
	// existing value. Append-only.
	AlternativeIDs pq.StringArray `json:"alternative_ids" db:"alternative_ids" gorm:"type:text[]"`

	// Enrichment fields, populated only by the enrichment pipeline.
	FirstName        string     `json:"first_name" db:"first_name"`
	LastName         string     `json:"last_name" db:"last_name"`
	Location         string     `json:"location" db:"location"`
	CurrentTitle     string     `json:"current_title" db:"current_title"`
	CurrentCompany   string     `json:"current_company" db:"current_company"`
	CompanyURL       string     `json:"company_url" db:"company_url"`
	PublicIdentifier string     `json:"public_identifier" db:"public_identifier" gorm:"index"`
	EnrichedAt       *time.Time `json:"enriched_at" db:"enriched_at"`
	LastEnrichedAt   *time.Time `json:"last_enriched_at" db:"last_enriched_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Reactions []Reaction `json:"reactions,omitempty" gorm:"foreignKey:ProfileID"`
	Comments  []Comment  `json:"comments,omitempty" gorm:"foreignKey:ProfileID"`
}

// TableName sets the table name for the Profile model
func (Profile) TableName() string {
	return "profiles"
}

// NeedsEnrichment reports whether the profile still lacks enrichment detail.
func (p *Profile) NeedsEnrichment() bool {
	return p.FirstName == ""
}

// KnownIdentifiers returns every non-empty identifier value currently held
// by the profile, across all slots. Used by the duplicate unifier for
// cross-field candidate matching.
func (p *Profile) KnownIdentifiers() []string {
	var ids []string
	for _, v := range []string{p.MemberID, p.PublicHandle, p.Urn, p.PublicIdentifier} {
		if v != "" {
			ids = append(ids, v)
		}
	}
	ids = append(ids, p.AlternativeIDs...)
	return ids
}

// HasAlternativeID reports whether the given identifier is already recorded
// in the alternative identifier set.
func (p *Profile) HasAlternativeID(id string) bool {
	for _, existing := range p.AlternativeIDs {
		if existing == id {
			return true
		}
	}
	return false
}
