// Package linkedin talks to the external scrape/enrichment provider and
// defines the raw payload shapes it returns. The provider's payloads are
// loosely shaped; every optional field is explicit here and validated at the
// import boundary, never deeper in the pipeline.
package linkedin

import "time"

// Actor is the author/reactor block attached to a scraped interaction.
// It is ephemeral input to identity extraction and is never persisted as-is.
type Actor struct {
	Name        string   `json:"name"`
	Headline    string   `json:"headline,omitempty"`
	ProfileURL  string   `json:"profileUrl,omitempty"`
	Urn         string   `json:"urn,omitempty"`
	PictureURLs []string `json:"pictureUrls,omitempty"`
}

// IsUsable reports whether the actor block carries enough to resolve a
// profile: at least a profile URL or a raw urn.
func (a *Actor) IsUsable() bool {
	return a != nil && (a.ProfileURL != "" || a.Urn != "")
}

// RefKey is the actor's original reference key, used to map raw interactions
// back to resolved profiles. Profile URL first, raw urn as fallback.
func (a *Actor) RefKey() string {
	if a == nil {
		return ""
	}
	if a.ProfileURL != "" {
		return a.ProfileURL
	}
	return a.Urn
}

// RawReaction is one scraped reaction on a post.
type RawReaction struct {
	Actor        *Actor `json:"actor,omitempty"`
	ReactionType string `json:"reactionType,omitempty"`
}

// RawComment is one scraped comment on a post.
type RawComment struct {
	Actor        *Actor     `json:"actor,omitempty"`
	CommentURN   string     `json:"commentUrn,omitempty"`
	Text         string     `json:"text,omitempty"`
	IsEdited     bool       `json:"isEdited,omitempty"`
	IsPinned     bool       `json:"isPinned,omitempty"`
	RepliesCount int        `json:"repliesCount,omitempty"`
	PostedAt     *time.Time `json:"postedAt,omitempty"`
}

// ProfileDetail is one per-key result from the enrichment endpoint.
type ProfileDetail struct {
	LookupKey        string `json:"lookupKey"`
	NotFound         bool   `json:"notFound,omitempty"`
	FirstName        string `json:"firstName,omitempty"`
	LastName         string `json:"lastName,omitempty"`
	Location         string `json:"location,omitempty"`
	CurrentTitle     string `json:"currentTitle,omitempty"`
	CurrentCompany   string `json:"currentCompany,omitempty"`
	CompanyURL       string `json:"companyUrl,omitempty"`
	PublicIdentifier string `json:"publicIdentifier,omitempty"`
	MemberURN        string `json:"memberUrn,omitempty"`
}
