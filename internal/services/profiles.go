package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"postpulse/internal/identity"
	"postpulse/internal/linkedin"
	"postpulse/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ProfilesService resolves raw actor references to canonical profile rows.
// It either updates an existing profile (preserving identifiers already on
// the row) or inserts a new one.
type ProfilesService struct {
	db      *gorm.DB
	matcher *identity.Matcher
}

// NewProfilesService creates a new ProfilesService
func NewProfilesService(db *gorm.DB) *ProfilesService {
	return &ProfilesService{
		db:      db,
		matcher: identity.NewMatcher(db),
	}
}

// UpsertResult reports the outcome of resolving one actor.
type UpsertResult struct {
	ProfileID       uuid.UUID
	Created         bool
	NeedsEnrichment bool
}

// Upsert resolves one raw actor reference to a profile id, creating the
// profile when no match exists. Identifier slots already occupied on a
// matched profile are never replaced; a conflicting incoming value lands in
// the alternative identifier set instead.
func (s *ProfilesService) Upsert(ctx context.Context, actor linkedin.Actor) (UpsertResult, error) {
	memberID, publicHandle := identity.Extract(actor.ProfileURL, actor.Urn)

	existing, err := s.matcher.Find(ctx, identity.Query{
		MemberID:     memberID,
		PublicHandle: publicHandle,
		RawURN:       actor.Urn,
		DisplayName:  actor.Name,
		Headline:     actor.Headline,
	})
	if err != nil {
		return UpsertResult{}, fmt.Errorf("failed to match actor %q: %w", actor.Name, err)
	}

	if existing == nil {
		return s.insert(ctx, actor, memberID, publicHandle)
	}
	return s.update(ctx, existing, actor, memberID, publicHandle)
}

// insert creates a new profile for an actor with no existing match.
func (s *ProfilesService) insert(ctx context.Context, actor linkedin.Actor, memberID, publicHandle string) (UpsertResult, error) {
	profile := models.Profile{
		Urn:          incomingUrn(actor, publicHandle),
		MemberID:     memberID,
		PublicHandle: publicHandle,
		DisplayName:  actor.Name,
		Headline:     actor.Headline,
		ProfileURL:   actor.ProfileURL,
		PictureURLs:  pq.StringArray(actor.PictureURLs),
	}

	if err := s.db.WithContext(ctx).Create(&profile).Error; err != nil {
		return UpsertResult{}, fmt.Errorf("failed to create profile for %q: %w", actor.Name, err)
	}

	return UpsertResult{ProfileID: profile.ID, Created: true, NeedsEnrichment: true}, nil
}

// update refreshes a matched profile. Descriptive fields always take the
// latest scrape; identifier slots are only ever supplemented, never replaced.
func (s *ProfilesService) update(ctx context.Context, existing *models.Profile, actor linkedin.Actor, memberID, publicHandle string) (UpsertResult, error) {
	patch := map[string]interface{}{
		"display_name": actor.Name,
		"headline":     actor.Headline,
		"profile_url":  actor.ProfileURL,
		"updated_at":   time.Now(),
	}
	if len(actor.PictureURLs) > 0 {
		patch["picture_urls"] = pq.StringArray(actor.PictureURLs)
	}

	alternatives := existing.AlternativeIDs

	// The legacy urn field is best-effort preserved: a different non-empty
	// incoming value is recorded as an alternative rather than applied.
	incoming := incomingUrn(actor, publicHandle)
	if existing.Urn == "" && incoming != "" {
		patch["urn"] = incoming
	} else if incoming != "" && incoming != existing.Urn {
		alternatives = appendUnique(alternatives, existing, incoming)
	}

	if memberID != "" {
		if existing.MemberID == "" {
			patch["member_id"] = memberID
		} else if existing.MemberID != memberID {
			alternatives = appendUnique(alternatives, existing, memberID)
		}
	}

	if publicHandle != "" {
		if existing.PublicHandle == "" {
			patch["public_handle"] = publicHandle
		} else if existing.PublicHandle != publicHandle {
			alternatives = appendUnique(alternatives, existing, publicHandle)
		}
	}

	// A raw urn that fits neither slot is kept for provenance instead of
	// being discarded.
	if actor.Urn != "" && actor.Urn != existing.MemberID && actor.Urn != existing.PublicHandle &&
		actor.Urn != existing.Urn && actor.Urn != memberID && actor.Urn != publicHandle {
		alternatives = appendUnique(alternatives, existing, actor.Urn)
	}

	if len(alternatives) != len(existing.AlternativeIDs) {
		patch["alternative_ids"] = alternatives
	}

	err := s.db.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ?", existing.ID).
		Updates(patch).Error
	if err != nil {
		return UpsertResult{}, fmt.Errorf("failed to update profile %s: %w", existing.ID, err)
	}

	return UpsertResult{
		ProfileID:       existing.ID,
		Created:         false,
		NeedsEnrichment: existing.NeedsEnrichment(),
	}, nil
}

// incomingUrn is the legacy-field candidate for an actor: the derived handle
// when one exists, the full profile URL otherwise.
func incomingUrn(actor linkedin.Actor, publicHandle string) string {
	if publicHandle != "" {
		return publicHandle
	}
	if handle := identity.HandleFromURL(actor.ProfileURL); handle != "" {
		return handle
	}
	if actor.ProfileURL != "" {
		return actor.ProfileURL
	}
	return actor.Urn
}

// appendUnique adds a conflicting identifier to the alternative set unless
// the profile already carries it somewhere.
func appendUnique(alternatives pq.StringArray, existing *models.Profile, value string) pq.StringArray {
	if value == "" || value == existing.Urn || value == existing.MemberID || value == existing.PublicHandle {
		return alternatives
	}
	for _, id := range alternatives {
		if id == value {
			return alternatives
		}
	}
	log.Printf("📎 Recording alternative identifier %q for profile %s", value, existing.ID)
	return append(alternatives, value)
}
