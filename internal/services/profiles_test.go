package services

import (
	"context"
	"testing"

	"postpulse/internal/linkedin"
	"postpulse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfilesService_UpsertIdempotence(t *testing.T) {
	db := setupTestDB(t)
	service := NewProfilesService(db)
	ctx := context.Background()

	actor := linkedin.Actor{
		Name:       "Jane Doe",
		Headline:   "Engineer",
		ProfileURL: "https://www.linkedin.com/in/ACoAjanedoe123",
	}

	first, err := service.Upsert(ctx, actor)
	require.NoError(t, err)
	assert.True(t, first.Created)

	second, err := service.Upsert(ctx, actor)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.ProfileID, second.ProfileID)

	var count int64
	db.Model(&models.Profile{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestProfilesService_VanityURLSecondScrape(t *testing.T) {
	db := setupTestDB(t)
	service := NewProfilesService(db)
	ctx := context.Background()

	// First scrape exposes the opaque member id URL.
	first, err := service.Upsert(ctx, linkedin.Actor{
		Name:       "Jane Doe",
		Headline:   "Engineer",
		ProfileURL: "https://www.linkedin.com/in/ACoAjanedoe123",
	})
	require.NoError(t, err)
	assert.True(t, first.Created)

	var profile models.Profile
	require.NoError(t, db.First(&profile, "id = ?", first.ProfileID).Error)
	assert.Equal(t, "ACoAjanedoe123", profile.MemberID)
	assert.Empty(t, profile.PublicHandle)

	// Second scrape exposes the vanity URL; identifiers no longer overlap, so
	// the match falls through to name+headline.
	second, err := service.Upsert(ctx, linkedin.Actor{
		Name:       "Jane Doe",
		Headline:   "Engineer",
		ProfileURL: "https://www.linkedin.com/in/jane-doe-eng",
	})
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.ProfileID, second.ProfileID)

	require.NoError(t, db.First(&profile, "id = ?", first.ProfileID).Error)
	assert.Equal(t, "ACoAjanedoe123", profile.MemberID, "existing member id must not change")
	assert.Equal(t, "jane-doe-eng", profile.PublicHandle, "empty handle slot gets filled")
}

func TestProfilesService_NonDestructiveIdentifiers(t *testing.T) {
	db := setupTestDB(t)
	service := NewProfilesService(db)
	ctx := context.Background()

	first, err := service.Upsert(ctx, linkedin.Actor{
		Name:       "Sam Smith",
		Headline:   "Designer",
		ProfileURL: "https://www.linkedin.com/in/ACoAsamsmith1",
	})
	require.NoError(t, err)

	// The same person (matched via name+headline) now shows a different
	// member id. The occupied slot must not be overwritten; the conflicting
	// value lands in the alternative set.
	second, err := service.Upsert(ctx, linkedin.Actor{
		Name:       "Sam Smith",
		Headline:   "Designer",
		ProfileURL: "https://www.linkedin.com/in/ACoAsamsmith2",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ProfileID, second.ProfileID)

	var profile models.Profile
	require.NoError(t, db.First(&profile, "id = ?", first.ProfileID).Error)
	assert.Equal(t, "ACoAsamsmith1", profile.MemberID)
	assert.Contains(t, []string(profile.AlternativeIDs), "ACoAsamsmith2")
}

func TestProfilesService_UrnPreserved(t *testing.T) {
	db := setupTestDB(t)
	service := NewProfilesService(db)
	ctx := context.Background()

	profile := models.Profile{
		Urn:         "legacy-urn-value",
		DisplayName: "Old Timer",
		Headline:    "Veteran",
	}
	require.NoError(t, db.Create(&profile).Error)

	result, err := service.Upsert(ctx, linkedin.Actor{
		Name:       "Old Timer",
		Headline:   "Veteran",
		ProfileURL: "https://www.linkedin.com/in/old-timer",
	})
	require.NoError(t, err)
	assert.Equal(t, profile.ID, result.ProfileID)

	var updated models.Profile
	require.NoError(t, db.First(&updated, "id = ?", profile.ID).Error)
	assert.Equal(t, "legacy-urn-value", updated.Urn, "non-empty urn is never overwritten")
	assert.Contains(t, []string(updated.AlternativeIDs), "old-timer")
	assert.Equal(t, "old-timer", updated.PublicHandle)
}

func TestProfilesService_DescriptiveFieldsRefresh(t *testing.T) {
	db := setupTestDB(t)
	service := NewProfilesService(db)
	ctx := context.Background()

	first, err := service.Upsert(ctx, linkedin.Actor{
		Name:       "Ann Lee",
		Headline:   "Analyst",
		ProfileURL: "https://www.linkedin.com/in/ann-lee",
	})
	require.NoError(t, err)

	_, err = service.Upsert(ctx, linkedin.Actor{
		Name:       "Ann Lee",
		Headline:   "Senior Analyst",
		ProfileURL: "https://www.linkedin.com/in/ann-lee",
	})
	require.NoError(t, err)

	var profile models.Profile
	require.NoError(t, db.First(&profile, "id = ?", first.ProfileID).Error)
	assert.Equal(t, "Senior Analyst", profile.Headline)
}
