package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"postpulse/internal/linkedin"
	"postpulse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createTestPost(t *testing.T, db *gorm.DB, urn string) models.TrackedPost {
	post := models.TrackedPost{
		PostURN:       urn,
		PostURL:       "https://www.linkedin.com/feed/update/" + urn,
		NeedsRescrape: true,
	}
	require.NoError(t, db.Create(&post).Error)
	return post
}

func testActor(n int) *linkedin.Actor {
	return &linkedin.Actor{
		Name:       fmt.Sprintf("Actor %d", n),
		Headline:   fmt.Sprintf("Headline %d", n),
		ProfileURL: fmt.Sprintf("https://www.linkedin.com/in/actor-%d", n),
	}
}

func TestEngagementService_DropsUnusableInteractions(t *testing.T) {
	db := setupTestDB(t)
	service := NewEngagementService(db, NewProfilesService(db))
	ctx := context.Background()
	post := createTestPost(t, db, "urn:li:activity:1001")

	raws := make([]linkedin.RawReaction, 0, 10)
	for i := 0; i < 8; i++ {
		raws = append(raws, linkedin.RawReaction{Actor: testActor(i), ReactionType: "LIKE"})
	}
	// Two interactions with no usable actor reference.
	raws = append(raws, linkedin.RawReaction{ReactionType: "LIKE"})
	raws = append(raws, linkedin.RawReaction{Actor: &linkedin.Actor{Name: "No URL"}, ReactionType: "PRAISE"})

	result, err := service.ImportReactions(ctx, post.ID, "scraper1", raws)
	require.NoError(t, err)

	assert.Equal(t, 8, result.Written)
	assert.Equal(t, 2, result.Dropped)

	var count int64
	db.Model(&models.Reaction{}).Where("post_id = ?", post.ID).Count(&count)
	assert.Equal(t, int64(8), count)
}

func TestEngagementService_KeylessActorsStayDistinct(t *testing.T) {
	db := setupTestDB(t)
	service := NewEngagementService(db, NewProfilesService(db))
	ctx := context.Background()
	post := createTestPost(t, db, "urn:li:activity:1007")

	// Organization-page actors carry a usable URL but no extractable
	// identifier. Distinct ones must resolve to distinct profiles; the same
	// one appearing twice still dedups.
	acme := &linkedin.Actor{Name: "Acme Corp", ProfileURL: "https://www.linkedin.com/company/acme"}
	globex := &linkedin.Actor{Name: "Globex", ProfileURL: "https://www.linkedin.com/company/globex"}
	raws := []linkedin.RawReaction{
		{Actor: acme, ReactionType: "LIKE"},
		{Actor: globex, ReactionType: "PRAISE"},
		{Actor: acme, ReactionType: "LIKE"},
	}

	result, err := service.ImportReactions(ctx, post.ID, "scraper1", raws)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Written)
	assert.Equal(t, 0, result.Dropped)
	assert.Equal(t, 2, result.UniqueProfiles)

	var profiles int64
	db.Model(&models.Profile{}).Count(&profiles)
	assert.Equal(t, int64(2), profiles)

	var reactions []models.Reaction
	db.Where("post_id = ?", post.ID).Find(&reactions)
	assert.Len(t, reactions, 3)
}

func TestEngagementService_ReplaceOnRescrape(t *testing.T) {
	db := setupTestDB(t)
	service := NewEngagementService(db, NewProfilesService(db))
	ctx := context.Background()
	post := createTestPost(t, db, "urn:li:activity:1002")

	first := []linkedin.RawReaction{
		{Actor: testActor(1), ReactionType: "LIKE"},
		{Actor: testActor(2), ReactionType: "PRAISE"},
		{Actor: testActor(3), ReactionType: "LIKE"},
	}
	_, err := service.ImportReactions(ctx, post.ID, "scraper1", first)
	require.NoError(t, err)

	second := []linkedin.RawReaction{
		{Actor: testActor(3), ReactionType: "EMPATHY"},
		{Actor: testActor(4), ReactionType: "LIKE"},
	}
	result, err := service.ImportReactions(ctx, post.ID, "scraper1", second)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Written)

	// Only the second snapshot remains.
	var reactions []models.Reaction
	db.Where("post_id = ?", post.ID).Find(&reactions)
	assert.Len(t, reactions, 2)

	types := make(map[string]bool)
	for _, r := range reactions {
		types[r.ReactionType] = true
	}
	assert.True(t, types["EMPATHY"])
	assert.True(t, types["LIKE"])
	assert.False(t, types["PRAISE"])
}

func TestEngagementService_DeduplicatesActors(t *testing.T) {
	db := setupTestDB(t)
	service := NewEngagementService(db, NewProfilesService(db))
	ctx := context.Background()
	post := createTestPost(t, db, "urn:li:activity:1003")

	// The same actor appears on two comments.
	actor := testActor(7)
	now := time.Now()
	raws := []linkedin.RawComment{
		{Actor: actor, CommentURN: "urn:li:comment:1", Text: "first", PostedAt: &now},
		{Actor: actor, CommentURN: "urn:li:comment:2", Text: "second", PostedAt: &now},
	}

	result, err := service.ImportComments(ctx, post.ID, "scraper1", raws)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Written)
	assert.Equal(t, 1, result.UniqueProfiles)

	var profiles int64
	db.Model(&models.Profile{}).Count(&profiles)
	assert.Equal(t, int64(1), profiles)

	// Both comments reference the same resolved profile.
	var comments []models.Comment
	db.Where("post_id = ?", post.ID).Find(&comments)
	require.Len(t, comments, 2)
	assert.Equal(t, comments[0].ProfileID, comments[1].ProfileID)
}

func TestEngagementService_CommentsWithoutStableIDDropped(t *testing.T) {
	db := setupTestDB(t)
	service := NewEngagementService(db, NewProfilesService(db))
	ctx := context.Background()
	post := createTestPost(t, db, "urn:li:activity:1004")

	raws := []linkedin.RawComment{
		{Actor: testActor(1), CommentURN: "urn:li:comment:10", Text: "kept"},
		{Actor: testActor(2), Text: "no stable id"},
	}

	result, err := service.ImportComments(ctx, post.ID, "scraper1", raws)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Written)
	assert.Equal(t, 1, result.Dropped)
}

func TestEngagementService_TouchesPostOnEmptyImport(t *testing.T) {
	db := setupTestDB(t)
	service := NewEngagementService(db, NewProfilesService(db))
	ctx := context.Background()
	post := createTestPost(t, db, "urn:li:activity:1005")

	// Zero interactions is a valid successful outcome.
	result, err := service.ImportReactions(ctx, post.ID, "scraper1", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Written)

	var updated models.TrackedPost
	require.NoError(t, db.First(&updated, "id = ?", post.ID).Error)
	assert.False(t, updated.NeedsRescrape)
	assert.NotNil(t, updated.LastScrapedAt)
}

func TestEngagementService_ScopesAreIndependent(t *testing.T) {
	db := setupTestDB(t)
	service := NewEngagementService(db, NewProfilesService(db))
	ctx := context.Background()
	post := createTestPost(t, db, "urn:li:activity:1006")

	_, err := service.ImportReactions(ctx, post.ID, "scraper1", []linkedin.RawReaction{
		{Actor: testActor(1), ReactionType: "LIKE"},
	})
	require.NoError(t, err)

	// A rescrape under a different scope must not clobber the first scope's
	// snapshot.
	_, err = service.ImportReactions(ctx, post.ID, "scraper2", []linkedin.RawReaction{
		{Actor: testActor(2), ReactionType: "LIKE"},
	})
	require.NoError(t, err)

	var count int64
	db.Model(&models.Reaction{}).Where("post_id = ?", post.ID).Count(&count)
	assert.Equal(t, int64(2), count)
}
