package identity

import (
	"context"
	"os"
	"testing"

	"postpulse/internal/database"
	"postpulse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	// Set test environment variables
	os.Setenv("DB_HOST", "localhost")
	os.Setenv("DB_PORT", "5432")
	os.Setenv("DB_USER", "postgres")
	os.Setenv("DB_PASSWORD", "")
	os.Setenv("DB_NAME", "postpulse_test")
	os.Setenv("DB_SSLMODE", "disable")

	config := database.LoadConfig()
	if err := database.Connect(config); err != nil {
		t.Skipf("Skipping test - PostgreSQL test database not available: %v", err)
	}

	db := database.DB
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}

	db.Exec("DELETE FROM reactions")
	db.Exec("DELETE FROM comments")
	db.Exec("DELETE FROM profiles")

	return db
}

func TestMatcher_StableIDOutranksHeuristics(t *testing.T) {
	db := setupTestDB(t)
	matcher := NewMatcher(db)
	ctx := context.Background()

	// Two stored profiles: one holds the member id, the other only coincides
	// on name and headline.
	byID := models.Profile{
		MemberID:    "ACoAjanedoe123",
		DisplayName: "Different Name",
		Headline:    "Different Headline",
	}
	require.NoError(t, db.Create(&byID).Error)

	byName := models.Profile{
		DisplayName: "Jane Doe",
		Headline:    "Engineer",
	}
	require.NoError(t, db.Create(&byName).Error)

	found, err := matcher.Find(ctx, Query{
		MemberID:    "ACoAjanedoe123",
		DisplayName: "Jane Doe",
		Headline:    "Engineer",
	})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, byID.ID, found.ID, "identifier match must beat name+headline coincidence")
}

func TestMatcher_HandleOutranksURLSubstring(t *testing.T) {
	db := setupTestDB(t)
	matcher := NewMatcher(db)
	ctx := context.Background()

	bySubstring := models.Profile{
		DisplayName: "Impostor",
		ProfileURL:  "https://www.linkedin.com/in/jane-doe-eng-the-second",
	}
	require.NoError(t, db.Create(&bySubstring).Error)

	byHandle := models.Profile{
		DisplayName:  "Jane Doe",
		PublicHandle: "jane-doe-eng",
	}
	require.NoError(t, db.Create(&byHandle).Error)

	found, err := matcher.Find(ctx, Query{PublicHandle: "jane-doe-eng"})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, byHandle.ID, found.ID)
}

func TestMatcher_LegacyUrnField(t *testing.T) {
	db := setupTestDB(t)
	matcher := NewMatcher(db)
	ctx := context.Background()

	legacy := models.Profile{
		Urn:         "ACoAlegacy456",
		DisplayName: "Legacy Row",
	}
	require.NoError(t, db.Create(&legacy).Error)

	// The stable id now arrives in its proper slot but only the legacy urn
	// field holds it.
	found, err := matcher.Find(ctx, Query{MemberID: "ACoAlegacy456"})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, legacy.ID, found.ID)
}

func TestMatcher_URLSubstringFallback(t *testing.T) {
	db := setupTestDB(t)
	matcher := NewMatcher(db)
	ctx := context.Background()

	stored := models.Profile{
		DisplayName: "Jane Doe",
		ProfileURL:  "https://www.linkedin.com/in/jane-doe-eng?originalSubdomain=uk",
	}
	require.NoError(t, db.Create(&stored).Error)

	found, err := matcher.Find(ctx, Query{PublicHandle: "jane-doe-eng"})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, stored.ID, found.ID)
}

func TestMatcher_URLSubstringIsLiteral(t *testing.T) {
	db := setupTestDB(t)
	matcher := NewMatcher(db)
	ctx := context.Background()

	// An underscore in the handle must not act as a single-character wildcard.
	decoy := models.Profile{
		DisplayName: "Decoy",
		ProfileURL:  "https://www.linkedin.com/in/janeXdoe",
	}
	require.NoError(t, db.Create(&decoy).Error)

	found, err := matcher.Find(ctx, Query{PublicHandle: "jane_doe"})
	require.NoError(t, err)
	assert.Nil(t, found)

	target := models.Profile{
		DisplayName: "Jane Doe",
		ProfileURL:  "https://www.linkedin.com/in/jane_doe",
	}
	require.NoError(t, db.Create(&target).Error)

	found, err = matcher.Find(ctx, Query{PublicHandle: "jane_doe"})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, target.ID, found.ID)
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%jane-doe%", LikePattern("jane-doe"))
	assert.Equal(t, `%jane\_doe%`, LikePattern("jane_doe"))
	assert.Equal(t, `%100\%off%`, LikePattern("100%off"))
	assert.Equal(t, `%a\\b%`, LikePattern(`a\b`))
}

func TestMatcher_TrimmedNameAndHeadline(t *testing.T) {
	db := setupTestDB(t)
	matcher := NewMatcher(db)
	ctx := context.Background()

	stored := models.Profile{
		DisplayName: "  Jane Doe ",
		Headline:    "Engineer  ",
	}
	require.NoError(t, db.Create(&stored).Error)

	found, err := matcher.Find(ctx, Query{DisplayName: "Jane Doe", Headline: "Engineer"})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, stored.ID, found.ID)
}

func TestMatcher_NameAloneNeverMatches(t *testing.T) {
	db := setupTestDB(t)
	matcher := NewMatcher(db)
	ctx := context.Background()

	stored := models.Profile{DisplayName: "Jane Doe"}
	require.NoError(t, db.Create(&stored).Error)

	found, err := matcher.Find(ctx, Query{DisplayName: "Jane Doe"})
	require.NoError(t, err)
	assert.Nil(t, found, "name without headline must not match")
}

func TestMatcher_NoMatchIsNotAnError(t *testing.T) {
	db := setupTestDB(t)
	matcher := NewMatcher(db)
	ctx := context.Background()

	found, err := matcher.Find(ctx, Query{MemberID: "ACoAnobody"})
	require.NoError(t, err)
	assert.Nil(t, found)
}
