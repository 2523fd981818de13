package services

import (
	"os"
	"testing"

	"postpulse/internal/database"
	"postpulse/internal/models"

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

	// Load test database configuration
	config := database.LoadConfig()

	// Connect to test database
	err := database.Connect(config)
	if err != nil {
		t.Skipf("Skipping test - PostgreSQL test database not available: %v", err)
	}

	db := database.DB

	// Run migrations to ensure schema is up to date
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}

	// Clean up any existing test data
	db.Exec("DELETE FROM progress_events")
	db.Exec("DELETE FROM scrape_jobs")
	db.Exec("DELETE FROM reactions")
	db.Exec("DELETE FROM comments")
	db.Exec("DELETE FROM profiles")
	db.Exec("DELETE FROM tracked_posts")

	return db
}
