// Package models contains all data models for the postpulse application
package models

import (
	"gorm.io/gorm"
)

// AllModels returns a slice of all model types for database migrations
func AllModels() []interface{} {
	return []interface{}{
		&Profile{},
		&TrackedPost{},
		&Reaction{},
		&Comment{},
		&ScrapeJob{},
		&ProgressEvent{},
	}
}

// AutoMigrate runs automatic migrations for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}
