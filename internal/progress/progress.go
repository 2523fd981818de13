// Package progress emits job progress to a durable sink. Events are stored
// per job id so progress survives process restarts and can be served by any
// worker, instead of living in a process-local map.
package progress

import (
	"context"
	"log"

	"postpulse/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Event is one progress emission for a job.
type Event struct {
	Status  string
	Percent int
	Message string
	Counts  map[string]int
}

// Sink accepts append-only progress events. Consumers (the UI layer) read
// them back out of band; emitting never blocks pipeline work on a listener.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// StoreSink persists events and mirrors the latest state onto the job row.
type StoreSink struct {
	db    *gorm.DB
	jobID uuid.UUID
}

// NewStoreSink creates a sink bound to one job.
func NewStoreSink(db *gorm.DB, jobID uuid.UUID) *StoreSink {
	return &StoreSink{db: db, jobID: jobID}
}

// Emit appends the event and patches the job row. Emission failures are
// logged and swallowed: progress reporting must never fail the pipeline.
func (s *StoreSink) Emit(ctx context.Context, event Event) {
	row := models.ProgressEvent{
		JobID:   s.jobID,
		Status:  event.Status,
		Percent: event.Percent,
		Message: event.Message,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		log.Printf("⚠️ Failed to store progress event for job %s: %v", s.jobID, err)
	}

	patch := map[string]interface{}{
		"status":  event.Status,
		"percent": event.Percent,
		"message": event.Message,
	}
	for field, value := range event.Counts {
		patch[field] = value
	}

	err := s.db.WithContext(ctx).Model(&models.ScrapeJob{}).
		Where("id = ?", s.jobID).
		Updates(patch).Error
	if err != nil {
		log.Printf("⚠️ Failed to update job %s progress: %v", s.jobID, err)
	}
}

// NopSink discards all events. Used by tests and one-off commands.
type NopSink struct{}

// Emit implements Sink
func (NopSink) Emit(context.Context, Event) {}
