package services

import (
	"context"
	"errors"
	"fmt"

	"postpulse/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// JobsService creates and reads scrape jobs. The trigger surface returns a
// job handle immediately; the pipeline itself runs asynchronously in the
// worker.
type JobsService struct {
	db *gorm.DB
}

// NewJobsService creates a new JobsService
func NewJobsService(db *gorm.DB) *JobsService {
	return &JobsService{db: db}
}

// CreateJob validates the requested post ids and enqueues a job. Structurally
// invalid input (no ids, unparseable ids) is fatal to the request: the job is
// never created.
func (s *JobsService) CreateJob(ctx context.Context, postIDs []string, scopeUser string) (*models.ScrapeJob, error) {
	if len(postIDs) == 0 {
		return nil, &ValidationError{Message: "at least one post id is required"}
	}
	for _, id := range postIDs {
		if _, err := uuid.Parse(id); err != nil {
			return nil, &ValidationError{Message: fmt.Sprintf("invalid post id %q", id)}
		}
	}

	job := models.ScrapeJob{
		Status:    models.JobStatusQueued,
		PostIDs:   pq.StringArray(postIDs),
		ScopeUser: scopeUser,
		Message:   "Queued",
	}
	if err := s.db.WithContext(ctx).Create(&job).Error; err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	return &job, nil
}

// GetJob fetches one job by id.
func (s *JobsService) GetJob(ctx context.Context, jobID uuid.UUID) (*models.ScrapeJob, error) {
	var job models.ScrapeJob
	err := s.db.WithContext(ctx).First(&job, "id = ?", jobID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "job", ID: jobID.String()}
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// ListEvents returns a job's progress events in emission order.
func (s *JobsService) ListEvents(ctx context.Context, jobID uuid.UUID) ([]models.ProgressEvent, error) {
	var events []models.ProgressEvent
	err := s.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// ClaimNextJob atomically claims the oldest queued job, if any, marking it
// running. Returns (nil, nil) when the queue is empty.
func (s *JobsService) ClaimNextJob(ctx context.Context) (*models.ScrapeJob, error) {
	var job models.ScrapeJob
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ?", models.JobStatusQueued).
			Order("created_at ASC").
			First(&job).Error
		if err != nil {
			return err
		}
		return tx.Model(&job).Update("status", models.JobStatusRunning).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	job.Status = models.JobStatusRunning
	return &job, nil
}
