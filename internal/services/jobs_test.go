package services

import (
	"context"
	"testing"

	"postpulse/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobsService_CreateJobValidation(t *testing.T) {
	db := setupTestDB(t)
	service := NewJobsService(db)
	ctx := context.Background()

	t.Run("rejects empty post ids", func(t *testing.T) {
		_, err := service.CreateJob(ctx, nil, "scraper1")
		var validation *ValidationError
		require.ErrorAs(t, err, &validation)
	})

	t.Run("rejects unparseable post ids", func(t *testing.T) {
		_, err := service.CreateJob(ctx, []string{"not-a-uuid"}, "scraper1")
		var validation *ValidationError
		require.ErrorAs(t, err, &validation)
	})

	t.Run("invalid request creates no job", func(t *testing.T) {
		var count int64
		db.Model(&models.ScrapeJob{}).Count(&count)
		assert.Equal(t, int64(0), count)
	})
}

func TestJobsService_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	service := NewJobsService(db)
	ctx := context.Background()

	postID := uuid.New()
	job, err := service.CreateJob(ctx, []string{postID.String()}, "scraper1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusQueued, job.Status)

	fetched, err := service.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, fetched.ID)
	assert.Equal(t, []string{postID.String()}, []string(fetched.PostIDs))
}

func TestJobsService_GetJobNotFound(t *testing.T) {
	db := setupTestDB(t)
	service := NewJobsService(db)

	_, err := service.GetJob(context.Background(), uuid.New())
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestJobsService_ClaimNextJob(t *testing.T) {
	db := setupTestDB(t)
	service := NewJobsService(db)
	ctx := context.Background()

	// Empty queue is a normal outcome.
	claimed, err := service.ClaimNextJob(ctx)
	require.NoError(t, err)
	assert.Nil(t, claimed)

	first, err := service.CreateJob(ctx, []string{uuid.New().String()}, "scraper1")
	require.NoError(t, err)
	second, err := service.CreateJob(ctx, []string{uuid.New().String()}, "scraper1")
	require.NoError(t, err)

	// Oldest job first.
	claimed, err = service.ClaimNextJob(ctx)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, first.ID, claimed.ID)
	assert.Equal(t, models.JobStatusRunning, claimed.Status)

	claimed, err = service.ClaimNextJob(ctx)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, second.ID, claimed.ID)

	// Queue drained.
	claimed, err = service.ClaimNextJob(ctx)
	require.NoError(t, err)
	assert.Nil(t, claimed)
}
