package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"postpulse/internal/models"
	"postpulse/internal/progress"
	"postpulse/internal/services"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// jobCounts accumulates the per-job totals mirrored onto the job row.
type jobCounts struct {
	reactions int
	comments  int
	created   int
	enriched  int
	merged    int
	dropped   int
}

// runJob executes one claimed job end to end. Per-post and per-actor failures
// are collected on the job; only top-level conditions (no post resolvable,
// provider unreachable) end the job as error.
func (s *Service) runJob(ctx context.Context, job *models.ScrapeJob) {
	log.Printf("🔄 Running job %s (%d posts)", job.ID, len(job.PostIDs))
	sink := progress.NewStoreSink(s.db, job.ID)

	now := time.Now()
	s.db.Model(job).Updates(map[string]interface{}{"started_at": now, "message": "Started"})

	var (
		counts    jobCounts
		failures  []string
		succeeded int
		touched   = make(map[uuid.UUID]bool)
		createdBy = make(map[uuid.UUID]bool)
	)

	for i, rawID := range job.PostIDs {
		sink.Emit(ctx, progress.Event{
			Status:  models.JobStatusRunning,
			Percent: i * 100 / len(job.PostIDs),
			Message: fmt.Sprintf("Importing engagement for post %d/%d", i+1, len(job.PostIDs)),
		})

		postFailures, err := s.importPost(ctx, rawID, job.ScopeUser, &counts, touched, createdBy)
		failures = append(failures, postFailures...)
		if err != nil {
			log.Printf("❌ Post %s failed: %v", rawID, err)
			failures = append(failures, fmt.Sprintf("post %s: %v", rawID, err))
			continue
		}
		succeeded++
	}

	if succeeded == 0 {
		s.finishJob(ctx, job, sink, models.JobStatusError, counts, failures,
			"No posts could be imported")
		return
	}

	// Enrich newly created profiles plus any touched profile still missing
	// identity detail.
	candidates := s.enrichmentCandidates(ctx, touched, createdBy)
	enrichResult, err := s.orchestrator.Run(ctx, candidates, sink)
	if err != nil {
		failures = append(failures, fmt.Sprintf("enrichment: %v", err))
	}
	counts.enriched = enrichResult.Enriched
	failures = append(failures, enrichResult.Failures...)

	// Unify duplicates the enrichment revealed.
	mergeResult, err := s.unify.MergeDuplicates(ctx, enrichResult.Touched)
	if err != nil {
		failures = append(failures, fmt.Sprintf("unification: %v", err))
	}
	counts.merged = mergeResult.Merged
	failures = append(failures, mergeResult.Failures...)

	// Partial failures still finish as completed; consumers inspect the
	// failure list to tell full from partial success.
	s.finishJob(ctx, job, sink, models.JobStatusCompleted, counts, failures, "Job completed")
}

// importPost imports one post's reactions and comments. Returns per-item
// failure reasons plus a fatal-for-this-post error, if any.
func (s *Service) importPost(ctx context.Context, rawID, scopeUser string, counts *jobCounts, touched, createdBy map[uuid.UUID]bool) ([]string, error) {
	postID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("invalid post id: %w", err)
	}

	var post models.TrackedPost
	err = s.db.WithContext(ctx).First(&post, "id = ?", postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &services.NotFoundError{Resource: "post", ID: rawID}
	}
	if err != nil {
		return nil, err
	}

	var failures []string

	reactions, err := s.provider.GetPostReactions(ctx, post.PostURN, scopeUser)
	if err != nil {
		failures = append(failures, fmt.Sprintf("post %s reactions: %v", rawID, err))
	} else {
		result, err := s.engagement.ImportReactions(ctx, postID, scopeUser, reactions)
		collectImport(result, counts, touched, createdBy, &failures)
		counts.reactions += result.Written
		if err != nil {
			failures = append(failures, fmt.Sprintf("post %s reactions: %v", rawID, err))
		}
	}

	comments, err := s.provider.GetPostComments(ctx, post.PostURN, scopeUser)
	if err != nil {
		failures = append(failures, fmt.Sprintf("post %s comments: %v", rawID, err))
	} else {
		result, err := s.engagement.ImportComments(ctx, postID, scopeUser, comments)
		collectImport(result, counts, touched, createdBy, &failures)
		counts.comments += result.Written
		if err != nil {
			failures = append(failures, fmt.Sprintf("post %s comments: %v", rawID, err))
		}
	}

	return failures, nil
}

// collectImport folds one import result into the job accumulators.
func collectImport(result services.ImportResult, counts *jobCounts, touched, createdBy map[uuid.UUID]bool, failures *[]string) {
	counts.dropped += result.Dropped
	counts.created += len(result.CreatedIDs)
	for _, id := range result.TouchedIDs {
		touched[id] = true
	}
	for _, id := range result.CreatedIDs {
		createdBy[id] = true
	}
	*failures = append(*failures, result.Failures...)
}

// enrichmentCandidates selects the profiles to enrich: everything newly
// created this run plus touched profiles still lacking a first name.
func (s *Service) enrichmentCandidates(ctx context.Context, touched, createdBy map[uuid.UUID]bool) []uuid.UUID {
	candidates := make([]uuid.UUID, 0, len(touched))
	existing := make([]uuid.UUID, 0, len(touched))
	for id := range touched {
		if createdBy[id] {
			candidates = append(candidates, id)
		} else {
			existing = append(existing, id)
		}
	}

	if len(existing) > 0 {
		var incomplete []models.Profile
		err := s.db.WithContext(ctx).
			Select("id").
			Where("id IN ? AND first_name = ''", existing).
			Find(&incomplete).Error
		if err != nil {
			log.Printf("⚠️ Failed to select incomplete profiles for enrichment: %v", err)
		}
		for _, p := range incomplete {
			candidates = append(candidates, p.ID)
		}
	}

	return candidates
}

// finishJob stamps the terminal state and counters onto the job row.
func (s *Service) finishJob(ctx context.Context, job *models.ScrapeJob, sink progress.Sink, status string, counts jobCounts, failures []string, message string) {
	now := time.Now()
	patch := map[string]interface{}{
		"status":             status,
		"percent":            100,
		"message":            message,
		"reactions_imported": counts.reactions,
		"comments_imported":  counts.comments,
		"profiles_created":   counts.created,
		"profiles_enriched":  counts.enriched,
		"profiles_merged":    counts.merged,
		"dropped":            counts.dropped,
		"failures":           pq.StringArray(failures),
		"finished_at":        now,
	}
	if err := s.db.WithContext(ctx).Model(job).Updates(patch).Error; err != nil {
		log.Printf("❌ Failed to finalize job %s: %v", job.ID, err)
	}

	sink.Emit(ctx, progress.Event{Status: status, Percent: 100, Message: message})
	log.Printf("✅ Job %s finished: %s (%d reactions, %d comments, %d profiles created, %d enriched, %d merged, %d failures)",
		job.ID, status, counts.reactions, counts.comments, counts.created, counts.enriched, counts.merged, len(failures))
}
