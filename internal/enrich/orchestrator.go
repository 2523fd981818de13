// Package enrich backfills missing identity detail onto profiles by driving
// the external enrichment provider in bounded-concurrency batches.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"postpulse/internal/identity"
	"postpulse/internal/linkedin"
	"postpulse/internal/models"
	"postpulse/internal/progress"
	"postpulse/internal/services"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
	"gorm.io/gorm"
)

// Provider is the slice of the scrape client the orchestrator needs.
type Provider interface {
	EnrichProfiles(ctx context.Context, lookupKeys []string) ([]linkedin.ProfileDetail, error)
}

// Config bounds the enrichment fan-out.
type Config struct {
	BatchSize    int           // lookup keys per provider call
	MaxInFlight  int64         // simultaneous provider calls
	BatchTimeout time.Duration // per-call upper bound; an overrun fails that batch only
}

// DefaultConfig returns the provider limits used in production.
func DefaultConfig() Config {
	return Config{
		BatchSize:    25,
		MaxInFlight:  8,
		BatchTimeout: 45 * time.Second,
	}
}

// Orchestrator selects enrichable profiles, batches their lookup keys, and
// applies returned detail back onto every matching profile row. Each batch
// commits its own writes, so a caller abandoning the run mid-flight just
// leaves some candidates un-enriched and safely retryable.
type Orchestrator struct {
	db       *gorm.DB
	provider Provider
	config   Config
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(db *gorm.DB, provider Provider, config Config) *Orchestrator {
	if config.BatchSize <= 0 {
		config = DefaultConfig()
	}
	return &Orchestrator{db: db, provider: provider, config: config}
}

// Result reports one enrichment run.
type Result struct {
	Enriched int
	Skipped  int
	Failures []string
	// Touched holds the post-enrichment state of every profile a result was
	// applied to; the duplicate unifier consumes it.
	Touched []models.Profile
}

// candidate pairs a profile with its derived external lookup key.
type candidate struct {
	profile   models.Profile
	lookupKey string
}

// Run enriches the candidate profiles. Per-actor failures are counted, never
// fatal; only a failure to read the candidates themselves aborts the run.
func (o *Orchestrator) Run(ctx context.Context, candidateIDs []uuid.UUID, sink progress.Sink) (Result, error) {
	var result Result
	if len(candidateIDs) == 0 {
		return result, nil
	}

	candidates, skipped, err := o.loadCandidates(ctx, candidateIDs)
	if err != nil {
		return result, err
	}
	result.Skipped = skipped

	batches := partition(candidates, o.config.BatchSize)
	log.Printf("🔄 Enriching %d profiles in %d batches (max %d in flight)",
		len(candidates), len(batches), o.config.MaxInFlight)

	sink.Emit(ctx, progress.Event{
		Status:  models.JobStatusRunning,
		Percent: 0,
		Message: fmt.Sprintf("Enriching %d profiles in %d batches", len(candidates), len(batches)),
	})

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		completed int
	)
	sem := semaphore.NewWeighted(o.config.MaxInFlight)
	touched := make(map[uuid.UUID]bool)

	for i, batch := range batches {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Caller abandoned the run; batches already dispatched have
			// committed their own writes.
			break
		}

		wg.Add(1)
		go func(batchNum int, batch []candidate) {
			defer wg.Done()
			defer sem.Release(1)

			enriched, failures, ids := o.runBatch(ctx, batchNum, batch)

			mu.Lock()
			result.Enriched += enriched
			result.Failures = append(result.Failures, failures...)
			for _, id := range ids {
				touched[id] = true
			}
			completed++
			percent := completed * 100 / len(batches)
			mu.Unlock()

			sink.Emit(ctx, progress.Event{
				Status:  models.JobStatusRunning,
				Percent: percent,
				Message: fmt.Sprintf("Enrichment batch %d/%d done", batchNum+1, len(batches)),
			})
		}(i, batch)
	}

	wg.Wait()

	if err := o.loadTouched(ctx, touched, &result); err != nil {
		result.Failures = append(result.Failures, err.Error())
	}

	sink.Emit(ctx, progress.Event{
		Status:  models.JobStatusRunning,
		Percent: 100,
		Message: fmt.Sprintf("Enrichment finished: %d enriched, %d skipped, %d failed",
			result.Enriched, result.Skipped, len(result.Failures)),
		Counts: map[string]int{"profiles_enriched": result.Enriched},
	})
	return result, nil
}

// loadCandidates fetches the candidate profiles and derives lookup keys,
// excluding organizational entities and profiles with no usable key.
func (o *Orchestrator) loadCandidates(ctx context.Context, ids []uuid.UUID) ([]candidate, int, error) {
	var profiles []models.Profile
	err := o.db.WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load enrichment candidates: %w", err)
	}

	skipped := 0
	candidates := make([]candidate, 0, len(profiles))
	for _, p := range profiles {
		if identity.IsOrganizationURL(p.ProfileURL) {
			skipped++
			continue
		}
		key := identity.LookupKey(p.ProfileURL, p.MemberID)
		if key == "" {
			key = identity.LookupKey(p.ProfileURL, p.Urn)
		}
		if key == "" {
			skipped++
			continue
		}
		candidates = append(candidates, candidate{profile: p, lookupKey: key})
	}
	return candidates, skipped, nil
}

// runBatch dispatches one provider call under its timeout and applies every
// returned result. Returns the enriched count, failure reasons, and the ids
// of all updated profile rows.
func (o *Orchestrator) runBatch(ctx context.Context, batchNum int, batch []candidate) (int, []string, []uuid.UUID) {
	keys := make([]string, len(batch))
	for i, c := range batch {
		keys[i] = c.lookupKey
	}

	callCtx, cancel := context.WithTimeout(ctx, o.config.BatchTimeout)
	defer cancel()

	details, err := o.provider.EnrichProfiles(callCtx, keys)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = &services.UpstreamTimeout{Op: "enrichment batch", Err: err}
		}
		log.Printf("❌ Enrichment batch %d failed: %v", batchNum+1, err)
		return 0, []string{fmt.Sprintf("batch %d: %v", batchNum+1, err)}, nil
	}

	var (
		enriched int
		failures []string
		ids      []uuid.UUID
	)
	for _, detail := range details {
		if detail.NotFound {
			continue
		}
		updated, err := o.applyDetail(ctx, detail)
		if err != nil {
			log.Printf("❌ Failed to apply enrichment for %q: %v", detail.LookupKey, err)
			failures = append(failures, fmt.Sprintf("key %q: %v", detail.LookupKey, err))
			continue
		}
		if len(updated) > 0 {
			enriched++
			ids = append(ids, updated...)
		}
	}
	return enriched, failures, ids
}

// applyDetail locates the target profile rows for one enrichment result and
// updates them all identically. More than one row can match when the store
// already holds duplicates for the same person; the unifier folds those
// together afterwards.
func (o *Orchestrator) applyDetail(ctx context.Context, detail linkedin.ProfileDetail) ([]uuid.UUID, error) {
	targets, err := o.findTargets(ctx, detail)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, nil
	}

	now := time.Now()
	ids := make([]uuid.UUID, len(targets))
	for i, t := range targets {
		ids[i] = t.ID
	}

	patch := map[string]interface{}{
		"first_name":        detail.FirstName,
		"last_name":         detail.LastName,
		"location":          detail.Location,
		"current_title":     detail.CurrentTitle,
		"current_company":   detail.CurrentCompany,
		"company_url":       detail.CompanyURL,
		"public_identifier": detail.PublicIdentifier,
		"last_enriched_at":  now,
	}

	err = o.db.WithContext(ctx).Model(&models.Profile{}).
		Where("id IN ?", ids).
		Updates(patch).Error
	if err != nil {
		return nil, fmt.Errorf("failed to apply enrichment: %w", err)
	}

	// enriched_at marks the first successful enrichment only.
	err = o.db.WithContext(ctx).Model(&models.Profile{}).
		Where("id IN ? AND enriched_at IS NULL", ids).
		Update("enriched_at", now).Error
	if err != nil {
		return nil, fmt.Errorf("failed to stamp enrichment time: %w", err)
	}

	return ids, nil
}

// findTargets reapplies the match cascade against the enrichment result:
// stable member urn, then public identifier, then legacy urn, then URL
// substrings. The first strategy with any hits wins, and all its rows are
// returned.
func (o *Orchestrator) findTargets(ctx context.Context, detail linkedin.ProfileDetail) ([]models.Profile, error) {
	type strategy struct {
		arg   string
		query string
		args  []interface{}
	}
	strategies := []strategy{
		{detail.MemberURN, "member_id = ?", []interface{}{detail.MemberURN}},
		{detail.PublicIdentifier, "public_handle = ? OR public_identifier = ?", []interface{}{detail.PublicIdentifier, detail.PublicIdentifier}},
		{detail.MemberURN, "urn = ?", []interface{}{detail.MemberURN}},
		{detail.PublicIdentifier, "urn = ?", []interface{}{detail.PublicIdentifier}},
		{detail.MemberURN, "profile_url LIKE ?", []interface{}{identity.LikePattern(detail.MemberURN)}},
		{detail.PublicIdentifier, "profile_url LIKE ?", []interface{}{identity.LikePattern(detail.PublicIdentifier)}},
	}

	for _, s := range strategies {
		if s.arg == "" {
			continue
		}
		var rows []models.Profile
		err := o.db.WithContext(ctx).Where(s.query, s.args...).Find(&rows).Error
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 {
			return rows, nil
		}
	}
	return nil, nil
}

// loadTouched reloads the post-enrichment state of every updated profile.
func (o *Orchestrator) loadTouched(ctx context.Context, touched map[uuid.UUID]bool, result *Result) error {
	if len(touched) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(touched))
	for id := range touched {
		ids = append(ids, id)
	}
	err := o.db.WithContext(ctx).Where("id IN ?", ids).Find(&result.Touched).Error
	if err != nil {
		return fmt.Errorf("failed to reload enriched profiles: %w", err)
	}
	return nil
}

// partition splits candidates into fixed-size batches.
func partition(candidates []candidate, size int) [][]candidate {
	var batches [][]candidate
	for start := 0; start < len(candidates); start += size {
		end := start + size
		if end > len(candidates) {
			end = len(candidates)
		}
		batches = append(batches, candidates[start:end])
	}
	return batches
}
