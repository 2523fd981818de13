// Package worker runs queued scrape jobs: per post, import the scraped
// engagement, then enrich the touched profiles, then unify any duplicates
// the enrichment revealed.
package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"postpulse/internal/enrich"
	"postpulse/internal/linkedin"
	"postpulse/internal/services"

	"gorm.io/gorm"
)

// pollInterval is how often the runner checks for queued jobs.
const pollInterval = 5 * time.Second

// Provider is the slice of the scrape client the pipeline needs.
type Provider interface {
	GetPostReactions(ctx context.Context, postURN, scopeUser string) ([]linkedin.RawReaction, error)
	GetPostComments(ctx context.Context, postURN, scopeUser string) ([]linkedin.RawComment, error)
	EnrichProfiles(ctx context.Context, lookupKeys []string) ([]linkedin.ProfileDetail, error)
}

// Service manages the background job runner
type Service struct {
	db       *gorm.DB
	provider Provider

	jobs         *services.JobsService
	engagement   *services.EngagementService
	unify        *services.UnifyService
	orchestrator *enrich.Orchestrator

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.RWMutex
}

// NewService creates a new worker service
func NewService(db *gorm.DB, provider Provider) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	profiles := services.NewProfilesService(db)

	return &Service{
		db:           db,
		provider:     provider,
		jobs:         services.NewJobsService(db),
		engagement:   services.NewEngagementService(db, profiles),
		unify:        services.NewUnifyService(db),
		orchestrator: enrich.NewOrchestrator(db, provider, enrich.DefaultConfig()),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start starts the background job runner
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil // Already running
	}

	log.Println("Starting background job runner...")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runLoop()
	}()

	s.running = true
	log.Println("Background job runner started")
	return nil
}

// Stop stops the background job runner
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return // Not running
	}

	log.Println("Stopping background job runner...")
	s.cancel()
	s.wg.Wait()
	s.running = false
	log.Println("Background job runner stopped")
}

// IsRunning returns whether the job runner is currently running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// runLoop claims queued jobs one at a time and runs them to completion.
func (s *Service) runLoop() {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			log.Println("Job runner stopped")
			return
		case <-ticker.C:
			job, err := s.jobs.ClaimNextJob(s.ctx)
			if err != nil {
				log.Printf("❌ Failed to claim job: %v", err)
				continue
			}
			if job == nil {
				continue
			}
			s.runJob(s.ctx, job)
		}
	}
}
