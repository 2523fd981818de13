package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Job status values. A job with partial per-item failures still finishes as
// completed; error is reserved for top-level fatal conditions.
const (
	JobStatusQueued    = "queued"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusError     = "error"
)

// ScrapeJob is one triggered import/enrich/unify run over a set of tracked
// posts. The row doubles as the durable progress record for the job.
type ScrapeJob struct {
	ID        uuid.UUID      `json:"id" db:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Status    string         `json:"status" db:"status" gorm:"index;default:queued"`
	PostIDs   pq.StringArray `json:"post_ids" db:"post_ids" gorm:"type:text[]"`
	ScopeUser string         `json:"scope_user" db:"scope_user"`

	Percent int    `json:"percent" db:"percent" gorm:"default:0"`
	Message string `json:"message" db:"message"`

	ReactionsImported int `json:"reactions_imported" db:"reactions_imported" gorm:"default:0"`
	CommentsImported  int `json:"comments_imported" db:"comments_imported" gorm:"default:0"`
	ProfilesCreated   int `json:"profiles_created" db:"profiles_created" gorm:"default:0"`
	ProfilesEnriched  int `json:"profiles_enriched" db:"profiles_enriched" gorm:"default:0"`
	ProfilesMerged    int `json:"profiles_merged" db:"profiles_merged" gorm:"default:0"`
	Dropped           int `json:"dropped" db:"dropped" gorm:"default:0"`

	// Per-item failure reasons accumulated over the run. Consumers must check
	// this list to tell full success from partial success.
	Failures pq.StringArray `json:"failures" db:"failures" gorm:"type:text[]"`

	StartedAt  *time.Time `json:"started_at" db:"started_at"`
	FinishedAt *time.Time `json:"finished_at" db:"finished_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for the ScrapeJob model
func (ScrapeJob) TableName() string {
	return "scrape_jobs"
}

// ProgressEvent is one append-only progress emission for a job. Events are
// stored rather than held in memory so progress survives restarts and can be
// served by any worker.
type ProgressEvent struct {
	ID      uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	JobID   uuid.UUID `json:"job_id" db:"job_id" gorm:"type:uuid;index;not null"`
	Status  string    `json:"status" db:"status"`
	Percent int       `json:"percent" db:"percent"`
	Message string    `json:"message" db:"message"`

	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
}

// TableName sets the table name for the ProgressEvent model
func (ProgressEvent) TableName() string {
	return "progress_events"
}
