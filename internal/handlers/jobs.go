package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"postpulse/internal/models"
	"postpulse/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"
)

// JobsHandler exposes the job trigger surface and job progress
type JobsHandler struct {
	db   *gorm.DB
	jobs *services.JobsService

	upgrader websocket.Upgrader
}

// NewJobsHandler creates a new jobs handler
func NewJobsHandler(db *gorm.DB) *JobsHandler {
	return &JobsHandler{
		db:   db,
		jobs: services.NewJobsService(db),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// createJobRequest is the trigger payload
type createJobRequest struct {
	PostIDs   []string `json:"post_ids"`
	ScopeUser string   `json:"scope_user"`
}

// CreateJob enqueues an import/enrich/unify run and returns the job handle
// immediately; the pipeline runs asynchronously in the worker.
func (h *JobsHandler) CreateJob(c *gin.Context) {
	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	job, err := h.jobs.CreateJob(c.Request.Context(), req.PostIDs, req.ScopeUser)
	if err != nil {
		var validation *services.ValidationError
		if errors.As(err, &validation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": validation.Message})
			return
		}
		log.Printf("❌ Failed to create job: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create job"})
		return
	}

	c.JSON(http.StatusAccepted, job)
}

// GetJob returns a job's current state, counters, and failure list.
func (h *JobsHandler) GetJob(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return
	}

	job, err := h.jobs.GetJob(c.Request.Context(), jobID)
	if err != nil {
		var notFound *services.NotFoundError
		if errors.As(err, &notFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load job"})
		return
	}

	c.JSON(http.StatusOK, job)
}

// GetJobEvents returns a job's progress events in emission order.
func (h *JobsHandler) GetJobEvents(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return
	}

	events, err := h.jobs.ListEvents(c.Request.Context(), jobID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

// StreamJobProgress upgrades to a websocket and pushes progress events as
// they are stored, until the job reaches a terminal state or the client
// disconnects. Events come off the durable store, so a reconnecting client
// never misses progress.
func (h *JobsHandler) StreamJobProgress(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("⚠️ Websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var lastSent time.Time
	for range ticker.C {
		var events []models.ProgressEvent
		err := h.db.Where("job_id = ? AND created_at > ?", jobID, lastSent).
			Order("created_at ASC").
			Find(&events).Error
		if err != nil {
			log.Printf("⚠️ Failed to poll progress for job %s: %v", jobID, err)
			return
		}

		for _, event := range events {
			if err := conn.WriteJSON(event); err != nil {
				return
			}
			lastSent = event.CreatedAt
			if event.Status == models.JobStatusCompleted || event.Status == models.JobStatusError {
				return
			}
		}
	}
}
