package handlers

import (
	"net/http"
	"time"

	"postpulse/internal/worker"

	"github.com/gin-gonic/gin"
)

// SystemHandler exposes health and worker status
type SystemHandler struct {
	worker *worker.Service
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(workerService *worker.Service) *SystemHandler {
	return &SystemHandler{worker: workerService}
}

// HealthCheck reports service liveness
func (h *SystemHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

// WorkerStatus reports whether the background job runner is running
func (h *SystemHandler) WorkerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"running": h.worker.IsRunning(),
	})
}
