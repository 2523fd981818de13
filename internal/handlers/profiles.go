package handlers

import (
	"net/http"
	"strconv"

	"postpulse/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProfilesHandler exposes resolved profiles for inspection
type ProfilesHandler struct {
	db *gorm.DB
}

// NewProfilesHandler creates a new profiles handler
func NewProfilesHandler(db *gorm.DB) *ProfilesHandler {
	return &ProfilesHandler{db: db}
}

// ListProfiles returns profiles, most recently updated first. The
// needs_enrichment filter narrows to profiles still missing identity detail.
func (h *ProfilesHandler) ListProfiles(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit := 50
	offset := (page - 1) * limit

	query := h.db.Model(&models.Profile{})
	if c.Query("needs_enrichment") == "true" {
		query = query.Where("first_name = ''")
	}

	var profiles []models.Profile
	var total int64

	query.Count(&total)
	err := query.Order("updated_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&profiles).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list profiles"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"profiles": profiles, "total": total, "page": page})
}

// GetProfile returns one profile with its engagement counts.
func (h *ProfilesHandler) GetProfile(c *gin.Context) {
	profileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile id"})
		return
	}

	var profile models.Profile
	if err := h.db.First(&profile, "id = ?", profileID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}

	var reactionCount, commentCount int64
	h.db.Model(&models.Reaction{}).Where("profile_id = ?", profileID).Count(&reactionCount)
	h.db.Model(&models.Comment{}).Where("profile_id = ?", profileID).Count(&commentCount)

	c.JSON(http.StatusOK, gin.H{
		"profile":        profile,
		"reaction_count": reactionCount,
		"comment_count":  commentCount,
	})
}
