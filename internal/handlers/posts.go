package handlers

import (
	"net/http"
	"strconv"

	"postpulse/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostsHandler manages the tracked post roster
type PostsHandler struct {
	db *gorm.DB
}

// NewPostsHandler creates a new posts handler
func NewPostsHandler(db *gorm.DB) *PostsHandler {
	return &PostsHandler{db: db}
}

// createPostRequest registers a post for engagement tracking
type createPostRequest struct {
	PostURN    string `json:"post_urn" binding:"required"`
	PostURL    string `json:"post_url"`
	AuthorName string `json:"author_name"`
}

// CreatePost registers a post to track. Registering the same urn twice
// returns the existing row.
func (h *PostsHandler) CreatePost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "post_urn is required"})
		return
	}

	var existing models.TrackedPost
	err := h.db.Where("post_urn = ?", req.PostURN).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusOK, existing)
		return
	}
	if err != gorm.ErrRecordNotFound {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check post"})
		return
	}

	post := models.TrackedPost{
		PostURN:    req.PostURN,
		PostURL:    req.PostURL,
		AuthorName: req.AuthorName,
	}
	if err := h.db.Create(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create post"})
		return
	}

	c.JSON(http.StatusCreated, post)
}

// ListPosts returns tracked posts, newest first.
func (h *PostsHandler) ListPosts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit := 50
	offset := (page - 1) * limit

	var posts []models.TrackedPost
	var total int64

	h.db.Model(&models.TrackedPost{}).Count(&total)
	err := h.db.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list posts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts, "total": total, "page": page})
}

// GetPostEngagement returns the stored engagement snapshot for one post.
func (h *PostsHandler) GetPostEngagement(c *gin.Context) {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	var post models.TrackedPost
	if err := h.db.First(&post, "id = ?", postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}

	var reactions []models.Reaction
	var comments []models.Comment
	h.db.Where("post_id = ?", postID).Find(&reactions)
	h.db.Where("post_id = ?", postID).Find(&comments)

	c.JSON(http.StatusOK, gin.H{
		"post":      post,
		"reactions": reactions,
		"comments":  comments,
	})
}
