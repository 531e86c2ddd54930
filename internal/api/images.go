package api

import (
	"errors"   // Error matching
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"time"     // Time durations

	"github.com/musikito/imagigenie/internal/catalog" // Image catalog
	"github.com/musikito/imagigenie/internal/domain"  // Importing domain models
	"github.com/musikito/imagigenie/internal/utils"   // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

// parseImageID extracts the :id route parameter
func parseImageID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image id"})
		return 0, false
	}
	return uint(id), true
}

// GetImageHandler returns a single image by id
func GetImageHandler(cat *catalog.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseImageID(c)
		if !ok {
			return
		}
		image, err := cat.GetByID(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch image"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"image": image})
	}
}

// ListImagesHandler returns the authenticated user's images, most recently
// updated first, with total-page metadata
func ListImagesHandler(cat *catalog.Catalog, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		page := 1     // Default page
		pageSize := 9 // Default page size, matches the gallery grid
		if p := c.Query("page"); p != "" {
			if v, err := strconv.Atoi(p); err == nil && v > 0 {
				page = v
			}
		}
		if ps := c.Query("page_size"); ps != "" {
			if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
				pageSize = v
			}
		}
		filter := catalog.ListFilter{AuthorID: userID.(uint)}
		if kind := c.Query("kind"); kind != "" {
			k := domain.TransformationKind(kind)
			if !k.Valid() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown transformation kind"})
				return
			}
			filter.Kind = k
		}
		ctx := c.Request.Context()
		cacheKey := utils.UserKey("images", userID.(uint)) + ":page:" + strconv.Itoa(page) + ":size:" + strconv.Itoa(pageSize)
		if filter.Kind != "" {
			cacheKey += ":kind:" + string(filter.Kind)
		}
		var cached catalog.Page
		found, err := utils.GetCache(ctx, rdb, cacheKey, &cached) // Try to get from cache
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{"result": cached, "cached": true})
			return
		}
		result, err := cat.ListPaged(ctx, filter, page, pageSize)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list images"})
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, result, 60*time.Second) // Cache for 60 seconds
		c.JSON(http.StatusOK, gin.H{"result": result, "cached": false})
	}
}

// UpdateImageRequest represents an image update request
type UpdateImageRequest struct {
	Title  *string                      `json:"title"`  // New title, optional
	Config *domain.TransformationConfig `json:"config"` // New parameters, optional
}

// UpdateImageHandler edits a saved image; author-only
func UpdateImageHandler(cat *catalog.Catalog, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		id, ok := parseImageID(c)
		if !ok {
			return
		}
		var req UpdateImageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		ctx := c.Request.Context()
		image, err := cat.Update(ctx, id, userID.(uint), catalog.UpdateParams{Title: req.Title, Config: req.Config})
		if err != nil {
			switch {
			case errors.Is(err, catalog.ErrNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
			case errors.Is(err, catalog.ErrUnauthorized):
				c.JSON(http.StatusForbidden, gin.H{"error": "Only the author may edit this image"})
			default:
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			}
			return
		}
		utils.DeleteCachePrefix(ctx, rdb, utils.UserKey("images", userID.(uint)))
		c.JSON(http.StatusOK, gin.H{"image": image})
	}
}

// DeleteImageHandler removes a saved image; author-only, hard delete
func DeleteImageHandler(cat *catalog.Catalog, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		id, ok := parseImageID(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		if err := cat.Delete(ctx, id, userID.(uint)); err != nil {
			switch {
			case errors.Is(err, catalog.ErrNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
			case errors.Is(err, catalog.ErrUnauthorized):
				c.JSON(http.StatusForbidden, gin.H{"error": "Only the author may delete this image"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete image"})
			}
			return
		}
		utils.DeleteCachePrefix(ctx, rdb, utils.UserKey("images", userID.(uint)))
		c.JSON(http.StatusOK, gin.H{"message": "Image deleted"})
	}
}
