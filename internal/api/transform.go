package api

import (
	"context"  // Detached refund context
	"errors"   // Error matching
	"net/http" // HTTP status codes

	"github.com/musikito/imagigenie/internal/catalog"   // Image catalog
	"github.com/musikito/imagigenie/internal/domain"    // Importing domain models
	"github.com/musikito/imagigenie/internal/ledger"    // Credit ledger and gate
	"github.com/musikito/imagigenie/internal/transform" // Transformation provider client
	"github.com/musikito/imagigenie/internal/utils"     // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// TransformRequest represents a transformation request
type TransformRequest struct {
	Title     string                      `json:"title" binding:"required"`      // Display title for the saved image
	SourceURL string                      `json:"source_url" binding:"required"` // Source asset reference
	Config    domain.TransformationConfig `json:"config" binding:"required"`     // Typed transformation parameters
}

// TransformHandler runs the credit-gated transformation flow: charge, call the
// provider, persist the result. A provider failure after the charge triggers
// the compensating refund so failed work never consumes paid credits.
func TransformHandler(gate *ledger.Gate, provider *transform.Client, cat *catalog.Catalog, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		uid := userID.(uint)
		var req TransformRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if err := req.Config.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx := c.Request.Context()
		// Charge first; the gate is atomic and holds nothing across the
		// slow provider call
		decision, err := gate.Request(ctx, uid, req.Config.Kind)
		if err != nil {
			if errors.Is(err, ledger.ErrInsufficientCredits) {
				c.JSON(http.StatusPaymentRequired, gin.H{"error": "Insufficient credits"})
				return
			}
			logrus.WithFields(logrus.Fields{
				"user_id": uid,
				"kind":    req.Config.Kind,
				"error":   err.Error(),
			}).Error("Transformation charge failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to charge credits"})
			return
		}
		result, err := provider.Apply(ctx, transform.Request{SourceURL: req.SourceURL, Config: req.Config})
		if err != nil {
			refundAndRespond(c, gate, uid, decision.Cost, err)
			return
		}
		image, err := cat.Create(ctx, catalog.CreateParams{
			AuthorID:  uid,
			Title:     req.Title,
			Config:    req.Config,
			SourceURL: req.SourceURL,
			ResultURL: result.ResultURL,
			Width:     result.Width,
			Height:    result.Height,
		})
		if err != nil {
			refundAndRespond(c, gate, uid, decision.Cost, err)
			return
		}
		// Invalidate balance and image list caches
		_ = utils.DeleteCache(ctx, rdb, utils.UserKey("credits", uid))
		utils.DeleteCachePrefix(ctx, rdb, utils.UserKey("images", uid))
		c.JSON(http.StatusCreated, gin.H{"image": image, "credits": decision.NewBalance})
	}
}

// refundAndRespond issues the compensating refund after a post-charge failure
// and maps the failure to a response. The refund runs on a detached context:
// the failure may itself be the caller disconnecting, and the compensation
// must reach the database even when the request context is already cancelled.
func refundAndRespond(c *gin.Context, gate *ledger.Gate, userID uint, cost int, cause error) {
	refundCtx := context.WithoutCancel(c.Request.Context())
	if refundErr := gate.Refund(refundCtx, userID, cost); refundErr != nil {
		// The charge stands with no saved work; this needs operator attention
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"cost":    cost,
			"cause":   cause.Error(),
			"error":   refundErr.Error(),
		}).Error("Refund after failed transformation did not apply")
	}
	if errors.Is(cause, transform.ErrUpstream) {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Transformation failed"})
		return
	}
	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"error":   cause.Error(),
	}).Error("Failed to save transformation result")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save transformation"})
}
