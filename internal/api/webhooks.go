package api

import (
	"encoding/json" // JSON decoding
	"errors"        // Error matching
	"net/http"      // HTTP status codes

	"github.com/musikito/imagigenie/internal/identity" // Identity mapping service
	"github.com/musikito/imagigenie/internal/ledger"   // Purchase settlement
	"github.com/musikito/imagigenie/internal/utils"    // Utility functions

	"github.com/gin-gonic/gin"              // Gin web framework
	"github.com/redis/go-redis/v9"          // Redis client
	"github.com/sirupsen/logrus"            // Logging library
	svix "github.com/svix/svix-webhooks/go" // Identity webhook signature verification
)

// StripeWebhookHandler consumes signed payment confirmation events. Rejections
// (bad signature, malformed event) answer with 4xx so the provider's retry and
// alerting machinery reacts; settled and replayed events both answer 200.
func StripeWebhookHandler(settlement *ledger.Settlement, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := c.GetRawData() // Raw body, required for signature verification
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
			return
		}
		evt, err := settlement.VerifyEvent(payload, c.GetHeader("Stripe-Signature"))
		if err != nil {
			logrus.WithField("error", err.Error()).Warn("Rejected payment webhook")
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event"})
			return
		}
		if evt == nil {
			// Event type we do not consume
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}
		ctx := c.Request.Context()
		tx, err := settlement.HandlePaymentConfirmed(ctx, evt)
		if err != nil {
			if errors.Is(err, ledger.ErrInvalidPurchaseEvent) {
				logrus.WithField("error", err.Error()).Warn("Rejected payment webhook")
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event"})
				return
			}
			logrus.WithFields(logrus.Fields{
				"session_id": evt.SessionID,
				"error":      err.Error(),
			}).Error("Settlement failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Settlement failed"})
			return
		}
		// Invalidate balance and history caches for the buyer
		_ = utils.DeleteCache(ctx, rdb, utils.UserKey("credits", tx.BuyerID))
		utils.DeleteCachePrefix(ctx, rdb, utils.UserKey("txhistory", tx.BuyerID))
		c.JSON(http.StatusOK, gin.H{"transaction": tx})
	}
}

// IdentityWebhookHandler consumes signed profile-sync events from the identity
// provider (user created/updated/deleted).
func IdentityWebhookHandler(users *identity.Service, webhookSecret string) gin.HandlerFunc {
	wh, err := svix.NewWebhook(webhookSecret)
	if err != nil {
		logrus.Fatalf("invalid identity webhook secret: %v", err)
	}
	return func(c *gin.Context) {
		payload, err := c.GetRawData() // Raw body, required for signature verification
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
			return
		}
		if err := wh.Verify(payload, c.Request.Header); err != nil {
			logrus.WithField("error", err.Error()).Warn("Rejected identity webhook")
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
			return
		}
		var evt identity.ProfileEvent
		if err := json.Unmarshal(payload, &evt); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event payload"})
			return
		}
		if err := users.HandleProfileEvent(c.Request.Context(), evt); err != nil {
			logrus.WithFields(logrus.Fields{
				"event": evt.Type,
				"error": err.Error(),
			}).Error("Identity event failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to apply event"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}
