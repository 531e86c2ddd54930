package api

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversion

	"github.com/musikito/imagigenie/internal/config" // Application configuration
	"github.com/musikito/imagigenie/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin"                         // Gin web framework
	"github.com/sirupsen/logrus"                       // Logging library
	"github.com/stripe/stripe-go/v76"                  // Payment provider SDK
	"github.com/stripe/stripe-go/v76/checkout/session" // Hosted checkout sessions
)

// CheckoutRequest represents a checkout request
type CheckoutRequest struct {
	PlanID string `json:"plan_id" binding:"required"` // Plan to purchase
}

// CheckoutHandler creates a hosted checkout session for a credit pack and
// returns the URL the user is redirected to. Settlement happens later through
// the payment webhook.
func CheckoutHandler(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req CheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		plan, ok := domain.PlanByID(req.PlanID)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown plan"})
			return
		}
		if plan.PriceCents == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Plan is not purchasable"})
			return
		}
		params := &stripe.CheckoutSessionParams{
			Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
			LineItems: []*stripe.CheckoutSessionLineItemParams{
				{
					PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
						Currency:   stripe.String("usd"),
						UnitAmount: stripe.Int64(plan.PriceCents),
						ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
							Name: stripe.String(plan.Name),
						},
					},
					Quantity: stripe.Int64(1),
				},
			},
			SuccessURL: stripe.String(cfg.CheckoutSuccessURL),
			CancelURL:  stripe.String(cfg.CheckoutCancelURL),
		}
		// Settlement reads these back from the confirmation event
		params.AddMetadata("plan_id", plan.ID)
		params.AddMetadata("credits", strconv.Itoa(plan.Credits))
		params.AddMetadata("buyer_id", strconv.FormatUint(uint64(userID.(uint)), 10))
		s, err := session.New(params)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,
				"plan":    plan.ID,
				"error":   err.Error(),
			}).Error("Failed to create checkout session")
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to create checkout session"})
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id":    userID,
			"plan":       plan.ID,
			"session_id": s.ID,
		}).Info("Checkout session created")
		c.JSON(http.StatusOK, gin.H{"url": s.URL})
	}
}
