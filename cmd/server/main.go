package main

import (
	"context" // context package is needed for Redis operations
	"log"     // log package is needed for logging

	"github.com/musikito/imagigenie/internal/api"        // Custom package for API handlers
	"github.com/musikito/imagigenie/internal/catalog"    // Custom package for the image catalog
	"github.com/musikito/imagigenie/internal/config"     // Custom package for configuration
	"github.com/musikito/imagigenie/internal/identity"   // Custom package for identity mapping
	"github.com/musikito/imagigenie/internal/ledger"     // Custom package for the credit ledger
	"github.com/musikito/imagigenie/internal/middleware" // Custom package for middleware
	"github.com/musikito/imagigenie/internal/transform"  // Custom package for the provider client

	"github.com/gin-gonic/gin"        // Gin web framework
	"github.com/redis/go-redis/v9"    // Redis client
	"github.com/sirupsen/logrus"      // Logrus for structured logging
	"github.com/stripe/stripe-go/v76" // Payment provider SDK
	"gorm.io/driver/mysql"            // MySQL driver for GORM
	"gorm.io/gorm"                    // GORM ORM library
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Setup Data Source Name (DSN) and connect to the database
	dsn := cfg.DBUser + ":" + cfg.DBPassword + "@tcp(" + cfg.DBHost + ":" + cfg.DBPort + ")/" + cfg.DBName + "?parseTime=true"
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	_, err = redisClient.Ping(context.Background()).Result()
	if err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Payment provider API key
	stripe.Key = cfg.StripeSecretKey

	// Wire the service components
	users := identity.NewService(db, cfg.WelcomeCredits)
	creditLedger := ledger.New(db)
	gate := ledger.NewGate(creditLedger)
	settlement := ledger.NewSettlement(db, cfg.StripeWebhookSecret)
	imageCatalog := catalog.New(db)
	provider := transform.NewClient(cfg.TransformAPIURL, cfg.TransformAPIKey)

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	// Webhook routes (unauthenticated, signature-verified)
	r.POST("/webhooks/stripe", api.StripeWebhookHandler(settlement, redisClient))              // Payment confirmation endpoint
	r.POST("/webhooks/identity", api.IdentityWebhookHandler(users, cfg.IdentityWebhookSecret)) // Profile sync endpoint

	// API routes (protected by the identity provider's session token)
	apiGroup := r.Group("/api")
	apiGroup.Use(middleware.AuthMiddleware(cfg.JWTSecret, users))
	apiGroup.GET("/credits", api.GetCreditsHandler(db, redisClient))                                   // Balance endpoint
	apiGroup.GET("/transactions", api.GetTransactionsHandler(db, redisClient))                         // Purchase history endpoint
	apiGroup.POST("/checkout", api.CheckoutHandler(cfg))                                               // Hosted checkout endpoint
	apiGroup.POST("/transformations", api.TransformHandler(gate, provider, imageCatalog, redisClient)) // Credit-gated transformation endpoint
	apiGroup.GET("/images", api.ListImagesHandler(imageCatalog, redisClient))                          // Image listing endpoint
	apiGroup.GET("/images/:id", api.GetImageHandler(imageCatalog))                                     // Image fetch endpoint
	apiGroup.PUT("/images/:id", api.UpdateImageHandler(imageCatalog, redisClient))                     // Image update endpoint
	apiGroup.DELETE("/images/:id", api.DeleteImageHandler(imageCatalog, redisClient))                  // Image delete endpoint

	log.Println("Server running on " + cfg.AppPort) // Log server start
	r.Run(":" + cfg.AppPort)                        // Start the server on port cfg.AppPort
}
