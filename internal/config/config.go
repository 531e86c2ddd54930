package config

import (
	"os"      // For environment variables
	"strconv" // For string to int conversion

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration. It is loaded once at startup and
// injected into components; nothing reads the environment after this point.
type Config struct {
	AppPort               string // Application port
	DBUser                string // Database user
	DBPassword            string // Database password
	DBHost                string // Database host
	DBPort                string // Database port
	DBName                string // Database name
	JWTSecret             string // Shared secret for identity provider session tokens
	RedisAddr             string // Redis server address
	RedisPass             string // Redis password
	RedisDB               int    // Redis database number
	StripeSecretKey       string // Payment provider API key
	StripeWebhookSecret   string // Payment webhook signing secret
	CheckoutSuccessURL    string // Redirect after a successful checkout
	CheckoutCancelURL     string // Redirect after a cancelled checkout
	IdentityWebhookSecret string // Identity provider webhook signing secret
	TransformAPIURL       string // Transformation provider endpoint
	TransformAPIKey       string // Transformation provider API key
	WelcomeCredits        int    // Credits granted on first sign-in
	IsProd                bool   // Is production environment
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	welcome, err := strconv.Atoi(os.Getenv("WELCOME_CREDITS"))
	if err != nil {
		welcome = 10 // Default welcome balance for new accounts
	}
	return &Config{
		AppPort:               os.Getenv("APP_PORT"),
		DBUser:                os.Getenv("DB_USER"),
		DBPassword:            os.Getenv("DB_PASSWORD"),
		DBHost:                os.Getenv("DB_HOST"),
		DBPort:                os.Getenv("DB_PORT"),
		DBName:                os.Getenv("DB_NAME"),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPass:             os.Getenv("REDIS_PASS"),
		RedisDB:               redisDB,
		StripeSecretKey:       os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret:   os.Getenv("STRIPE_WEBHOOK_SECRET"),
		CheckoutSuccessURL:    os.Getenv("CHECKOUT_SUCCESS_URL"),
		CheckoutCancelURL:     os.Getenv("CHECKOUT_CANCEL_URL"),
		IdentityWebhookSecret: os.Getenv("IDENTITY_WEBHOOK_SECRET"),
		TransformAPIURL:       os.Getenv("TRANSFORM_API_URL"),
		TransformAPIKey:       os.Getenv("TRANSFORM_API_KEY"),
		WelcomeCredits:        welcome,
		IsProd:                os.Getenv("IS_PROD") == "true",
	}
}
