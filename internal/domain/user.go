package domain

import "time"

// User Model. Accounts are created on first sight of a verified identity from
// the identity provider; the balance is mutated only through ledger operations.
type User struct {
	ID            uint   `gorm:"primaryKey"`           // Primary key
	ExternalID    string `gorm:"uniqueIndex;not null"` // Stable identity from the identity provider
	Email         string // Email address synced from the identity provider
	Username      string // Display username
	FirstName     string // First name
	LastName      string // Last name
	PhotoURL      string // Avatar URL
	CreditBalance int    `gorm:"not null;default:0"` // Credit balance, never negative
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
