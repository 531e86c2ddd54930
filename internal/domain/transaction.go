package domain

import "time"

// Transaction Model. Immutable record of a purchased credit pack. The checkout
// session id doubles as the idempotency key: at most one row may exist per
// session, so a redelivered payment webhook can never credit twice.
type Transaction struct {
	ID          uint   `gorm:"primaryKey"`           // Primary key
	SessionID   string `gorm:"uniqueIndex;not null"` // Checkout session id (idempotency key)
	AmountCents int64  `gorm:"not null"`             // Amount paid, smallest currency unit
	Plan        string `gorm:"not null"`             // Plan identifier
	Credits     int    `gorm:"not null"`             // Credits granted
	BuyerID     uint   `gorm:"not null;index"`       // Foreign key to User
	CreatedAt   time.Time
}
