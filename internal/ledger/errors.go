package ledger

import "errors"

// Sentinel errors for ledger and settlement failures.
var (
	ErrUserNotFound         = errors.New("ledger: user not found")
	ErrInsufficientCredits  = errors.New("ledger: insufficient credits")
	ErrInvalidSignature     = errors.New("ledger: invalid webhook signature")
	ErrInvalidPurchaseEvent = errors.New("ledger: invalid purchase event")
)
