package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/musikito/imagigenie/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// Ledger applies credit deltas to user balances. Every mutation is a single
// conditional UPDATE, so two concurrent spends can never both read the same
// stale balance: the WHERE clause decides at the storage layer.
type Ledger struct {
	db *gorm.DB
}

// New returns a Ledger backed by db.
func New(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Balance returns the current credit balance for a user.
func (l *Ledger) Balance(ctx context.Context, userID uint) (int, error) {
	var user domain.User
	if err := l.db.WithContext(ctx).Select("credit_balance").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("query balance: %w", err)
	}
	return user.CreditBalance, nil
}

// ApplyDelta adjusts a user's balance by delta and returns the new balance.
//
// A non-empty idempotencyKey marks the delta as caused by an external purchase
// event: if a Transaction with that key already exists the call is a no-op and
// the current balance is returned. Negative deltas that would take the balance
// below zero are rejected with ErrInsufficientCredits and mutate nothing.
func (l *Ledger) ApplyDelta(ctx context.Context, userID uint, delta int, idempotencyKey string) (int, error) {
	var newBalance int
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if idempotencyKey != "" {
			var count int64
			if err := tx.Model(&domain.Transaction{}).
				Where("session_id = ?", idempotencyKey).
				Count(&count).Error; err != nil {
				return fmt.Errorf("check idempotency key: %w", err)
			}
			if count > 0 {
				// Already applied, return the current balance unchanged
				var user domain.User
				if err := tx.Select("credit_balance").First(&user, userID).Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return ErrUserNotFound
					}
					return fmt.Errorf("query balance: %w", err)
				}
				newBalance = user.CreditBalance
				return nil
			}
		}
		balance, err := applyDeltaTx(tx, userID, delta)
		if err != nil {
			return err
		}
		newBalance = balance
		return nil
	})
	if err != nil {
		return 0, err
	}
	// Log every balance movement
	logrus.WithFields(logrus.Fields{
		"user_id":     userID,
		"delta":       delta,
		"new_balance": newBalance,
	}).Info("Ledger delta applied")
	return newBalance, nil
}

// applyDeltaTx performs the atomic conditional balance update inside tx. The
// guard `credit_balance + delta >= 0` is evaluated by the database, so the
// read-modify-write can never interleave across requests.
func applyDeltaTx(tx *gorm.DB, userID uint, delta int) (int, error) {
	res := tx.Model(&domain.User{}).
		Where("id = ? AND credit_balance + ? >= 0", userID, delta).
		Update("credit_balance", gorm.Expr("credit_balance + ?", delta))
	if res.Error != nil {
		return 0, fmt.Errorf("update balance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Either the user does not exist or the guard rejected an overdraft
		var count int64
		if err := tx.Model(&domain.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
			return 0, fmt.Errorf("check user: %w", err)
		}
		if count == 0 {
			return 0, ErrUserNotFound
		}
		return 0, ErrInsufficientCredits
	}
	var user domain.User
	if err := tx.Select("credit_balance").First(&user, userID).Error; err != nil {
		return 0, fmt.Errorf("reread balance: %w", err)
	}
	return user.CreditBalance, nil
}
