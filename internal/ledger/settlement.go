package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/musikito/imagigenie/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus"              // Logging library
	"github.com/stripe/stripe-go/v76"         // Payment provider SDK
	"github.com/stripe/stripe-go/v76/webhook" // Webhook signature verification
	"gorm.io/gorm"                            // GORM ORM library
)

// PaymentEvent is a verified, parsed payment confirmation.
type PaymentEvent struct {
	SessionID   string // Checkout session id, used as the idempotency key
	AmountCents int64  // Amount paid
	PlanID      string // Purchased plan
	Credits     int    // Credits to grant
	BuyerID     uint   // Internal id of the buying user
}

// Settlement converts confirmed payment events into durable ledger credits.
// It tolerates at-least-once and out-of-order webhook delivery: replays of a
// session return the stored Transaction without touching the balance.
type Settlement struct {
	db            *gorm.DB
	webhookSecret string
}

// NewSettlement returns a Settlement verifying events against webhookSecret.
func NewSettlement(db *gorm.DB, webhookSecret string) *Settlement {
	return &Settlement{db: db, webhookSecret: webhookSecret}
}

// VerifyEvent checks the payment provider's signature over the raw payload and
// extracts the payment confirmation. It returns ErrInvalidSignature before any
// parsing when the signature does not match, and (nil, nil) for event types
// this service does not consume.
func (s *Settlement) VerifyEvent(payload []byte, signatureHeader string) (*PaymentEvent, error) {
	event, err := webhook.ConstructEvent(payload, signatureHeader, s.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if event.Type != "checkout.session.completed" {
		return nil, nil
	}
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPurchaseEvent, err)
	}
	credits, err := strconv.Atoi(session.Metadata["credits"])
	if err != nil {
		return nil, fmt.Errorf("%w: bad credits metadata %q", ErrInvalidPurchaseEvent, session.Metadata["credits"])
	}
	buyerID, err := strconv.ParseUint(session.Metadata["buyer_id"], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: bad buyer metadata %q", ErrInvalidPurchaseEvent, session.Metadata["buyer_id"])
	}
	return &PaymentEvent{
		SessionID:   session.ID,
		AmountCents: session.AmountTotal,
		PlanID:      session.Metadata["plan_id"],
		Credits:     credits,
		BuyerID:     uint(buyerID),
	}, nil
}

// HandlePaymentConfirmed credits the buyer and persists the Transaction record
// in one database transaction, so the balance change and its record exist
// together or not at all. A replayed session returns the existing Transaction
// unchanged; that path is success, not an error.
func (s *Settlement) HandlePaymentConfirmed(ctx context.Context, evt *PaymentEvent) (*domain.Transaction, error) {
	if evt.SessionID == "" || evt.Credits <= 0 {
		return nil, fmt.Errorf("%w: session %q credits %d", ErrInvalidPurchaseEvent, evt.SessionID, evt.Credits)
	}
	if _, ok := domain.PlanByID(evt.PlanID); !ok {
		return nil, fmt.Errorf("%w: unknown plan %q", ErrInvalidPurchaseEvent, evt.PlanID)
	}
	var record domain.Transaction
	duplicate := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("session_id = ?", evt.SessionID).First(&record).Error
		if err == nil {
			duplicate = true
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("lookup session: %w", err)
		}
		if _, err := applyDeltaTx(tx, evt.BuyerID, evt.Credits); err != nil {
			if errors.Is(err, ErrUserNotFound) {
				return fmt.Errorf("%w: unknown buyer %d", ErrInvalidPurchaseEvent, evt.BuyerID)
			}
			return err
		}
		record = domain.Transaction{
			SessionID:   evt.SessionID,
			AmountCents: evt.AmountCents,
			Plan:        evt.PlanID,
			Credits:     evt.Credits,
			BuyerID:     evt.BuyerID,
		}
		// The unique session index backstops races between concurrent
		// deliveries: the loser's transaction rolls back here.
		return tx.Create(&record).Error
	})
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"session_id": evt.SessionID,
		"buyer_id":   evt.BuyerID,
		"plan":       evt.PlanID,
		"credits":    evt.Credits,
		"amount":     evt.AmountCents,
		"duplicate":  duplicate,
	}).Info("Purchase settled")
	return &record, nil
}
