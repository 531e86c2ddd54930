package ledger

import (
	"context"
	"fmt"

	"github.com/musikito/imagigenie/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Logging library
)

// Gate is the check-then-charge guard in front of the transformation provider.
// Credits are charged before the slow provider call so no ledger work is held
// across external latency; a failed call must be compensated with Refund.
type Gate struct {
	ledger *Ledger
}

// NewGate returns a Gate charging against l.
func NewGate(l *Ledger) *Gate {
	return &Gate{ledger: l}
}

// Decision records an approved charge.
type Decision struct {
	Cost       int // Credits charged for this transformation
	NewBalance int // Balance after the charge
}

// Request charges the cost of a transformation of the given kind. It returns
// ErrInsufficientCredits, with no mutation, when the balance cannot cover it.
func (g *Gate) Request(ctx context.Context, userID uint, kind domain.TransformationKind) (*Decision, error) {
	cost, ok := domain.TransformationCosts[kind]
	if !ok {
		return nil, fmt.Errorf("unknown transformation kind %q", kind)
	}
	balance, err := g.ledger.ApplyDelta(ctx, userID, -cost, "")
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"user_id":     userID,
		"kind":        kind,
		"cost":        cost,
		"new_balance": balance,
	}).Info("Transformation approved")
	return &Decision{Cost: cost, NewBalance: balance}, nil
}

// Refund compensates a prior charge after the transformation failed upstream,
// restoring the balance to its pre-request value.
func (g *Gate) Refund(ctx context.Context, userID uint, cost int) error {
	if cost <= 0 {
		return fmt.Errorf("refund cost must be positive")
	}
	balance, err := g.ledger.ApplyDelta(ctx, userID, cost, "")
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"user_id":     userID,
		"cost":        cost,
		"new_balance": balance,
	}).Info("Transformation charge refunded")
	return nil
}
