package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/musikito/imagigenie/internal/domain"
)

func TestGateChargesPerKindCost(t *testing.T) {
	db := newTestDB(t)
	gate := NewGate(New(db))
	user := newTestUser(t, db, "user_1", 10)

	decision, err := gate.Request(context.Background(), user.ID, domain.KindFill)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if decision.Cost != domain.TransformationCosts[domain.KindFill] {
		t.Errorf("cost: got %d, want %d", decision.Cost, domain.TransformationCosts[domain.KindFill])
	}
	if decision.NewBalance != 10-decision.Cost {
		t.Errorf("new balance: got %d, want %d", decision.NewBalance, 10-decision.Cost)
	}
}

func TestGateDeniesWithoutMutation(t *testing.T) {
	db := newTestDB(t)
	gate := NewGate(New(db))
	user := newTestUser(t, db, "user_1", 2)

	_, err := gate.Request(context.Background(), user.ID, domain.KindRemoveObject)
	if !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("denial: got %v, want ErrInsufficientCredits", err)
	}
	balance, err := New(db).Balance(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 2 {
		t.Errorf("denied request must not mutate: got balance %d, want 2", balance)
	}
}

func TestGateRejectsUnknownKind(t *testing.T) {
	db := newTestDB(t)
	gate := NewGate(New(db))
	user := newTestUser(t, db, "user_1", 10)

	if _, err := gate.Request(context.Background(), user.ID, "sharpen"); err == nil {
		t.Fatal("unknown kind must be rejected")
	}
}

func TestChargeRefundSymmetry(t *testing.T) {
	db := newTestDB(t)
	l := New(db)
	gate := NewGate(l)
	user := newTestUser(t, db, "user_1", 7)

	decision, err := gate.Request(context.Background(), user.ID, domain.KindRecolor)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	// Simulated upstream failure: the caller compensates
	if err := gate.Refund(context.Background(), user.ID, decision.Cost); err != nil {
		t.Fatalf("refund: %v", err)
	}
	balance, err := l.Balance(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 7 {
		t.Errorf("refund must restore the pre-request balance: got %d, want 7", balance)
	}
}
