package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/musikito/imagigenie/internal/domain"
)

func TestSettlementCreditsExactlyOnce(t *testing.T) {
	db := newTestDB(t)
	s := NewSettlement(db, "whsec_test")
	user := newTestUser(t, db, "user_1", 10)

	evt := &PaymentEvent{SessionID: "cs_1", AmountCents: 4000, PlanID: "pro", Credits: 100, BuyerID: user.ID}

	first, err := s.HandlePaymentConfirmed(context.Background(), evt)
	if err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	// At-least-once delivery: the same event arrives again
	second, err := s.HandlePaymentConfirmed(context.Background(), evt)
	if err != nil {
		t.Fatalf("second delivery: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("replay must return the stored record: got ids %d and %d", first.ID, second.ID)
	}

	var count int64
	if err := db.Model(&domain.Transaction{}).Where("session_id = ?", "cs_1").Count(&count).Error; err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	if count != 1 {
		t.Errorf("transactions for session: got %d, want 1", count)
	}
	balance, err := New(db).Balance(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 110 {
		t.Errorf("balance must increase once: got %d, want 110", balance)
	}
}

func TestSettlementRejectsInvalidEvents(t *testing.T) {
	db := newTestDB(t)
	s := NewSettlement(db, "whsec_test")
	user := newTestUser(t, db, "user_1", 0)

	tests := []struct {
		name string
		evt  PaymentEvent
	}{
		{"zero credits", PaymentEvent{SessionID: "cs_a", AmountCents: 100, PlanID: "pro", Credits: 0, BuyerID: user.ID}},
		{"missing session", PaymentEvent{AmountCents: 100, PlanID: "pro", Credits: 10, BuyerID: user.ID}},
		{"unknown plan", PaymentEvent{SessionID: "cs_b", AmountCents: 100, PlanID: "mega", Credits: 10, BuyerID: user.ID}},
		{"unknown buyer", PaymentEvent{SessionID: "cs_c", AmountCents: 100, PlanID: "pro", Credits: 10, BuyerID: 999}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.HandlePaymentConfirmed(context.Background(), &tt.evt); !errors.Is(err, ErrInvalidPurchaseEvent) {
				t.Errorf("got %v, want ErrInvalidPurchaseEvent", err)
			}
		})
	}

	// Rejections never partially apply
	var count int64
	if err := db.Model(&domain.Transaction{}).Count(&count).Error; err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	if count != 0 {
		t.Errorf("rejected events must write nothing: got %d transactions", count)
	}
	balance, err := New(db).Balance(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 0 {
		t.Errorf("rejected events must not credit: got balance %d, want 0", balance)
	}
}

func TestVerifyEventRejectsBadSignature(t *testing.T) {
	s := NewSettlement(newTestDB(t), "whsec_test")

	if _, err := s.VerifyEvent([]byte(`{"type":"checkout.session.completed"}`), "t=1,v1=deadbeef"); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("bad signature: got %v, want ErrInvalidSignature", err)
	}
	if _, err := s.VerifyEvent([]byte(`{}`), ""); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("missing signature: got %v, want ErrInvalidSignature", err)
	}
}
