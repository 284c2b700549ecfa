package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/day1healthdeveloper-cmd/day1main-system-sub004/internal/models"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from models.TransactionStatus
		to   models.TransactionStatus
		want bool
	}{
		{"pending to submitted", models.TxnStatusPending, models.TxnStatusSubmitted, true},
		{"submitted to successful", models.TxnStatusSubmitted, models.TxnStatusSuccessful, true},
		{"submitted to failed", models.TxnStatusSubmitted, models.TxnStatusFailed, true},
		{"submitted to rejected", models.TxnStatusSubmitted, models.TxnStatusRejected, true},
		{"successful to refunded", models.TxnStatusSuccessful, models.TxnStatusRefunded, true},
		{"pending to successful", models.TxnStatusPending, models.TxnStatusSuccessful, false},
		{"successful to pending", models.TxnStatusSuccessful, models.TxnStatusPending, false},
		{"failed to pending", models.TxnStatusFailed, models.TxnStatusPending, false},
		{"failed to submitted", models.TxnStatusFailed, models.TxnStatusSubmitted, false},
		{"rejected to successful", models.TxnStatusRejected, models.TxnStatusSuccessful, false},
		{"refunded to successful", models.TxnStatusRefunded, models.TxnStatusSuccessful, false},
		{"failed to refunded", models.TxnStatusFailed, models.TxnStatusRefunded, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := models.CanTransition(tt.from, tt.to)
			if got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func newLedgerFixture() (*fakeStore, *LedgerService) {
	fs := newFakeStore()
	ledger := NewLedgerService(txnView{fs}, zap.NewNop())
	return fs, ledger
}

func TestTransitionAppliesLegalMove(t *testing.T) {
	fs, ledger := newLedgerFixture()
	fs.txns["t1"] = &models.Transaction{ID: "t1", Status: models.TxnStatusSubmitted, AmountCents: 50000}

	changed, err := ledger.Transition(context.Background(), "t1", models.TxnStatusSuccessful, "", time.Now())
	if err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	if !changed {
		t.Error("Transition() changed = false, want true")
	}
	if fs.txns["t1"].Status != models.TxnStatusSuccessful {
		t.Errorf("status = %s, want successful", fs.txns["t1"].Status)
	}
}

func TestTransitionSameStatusIsNoOp(t *testing.T) {
	fs, ledger := newLedgerFixture()
	fs.txns["t1"] = &models.Transaction{ID: "t1", Status: models.TxnStatusSuccessful}

	changed, err := ledger.Transition(context.Background(), "t1", models.TxnStatusSuccessful, "", time.Now())
	if err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	if changed {
		t.Error("re-applying the same status should not report a change")
	}
}

func TestTransitionRejectsIllegalMove(t *testing.T) {
	fs, ledger := newLedgerFixture()
	fs.txns["t1"] = &models.Transaction{ID: "t1", Status: models.TxnStatusFailed, Reason: "insufficient funds"}

	_, err := ledger.Transition(context.Background(), "t1", models.TxnStatusPending, "", time.Now())
	if !errors.Is(err, models.ErrInvalidTransition) {
		t.Fatalf("Transition() error = %v, want ErrInvalidTransition", err)
	}
	// The stored state must be untouched.
	if fs.txns["t1"].Status != models.TxnStatusFailed {
		t.Errorf("status = %s, want failed (unchanged)", fs.txns["t1"].Status)
	}
	if fs.txns["t1"].Reason != "insufficient funds" {
		t.Errorf("reason overwritten: %q", fs.txns["t1"].Reason)
	}
}

func TestTransitionNeverLeavesTerminalState(t *testing.T) {
	terminal := []models.TransactionStatus{
		models.TxnStatusFailed,
		models.TxnStatusRejected,
		models.TxnStatusRefunded,
	}
	regressTo := []models.TransactionStatus{
		models.TxnStatusPending,
		models.TxnStatusSubmitted,
	}

	for _, from := range terminal {
		for _, to := range regressTo {
			fs, ledger := newLedgerFixture()
			fs.txns["t1"] = &models.Transaction{ID: "t1", Status: from}

			_, err := ledger.Transition(context.Background(), "t1", to, "", time.Now())
			if !errors.Is(err, models.ErrInvalidTransition) {
				t.Errorf("%s -> %s: error = %v, want ErrInvalidTransition", from, to, err)
			}
		}
	}
}
