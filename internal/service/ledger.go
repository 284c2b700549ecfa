package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/day1healthdeveloper-cmd/day1main-system-sub004/internal/models"
)

// LedgerService is the only writer of transaction status transitions. All
// status changes flow through Transition, which enforces the closed
// transition table and never overwrites state on an illegal move.
type LedgerService struct {
	txns   TransactionStore
	logger *zap.Logger
}

func NewLedgerService(txns TransactionStore, logger *zap.Logger) *LedgerService {
	return &LedgerService{txns: txns, logger: logger}
}

// Transition moves a transaction to a new status. Re-applying the current
// status is a no-op (changed=false, nil error) so outcome ingestion can be
// replayed safely. Illegal moves return ErrInvalidTransition and leave the
// row untouched.
func (s *LedgerService) Transition(ctx context.Context, txnID string, to models.TransactionStatus, reason string, at time.Time) (bool, error) {
	txn, err := s.txns.GetByID(ctx, txnID)
	if err != nil {
		return false, err
	}

	if txn.Status == to {
		return false, nil
	}

	if !models.CanTransition(txn.Status, to) {
		s.logger.Warn("illegal transaction transition rejected",
			zap.String("transaction_id", txnID),
			zap.String("from", string(txn.Status)),
			zap.String("to", string(to)))
		return false, fmt.Errorf("%w: %s -> %s on transaction %s",
			models.ErrInvalidTransition, txn.Status, to, txnID)
	}

	changed, err := s.txns.TransitionStatus(ctx, txnID, txn.Status, to, reason, at)
	if err != nil {
		return false, err
	}
	if !changed {
		// Lost a race: re-read and decide whether the winner applied the
		// same outcome (no-op) or a conflicting one.
		current, err := s.txns.GetByID(ctx, txnID)
		if err != nil {
			return false, err
		}
		if current.Status == to {
			return false, nil
		}
		return false, fmt.Errorf("%w: %s -> %s on transaction %s (now %s)",
			models.ErrInvalidTransition, txn.Status, to, txnID, current.Status)
	}

	return true, nil
}

// Get returns a single transaction.
func (s *LedgerService) Get(ctx context.Context, txnID string) (*models.Transaction, error) {
	return s.txns.GetByID(ctx, txnID)
}

// GetByProcessorReference locates a transaction by its bureau line reference.
func (s *LedgerService) GetByProcessorReference(ctx context.Context, ref string) (*models.Transaction, error) {
	return s.txns.GetByProcessorReference(ctx, ref)
}

// List returns transactions matching a filter, paginated.
func (s *LedgerService) List(ctx context.Context, filter models.TransactionFilter) ([]*models.Transaction, error) {
	return s.txns.List(ctx, filter)
}

// Stats summarises counts and amounts by status over a date range.
func (s *LedgerService) Stats(ctx context.Context, from, to time.Time) (*models.TransactionStats, error) {
	return s.txns.Stats(ctx, from, to)
}
