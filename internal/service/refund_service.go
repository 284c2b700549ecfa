package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/day1healthdeveloper-cmd/day1main-system-sub004/internal/metrics"
	"github.com/day1healthdeveloper-cmd/day1main-system-sub004/internal/models"
	"github.com/day1healthdeveloper-cmd/day1main-system-sub004/internal/processor"
)

// RefundService handles reversals against settled transactions. A refund is
// a linked record; the source transaction only becomes refunded once the
// bureau confirms the reversal, never at request time.
type RefundService struct {
	ledger  *LedgerService
	txns    TransactionStore
	refunds RefundStore
	batches BatchStore
	client  ProcessorClient
	logger  *zap.Logger
}

func NewRefundService(
	ledger *LedgerService,
	txns TransactionStore,
	refunds RefundStore,
	batches BatchStore,
	client ProcessorClient,
	logger *zap.Logger,
) *RefundService {
	return &RefundService{
		ledger:  ledger,
		txns:    txns,
		refunds: refunds,
		batches: batches,
		client:  client,
		logger:  logger,
	}
}

// Request validates and creates a refund, then submits it to the bureau.
// Validation happens entirely before any processor call: the source must be
// a successful transaction and the amount must fit inside its unrefunded
// remainder.
func (s *RefundService) Request(ctx context.Context, transactionID string, amountCents int64, reason string) (*models.Refund, error) {
	txn, err := s.txns.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if txn.Status != models.TxnStatusSuccessful {
		return nil, fmt.Errorf("%w: transaction %s is %s", models.ErrRefundSourceNotSettled, txn.ID, txn.Status)
	}
	if amountCents <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", models.ErrInvalidRefundAmount)
	}

	claimed, err := s.refunds.SumActiveByTransaction(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to total existing refunds: %w", err)
	}
	if amountCents > txn.AmountCents-claimed {
		return nil, fmt.Errorf("%w: %d requested, %d refundable on transaction %s",
			models.ErrInvalidRefundAmount, amountCents, txn.AmountCents-claimed, txn.ID)
	}

	refund := &models.Refund{
		ID:            uuid.New().String(),
		TransactionID: txn.ID,
		AmountCents:   amountCents,
		Status:        models.RefundStatusPending,
		Reason:        reason,
		RequestedAt:   time.Now(),
	}
	if err := s.refunds.Create(ctx, refund); err != nil {
		return nil, fmt.Errorf("failed to create refund: %w", err)
	}
	metrics.Refunds.WithLabelValues(string(models.RefundStatusPending)).Inc()

	batch, err := s.batches.GetByID(ctx, txn.BatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load batch for refund: %w", err)
	}

	result, err := s.client.SubmitRefund(ctx, &processor.RefundRequest{
		BatchReference: batch.ProcessorReference,
		LineReference:  txn.ProcessorReference,
		AmountCents:    amountCents,
		Reason:         reason,
	})
	if err != nil {
		var rejection *processor.RejectionError
		if errors.As(err, &rejection) {
			if _, markErr := s.refunds.UpdateStatus(ctx, refund.ID, models.RefundStatusPending, models.RefundStatusFailed, "", nil); markErr != nil {
				s.logger.Error("failed to mark refund failed", zap.String("refund_id", refund.ID), zap.Error(markErr))
			}
			refund.Status = models.RefundStatusFailed
			metrics.Refunds.WithLabelValues(string(models.RefundStatusFailed)).Inc()
			return refund, err
		}
		// Ambiguous: the refund stays pending for manual verification, same
		// contract as batch submission.
		s.logger.Error("refund submission outcome unknown",
			zap.String("refund_id", refund.ID), zap.Error(err))
		return refund, err
	}

	if _, err := s.refunds.UpdateStatus(ctx, refund.ID, models.RefundStatusPending, models.RefundStatusProcessing, result.RefundReference, nil); err != nil {
		return nil, fmt.Errorf("refund accepted as %s but local state update failed: %w", result.RefundReference, err)
	}
	refund.Status = models.RefundStatusProcessing
	refund.ProcessorReference = result.RefundReference
	metrics.Refunds.WithLabelValues(string(models.RefundStatusProcessing)).Inc()

	s.logger.Info("refund submitted",
		zap.String("refund_id", refund.ID),
		zap.String("transaction_id", txn.ID),
		zap.Int64("amount_cents", amountCents))

	return refund, nil
}

// Confirm applies the bureau's confirmation: the refund completes and the
// source transaction flips to refunded. Confirming an already-completed
// refund is a no-op.
func (s *RefundService) Confirm(ctx context.Context, refundID string) (*models.Refund, error) {
	refund, err := s.refunds.GetByID(ctx, refundID)
	if err != nil {
		return nil, err
	}

	if refund.Status == models.RefundStatusCompleted {
		return refund, nil
	}
	if refund.Status != models.RefundStatusProcessing {
		return nil, fmt.Errorf("refund %s is %s, only processing refunds can be confirmed", refund.ID, refund.Status)
	}

	now := time.Now()
	if _, err := s.refunds.UpdateStatus(ctx, refund.ID, models.RefundStatusProcessing, models.RefundStatusCompleted, "", &now); err != nil {
		return nil, err
	}

	if _, err := s.ledger.Transition(ctx, refund.TransactionID, models.TxnStatusRefunded,
		fmt.Sprintf("refund %s confirmed", refund.ID), now); err != nil {
		return nil, fmt.Errorf("refund completed but ledger update failed: %w", err)
	}

	refund.Status = models.RefundStatusCompleted
	refund.CompletedAt = &now
	metrics.Refunds.WithLabelValues(string(models.RefundStatusCompleted)).Inc()

	s.logger.Info("refund confirmed",
		zap.String("refund_id", refund.ID),
		zap.String("transaction_id", refund.TransactionID))

	return refund, nil
}

// ResolvePending settles a refund left pending by an ambiguous submission,
// after the operator has verified the outcome with the bureau. The
// instruction either landed (processing, with the bureau's reference) or it
// did not (failed, which releases the claimed amount on the transaction).
func (s *RefundService) ResolvePending(ctx context.Context, refundID string, landed bool, processorRef string) (*models.Refund, error) {
	refund, err := s.refunds.GetByID(ctx, refundID)
	if err != nil {
		return nil, err
	}
	if refund.Status != models.RefundStatusPending {
		return nil, fmt.Errorf("refund %s is %s, only pending refunds can be resolved", refund.ID, refund.Status)
	}

	if landed {
		if processorRef == "" {
			return nil, fmt.Errorf("resolving refund %s as landed requires the bureau's refund reference", refund.ID)
		}
		if _, err := s.refunds.UpdateStatus(ctx, refund.ID, models.RefundStatusPending, models.RefundStatusProcessing, processorRef, nil); err != nil {
			return nil, err
		}
		refund.Status = models.RefundStatusProcessing
		refund.ProcessorReference = processorRef
		metrics.Refunds.WithLabelValues(string(models.RefundStatusProcessing)).Inc()
	} else {
		if _, err := s.refunds.UpdateStatus(ctx, refund.ID, models.RefundStatusPending, models.RefundStatusFailed, "", nil); err != nil {
			return nil, err
		}
		refund.Status = models.RefundStatusFailed
		metrics.Refunds.WithLabelValues(string(models.RefundStatusFailed)).Inc()
	}

	s.logger.Info("pending refund resolved",
		zap.String("refund_id", refund.ID),
		zap.String("transaction_id", refund.TransactionID),
		zap.Bool("landed", landed))

	return refund, nil
}

// Get returns a refund by ID.
func (s *RefundService) Get(ctx context.Context, refundID string) (*models.Refund, error) {
	return s.refunds.GetByID(ctx, refundID)
}

// ListByTransaction returns all refunds linked to a transaction.
func (s *RefundService) ListByTransaction(ctx context.Context, transactionID string) ([]*models.Refund, error) {
	return s.refunds.ListByTransaction(ctx, transactionID)
}
