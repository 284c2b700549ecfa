package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/day1healthdeveloper-cmd/day1main-system-sub004/internal/metrics"
	"github.com/day1healthdeveloper-cmd/day1main-system-sub004/internal/models"
	"github.com/day1healthdeveloper-cmd/day1main-system-sub004/internal/processor"
)

const submissionLockTTL = 2 * time.Minute

// GatewayService owns the submit-exactly-once contract with the bureau.
// The critical "check reference, then send" sequence runs under a per-batch
// lock; the processor reference is the idempotency anchor.
type GatewayService struct {
	batches BatchStore
	txns    TransactionStore
	members MemberStore
	client  ProcessorClient
	locks   LockCache
	logger  *zap.Logger

	sameDayCutoffHour int
	twoDayCutoffHour  int
}

func NewGatewayService(
	batches BatchStore,
	txns TransactionStore,
	members MemberStore,
	client ProcessorClient,
	locks LockCache,
	sameDayCutoffHour, twoDayCutoffHour int,
	logger *zap.Logger,
) *GatewayService {
	return &GatewayService{
		batches:           batches,
		txns:              txns,
		members:           members,
		client:            client,
		locks:             locks,
		logger:            logger,
		sameDayCutoffHour: sameDayCutoffHour,
		twoDayCutoffHour:  twoDayCutoffHour,
	}
}

// SubmitBatch submits a pending batch to the bureau exactly once.
//
// Outcomes:
//   - accepted: processor reference stored, batch submitted, all its
//     transactions move to submitted.
//   - definitive rejection: batch failed with the bureau's reason.
//   - ambiguous (timeout, no confirmation): batch stays pending with no
//     reference; the error tells the operator to verify with the bureau
//     before any retry. Never auto-retried.
func (s *GatewayService) SubmitBatch(ctx context.Context, batchID string, svc processor.ServiceType) (*models.Batch, error) {
	lockKey := "debitorder:submit:" + batchID
	acquired, err := s.locks.AcquireLock(ctx, lockKey, submissionLockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire submission lock: %w", err)
	}
	if !acquired {
		return nil, models.ErrSubmissionInProgress
	}
	defer s.locks.ReleaseLock(ctx, lockKey)

	batch, err := s.batches.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}

	// A non-empty processor reference means the bureau already has this
	// batch. Do not resend under any circumstances.
	if batch.ProcessorReference != "" {
		metrics.BatchSubmissions.WithLabelValues("already_submitted").Inc()
		return batch, models.ErrAlreadySubmitted
	}
	if batch.Status != models.BatchStatusPending {
		return nil, fmt.Errorf("batch %s is %s, only pending batches can be submitted", batch.ID, batch.Status)
	}

	if svc == "" {
		svc = processor.ServiceTwoDay
	}
	if err := processor.ValidateSubmissionWindow(time.Now(), batch.ActionDate, svc, s.sameDayCutoffHour, s.twoDayCutoffHour); err != nil {
		return nil, err
	}

	payload, err := s.buildPayload(ctx, batch, svc)
	if err != nil {
		return nil, err
	}

	result, err := s.client.SubmitBatch(ctx, payload)
	if err != nil {
		var rejection *processor.RejectionError
		switch {
		case errors.As(err, &rejection):
			// Definitive refusal: the batch will never collect as-is.
			if markErr := s.batches.MarkFailed(ctx, batch.ID, rejection.Message); markErr != nil {
				s.logger.Error("failed to mark batch failed", zap.String("batch_id", batch.ID), zap.Error(markErr))
			}
			metrics.BatchSubmissions.WithLabelValues("rejected").Inc()
			s.logger.Warn("batch rejected by processor",
				zap.String("batch_id", batch.ID),
				zap.String("reason", rejection.Message))
			return nil, err

		case errors.Is(err, models.ErrAmbiguousSubmission):
			// No confirmation either way. The batch stays pending with an
			// empty reference; an operator must verify with the bureau
			// before anything is retried.
			metrics.BatchSubmissions.WithLabelValues("ambiguous").Inc()
			s.logger.Error("batch submission outcome unknown",
				zap.String("batch_id", batch.ID),
				zap.Error(err))
			return nil, err

		default:
			return nil, err
		}
	}

	won, err := s.batches.MarkSubmitted(ctx, batch.ID, result.BatchReference, time.Now())
	if err != nil {
		return nil, fmt.Errorf("batch accepted as %s but local state update failed: %w", result.BatchReference, err)
	}
	if !won {
		// Another caller recorded a submission first; the lock should make
		// this unreachable, but the conditional update is the backstop.
		metrics.BatchSubmissions.WithLabelValues("already_submitted").Inc()
		return s.batches.GetByID(ctx, batchID)
	}

	if err := s.txns.MarkBatchSubmitted(ctx, batch.ID); err != nil {
		s.logger.Error("failed to mark transactions submitted",
			zap.String("batch_id", batch.ID), zap.Error(err))
	}

	metrics.BatchSubmissions.WithLabelValues("submitted").Inc()
	s.logger.Info("batch submitted",
		zap.String("batch_id", batch.ID),
		zap.String("processor_reference", result.BatchReference))

	return s.batches.GetByID(ctx, batchID)
}

func (s *GatewayService) buildPayload(ctx context.Context, batch *models.Batch, svc processor.ServiceType) (*processor.BatchPayload, error) {
	txns, err := s.txns.ListByBatchAndStatus(ctx, batch.ID, models.TxnStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to load batch transactions: %w", err)
	}
	if len(txns) == 0 {
		return nil, fmt.Errorf("batch %s has no pending transactions", batch.ID)
	}

	members := make(map[string]*models.MemberProfile, len(txns))
	for _, txn := range txns {
		if _, ok := members[txn.MemberID]; ok {
			continue
		}
		m, err := s.members.GetByID(ctx, txn.MemberID)
		if err != nil {
			return nil, fmt.Errorf("failed to load member %s: %w", txn.MemberID, err)
		}
		members[txn.MemberID] = m
	}

	payload, err := processor.BuildBatchPayload(batch, txns, members)
	if err != nil {
		return nil, err
	}
	payload.ServiceType = svc
	return payload, nil
}
