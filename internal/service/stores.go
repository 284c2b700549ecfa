package service

import (
	"context"
	"time"

	"github.com/day1healthdeveloper-cmd/day1main-system-sub004/internal/models"
	"github.com/day1healthdeveloper-cmd/day1main-system-sub004/internal/processor"
)

// Store interfaces consumed by the services. The repository package
// provides the Postgres implementations; tests substitute in-memory fakes.

type MemberStore interface {
	GetByID(ctx context.Context, id string) (*models.MemberProfile, error)
	ListEligible(ctx context.Context, actionDate time.Time, groupCode string) ([]*models.MemberProfile, error)
	ApplySuccessfulPayment(ctx context.Context, memberID string, amountCents int64, paidAt, nextDebit time.Time) error
	ApplyFailedPayment(ctx context.Context, memberID string, amountCents int64) (int, error)
	Suspend(ctx context.Context, memberID string) error
	Reactivate(ctx context.Context, memberID string) error
	RepeatedFailures(ctx context.Context, minFailures int, since time.Time) ([]*models.RepeatedFailure, error)
}

type BatchStore interface {
	CreateWithTransactions(ctx context.Context, batch *models.Batch, txns []*models.Transaction) error
	GetByID(ctx context.Context, id string) (*models.Batch, error)
	GetByProcessorReference(ctx context.Context, ref string) (*models.Batch, error)
	List(ctx context.Context, limit, offset int) ([]*models.Batch, error)
	MarkSubmitted(ctx context.Context, batchID, processorRef string, at time.Time) (bool, error)
	MarkFailed(ctx context.Context, batchID, errMsg string) error
	MarkReconciled(ctx context.Context, batchID string, complete bool) error
}

type TransactionStore interface {
	GetByID(ctx context.Context, id string) (*models.Transaction, error)
	GetByProcessorReference(ctx context.Context, ref string) (*models.Transaction, error)
	TransitionStatus(ctx context.Context, id string, from, to models.TransactionStatus, reason string, at time.Time) (bool, error)
	MarkBatchSubmitted(ctx context.Context, batchID string) error
	IncrementRetryCount(ctx context.Context, id string) error
	ListByBatchAndStatus(ctx context.Context, batchID string, status models.TransactionStatus) ([]*models.Transaction, error)
	List(ctx context.Context, filter models.TransactionFilter) ([]*models.Transaction, error)
	Stats(ctx context.Context, from, to time.Time) (*models.TransactionStats, error)
}

type RefundStore interface {
	Create(ctx context.Context, refund *models.Refund) error
	GetByID(ctx context.Context, id string) (*models.Refund, error)
	ListByTransaction(ctx context.Context, transactionID string) ([]*models.Refund, error)
	SumActiveByTransaction(ctx context.Context, transactionID string) (int64, error)
	UpdateStatus(ctx context.Context, id string, from, to models.RefundStatus, processorRef string, completedAt *time.Time) (bool, error)
}

type ReconciliationStore interface {
	SaveRecord(ctx context.Context, record *models.ReconciliationRecord) error
	ListUnresolved(ctx context.Context, limit, offset int) ([]*models.Discrepancy, error)
	Resolve(ctx context.Context, discrepancyID string) error
	GetRecord(ctx context.Context, id string) (*models.ReconciliationRecord, error)
}

// ProcessorClient is the wire client for the debit-order bureau.
type ProcessorClient interface {
	SubmitBatch(ctx context.Context, payload *processor.BatchPayload) (*processor.SubmitResult, error)
	SubmitRefund(ctx context.Context, req *processor.RefundRequest) (*processor.RefundResult, error)
}

// LockCache provides short-lived locks and markers, backed by Redis.
type LockCache interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}
