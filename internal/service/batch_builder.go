package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/day1healthdeveloper-cmd/day1main-system-sub004/internal/metrics"
	"github.com/day1healthdeveloper-cmd/day1main-system-sub004/internal/models"
)

// BatchBuilder selects eligible members for a collection date and produces
// one batch plus one transaction per member, atomically.
type BatchBuilder struct {
	members MemberStore
	batches BatchStore
	logger  *zap.Logger
}

func NewBatchBuilder(members MemberStore, batches BatchStore, logger *zap.Logger) *BatchBuilder {
	return &BatchBuilder{
		members: members,
		batches: batches,
		logger:  logger,
	}
}

// BuildRequest describes one collection run.
type BuildRequest struct {
	ActionDate time.Time
	BatchType  models.BatchType
	GroupCode  string // optional member-group filter
}

// BatchName derives the deterministic batch name for a target date and
// scope. The name is the idempotency key: retried build requests for the
// same run collide on it instead of duplicating collections.
func BatchName(actionDate time.Time, groupCode string) string {
	name := "DEBIT-" + actionDate.Format("20060102")
	if groupCode != "" {
		name += "-" + strings.ToUpper(groupCode)
	}
	return name
}

// Build creates the batch and its transactions. Each transaction collects
// the member's monthly premium; arrears are tracked on the profile and
// recovered through operator workflows, not silently inflated collections.
func (b *BatchBuilder) Build(ctx context.Context, req BuildRequest) (*models.Batch, error) {
	if req.BatchType == "" {
		req.BatchType = models.BatchTypeMonthly
	}

	members, err := b.members.ListEligible(ctx, req.ActionDate, req.GroupCode)
	if err != nil {
		return nil, fmt.Errorf("failed to list eligible members: %w", err)
	}
	if len(members) == 0 {
		return nil, models.ErrNoEligibleMembers
	}

	now := time.Now()
	batch := &models.Batch{
		ID:         uuid.New().String(),
		Name:       BatchName(req.ActionDate, req.GroupCode),
		BatchType:  req.BatchType,
		ActionDate: req.ActionDate,
		GroupCode:  req.GroupCode,
		Status:     models.BatchStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	var txns []*models.Transaction
	var total int64
	for _, m := range members {
		txn := &models.Transaction{
			ID:           uuid.New().String(),
			BatchID:      batch.ID,
			MemberID:     m.ID,
			MemberNumber: m.MemberNumber,
			MemberName:   m.FullName,
			AmountCents:  m.PremiumCents,
			Status:       models.TxnStatusPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		txns = append(txns, txn)
		total += txn.AmountCents
	}

	batch.MemberCount = len(txns)
	batch.TotalAmountCents = total

	if err := b.batches.CreateWithTransactions(ctx, batch, txns); err != nil {
		if err == models.ErrDuplicateBatch {
			return nil, fmt.Errorf("%w: %s", models.ErrDuplicateBatch, batch.Name)
		}
		return nil, fmt.Errorf("failed to create batch: %w", err)
	}

	metrics.BatchesBuilt.Inc()
	b.logger.Info("batch built",
		zap.String("batch_id", batch.ID),
		zap.String("batch_name", batch.Name),
		zap.Int("members", batch.MemberCount),
		zap.Int64("total_cents", batch.TotalAmountCents))

	return batch, nil
}
