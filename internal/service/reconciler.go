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
)

const reportMarkerTTL = 30 * 24 * time.Hour

// Reconciler ingests processor settlement reports, applies outcomes to the
// ledger and member state, and records every mismatch as a discrepancy.
// Unmatched records are never silently dropped.
type Reconciler struct {
	ledger  *LedgerService
	txns    TransactionStore
	members MemberStore
	batches BatchStore
	recons  ReconciliationStore
	retry   *RetryManager
	cache   LockCache
	logger  *zap.Logger
}

func NewReconciler(
	ledger *LedgerService,
	txns TransactionStore,
	members MemberStore,
	batches BatchStore,
	recons ReconciliationStore,
	retry *RetryManager,
	cache LockCache,
	logger *zap.Logger,
) *Reconciler {
	return &Reconciler{
		ledger:  ledger,
		txns:    txns,
		members: members,
		batches: batches,
		recons:  recons,
		retry:   retry,
		cache:   cache,
		logger:  logger,
	}
}

// outcomeStatus maps a reported outcome onto the ledger status it implies.
func outcomeStatus(o models.Outcome) (models.TransactionStatus, bool) {
	switch o {
	case models.OutcomeSuccessful:
		return models.TxnStatusSuccessful, true
	case models.OutcomeFailed:
		return models.TxnStatusFailed, true
	case models.OutcomeRejected:
		return models.TxnStatusRejected, true
	default:
		return "", false
	}
}

// IngestReport applies a settlement report as a unit. A report seen before
// returns its original reconciliation record; a crashed import can simply
// be run again because every transition is idempotent, so outcomes already
// applied become no-ops and member state is not double-credited.
func (r *Reconciler) IngestReport(ctx context.Context, report *models.SettlementReport) (*models.ReconciliationRecord, error) {
	batch, err := r.batches.GetByProcessorReference(ctx, report.BatchReference)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("no batch with processor reference %s: %w", report.BatchReference, err)
		}
		return nil, err
	}

	// A replayed report must change nothing: the marker holds the prior
	// record's ID, so a re-upload gets the original result back instead of
	// duplicating discrepancies.
	markerKey := "debitorder:report:" + report.ReportID
	if seen, err := r.cache.Exists(ctx, markerKey); err == nil && seen {
		if recordID, err := r.cache.Get(ctx, markerKey); err == nil && recordID != "" {
			if prior, err := r.recons.GetRecord(ctx, recordID); err == nil {
				r.logger.Info("settlement report already ingested, returning prior record",
					zap.String("report_id", report.ReportID),
					zap.String("batch_id", batch.ID),
					zap.String("reconciliation_id", prior.ID))
				return prior, nil
			}
		}
		// Marker without a loadable record: fall through and reapply; every
		// transition below is idempotent.
	}

	now := time.Now()
	record := &models.ReconciliationRecord{
		ID:                  uuid.New().String(),
		ReportID:            report.ReportID,
		BatchID:             batch.ID,
		ProcessorTotalCents: report.TotalAmountCents,
		CreatedAt:           now,
	}

	var ledgerTotal int64
	for _, entry := range report.Entries {
		target, ok := outcomeStatus(entry.Outcome)
		if !ok {
			record.Discrepancies = append(record.Discrepancies, r.discrepancy(record.ID,
				models.DiscrepancyStateConflict, "", entry.ProcessorReference, 0, 0,
				fmt.Sprintf("unknown outcome %q for reference %s", entry.Outcome, entry.ProcessorReference)))
			continue
		}

		txn, err := r.txns.GetByProcessorReference(ctx, entry.ProcessorReference)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				// The processor reported a line the ledger does not know.
				record.Discrepancies = append(record.Discrepancies, r.discrepancy(record.ID,
					models.DiscrepancyOrphanedOutcome, "", entry.ProcessorReference, 0, 0,
					fmt.Sprintf("report entry %s (%s) matches no ledger transaction", entry.ProcessorReference, entry.Outcome)))
				continue
			}
			return nil, err
		}

		changed, err := r.ledger.Transition(ctx, txn.ID, target, entry.Reason, now)
		if err != nil {
			if errors.Is(err, models.ErrInvalidTransition) {
				// A terminal ledger state conflicts with the report; keep
				// the ledger and flag it for manual review.
				record.Discrepancies = append(record.Discrepancies, r.discrepancy(record.ID,
					models.DiscrepancyStateConflict, txn.ID, entry.ProcessorReference,
					txn.AmountCents, txn.AmountCents,
					fmt.Sprintf("reported %s conflicts with ledger status %s on %s", entry.Outcome, txn.Status, txn.ID)))
				continue
			}
			return nil, err
		}

		record.MatchedCount++
		metrics.TransactionOutcomes.WithLabelValues(string(target)).Inc()

		switch entry.Outcome {
		case models.OutcomeSuccessful:
			// Counted only once the ledger accepted the outcome, so a line
			// that ended as a state conflict cannot mask a total mismatch.
			ledgerTotal += txn.AmountCents
			record.SuccessfulCount++
			if changed {
				if err := r.applySuccess(ctx, txn, now); err != nil {
					return nil, err
				}
			}
		case models.OutcomeFailed, models.OutcomeRejected:
			record.FailedCount++
			if changed {
				if err := r.applyFailure(ctx, txn); err != nil {
					return nil, err
				}
			}
		}
	}

	// Ledger-side lines the report never mentioned.
	unaccounted, err := r.txns.ListByBatchAndStatus(ctx, batch.ID, models.TxnStatusSubmitted)
	if err != nil {
		return nil, fmt.Errorf("failed to list unaccounted transactions: %w", err)
	}
	for _, txn := range unaccounted {
		record.Discrepancies = append(record.Discrepancies, r.discrepancy(record.ID,
			models.DiscrepancyMissingOutcome, txn.ID, txn.ProcessorReference,
			txn.AmountCents, 0,
			fmt.Sprintf("transaction %s (member %s) absent from report %s", txn.ID, txn.MemberNumber, report.ReportID)))
	}

	record.LedgerTotalCents = ledgerTotal
	if report.TotalAmountCents != ledgerTotal {
		record.Discrepancies = append(record.Discrepancies, r.discrepancy(record.ID,
			models.DiscrepancyTotalMismatch, "", report.BatchReference,
			ledgerTotal, report.TotalAmountCents,
			fmt.Sprintf("processor total %d differs from ledger total %d for report %s",
				report.TotalAmountCents, ledgerTotal, report.ReportID)))
	}

	if batch.MemberCount > 0 {
		record.MatchRate = float64(record.MatchedCount) / float64(batch.MemberCount)
	}

	if err := r.recons.SaveRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save reconciliation record: %w", err)
	}

	complete := len(unaccounted) == 0
	if err := r.batches.MarkReconciled(ctx, batch.ID, complete); err != nil {
		r.logger.Error("failed to update batch after reconciliation",
			zap.String("batch_id", batch.ID), zap.Error(err))
	}

	if err := r.cache.Set(ctx, markerKey, record.ID, reportMarkerTTL); err != nil {
		r.logger.Warn("failed to mark report as ingested", zap.Error(err))
	}

	metrics.UnresolvedDiscrepancies.Add(float64(len(record.Discrepancies)))
	r.logger.Info("settlement report reconciled",
		zap.String("report_id", report.ReportID),
		zap.String("batch_id", batch.ID),
		zap.Int("matched", record.MatchedCount),
		zap.Int("successful", record.SuccessfulCount),
		zap.Int("failed", record.FailedCount),
		zap.Int("discrepancies", len(record.Discrepancies)),
		zap.Float64("match_rate", record.MatchRate))

	return record, nil
}

// applySuccess credits the member: arrears reduced by the collected amount,
// payment dates advanced, failure counter reset.
func (r *Reconciler) applySuccess(ctx context.Context, txn *models.Transaction, paidAt time.Time) error {
	member, err := r.members.GetByID(ctx, txn.MemberID)
	if err != nil {
		return fmt.Errorf("failed to load member %s: %w", txn.MemberID, err)
	}

	next := NextDebitDate(paidAt, member.DebitDay)
	if err := r.members.ApplySuccessfulPayment(ctx, txn.MemberID, txn.AmountCents, paidAt, next); err != nil {
		return fmt.Errorf("failed to apply successful payment for member %s: %w", txn.MemberID, err)
	}
	return nil
}

// applyFailure debits the member's arrears, bumps the failure counter and
// hands the transaction to the retry manager.
func (r *Reconciler) applyFailure(ctx context.Context, txn *models.Transaction) error {
	failedAttempts, err := r.members.ApplyFailedPayment(ctx, txn.MemberID, txn.AmountCents)
	if err != nil {
		return fmt.Errorf("failed to apply failed payment for member %s: %w", txn.MemberID, err)
	}

	decision, err := r.retry.HandleFailure(ctx, txn, failedAttempts)
	if err != nil {
		return fmt.Errorf("retry handling failed for transaction %s: %w", txn.ID, err)
	}

	r.logger.Info("failed collection handled",
		zap.String("transaction_id", txn.ID),
		zap.String("member_id", txn.MemberID),
		zap.Int("failed_attempts", failedAttempts),
		zap.String("decision", string(decision)))
	return nil
}

// ListUnresolvedDiscrepancies exposes discrepancies awaiting manual review.
func (r *Reconciler) ListUnresolvedDiscrepancies(ctx context.Context, limit, offset int) ([]*models.Discrepancy, error) {
	return r.recons.ListUnresolved(ctx, limit, offset)
}

// ResolveDiscrepancy marks one discrepancy as handled by an operator.
func (r *Reconciler) ResolveDiscrepancy(ctx context.Context, discrepancyID string) error {
	if err := r.recons.Resolve(ctx, discrepancyID); err != nil {
		return err
	}
	metrics.UnresolvedDiscrepancies.Dec()
	return nil
}

func (r *Reconciler) discrepancy(reconciliationID string, dtype models.DiscrepancyType, txnID, procRef string, expected, actual int64, description string) models.Discrepancy {
	return models.Discrepancy{
		ID:                 uuid.New().String(),
		ReconciliationID:   reconciliationID,
		Type:               dtype,
		TransactionID:      txnID,
		ProcessorReference: procRef,
		ExpectedCents:      expected,
		ActualCents:        actual,
		Description:        description,
		CreatedAt:          time.Now(),
	}
}

// NextDebitDate computes the next collection date: same day-of-month in the
// following month, clamped to the month's last day when the month is
// shorter than the debit day.
func NextDebitDate(after time.Time, debitDay int) time.Time {
	firstOfNext := time.Date(after.Year(), after.Month(), 1, 0, 0, 0, 0, after.Location()).AddDate(0, 1, 0)
	lastDay := firstOfNext.AddDate(0, 1, -1).Day()
	day := debitDay
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfNext.Year(), firstOfNext.Month(), day, 0, 0, 0, 0, after.Location())
}
