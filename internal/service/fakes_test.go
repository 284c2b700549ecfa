package service

import (
	"context"
	"fmt"
	"time"

	"github.com/day1healthdeveloper-cmd/day1main-system-sub004/internal/models"
	"github.com/day1healthdeveloper-cmd/day1main-system-sub004/internal/processor"
)

// fakeStore is a single in-memory world implementing every store interface,
// so tests can exercise cross-entity behaviour (eligibility, reconciliation)
// without a database.
type fakeStore struct {
	members map[string]*models.MemberProfile
	batches map[string]*models.Batch
	txns    map[string]*models.Transaction
	refunds map[string]*models.Refund
	records map[string]*models.ReconciliationRecord
	discs   map[string]*models.Discrepancy
	locks   map[string]bool
	markers map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		members: map[string]*models.MemberProfile{},
		batches: map[string]*models.Batch{},
		txns:    map[string]*models.Transaction{},
		refunds: map[string]*models.Refund{},
		records: map[string]*models.ReconciliationRecord{},
		discs:   map[string]*models.Discrepancy{},
		locks:   map[string]bool{},
		markers: map[string]string{},
	}
}

// MemberStore

func (f *fakeStore) GetByID(ctx context.Context, id string) (*models.MemberProfile, error) {
	m, ok := f.members[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *m
	return &copied, nil
}

func (f *fakeStore) ListEligible(ctx context.Context, actionDate time.Time, groupCode string) ([]*models.MemberProfile, error) {
	var out []*models.MemberProfile
	for _, m := range f.members {
		if m.DebitOrderStatus != models.DebitOrderActive && m.DebitOrderStatus != models.DebitOrderPending {
			continue
		}
		if groupCode != "" && m.GroupCode != groupCode {
			continue
		}
		if f.inOpenBatch(m.ID, actionDate) {
			continue
		}
		copied := *m
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeStore) inOpenBatch(memberID string, actionDate time.Time) bool {
	for _, t := range f.txns {
		if t.MemberID != memberID {
			continue
		}
		b, ok := f.batches[t.BatchID]
		if ok && b.Open() && sameDay(b.ActionDate, actionDate) {
			return true
		}
	}
	return false
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func (f *fakeStore) ApplySuccessfulPayment(ctx context.Context, memberID string, amountCents int64, paidAt, nextDebit time.Time) error {
	m, ok := f.members[memberID]
	if !ok {
		return models.ErrNotFound
	}
	m.ArrearsCents -= amountCents
	if m.ArrearsCents < 0 {
		m.ArrearsCents = 0
	}
	m.FailedAttempts = 0
	m.LastPaymentDate = &paidAt
	m.NextDebitDate = &nextDebit
	m.DebitOrderStatus = models.DebitOrderActive
	return nil
}

func (f *fakeStore) ApplyFailedPayment(ctx context.Context, memberID string, amountCents int64) (int, error) {
	m, ok := f.members[memberID]
	if !ok {
		return 0, models.ErrNotFound
	}
	m.ArrearsCents += amountCents
	m.FailedAttempts++
	return m.FailedAttempts, nil
}

func (f *fakeStore) Suspend(ctx context.Context, memberID string) error {
	m, ok := f.members[memberID]
	if !ok {
		return models.ErrNotFound
	}
	m.DebitOrderStatus = models.DebitOrderSuspended
	return nil
}

func (f *fakeStore) Reactivate(ctx context.Context, memberID string) error {
	m, ok := f.members[memberID]
	if !ok || m.DebitOrderStatus != models.DebitOrderSuspended {
		return models.ErrNotFound
	}
	m.DebitOrderStatus = models.DebitOrderActive
	m.FailedAttempts = 0
	return nil
}

func (f *fakeStore) RepeatedFailures(ctx context.Context, minFailures int, since time.Time) ([]*models.RepeatedFailure, error) {
	counts := map[string]int{}
	last := map[string]time.Time{}
	for _, t := range f.txns {
		if t.Status != models.TxnStatusFailed && t.Status != models.TxnStatusRejected {
			continue
		}
		if t.ProcessedAt == nil || t.ProcessedAt.Before(since) {
			continue
		}
		counts[t.MemberID]++
		if t.ProcessedAt.After(last[t.MemberID]) {
			last[t.MemberID] = *t.ProcessedAt
		}
	}
	var out []*models.RepeatedFailure
	for memberID, n := range counts {
		if n < minFailures {
			continue
		}
		m := f.members[memberID]
		out = append(out, &models.RepeatedFailure{
			MemberID:     memberID,
			MemberNumber: m.MemberNumber,
			FullName:     m.FullName,
			Status:       m.DebitOrderStatus,
			FailureCount: n,
			ArrearsCents: m.ArrearsCents,
			LastFailure:  last[memberID],
		})
	}
	return out, nil
}

// BatchStore

func (f *fakeStore) CreateWithTransactions(ctx context.Context, batch *models.Batch, txns []*models.Transaction) error {
	for _, b := range f.batches {
		if b.Name == batch.Name {
			return models.ErrDuplicateBatch
		}
	}
	copied := *batch
	f.batches[batch.ID] = &copied
	for _, t := range txns {
		tc := *t
		f.txns[t.ID] = &tc
	}
	return nil
}

func (f *fakeStore) getBatch(id string) (*models.Batch, error) {
	b, ok := f.batches[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (f *fakeStore) GetByProcessorReference(ctx context.Context, ref string) (*models.Batch, error) {
	for _, b := range f.batches {
		if b.ProcessorReference == ref && ref != "" {
			copied := *b
			return &copied, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeStore) List(ctx context.Context, limit, offset int) ([]*models.Batch, error) {
	var out []*models.Batch
	for _, b := range f.batches {
		copied := *b
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeStore) MarkSubmitted(ctx context.Context, batchID, processorRef string, at time.Time) (bool, error) {
	b, ok := f.batches[batchID]
	if !ok {
		return false, models.ErrNotFound
	}
	if b.Status != models.BatchStatusPending || b.ProcessorReference != "" {
		return false, nil
	}
	b.Status = models.BatchStatusSubmitted
	b.ProcessorReference = processorRef
	b.SubmittedAt = &at
	return true, nil
}

func (f *fakeStore) MarkFailed(ctx context.Context, batchID, errMsg string) error {
	b, ok := f.batches[batchID]
	if !ok {
		return models.ErrNotFound
	}
	if b.Status == models.BatchStatusPending {
		b.Status = models.BatchStatusFailed
		b.ErrorMessage = errMsg
	}
	return nil
}

func (f *fakeStore) MarkReconciled(ctx context.Context, batchID string, complete bool) error {
	b, ok := f.batches[batchID]
	if !ok {
		return models.ErrNotFound
	}
	if b.Status == models.BatchStatusSubmitted || b.Status == models.BatchStatusProcessing {
		if complete {
			b.Status = models.BatchStatusCompleted
		} else {
			b.Status = models.BatchStatusProcessing
		}
	}
	return nil
}

// TransactionStore

func (f *fakeStore) getTxn(id string) (*models.Transaction, error) {
	t, ok := f.txns[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (f *fakeStore) TransitionStatus(ctx context.Context, id string, from, to models.TransactionStatus, reason string, at time.Time) (bool, error) {
	t, ok := f.txns[id]
	if !ok {
		return false, models.ErrNotFound
	}
	if t.Status != from {
		return false, nil
	}
	t.Status = to
	if reason != "" {
		t.Reason = reason
	}
	t.ProcessedAt = &at
	return true, nil
}

func (f *fakeStore) MarkBatchSubmitted(ctx context.Context, batchID string) error {
	for _, t := range f.txns {
		if t.BatchID == batchID && t.Status == models.TxnStatusPending {
			t.Status = models.TxnStatusSubmitted
			t.ProcessorReference = t.ID
		}
	}
	return nil
}

func (f *fakeStore) IncrementRetryCount(ctx context.Context, id string) error {
	t, ok := f.txns[id]
	if !ok {
		return models.ErrNotFound
	}
	t.RetryCount++
	return nil
}

func (f *fakeStore) ListByBatchAndStatus(ctx context.Context, batchID string, status models.TransactionStatus) ([]*models.Transaction, error) {
	var out []*models.Transaction
	for _, t := range f.txns {
		if t.BatchID == batchID && t.Status == status {
			copied := *t
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeStore) ListTxns(ctx context.Context, filter models.TransactionFilter) ([]*models.Transaction, error) {
	var out []*models.Transaction
	for _, t := range f.txns {
		if filter.BatchID != "" && t.BatchID != filter.BatchID {
			continue
		}
		if filter.MemberID != "" && t.MemberID != filter.MemberID {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		copied := *t
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeStore) Stats(ctx context.Context, from, to time.Time) (*models.TransactionStats, error) {
	stats := &models.TransactionStats{
		CountByStatus:  map[string]int{},
		AmountByStatus: map[string]int64{},
	}
	for _, t := range f.txns {
		stats.CountByStatus[string(t.Status)]++
		stats.AmountByStatus[string(t.Status)] += t.AmountCents
		stats.TotalCount++
		stats.TotalAmountCents += t.AmountCents
	}
	return stats, nil
}

// RefundStore

func (f *fakeStore) Create(ctx context.Context, refund *models.Refund) error {
	copied := *refund
	f.refunds[refund.ID] = &copied
	return nil
}

func (f *fakeStore) getRefund(id string) (*models.Refund, error) {
	r, ok := f.refunds[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (f *fakeStore) ListByTransaction(ctx context.Context, transactionID string) ([]*models.Refund, error) {
	var out []*models.Refund
	for _, r := range f.refunds {
		if r.TransactionID == transactionID {
			copied := *r
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeStore) SumActiveByTransaction(ctx context.Context, transactionID string) (int64, error) {
	var total int64
	for _, r := range f.refunds {
		if r.TransactionID != transactionID {
			continue
		}
		if r.Status == models.RefundStatusFailed {
			continue
		}
		total += r.AmountCents
	}
	return total, nil
}

func (f *fakeStore) UpdateStatus(ctx context.Context, id string, from, to models.RefundStatus, processorRef string, completedAt *time.Time) (bool, error) {
	r, ok := f.refunds[id]
	if !ok {
		return false, models.ErrNotFound
	}
	if r.Status != from {
		return false, nil
	}
	r.Status = to
	if processorRef != "" {
		r.ProcessorReference = processorRef
	}
	if completedAt != nil {
		r.CompletedAt = completedAt
	}
	return true, nil
}

// ReconciliationStore

func (f *fakeStore) SaveRecord(ctx context.Context, record *models.ReconciliationRecord) error {
	copied := *record
	f.records[record.ID] = &copied
	for _, d := range record.Discrepancies {
		dc := d
		f.discs[d.ID] = &dc
	}
	return nil
}

func (f *fakeStore) ListUnresolved(ctx context.Context, limit, offset int) ([]*models.Discrepancy, error) {
	var out []*models.Discrepancy
	for _, d := range f.discs {
		if !d.Resolved {
			copied := *d
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeStore) Resolve(ctx context.Context, discrepancyID string) error {
	d, ok := f.discs[discrepancyID]
	if !ok || d.Resolved {
		return models.ErrNotFound
	}
	now := time.Now()
	d.Resolved = true
	d.ResolvedAt = &now
	return nil
}

func (f *fakeStore) GetRecord(ctx context.Context, id string) (*models.ReconciliationRecord, error) {
	r, ok := f.records[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *r
	return &copied, nil
}

// LockCache

func (f *fakeStore) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if f.locks[key] {
		return false, nil
	}
	f.locks[key] = true
	return true, nil
}

func (f *fakeStore) ReleaseLock(ctx context.Context, key string) error {
	delete(f.locks, key)
	return nil
}

func (f *fakeStore) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := f.markers[key]
	return ok, nil
}

func (f *fakeStore) Get(ctx context.Context, key string) (string, error) {
	v, ok := f.markers[key]
	if !ok {
		return "", models.ErrNotFound
	}
	return v, nil
}

func (f *fakeStore) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	f.markers[key] = fmt.Sprint(value)
	return nil
}

// fakeStore's own GetByID / GetByProcessorReference / List carry the member
// and batch signatures. batchView, txnView and refundView re-point the
// colliding method names at the right entity so one fake world satisfies
// every store interface.

type batchView struct{ *fakeStore }

func (v batchView) GetByID(ctx context.Context, id string) (*models.Batch, error) {
	return v.fakeStore.getBatch(id)
}

type txnView struct{ *fakeStore }

func (v txnView) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	return v.fakeStore.getTxn(id)
}

func (v txnView) GetByProcessorReference(ctx context.Context, ref string) (*models.Transaction, error) {
	for _, t := range v.fakeStore.txns {
		if t.ProcessorReference == ref && ref != "" {
			copied := *t
			return &copied, nil
		}
	}
	return nil, models.ErrNotFound
}

func (v txnView) List(ctx context.Context, filter models.TransactionFilter) ([]*models.Transaction, error) {
	return v.fakeStore.ListTxns(ctx, filter)
}

type refundView struct{ *fakeStore }

func (v refundView) GetByID(ctx context.Context, id string) (*models.Refund, error) {
	return v.fakeStore.getRefund(id)
}

// fakeProcessor is a scripted ProcessorClient.
type fakeProcessor struct {
	submitErr   error
	batchRef    string
	refundErr   error
	refundRef   string
	submitCalls int
	refundCalls int
	lastPayload *processor.BatchPayload
}

func (p *fakeProcessor) SubmitBatch(ctx context.Context, payload *processor.BatchPayload) (*processor.SubmitResult, error) {
	p.submitCalls++
	p.lastPayload = payload
	if p.submitErr != nil {
		return nil, p.submitErr
	}
	return &processor.SubmitResult{BatchReference: p.batchRef, AcceptedAt: time.Now()}, nil
}

func (p *fakeProcessor) SubmitRefund(ctx context.Context, req *processor.RefundRequest) (*processor.RefundResult, error) {
	p.refundCalls++
	if p.refundErr != nil {
		return nil, p.refundErr
	}
	return &processor.RefundResult{RefundReference: p.refundRef, Accepted: true}, nil
}
