package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/day1healthdeveloper-cmd/day1main-system-sub004/internal/models"
)

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const txnColumns = `
	id, batch_id, member_id, member_number, member_name, amount_cents,
	status, processor_reference, COALESCE(reason, ''), retry_count,
	processed_at, created_at, updated_at
`

func scanTransaction(row interface{ Scan(...interface{}) error }) (*models.Transaction, error) {
	t := &models.Transaction{}
	err := row.Scan(
		&t.ID,
		&t.BatchID,
		&t.MemberID,
		&t.MemberNumber,
		&t.MemberName,
		&t.AmountCents,
		&t.Status,
		&t.ProcessorReference,
		&t.Reason,
		&t.RetryCount,
		&t.ProcessedAt,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	query := `SELECT ` + txnColumns + ` FROM debit_transactions WHERE id = $1`

	t, err := scanTransaction(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	return t, err
}

func (r *TransactionRepository) GetByProcessorReference(ctx context.Context, ref string) (*models.Transaction, error) {
	query := `SELECT ` + txnColumns + ` FROM debit_transactions WHERE processor_reference = $1`

	t, err := scanTransaction(r.db.QueryRowContext(ctx, query, ref))
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	return t, err
}

// TransitionStatus applies a guarded status change: the UPDATE only lands
// when the stored status still equals from. It reports whether a row
// changed, leaving legality checks to the ledger service.
func (r *TransactionRepository) TransitionStatus(ctx context.Context, id string, from, to models.TransactionStatus, reason string, at time.Time) (bool, error) {
	query := `
		UPDATE debit_transactions
		SET status = $3,
		    reason = CASE WHEN $4 <> '' THEN $4 ELSE reason END,
		    processed_at = $5,
		    updated_at = NOW()
		WHERE id = $1 AND status = $2
	`
	res, err := r.db.ExecContext(ctx, query, id, from, to, reason, at)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// MarkBatchSubmitted flips every pending transaction of a batch to
// submitted and stamps its processor line reference (the identifying
// reference sent on the wire, echoed back in settlement reports).
func (r *TransactionRepository) MarkBatchSubmitted(ctx context.Context, batchID string) error {
	query := `
		UPDATE debit_transactions
		SET status = 'submitted', processor_reference = id, updated_at = NOW()
		WHERE batch_id = $1 AND status = 'pending'
	`
	_, err := r.db.ExecContext(ctx, query, batchID)
	return err
}

// IncrementRetryCount bumps the retry counter on a failed transaction that
// stays eligible for the next collection cycle.
func (r *TransactionRepository) IncrementRetryCount(ctx context.Context, id string) error {
	query := `
		UPDATE debit_transactions
		SET retry_count = retry_count + 1, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// ListByBatchAndStatus returns all transactions of a batch in the given
// status, used by the reconciler to find lines the report never mentioned.
func (r *TransactionRepository) ListByBatchAndStatus(ctx context.Context, batchID string, status models.TransactionStatus) ([]*models.Transaction, error) {
	query := `
		SELECT ` + txnColumns + `
		FROM debit_transactions
		WHERE batch_id = $1 AND status = $2
		ORDER BY member_number ASC
	`

	rows, err := r.db.QueryContext(ctx, query, batchID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// List returns transactions matching the filter, newest first, paginated.
func (r *TransactionRepository) List(ctx context.Context, filter models.TransactionFilter) ([]*models.Transaction, error) {
	var conditions []string
	var args []interface{}

	addCondition := func(clause string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	if filter.BatchID != "" {
		addCondition("batch_id = $%d", filter.BatchID)
	}
	if filter.MemberID != "" {
		addCondition("member_id = $%d", filter.MemberID)
	}
	if filter.Status != "" {
		addCondition("status = $%d", filter.Status)
	}
	if !filter.From.IsZero() {
		addCondition("created_at >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		addCondition("created_at <= $%d", filter.To)
	}

	query := `SELECT ` + txnColumns + ` FROM debit_transactions`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// Stats aggregates counts and amounts by status over an optional date range.
func (r *TransactionRepository) Stats(ctx context.Context, from, to time.Time) (*models.TransactionStats, error) {
	query := `
		SELECT status, COUNT(*), COALESCE(SUM(amount_cents), 0)
		FROM debit_transactions
		WHERE ($1::timestamp IS NULL OR created_at >= $1)
		  AND ($2::timestamp IS NULL OR created_at <= $2)
		GROUP BY status
	`

	var fromArg, toArg interface{}
	if !from.IsZero() {
		fromArg = from
	}
	if !to.IsZero() {
		toArg = to
	}

	rows, err := r.db.QueryContext(ctx, query, fromArg, toArg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &models.TransactionStats{
		CountByStatus:  map[string]int{},
		AmountByStatus: map[string]int64{},
	}

	var settled int
	for rows.Next() {
		var status string
		var count int
		var amount int64
		if err := rows.Scan(&status, &count, &amount); err != nil {
			return nil, err
		}
		stats.CountByStatus[status] = count
		stats.AmountByStatus[status] = amount
		stats.TotalCount += count
		stats.TotalAmountCents += amount
		switch models.TransactionStatus(status) {
		case models.TxnStatusSuccessful, models.TxnStatusFailed, models.TxnStatusRejected, models.TxnStatusRefunded:
			settled += count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if settled > 0 {
		succeeded := stats.CountByStatus[string(models.TxnStatusSuccessful)] +
			stats.CountByStatus[string(models.TxnStatusRefunded)]
		stats.SuccessRate = float64(succeeded) / float64(settled)
	}

	return stats, nil
}

func collectTransactions(rows *sql.Rows) ([]*models.Transaction, error) {
	var txns []*models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}
