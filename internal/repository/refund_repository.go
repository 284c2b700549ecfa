package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/day1healthdeveloper-cmd/day1main-system-sub004/internal/models"
)

type RefundRepository struct {
	db *sql.DB
}

func NewRefundRepository(db *sql.DB) *RefundRepository {
	return &RefundRepository{db: db}
}

func (r *RefundRepository) Create(ctx context.Context, refund *models.Refund) error {
	query := `
		INSERT INTO refunds (
			id, transaction_id, amount_cents, status, reason,
			processor_reference, requested_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		refund.ID,
		refund.TransactionID,
		refund.AmountCents,
		refund.Status,
		refund.Reason,
		refund.ProcessorReference,
		refund.RequestedAt,
	)
	return err
}

const refundColumns = `
	id, transaction_id, amount_cents, status, reason,
	processor_reference, requested_at, completed_at
`

func scanRefund(row interface{ Scan(...interface{}) error }) (*models.Refund, error) {
	f := &models.Refund{}
	err := row.Scan(
		&f.ID,
		&f.TransactionID,
		&f.AmountCents,
		&f.Status,
		&f.Reason,
		&f.ProcessorReference,
		&f.RequestedAt,
		&f.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (r *RefundRepository) GetByID(ctx context.Context, id string) (*models.Refund, error) {
	query := `SELECT ` + refundColumns + ` FROM refunds WHERE id = $1`

	f, err := scanRefund(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	return f, err
}

func (r *RefundRepository) ListByTransaction(ctx context.Context, transactionID string) ([]*models.Refund, error) {
	query := `
		SELECT ` + refundColumns + `
		FROM refunds
		WHERE transaction_id = $1
		ORDER BY requested_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refunds []*models.Refund
	for rows.Next() {
		f, err := scanRefund(rows)
		if err != nil {
			return nil, err
		}
		refunds = append(refunds, f)
	}

	return refunds, rows.Err()
}

// SumActiveByTransaction totals refund amounts already claimed against a
// transaction, excluding failed attempts. The refundable remainder is the
// original amount minus this sum.
func (r *RefundRepository) SumActiveByTransaction(ctx context.Context, transactionID string) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount_cents), 0)
		FROM refunds
		WHERE transaction_id = $1 AND status IN ('pending', 'processing', 'completed')
	`
	var total int64
	err := r.db.QueryRowContext(ctx, query, transactionID).Scan(&total)
	return total, err
}

// UpdateStatus applies a guarded refund status change.
func (r *RefundRepository) UpdateStatus(ctx context.Context, id string, from, to models.RefundStatus, processorRef string, completedAt *time.Time) (bool, error) {
	query := `
		UPDATE refunds
		SET status = $3,
		    processor_reference = CASE WHEN $4 <> '' THEN $4 ELSE processor_reference END,
		    completed_at = COALESCE($5, completed_at)
		WHERE id = $1 AND status = $2
	`
	res, err := r.db.ExecContext(ctx, query, id, from, to, processorRef, completedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
