package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/day1healthdeveloper-cmd/day1main-system-sub004/internal/models"
)

const pqUniqueViolation = "23505"

type BatchRepository struct {
	db *sql.DB
}

func NewBatchRepository(db *sql.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// CreateWithTransactions inserts the batch and all its transactions as a
// single database transaction. Either all rows exist afterwards or none do.
// A batch-name collision maps to ErrDuplicateBatch.
func (r *BatchRepository) CreateWithTransactions(ctx context.Context, batch *models.Batch, txns []*models.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	batchQuery := `
		INSERT INTO debit_batches (
			id, name, batch_type, action_date, group_code, member_count,
			total_amount_cents, status, processor_reference, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = tx.ExecContext(ctx, batchQuery,
		batch.ID,
		batch.Name,
		batch.BatchType,
		batch.ActionDate,
		batch.GroupCode,
		batch.MemberCount,
		batch.TotalAmountCents,
		batch.Status,
		batch.ProcessorReference,
		batch.CreatedAt,
		batch.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == pqUniqueViolation {
			return models.ErrDuplicateBatch
		}
		return err
	}

	txnQuery := `
		INSERT INTO debit_transactions (
			id, batch_id, member_id, member_number, member_name, amount_cents,
			status, processor_reference, retry_count, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	for _, txn := range txns {
		_, err = tx.ExecContext(ctx, txnQuery,
			txn.ID,
			txn.BatchID,
			txn.MemberID,
			txn.MemberNumber,
			txn.MemberName,
			txn.AmountCents,
			txn.Status,
			txn.ProcessorReference,
			txn.RetryCount,
			txn.CreatedAt,
			txn.UpdatedAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

const batchColumns = `
	id, name, batch_type, action_date, COALESCE(group_code, ''), member_count,
	total_amount_cents, status, processor_reference, submitted_at,
	COALESCE(error_message, ''), created_at, updated_at
`

func scanBatch(row interface{ Scan(...interface{}) error }) (*models.Batch, error) {
	b := &models.Batch{}
	err := row.Scan(
		&b.ID,
		&b.Name,
		&b.BatchType,
		&b.ActionDate,
		&b.GroupCode,
		&b.MemberCount,
		&b.TotalAmountCents,
		&b.Status,
		&b.ProcessorReference,
		&b.SubmittedAt,
		&b.ErrorMessage,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *BatchRepository) GetByID(ctx context.Context, id string) (*models.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM debit_batches WHERE id = $1`

	b, err := scanBatch(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	return b, err
}

func (r *BatchRepository) GetByProcessorReference(ctx context.Context, ref string) (*models.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM debit_batches WHERE processor_reference = $1`

	b, err := scanBatch(r.db.QueryRowContext(ctx, query, ref))
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	return b, err
}

func (r *BatchRepository) List(ctx context.Context, limit, offset int) ([]*models.Batch, error) {
	query := `
		SELECT ` + batchColumns + `
		FROM debit_batches
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []*models.Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}

	return batches, rows.Err()
}

// MarkSubmitted records the processor batch reference and flips the batch
// to submitted. The conditional WHERE means only one caller can ever win:
// once a reference is set it is immutable and re-marking is a no-op.
func (r *BatchRepository) MarkSubmitted(ctx context.Context, batchID, processorRef string, at time.Time) (bool, error) {
	query := `
		UPDATE debit_batches
		SET status = 'submitted',
		    processor_reference = $2,
		    submitted_at = $3,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'pending' AND processor_reference = ''
	`
	res, err := r.db.ExecContext(ctx, query, batchID, processorRef, at)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// MarkFailed records a definitive submission failure. Only a pending batch
// can fail this way; submitted batches keep their state.
func (r *BatchRepository) MarkFailed(ctx context.Context, batchID, errMsg string) error {
	query := `
		UPDATE debit_batches
		SET status = 'failed', error_message = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`
	_, err := r.db.ExecContext(ctx, query, batchID, errMsg)
	return err
}

// MarkReconciled moves a submitted or processing batch forward after a
// settlement report was applied: completed when every transaction got an
// outcome, processing while some are still unaccounted for.
func (r *BatchRepository) MarkReconciled(ctx context.Context, batchID string, complete bool) error {
	status := models.BatchStatusProcessing
	if complete {
		status = models.BatchStatusCompleted
	}
	query := `
		UPDATE debit_batches
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status IN ('submitted', 'processing')
	`
	_, err := r.db.ExecContext(ctx, query, batchID, status)
	return err
}
