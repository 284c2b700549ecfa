package repository

import (
	"context"
	"database/sql"

	"github.com/day1healthdeveloper-cmd/day1main-system-sub004/internal/models"
)

type ReconciliationRepository struct {
	db *sql.DB
}

func NewReconciliationRepository(db *sql.DB) *ReconciliationRepository {
	return &ReconciliationRepository{db: db}
}

// SaveRecord persists a reconciliation record together with its
// discrepancies in one database transaction.
func (r *ReconciliationRepository) SaveRecord(ctx context.Context, record *models.ReconciliationRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	recordQuery := `
		INSERT INTO reconciliation_records (
			id, report_id, batch_id, processor_total_cents, ledger_total_cents,
			matched_count, successful_count, failed_count, match_rate, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = tx.ExecContext(ctx, recordQuery,
		record.ID,
		record.ReportID,
		record.BatchID,
		record.ProcessorTotalCents,
		record.LedgerTotalCents,
		record.MatchedCount,
		record.SuccessfulCount,
		record.FailedCount,
		record.MatchRate,
		record.CreatedAt,
	)
	if err != nil {
		return err
	}

	discQuery := `
		INSERT INTO reconciliation_discrepancies (
			id, reconciliation_id, type, transaction_id, processor_reference,
			expected_cents, actual_cents, description, resolved, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	for _, d := range record.Discrepancies {
		_, err = tx.ExecContext(ctx, discQuery,
			d.ID,
			record.ID,
			d.Type,
			nullIfEmpty(d.TransactionID),
			nullIfEmpty(d.ProcessorReference),
			d.ExpectedCents,
			d.ActualCents,
			d.Description,
			d.Resolved,
			d.CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

const discrepancyColumns = `
	id, reconciliation_id, type, COALESCE(transaction_id, ''),
	COALESCE(processor_reference, ''), expected_cents, actual_cents,
	description, resolved, resolved_at, created_at
`

// ListUnresolved returns discrepancies still awaiting manual resolution.
func (r *ReconciliationRepository) ListUnresolved(ctx context.Context, limit, offset int) ([]*models.Discrepancy, error) {
	query := `
		SELECT ` + discrepancyColumns + `
		FROM reconciliation_discrepancies
		WHERE resolved = FALSE
		ORDER BY created_at ASC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var discs []*models.Discrepancy
	for rows.Next() {
		d := &models.Discrepancy{}
		err := rows.Scan(
			&d.ID,
			&d.ReconciliationID,
			&d.Type,
			&d.TransactionID,
			&d.ProcessorReference,
			&d.ExpectedCents,
			&d.ActualCents,
			&d.Description,
			&d.Resolved,
			&d.ResolvedAt,
			&d.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		discs = append(discs, d)
	}

	return discs, rows.Err()
}

// Resolve marks a discrepancy as manually resolved. Resolution is the only
// mutation discrepancies admit.
func (r *ReconciliationRepository) Resolve(ctx context.Context, discrepancyID string) error {
	query := `
		UPDATE reconciliation_discrepancies
		SET resolved = TRUE, resolved_at = NOW()
		WHERE id = $1 AND resolved = FALSE
	`
	res, err := r.db.ExecContext(ctx, query, discrepancyID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *ReconciliationRepository) GetRecord(ctx context.Context, id string) (*models.ReconciliationRecord, error) {
	query := `
		SELECT id, report_id, batch_id, processor_total_cents, ledger_total_cents,
		       matched_count, successful_count, failed_count, match_rate, created_at
		FROM reconciliation_records
		WHERE id = $1
	`

	rec := &models.ReconciliationRecord{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID,
		&rec.ReportID,
		&rec.BatchID,
		&rec.ProcessorTotalCents,
		&rec.LedgerTotalCents,
		&rec.MatchedCount,
		&rec.SuccessfulCount,
		&rec.FailedCount,
		&rec.MatchRate,
		&rec.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	discQuery := `
		SELECT ` + discrepancyColumns + `
		FROM reconciliation_discrepancies
		WHERE reconciliation_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, discQuery, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var d models.Discrepancy
		err := rows.Scan(
			&d.ID,
			&d.ReconciliationID,
			&d.Type,
			&d.TransactionID,
			&d.ProcessorReference,
			&d.ExpectedCents,
			&d.ActualCents,
			&d.Description,
			&d.Resolved,
			&d.ResolvedAt,
			&d.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		rec.Discrepancies = append(rec.Discrepancies, d)
	}

	return rec, rows.Err()
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
