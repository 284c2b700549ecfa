package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/day1healthdeveloper-cmd/day1main-system-sub004/internal/models"
)

type MemberRepository struct {
	db *sql.DB
}

func NewMemberRepository(db *sql.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

const memberColumns = `
	id, member_number, full_name, bank_name, account_number, branch_code,
	account_type, premium_cents, debit_day, COALESCE(group_code, ''),
	debit_order_status, failed_attempts, arrears_cents, last_payment_date,
	next_debit_date, COALESCE(processor_account_ref, ''), created_at, updated_at
`

func scanMember(row interface{ Scan(...interface{}) error }) (*models.MemberProfile, error) {
	m := &models.MemberProfile{}
	err := row.Scan(
		&m.ID,
		&m.MemberNumber,
		&m.FullName,
		&m.BankName,
		&m.AccountNumber,
		&m.BranchCode,
		&m.AccountType,
		&m.PremiumCents,
		&m.DebitDay,
		&m.GroupCode,
		&m.DebitOrderStatus,
		&m.FailedAttempts,
		&m.ArrearsCents,
		&m.LastPaymentDate,
		&m.NextDebitDate,
		&m.ProcessorAccount,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *MemberRepository) GetByID(ctx context.Context, id string) (*models.MemberProfile, error) {
	query := `SELECT ` + memberColumns + ` FROM member_profiles WHERE id = $1`

	m, err := scanMember(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	return m, err
}

// ListEligible returns members collectable for the given action date:
// debit-order status active or pending, and not already present in an open
// batch targeting the same action date. An empty groupCode means all groups.
func (r *MemberRepository) ListEligible(ctx context.Context, actionDate time.Time, groupCode string) ([]*models.MemberProfile, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM member_profiles m
		WHERE m.debit_order_status IN ('active', 'pending')
		  AND ($2 = '' OR m.group_code = $2)
		  AND NOT EXISTS (
			SELECT 1
			FROM debit_transactions t
			JOIN debit_batches b ON b.id = t.batch_id
			WHERE t.member_id = m.id
			  AND b.action_date = $1
			  AND b.status IN ('pending', 'submitted', 'processing')
		  )
		ORDER BY m.member_number ASC
	`

	rows, err := r.db.QueryContext(ctx, query, actionDate, groupCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*models.MemberProfile
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}

	return members, rows.Err()
}

// ApplySuccessfulPayment records a confirmed collection: arrears reduced by
// the collected amount (never below zero), failure counter reset, payment
// dates advanced, status back to active.
func (r *MemberRepository) ApplySuccessfulPayment(ctx context.Context, memberID string, amountCents int64, paidAt, nextDebit time.Time) error {
	query := `
		UPDATE member_profiles
		SET arrears_cents = GREATEST(arrears_cents - $2, 0),
		    failed_attempts = 0,
		    last_payment_date = $3,
		    next_debit_date = $4,
		    debit_order_status = 'active',
		    updated_at = NOW()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, memberID, amountCents, paidAt, nextDebit)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ApplyFailedPayment records a failed or rejected collection: arrears grow
// by the uncollected amount and the failure counter increments. The
// debit-order status is left alone here; suspension at the retry ceiling is
// the retry manager's call.
func (r *MemberRepository) ApplyFailedPayment(ctx context.Context, memberID string, amountCents int64) (int, error) {
	query := `
		UPDATE member_profiles
		SET arrears_cents = arrears_cents + $2,
		    failed_attempts = failed_attempts + 1,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING failed_attempts
	`
	var failedAttempts int
	err := r.db.QueryRowContext(ctx, query, memberID, amountCents).Scan(&failedAttempts)
	if err == sql.ErrNoRows {
		return 0, models.ErrNotFound
	}
	return failedAttempts, err
}

// Suspend moves a member to suspended, excluding them from future batch
// selection until an operator reactivates the account.
func (r *MemberRepository) Suspend(ctx context.Context, memberID string) error {
	query := `
		UPDATE member_profiles
		SET debit_order_status = 'suspended', updated_at = NOW()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, memberID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Reactivate returns a suspended member to active and resets the failure
// counter. Arrears are carried forward in full; reactivation is not a
// write-off.
func (r *MemberRepository) Reactivate(ctx context.Context, memberID string) error {
	query := `
		UPDATE member_profiles
		SET debit_order_status = 'active',
		    failed_attempts = 0,
		    updated_at = NOW()
		WHERE id = $1 AND debit_order_status = 'suspended'
	`
	res, err := r.db.ExecContext(ctx, query, memberID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// RepeatedFailures lists members with at least minFailures failed or
// rejected collections since the given cutoff, for manual escalation.
func (r *MemberRepository) RepeatedFailures(ctx context.Context, minFailures int, since time.Time) ([]*models.RepeatedFailure, error) {
	query := `
		SELECT m.id, m.member_number, m.full_name, m.debit_order_status,
		       m.arrears_cents, COUNT(t.id) AS failure_count, MAX(t.processed_at) AS last_failure
		FROM member_profiles m
		JOIN debit_transactions t ON t.member_id = m.id
		WHERE t.status IN ('failed', 'rejected')
		  AND t.processed_at >= $2
		GROUP BY m.id, m.member_number, m.full_name, m.debit_order_status, m.arrears_cents
		HAVING COUNT(t.id) >= $1
		ORDER BY failure_count DESC, last_failure DESC
	`

	rows, err := r.db.QueryContext(ctx, query, minFailures, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var failures []*models.RepeatedFailure
	for rows.Next() {
		f := &models.RepeatedFailure{}
		err := rows.Scan(
			&f.MemberID,
			&f.MemberNumber,
			&f.FullName,
			&f.Status,
			&f.ArrearsCents,
			&f.FailureCount,
			&f.LastFailure,
		)
		if err != nil {
			return nil, err
		}
		failures = append(failures, f)
	}

	return failures, rows.Err()
}
