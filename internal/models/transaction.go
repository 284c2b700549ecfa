package models

import "time"

type TransactionStatus string

const (
	TxnStatusPending    TransactionStatus = "pending"
	TxnStatusSubmitted  TransactionStatus = "submitted"
	TxnStatusSuccessful TransactionStatus = "successful"
	TxnStatusFailed     TransactionStatus = "failed"
	TxnStatusRejected   TransactionStatus = "rejected"
	TxnStatusRefunded   TransactionStatus = "refunded"
)

// legalTransitions is the closed transition table for transaction statuses.
// A transaction moves pending -> submitted -> successful|failed|rejected,
// and successful -> refunded once a refund is confirmed. Nothing else.
var legalTransitions = map[TransactionStatus][]TransactionStatus{
	TxnStatusPending:    {TxnStatusSubmitted},
	TxnStatusSubmitted:  {TxnStatusSuccessful, TxnStatusFailed, TxnStatusRejected},
	TxnStatusSuccessful: {TxnStatusRefunded},
	TxnStatusFailed:     {},
	TxnStatusRejected:   {},
	TxnStatusRefunded:   {},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to TransactionStatus) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether a status admits no further transitions except
// the refund path on successful.
func (s TransactionStatus) Terminal() bool {
	return s == TxnStatusFailed || s == TxnStatusRejected || s == TxnStatusRefunded
}

// Transaction is one member's collection attempt inside a batch. The amount
// is fixed at creation and never mutated; corrections happen via new
// transactions or refunds.
type Transaction struct {
	ID                 string            `json:"id" db:"id"`
	BatchID            string            `json:"batch_id" db:"batch_id"`
	MemberID           string            `json:"member_id" db:"member_id"`
	MemberNumber       string            `json:"member_number" db:"member_number"`
	MemberName         string            `json:"member_name" db:"member_name"`
	AmountCents        int64             `json:"amount_cents" db:"amount_cents"`
	Status             TransactionStatus `json:"status" db:"status"`
	ProcessorReference string            `json:"processor_reference,omitempty" db:"processor_reference"`
	Reason             string            `json:"reason,omitempty" db:"reason"`
	RetryCount         int               `json:"retry_count" db:"retry_count"`
	ProcessedAt        *time.Time        `json:"processed_at,omitempty" db:"processed_at"`
	CreatedAt          time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at" db:"updated_at"`
}

// TransactionFilter narrows ledger queries. Zero values mean "no filter".
type TransactionFilter struct {
	BatchID  string
	MemberID string
	Status   TransactionStatus
	From     time.Time
	To       time.Time
	Limit    int
	Offset   int
}

// TransactionStats summarises counts and amounts by status for dashboards.
type TransactionStats struct {
	TotalCount       int               `json:"total_count"`
	TotalAmountCents int64             `json:"total_amount_cents"`
	CountByStatus    map[string]int    `json:"count_by_status"`
	AmountByStatus   map[string]int64  `json:"amount_by_status_cents"`
	SuccessRate      float64           `json:"success_rate"`
}

// Database schema
const TransactionSchema = `
CREATE TABLE IF NOT EXISTS debit_transactions (
    id VARCHAR(36) PRIMARY KEY,
    batch_id VARCHAR(36) NOT NULL REFERENCES debit_batches(id),
    member_id VARCHAR(36) NOT NULL,
    member_number VARCHAR(50) NOT NULL,
    member_name VARCHAR(255) NOT NULL,
    amount_cents BIGINT NOT NULL CHECK (amount_cents > 0),
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    processor_reference VARCHAR(100) NOT NULL DEFAULT '',
    reason TEXT,
    retry_count INT NOT NULL DEFAULT 0,
    processed_at TIMESTAMP,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_txn_batch_id ON debit_transactions (batch_id);
CREATE INDEX IF NOT EXISTS idx_txn_member_id ON debit_transactions (member_id);
CREATE INDEX IF NOT EXISTS idx_txn_status ON debit_transactions (status);
CREATE INDEX IF NOT EXISTS idx_txn_processor_ref ON debit_transactions (processor_reference);
CREATE INDEX IF NOT EXISTS idx_txn_created_at ON debit_transactions (created_at);
`
