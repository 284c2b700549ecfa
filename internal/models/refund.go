package models

import "time"

type RefundStatus string

const (
	RefundStatusPending    RefundStatus = "pending"
	RefundStatusProcessing RefundStatus = "processing"
	RefundStatusCompleted  RefundStatus = "completed"
	RefundStatusFailed     RefundStatus = "failed"
)

// Refund is a linked reversal record against a successful transaction. It
// never mutates the original transaction's amount; the original only flips
// to refunded once the processor confirms the reversal.
type Refund struct {
	ID                 string       `json:"id" db:"id"`
	TransactionID      string       `json:"transaction_id" db:"transaction_id"`
	AmountCents        int64        `json:"amount_cents" db:"amount_cents"`
	Status             RefundStatus `json:"status" db:"status"`
	Reason             string       `json:"reason" db:"reason"`
	ProcessorReference string       `json:"processor_reference,omitempty" db:"processor_reference"`
	RequestedAt        time.Time    `json:"requested_at" db:"requested_at"`
	CompletedAt        *time.Time   `json:"completed_at,omitempty" db:"completed_at"`
}

// Database schema
const RefundSchema = `
CREATE TABLE IF NOT EXISTS refunds (
    id VARCHAR(36) PRIMARY KEY,
    transaction_id VARCHAR(36) NOT NULL REFERENCES debit_transactions(id),
    amount_cents BIGINT NOT NULL CHECK (amount_cents > 0),
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    reason TEXT NOT NULL,
    processor_reference VARCHAR(100) NOT NULL DEFAULT '',
    requested_at TIMESTAMP NOT NULL DEFAULT NOW(),
    completed_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_refund_transaction_id ON refunds (transaction_id);
CREATE INDEX IF NOT EXISTS idx_refund_status ON refunds (status);
`
