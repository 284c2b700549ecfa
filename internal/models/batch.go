package models

import "time"

type BatchStatus string

const (
	BatchStatusPending    BatchStatus = "pending"
	BatchStatusSubmitted  BatchStatus = "submitted"
	BatchStatusProcessing BatchStatus = "processing"
	BatchStatusCompleted  BatchStatus = "completed"
	BatchStatusFailed     BatchStatus = "failed"
)

type BatchType string

const (
	BatchTypeMonthly BatchType = "monthly"
	BatchTypeAdHoc   BatchType = "adhoc"
)

// Batch is a single collection run: one submission unit containing many
// member transactions targeting one action date. The batch name doubles as
// an idempotency key and is derived deterministically from the action date
// and scope, so rebuilding the same run never duplicates collections.
type Batch struct {
	ID                 string      `json:"id" db:"id"`
	Name               string      `json:"name" db:"name"`
	BatchType          BatchType   `json:"batch_type" db:"batch_type"`
	ActionDate         time.Time   `json:"action_date" db:"action_date"`
	GroupCode          string      `json:"group_code,omitempty" db:"group_code"`
	MemberCount        int         `json:"member_count" db:"member_count"`
	TotalAmountCents   int64       `json:"total_amount_cents" db:"total_amount_cents"`
	Status             BatchStatus `json:"status" db:"status"`
	ProcessorReference string      `json:"processor_reference,omitempty" db:"processor_reference"`
	SubmittedAt        *time.Time  `json:"submitted_at,omitempty" db:"submitted_at"`
	ErrorMessage       string      `json:"error_message,omitempty" db:"error_message"`
	CreatedAt          time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at" db:"updated_at"`
}

// Open reports whether the batch is still in a non-terminal state. Members
// inside an open batch for an overlapping action date are not eligible for
// inclusion in another one.
func (b *Batch) Open() bool {
	return b.Status == BatchStatusPending ||
		b.Status == BatchStatusSubmitted ||
		b.Status == BatchStatusProcessing
}

// Database schema
const BatchSchema = `
CREATE TABLE IF NOT EXISTS debit_batches (
    id VARCHAR(36) PRIMARY KEY,
    name VARCHAR(100) NOT NULL UNIQUE,
    batch_type VARCHAR(20) NOT NULL,
    action_date DATE NOT NULL,
    group_code VARCHAR(50),
    member_count INT NOT NULL,
    total_amount_cents BIGINT NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    processor_reference VARCHAR(100) NOT NULL DEFAULT '',
    submitted_at TIMESTAMP,
    error_message TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_batch_status ON debit_batches (status);
CREATE INDEX IF NOT EXISTS idx_batch_action_date ON debit_batches (action_date);
`
