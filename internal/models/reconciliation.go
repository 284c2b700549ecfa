package models

import "time"

// Outcome is a processor-reported result for a single transaction.
type Outcome string

const (
	OutcomeSuccessful Outcome = "successful"
	OutcomeFailed     Outcome = "failed"
	OutcomeRejected   Outcome = "rejected"
)

// ReportEntry is one line of a processor settlement report.
type ReportEntry struct {
	ProcessorReference string  `json:"processor_reference" binding:"required"`
	Outcome            Outcome `json:"outcome" binding:"required,oneof=successful failed rejected"`
	Reason             string  `json:"reason,omitempty"`
}

// SettlementReport is the processor's account of what happened to a batch.
type SettlementReport struct {
	ReportID         string        `json:"report_id" binding:"required"`
	BatchReference   string        `json:"batch_reference" binding:"required"`
	TotalAmountCents int64         `json:"total_amount_cents"`
	Entries          []ReportEntry `json:"entries" binding:"required"`
}

type DiscrepancyType string

const (
	// DiscrepancyOrphanedOutcome: the report names a processor reference the
	// ledger does not know.
	DiscrepancyOrphanedOutcome DiscrepancyType = "orphaned_outcome"
	// DiscrepancyMissingOutcome: a submitted ledger transaction is absent
	// from the report.
	DiscrepancyMissingOutcome DiscrepancyType = "missing_outcome"
	// DiscrepancyStateConflict: the reported outcome conflicts with a
	// terminal ledger state and could not be applied.
	DiscrepancyStateConflict DiscrepancyType = "state_conflict"
	// DiscrepancyTotalMismatch: processor-reported total differs from the
	// ledger-computed total.
	DiscrepancyTotalMismatch DiscrepancyType = "total_mismatch"
)

// Discrepancy is an unresolved difference between the ledger and a
// settlement report. Discrepancies persist until an operator resolves them;
// only the resolved flag is mutable.
type Discrepancy struct {
	ID                 string          `json:"id" db:"id"`
	ReconciliationID   string          `json:"reconciliation_id" db:"reconciliation_id"`
	Type               DiscrepancyType `json:"type" db:"type"`
	TransactionID      string          `json:"transaction_id,omitempty" db:"transaction_id"`
	ProcessorReference string          `json:"processor_reference,omitempty" db:"processor_reference"`
	ExpectedCents      int64           `json:"expected_cents" db:"expected_cents"`
	ActualCents        int64           `json:"actual_cents" db:"actual_cents"`
	Description        string          `json:"description" db:"description"`
	Resolved           bool            `json:"resolved" db:"resolved"`
	ResolvedAt         *time.Time      `json:"resolved_at,omitempty" db:"resolved_at"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
}

// ReconciliationRecord summarises one settlement report application.
type ReconciliationRecord struct {
	ID                   string        `json:"id" db:"id"`
	ReportID             string        `json:"report_id" db:"report_id"`
	BatchID              string        `json:"batch_id" db:"batch_id"`
	ProcessorTotalCents  int64         `json:"processor_total_cents" db:"processor_total_cents"`
	LedgerTotalCents     int64         `json:"ledger_total_cents" db:"ledger_total_cents"`
	MatchedCount         int           `json:"matched_count" db:"matched_count"`
	SuccessfulCount      int           `json:"successful_count" db:"successful_count"`
	FailedCount          int           `json:"failed_count" db:"failed_count"`
	MatchRate            float64       `json:"match_rate" db:"match_rate"`
	Discrepancies        []Discrepancy `json:"discrepancies,omitempty"`
	CreatedAt            time.Time     `json:"created_at" db:"created_at"`
}

// Database schema
const ReconciliationSchema = `
CREATE TABLE IF NOT EXISTS reconciliation_records (
    id VARCHAR(36) PRIMARY KEY,
    report_id VARCHAR(100) NOT NULL,
    batch_id VARCHAR(36) NOT NULL,
    processor_total_cents BIGINT NOT NULL,
    ledger_total_cents BIGINT NOT NULL,
    matched_count INT NOT NULL,
    successful_count INT NOT NULL,
    failed_count INT NOT NULL,
    match_rate DOUBLE PRECISION NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS reconciliation_discrepancies (
    id VARCHAR(36) PRIMARY KEY,
    reconciliation_id VARCHAR(36) NOT NULL REFERENCES reconciliation_records(id),
    type VARCHAR(30) NOT NULL,
    transaction_id VARCHAR(36),
    processor_reference VARCHAR(100),
    expected_cents BIGINT NOT NULL DEFAULT 0,
    actual_cents BIGINT NOT NULL DEFAULT 0,
    description TEXT NOT NULL,
    resolved BOOLEAN NOT NULL DEFAULT FALSE,
    resolved_at TIMESTAMP,
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_disc_reconciliation_id ON reconciliation_discrepancies (reconciliation_id);
CREATE INDEX IF NOT EXISTS idx_disc_resolved ON reconciliation_discrepancies (resolved);
`
