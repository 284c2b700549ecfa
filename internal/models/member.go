package models

import "time"

type DebitOrderStatus string

const (
	DebitOrderPending   DebitOrderStatus = "pending"
	DebitOrderActive    DebitOrderStatus = "active"
	DebitOrderFailed    DebitOrderStatus = "failed"
	DebitOrderSuspended DebitOrderStatus = "suspended"
)

type BankAccountType string

const (
	AccountTypeCurrent      BankAccountType = "current"
	AccountTypeSavings      BankAccountType = "savings"
	AccountTypeTransmission BankAccountType = "transmission"
)

// MemberProfile holds the payment-specific fields of a member. The rest of
// the member record (personal details, plan, dependants) is owned by the
// application layer; this subsystem only reads and updates collection state.
type MemberProfile struct {
	ID                 string           `json:"id" db:"id"`
	MemberNumber       string           `json:"member_number" db:"member_number"`
	FullName           string           `json:"full_name" db:"full_name"`
	BankName           string           `json:"bank_name" db:"bank_name"`
	AccountNumber      string           `json:"account_number" db:"account_number"`
	BranchCode         string           `json:"branch_code" db:"branch_code"`
	AccountType        BankAccountType  `json:"account_type" db:"account_type"`
	PremiumCents       int64            `json:"premium_cents" db:"premium_cents"`
	DebitDay           int              `json:"debit_day" db:"debit_day"` // 1-28
	GroupCode          string           `json:"group_code,omitempty" db:"group_code"`
	DebitOrderStatus   DebitOrderStatus `json:"debit_order_status" db:"debit_order_status"`
	FailedAttempts     int              `json:"failed_attempts" db:"failed_attempts"`
	ArrearsCents       int64            `json:"arrears_cents" db:"arrears_cents"`
	LastPaymentDate    *time.Time       `json:"last_payment_date,omitempty" db:"last_payment_date"`
	NextDebitDate      *time.Time       `json:"next_debit_date,omitempty" db:"next_debit_date"`
	ProcessorAccount   string           `json:"processor_account_ref,omitempty" db:"processor_account_ref"`
	CreatedAt          time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at" db:"updated_at"`
}

// RepeatedFailure is a row in the repeated-failures escalation view.
type RepeatedFailure struct {
	MemberID     string           `json:"member_id"`
	MemberNumber string           `json:"member_number"`
	FullName     string           `json:"full_name"`
	Status       DebitOrderStatus `json:"status"`
	FailureCount int              `json:"failure_count"`
	ArrearsCents int64            `json:"arrears_cents"`
	LastFailure  time.Time        `json:"last_failure"`
}

// AccountTypeCode returns the processor's numeric code for a bank account type.
func (t BankAccountType) AccountTypeCode() string {
	switch t {
	case AccountTypeCurrent:
		return "1"
	case AccountTypeSavings:
		return "2"
	case AccountTypeTransmission:
		return "3"
	default:
		return "0"
	}
}

// Database schema
const MemberSchema = `
CREATE TABLE IF NOT EXISTS member_profiles (
    id VARCHAR(36) PRIMARY KEY,
    member_number VARCHAR(50) NOT NULL UNIQUE,
    full_name VARCHAR(255) NOT NULL,
    bank_name VARCHAR(100) NOT NULL,
    account_number VARCHAR(32) NOT NULL,
    branch_code VARCHAR(10) NOT NULL,
    account_type VARCHAR(20) NOT NULL,
    premium_cents BIGINT NOT NULL CHECK (premium_cents > 0),
    debit_day INT NOT NULL CHECK (debit_day BETWEEN 1 AND 28),
    group_code VARCHAR(50),
    debit_order_status VARCHAR(20) NOT NULL DEFAULT 'pending',
    failed_attempts INT NOT NULL DEFAULT 0,
    arrears_cents BIGINT NOT NULL DEFAULT 0 CHECK (arrears_cents >= 0),
    last_payment_date TIMESTAMP,
    next_debit_date TIMESTAMP,
    processor_account_ref VARCHAR(100),
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_member_debit_status ON member_profiles (debit_order_status);
CREATE INDEX IF NOT EXISTS idx_member_group_code ON member_profiles (group_code);
`
