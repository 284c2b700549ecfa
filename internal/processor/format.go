package processor

import (
	"fmt"
	"time"

	"github.com/day1healthdeveloper-cmd/day1main-system-sub004/internal/models"
)

// ServiceType selects the processor submission window.
type ServiceType string

const (
	// ServiceSameDay collects on the submission day itself. Strict morning
	// cutoff enforced by the bureau.
	ServiceSameDay ServiceType = "sameday"
	// ServiceTwoDay is the standard service: the batch must reach the
	// bureau at least two business days before the action date.
	ServiceTwoDay ServiceType = "twoday"
)

const actionDateFormat = "20060102"

// BatchLine is one collection instruction on the wire.
type BatchLine struct {
	AccountReference string `json:"account_reference"`
	AccountHolder    string `json:"account_holder"`
	AccountNumber    string `json:"account_number"`
	AccountTypeCode  string `json:"account_type_code"`
	BranchCode       string `json:"branch_code"`
	AmountCents      int64  `json:"amount_cents"`
	LineReference    string `json:"line_reference"`
}

// BatchPayload is the batch submission body in the bureau's transport format.
type BatchPayload struct {
	BatchName        string      `json:"batch_name"`
	ActionDate       string      `json:"action_date"` // CCYYMMDD
	ServiceType      ServiceType `json:"service_type"`
	LineCount        int         `json:"line_count"`
	TotalAmountCents int64       `json:"total_amount_cents"`
	Lines            []BatchLine `json:"lines"`
}

// BuildBatchPayload serializes a batch and its transactions into the wire
// format. Members with a stored processor account token are referenced by
// token; the bureau then reuses the mandate on file instead of fresh bank
// details.
func BuildBatchPayload(batch *models.Batch, txns []*models.Transaction, members map[string]*models.MemberProfile) (*BatchPayload, error) {
	payload := &BatchPayload{
		BatchName:   batch.Name,
		ActionDate:  batch.ActionDate.Format(actionDateFormat),
		ServiceType: ServiceTwoDay,
		LineCount:   len(txns),
	}

	var total int64
	for _, txn := range txns {
		member, ok := members[txn.MemberID]
		if !ok {
			return nil, fmt.Errorf("no member profile for transaction %s (member %s)", txn.ID, txn.MemberID)
		}

		accountRef := member.ProcessorAccount
		if accountRef == "" {
			accountRef = member.MemberNumber
		}

		payload.Lines = append(payload.Lines, BatchLine{
			AccountReference: accountRef,
			AccountHolder:    member.FullName,
			AccountNumber:    member.AccountNumber,
			AccountTypeCode:  member.AccountType.AccountTypeCode(),
			BranchCode:       member.BranchCode,
			AmountCents:      txn.AmountCents,
			LineReference:    txn.ID,
		})
		total += txn.AmountCents
	}

	payload.TotalAmountCents = total
	if total != batch.TotalAmountCents {
		return nil, fmt.Errorf("payload total %d does not match batch total %d", total, batch.TotalAmountCents)
	}

	return payload, nil
}

// ValidateSubmissionWindow rejects submissions the bureau would refuse:
// same-day batches after the morning cutoff, two-day batches without two
// clear business days before the action date. Checked locally before any
// network call.
func ValidateSubmissionWindow(now, actionDate time.Time, svc ServiceType, sameDayCutoffHour, twoDayCutoffHour int) error {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	action := time.Date(actionDate.Year(), actionDate.Month(), actionDate.Day(), 0, 0, 0, 0, now.Location())

	switch svc {
	case ServiceSameDay:
		if !action.Equal(today) {
			return fmt.Errorf("%w: same-day service requires action date %s, got %s",
				models.ErrPastCutoff, today.Format("2006-01-02"), action.Format("2006-01-02"))
		}
		if now.Hour() >= sameDayCutoffHour {
			return fmt.Errorf("%w: same-day cutoff is %02d:00", models.ErrPastCutoff, sameDayCutoffHour)
		}
		return nil

	case ServiceTwoDay:
		start := today
		if now.Hour() >= twoDayCutoffHour {
			// Past today's cutoff: submission only reaches the bureau
			// tomorrow.
			start = start.AddDate(0, 0, 1)
		}
		if businessDaysBetween(start, action) < 2 {
			return fmt.Errorf("%w: action date %s needs two clear business days",
				models.ErrPastCutoff, action.Format("2006-01-02"))
		}
		return nil

	default:
		return fmt.Errorf("unknown service type %q", svc)
	}
}

// businessDaysBetween counts weekdays strictly after start, up to and
// including end.
func businessDaysBetween(start, end time.Time) int {
	if !end.After(start) {
		return 0
	}
	days := 0
	for d := start.AddDate(0, 0, 1); !d.After(end); d = d.AddDate(0, 0, 1) {
		switch d.Weekday() {
		case time.Saturday, time.Sunday:
		default:
			days++
		}
	}
	return days
}
