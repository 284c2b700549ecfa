package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/day1healthdeveloper-cmd/day1main-system-sub004/internal/models"
)

func seedMember(fs *fakeStore, id, number string, premiumCents int64, status models.DebitOrderStatus) *models.MemberProfile {
	m := &models.MemberProfile{
		ID:               id,
		MemberNumber:     number,
		FullName:         "Member " + number,
		BankName:         "First National",
		AccountNumber:    "62000000" + number,
		BranchCode:       "250655",
		AccountType:      models.AccountTypeCurrent,
		PremiumCents:     premiumCents,
		DebitDay:         15,
		DebitOrderStatus: status,
	}
	fs.members[id] = m
	return m
}

func newBuilderFixture() (*fakeStore, *BatchBuilder) {
	fs := newFakeStore()
	builder := NewBatchBuilder(fs, batchView{fs}, zap.NewNop())
	return fs, builder
}

func TestBatchName(t *testing.T) {
	date := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		groupCode string
		want      string
	}{
		{"no group", "", "DEBIT-20260215"},
		{"with group", "corp01", "DEBIT-20260215-CORP01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BatchName(date, tt.groupCode)
			if got != tt.want {
				t.Errorf("BatchName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildTotalsEqualTransactionSum(t *testing.T) {
	fs, builder := newBuilderFixture()
	seedMember(fs, "m1", "001", 50000, models.DebitOrderActive)
	seedMember(fs, "m2", "002", 75000, models.DebitOrderActive)
	seedMember(fs, "m3", "003", 32500, models.DebitOrderPending)

	batch, err := builder.Build(context.Background(), BuildRequest{
		ActionDate: time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if batch.MemberCount != 3 {
		t.Errorf("member count = %d, want 3", batch.MemberCount)
	}

	var sum int64
	for _, txn := range fs.txns {
		if txn.BatchID != batch.ID {
			continue
		}
		if txn.Status != models.TxnStatusPending {
			t.Errorf("transaction %s status = %s, want pending", txn.ID, txn.Status)
		}
		sum += txn.AmountCents
	}
	if sum != batch.TotalAmountCents {
		t.Errorf("transaction sum = %d, batch total = %d", sum, batch.TotalAmountCents)
	}
	if batch.TotalAmountCents != 157500 {
		t.Errorf("batch total = %d, want 157500", batch.TotalAmountCents)
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	fs, builder := newBuilderFixture()
	seedMember(fs, "m1", "001", 50000, models.DebitOrderActive)

	req := BuildRequest{ActionDate: time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)}

	if _, err := builder.Build(context.Background(), req); err != nil {
		t.Fatalf("first Build() error = %v", err)
	}

	// The member is now in an open batch, so a rebuild finds nobody; and
	// even a racing rebuild that saw the member collides on the name.
	_, err := builder.Build(context.Background(), req)
	if !errors.Is(err, models.ErrNoEligibleMembers) && !errors.Is(err, models.ErrDuplicateBatch) {
		t.Fatalf("second Build() error = %v, want ErrNoEligibleMembers or ErrDuplicateBatch", err)
	}

	if len(fs.batches) != 1 {
		t.Errorf("batch count = %d, want exactly 1", len(fs.batches))
	}
}

func TestBuildRejectsDuplicateName(t *testing.T) {
	fs, builder := newBuilderFixture()
	seedMember(fs, "m1", "001", 50000, models.DebitOrderActive)

	date := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
	fs.batches["existing"] = &models.Batch{
		ID:         "existing",
		Name:       BatchName(date, ""),
		ActionDate: date.AddDate(0, 0, 1), // different date, same name: pure name collision
		Status:     models.BatchStatusCompleted,
	}

	_, err := builder.Build(context.Background(), BuildRequest{ActionDate: date})
	if !errors.Is(err, models.ErrDuplicateBatch) {
		t.Fatalf("Build() error = %v, want ErrDuplicateBatch", err)
	}
}

func TestBuildExcludesSuspendedMembers(t *testing.T) {
	fs, builder := newBuilderFixture()
	seedMember(fs, "m1", "001", 50000, models.DebitOrderActive)
	seedMember(fs, "m2", "002", 50000, models.DebitOrderSuspended)
	seedMember(fs, "m3", "003", 50000, models.DebitOrderFailed)

	batch, err := builder.Build(context.Background(), BuildRequest{
		ActionDate: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if batch.MemberCount != 1 {
		t.Errorf("member count = %d, want 1 (suspended and failed excluded)", batch.MemberCount)
	}
	for _, txn := range fs.txns {
		if txn.MemberID != "m1" {
			t.Errorf("unexpected transaction for member %s", txn.MemberID)
		}
	}
}

func TestBuildNoEligibleMembers(t *testing.T) {
	fs, builder := newBuilderFixture()
	seedMember(fs, "m1", "001", 50000, models.DebitOrderSuspended)

	_, err := builder.Build(context.Background(), BuildRequest{
		ActionDate: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, models.ErrNoEligibleMembers) {
		t.Fatalf("Build() error = %v, want ErrNoEligibleMembers", err)
	}
	if len(fs.batches) != 0 {
		t.Error("no batch should be created when nobody is eligible")
	}
}

func TestBuildGroupFilter(t *testing.T) {
	fs, builder := newBuilderFixture()
	m1 := seedMember(fs, "m1", "001", 50000, models.DebitOrderActive)
	m1.GroupCode = "corp01"
	seedMember(fs, "m2", "002", 50000, models.DebitOrderActive)

	batch, err := builder.Build(context.Background(), BuildRequest{
		ActionDate: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		GroupCode:  "corp01",
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if batch.MemberCount != 1 {
		t.Errorf("member count = %d, want 1", batch.MemberCount)
	}
	if batch.Name != "DEBIT-20260315-CORP01" {
		t.Errorf("batch name = %q", batch.Name)
	}
}
